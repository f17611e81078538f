//go:build tools

package mobile

// Pins the gomobile bind package so `gomobile bind ./mobile` resolves
// against the module's go.sum.
import _ "golang.org/x/mobile/bind"
