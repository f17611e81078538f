// Package mobile provides gomobile-compatible bindings for embedding
// the Neon Snake server in iOS/tvOS/Android applications.
//
// All exported functions use only primitive types (int, string, error)
// to satisfy gomobile's type restrictions.
package mobile

import (
	"fmt"
	"net"
	"sync"

	"neonsnake.io/engine"
	"neonsnake.io/highscore"
)

var (
	srv  *engine.Server
	mu   sync.Mutex
	port int
)

// Start initializes and starts the snake server on the given port with
// botCount scripted players. The server runs in the background.
func Start(serverPort, botCount int) error {
	mu.Lock()
	defer mu.Unlock()

	if srv != nil {
		return engine.ErrServerRunning
	}

	cfg := engine.DefaultConfig()
	cfg.BotCount = botCount
	if err := cfg.Validate(); err != nil {
		return err
	}
	s := engine.NewServer(cfg, highscore.NewMemoryStore())
	if err := s.Start(serverPort); err != nil {
		return err
	}
	srv = s
	port = serverPort
	return nil
}

// Stop shuts down the running server.
func Stop() error {
	mu.Lock()
	defer mu.Unlock()

	if srv == nil {
		return nil
	}
	err := srv.Stop()
	srv = nil
	return err
}

func IsRunning() bool {
	mu.Lock()
	defer mu.Unlock()
	return srv != nil
}

// GetStats returns the current game stats as a JSON string.
func GetStats() string {
	mu.Lock()
	s := srv
	mu.Unlock()

	if s == nil {
		return "{}"
	}
	return s.GetStatsJSON()
}

// GetLocalIP returns the first non-loopback IPv4 address of the device.
func GetLocalIP() string {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return "unknown"
	}
	for _, addr := range addrs {
		if ipNet, ok := addr.(*net.IPNet); ok && !ipNet.IP.IsLoopback() && ipNet.IP.To4() != nil {
			return ipNet.IP.String()
		}
	}
	return "unknown"
}

// GetConnectURL returns the WebSocket URL clients on the LAN should dial.
func GetConnectURL() string {
	mu.Lock()
	p := port
	mu.Unlock()

	return fmt.Sprintf("ws://%s:%d%s", GetLocalIP(), p, engine.DefaultConfig().Path)
}

func GetVersion() string {
	return engine.Version
}
