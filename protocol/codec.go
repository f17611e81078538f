package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/vmihailenco/msgpack/v5"
)

var (
	// ErrMalformed reports a frame that could not be decoded at all.
	ErrMalformed = errors.New("protocol: malformed message")
	// ErrUnknownType reports a well-formed message with an unrecognized type.
	ErrUnknownType = errors.New("protocol: unknown message type")
)

// Codec names, also used as WebSocket subprotocols.
const (
	CodecJSON    = "json"
	CodecMsgpack = "msgpack"
)

// Codec turns server messages into frames and frames into client messages.
type Codec interface {
	Name() string
	// Binary reports whether frames should travel as binary messages.
	Binary() bool
	Encode(m ServerMessage) ([]byte, error)
	Decode(b []byte) (ClientMessage, error)
}

var (
	JSON    Codec = jsonCodec{}
	Msgpack Codec = msgpackCodec{}
)

// Lookup returns the codec registered under name.
func Lookup(name string) (Codec, bool) {
	switch name {
	case CodecJSON, "":
		return JSON, true
	case CodecMsgpack:
		return Msgpack, true
	}
	return nil, false
}

type jsonCodec struct{}

func (jsonCodec) Name() string { return CodecJSON }
func (jsonCodec) Binary() bool { return false }

func (jsonCodec) Encode(m ServerMessage) ([]byte, error) {
	v, ok := stamp(m)
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrUnknownType, m)
	}
	return json.Marshal(v)
}

func (jsonCodec) Decode(b []byte) (ClientMessage, error) {
	return decodeClient(b, json.Unmarshal)
}

type msgpackCodec struct{}

func (msgpackCodec) Name() string { return CodecMsgpack }
func (msgpackCodec) Binary() bool { return true }

func (msgpackCodec) Encode(m ServerMessage) ([]byte, error) {
	v, ok := stamp(m)
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrUnknownType, m)
	}
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag("json")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (msgpackCodec) Decode(b []byte) (ClientMessage, error) {
	return decodeClient(b, func(data []byte, v any) error {
		dec := msgpack.NewDecoder(bytes.NewReader(data))
		dec.SetCustomStructTag("json")
		return dec.Decode(v)
	})
}

type envelope struct {
	Type string `json:"type"`
}

func decodeClient(b []byte, unmarshal func([]byte, any) error) (ClientMessage, error) {
	if len(b) == 0 {
		return nil, fmt.Errorf("%w: empty frame", ErrMalformed)
	}
	var env envelope
	if err := unmarshal(b, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	switch env.Type {
	case TypeJoin:
		var m Join
		if err := unmarshal(b, &m); err != nil {
			return nil, fmt.Errorf("%w: join: %v", ErrMalformed, err)
		}
		if m.Hue != nil && !finite(*m.Hue) {
			m.Hue = nil
		}
		return m, nil
	case TypeInput:
		var m Input
		if err := unmarshal(b, &m); err != nil {
			return nil, fmt.Errorf("%w: input: %v", ErrMalformed, err)
		}
		if m.Angle != nil && !finite(*m.Angle) {
			return nil, fmt.Errorf("%w: input: non-finite angle", ErrMalformed)
		}
		return m, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, env.Type)
	}
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
