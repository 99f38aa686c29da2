package ack

import "errors"

// Event names on the realtime channel.
const (
	EventBroadcast = "command:broadcast"
	EventAck       = "client:ack"
)

var (
	ErrNotConnected = errors.New("realtime channel not connected")
	ErrBusy         = errors.New("a broadcast of this kind is already in progress")
)

// Channel is a persistent, bidirectional link to the display clients.
type Channel interface {
	// Connected reports whether events can currently be emitted.
	Connected() bool
	// Emit sends one event to every connected client.
	Emit(event string, payload []byte) error
	// On registers fn for inbound events of the given name. Calling the
	// returned func detaches fn; fn is not called after that returns.
	On(event string, fn func(payload []byte)) (off func())
}
