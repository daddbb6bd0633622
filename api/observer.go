// File: api/observer.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Observer receives connection telemetry. Implementations must be cheap;
// they are invoked on the polling goroutine.

package api

// Direction of a traffic event.
type Direction string

const (
	DirectionIn  Direction = "in"
	DirectionOut Direction = "out"
)

// Observer is notified about frames and lifecycle transitions.
type Observer interface {
	// Frame reports one frame (or line) moved in the given direction.
	Frame(dir Direction, opcode string, payloadLen int)

	// Bytes reports raw bytes moved through the transport.
	Bytes(dir Direction, n int)

	// Opened is called once a connection reaches the open state.
	Opened()

	// Closed is called once a connection reaches the closed state.
	// wasOpen is true when Opened was reported earlier.
	Closed(reason string, wasOpen bool)

	// HandshakeFailed is called when a handshake aborts.
	HandshakeFailed()
}

// NopObserver discards all events.
type NopObserver struct{}

func (NopObserver) Frame(Direction, string, int) {}
func (NopObserver) Bytes(Direction, int)          {}
func (NopObserver) Opened()                       {}
func (NopObserver) Closed(string, bool)           {}
func (NopObserver) HandshakeFailed()              {}
