// File: api/transport.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Transport capability consumed by the connection state machine.
// Implemented by non-blocking sockets, the shared-memory ring adapter
// and the in-memory fakes used in tests.

package api

// Transport is a non-blocking, partial-delivery byte stream.
//
// Receive and Send return the number of bytes moved, or a value <= 0 on
// failure. After a failure WouldBlock and InProgress report whether the
// condition is transient; any other non-positive result is fatal.
type Transport interface {
	// Receive reads up to len(p) bytes into p.
	Receive(p []byte) int

	// Send writes up to len(p) bytes from p.
	Send(p []byte) int

	// Close shuts the underlying channel down. Safe to call more than once.
	Close()

	// WouldBlock reports whether the last failed call would have blocked.
	WouldBlock() bool

	// InProgress reports whether the last failed call hit an operation in progress.
	InProgress() bool

	// DisableCoalescing turns off Nagle-style send batching. Best effort.
	DisableCoalescing()
}

// Acceptor yields server-side transports for newly arrived peers.
type Acceptor interface {
	// Accept returns the next pending transport without blocking.
	Accept() (Transport, bool)

	// Close stops accepting.
	Close() error
}
