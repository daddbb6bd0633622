// Package fake
// Author: momentics <momentics@gmail.com>
//
// Fake implementations for testing and development.
// Provides predictable, controllable behavior for the transport contract.

package fake

import (
	"sync"

	"github.com/momentics/pollws/api"
)

// Options tunes a Pipe. Zero values mean unlimited.
type Options struct {
	// MaxSend caps the bytes accepted by a single Send.
	MaxSend int
	// MaxRecv caps the bytes returned by a single Receive.
	MaxRecv int
	// MaxBuffered caps the bytes queued towards a peer; Send would block
	// beyond it.
	MaxBuffered int
}

// Transport is one end of an in-memory duplex pipe implementing api.Transport.
type Transport struct {
	mu   *sync.Mutex
	peer *Transport
	opts Options

	inbox      []byte
	sent       []byte
	closed     bool
	closeCount int
	failSend   bool
	failRecv   bool
	wouldBlock bool
	noDelay    bool
}

var _ api.Transport = (*Transport)(nil)

// Pipe returns two connected transports sharing opts.
func Pipe(opts Options) (*Transport, *Transport) {
	mu := new(sync.Mutex)
	a := &Transport{mu: mu, opts: opts}
	b := &Transport{mu: mu, opts: opts}
	a.peer, b.peer = b, a
	return a, b
}

// Receive implements api.Transport. An empty inbox would block unless the
// peer has closed, in which case Receive reports end of stream with 0.
func (t *Transport) Receive(p []byte) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.wouldBlock = false
	if t.failRecv || t.closed {
		return -1
	}
	if len(t.inbox) == 0 {
		if t.peer.closed {
			return 0
		}
		t.wouldBlock = true
		return -1
	}
	n := len(p)
	if t.opts.MaxRecv > 0 && n > t.opts.MaxRecv {
		n = t.opts.MaxRecv
	}
	n = copy(p[:n], t.inbox)
	t.inbox = t.inbox[n:]
	return n
}

// Send implements api.Transport.
func (t *Transport) Send(p []byte) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.wouldBlock = false
	if t.failSend || t.closed || t.peer.closed {
		return -1
	}
	n := len(p)
	if t.opts.MaxSend > 0 && n > t.opts.MaxSend {
		n = t.opts.MaxSend
	}
	if t.opts.MaxBuffered > 0 {
		room := t.opts.MaxBuffered - len(t.peer.inbox)
		if room <= 0 {
			t.wouldBlock = true
			return -1
		}
		if n > room {
			n = room
		}
	}
	t.peer.inbox = append(t.peer.inbox, p[:n]...)
	t.sent = append(t.sent, p[:n]...)
	return n
}

// Close implements api.Transport.
func (t *Transport) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	t.closeCount++
}

// WouldBlock implements api.Transport.
func (t *Transport) WouldBlock() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.wouldBlock
}

// InProgress implements api.Transport. The pipe never reports it.
func (t *Transport) InProgress() bool { return false }

// DisableCoalescing implements api.Transport.
func (t *Transport) DisableCoalescing() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.noDelay = true
}

// CoalescingDisabled reports whether DisableCoalescing was called.
func (t *Transport) CoalescingDisabled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.noDelay
}

// Inject queues raw bytes as if the peer had sent them.
func (t *Transport) Inject(p []byte) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.inbox = append(t.inbox, p...)
}

// Pending returns the number of bytes waiting in the inbox.
func (t *Transport) Pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.inbox)
}

// Sent returns a copy of everything this end has sent.
func (t *Transport) Sent() []byte {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]byte(nil), t.sent...)
}

// ResetSent forgets the captured output.
func (t *Transport) ResetSent() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sent = t.sent[:0]
}

// FailSend makes every later Send fail fatally.
func (t *Transport) FailSend() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.failSend = true
}

// FailRecv makes every later Receive fail fatally.
func (t *Transport) FailRecv() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.failRecv = true
}

// Closed reports whether Close was called.
func (t *Transport) Closed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}

// CloseCount returns how many times Close was called.
func (t *Transport) CloseCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closeCount
}
