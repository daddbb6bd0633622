// Package fake
// Author: momentics <momentics@gmail.com>
//
// In-memory acceptor handing out queued transports.

package fake

import (
	"sync"

	"github.com/momentics/pollws/api"
)

// Acceptor implements api.Acceptor over a queue of transports.
type Acceptor struct {
	mu      sync.Mutex
	pending []api.Transport
	closed  bool
}

var _ api.Acceptor = (*Acceptor)(nil)

// NewAcceptor returns an empty acceptor.
func NewAcceptor() *Acceptor {
	return &Acceptor{}
}

// Push queues tr for the next Accept.
func (a *Acceptor) Push(tr api.Transport) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.pending = append(a.pending, tr)
}

// Dial creates a pipe, queues its server end and returns the client end.
func (a *Acceptor) Dial(opts Options) *Transport {
	client, server := Pipe(opts)
	a.Push(server)
	return client
}

// Accept implements api.Acceptor.
func (a *Acceptor) Accept() (api.Transport, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed || len(a.pending) == 0 {
		return nil, false
	}
	tr := a.pending[0]
	a.pending = a.pending[1:]
	return tr, true
}

// Close implements api.Acceptor.
func (a *Acceptor) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.closed = true
	a.pending = nil
	return nil
}
