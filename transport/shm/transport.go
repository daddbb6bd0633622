// File: transport/shm/transport.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package shm

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/momentics/pollws/api"
	"github.com/momentics/pollws/core/concurrency"
)

// DefaultSize is the default data capacity of each direction.
const DefaultSize = 16 * 1024

// ErrSizeMismatch is returned when a peer region has an unexpected size.
var ErrSizeMismatch = errors.New("shm: region size mismatch")

// ServerPath names the server-written region for port in dir.
func ServerPath(dir string, port int) string {
	return filepath.Join(dir, "@sharedserver."+strconv.Itoa(port)+".cache")
}

// ClientPath names the client-written region for port in dir.
func ClientPath(dir string, port int) string {
	return filepath.Join(dir, "@sharedclient."+strconv.Itoa(port)+".cache")
}

// Transport is one end of a ring pair. Receive and Send never block; an
// empty receive ring or a full send ring reports WouldBlock.
type Transport struct {
	tx         *concurrency.SPSC
	rx         *concurrency.SPSC
	closed     bool
	wouldBlock bool
	onClose    func()
}

var _ api.Transport = (*Transport)(nil)

func newTransport(txRegion, rxRegion []byte, owner bool) (*Transport, error) {
	tx, err := concurrency.NewSPSC(txRegion, concurrency.Writer, owner)
	if err != nil {
		return nil, fmt.Errorf("send ring: %w", err)
	}
	rx, err := concurrency.NewSPSC(rxRegion, concurrency.Reader, owner)
	if err != nil {
		return nil, fmt.Errorf("receive ring: %w", err)
	}
	return &Transport{tx: tx, rx: rx}, nil
}

// Receive implements api.Transport.
func (t *Transport) Receive(p []byte) int {
	t.wouldBlock = false
	if t.closed {
		return -1
	}
	n := t.rx.Read(p)
	if n == 0 && len(p) > 0 {
		t.wouldBlock = true
		return -1
	}
	return n
}

// Send implements api.Transport.
func (t *Transport) Send(p []byte) int {
	t.wouldBlock = false
	if t.closed {
		return -1
	}
	n := t.tx.Write(p)
	if n == 0 && len(p) > 0 {
		t.wouldBlock = true
		return -1
	}
	return n
}

// WouldBlock implements api.Transport.
func (t *Transport) WouldBlock() bool { return t.wouldBlock }

// InProgress implements api.Transport. Rings have no pending state.
func (t *Transport) InProgress() bool { return false }

// DisableCoalescing implements api.Transport. Rings never coalesce.
func (t *Transport) DisableCoalescing() {}

// Close stops the transport. Rings stay intact so a peer can drain them.
func (t *Transport) Close() {
	if t.closed {
		return
	}
	t.closed = true
	if t.onClose != nil {
		t.onClose()
	}
}

// Buffered returns bytes waiting in the receive ring.
func (t *Transport) Buffered() uint32 { return t.rx.Size() }

// NewPair returns two connected in-process transports, each direction with
// size bytes of ring capacity.
func NewPair(size int) (*Transport, *Transport, error) {
	if size <= 0 {
		return nil, nil, fmt.Errorf("shm pair of %d bytes: %w", size, api.ErrInvalidArgument)
	}
	ab := make([]byte, concurrency.HeaderSize+size)
	ba := make([]byte, concurrency.HeaderSize+size)
	a, err := newTransport(ab, ba, true)
	if err != nil {
		return nil, nil, err
	}
	b, err := newTransport(ba, ab, false)
	if err != nil {
		return nil, nil, err
	}
	return a, b, nil
}

// Server owns both region files of a port and hands out one transport once
// a client has attached.
type Server struct {
	server   *Region
	client   *Region
	tr       *Transport
	accepted bool
	closed   bool
}

var _ api.Acceptor = (*Server)(nil)

// Listen creates and initializes the region files for port in dir.
func Listen(dir string, port, size int) (*Server, error) {
	total := concurrency.HeaderSize + size
	sr, err := CreateRegion(ServerPath(dir, port), total)
	if err != nil {
		return nil, err
	}
	cr, err := CreateRegion(ClientPath(dir, port), total)
	if err != nil {
		sr.Close()
		return nil, err
	}
	tr, err := newTransport(sr.Bytes(), cr.Bytes(), true)
	if err != nil {
		sr.Close()
		cr.Close()
		return nil, err
	}
	return &Server{server: sr, client: cr, tr: tr}, nil
}

// Accept implements api.Acceptor. The transport is returned once, after the
// client bumped the sequence counter of its region.
func (s *Server) Accept() (api.Transport, bool) {
	if s.closed || s.accepted || s.tr.rx.Sequence() == 0 {
		return nil, false
	}
	s.accepted = true
	return s.tr, true
}

// Paths returns the server-written and client-written region files.
func (s *Server) Paths() (server, client string) {
	return s.server.Path(), s.client.Path()
}

// Close unmaps and removes both region files.
func (s *Server) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.tr.Close()
	return errors.Join(s.server.Close(), s.client.Close())
}

// Dial attaches to the regions of a listening server for port in dir and
// announces itself by bumping the client sequence counter.
func Dial(dir string, port, size int) (*Transport, error) {
	total := concurrency.HeaderSize + size
	sr, err := OpenRegion(ServerPath(dir, port), total)
	if err != nil {
		return nil, err
	}
	cr, err := OpenRegion(ClientPath(dir, port), total)
	if err != nil {
		sr.Close()
		return nil, err
	}
	tr, err := newTransport(cr.Bytes(), sr.Bytes(), false)
	if err != nil {
		sr.Close()
		cr.Close()
		return nil, err
	}
	tr.onClose = func() {
		sr.Close()
		cr.Close()
	}
	tr.tx.IncrementSequence()
	return tr, nil
}
