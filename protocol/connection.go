// File: protocol/connection.go
// Package protocol implements the polled WebSocket connection state machine.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Conn drives one WebSocket session over a non-blocking api.Transport. All
// progress happens inside Poll: the handshake, draining the transport into
// the receive buffer, flushing the transmit buffer and dispatching complete
// frames to a handler. A Conn is not safe for concurrent use; it is owned by
// the goroutine that polls it.

package protocol

import (
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/momentics/pollws/api"
	"github.com/momentics/pollws/core/buffer"
	"github.com/momentics/pollws/core/protocol"
)

// Conn is a single client or server WebSocket connection.
type Conn struct {
	id      string
	role    api.Role
	state   api.ReadyState
	tr      api.Transport
	useMask bool
	framing Framing

	tx  *buffer.Growable
	rx  *buffer.Growable
	msg *buffer.Growable
	// msgOp is the opcode of the first fragment of the message being read.
	msgOp protocol.Opcode

	hs handshake

	log      *zap.Logger
	traffic  *trafficLog
	observer api.Observer

	readChunk        uint32
	handshakeTimeout time.Duration
	closeGrace       time.Duration
	now              func() time.Time
	wasOpen          bool

	scratch [protocol.MaxFrameHeaderLen]byte
}

func buildConfig(opts []Option) config {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

func newConn(tr api.Transport, role api.Role, cfg config) *Conn {
	if cfg.id == "" {
		cfg.id = uuid.NewString()
	}
	useMask := role == api.RoleClient
	if cfg.useMask != nil {
		useMask = *cfg.useMask
	}

	c := &Conn{
		id:               cfg.id,
		role:             role,
		state:            api.StateConnecting,
		tr:               tr,
		useMask:          useMask,
		framing:          cfg.framing,
		tx:               buffer.New(cfg.txSize, cfg.maxBuffer),
		rx:               buffer.New(cfg.rxSize, cfg.maxBuffer),
		msg:              buffer.New(0, cfg.maxBuffer),
		observer:         cfg.observer,
		readChunk:        cfg.readChunk,
		handshakeTimeout: cfg.handshakeTimeout,
		closeGrace:       cfg.closeGrace,
		now:              cfg.now,
	}
	c.log = cfg.logger.With(
		zap.String("conn", c.id),
		zap.Stringer("role", role),
	)
	if cfg.traffic != nil {
		c.traffic = newTrafficLog(cfg.traffic.With(zap.String("conn", c.id)))
	}
	c.hs.reset(role, c.now())
	return c
}

// Dial starts the client side of a connection over an already connected
// transport. The upgrade request for target is queued immediately and sent
// by the following Poll calls.
func Dial(tr api.Transport, target URL, opts ...Option) (*Conn, error) {
	if tr == nil {
		return nil, api.NewError(api.ErrCodeInvalidArgument, "nil transport")
	}
	cfg := buildConfig(opts)
	c := newConn(tr, api.RoleClient, cfg)
	if !c.tx.Add(UpgradeRequest(target, cfg.origin)) {
		return nil, api.NewError(api.ErrCodeResourceExhausted, "upgrade request exceeds transmit buffer").
			WithContext("conn", c.id)
	}
	c.log.Debug("dialing", zap.String("host", target.Host), zap.Int("port", target.Port), zap.String("path", target.Path))
	return c, nil
}

// Accept starts the server side of a connection over a freshly accepted
// transport. The connection answers the client's upgrade request during
// subsequent Poll calls.
func Accept(tr api.Transport, opts ...Option) (*Conn, error) {
	if tr == nil {
		return nil, api.NewError(api.ErrCodeInvalidArgument, "nil transport")
	}
	c := newConn(tr, api.RoleServer, buildConfig(opts))
	c.log.Debug("accepted")
	return c, nil
}

// ID returns the connection identifier.
func (c *Conn) ID() string { return c.id }

// Role reports which side of the handshake this connection plays.
func (c *Conn) Role() api.Role { return c.role }

// State returns the current ready state.
func (c *Conn) State() api.ReadyState { return c.state }

// Poll advances the connection without blocking on the transport.
//
// While connecting it performs one handshake step. Once open it drains the
// transport into the receive buffer, flushes pending output and delivers every
// complete message to h. A closed connection sleeps for timeout, so a caller
// looping on Poll does not spin.
func (c *Conn) Poll(h api.MessageHandler, timeout time.Duration) {
	if c.tr == nil {
		return
	}
	switch c.state {
	case api.StateConnecting:
		c.handshakeStep()
		return
	case api.StateClosed:
		if timeout > 0 {
			time.Sleep(timeout)
		}
		return
	}

	if !c.fill() {
		return
	}
	if !c.flush() {
		return
	}
	if c.state == api.StateClosing && c.tx.Size() == 0 {
		c.teardown("closed")
		return
	}
	if h != nil {
		c.dispatch(h)
	}
}

// fill moves every available transport byte into rx. It returns false if
// the connection was torn down.
func (c *Conn) fill() bool {
	for {
		win := c.rx.ConfirmCapacity(c.readChunk)
		if win == nil {
			// Near the ceiling: offer whatever room remains.
			room := c.rx.MaxGrowSize() - c.rx.Size()
			if room == 0 || room >= c.readChunk {
				return true
			}
			if win = c.rx.ConfirmCapacity(room); win == nil {
				return true
			}
		}
		n := c.tr.Receive(win)
		if n <= 0 {
			if n < 0 && c.transient() {
				return true
			}
			c.fail("receive", n)
			return false
		}
		c.rx.Advance(uint32(n))
		c.observer.Bytes(api.DirectionIn, n)
	}
}

// flush sends tx until it is empty or the transport would block. It returns
// false if the connection was torn down.
func (c *Conn) flush() bool {
	for c.tx.Size() > 0 {
		n := c.tr.Send(c.tx.Data())
		if n <= 0 {
			if n < 0 && c.transient() {
				return true
			}
			c.fail("send", n)
			return false
		}
		c.tx.Consume(uint32(n))
		c.observer.Bytes(api.DirectionOut, n)
	}
	return true
}

func (c *Conn) transient() bool {
	return c.tr.WouldBlock() || c.tr.InProgress()
}

// fail tears the connection down after a non-transient transport error.
func (c *Conn) fail(op string, ret int) {
	c.log.Warn("transport failure", zap.String("op", op), zap.Int("ret", ret))
	c.teardown(op + " failed")
}

// teardown closes the transport and enters the closed state.
func (c *Conn) teardown(reason string) {
	if c.state == api.StateClosed {
		return
	}
	c.tr.Close()
	c.state = api.StateClosed
	c.observer.Closed(reason, c.wasOpen)
	c.log.Debug("connection closed", zap.String("reason", reason))
}

// Close starts a graceful close: a CLOSE frame is queued and no further
// application sends are accepted. The transport is released by Poll once
// the queued output has been flushed. Close is a no-op on a connection that
// is already closing or closed.
func (c *Conn) Close() {
	if c.tr == nil || c.state == api.StateClosing || c.state == api.StateClosed {
		return
	}
	if c.framing == FramingWebSocket {
		var key [4]byte
		if c.useMask {
			key = protocol.NewMaskKey()
		}
		hdr := protocol.AppendHeader(c.scratch[:0], true, protocol.OpClose, 0, c.useMask, key)
		if !c.tx.Add(hdr) {
			c.log.Warn("close frame dropped: transmit buffer full")
		} else {
			c.frameOut(protocol.OpClose, 0)
		}
	}
	c.state = api.StateClosing
	c.log.Debug("closing")
}

// Release closes the connection, keeps polling without a handler until it is
// closed or the close grace period elapses, and then releases the transport
// and all buffers. The Conn is unusable afterwards.
func (c *Conn) Release() {
	if c.tr == nil {
		return
	}
	c.Close()
	deadline := time.Now().Add(c.closeGrace)
	for c.state != api.StateClosed && time.Now().Before(deadline) {
		c.Poll(nil, 0)
		if c.state != api.StateClosed {
			time.Sleep(time.Millisecond)
		}
	}
	if c.state != api.StateClosed {
		c.log.Debug("close grace elapsed")
		c.teardown("released")
	}
	c.tr = nil
	c.tx, c.rx, c.msg = nil, nil, nil
}

// SendText queues a text message.
func (c *Conn) SendText(s string) bool {
	return c.send(protocol.OpText, []byte(s))
}

// SendBinary queues a binary message.
func (c *Conn) SendBinary(p []byte) bool {
	return c.send(protocol.OpBinary, p)
}

// SendPing queues a PING control frame carrying p.
func (c *Conn) SendPing(p []byte) bool {
	if c.framing != FramingWebSocket || len(p) > protocol.MaxControlPayloadLen {
		return false
	}
	return c.send(protocol.OpPing, p)
}

// TransmitSize returns the number of bytes waiting to be sent.
func (c *Conn) TransmitSize() uint32 {
	if c.tx == nil {
		return 0
	}
	return c.tx.Size()
}

// TransmitCap returns the current capacity of the transmit buffer.
func (c *Conn) TransmitCap() uint32 {
	if c.tx == nil {
		return 0
	}
	return c.tx.Cap()
}

// MemoryUsage returns the bytes held by the connection buffers.
func (c *Conn) MemoryUsage() uint64 {
	if c.tx == nil {
		return 0
	}
	return uint64(c.tx.Cap()) + uint64(c.rx.Cap()) + uint64(c.msg.Cap())
}

// ShrinkBuffers releases buffer memory above the configured defaults where
// the buffered content allows it, and returns the new total.
func (c *Conn) ShrinkBuffers() uint64 {
	if c.tx == nil {
		return 0
	}
	return uint64(c.tx.Shrink()) + uint64(c.rx.Shrink()) + uint64(c.msg.Shrink())
}
