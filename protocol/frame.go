// File: protocol/frame.go
// Package protocol implements frame dispatch and message serialization.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Incoming frames are parsed in place inside the receive buffer. A final
// frame that is not part of a fragmented message is handed to the handler
// without copying; fragments are gathered in the reassembly buffer first.

package protocol

import (
	"bytes"
	"math"

	"go.uber.org/zap"

	"github.com/momentics/pollws/api"
	"github.com/momentics/pollws/core/protocol"
)

var crlf = []byte("\r\n")

// dispatch delivers every complete message in rx to h.
func (c *Conn) dispatch(h api.MessageHandler) {
	if c.framing == FramingLine {
		c.dispatchLines(h)
		return
	}

	for c.rx != nil && c.state != api.StateClosed {
		data := c.rx.Data()
		hdr, ok := protocol.ParseHeader(data)
		if !ok {
			return
		}
		total, ok := hdr.FrameLen()
		if !ok || uint64(total) > uint64(c.rx.MaxGrowSize()) {
			c.protocolError("frame exceeds receive limit", hdr)
			return
		}
		if len(data) < total {
			return
		}

		payload := data[hdr.Size:total]
		if hdr.Masked {
			protocol.Mask(payload, hdr.MaskKey, 0)
		}
		c.frameIn(hdr.Opcode, len(payload))

		switch hdr.Opcode {
		case protocol.OpText, protocol.OpBinary, protocol.OpContinuation:
			if hdr.Opcode != protocol.OpContinuation {
				c.msgOp = hdr.Opcode
			}
			isText := c.msgOp == protocol.OpText
			// Consuming only moves cursors, so payload stays valid for the handler.
			c.rx.Consume(uint32(total))
			if hdr.Fin && c.msg.Size() == 0 {
				c.deliver(h, payload, isText)
				continue
			}
			msg := c.msg
			if !msg.Add(payload) {
				c.protocolError("message exceeds reassembly limit", hdr)
				return
			}
			if hdr.Fin {
				c.deliver(h, msg.Data(), isText)
				msg.Clear()
			}

		case protocol.OpPing:
			c.send(protocol.OpPong, payload)
			c.rx.Consume(uint32(total))

		case protocol.OpPong:
			c.rx.Consume(uint32(total))

		case protocol.OpClose:
			c.rx.Consume(uint32(total))
			c.log.Debug("close frame received")
			c.Close()
			return

		default:
			c.protocolError("unknown opcode", hdr)
			return
		}
	}
}

// dispatchLines delivers CRLF-terminated lines. A line that fills the whole
// receive ceiling without a terminator is delivered as is.
func (c *Conn) dispatchLines(h api.MessageHandler) {
	for c.rx != nil && c.state != api.StateClosed {
		data := c.rx.Data()
		i := bytes.IndexByte(data, '\n')
		if i < 0 {
			if len(data) > 0 && uint32(len(data)) >= c.rx.MaxGrowSize() {
				c.frameIn(protocol.OpText, len(data))
				c.rx.Consume(uint32(len(data)))
				c.deliver(h, data, true)
			}
			return
		}
		line := bytes.TrimSuffix(data[:i], []byte{'\r'})
		c.frameIn(protocol.OpText, len(line))
		c.rx.Consume(uint32(i + 1))
		c.deliver(h, line, true)
	}
}

func (c *Conn) deliver(h api.MessageHandler, payload []byte, isText bool) {
	if c.traffic != nil {
		c.traffic.recv(payload)
	}
	h.Handle(payload, isText)
}

// protocolError tears the connection down after a peer violation.
func (c *Conn) protocolError(reason string, hdr protocol.Header) {
	c.log.Warn("protocol error",
		zap.String("reason", reason),
		zap.Stringer("opcode", hdr.Opcode),
		zap.Uint64("length", hdr.Length),
	)
	c.teardown("protocol error")
}

// send queues one complete message. Header and payload are reserved in a
// single window so a full buffer never leaves a partial frame behind.
func (c *Conn) send(op protocol.Opcode, payload []byte) bool {
	if c.tx == nil || c.state != api.StateOpen {
		return false
	}
	if uint64(len(payload)) > math.MaxUint32-protocol.MaxFrameHeaderLen {
		return false
	}

	if c.framing == FramingLine {
		win := c.tx.ConfirmCapacity(uint32(len(payload) + len(crlf)))
		if win == nil {
			c.log.Warn("send dropped: transmit buffer full", zap.Int("bytes", len(payload)))
			return false
		}
		n := copy(win, payload)
		copy(win[n:], crlf)
		c.tx.Advance(uint32(len(win)))
		c.sent(op, payload)
		return true
	}

	var key [4]byte
	if c.useMask {
		key = protocol.NewMaskKey()
	}
	hdr := protocol.AppendHeader(c.scratch[:0], true, op, uint64(len(payload)), c.useMask, key)
	win := c.tx.ConfirmCapacity(uint32(len(hdr) + len(payload)))
	if win == nil {
		c.log.Warn("send dropped: transmit buffer full",
			zap.Stringer("opcode", op), zap.Int("bytes", len(payload)))
		return false
	}
	n := copy(win, hdr)
	copy(win[n:], payload)
	if c.useMask {
		protocol.Mask(win[n:], key, 0)
	}
	c.tx.Advance(uint32(len(win)))
	c.sent(op, payload)
	return true
}

func (c *Conn) sent(op protocol.Opcode, payload []byte) {
	if c.traffic != nil && op.IsData() {
		c.traffic.send(payload)
	}
	c.frameOut(op, len(payload))
}

func (c *Conn) frameIn(op protocol.Opcode, n int) {
	c.observer.Frame(api.DirectionIn, op.String(), n)
}

func (c *Conn) frameOut(op protocol.Opcode, n int) {
	c.observer.Frame(api.DirectionOut, op.String(), n)
}
