// Package protocol
// Author: momentics <momentics@gmail.com>
//
// WebSocket wire protocol constants

package protocol

// Opcode is the 4-bit frame type tag.
type Opcode byte

const (
	OpContinuation Opcode = 0x0
	OpText         Opcode = 0x1
	OpBinary       Opcode = 0x2
	OpClose        Opcode = 0x8
	OpPing         Opcode = 0x9
	OpPong         Opcode = 0xA
)

const (
	// Frame limit settings
	MaxControlPayloadLen = 125
	MinFrameHeaderLen    = 2
	MaxFrameHeaderLen    = 14 // 64-bit length plus masking key

	// Length field markers in the 7-bit length slot
	len16Marker = 126
	len64Marker = 127

	// Bit masks
	FinBit    = 0x80
	MaskBit   = 0x80
	opcodeBit = 0x0F
	lengthBit = 0x7F
)

// IsControl reports whether op is a control opcode (close, ping, pong).
func (op Opcode) IsControl() bool {
	return op&0x8 != 0
}

// IsData reports whether op carries application data.
func (op Opcode) IsData() bool {
	return op == OpContinuation || op == OpText || op == OpBinary
}

// Known reports whether op is one of the six opcodes this engine handles.
func (op Opcode) Known() bool {
	switch op {
	case OpContinuation, OpText, OpBinary, OpClose, OpPing, OpPong:
		return true
	}
	return false
}

func (op Opcode) String() string {
	switch op {
	case OpContinuation:
		return "continuation"
	case OpText:
		return "text"
	case OpBinary:
		return "binary"
	case OpClose:
		return "close"
	case OpPing:
		return "ping"
	case OpPong:
		return "pong"
	default:
		return "unknown"
	}
}
