// File: core/protocol/frame_codec.go
// Package protocol implements zero-copy frame header parsing and serialization.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
//  0                   1                   2                   3
//  0 1 2 3 4 5 6 7 8 9 0 1 2 3 4 5 6 7 8 9 0 1 2 3 4 5 6 7 8 9 0 1
// +-+-+-+-+-------+-+-------------+-------------------------------+
// |F|R|R|R| opcode|M| Payload len |    Extended payload length    |
// |I|S|S|S|  (4)  |A|     (7)     |             (16/64)           |
// |N|V|V|V|       |S|             |   (if payload len==126/127)   |
// +-+-+-+-+-------+-+-------------+ - - - - - - - - - - - - - - - +
// |     Extended payload length continued, if payload len == 127  |
// + - - - - - - - - - - - - - - - +-------------------------------+
// |                               |Masking-key, if MASK set to 1  |
// +-------------------------------+-------------------------------+

package protocol

import (
	"encoding/binary"
	"errors"
	"math"
	"time"
)

var (
	ErrUnknownOpcode   = errors.New("unknown frame opcode")
	ErrPayloadTooLarge = errors.New("frame payload exceeds addressable size")
)

// Header is a decoded frame header. Size is the number of header bytes,
// including the extended length and the masking key.
type Header struct {
	Fin     bool
	Opcode  Opcode
	Masked  bool
	Length  uint64
	MaskKey [4]byte
	Size    int
}

// FrameLen returns Size+Length, or false if it does not fit in an int.
func (h Header) FrameLen() (int, bool) {
	if h.Length > uint64(math.MaxInt-h.Size) {
		return 0, false
	}
	return h.Size + int(h.Length), true
}

// ParseHeader decodes the frame header at the start of b. It returns false
// when b does not yet hold the complete header.
func ParseHeader(b []byte) (Header, bool) {
	var h Header
	if len(b) < MinFrameHeaderLen {
		return h, false
	}
	h.Fin = b[0]&FinBit != 0
	h.Opcode = Opcode(b[0] & opcodeBit)
	h.Masked = b[1]&MaskBit != 0
	n0 := b[1] & lengthBit

	h.Size = MinFrameHeaderLen
	switch n0 {
	case len16Marker:
		h.Size += 2
	case len64Marker:
		h.Size += 8
	}
	if h.Masked {
		h.Size += 4
	}
	if len(b) < h.Size {
		return h, false
	}

	i := MinFrameHeaderLen
	switch n0 {
	case len16Marker:
		h.Length = uint64(binary.BigEndian.Uint16(b[i:]))
		i += 2
	case len64Marker:
		h.Length = binary.BigEndian.Uint64(b[i:])
		i += 8
	default:
		h.Length = uint64(n0)
	}
	if h.Masked {
		copy(h.MaskKey[:], b[i:i+4])
	}
	return h, true
}

// HeaderLen returns the header size for a payload of n bytes.
func HeaderLen(n uint64, masked bool) int {
	size := MinFrameHeaderLen
	if n >= len16Marker {
		size += 2
	}
	if n > math.MaxUint16 {
		size += 6
	}
	if masked {
		size += 4
	}
	return size
}

// AppendHeader appends a frame header for an n-byte payload to dst.
func AppendHeader(dst []byte, fin bool, op Opcode, n uint64, masked bool, key [4]byte) []byte {
	b0 := byte(op) & opcodeBit
	if fin {
		b0 |= FinBit
	}
	var mb byte
	if masked {
		mb = MaskBit
	}

	switch {
	case n < len16Marker:
		dst = append(dst, b0, byte(n)|mb)
	case n <= math.MaxUint16:
		dst = append(dst, b0, len16Marker|mb)
		dst = binary.BigEndian.AppendUint16(dst, uint16(n))
	default:
		dst = append(dst, b0, len64Marker|mb)
		dst = binary.BigEndian.AppendUint64(dst, n)
	}
	if masked {
		dst = append(dst, key[:]...)
	}
	return dst
}

// Mask XORs b in place with key, starting at key offset pos, and returns the
// key offset for the byte that would follow b. Masking is its own inverse.
func Mask(b []byte, key [4]byte, pos int) int {
	pos &= 3
	if len(b) >= 16 {
		var k [8]byte
		for i := range k {
			k[i] = key[(pos+i)&3]
		}
		kw := binary.LittleEndian.Uint64(k[:])
		for len(b) >= 8 {
			binary.LittleEndian.PutUint64(b, binary.LittleEndian.Uint64(b)^kw)
			b = b[8:]
		}
	}
	for i := range b {
		b[i] ^= key[pos]
		pos = (pos + 1) & 3
	}
	return pos
}

// NewMaskKey derives a masking key from the monotonic clock. The key only
// obfuscates payloads; it is not a source of secure randomness.
func NewMaskKey() [4]byte {
	seed := uint64(time.Now().UnixNano())
	seed ^= seed >> 29
	var key [4]byte
	binary.LittleEndian.PutUint32(key[:], uint32(seed))
	return key
}

// Frame is a fully decoded frame with an unmasked, caller-owned payload.
type Frame struct {
	Header
	Payload []byte
}

// EncodeFrame appends a complete frame carrying payload to dst. When masked
// is set a fresh key is generated and the appended payload bytes are masked;
// payload itself is left untouched.
func EncodeFrame(dst []byte, fin bool, op Opcode, payload []byte, masked bool) []byte {
	var key [4]byte
	if masked {
		key = NewMaskKey()
	}
	dst = AppendHeader(dst, fin, op, uint64(len(payload)), masked, key)
	start := len(dst)
	dst = append(dst, payload...)
	if masked {
		Mask(dst[start:], key, 0)
	}
	return dst
}

// DecodeFrame parses one frame from raw. It returns (nil, 0, nil) when raw
// holds an incomplete frame, and the number of bytes consumed otherwise.
// The returned payload is an unmasked copy.
func DecodeFrame(raw []byte) (*Frame, int, error) {
	h, ok := ParseHeader(raw)
	if !ok {
		return nil, 0, nil
	}
	if !h.Opcode.Known() {
		return nil, 0, ErrUnknownOpcode
	}
	total, ok := h.FrameLen()
	if !ok {
		return nil, 0, ErrPayloadTooLarge
	}
	if len(raw) < total {
		return nil, 0, nil
	}
	payload := make([]byte, h.Length)
	copy(payload, raw[h.Size:total])
	if h.Masked {
		Mask(payload, h.MaskKey, 0)
	}
	return &Frame{Header: h, Payload: payload}, total, nil
}
