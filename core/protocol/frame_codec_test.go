package protocol_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/momentics/pollws/core/protocol"
)

func TestEncodeDecodeFrame(t *testing.T) {
	sizes := []int{0, 1, 125, 126, 127, 65535, 65536, 70000}
	for _, size := range sizes {
		for _, masked := range []bool{false, true} {
			payload := bytes.Repeat([]byte{0xA5, 0x01, 0x7F}, size/3+1)[:size]
			original := make([]byte, size)
			copy(original, payload)

			data := protocol.EncodeFrame(nil, true, protocol.OpBinary, payload, masked)
			require.Equal(t, original, payload, "encoding must not touch the source payload")
			assert.Len(t, data, protocol.HeaderLen(uint64(size), masked)+size)

			got, n, err := protocol.DecodeFrame(data)
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, len(data), n)
			assert.True(t, got.Fin)
			assert.Equal(t, masked, got.Masked)
			assert.Equal(t, protocol.OpBinary, got.Opcode)
			assert.Equal(t, original, got.Payload, "size=%d masked=%v", size, masked)
		}
	}
}

func TestHeaderLengthForms(t *testing.T) {
	cases := []struct {
		n      uint64
		masked bool
		size   int
		marker byte
	}{
		{0, false, 2, 0},
		{125, false, 2, 125},
		{126, false, 4, 126},
		{65535, true, 8, 126},
		{65536, false, 10, 127},
		{1 << 40, true, 14, 127},
	}
	for _, c := range cases {
		hdr := protocol.AppendHeader(nil, true, protocol.OpText, c.n, c.masked, [4]byte{1, 2, 3, 4})
		require.Len(t, hdr, c.size)
		assert.Equal(t, c.size, protocol.HeaderLen(c.n, c.masked))
		assert.Equal(t, c.marker, hdr[1]&0x7F)

		h, ok := protocol.ParseHeader(hdr)
		require.True(t, ok)
		assert.Equal(t, c.n, h.Length)
		assert.Equal(t, c.size, h.Size)
		assert.Equal(t, c.masked, h.Masked)
		if c.masked {
			assert.Equal(t, [4]byte{1, 2, 3, 4}, h.MaskKey)
		}
	}
}

func TestParseHeaderIncomplete(t *testing.T) {
	hdr := protocol.AppendHeader(nil, false, protocol.OpContinuation, 70000, true, [4]byte{9, 9, 9, 9})
	for i := 0; i < len(hdr); i++ {
		_, ok := protocol.ParseHeader(hdr[:i])
		assert.False(t, ok, "prefix of %d bytes", i)
	}
	h, ok := protocol.ParseHeader(hdr)
	require.True(t, ok)
	assert.False(t, h.Fin)
	assert.Equal(t, protocol.OpContinuation, h.Opcode)

	// Header complete, payload missing: DecodeFrame waits for more.
	f, n, err := protocol.DecodeFrame(hdr)
	assert.NoError(t, err)
	assert.Nil(t, f)
	assert.Zero(t, n)
}

func TestDecodeUnknownOpcode(t *testing.T) {
	_, _, err := protocol.DecodeFrame([]byte{0x83, 0x00})
	assert.ErrorIs(t, err, protocol.ErrUnknownOpcode)
}

func TestMaskMatchesBytewiseXOR(t *testing.T) {
	key := [4]byte{0x12, 0x34, 0x56, 0x78}
	for _, n := range []int{0, 3, 8, 15, 16, 17, 64, 1001} {
		for start := 0; start < 4; start++ {
			src := make([]byte, n)
			for i := range src {
				src[i] = byte(i * 7)
			}
			want := make([]byte, n)
			for i := range src {
				want[i] = src[i] ^ key[(start+i)%4]
			}
			got := make([]byte, n)
			copy(got, src)
			next := protocol.Mask(got, key, start)
			assert.Equal(t, want, got)
			assert.Equal(t, (start+n)%4, next)

			protocol.Mask(got, key, start)
			assert.Equal(t, src, got, "masking twice restores the input")
		}
	}
}

func TestMaskSplitAcrossCalls(t *testing.T) {
	key := [4]byte{0xDE, 0xAD, 0xBE, 0xEF}
	whole := []byte("fragmented payloads keep the key phase")
	split := append([]byte(nil), whole...)

	protocol.Mask(whole, key, 0)
	pos := protocol.Mask(split[:5], key, 0)
	protocol.Mask(split[5:], key, pos)
	assert.Equal(t, whole, split)
}

func TestOpcodeClassification(t *testing.T) {
	assert.True(t, protocol.OpPing.IsControl())
	assert.True(t, protocol.OpClose.IsControl())
	assert.False(t, protocol.OpText.IsControl())
	assert.True(t, protocol.OpContinuation.IsData())
	assert.False(t, protocol.Opcode(0x3).Known())
	assert.Equal(t, "pong", protocol.OpPong.String())
}
