package buffer_test

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/momentics/pollws/core/buffer"
)

func TestGrowableAddConsume(t *testing.T) {
	g := buffer.New(8, 64)
	require.True(t, g.Add([]byte("hello")))
	require.True(t, g.Add([]byte(" world")))
	assert.Equal(t, "hello world", string(g.Data()))
	assert.EqualValues(t, 11, g.Size())

	g.Consume(6)
	assert.Equal(t, "world", string(g.Data()))

	g.Consume(100) // bounded by current size
	assert.EqualValues(t, 0, g.Size())
	assert.Empty(t, g.Data())
}

func TestGrowableCompactsBeforeGrowing(t *testing.T) {
	g := buffer.New(16, 16)
	require.True(t, g.Add(bytes.Repeat([]byte{'a'}, 12)))
	g.Consume(10)

	// 4 free trailing bytes, 10 leading: compaction serves a 6-byte request.
	require.True(t, g.Add([]byte("bcdefg")))
	assert.EqualValues(t, 16, g.Cap())
	assert.Equal(t, "aabcdefg", string(g.Data()))
}

func TestGrowableDoubles(t *testing.T) {
	g := buffer.New(8, 1024)
	require.True(t, g.Add(make([]byte, 8)))
	require.True(t, g.Add([]byte{1}))
	assert.EqualValues(t, 16, g.Cap())

	// Doubling alone is not enough: request is added on top.
	require.True(t, g.Add(make([]byte, 100)))
	assert.GreaterOrEqual(t, g.Cap(), g.Size())
	assert.LessOrEqual(t, g.Cap(), g.MaxGrowSize())
}

func TestGrowableBackpressureKeepsContent(t *testing.T) {
	g := buffer.New(16, 32)
	require.True(t, g.Add([]byte("keep-me")))

	assert.False(t, g.Add(make([]byte, 64)))
	assert.Nil(t, g.ConfirmCapacity(33))
	assert.Equal(t, "keep-me", string(g.Data()))
	assert.LessOrEqual(t, g.Cap(), uint32(32))
}

func TestGrowableConfirmCapacityDirectWrite(t *testing.T) {
	g := buffer.New(4, 4096)
	window := g.ConfirmCapacity(100)
	require.Len(t, window, 100)

	n := copy(window, "direct")
	require.True(t, g.Advance(uint32(n)))
	assert.Equal(t, "direct", string(g.Data()))
}

func TestGrowableShrinkAndReset(t *testing.T) {
	g := buffer.New(16, 1<<20)
	require.True(t, g.Add(make([]byte, 4000)))
	g.Consume(3990)
	assert.EqualValues(t, 16, g.Shrink())
	assert.EqualValues(t, 10, g.Size())

	g.Clear()
	assert.EqualValues(t, 0, g.Size())
	assert.EqualValues(t, 16, g.Cap())

	require.True(t, g.Add([]byte("x")))
	g.Reset(32)
	assert.EqualValues(t, 0, g.Size())
	assert.EqualValues(t, 32, g.Cap())
}

func TestGrowableCeilingRaisedToDefault(t *testing.T) {
	g := buffer.New(64, 8)
	assert.EqualValues(t, 64, g.MaxGrowSize())
}

// Random Add/Consume sequences keep size <= cap <= ceiling and FIFO content.
func TestGrowableCapacityLaw(t *testing.T) {
	const ceiling = 4096
	rnd := rand.New(rand.NewSource(7))
	g := buffer.New(32, ceiling)
	var model []byte
	var next byte

	for i := 0; i < 5000; i++ {
		if rnd.Intn(2) == 0 {
			chunk := make([]byte, rnd.Intn(300))
			for j := range chunk {
				chunk[j] = next
				next++
			}
			if g.Add(chunk) {
				model = append(model, chunk...)
			} else {
				assert.Greater(t, len(model)+len(chunk), ceiling)
			}
		} else {
			n := rnd.Intn(len(model) + 1)
			g.Consume(uint32(n))
			model = model[n:]
		}

		require.LessOrEqual(t, g.Size(), g.Cap())
		require.LessOrEqual(t, g.Cap(), g.MaxGrowSize())
		require.Equal(t, model, append([]byte{}, g.Data()...))
	}

	g.Consume(g.Size())
	assert.EqualValues(t, 0, g.Size())
	require.True(t, g.Add([]byte{1}))
}
