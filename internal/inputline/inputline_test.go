package inputline

import (
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitLine(t *testing.T, lr *Reader) string {
	t.Helper()
	var got string
	require.Eventually(t, func() bool {
		line, ok := lr.Line()
		got = line
		return ok
	}, time.Second, time.Millisecond)
	return got
}

func TestLinesInOrder(t *testing.T) {
	lr := New(strings.NewReader("hello\r\n\nworld\nbye"))
	defer lr.Close()

	assert.Equal(t, "hello", waitLine(t, lr))
	assert.Equal(t, "world", waitLine(t, lr))
	assert.Equal(t, "bye", waitLine(t, lr))

	require.Eventually(t, func() bool { return lr.Err() != nil }, time.Second, time.Millisecond)
	assert.ErrorIs(t, lr.Err(), io.EOF)
	_, ok := lr.Line()
	assert.False(t, ok)
}

func TestLineNeverBlocks(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()
	lr := New(pr)
	defer lr.Close()

	_, ok := lr.Line()
	assert.False(t, ok)

	go pw.Write([]byte("typed\n"))
	assert.Equal(t, "typed", waitLine(t, lr))
}

func TestLongLinesAreSplit(t *testing.T) {
	long := strings.Repeat("a", MaxLine) + strings.Repeat("b", 10) + "\n"
	lr := New(strings.NewReader(long))
	defer lr.Close()

	assert.Equal(t, strings.Repeat("a", MaxLine), waitLine(t, lr))
	assert.Equal(t, strings.Repeat("b", 10), waitLine(t, lr))
}

func TestCloseStopsLines(t *testing.T) {
	lr := New(strings.NewReader("one\ntwo\n"))
	require.Eventually(t, func() bool { return len(lr.lines) == 1 }, time.Second, time.Millisecond)

	lr.Close()
	lr.Close()
	_, ok := lr.Line()
	assert.False(t, ok)
}
