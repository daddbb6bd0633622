// File: internal/inputline/inputline.go
// Package inputline polls console input without blocking the caller.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// A background goroutine reads one line at a time and parks it in a
// single slot; it does not read the next line until the slot is taken.

package inputline

import (
	"bufio"
	"io"
	"strings"
	"sync"
)

// MaxLine is the longest line returned in one piece. Longer input is split
// into consecutive lines of at most MaxLine bytes.
const MaxLine = 511

// Reader hands out lines read from an io.Reader.
type Reader struct {
	lines chan string
	done  chan struct{}
	once  sync.Once
	errMu sync.Mutex
	err   error
}

// New starts reading r in the background.
func New(r io.Reader) *Reader {
	lr := &Reader{
		lines: make(chan string, 1),
		done:  make(chan struct{}),
	}
	go lr.run(bufio.NewReaderSize(r, MaxLine))
	return lr
}

func (lr *Reader) run(br *bufio.Reader) {
	for {
		raw, _, err := br.ReadLine()
		if err != nil {
			lr.errMu.Lock()
			lr.err = err
			lr.errMu.Unlock()
			close(lr.lines)
			return
		}
		line := strings.TrimRight(string(raw), "\r")
		if line == "" {
			continue
		}
		select {
		case lr.lines <- line:
		case <-lr.done:
			return
		}
	}
}

// Line returns the pending line, if any. It never blocks.
func (lr *Reader) Line() (string, bool) {
	select {
	case <-lr.done:
		return "", false
	default:
	}
	select {
	case line, ok := <-lr.lines:
		return line, ok
	default:
		return "", false
	}
}

// Err returns the error that ended reading; io.EOF at end of input.
func (lr *Reader) Err() error {
	lr.errMu.Lock()
	defer lr.errMu.Unlock()
	return lr.err
}

// Close stops delivering lines; Line reports nothing afterwards. A read
// already blocked in the underlying reader is abandoned.
func (lr *Reader) Close() {
	lr.once.Do(func() { close(lr.done) })
}
