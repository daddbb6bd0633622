// File: core/buffer/growable.go
// Package buffer implements the contiguous, growable byte region used for
// transmit queues, receive queues and message reassembly.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// A Growable keeps one allocation with independent read and write cursors.
// Growth first tries to compact (shift unread bytes to offset zero) and
// otherwise doubles, never exceeding the configured ceiling. Growables are
// owned by a single goroutine and are not safe for concurrent use.

package buffer

import "math"

// Default sizing used by connections.
const (
	DefaultSize    = 16 * 1024
	DefaultMaxGrow = 512 * 1024 * 1024
)

// Growable is a resizable byte queue with a hard growth ceiling.
type Growable struct {
	buf         []byte
	start       uint32 // first unread byte
	end         uint32 // one past the last written byte
	defaultSize uint32
	maxGrowSize uint32
}

// New allocates a Growable of defaultSize bytes that may grow up to
// maxGrowSize. A ceiling below defaultSize is raised to defaultSize.
func New(defaultSize, maxGrowSize uint32) *Growable {
	if defaultSize > maxGrowSize {
		maxGrowSize = defaultSize
	}
	g := &Growable{maxGrowSize: maxGrowSize}
	g.Reset(defaultSize)
	return g
}

// Data returns the unread region. The slice stays valid until the next
// mutating call; callers may modify bytes in place but not beyond its length.
func (g *Growable) Data() []byte {
	return g.buf[g.start:g.end]
}

// Size returns the number of unread bytes.
func (g *Growable) Size() uint32 {
	return g.end - g.start
}

// Cap returns the current allocation size.
func (g *Growable) Cap() uint32 {
	return uint32(len(g.buf))
}

// MaxGrowSize returns the growth ceiling.
func (g *Growable) MaxGrowSize() uint32 {
	return g.maxGrowSize
}

// Add appends a copy of p. It returns false, leaving the content untouched,
// when the ceiling would be exceeded.
func (g *Growable) Add(p []byte) bool {
	if uint64(len(p)) > math.MaxUint32 {
		return false
	}
	n := uint32(len(p))
	if !g.reserve(n) {
		return false
	}
	copy(g.buf[g.end:], p)
	g.end += n
	return true
}

// Advance commits n bytes that the caller already wrote into the window
// returned by ConfirmCapacity.
func (g *Growable) Advance(n uint32) bool {
	if !g.reserve(n) {
		return false
	}
	g.end += n
	return true
}

// ConfirmCapacity makes sure at least n free bytes follow the write cursor
// and returns that n-byte window, or nil when the ceiling forbids it.
func (g *Growable) ConfirmCapacity(n uint32) []byte {
	if !g.reserve(n) {
		return nil
	}
	return g.buf[g.end : g.end+n]
}

// Consume drops n bytes from the front. Cursors rewind to zero once the
// buffer is empty.
func (g *Growable) Consume(n uint32) {
	if size := g.Size(); n > size {
		n = size
	}
	g.start += n
	if g.start == g.end {
		g.start, g.end = 0, 0
	}
}

// Clear discards the content and keeps the allocation.
func (g *Growable) Clear() {
	g.start, g.end = 0, 0
}

// Reset replaces the allocation with a fresh one of defaultSize bytes.
func (g *Growable) Reset(defaultSize uint32) {
	if defaultSize > g.maxGrowSize {
		g.maxGrowSize = defaultSize
	}
	g.defaultSize = defaultSize
	g.buf = make([]byte, defaultSize)
	g.start, g.end = 0, 0
}

// Shrink reallocates down to max(defaultSize, Size()) and returns the new
// allocation size. It is never called implicitly.
func (g *Growable) Shrink() uint32 {
	size := g.Size()
	newLen := g.defaultSize
	if size > newLen {
		newLen = size
	}
	nb := make([]byte, newLen)
	copy(nb, g.Data())
	g.buf = nb
	g.start, g.end = 0, size
	return newLen
}

// reserve guarantees n free trailing bytes.
func (g *Growable) reserve(n uint32) bool {
	if n <= g.Cap()-g.end {
		return true
	}
	return g.grow(n)
}

func (g *Growable) grow(n uint32) bool {
	size := g.Size()

	// The leading gap alone covers the request: compact in place.
	if n <= g.start {
		copy(g.buf, g.buf[g.start:g.end])
		g.start, g.end = 0, size
		return true
	}

	newLen := uint64(g.Cap()) * 2
	if newLen-uint64(size) < uint64(n) {
		newLen += uint64(n)
	}
	if newLen > uint64(g.maxGrowSize) {
		newLen = uint64(g.maxGrowSize)
	}
	if newLen-uint64(size) < uint64(n) {
		return false
	}

	nb := make([]byte, newLen)
	copy(nb, g.buf[g.start:g.end])
	g.buf = nb
	g.start, g.end = 0, size
	return true
}
