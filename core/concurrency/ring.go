// File: core/concurrency/ring.go
// Package concurrency implements the lock-free single-producer/single-consumer
// byte channel used as a shared-memory transport.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// The channel lives entirely inside a caller-provided region: a fixed
// 32-byte header followed by the circular data area. The SPSC value itself
// owns no memory, only a view of the region. Exactly one writer and one
// reader may operate on a region at the same time; full duplex requires two
// regions with swapped roles.

package concurrency

import (
	"fmt"
	"math"
	"sync/atomic"
	"unsafe"
)

// SharedMemoryVersion tags the header layout.
const SharedMemoryVersion uint32 = 100

// HeaderSize is the size of the fixed header record at the start of a region.
const HeaderSize = 32

// Header field offsets. Each field is a native-endian uint32.
const (
	offVersion  = 0
	offSize     = 4
	offRead     = 8
	offWrite    = 12
	offSequence = 16
	// 20..31 reserved
)

// Role fixes which end of the channel an SPSC value operates.
type Role int

const (
	Reader Role = iota
	Writer
)

func (r Role) String() string {
	if r == Writer {
		return "writer"
	}
	return "reader"
}

// SPSC is one direction of a shared-memory byte channel.
//
// Index publication: the writer copies payload bytes and then stores the
// write index atomically; the reader loads the write index atomically before
// touching payload bytes. The read index is published the same way in the
// opposite direction. sync/atomic operations are sequentially consistent,
// which subsumes the required release/acquire pairing.
type SPSC struct {
	region   []byte
	data     []byte
	capacity uint32
	role     Role

	version  *uint32
	size     *uint32
	readIdx  *uint32
	writeIdx *uint32
	sequence *uint32
}

// NewSPSC binds a channel view to region.
//
// The owner initializes the header; a non-owner validates that the header
// version and recorded region size match, and fails otherwise.
func NewSPSC(region []byte, role Role, owner bool) (*SPSC, error) {
	if len(region) <= HeaderSize {
		return nil, fmt.Errorf("spsc: %d bytes: %w", len(region), ErrRegionTooSmall)
	}
	if uint64(len(region)) > math.MaxUint32 {
		return nil, fmt.Errorf("spsc: %d bytes: %w", len(region), ErrRegionTooLarge)
	}
	total := uint32(len(region))

	s := &SPSC{
		region:   region,
		data:     region[HeaderSize:],
		capacity: total - HeaderSize,
		role:     role,
		version:  field(region, offVersion),
		size:     field(region, offSize),
		readIdx:  field(region, offRead),
		writeIdx: field(region, offWrite),
		sequence: field(region, offSequence),
	}

	if owner {
		atomic.StoreUint32(s.writeIdx, 0)
		atomic.StoreUint32(s.readIdx, 0)
		atomic.StoreUint32(s.sequence, 0)
		atomic.StoreUint32(s.size, total)
		atomic.StoreUint32(s.version, SharedMemoryVersion)
		return s, nil
	}

	v, sz := atomic.LoadUint32(s.version), atomic.LoadUint32(s.size)
	if v != SharedMemoryVersion || sz != total {
		return nil, fmt.Errorf("spsc: version %d size %d, want version %d size %d: %w",
			v, sz, SharedMemoryVersion, total, ErrHeaderMismatch)
	}
	return s, nil
}

func field(region []byte, off int) *uint32 {
	return (*uint32)(unsafe.Pointer(&region[off]))
}

// Role returns the fixed role of this view.
func (s *SPSC) Role() Role { return s.role }

// Capacity returns the size of the circular data area. At most Capacity()-1
// bytes can be buffered at once.
func (s *SPSC) Capacity() uint32 { return s.capacity }

// Size returns the number of buffered bytes.
func (s *SPSC) Size() uint32 {
	w := atomic.LoadUint32(s.writeIdx)
	r := atomic.LoadUint32(s.readIdx)
	return s.distance(r, w)
}

// Available returns how many bytes a Write could accept right now.
func (s *SPSC) Available() uint32 {
	return s.capacity - s.Size() - 1
}

// distance is (w - r) mod capacity for indices in [0, capacity).
func (s *SPSC) distance(r, w uint32) uint32 {
	if w >= r {
		return w - r
	}
	return w + s.capacity - r
}

// Write copies as much of p as fits and returns the count. It never blocks
// and never overwrites unread bytes. A reader view always returns 0.
func (s *SPSC) Write(p []byte) int {
	if s.role != Writer || len(p) == 0 {
		return 0
	}
	w := atomic.LoadUint32(s.writeIdx)
	r := atomic.LoadUint32(s.readIdx)
	if w >= s.capacity || r >= s.capacity {
		return 0
	}

	avail := s.capacity - s.distance(r, w) - 1
	n := uint32(len(p))
	if uint64(len(p)) > uint64(avail) {
		n = avail
	}
	if n == 0 {
		return 0
	}

	top := s.capacity - w
	if n <= top {
		copy(s.data[w:], p[:n])
	} else {
		copy(s.data[w:], p[:top])
		copy(s.data, p[top:n])
	}

	next := w + n
	if next >= s.capacity {
		next -= s.capacity
	}
	atomic.StoreUint32(s.writeIdx, next)
	return int(n)
}

// Read copies up to len(p) buffered bytes into p and returns the count. It
// never blocks. A writer view always returns 0.
func (s *SPSC) Read(p []byte) int {
	if s.role != Reader || len(p) == 0 {
		return 0
	}
	w := atomic.LoadUint32(s.writeIdx)
	r := atomic.LoadUint32(s.readIdx)
	if w >= s.capacity || r >= s.capacity {
		return 0
	}

	n := s.distance(r, w)
	if uint64(len(p)) < uint64(n) {
		n = uint32(len(p))
	}
	if n == 0 {
		return 0
	}

	top := s.capacity - r
	if n <= top {
		copy(p, s.data[r:r+n])
	} else {
		copy(p, s.data[r:])
		copy(p[top:], s.data[:n-top])
	}

	next := r + n
	if next >= s.capacity {
		next -= s.capacity
	}
	atomic.StoreUint32(s.readIdx, next)
	return int(n)
}

// IncrementSequence bumps the shared sequence counter and returns the
// previous value.
func (s *SPSC) IncrementSequence() uint32 {
	return atomic.AddUint32(s.sequence, 1) - 1
}

// Sequence returns the shared sequence counter.
func (s *SPSC) Sequence() uint32 {
	return atomic.LoadUint32(s.sequence)
}
