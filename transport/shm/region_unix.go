//go:build unix

// File: transport/shm/region_unix.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package shm

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// Region is a shared memory-mapped file.
type Region struct {
	path  string
	data  []byte
	owner bool
}

// CreateRegion creates or truncates the file at path to size bytes and maps
// it shared. The creator owns the file and removes it on Close.
func CreateRegion(path string, size int) (*Region, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return nil, fmt.Errorf("create region %s: %w", path, err)
	}
	defer f.Close()
	if err := f.Truncate(int64(size)); err != nil {
		return nil, fmt.Errorf("size region %s: %w", path, err)
	}
	return mapRegion(f, path, size, true)
}

// OpenRegion maps an existing region created by a peer. The file must be
// exactly size bytes long.
func OpenRegion(path string, size int) (*Region, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("open region %s: %w", path, err)
	}
	defer f.Close()
	st, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat region %s: %w", path, err)
	}
	if st.Size() != int64(size) {
		return nil, fmt.Errorf("region %s is %d bytes, want %d: %w", path, st.Size(), size, ErrSizeMismatch)
	}
	return mapRegion(f, path, size, false)
}

func mapRegion(f *os.File, path string, size int, owner bool) (*Region, error) {
	data, err := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("map region %s: %w", path, err)
	}
	return &Region{path: path, data: data, owner: owner}, nil
}

// Bytes returns the mapped memory.
func (r *Region) Bytes() []byte { return r.data }

// Size returns the mapped length.
func (r *Region) Size() int { return len(r.data) }

// Path returns the backing file.
func (r *Region) Path() string { return r.path }

// Close unmaps the region; the owner also removes the backing file.
func (r *Region) Close() error {
	if r.data == nil {
		return nil
	}
	err := unix.Munmap(r.data)
	r.data = nil
	if r.owner {
		if rmErr := os.Remove(r.path); rmErr != nil && err == nil {
			err = rmErr
		}
	}
	return err
}
