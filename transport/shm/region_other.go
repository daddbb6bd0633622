//go:build !unix

// File: transport/shm/region_other.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package shm

import (
	"fmt"
	"runtime"

	"github.com/momentics/pollws/api"
)

// Region is unavailable on this platform.
type Region struct{}

// CreateRegion always fails on this platform.
func CreateRegion(path string, size int) (*Region, error) {
	return nil, fmt.Errorf("shared region on %s: %w", runtime.GOOS, api.ErrNotSupported)
}

// OpenRegion always fails on this platform.
func OpenRegion(path string, size int) (*Region, error) {
	return nil, fmt.Errorf("shared region on %s: %w", runtime.GOOS, api.ErrNotSupported)
}

func (r *Region) Bytes() []byte { return nil }
func (r *Region) Size() int     { return 0 }
func (r *Region) Path() string  { return "" }
func (r *Region) Close() error  { return nil }
