// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Error definitions for concurrency module.

package concurrency

import "errors"

var (
	// ErrRegionTooSmall indicates the shared region cannot hold the channel header
	ErrRegionTooSmall = errors.New("shared region too small for channel header")

	// ErrRegionTooLarge indicates the shared region exceeds the 32-bit index space
	ErrRegionTooLarge = errors.New("shared region exceeds 4 GiB")

	// ErrHeaderMismatch indicates a stale or foreign shared region
	ErrHeaderMismatch = errors.New("shared region header mismatch")
)
