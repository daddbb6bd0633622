// Package protocol
// Author: momentics <momentics@gmail.com>
//
// Implements the RFC 6455 frame layer for pollws.
//
// The codec works directly on caller-owned byte slices so that the
// connection can parse frames in place inside its receive buffer and build
// frames in place inside its transmit buffer.
//
// Includes:
//   - Header parsing with incomplete-input detection (no allocation)
//   - Header serialization with 7/16/64-bit length forms
//   - Cyclic XOR masking and time-seeded masking keys
//   - Standalone EncodeFrame/DecodeFrame helpers for tooling and tests
package protocol
