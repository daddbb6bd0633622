// File: transport/shm/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

// Package shm carries a byte stream between two processes, or two goroutines,
// over a pair of single-producer/single-consumer rings. Each direction lives
// in its own region: the server writes the server region and reads the client
// region, the client does the reverse. Regions are either memory-mapped files
// named after the service port or plain heap slices for in-process use.
package shm
