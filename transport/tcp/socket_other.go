//go:build !linux
// +build !linux

// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package tcp - stub for platforms without the raw socket path.

package tcp

import (
	"fmt"
	"runtime"

	"github.com/momentics/pollws/api"
)

// Socket is unavailable on this platform.
type Socket struct{}

// Dial always fails on this platform.
func Dial(host string, port int) (*Socket, error) {
	return nil, fmt.Errorf("tcp dial on %s: %w", runtime.GOOS, api.ErrNotSupported)
}

func (s *Socket) Receive([]byte) int { return -1 }
func (s *Socket) Send([]byte) int    { return -1 }
func (s *Socket) WouldBlock() bool   { return false }
func (s *Socket) InProgress() bool   { return false }
func (s *Socket) DisableCoalescing() {}
func (s *Socket) Close()             {}

// Listener is unavailable on this platform.
type Listener struct{}

// Listen always fails on this platform.
func Listen(port int) (*Listener, error) {
	return nil, fmt.Errorf("tcp listen on %s: %w", runtime.GOOS, api.ErrNotSupported)
}

func (l *Listener) Port() int                     { return 0 }
func (l *Listener) Accept() (api.Transport, bool) { return nil, false }
func (l *Listener) Err() error                    { return nil }
func (l *Listener) Close() error                  { return nil }
