//go:build linux
// +build linux

// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package tcp - Linux socket implementation.

package tcp

import (
	"errors"
	"fmt"
	"net"

	"golang.org/x/sys/unix"

	"github.com/momentics/pollws/api"
)

// Socket is a connected, non-blocking TCP socket.
type Socket struct {
	fd         int
	closed     bool
	wouldBlock bool
	inProgress bool
}

var _ api.Transport = (*Socket)(nil)

// Dial resolves host, connects to host:port and switches the socket to
// non-blocking mode.
func Dial(host string, port int) (*Socket, error) {
	addr, err := resolve4(host)
	if err != nil {
		return nil, err
	}
	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM|unix.SOCK_CLOEXEC, unix.IPPROTO_TCP)
	if err != nil {
		return nil, fmt.Errorf("socket create: %w", err)
	}
	sa := &unix.SockaddrInet4{Port: port, Addr: addr}
	if err := unix.Connect(fd, sa); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("connect %s:%d: %w", host, port, err)
	}
	if err := unix.SetNonblock(fd, true); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("set non-blocking: %w", err)
	}
	return &Socket{fd: fd}, nil
}

func resolve4(host string) ([4]byte, error) {
	var out [4]byte
	ips, err := net.LookupIP(host)
	if err != nil {
		return out, fmt.Errorf("resolve %s: %w", host, err)
	}
	for _, ip := range ips {
		if v4 := ip.To4(); v4 != nil {
			copy(out[:], v4)
			return out, nil
		}
	}
	return out, fmt.Errorf("resolve %s: no IPv4 address: %w", host, api.ErrInvalidArgument)
}

// Receive implements api.Transport. End of stream returns 0.
func (s *Socket) Receive(p []byte) int {
	if s.closed {
		s.wouldBlock, s.inProgress = false, false
		return -1
	}
	n, err := unix.Read(s.fd, p)
	return s.result(n, err)
}

// Send implements api.Transport.
func (s *Socket) Send(p []byte) int {
	if s.closed {
		s.wouldBlock, s.inProgress = false, false
		return -1
	}
	n, err := unix.SendmsgN(s.fd, p, nil, nil, unix.MSG_NOSIGNAL)
	return s.result(n, err)
}

func (s *Socket) result(n int, err error) int {
	s.wouldBlock, s.inProgress = false, false
	if err == nil {
		return n
	}
	switch {
	case errors.Is(err, unix.EAGAIN), errors.Is(err, unix.EINTR):
		s.wouldBlock = true
	case errors.Is(err, unix.EINPROGRESS):
		s.inProgress = true
	}
	return -1
}

// WouldBlock implements api.Transport.
func (s *Socket) WouldBlock() bool { return s.wouldBlock }

// InProgress implements api.Transport.
func (s *Socket) InProgress() bool { return s.inProgress }

// DisableCoalescing sets TCP_NODELAY.
func (s *Socket) DisableCoalescing() {
	if !s.closed {
		_ = unix.SetsockoptInt(s.fd, unix.IPPROTO_TCP, unix.TCP_NODELAY, 1)
	}
}

// Close implements api.Transport.
func (s *Socket) Close() {
	if s.closed {
		return
	}
	s.closed = true
	unix.Close(s.fd)
}

// Listener accepts TCP peers without blocking.
type Listener struct {
	fd      int
	port    int
	closed  bool
	lastErr error
}

var _ api.Acceptor = (*Listener)(nil)

// Listen binds all IPv4 interfaces on port. Port 0 picks a free port.
func Listen(port int) (*Listener, error) {
	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM|unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC, unix.IPPROTO_TCP)
	if err != nil {
		return nil, fmt.Errorf("socket create: %w", err)
	}
	_ = unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
	if err := unix.Bind(fd, &unix.SockaddrInet4{Port: port}); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("bind port %d: %w", port, err)
	}
	if err := unix.Listen(fd, unix.SOMAXCONN); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("listen port %d: %w", port, err)
	}
	sa, err := unix.Getsockname(fd)
	if err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("getsockname: %w", err)
	}
	if in4, ok := sa.(*unix.SockaddrInet4); ok {
		port = in4.Port
	}
	return &Listener{fd: fd, port: port}, nil
}

// Port returns the bound port.
func (l *Listener) Port() int { return l.port }

// Accept implements api.Acceptor.
func (l *Listener) Accept() (api.Transport, bool) {
	if l.closed {
		return nil, false
	}
	nfd, _, err := unix.Accept4(l.fd, unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC)
	if err != nil {
		if !errors.Is(err, unix.EAGAIN) && !errors.Is(err, unix.EINTR) {
			l.lastErr = fmt.Errorf("accept: %w", err)
		}
		return nil, false
	}
	return &Socket{fd: nfd}, true
}

// Err returns the last non-transient accept error.
func (l *Listener) Err() error { return l.lastErr }

// Close implements api.Acceptor.
func (l *Listener) Close() error {
	if l.closed {
		return nil
	}
	l.closed = true
	return unix.Close(l.fd)
}
