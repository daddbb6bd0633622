// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package tcp provides non-blocking TCP sockets and a polled listener that
// satisfy the api.Transport and api.Acceptor contracts. Sockets are driven
// directly through golang.org/x/sys/unix so that every call returns at once
// and reports would-block instead of parking the goroutine.
package tcp
