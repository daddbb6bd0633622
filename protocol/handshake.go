// File: protocol/handshake.go
// Package protocol implements the line-oriented opening handshake.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// The handshake is read one byte per Poll so that it never blocks. Lines are
// CRLF terminated and limited to MaxHandshakeLine bytes including the
// terminator. Only the request line and the status line are validated.

package protocol

import (
	"crypto/sha1"
	"encoding/base64"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/momentics/pollws/api"
)

// MaxHandshakeLine bounds a single handshake line.
const MaxHandshakeLine = 256

// ClientKey is the fixed Sec-WebSocket-Key sent by every client.
const ClientKey = "x3JJHMbDL1EzLkh9GBhXDw=="

// WebSocketGUID is appended to the client key to derive the accept value.
const WebSocketGUID = "258EAFA5-E914-47DA-95CA-C5AB0DC85B11"

// RequestLine is the only request line a server connection accepts.
const RequestLine = "GET / HTTP/1.1"

// responseHeaders is the number of header lines a client skips after the
// status line before it treats the next line as the terminator.
const responseHeaders = 4

// ComputeAcceptKey derives the Sec-WebSocket-Accept value for clientKey.
func ComputeAcceptKey(clientKey string) string {
	sum := sha1.Sum([]byte(clientKey + WebSocketGUID))
	return base64.StdEncoding.EncodeToString(sum[:])
}

// serverResponse is written verbatim by every server connection once the
// request line has been accepted.
var serverResponse = []byte("HTTP/1.1 101 Switching Protocols\r\n" +
	"HConnection: upgrade\r\n" +
	"HSec-WebSocket-Accept: " + ComputeAcceptKey(ClientKey) + "\r\n" +
	"HServer: WebSocket++/0.7.0\r\n" +
	"HUpgrade: websocket\r\n" +
	"\r\n")

type hsPhase int

const (
	hsStatusLine hsPhase = iota
	hsResponseHeaders
	hsResponseEnd
	hsRequestLine
	hsRequestHeaders
)

type handshake struct {
	phase   hsPhase
	headers int
	line    [MaxHandshakeLine]byte
	n       int
	// mark is the time of connection start or of the last accepted line.
	mark time.Time
}

func (h *handshake) reset(role api.Role, now time.Time) {
	*h = handshake{phase: hsStatusLine, mark: now}
	if role == api.RoleServer {
		h.phase = hsRequestLine
	}
}

// handshakeStep flushes pending handshake output and reads at most one byte.
func (c *Conn) handshakeStep() {
	if !c.flush() {
		c.observer.HandshakeFailed()
		return
	}
	if c.now().Sub(c.hs.mark) >= c.handshakeTimeout {
		c.abortHandshake("handshake timeout")
		return
	}

	n := c.tr.Receive(c.hs.line[c.hs.n : c.hs.n+1])
	if n <= 0 {
		if n < 0 && c.transient() {
			return
		}
		c.abortHandshake("handshake receive failed")
		return
	}
	c.observer.Bytes(api.DirectionIn, n)

	if c.hs.line[c.hs.n] == '\n' {
		line := strings.TrimSuffix(string(c.hs.line[:c.hs.n]), "\r")
		c.hs.n = 0
		c.hs.mark = c.now()
		c.handshakeLine(line)
		return
	}
	c.hs.n++
	if c.hs.n == len(c.hs.line) {
		c.abortHandshake("handshake line too long")
	}
}

func (c *Conn) handshakeLine(line string) {
	c.log.Debug("handshake line", zap.String("line", line))

	switch c.hs.phase {
	case hsRequestLine:
		if line != RequestLine {
			c.abortHandshake("unexpected request line")
			return
		}
		if !c.tx.Add(serverResponse) {
			c.abortHandshake("handshake response exceeds transmit buffer")
			return
		}
		c.hs.phase = hsRequestHeaders

	case hsRequestHeaders:
		if line == "" {
			c.open()
		}

	case hsStatusLine:
		if statusCode(line) != 101 {
			c.abortHandshake("unexpected status line")
			return
		}
		c.hs.phase = hsResponseHeaders

	case hsResponseHeaders:
		if line == "" {
			c.open()
			return
		}
		c.hs.headers++
		if c.hs.headers == responseHeaders {
			c.hs.phase = hsResponseEnd
		}

	case hsResponseEnd:
		c.open()
	}
}

// statusCode extracts the code from an "HTTP/1.1 <code> ..." line, or -1.
func statusCode(line string) int {
	rest, ok := strings.CutPrefix(line, "HTTP/1.1 ")
	if !ok {
		return -1
	}
	if i := strings.IndexByte(rest, ' '); i >= 0 {
		rest = rest[:i]
	}
	code, err := strconv.Atoi(rest)
	if err != nil {
		return -1
	}
	return code
}

func (c *Conn) open() {
	c.state = api.StateOpen
	c.wasOpen = true
	c.tr.DisableCoalescing()
	c.observer.Opened()
	c.log.Info("connection open", zap.Stringer("framing", c.framing))
}

func (c *Conn) abortHandshake(reason string) {
	c.log.Warn("handshake aborted", zap.String("reason", reason))
	c.observer.HandshakeFailed()
	c.teardown(reason)
}
