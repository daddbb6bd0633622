// File: internal/chat/client.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package chat

import (
	"fmt"
	"io"

	"github.com/momentics/pollws/api"
	"github.com/momentics/pollws/protocol"
)

// Client drives one dialed chat connection and prints what arrives.
type Client struct {
	conn *protocol.Conn
	w    io.Writer
	out  *outbox
}

// NewClient wraps conn; received messages are written to w.
func NewClient(conn *protocol.Conn, w io.Writer) *Client {
	return &Client{conn: conn, w: w, out: newOutbox(0)}
}

// Send queues text; it goes out once the connection is open and has room.
func (c *Client) Send(text string) bool {
	if !c.out.push(text) {
		return false
	}
	c.out.flush(c.conn)
	return true
}

// Step flushes queued messages and polls the connection once.
func (c *Client) Step() {
	c.out.flush(c.conn)
	c.conn.Poll(c, 0)
}

// State reports the connection state.
func (c *Client) State() api.ReadyState { return c.conn.State() }

// Pending returns the number of queued messages not yet handed over.
func (c *Client) Pending() int { return c.out.len() }

// Close releases the connection.
func (c *Client) Close() { c.conn.Release() }

// Handle implements api.MessageHandler.
func (c *Client) Handle(payload []byte, isText bool) {
	if isText {
		fmt.Fprintf(c.w, "Got message: %s\n", payload)
		return
	}
	fmt.Fprintf(c.w, "Got binary data %d bytes long.\n", len(payload))
}

// IsExitCommand reports whether a console line asks the program to stop.
func IsExitCommand(line string) bool {
	switch line {
	case "bye", "quit", "exit":
		return true
	}
	return false
}
