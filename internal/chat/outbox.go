// File: internal/chat/outbox.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package chat

import (
	"github.com/eapache/queue"

	"github.com/momentics/pollws/protocol"
)

// DefaultMaxPending bounds the messages queued for one connection.
const DefaultMaxPending = 256

// outbox holds text messages a connection could not take yet, either
// because it is still handshaking or because its transmit buffer is full.
type outbox struct {
	q       *queue.Queue
	max     int
	dropped uint64
}

func newOutbox(max int) *outbox {
	if max <= 0 {
		max = DefaultMaxPending
	}
	return &outbox{q: queue.New(), max: max}
}

// push queues text; it reports false and counts a drop when full.
func (o *outbox) push(text string) bool {
	if o.q.Length() >= o.max {
		o.dropped++
		return false
	}
	o.q.Add(text)
	return true
}

// flush hands queued messages to c in order until one is refused.
func (o *outbox) flush(c *protocol.Conn) int {
	sent := 0
	for o.q.Length() > 0 {
		if !c.SendText(o.q.Peek().(string)) {
			break
		}
		o.q.Remove()
		sent++
	}
	return sent
}

func (o *outbox) len() int { return o.q.Length() }
