// File: internal/chat/hub.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Broadcast registry of server-side connections. Every text message a
// client posts is echoed, prefixed with the client's number, to all
// connected clients.

package chat

import (
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/momentics/pollws/api"
	"github.com/momentics/pollws/protocol"
)

// MaxMessage is the longest client message the hub relays.
const MaxMessage = 511

// Config tunes a Hub.
type Config struct {
	// Rate and Burst limit how fast one client may post. A zero Rate
	// disables limiting.
	Rate  rate.Limit
	Burst int

	// MaxPending bounds each client's outbound queue.
	MaxPending int

	// ConnOptions is called once per accepted transport.
	ConnOptions func(id uint32) []protocol.Option

	Logger *zap.Logger
}

// Message is one relayed client post.
type Message struct {
	From uint32
	Text string
}

type client struct {
	hub     *Hub
	id      uint32
	conn    *protocol.Conn
	limiter *rate.Limiter
	out     *outbox
}

// Hub accepts, polls and relays between chat clients.
type Hub struct {
	acceptor api.Acceptor
	cfg      Config
	log      *zap.Logger
	clients  []*client
	nextID   uint32
	received []Message
}

// NewHub returns a hub accepting transports from acc.
func NewHub(acc api.Acceptor, cfg Config) *Hub {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Rate == 0 {
		cfg.Rate = rate.Inf
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	return &Hub{acceptor: acc, cfg: cfg, log: cfg.Logger}
}

// Clients returns the number of live connections.
func (h *Hub) Clients() int { return len(h.clients) }

// Step runs one pass: accept newcomers, drop dead clients, poll the rest
// and relay what they posted. It returns the messages relayed.
func (h *Hub) Step() []Message {
	h.accept()
	h.reap()

	h.received = h.received[:0]
	for _, c := range h.clients {
		c.out.flush(c.conn)
		c.conn.Poll(c, 0)
	}
	for _, m := range h.received {
		h.Broadcast(fmt.Sprintf("[%d] %s", m.From, m.Text))
	}
	return append([]Message(nil), h.received...)
}

// Broadcast queues text for every client.
func (h *Hub) Broadcast(text string) {
	for _, c := range h.clients {
		if !c.out.push(text) {
			h.log.Warn("outbound queue full, message dropped",
				zap.Uint32("client", c.id),
				zap.Uint64("dropped", c.out.dropped))
			continue
		}
		c.out.flush(c.conn)
	}
}

// Close releases every client connection and stops accepting.
func (h *Hub) Close() error {
	for _, c := range h.clients {
		c.conn.Release()
	}
	h.clients = nil
	return h.acceptor.Close()
}

func (h *Hub) accept() {
	for {
		tr, ok := h.acceptor.Accept()
		if !ok {
			return
		}
		h.nextID++
		var opts []protocol.Option
		if h.cfg.ConnOptions != nil {
			opts = h.cfg.ConnOptions(h.nextID)
		}
		conn, err := protocol.Accept(tr, opts...)
		if err != nil {
			h.log.Error("failed to set up connection", zap.Uint32("client", h.nextID), zap.Error(err))
			tr.Close()
			continue
		}
		h.clients = append(h.clients, &client{
			hub:     h,
			id:      h.nextID,
			conn:    conn,
			limiter: rate.NewLimiter(h.cfg.Rate, h.cfg.Burst),
			out:     newOutbox(h.cfg.MaxPending),
		})
		h.log.Info("client connected", zap.Uint32("client", h.nextID), zap.String("conn", conn.ID()))
	}
}

func (h *Hub) reap() {
	live := h.clients[:0]
	for _, c := range h.clients {
		if c.conn.State() == api.StateClosed {
			h.log.Info("lost connection to client", zap.Uint32("client", c.id))
			c.conn.Release()
			continue
		}
		live = append(live, c)
	}
	for i := len(live); i < len(h.clients); i++ {
		h.clients[i] = nil
	}
	h.clients = live
}

// Handle implements api.MessageHandler for one client's connection.
func (c *client) Handle(payload []byte, isText bool) {
	log := c.hub.log
	switch {
	case !isText:
		log.Debug("binary message ignored", zap.Uint32("client", c.id), zap.Int("bytes", len(payload)))
		return
	case len(payload) > MaxMessage:
		log.Debug("oversized message ignored", zap.Uint32("client", c.id), zap.Int("bytes", len(payload)))
		return
	case !c.limiter.Allow():
		log.Debug("rate limited", zap.Uint32("client", c.id))
		return
	}
	c.hub.received = append(c.hub.received, Message{From: c.id, Text: string(payload)})
}
