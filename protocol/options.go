// File: protocol/options.go
// Package protocol defines functional options for Conn.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package protocol

import (
	"time"

	"go.uber.org/zap"

	"github.com/momentics/pollws/api"
	"github.com/momentics/pollws/core/buffer"
)

// Defaults taken by every Conn unless overridden.
const (
	DefaultTransmitSize     = buffer.DefaultSize
	DefaultReceiveSize      = buffer.DefaultSize
	DefaultMaxBufferSize    = buffer.DefaultMaxGrow
	DefaultReadChunk        = 4 * 1024
	DefaultHandshakeTimeout = 60 * time.Second
	DefaultCloseGrace       = time.Second
)

// Framing selects how messages are delimited on the wire.
type Framing int

const (
	// FramingWebSocket uses RFC 6455 frames.
	FramingWebSocket Framing = iota
	// FramingLine uses CRLF-terminated text lines with no frame header.
	FramingLine
)

func (f Framing) String() string {
	if f == FramingLine {
		return "line"
	}
	return "websocket"
}

type config struct {
	id               string
	useMask          *bool
	framing          Framing
	logger           *zap.Logger
	traffic          *zap.Logger
	observer         api.Observer
	txSize           uint32
	rxSize           uint32
	maxBuffer        uint32
	readChunk        uint32
	handshakeTimeout time.Duration
	closeGrace       time.Duration
	now              func() time.Time
	origin           string
}

func defaultConfig() config {
	return config{
		framing:          FramingWebSocket,
		logger:           zap.NewNop(),
		observer:         api.NopObserver{},
		txSize:           DefaultTransmitSize,
		rxSize:           DefaultReceiveSize,
		maxBuffer:        DefaultMaxBufferSize,
		readChunk:        DefaultReadChunk,
		handshakeTimeout: DefaultHandshakeTimeout,
		closeGrace:       DefaultCloseGrace,
		now:              time.Now,
	}
}

// Option customizes a Conn at construction.
type Option func(*config)

// WithID overrides the generated connection identifier.
func WithID(id string) Option {
	return func(c *config) {
		c.id = id
	}
}

// WithMask forces masking of outgoing frames on or off. Clients mask by
// default, server-accepted connections do not.
func WithMask(on bool) Option {
	return func(c *config) {
		c.useMask = &on
	}
}

// WithFraming selects WebSocket frames or CRLF lines.
func WithFraming(f Framing) Option {
	return func(c *config) {
		c.framing = f
	}
}

// WithLogger attaches a structured logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithTrafficLog records every sent and delivered message on l.
func WithTrafficLog(l *zap.Logger) Option {
	return func(c *config) {
		c.traffic = l
	}
}

// WithObserver attaches a telemetry sink.
func WithObserver(o api.Observer) Option {
	return func(c *config) {
		if o != nil {
			c.observer = o
		}
	}
}

// WithBufferSizes sets the default transmit and receive buffer sizes and the
// growth ceiling shared by all connection buffers.
func WithBufferSizes(tx, rx, maxGrow uint32) Option {
	return func(c *config) {
		c.txSize, c.rxSize, c.maxBuffer = tx, rx, maxGrow
	}
}

// WithReadChunk sets how many bytes are reserved per transport receive.
func WithReadChunk(n uint32) Option {
	return func(c *config) {
		if n > 0 {
			c.readChunk = n
		}
	}
}

// WithHandshakeTimeout bounds the time between two handshake lines.
func WithHandshakeTimeout(d time.Duration) Option {
	return func(c *config) {
		c.handshakeTimeout = d
	}
}

// WithCloseGrace bounds how long Release keeps draining before tearing down.
func WithCloseGrace(d time.Duration) Option {
	return func(c *config) {
		c.closeGrace = d
	}
}

// WithClock replaces the wall clock used for handshake timing.
func WithClock(now func() time.Time) Option {
	return func(c *config) {
		if now != nil {
			c.now = now
		}
	}
}

// WithOrigin adds an Origin line to the client upgrade request.
func WithOrigin(origin string) Option {
	return func(c *config) {
		c.origin = origin
	}
}

// WithMetrics attaches a metrics collector. It is WithObserver under the
// name used by configuration code.
func WithMetrics(o api.Observer) Option {
	return WithObserver(o)
}
