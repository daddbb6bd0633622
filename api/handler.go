// File: api/handler.go
// Package api defines the message callback contract.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package api

// MessageHandler receives complete application messages.
//
// Handle runs synchronously inside Poll. The payload slice aliases
// connection-owned memory and is only valid until Handle returns.
type MessageHandler interface {
	Handle(payload []byte, isText bool)
}

// HandlerFunc adapts a plain function to MessageHandler.
type HandlerFunc func(payload []byte, isText bool)

// Handle calls f(payload, isText).
func (f HandlerFunc) Handle(payload []byte, isText bool) {
	f(payload, isText)
}
