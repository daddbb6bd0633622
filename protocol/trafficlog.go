// File: protocol/trafficlog.go
// Package protocol records application traffic for offline inspection.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package protocol

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// trafficLog numbers sent and delivered messages independently.
type trafficLog struct {
	log     *zap.Logger
	sendSeq uint32
	recvSeq uint32
}

func newTrafficLog(l *zap.Logger) *trafficLog {
	return &trafficLog{log: l}
}

func (t *trafficLog) send(p []byte) {
	t.sendSeq++
	t.log.Info("send",
		zap.Uint32("send_seq", t.sendSeq),
		zap.Int("bytes", len(p)),
		zap.String("data", Printable(p)),
	)
}

func (t *trafficLog) recv(p []byte) {
	t.recvSeq++
	t.log.Info("receive",
		zap.Uint32("recv_seq", t.recvSeq),
		zap.Int("bytes", len(p)),
		zap.String("data", Printable(p)),
	)
}

// Printable renders p with every control byte below 0x20 and every byte
// above 0x7F escaped as $XX. 0x7F itself passes through.
func Printable(p []byte) string {
	var b strings.Builder
	b.Grow(len(p))
	for _, c := range p {
		if c >= 32 && c < 128 {
			b.WriteByte(c)
			continue
		}
		fmt.Fprintf(&b, "$%02X", c)
	}
	return b.String()
}
