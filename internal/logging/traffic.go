// File: internal/logging/traffic.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Traffic logs are plain files, one per connection, holding one JSON line
// per sent or delivered message.

package logging

import (
	"fmt"
	"strconv"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// FileSequence hands out numbered file names per prefix: prefix1.txt,
// prefix2.txt and so on. It is safe for concurrent use.
type FileSequence struct {
	mu   sync.Mutex
	next map[string]int
}

// NewFileSequence returns a sequence starting at 1 for every prefix.
func NewFileSequence() *FileSequence {
	return &FileSequence{next: make(map[string]int)}
}

// Next returns the next file name for prefix.
func (s *FileSequence) Next(prefix string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next[prefix]++
	return prefix + strconv.Itoa(s.next[prefix]) + ".txt"
}

// NewTrafficLogger opens path for a traffic log. The returned close
// function flushes and closes the file.
func NewTrafficLogger(path string) (*zap.Logger, func() error, error) {
	ws, closeFn, err := zap.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open traffic log %s: %w", path, err)
	}
	enc := zapcore.NewJSONEncoder(encoderConfig(zap.NewProductionEncoderConfig()))
	logger := zap.New(zapcore.NewCore(enc, ws, zapcore.InfoLevel))
	return logger, func() error {
		err := logger.Sync()
		closeFn()
		return err
	}, nil
}
