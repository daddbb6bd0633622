package logging

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewLevels(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.log")
	l, err := New(Config{Level: "warn", Outputs: []string{path}})
	require.NoError(t, err)
	assert.False(t, l.Core().Enabled(zap.InfoLevel))
	assert.True(t, l.Core().Enabled(zap.WarnLevel))

	l.Warn("disk almost full", zap.Int("free", 3))
	require.NoError(t, l.Sync())
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"msg":"disk almost full"`)
	assert.Contains(t, string(raw), `"free":3`)

	_, err = New(Config{Level: "loud"})
	assert.Error(t, err)
}

func TestNewDefaultsToInfo(t *testing.T) {
	l, err := New(Config{Development: true, Outputs: []string{filepath.Join(t.TempDir(), "dev.log")}})
	require.NoError(t, err)
	assert.True(t, l.Core().Enabled(zap.InfoLevel))
	assert.False(t, l.Core().Enabled(zap.DebugLevel))
}

func TestFileSequence(t *testing.T) {
	s := NewFileSequence()
	assert.Equal(t, "client1.txt", s.Next("client"))
	assert.Equal(t, "client2.txt", s.Next("client"))
	assert.Equal(t, "server1.txt", s.Next("server"))

	var wg sync.WaitGroup
	names := make(chan string, 100)
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			names <- s.Next("x")
		}()
	}
	wg.Wait()
	close(names)
	seen := map[string]bool{}
	for n := range names {
		assert.False(t, seen[n], "duplicate %s", n)
		seen[n] = true
	}
	assert.Len(t, seen, 100)
}

func TestTrafficLoggerWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "traffic1.txt")
	l, closeFn, err := NewTrafficLogger(path)
	require.NoError(t, err)
	l.Info("send", zap.Uint32("send_seq", 1), zap.String("data", "hello"))
	require.NoError(t, closeFn())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(raw), `"send_seq":1`))
	assert.True(t, strings.Contains(string(raw), `"data":"hello"`))
}
