package shm_test

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/momentics/pollws/api"
	"github.com/momentics/pollws/protocol"
	"github.com/momentics/pollws/transport/shm"
)

func TestPairRoundTrip(t *testing.T) {
	a, b, err := shm.NewPair(64)
	require.NoError(t, err)

	buf := make([]byte, 128)
	assert.Equal(t, -1, b.Receive(buf))
	assert.True(t, b.WouldBlock())
	assert.False(t, b.InProgress())

	require.Equal(t, 5, a.Send([]byte("hello")))
	assert.EqualValues(t, 5, b.Buffered())
	n := b.Receive(buf)
	require.Equal(t, 5, n)
	assert.Equal(t, "hello", string(buf[:n]))

	require.Equal(t, 3, b.Send([]byte("ack")))
	n = a.Receive(buf)
	assert.Equal(t, "ack", string(buf[:n]))
}

func TestPairFullRingWouldBlock(t *testing.T) {
	a, b, err := shm.NewPair(16)
	require.NoError(t, err)

	assert.Equal(t, 15, a.Send(bytes.Repeat([]byte{'x'}, 40)))
	assert.Equal(t, -1, a.Send([]byte{'y'}))
	assert.True(t, a.WouldBlock())

	buf := make([]byte, 4)
	require.Equal(t, 4, b.Receive(buf))
	assert.Equal(t, 4, a.Send([]byte("abcdef")))
	assert.False(t, a.WouldBlock())
}

func TestPairRejectsBadSize(t *testing.T) {
	_, _, err := shm.NewPair(0)
	assert.ErrorIs(t, err, api.ErrInvalidArgument)
}

func TestClosedTransportFails(t *testing.T) {
	a, b, err := shm.NewPair(32)
	require.NoError(t, err)

	require.Equal(t, 2, a.Send([]byte("hi")))
	a.Close()
	a.Close()
	assert.Equal(t, -1, a.Send([]byte("x")))
	assert.False(t, a.WouldBlock())

	// Bytes written before close remain readable by the peer.
	buf := make([]byte, 8)
	assert.Equal(t, 2, b.Receive(buf))
}

func TestListenDialAccept(t *testing.T) {
	dir := t.TempDir()
	srv, err := shm.Listen(dir, 3009, 256)
	require.NoError(t, err)
	sp, cp := srv.Paths()
	assert.Equal(t, shm.ServerPath(dir, 3009), sp)
	assert.Equal(t, shm.ClientPath(dir, 3009), cp)
	assert.FileExists(t, sp)
	assert.FileExists(t, cp)

	_, ok := srv.Accept()
	assert.False(t, ok, "no client attached yet")

	client, err := shm.Dial(dir, 3009, 256)
	require.NoError(t, err)

	server, ok := srv.Accept()
	require.True(t, ok)
	_, ok = srv.Accept()
	assert.False(t, ok, "one client per region pair")

	require.Equal(t, 4, client.Send([]byte("ping")))
	buf := make([]byte, 16)
	n := server.Receive(buf)
	require.Equal(t, 4, n)
	assert.Equal(t, "ping", string(buf[:n]))

	require.Equal(t, 4, server.Send([]byte("pong")))
	n = client.Receive(buf)
	assert.Equal(t, "pong", string(buf[:n]))

	client.Close()
	require.NoError(t, srv.Close())
	_, err = os.Stat(shm.ServerPath(dir, 3009))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(shm.ClientPath(dir, 3009))
	assert.True(t, os.IsNotExist(err))
}

func TestDialFailures(t *testing.T) {
	dir := t.TempDir()
	_, err := shm.Dial(dir, 4000, 256)
	assert.Error(t, err, "no server regions")

	srv, err := shm.Listen(dir, 4000, 256)
	require.NoError(t, err)
	defer srv.Close()

	_, err = shm.Dial(dir, 4000, 512)
	assert.ErrorIs(t, err, shm.ErrSizeMismatch)
}

func TestConnectionOverRings(t *testing.T) {
	ct, st, err := shm.NewPair(shm.DefaultSize)
	require.NoError(t, err)

	client, err := protocol.Dial(ct, protocol.URL{Host: "localhost", Port: 3009})
	require.NoError(t, err)
	server, err := protocol.Accept(st)
	require.NoError(t, err)

	var got [][]byte
	h := api.HandlerFunc(func(p []byte, _ bool) { got = append(got, append([]byte(nil), p...)) })
	for i := 0; i < 5000 && (client.State() != api.StateOpen || server.State() != api.StateOpen); i++ {
		client.Poll(nil, 0)
		server.Poll(nil, 0)
	}
	require.Equal(t, api.StateOpen, server.State())

	// Larger than one ring: delivery needs several polls on both sides.
	big := bytes.Repeat([]byte("0123456789"), 10_000)
	require.True(t, client.SendBinary(big))
	for i := 0; i < 1000 && len(got) == 0; i++ {
		client.Poll(nil, 0)
		server.Poll(h, 0)
	}
	require.Len(t, got, 1)
	assert.Equal(t, big, got[0])
}
