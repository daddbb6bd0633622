package protocol_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/momentics/pollws/api"
	"github.com/momentics/pollws/protocol"
)

func TestParseURL(t *testing.T) {
	cases := []struct {
		raw  string
		want protocol.URL
	}{
		{"ws://localhost", protocol.URL{Host: "localhost", Port: 80}},
		{"ws://127.0.0.1:3009", protocol.URL{Host: "127.0.0.1", Port: 3009}},
		{"ws://example.com/chat", protocol.URL{Host: "example.com", Port: 80, Path: "chat"}},
		{"ws://example.com:8080/a/b", protocol.URL{Host: "example.com", Port: 8080, Path: "a/b"}},
	}
	for _, c := range cases {
		got, err := protocol.ParseURL(c.raw)
		require.NoError(t, err, c.raw)
		assert.Equal(t, c.want, got, c.raw)
	}

	for _, bad := range []string{
		"http://localhost",
		"ws://",
		"ws://:80",
		"ws://host:notaport",
		"ws://host:70000",
		"ws://" + strings.Repeat("h", protocol.MaxURLLen),
	} {
		_, err := protocol.ParseURL(bad)
		assert.Error(t, err, bad)
	}

	_, err := protocol.ParseURL("wss://secure")
	assert.ErrorIs(t, err, api.ErrNotSupported)
	_, err = protocol.ParseURL("ws://host:0")
	assert.ErrorIs(t, err, api.ErrInvalidArgument)
}

func TestUpgradeRequest(t *testing.T) {
	req := string(protocol.UpgradeRequest(protocol.URL{Host: "example.com", Port: 80, Path: "chat"}, "http://origin"))
	assert.Equal(t, "GET /chat HTTP/1.1\r\n"+
		"Host: example.com\r\n"+
		"Upgrade: websocket\r\n"+
		"Connection: Upgrade\r\n"+
		"Origin: http://origin\r\n"+
		"Sec-WebSocket-Key: x3JJHMbDL1EzLkh9GBhXDw==\r\n"+
		"Sec-WebSocket-Version: 13\r\n"+
		"\r\n", req)

	req = string(protocol.UpgradeRequest(protocol.URL{Host: "h", Port: 3009}, strings.Repeat("o", protocol.MaxOriginLen+1)))
	assert.True(t, strings.HasPrefix(req, "GET / HTTP/1.1\r\nHost: h:3009\r\n"))
	assert.NotContains(t, req, "Origin:")
}
