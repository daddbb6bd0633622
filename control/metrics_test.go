package control

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/momentics/pollws/api"
	"github.com/momentics/pollws/fake"
	"github.com/momentics/pollws/protocol"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	return string(body)
}

func TestMetricsObserveConnections(t *testing.T) {
	m := NewMetrics()
	ct, st := fake.Pipe(fake.Options{})
	client, err := protocol.Dial(ct, protocol.URL{Host: "localhost", Port: 3009}, protocol.WithMetrics(m))
	require.NoError(t, err)
	server, err := protocol.Accept(st, protocol.WithMetrics(m))
	require.NoError(t, err)

	for i := 0; i < 5000 && (client.State() != api.StateOpen || server.State() != api.StateOpen); i++ {
		client.Poll(nil, 0)
		server.Poll(nil, 0)
	}
	require.Equal(t, api.StateOpen, server.State())

	require.True(t, client.SendText("a"))
	require.True(t, client.SendText("b"))
	for i := 0; i < 3; i++ {
		client.Poll(nil, 0)
		server.Poll(api.HandlerFunc(func([]byte, bool) {}), 0)
	}

	body := scrape(t, m)
	assert.Contains(t, body, "pollws_connections_active 2")
	assert.Contains(t, body, `pollws_frames_total{direction="out",opcode="text"} 2`)
	assert.Contains(t, body, `pollws_frames_total{direction="in",opcode="text"} 2`)
	assert.Contains(t, body, `pollws_bytes_total{direction="in"}`)

	client.Close()
	for i := 0; i < 5; i++ {
		client.Poll(nil, 0)
		server.Poll(nil, 0)
	}
	body = scrape(t, m)
	assert.Contains(t, body, "pollws_connections_active 0")
	assert.Contains(t, body, `pollws_connection_closed_total{reason="closed"} 1`)
}

func TestMetricsHandshakeFailure(t *testing.T) {
	m := NewMetrics()
	_, st := fake.Pipe(fake.Options{})
	server, err := protocol.Accept(st, protocol.WithMetrics(m))
	require.NoError(t, err)

	st.Inject([]byte("POST / HTTP/1.1\r\n"))
	for i := 0; i < 50 && server.State() != api.StateClosed; i++ {
		server.Poll(nil, 0)
	}
	body := scrape(t, m)
	assert.Contains(t, body, "pollws_handshake_failures_total 1")
	assert.Contains(t, body, "pollws_connections_active 0")
}
