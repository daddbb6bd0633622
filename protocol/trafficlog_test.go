package protocol_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/momentics/pollws/fake"
	"github.com/momentics/pollws/protocol"
)

func TestPrintable(t *testing.T) {
	assert.Equal(t, "hi$01$0D$0A~\x7f$FF", protocol.Printable([]byte{'h', 'i', 1, '\r', '\n', '~', 0x7F, 0xFF}))
}

func TestTrafficLogNumbersMessages(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	p := openPair(t, fake.Options{},
		[]protocol.Option{protocol.WithTrafficLog(zap.New(core))}, nil)
	var hc inbox

	require.True(t, p.client.SendText("one"))
	require.True(t, p.client.SendBinary([]byte{'t', 'w', 'o', 0}))
	require.True(t, p.client.SendPing(nil))
	require.True(t, p.server.SendText("back"))
	p.pump(&hc, nil, 3)

	sends := logs.FilterMessage("send").All()
	require.Len(t, sends, 2, "control frames are not recorded")
	assert.Equal(t, uint32(1), sends[0].ContextMap()["send_seq"])
	assert.Equal(t, uint32(2), sends[1].ContextMap()["send_seq"])
	assert.Equal(t, "two$00", sends[1].ContextMap()["data"])
	assert.Equal(t, p.client.ID(), sends[0].ContextMap()["conn"])

	recvs := logs.FilterMessage("receive").All()
	require.Len(t, recvs, 1)
	assert.Equal(t, uint32(1), recvs[0].ContextMap()["recv_seq"])
	assert.Equal(t, "back", recvs[0].ContextMap()["data"])
}
