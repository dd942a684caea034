package stdiorpc

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uber/acp-bridge/src/acpd/entity"
)

func TestMalformedLines(t *testing.T) {
	c, p, rec, scope := newTestConn(t)

	resultc := make(chan json.RawMessage, 1)
	go func() {
		result, err := c.Call(context.Background(), "session/get", nil, 5*time.Second)
		assert.NoError(t, err)
		resultc <- result
	}()
	req, err := p.readRequest()
	require.NoError(t, err)

	for _, line := range []string{
		"",
		"   \t",
		"starting opencode acp",
		`{"jsonrpc":"2.0"`,
		`{"jsonrpc":"2.0"}`,
		`{"jsonrpc":"2.0","id":"abc","result":1}`,
		`{"jsonrpc":"2.0","id":-4,"result":1}`,
		`[1,2,3]`,
	} {
		require.NoError(t, p.send(line))
	}
	require.NoError(t, p.send(fmt.Sprintf(`{"jsonrpc":"2.0","id":%d,"result":{"ok":true}}`, req.ID)))

	assert.JSONEq(t, `{"ok":true}`, string(<-resultc))
	assert.Equal(t, int64(6), counter(scope, "testing.rpc.demux.malformed"))
	select {
	case ev := <-rec.ch:
		assert.Failf(t, "unexpected event", "%#v", ev)
	default:
	}
}

func TestNotifications(t *testing.T) {
	_, p, rec, _ := newTestConn(t)

	require.NoError(t, p.send(`{"jsonrpc":"2.0","method":"session/update","params":{"sessionId":"s1","delta":"hi"}}`))
	require.NoError(t, p.send(`{"jsonrpc":"2.0","method":"session/heartbeat"}`))
	require.NoError(t, p.send(`{"jsonrpc":"2.0","id":7,"method":"session/request_permission","params":{"tool":"bash"}}`))

	ev := rec.next(t)
	assert.Equal(t, entity.NotificationEvent{
		WorkspaceID: "ws-1",
		Method:      "session/update",
		Params:      json.RawMessage(`{"sessionId":"s1","delta":"hi"}`),
	}, ev)

	ev = rec.next(t)
	assert.Equal(t, entity.NotificationEvent{WorkspaceID: "ws-1", Method: "session/heartbeat"}, ev)

	ev = rec.next(t)
	assert.Equal(t, entity.NotificationEvent{
		WorkspaceID: "ws-1",
		Method:      "session/request_permission",
		Params:      json.RawMessage(`{"tool":"bash"}`),
		ID:          json.RawMessage(`7`),
	}, ev)
}

func TestPeerRequestDoesNotResolveCall(t *testing.T) {
	c, p, rec, _ := newTestConn(t)

	resultc := make(chan json.RawMessage, 1)
	go func() {
		result, err := c.Call(context.Background(), "session/prompt", nil, 5*time.Second)
		assert.NoError(t, err)
		resultc <- result
	}()
	req, err := p.readRequest()
	require.NoError(t, err)

	// Same id as the outstanding call, but it is the peer asking us something.
	require.NoError(t, p.send(fmt.Sprintf(`{"jsonrpc":"2.0","id":%d,"method":"fs/read_text_file","params":{}}`, req.ID)))
	assert.Equal(t, "fs/read_text_file", rec.next(t).(entity.NotificationEvent).Method)
	assert.Equal(t, 1, c.Pending())

	require.NoError(t, p.send(fmt.Sprintf(`{"jsonrpc":"2.0","id":%d,"result":"done"}`, req.ID)))
	assert.JSONEq(t, `"done"`, string(<-resultc))
}

func TestNumericID(t *testing.T) {
	tests := []struct {
		raw    string
		want   uint64
		wantOK bool
	}{
		{raw: `1`, want: 1, wantOK: true},
		{raw: ` 42 `, want: 42, wantOK: true},
		{raw: ``},
		{raw: `null`},
		{raw: `"1"`},
		{raw: `-1`},
		{raw: `1.5`},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			m := Message{ID: json.RawMessage(tt.raw)}
			got, ok := m.numericID()
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
