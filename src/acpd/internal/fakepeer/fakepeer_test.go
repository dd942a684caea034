package fakepeer

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunOneShot(t *testing.T) {
	tests := []struct {
		name       string
		mode       string
		args       []string
		wantCode   int
		wantStdout string
		wantStderr string
	}{
		{name: "version", mode: ModeOK, args: []string{"--version"}, wantStdout: "1.2.3\n"},
		{name: "version fail", mode: ModeVersionFail, args: []string{"--version"}, wantCode: 2, wantStderr: "bad config\n"},
		{name: "acp help", mode: ModeOK, args: []string{"acp", "--help"}, wantStdout: "Usage: opencode acp\n"},
		{name: "unknown", mode: ModeOK, args: []string{"upgrade"}, wantCode: 1, wantStderr: "unknown command: [upgrade]\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			code := run(tt.mode, tt.args, strings.NewReader(""), &stdout, &stderr)
			assert.Equal(t, tt.wantCode, code)
			assert.Equal(t, tt.wantStdout, stdout.String())
			assert.Equal(t, tt.wantStderr, stderr.String())
		})
	}
}

func TestServe(t *testing.T) {
	in := strings.Join([]string{
		`not json`,
		`{"jsonrpc":"2.0","method":"initialize","params":{},"id":1}`,
		`{"jsonrpc":"2.0","method":"session/new","params":{},"id":2}`,
		`{"jsonrpc":"2.0","method":"test/silent","params":{},"id":3}`,
		`{"jsonrpc":"2.0","method":"session/get","params":{"sessionId":"a"},"id":4}`,
		`{"jsonrpc":"2.0","method":"test/exit","params":{},"id":5}`,
		`{"jsonrpc":"2.0","method":"session/get","params":{},"id":6}`,
	}, "\n")

	var stdout, stderr bytes.Buffer
	code := run(ModeOK, []string{"acp"}, strings.NewReader(in), &stdout, &stderr)
	require.Equal(t, 0, code)
	assert.Equal(t, "fake opencode ready\n", stderr.String())

	lines := strings.Split(strings.TrimSpace(stdout.String()), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "starting opencode acp", lines[0])

	var ids []float64
	for _, line := range lines[1:] {
		var m map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(line), &m))
		if id, ok := m["id"]; ok {
			ids = append(ids, id.(float64))
		}
	}
	assert.Equal(t, []float64{1, 2, 4}, ids)
}

func TestServeInitError(t *testing.T) {
	var stdout, stderr bytes.Buffer
	run(ModeInitError, []string{"acp"}, strings.NewReader(`{"jsonrpc":"2.0","method":"initialize","id":1}`), &stdout, &stderr)
	assert.Contains(t, stdout.String(), `"message":"unsupported protocol version"`)
}

func TestServeSessionGet(t *testing.T) {
	in := `{"jsonrpc":"2.0","method":"session/get","params":{"sessionId":"ses_1"},"id":1}` + "\n" +
		`{"jsonrpc":"2.0","method":"session/load","params":{"sessionId":"` + MissingSession + `"},"id":2}`

	var stdout, stderr bytes.Buffer
	run(ModeOK, []string{"acp"}, strings.NewReader(in), &stdout, &stderr)
	assert.Contains(t, stdout.String(), `"result":{"createdAt":1700000000,"id":"ses_1","title":"First"}`)
	assert.Contains(t, stdout.String(), `"message":"session not found"`)
}
