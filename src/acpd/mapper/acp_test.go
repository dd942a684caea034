package mapper

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uber/acp-bridge/src/acpd/entity"
	"github.com/uber/acp-bridge/src/acpd/internal/errors"
	"go.lsp.dev/jsonrpc2"
)

func newCall(t *testing.T, params interface{}) jsonrpc2.Request {
	req, err := jsonrpc2.NewCall(jsonrpc2.NewNumberID(5), "acp/test", params)
	require.NoError(t, err)
	return req
}

func TestRequestToWorkspaceParams(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		p, err := RequestToWorkspaceParams(newCall(t, map[string]string{"workspaceId": "ws-1"}))
		require.NoError(t, err)
		assert.Equal(t, "ws-1", p.WorkspaceID)
	})

	t.Run("missing workspace", func(t *testing.T) {
		_, err := RequestToWorkspaceParams(newCall(t, nil))
		assert.ErrorContains(t, err, `missing field "workspaceId"`)
	})

	t.Run("wrong type", func(t *testing.T) {
		_, err := RequestToWorkspaceParams(newCall(t, map[string]int{"workspaceId": 3}))
		assert.ErrorContains(t, err, jsonrpc2.ErrParse.Error())
	})
}

func TestRequestToRequestParams(t *testing.T) {
	tests := []struct {
		name    string
		params  interface{}
		wantErr string
	}{
		{
			name:   "valid",
			params: map[string]interface{}{"workspaceId": "ws-1", "method": "session/list", "params": map[string]int{"a": 1}, "timeoutMs": 100},
		},
		{
			name:    "missing method",
			params:  map[string]interface{}{"workspaceId": "ws-1"},
			wantErr: `missing field "method"`,
		},
		{
			name:    "negative timeout",
			params:  map[string]interface{}{"workspaceId": "ws-1", "method": "m", "timeoutMs": -1},
			wantErr: "timeoutMs must not be negative",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			p, err := RequestToRequestParams(newCall(t, tt.params))
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "session/list", p.Method)
			assert.JSONEq(t, `{"a":1}`, string(p.Params))
			assert.Equal(t, int64(100), p.TimeoutMs)
		})
	}
}

func TestRequestToSessionParams(t *testing.T) {
	p, err := RequestToSessionParams(newCall(t, map[string]string{"workspaceId": "ws-1", "sessionId": "ses_1"}))
	require.NoError(t, err)
	assert.Equal(t, &entity.SessionParams{WorkspaceID: "ws-1", SessionID: "ses_1"}, p)
	assert.Equal(t, &entity.SessionRequest{SessionID: "ses_1"}, SessionToRequest(p))

	_, err = RequestToSessionParams(newCall(t, map[string]string{"workspaceId": "ws-1", "sessionId": " "}))
	assert.ErrorContains(t, err, `missing field "sessionId"`)
}

func TestRequestToPromptParams(t *testing.T) {
	p, err := RequestToPromptParams(newCall(t, map[string]string{
		"workspaceId": "ws-1",
		"sessionId":   "ses_1",
		"text":        "hello",
		"providerId":  "anthropic",
		"modelId":     "claude",
	}))
	require.NoError(t, err)
	assert.Equal(t, "hello", p.Text)

	_, err = RequestToPromptParams(newCall(t, map[string]string{"sessionId": "ses_1"}))
	assert.ErrorContains(t, err, `missing field "workspaceId"`)
}

func TestRequestToDoctorParams(t *testing.T) {
	p, err := RequestToDoctorParams(newCall(t, nil))
	require.NoError(t, err)
	assert.Empty(t, p.OpencodeBin)

	p, err = RequestToDoctorParams(newCall(t, map[string]string{"opencodeBin": "/opt/bin/opencode"}))
	require.NoError(t, err)
	assert.Equal(t, "/opt/bin/opencode", p.OpencodeBin)
}

func TestPromptToRequest(t *testing.T) {
	tests := []struct {
		name   string
		params entity.PromptParams
		want   string
	}{
		{
			name:   "provider and model",
			params: entity.PromptParams{SessionID: "ses_1", Text: "hi", ProviderID: "anthropic", ModelID: "claude-sonnet"},
			want:   `{"sessionId":"ses_1","prompt":[{"type":"text","text":"hi"}],"modelId":"anthropic/claude-sonnet"}`,
		},
		{
			name:   "model without provider",
			params: entity.PromptParams{SessionID: "ses_1", Text: "hi", ModelID: "claude-sonnet"},
			want:   `{"sessionId":"ses_1","prompt":[{"type":"text","text":"hi"}]}`,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			got, err := json.Marshal(PromptToRequest(&tt.params))
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(got))
		})
	}
}

func TestWorkspaceToNewSessionRequest(t *testing.T) {
	got, err := json.Marshal(WorkspaceToNewSessionRequest(&entity.WorkspaceEntry{Path: "/home/user/project"}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"cwd":"/home/user/project","mcpServers":[]}`, string(got))
}

func TestResultToCreateSession(t *testing.T) {
	got, err := ResultToCreateSession(json.RawMessage(`{"sessionId":"ses_1","extra":true}`))
	require.NoError(t, err)
	assert.Equal(t, &entity.CreateSessionResult{ID: "ses_1", Title: "New Session"}, got)

	_, err = ResultToCreateSession(json.RawMessage(`{"id":"ses_1"}`))
	var pe *errors.ParseError
	assert.ErrorAs(t, err, &pe)
	assert.ErrorContains(t, err, "Failed to parse session/new result")

	_, err = ResultToCreateSession(json.RawMessage(`null`))
	assert.ErrorAs(t, err, &pe)
}

func TestResultToSessionInfo(t *testing.T) {
	got, err := ResultToSessionInfo(json.RawMessage(`{"id":"ses_1","title":"Fix bug","createdAt":10}`), "session")
	require.NoError(t, err)
	assert.Equal(t, "ses_1", got.ID)
	require.NotNil(t, got.Title)
	assert.Equal(t, "Fix bug", *got.Title)
	require.NotNil(t, got.CreatedAt)
	assert.Equal(t, int64(10), *got.CreatedAt)
	assert.Nil(t, got.UpdatedAt)

	_, err = ResultToSessionInfo(json.RawMessage(`"ses_1"`), "session")
	assert.ErrorContains(t, err, "Failed to parse session: ")

	for _, result := range []string{`null`, `{}`, `{"title":"no id"}`, `{"id":null}`} {
		_, err = ResultToSessionInfo(json.RawMessage(result), "session")
		var pe *errors.ParseError
		assert.ErrorAs(t, err, &pe, result)
		assert.ErrorContains(t, err, "Failed to parse session: missing field `id`", result)
	}
}

func TestParseSessionList(t *testing.T) {
	tests := []struct {
		name   string
		stdout string
		want   []string
	}{
		{name: "empty", stdout: "", want: []string{}},
		{name: "blank", stdout: " \n\t", want: []string{}},
		{name: "malformed", stdout: "Error: not a project", want: []string{}},
		{name: "null", stdout: "null", want: []string{}},
		{name: "element without id", stdout: `[{"id":"a"},{"title":"no id"}]`, want: []string{}},
		{name: "null element", stdout: `[{"id":"a"},null]`, want: []string{}},
		{name: "sessions", stdout: `[{"id":"ses_1","title":"One"},{"id":"ses_2"}]` + "\n", want: []string{"ses_1", "ses_2"}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			got := ParseSessionList(tt.stdout)
			require.NotNil(t, got)
			ids := []string{}
			for _, s := range got {
				ids = append(ids, s.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestParseProviders(t *testing.T) {
	stdout := "openai/gpt-4o\n\nanthropic/claude-sonnet\nnot-a-model\n  anthropic/claude-haiku  \n"
	got := ParseProviders(stdout)
	assert.Equal(t, []entity.ProviderInfo{
		{
			ID:   "anthropic",
			Name: "anthropic",
			Models: []entity.ProviderModel{
				{ID: "claude-sonnet", Name: "claude-sonnet"},
				{ID: "claude-haiku", Name: "claude-haiku"},
			},
		},
		{
			ID:     "openai",
			Name:   "openai",
			Models: []entity.ProviderModel{{ID: "gpt-4o", Name: "gpt-4o"}},
		},
	}, got)

	assert.Empty(t, ParseProviders(""))
}

func TestContextToClientUUID(t *testing.T) {
	id := uuid.Must(uuid.NewV4())
	got, err := ContextToClientUUID(context.WithValue(context.Background(), entity.ClientContextKey, id))
	require.NoError(t, err)
	assert.Equal(t, id, got)

	_, err = ContextToClientUUID(context.Background())
	var nc *errors.NoClientFoundError
	assert.ErrorAs(t, err, &nc)
}

func TestErrorToReply(t *testing.T) {
	t.Run("remote error keeps its code", func(t *testing.T) {
		err := ErrorToReply(&errors.RemoteError{Code: -32602, Message: "session not found", Data: json.RawMessage(`{"id":"x"}`)})
		var wire *jsonrpc2.Error
		require.ErrorAs(t, err, &wire)
		assert.Equal(t, jsonrpc2.Code(-32602), wire.Code)
		assert.Equal(t, "session not found", wire.Message)
		require.NotNil(t, wire.Data)
		assert.JSONEq(t, `{"id":"x"}`, string(*wire.Data))
	})

	t.Run("wrapped remote error keeps the outer message", func(t *testing.T) {
		err := ErrorToReply(&errors.InitializationError{Err: &errors.RemoteError{Code: -32603, Message: "unsupported protocol version"}})
		var wire *jsonrpc2.Error
		require.ErrorAs(t, err, &wire)
		assert.Equal(t, jsonrpc2.Code(-32603), wire.Code)
		assert.Equal(t, "Failed to initialize OpenCode ACP: unsupported protocol version", wire.Message)
		assert.Nil(t, wire.Data)
	})

	t.Run("other errors pass through", func(t *testing.T) {
		in := &errors.WorkspaceNotFoundError{ID: "ws-1"}
		assert.Same(t, in, ErrorToReply(in))
	})
}
