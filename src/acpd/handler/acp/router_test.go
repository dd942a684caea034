package acp

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uber-go/tally"
	"github.com/uber/acp-bridge/src/acpd/controller/acp/acpmock"
	"github.com/uber/acp-bridge/src/acpd/entity"
	acperrors "github.com/uber/acp-bridge/src/acpd/internal/errors"
	"github.com/uber/acp-bridge/src/acpd/mapper"
	"go.lsp.dev/jsonrpc2"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
)

// replyCapture records what a handler replied.
type replyCapture struct {
	called bool
	result interface{}
	err    error
}

func (c *replyCapture) replier() jsonrpc2.Replier {
	return func(ctx context.Context, result interface{}, err error) error {
		c.called = true
		c.result = result
		c.err = err
		return nil
	}
}

func newRouter(t *testing.T) (*jsonRPCRouter, *acpmock.MockController, tally.TestScope) {
	ctrl := gomock.NewController(t)
	c := acpmock.NewMockController(ctrl)
	scope := tally.NewTestScope("testing", make(map[string]string, 0))
	return &jsonRPCRouter{acp: c, uuid: newTestID(t), logger: zap.NewNop().Sugar(), stats: scope}, c, scope
}

func call(t *testing.T, method string, params interface{}) jsonrpc2.Request {
	req, err := jsonrpc2.NewCall(jsonrpc2.NewNumberID(5), method, params)
	require.NoError(t, err)
	return req
}

func TestHandleReqUnknownMethod(t *testing.T) {
	r, _, _ := newRouter(t)
	capture := &replyCapture{}

	require.NoError(t, r.HandleReq(context.Background(), capture.replier(), call(t, "sampleMethod", []string{"val1", "val2"})))
	assert.ErrorIs(t, capture.err, jsonrpc2.ErrMethodNotFound)
}

func TestHandleReq(t *testing.T) {
	ws := map[string]string{"workspaceId": "ws-1"}
	ses := map[string]string{"workspaceId": "ws-1", "sessionId": "ses_1"}
	sessionParams := &entity.SessionParams{WorkspaceID: "ws-1", SessionID: "ses_1"}
	title := "First"
	version := "1.2.3"
	ctrlErr := errors.New("controller error")

	tests := []struct {
		name       string
		method     string
		params     interface{}
		expect     func(c *acpmock.MockControllerMockRecorder, err error)
		wantResult interface{}
	}{
		{
			name:   "connect",
			method: MethodConnect,
			params: ws,
			expect: func(c *acpmock.MockControllerMockRecorder, err error) {
				c.Connect(gomock.Any(), "ws-1").Return(err)
			},
		},
		{
			name:   "disconnect",
			method: MethodDisconnect,
			params: ws,
			expect: func(c *acpmock.MockControllerMockRecorder, err error) {
				c.Disconnect(gomock.Any(), "ws-1").Return(err)
			},
		},
		{
			name:   "request",
			method: MethodRequest,
			params: map[string]interface{}{"workspaceId": "ws-1", "method": "custom/echo", "params": map[string]int{"a": 1}, "timeoutMs": 500},
			expect: func(c *acpmock.MockControllerMockRecorder, err error) {
				c.Send(gomock.Any(), &entity.RequestParams{
					WorkspaceID: "ws-1",
					Method:      "custom/echo",
					Params:      json.RawMessage(`{"a":1}`),
					TimeoutMs:   500,
				}).Return(json.RawMessage(`{"ok":true}`), err)
			},
			wantResult: json.RawMessage(`{"ok":true}`),
		},
		{
			name:   "create session",
			method: MethodCreateSession,
			params: ws,
			expect: func(c *acpmock.MockControllerMockRecorder, err error) {
				c.CreateSession(gomock.Any(), "ws-1").Return(&entity.CreateSessionResult{ID: "ses_new", Title: "New Session"}, err)
			},
			wantResult: &entity.CreateSessionResult{ID: "ses_new", Title: "New Session"},
		},
		{
			name:   "get session",
			method: MethodGetSession,
			params: ses,
			expect: func(c *acpmock.MockControllerMockRecorder, err error) {
				c.GetSession(gomock.Any(), sessionParams).Return(&entity.SessionInfo{ID: "ses_1", Title: &title}, err)
			},
			wantResult: &entity.SessionInfo{ID: "ses_1", Title: &title},
		},
		{
			name:   "load session",
			method: MethodLoadSession,
			params: ses,
			expect: func(c *acpmock.MockControllerMockRecorder, err error) {
				c.LoadSession(gomock.Any(), sessionParams).Return(&entity.SessionInfo{ID: "ses_1"}, err)
			},
			wantResult: &entity.SessionInfo{ID: "ses_1"},
		},
		{
			name:   "delete session",
			method: MethodDeleteSession,
			params: ses,
			expect: func(c *acpmock.MockControllerMockRecorder, err error) {
				c.DeleteSession(gomock.Any(), sessionParams).Return(err)
			},
		},
		{
			name:   "messages",
			method: MethodMessages,
			params: ses,
			expect: func(c *acpmock.MockControllerMockRecorder, err error) {
				c.ListMessages(gomock.Any(), sessionParams).Return(json.RawMessage(`[]`), err)
			},
			wantResult: json.RawMessage(`[]`),
		},
		{
			name:   "prompt",
			method: MethodPrompt,
			params: map[string]string{"workspaceId": "ws-1", "sessionId": "ses_1", "text": "hi", "providerId": "anthropic", "modelId": "claude"},
			expect: func(c *acpmock.MockControllerMockRecorder, err error) {
				c.Prompt(gomock.Any(), &entity.PromptParams{
					WorkspaceID: "ws-1",
					SessionID:   "ses_1",
					Text:        "hi",
					ProviderID:  "anthropic",
					ModelID:     "claude",
				}).Return(err)
			},
		},
		{
			name:   "cancel",
			method: MethodCancel,
			params: ses,
			expect: func(c *acpmock.MockControllerMockRecorder, err error) {
				c.Cancel(gomock.Any(), sessionParams).Return(err)
			},
		},
		{
			name:   "doctor",
			method: MethodDoctor,
			params: nil,
			expect: func(c *acpmock.MockControllerMockRecorder, err error) {
				c.Doctor(gomock.Any(), &entity.DoctorParams{}).Return(&entity.DoctorReport{OK: true, ACPOK: true, Version: &version}, err)
			},
			wantResult: &entity.DoctorReport{OK: true, ACPOK: true, Version: &version},
		},
		{
			name:   "list sessions",
			method: MethodListSessions,
			params: ws,
			expect: func(c *acpmock.MockControllerMockRecorder, err error) {
				c.ListSessions(gomock.Any(), "ws-1").Return([]entity.SessionInfo{{ID: "ses_1"}}, err)
			},
			wantResult: []entity.SessionInfo{{ID: "ses_1"}},
		},
		{
			name:   "providers",
			method: MethodProviders,
			params: ws,
			expect: func(c *acpmock.MockControllerMockRecorder, err error) {
				c.ListProviders(gomock.Any(), "ws-1").Return([]entity.ProviderInfo{{ID: "openai", Name: "openai"}}, err)
			},
			wantResult: []entity.ProviderInfo{{ID: "openai", Name: "openai"}},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Run("success", func(t *testing.T) {
				r, c, scope := newRouter(t)
				tt.expect(c.EXPECT(), nil)
				capture := &replyCapture{}

				require.NoError(t, r.HandleReq(context.Background(), capture.replier(), call(t, tt.method, tt.params)))
				require.True(t, capture.called)
				assert.NoError(t, capture.err)
				if tt.wantResult != nil {
					assert.Equal(t, tt.wantResult, capture.result)
				} else {
					assert.Nil(t, capture.result)
				}

				counter := scope.Snapshot().Counters()["testing.success+method="+tt.method]
				require.NotNil(t, counter)
				assert.Equal(t, int64(1), counter.Value())
			})

			t.Run("controller error", func(t *testing.T) {
				r, c, scope := newRouter(t)
				tt.expect(c.EXPECT(), ctrlErr)
				capture := &replyCapture{}

				require.NoError(t, r.HandleReq(context.Background(), capture.replier(), call(t, tt.method, tt.params)))
				assert.Equal(t, ctrlErr, capture.err)
				assert.Nil(t, capture.result)

				counter := scope.Snapshot().Counters()["testing.errors+method="+tt.method]
				require.NotNil(t, counter)
				assert.Equal(t, int64(1), counter.Value())
			})
		})
	}
}

func TestHandleReqInvalidParams(t *testing.T) {
	tests := []struct {
		method  string
		params  interface{}
		wantErr string
	}{
		{method: MethodConnect, params: map[string]string{}, wantErr: `missing field "workspaceId"`},
		{method: MethodRequest, params: map[string]string{"workspaceId": "ws-1"}, wantErr: `missing field "method"`},
		{method: MethodGetSession, params: map[string]string{"workspaceId": "ws-1"}, wantErr: `missing field "sessionId"`},
		{method: MethodPrompt, params: map[string]string{"sessionId": "ses_1"}, wantErr: `missing field "workspaceId"`},
		{method: MethodProviders, params: []string{"ws-1"}, wantErr: "JSON-RPC parse error"},
	}

	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			// No controller call is expected.
			r, _, _ := newRouter(t)
			capture := &replyCapture{}

			require.NoError(t, r.HandleReq(context.Background(), capture.replier(), call(t, tt.method, tt.params)))
			assert.ErrorContains(t, capture.err, tt.wantErr)
		})
	}
}

func TestHandleReqRemoteError(t *testing.T) {
	r, c, _ := newRouter(t)
	c.EXPECT().GetSession(gomock.Any(), gomock.Any()).Return(nil, &acperrors.RemoteError{Code: -32602, Message: "session not found"})
	capture := &replyCapture{}

	require.NoError(t, r.HandleReq(context.Background(), capture.replier(), call(t, MethodGetSession, map[string]string{"workspaceId": "ws-1", "sessionId": "missing"})))
	var wire *jsonrpc2.Error
	require.ErrorAs(t, capture.err, &wire)
	assert.Equal(t, jsonrpc2.Code(-32602), wire.Code)
	assert.Equal(t, "session not found", wire.Message)
}

func TestHandleReqClientContext(t *testing.T) {
	r, c, _ := newRouter(t)
	c.EXPECT().Connect(gomock.Any(), "ws-1").DoAndReturn(func(ctx context.Context, _ string) error {
		id, err := mapper.ContextToClientUUID(ctx)
		require.NoError(t, err)
		assert.Equal(t, r.UUID(), id)
		return nil
	})

	capture := &replyCapture{}
	require.NoError(t, r.HandleReq(context.Background(), capture.replier(), call(t, MethodConnect, map[string]string{"workspaceId": "ws-1"})))
	assert.NoError(t, capture.err)
}
