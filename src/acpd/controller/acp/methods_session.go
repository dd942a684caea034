package acp

import (
	"context"
	"encoding/json"
	"time"

	"github.com/uber/acp-bridge/src/acpd/entity"
	"github.com/uber/acp-bridge/src/acpd/mapper"
)

// Remote methods understood by the peer.
const (
	MethodSessionNew    = "session/new"
	MethodSessionGet    = "session/get"
	MethodSessionLoad   = "session/load"
	MethodSessionDelete = "session/delete"
	MethodSessionPrompt = "session/prompt"
	MethodSessionCancel = "session/cancel"
	MethodMessageList   = "message/list"
)

func (c *controller) Send(ctx context.Context, params *entity.RequestParams) (json.RawMessage, error) {
	s, err := c.session(ctx, params.WorkspaceID)
	if err != nil {
		return nil, err
	}
	if params.TimeoutMs > 0 {
		return s.CallWithTimeout(ctx, params.Method, params.Params, time.Duration(params.TimeoutMs)*time.Millisecond)
	}
	return s.Call(ctx, params.Method, params.Params)
}

func (c *controller) CreateSession(ctx context.Context, workspaceID string) (*entity.CreateSessionResult, error) {
	s, err := c.session(ctx, workspaceID)
	if err != nil {
		return nil, err
	}

	entry := s.Entry()
	result, err := s.Call(ctx, MethodSessionNew, mapper.WorkspaceToNewSessionRequest(&entry))
	if err != nil {
		return nil, err
	}
	return mapper.ResultToCreateSession(result)
}

func (c *controller) GetSession(ctx context.Context, params *entity.SessionParams) (*entity.SessionInfo, error) {
	result, err := c.callSession(ctx, MethodSessionGet, params)
	if err != nil {
		return nil, err
	}
	return mapper.ResultToSessionInfo(result, "session")
}

func (c *controller) LoadSession(ctx context.Context, params *entity.SessionParams) (*entity.SessionInfo, error) {
	result, err := c.callSession(ctx, MethodSessionLoad, params)
	if err != nil {
		return nil, err
	}
	return mapper.ResultToSessionInfo(result, "loaded session")
}

func (c *controller) DeleteSession(ctx context.Context, params *entity.SessionParams) error {
	_, err := c.callSession(ctx, MethodSessionDelete, params)
	return err
}

// ListMessages returns the peer's result unchanged.
func (c *controller) ListMessages(ctx context.Context, params *entity.SessionParams) (json.RawMessage, error) {
	return c.callSession(ctx, MethodMessageList, params)
}

func (c *controller) Prompt(ctx context.Context, params *entity.PromptParams) error {
	s, err := c.session(ctx, params.WorkspaceID)
	if err != nil {
		return err
	}
	_, err = s.Call(ctx, MethodSessionPrompt, mapper.PromptToRequest(params))
	return err
}

func (c *controller) Cancel(ctx context.Context, params *entity.SessionParams) error {
	_, err := c.callSession(ctx, MethodSessionCancel, params)
	return err
}

func (c *controller) callSession(ctx context.Context, method string, params *entity.SessionParams) (json.RawMessage, error) {
	s, err := c.session(ctx, params.WorkspaceID)
	if err != nil {
		return nil, err
	}
	return s.Call(ctx, method, mapper.SessionToRequest(params))
}
