package acp

import (
	"context"

	"github.com/uber/acp-bridge/src/acpd/mapper"
	"go.lsp.dev/jsonrpc2"
)

// Connect starts the workspace's session unless one is already running.
func (r *jsonRPCRouter) Connect(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	params, err := mapper.RequestToWorkspaceParams(req)
	if err != nil {
		return reply(ctx, nil, err)
	}

	err = r.acp.Connect(ctx, params.WorkspaceID)
	return reply(ctx, nil, err)
}

// Disconnect stops the workspace's session.
func (r *jsonRPCRouter) Disconnect(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	params, err := mapper.RequestToWorkspaceParams(req)
	if err != nil {
		return reply(ctx, nil, err)
	}

	err = r.acp.Disconnect(ctx, params.WorkspaceID)
	return reply(ctx, nil, err)
}

// Request forwards an arbitrary method to the workspace's peer and replies with its result unchanged.
func (r *jsonRPCRouter) Request(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	params, err := mapper.RequestToRequestParams(req)
	if err != nil {
		return reply(ctx, nil, err)
	}

	result, err := r.acp.Send(ctx, params)
	if err != nil {
		return reply(ctx, nil, err)
	}
	return reply(ctx, result, nil)
}

func (r *jsonRPCRouter) CreateSession(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	params, err := mapper.RequestToWorkspaceParams(req)
	if err != nil {
		return reply(ctx, nil, err)
	}

	result, err := r.acp.CreateSession(ctx, params.WorkspaceID)
	if err != nil {
		return reply(ctx, nil, err)
	}
	return reply(ctx, result, nil)
}

func (r *jsonRPCRouter) GetSession(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	params, err := mapper.RequestToSessionParams(req)
	if err != nil {
		return reply(ctx, nil, err)
	}

	result, err := r.acp.GetSession(ctx, params)
	if err != nil {
		return reply(ctx, nil, err)
	}
	return reply(ctx, result, nil)
}

func (r *jsonRPCRouter) LoadSession(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	params, err := mapper.RequestToSessionParams(req)
	if err != nil {
		return reply(ctx, nil, err)
	}

	result, err := r.acp.LoadSession(ctx, params)
	if err != nil {
		return reply(ctx, nil, err)
	}
	return reply(ctx, result, nil)
}

func (r *jsonRPCRouter) DeleteSession(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	params, err := mapper.RequestToSessionParams(req)
	if err != nil {
		return reply(ctx, nil, err)
	}

	err = r.acp.DeleteSession(ctx, params)
	return reply(ctx, nil, err)
}

func (r *jsonRPCRouter) Messages(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	params, err := mapper.RequestToSessionParams(req)
	if err != nil {
		return reply(ctx, nil, err)
	}

	result, err := r.acp.ListMessages(ctx, params)
	if err != nil {
		return reply(ctx, nil, err)
	}
	return reply(ctx, result, nil)
}

// Prompt replies once the peer has accepted the prompt. Output arrives as events.
func (r *jsonRPCRouter) Prompt(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	params, err := mapper.RequestToPromptParams(req)
	if err != nil {
		return reply(ctx, nil, err)
	}

	err = r.acp.Prompt(ctx, params)
	return reply(ctx, nil, err)
}

func (r *jsonRPCRouter) Cancel(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	params, err := mapper.RequestToSessionParams(req)
	if err != nil {
		return reply(ctx, nil, err)
	}

	err = r.acp.Cancel(ctx, params)
	return reply(ctx, nil, err)
}
