package acp

import (
	"context"

	"github.com/uber/acp-bridge/src/acpd/mapper"
	"go.lsp.dev/jsonrpc2"
)

// Doctor reports whether the CLI is installed and supports acp.
func (r *jsonRPCRouter) Doctor(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	params, err := mapper.RequestToDoctorParams(req)
	if err != nil {
		return reply(ctx, nil, err)
	}

	result, err := r.acp.Doctor(ctx, params)
	if err != nil {
		return reply(ctx, nil, err)
	}
	return reply(ctx, result, nil)
}

func (r *jsonRPCRouter) ListSessions(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	params, err := mapper.RequestToWorkspaceParams(req)
	if err != nil {
		return reply(ctx, nil, err)
	}

	result, err := r.acp.ListSessions(ctx, params.WorkspaceID)
	if err != nil {
		return reply(ctx, nil, err)
	}
	return reply(ctx, result, nil)
}

func (r *jsonRPCRouter) Providers(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	params, err := mapper.RequestToWorkspaceParams(req)
	if err != nil {
		return reply(ctx, nil, err)
	}

	result, err := r.acp.ListProviders(ctx, params.WorkspaceID)
	if err != nil {
		return reply(ctx, nil, err)
	}
	return reply(ctx, result, nil)
}
