// Package acp exposes the acpd controller to UI clients over JSON-RPC.
package acp

import (
	"context"
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/uber-go/tally"
	controller "github.com/uber/acp-bridge/src/acpd/controller/acp"
	"github.com/uber/acp-bridge/src/acpd/entity"
	"github.com/uber/acp-bridge/src/acpd/internal/jsonrpcfx"
	"go.lsp.dev/jsonrpc2"
	"go.uber.org/zap"
)

// Handler accepts UI connections from the JSON-RPC server.
type Handler = jsonrpcfx.ConnectionManager

type connectionManager struct {
	ctrl   controller.Controller
	logger *zap.SugaredLogger
	stats  tally.Scope
}

// New constructs a Handler and registers it with the JSON-RPC server.
func New(ctrl controller.Controller, jsonrpcmod jsonrpcfx.JSONRPCModule, logger *zap.SugaredLogger, stats tally.Scope) (Handler, error) {
	c := &connectionManager{
		ctrl:   ctrl,
		logger: logger,
		stats:  stats.SubScope("json_rpc"),
	}
	if err := jsonrpcmod.RegisterConnectionManager(c); err != nil {
		return nil, err
	}
	return c, nil
}

// NewConnection registers the client for events and returns a router that includes its UUID.
func (c *connectionManager) NewConnection(ctx context.Context, conn jsonrpc2.Conn) (jsonrpcfx.Router, error) {
	id, err := c.ctrl.InitClient(ctx, conn)
	if err != nil {
		return nil, fmt.Errorf("error while creating new connection: %w", err)
	}
	c.stats.Counter("connections").Inc(1)

	return &jsonRPCRouter{
		acp:    c.ctrl,
		uuid:   id,
		logger: c.logger,
		stats:  c.stats,
	}, nil
}

// RemoveConnection stops sending events to a closed connection. Its sessions keep running.
func (c *connectionManager) RemoveConnection(ctx context.Context, id uuid.UUID) {
	ctx = context.WithValue(ctx, entity.ClientContextKey, id)
	if err := c.ctrl.EndClient(ctx, id); err != nil {
		c.logger.Warnw("removing client", "uuid", id.String(), "error", err)
	}
}
