package acp

import (
	"context"

	"github.com/gofrs/uuid"
	"go.lsp.dev/jsonrpc2"
)

// InitClient registers a new UI connection so it receives events.
func (c *controller) InitClient(ctx context.Context, conn jsonrpc2.Conn) (uuid.UUID, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return uuid.Nil, err
	}
	if err := c.events.RegisterClient(ctx, id, conn); err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

// EndClient stops sending events to a UI connection. Sessions outlive their clients.
func (c *controller) EndClient(ctx context.Context, id uuid.UUID) error {
	return c.events.DeregisterClient(ctx, id)
}
