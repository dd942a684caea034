package acp

import (
	"context"
	"time"

	"github.com/gofrs/uuid"
	"github.com/uber-go/tally"
	controller "github.com/uber/acp-bridge/src/acpd/controller/acp"
	"github.com/uber/acp-bridge/src/acpd/entity"
	"github.com/uber/acp-bridge/src/acpd/mapper"
	"go.lsp.dev/jsonrpc2"
	"go.uber.org/zap"
)

// Methods served to UI clients.
const (
	MethodConnect       = "acp/connect"
	MethodDisconnect    = "acp/disconnect"
	MethodRequest       = "acp/request"
	MethodCreateSession = "acp/createSession"
	MethodGetSession    = "acp/getSession"
	MethodLoadSession   = "acp/loadSession"
	MethodDeleteSession = "acp/deleteSession"
	MethodMessages      = "acp/messages"
	MethodPrompt        = "acp/prompt"
	MethodCancel        = "acp/cancel"
	MethodDoctor        = "acp/doctor"
	MethodListSessions  = "acp/listSessions"
	MethodProviders     = "acp/providers"
)

type jsonRPCRouter struct {
	acp    controller.Controller
	uuid   uuid.UUID
	logger *zap.SugaredLogger
	stats  tally.Scope
}

// HandleReq handles routing for a single request.
func (r *jsonRPCRouter) HandleReq(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	ctx = context.WithValue(ctx, entity.ClientContextKey, r.uuid)
	reply = r.instrument(req.Method(), reply)

	switch req.Method() {
	// Session lifecycle.
	case MethodConnect:
		return r.Connect(ctx, reply, req)

	case MethodDisconnect:
		return r.Disconnect(ctx, reply, req)

	case MethodRequest:
		return r.Request(ctx, reply, req)

	// Conversations.
	case MethodCreateSession:
		return r.CreateSession(ctx, reply, req)

	case MethodGetSession:
		return r.GetSession(ctx, reply, req)

	case MethodLoadSession:
		return r.LoadSession(ctx, reply, req)

	case MethodDeleteSession:
		return r.DeleteSession(ctx, reply, req)

	case MethodMessages:
		return r.Messages(ctx, reply, req)

	case MethodPrompt:
		return r.Prompt(ctx, reply, req)

	case MethodCancel:
		return r.Cancel(ctx, reply, req)

	// CLI.
	case MethodDoctor:
		return r.Doctor(ctx, reply, req)

	case MethodListSessions:
		return r.ListSessions(ctx, reply, req)

	case MethodProviders:
		return r.Providers(ctx, reply, req)

	default:
		return jsonrpc2.MethodNotFoundHandler(ctx, reply, req)
	}
}

func (r *jsonRPCRouter) UUID() uuid.UUID {
	return r.uuid
}

// instrument records the latency and outcome of each request, and converts errors into their wire form.
func (r *jsonRPCRouter) instrument(method string, reply jsonrpc2.Replier) jsonrpc2.Replier {
	scope := r.stats.Tagged(map[string]string{"method": method})
	start := time.Now()
	return func(ctx context.Context, result interface{}, err error) error {
		scope.Timer("latency").Record(time.Since(start))
		if err != nil {
			scope.Counter("errors").Inc(1)
			r.logger.Debugw("request failed", "method", method, "uuid", r.uuid.String(), "error", err)
			return reply(ctx, nil, mapper.ErrorToReply(err))
		}
		scope.Counter("success").Inc(1)
		return reply(ctx, result, nil)
	}
}
