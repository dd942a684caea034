package handler

import (
	"github.com/uber/acp-bridge/src/acpd/controller"
	ctrl "github.com/uber/acp-bridge/src/acpd/controller/acp"
	handler "github.com/uber/acp-bridge/src/acpd/handler/acp"
	"github.com/uber/acp-bridge/src/acpd/repository/session"
	"github.com/uber/acp-bridge/src/acpd/repository/workspace"
	"go.uber.org/fx"
)

// Module provides the acpd JSON-RPC inbound into an Fx application.
var Module = fx.Options(
	controller.Module,
	session.Module,
	workspace.Module,
	fx.Provide(handler.New),
	fx.Invoke(func(h handler.Handler) {}),
	fx.Invoke(func(c ctrl.Controller) {}),
)
