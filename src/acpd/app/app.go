package app

import (
	"context"
	"time"

	"github.com/uber-go/tally"
	"github.com/uber/acp-bridge/src/acpd/gateway"
	"github.com/uber/acp-bridge/src/acpd/handler"
	"github.com/uber/acp-bridge/src/acpd/internal/clock"
	"github.com/uber/acp-bridge/src/acpd/internal/core"
	"github.com/uber/acp-bridge/src/acpd/internal/executor"
	"github.com/uber/acp-bridge/src/acpd/internal/fs"
	"github.com/uber/acp-bridge/src/acpd/internal/jsonrpcfx"
	"github.com/uber/acp-bridge/src/acpd/internal/launcher"
	"github.com/uber/acp-bridge/src/acpd/internal/logfilewriter"
	"github.com/uber/acp-bridge/src/acpd/internal/probe"
	"github.com/uber/acp-bridge/src/acpd/internal/serverinfofile"
	"go.uber.org/fx"
)

// Module defines the acpd application module.
var Module = fx.Options(
	gateway.Module, // outbounds
	handler.Module, // inbounds
	jsonrpcfx.Module,
	fs.Module,
	clock.Module,
	executor.Module,
	launcher.Module,
	logfilewriter.Module,
	probe.Module,
	serverinfofile.Module,
	core.ConfigModule,
	core.LoggerModule,
	fx.Provide(func(lc fx.Lifecycle, env Context) tally.Scope {
		rs, closer := tally.NewRootScope(tally.ScopeOptions{
			Tags: map[string]string{
				"service":     "acpd",
				"environment": env.Environment,
			},
		}, 1*time.Second)

		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				return closer.Close()
			},
		})

		return rs
	}),
	fx.Decorate(decorateEnvContext),
	fx.Decorate(decorateConfigProvider),
	fx.Provide(func() Context {
		return Context{
			Environment: EnvLocal,
		}
	}),
)
