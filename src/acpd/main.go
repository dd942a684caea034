// Command acpd bridges UI clients to opencode's Agent Client Protocol server, one child process per workspace.
package main

import (
	"github.com/uber/acp-bridge/src/acpd/app"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

func opts() fx.Option {
	return fx.Options(
		app.Module,
	)
}

// fxLogger routes fx's own events through the service logger.
func fxLogger(logger *zap.Logger) fxevent.Logger {
	return &fxevent.ZapLogger{Logger: logger.Named("fx")}
}

func main() {
	fx.New(opts(), fx.WithLogger(fxLogger)).Run()
}
