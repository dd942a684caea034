package controller

import (
	"github.com/uber/acp-bridge/src/acpd/controller/acp"
	"go.uber.org/fx"
)

// Module is the Fx module for this package.
var Module = fx.Provide(acp.New)
