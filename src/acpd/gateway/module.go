package gateway

import (
	uievents "github.com/uber/acp-bridge/src/acpd/gateway/ui-events"
	"go.uber.org/fx"
)

// Module provides the outbound gateways.
var Module = fx.Options(
	uievents.Module,
)
