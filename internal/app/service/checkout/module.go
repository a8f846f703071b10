package checkout

import "go.uber.org/fx"

// Module exposes the checkout builder via Fx.
var Module = fx.Options(
	fx.Provide(New),
)
