package order

import "go.uber.org/fx"

// Module exposes the order store via Fx.
var Module = fx.Options(
	fx.Provide(New),
)
