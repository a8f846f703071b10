package renewal

import "go.uber.org/fx"

// Module exposes the renewal charger via Fx.
var Module = fx.Options(
	fx.Provide(New),
)
