package payfast

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/mzansipay/payfast-gateway/pkg/config"
)

func newEchoValidator(cfg *config.Config, log *zap.SugaredLogger) *EchoValidator {
	return NewEchoValidator(cfg.PayFast.Sandbox, log)
}

// Module exposes the provider client and validators via Fx.
var Module = fx.Options(
	fx.Provide(NewClient),
	fx.Provide(newEchoValidator),
	fx.Provide(NewSourceValidator),
)
