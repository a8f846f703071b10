package itn

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/mzansipay/payfast-gateway/internal/app/service/mailer"
	"github.com/mzansipay/payfast-gateway/internal/app/service/notification_log"
	"github.com/mzansipay/payfast-gateway/internal/app/service/order"
	"github.com/mzansipay/payfast-gateway/internal/app/service/subscription"
	"github.com/mzansipay/payfast-gateway/internal/platform/payfast"
	"github.com/mzansipay/payfast-gateway/pkg/config"
	"github.com/mzansipay/payfast-gateway/pkg/metrics"
)

func newHandler(
	cfg *config.Config,
	orders *order.Service,
	subs *subscription.Service,
	echo *payfast.EchoValidator,
	source *payfast.SourceValidator,
	client *payfast.Client,
	mail *mailer.Service,
	recorder *notification_log.Service,
	m *metrics.Metrics,
	log *zap.SugaredLogger,
) *Handler {
	return NewHandler(cfg, orders, subs, echo, source, client, mail, recorder, m, log)
}

// Module exposes the ITN handler via Fx.
var Module = fx.Options(
	fx.Provide(newHandler),
)
