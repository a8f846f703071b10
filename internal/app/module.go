package app

import (
	"time"

	"go.uber.org/fx"

	"github.com/mzansipay/payfast-gateway/internal/app/api/server"
	"github.com/mzansipay/payfast-gateway/internal/app/service/checkout"
	"github.com/mzansipay/payfast-gateway/internal/app/service/itn"
	"github.com/mzansipay/payfast-gateway/internal/app/service/mailer"
	notificationlog "github.com/mzansipay/payfast-gateway/internal/app/service/notification_log"
	"github.com/mzansipay/payfast-gateway/internal/app/service/order"
	"github.com/mzansipay/payfast-gateway/internal/app/service/renewal"
	"github.com/mzansipay/payfast-gateway/internal/app/service/subscription"
	"github.com/mzansipay/payfast-gateway/internal/platform/db"
	"github.com/mzansipay/payfast-gateway/internal/platform/payfast"
	"github.com/mzansipay/payfast-gateway/pkg/config"
	"github.com/mzansipay/payfast-gateway/pkg/logger"
	"github.com/mzansipay/payfast-gateway/pkg/metrics"
)

const (
	DefaultStartTimeout = 15 * time.Second
	DefaultStopTimeout  = 10 * time.Second
)

var Module = fx.Options(
	logger.Module,
	config.Module,
	db.Module,
	fx.Provide(metrics.New),
	payfast.Module,
	server.Module,
	order.Module,
	subscription.Module,
	notificationlog.Module,
	mailer.Module,
	itn.Module,
	checkout.Module,
	renewal.Module,
)
