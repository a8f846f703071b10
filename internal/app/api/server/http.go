package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/mzansipay/payfast-gateway/docs"
	"github.com/mzansipay/payfast-gateway/internal/app/api/handlers"
	mw "github.com/mzansipay/payfast-gateway/internal/app/api/middleware"
	"github.com/mzansipay/payfast-gateway/internal/app/service/checkout"
	"github.com/mzansipay/payfast-gateway/internal/app/service/itn"
	notificationlog "github.com/mzansipay/payfast-gateway/internal/app/service/notification_log"
	ordersvc "github.com/mzansipay/payfast-gateway/internal/app/service/order"
	"github.com/mzansipay/payfast-gateway/internal/app/service/renewal"
	subsvc "github.com/mzansipay/payfast-gateway/internal/app/service/subscription"
	cfgpkg "github.com/mzansipay/payfast-gateway/pkg/config"
	"github.com/mzansipay/payfast-gateway/pkg/metrics"
)

func newEngine(m *metrics.Metrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	// Request logger & access log are attached per group in registerRoutes.
	r.Use(mw.TraceMiddleware(), m.Middleware())
	return r
}

func registerRoutes(
	r *gin.Engine,
	log *zap.SugaredLogger,
	cfg *cfgpkg.Config,
	m *metrics.Metrics,
	itnHandler *itn.Handler,
	builder *checkout.Builder,
	nl *notificationlog.Service,
	orders *ordersvc.Service,
	renewals *renewal.Service,
	subs *subsvc.Service,
) {
	if cfg.MetricsAddr != "" {
		m.Serve(cfg.MetricsAddr)
		log.Infow("metrics started", "addr", cfg.MetricsAddr)
	}

	// Public group: request logger + access log
	pub := r.Group("/")
	pub.Use(mw.RequestLoggerMiddleware(log), mw.AccessLogMiddleware())
	handlers.RegisterHealthRoutes(pub, cfg)
	docs.SwaggerInfo.BasePath = "/"
	pub.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Webhook ingress. No auth: authenticity is established by the ITN
	// pipeline itself (signature, source IP, remote echo).
	webhook := r.Group("/webhook")
	webhook.Use(mw.RequestLoggerMiddleware(log), mw.AccessLogMiddleware())
	handlers.RegisterWebhookRoutes(webhook, itnHandler, log)

	// Storefront APIs
	apiV1 := r.Group("/api/v1")
	apiV1.Use(mw.RequestLoggerMiddleware(log), mw.AccessLogMiddleware())
	handlers.RegisterCheckoutRoutes(apiV1, builder, cfg)

	// Admin APIs behind JWT
	admin := apiV1.Group("/admin")
	admin.Use(mw.AdminAuthMiddleware(cfg.PayFast.AdminJWTSecret))
	handlers.RegisterAdminRoutes(admin, nl, orders, renewals, subs)
}

func runServer(lc fx.Lifecycle, log *zap.SugaredLogger, cfg *cfgpkg.Config, r *gin.Engine) {
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{Addr: addr, Handler: r, ReadHeaderTimeout: 5 * time.Second}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Infow("starting HTTP server", "addr", addr)
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Errorf("server error: %v", err)
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Infow("stopping HTTP server")
			shutdownCtx, cancel := context.WithTimeout(ctx, 120*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

var Module = fx.Options(
	fx.Provide(newEngine),
	fx.Invoke(registerRoutes),
	fx.Invoke(runServer),
)
