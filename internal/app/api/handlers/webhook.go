package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mzansipay/payfast-gateway/internal/app/service/itn"
	"github.com/mzansipay/payfast-gateway/pkg/logctx"
)

// maxITNBodyBytes caps the webhook body read; ITN payloads are small forms.
const maxITNBodyBytes = 1 << 20

// @Summary      PayFast ITN Webhook
// @Description  Handles PayFast Instant Transaction Notifications. Always responds 200 OK; validation outcomes are internal.
// @Tags         Webhook
// @Accept       x-www-form-urlencoded
// @Produce      plain
// @Success      200  {string}  string  "OK"
// @Router       /webhook/payfast [post]
// ApiPayFastWebhook ingests ITN deliveries.
func ApiPayFastWebhook(h *itn.Handler, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxITNBodyBytes))
		if err != nil {
			logctx.FromGin(c, log).Errorw("webhook_payfast_body_read_error", "error", err.Error())
			c.String(http.StatusOK, "OK")
			return
		}

		logctx.FromGin(c, log).Infow("webhook_payfast_received", "bytes", len(body))

		// The provider retries on anything but 200, and a retry of a payload
		// we already rejected will be rejected again. Absorb everything.
		if err := h.Process(c.Request.Context(), string(body), c.RemoteIP(), c.GetHeader("X-Forwarded-For")); err != nil {
			logctx.FromGin(c, log).Warnw("webhook_payfast_not_applied", "error", err.Error())
		}
		c.String(http.StatusOK, "OK")
	}
}

func RegisterWebhookRoutes(r gin.IRouter, h *itn.Handler, log *zap.SugaredLogger) {
	r.POST("/payfast", ApiPayFastWebhook(h, log))
}
