package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mzansipay/payfast-gateway/internal/app/service/itn"
	"github.com/mzansipay/payfast-gateway/pkg/config"
)

type stubMailer struct{ sent int }

func (s *stubMailer) SendDebugEmail(_ context.Context, _, _ string) { s.sent++ }

func webhookRouter(h *itn.Handler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	RegisterWebhookRoutes(r.Group("/webhook"), h, zap.NewNop().Sugar())
	return r
}

func stubHandler() *itn.Handler {
	cfg := &config.Config{
		Store:   config.StoreConfig{Name: "Test Store", URL: "https://shop.example"},
		PayFast: config.PayFastConfig{Passphrase: "secret", Sandbox: true},
	}
	// nil stores: the bodies below fail validation before any store access
	return itn.NewHandler(cfg, nil, nil, nil, nil, nil, &stubMailer{}, nil, nil, zap.NewNop().Sugar())
}

func TestWebhook_Returns200OnEmptyBody(t *testing.T) {
	r := webhookRouter(stubHandler())

	req := httptest.NewRequest(http.MethodPost, "/webhook/payfast", strings.NewReader(""))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "OK", w.Body.String())
}

func TestWebhook_Returns200OnRejectedPayload(t *testing.T) {
	r := webhookRouter(stubHandler())

	body := "m_payment_id=1&signature=not-a-real-signature"
	req := httptest.NewRequest(http.MethodPost, "/webhook/payfast", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "OK", w.Body.String())
}
