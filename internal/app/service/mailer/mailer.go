package mailer

import (
	"context"
	"fmt"
	"net/smtp"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/mzansipay/payfast-gateway/pkg/config"
	"github.com/mzansipay/payfast-gateway/pkg/logctx"
)

// Service delivers diagnostic emails to the shop administrator. Failures are
// logged and swallowed; a broken mail relay must never affect ITN handling.
type Service struct {
	cfg *config.Config
	log *zap.SugaredLogger
}

func New(cfg *config.Config, log *zap.SugaredLogger) *Service {
	return &Service{cfg: cfg, log: log}
}

// SendDebugEmail sends subject/body to the configured debug address when
// debug emails are enabled. No-op otherwise.
func (s *Service) SendDebugEmail(ctx context.Context, subject, body string) {
	if !s.cfg.PayFast.SendDebugEmail || s.cfg.PayFast.DebugEmail == "" {
		return
	}
	if s.cfg.SMTP.Host == "" {
		logctx.FromCtx(ctx, s.log).Warnw("debug_email_skipped_no_smtp", "subject", subject)
		return
	}

	to := s.cfg.PayFast.DebugEmail
	from := s.cfg.SMTP.From
	msg := []byte(fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s", from, to, subject, body))
	addr := s.cfg.SMTP.Host + ":" + s.cfg.SMTP.Port

	go func() {
		if err := smtp.SendMail(addr, nil, from, []string{to}, msg); err != nil {
			s.log.Errorw("debug_email_send_failed", "subject", subject, "err", err)
		}
	}()
}

// Module exposes the mailer via Fx.
var Module = fx.Options(
	fx.Provide(New),
)
