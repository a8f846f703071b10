package payfast

import (
	"context"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// echoTimeout matches the provider's worst observed validation latency.
const echoTimeout = 70 * time.Second

// EchoValidator performs the double-submit check: the inbound payload is
// posted back to the provider's validation endpoint, which echoes VALID only
// for notifications it actually issued. A correct signature alone is not
// proof of authenticity.
type EchoValidator struct {
	client      *resty.Client
	validateURL string
	log         *zap.SugaredLogger
}

func NewEchoValidator(sandbox bool, log *zap.SugaredLogger) *EchoValidator {
	return &EchoValidator{
		client: resty.New().
			SetTimeout(echoTimeout).
			SetHeader("User-Agent", UserAgent),
		validateURL: ValidateURL(sandbox),
		log:         log,
	}
}

// Confirm re-posts payload (the caller strips the signature field) and
// reports whether the response carries a key literally named VALID. Any
// transport error, non-2xx status or empty body counts as not confirmed.
func (e *EchoValidator) Confirm(ctx context.Context, payload url.Values) bool {
	if len(payload) == 0 {
		return false
	}

	resp, err := e.client.R().
		SetContext(ctx).
		SetFormDataFromValues(payload).
		Post(e.validateURL)
	if err != nil {
		e.log.Warnw("itn_echo_request_failed", "err", err)
		return false
	}
	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		e.log.Warnw("itn_echo_bad_status", "status", resp.StatusCode())
		return false
	}
	body := string(resp.Body())
	if body == "" {
		return false
	}

	parsed, err := url.ParseQuery(body)
	if err != nil {
		e.log.Warnw("itn_echo_unparseable_body", "err", err)
		return false
	}
	_, ok := parsed["VALID"]
	return ok
}
