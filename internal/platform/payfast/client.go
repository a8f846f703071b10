package payfast

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mzansipay/payfast-gateway/pkg/config"
	"github.com/mzansipay/payfast-gateway/pkg/metrics"
)

const (
	apiTimeout = 45 * time.Second
	apiVersion = "v1"

	CommandAdHoc  = "adhoc"
	CommandCancel = "cancel"
)

// ErrEmptyToken is returned before any HTTP call when no token is supplied.
var ErrEmptyToken = errors.New("cannot submit a PayFast API request with an empty token")

// APIError is a failure reported by the subscriptions API, either at the
// transport level or inside a 200 response body.
type APIError struct {
	Code   string
	Reason string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("payfast api error %s: %s", e.Code, e.Reason)
}

// sast is the provider's timezone; request timestamps carry its offset.
var sast = time.FixedZone("SAST", 2*60*60)

// Client talks to the PayFast subscriptions API for token (ad-hoc) charges
// and cancellations. Failures are returned to the caller as typed errors and
// never retried here; retry policy belongs to the caller.
type Client struct {
	http       *resty.Client
	baseURL    string
	merchantID string
	passphrase string
	sandbox    bool
	now        func() time.Time
	metrics    *metrics.Metrics
	log        *zap.SugaredLogger
}

func NewClient(cfg *config.Config, m *metrics.Metrics, log *zap.SugaredLogger) *Client {
	return &Client{
		http: resty.New().
			SetTimeout(apiTimeout).
			SetHeader("User-Agent", UserAgent),
		baseURL:    apiBase,
		merchantID: cfg.PayFast.MerchantID,
		passphrase: cfg.PayFast.Passphrase,
		sandbox:    cfg.PayFast.Sandbox,
		now:        time.Now,
		metrics:    m,
		log:        log,
	}
}

// SubmitAdHocPayment charges amount (in rand) against a stored token. The
// API wants integer minor-currency units, so the amount is converted through
// decimal rather than float multiplication.
func (c *Client) SubmitAdHocPayment(ctx context.Context, token string, amount float64, itemName, itemDescription string) error {
	cents := decimal.NewFromFloat(amount).Mul(decimal.NewFromInt(100)).Round(0).IntPart()
	body := map[string]string{
		"amount":           strconv.FormatInt(cents, 10),
		"item_name":        itemName,
		"item_description": itemDescription,
	}
	return c.Request(ctx, CommandAdHoc, token, body, http.MethodPost)
}

// CancelToken cancels a stored token so it can no longer be charged.
func (c *Client) CancelToken(ctx context.Context, token string) error {
	return c.Request(ctx, CommandCancel, token, nil, http.MethodPut)
}

// Request signs and sends one subscriptions API call.
func (c *Client) Request(ctx context.Context, command, token string, body map[string]string, method string) error {
	err := c.request(ctx, command, token, body, method)
	if c.metrics != nil {
		result := "ok"
		if err != nil {
			result = "error"
		}
		c.metrics.APICallResult.WithLabelValues(command, result).Inc()
	}
	return err
}

func (c *Client) request(ctx context.Context, command, token string, body map[string]string, method string) error {
	if token == "" {
		c.log.Errorw("payfast_api_empty_token", "command", command)
		return ErrEmptyToken
	}

	endpoint := fmt.Sprintf("%s/subscriptions/%s/%s", c.baseURL, token, command)
	if c.sandbox {
		endpoint += "?testing=true"
	}

	headers := map[string]string{
		"merchant-id": c.merchantID,
		"timestamp":   c.now().In(sast).Format(time.RFC3339),
		"version":     apiVersion,
	}

	// The signature covers headers and body merged, sorted, empty values
	// skipped. The content-length header below is excluded: the provider's
	// canonicalization drops zero values.
	signed := NewData()
	for k, v := range headers {
		signed.Set(k, v)
	}
	for k, v := range body {
		signed.Set(k, v)
	}
	headers["signature"] = Sign(signed, true, true, c.passphrase)

	// Bodyless cancels 411 without an explicit zero content length.
	if command == CommandCancel && len(body) == 0 {
		headers["content-length"] = "0"
	}

	req := c.http.R().SetContext(ctx).SetHeaders(headers)
	if len(body) > 0 {
		req.SetFormData(body)
	}

	resp, err := req.Execute(strings.ToUpper(method), endpoint)
	if err != nil {
		c.log.Errorw("payfast_api_request_failed", "command", command, "err", err)
		return &APIError{Code: "connect_failed", Reason: err.Error()}
	}

	var parsed map[string]any
	_ = json.Unmarshal(resp.Body(), &parsed)

	if resp.StatusCode() != http.StatusOK {
		c.log.Errorw("payfast_api_bad_status", "command", command, "status", resp.StatusCode(), "body", string(resp.Body()))
		return &APIError{
			Code:   strconv.Itoa(resp.StatusCode()),
			Reason: nestedString(parsed, "data", "response"),
		}
	}

	// The success encoding differs per environment: sandbox returns boolean
	// true, production the string "true", and failures arrive either as a
	// nested {code, reason} object or as flat code/message fields.
	if command == CommandAdHoc {
		data, _ := parsed["data"].(map[string]any)
		response := data["response"]
		if response != true && response != "true" {
			c.log.Errorw("payfast_api_adhoc_rejected", "body", string(resp.Body()))
			if nested, ok := response.(map[string]any); ok {
				return &APIError{
					Code:   stringify(nested["code"]),
					Reason: strings.TrimSpace(stringify(nested["reason"])),
				}
			}
			return &APIError{
				Code:   stringify(response),
				Reason: strings.TrimSpace(stringify(data["message"])),
			}
		}
	}

	if status, ok := parsed["status"].(string); ok && status == "failed" {
		c.log.Errorw("payfast_api_failed_status", "command", command, "body", string(resp.Body()))
		return &APIError{
			Code:   stringify(parsed["code"]),
			Reason: strings.TrimSpace(nestedString(parsed, "data", "message")),
		}
	}

	return nil
}

func nestedString(m map[string]any, keys ...string) string {
	cur := any(m)
	for _, k := range keys {
		asMap, ok := cur.(map[string]any)
		if !ok {
			return ""
		}
		cur = asMap[k]
	}
	return stringify(cur)
}

// stringify renders scalar JSON values without a float suffix for whole
// numbers (error codes decode as float64).
func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		if t == float64(int64(t)) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}
