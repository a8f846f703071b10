package itn

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/mzansipay/payfast-gateway/internal/models"
	"github.com/mzansipay/payfast-gateway/internal/platform/payfast"
	"github.com/mzansipay/payfast-gateway/pkg/config"
	"github.com/mzansipay/payfast-gateway/pkg/logctx"
	"github.com/mzansipay/payfast-gateway/pkg/metrics"
	"github.com/mzansipay/payfast-gateway/pkg/types"
)

// OrderStore is what the reconciliation pipeline needs from the order store.
type OrderStore interface {
	Get(ctx context.Context, id string) (*models.Order, error)
	MarkPaid(ctx context.Context, id, pfPaymentID string, fee, net *float64) (bool, error)
	UpdateStatus(ctx context.Context, id string, status types.OrderStatus, note string) error
	AddNote(ctx context.Context, id, note string) error
	SetPreOrderState(ctx context.Context, id, token string, feePaid bool) error
}

// SubscriptionStore is what the pipeline needs from the subscription store.
type SubscriptionStore interface {
	ForOrder(ctx context.Context, orderID string) ([]*models.Subscription, error)
	ByParentOrder(ctx context.Context, orderID string) (*models.Subscription, error)
	SetToken(ctx context.Context, id, token string) error
	DeleteToken(ctx context.Context, id string) error
	SetRenewalFlag(ctx context.Context, id string) error
	ClearRenewalFlag(ctx context.Context, id string) error
	MarkCancelled(ctx context.Context, id, note string) error
	CancelRemoteToken(ctx context.Context, sub *models.Subscription) error
}

// EchoConfirmer re-validates a payload with the provider.
type EchoConfirmer interface {
	Confirm(ctx context.Context, payload url.Values) bool
}

// SourceChecker validates the caller's address.
type SourceChecker interface {
	IsValidSource(ctx context.Context, sourceIP, forwardedFor string) bool
}

// TokenAPI is the slice of the provider API used directly by the pipeline.
type TokenAPI interface {
	CancelToken(ctx context.Context, token string) error
}

// DebugMailer sends diagnostic emails to the administrator.
type DebugMailer interface {
	SendDebugEmail(ctx context.Context, subject, body string)
}

// NotificationRecorder persists the ITN audit trail.
type NotificationRecorder interface {
	Save(ctx context.Context, row *models.ItnNotificationLog)
}

// CompleteHook runs after a payment-complete notification has been applied.
type CompleteHook func(ctx context.Context, data *payfast.Data, order *models.Order, subs []*models.Subscription)

// Handler drives the ITN reconciliation pipeline. Every check failure is
// absorbed here; the webhook transport always acknowledges with 200 OK so
// provider retries are never confused with application errors.
type Handler struct {
	cfg      *config.Config
	orders   OrderStore
	subs     SubscriptionStore
	echo     EchoConfirmer
	source   SourceChecker
	api      TokenAPI
	mail     DebugMailer
	recorder NotificationRecorder
	metrics  *metrics.Metrics
	log      *zap.SugaredLogger

	completeHooks []CompleteHook
}

func NewHandler(
	cfg *config.Config,
	orders OrderStore,
	subs SubscriptionStore,
	echo EchoConfirmer,
	source SourceChecker,
	api TokenAPI,
	mail DebugMailer,
	recorder NotificationRecorder,
	m *metrics.Metrics,
	log *zap.SugaredLogger,
) *Handler {
	return &Handler{
		cfg:      cfg,
		orders:   orders,
		subs:     subs,
		echo:     echo,
		source:   source,
		api:      api,
		mail:     mail,
		recorder: recorder,
		metrics:  m,
		log:      log,
	}
}

// RegisterCompleteHook appends a hook invoked after successful completion
// handling. Hooks are an explicit registration point, not an event bus.
func (h *Handler) RegisterCompleteHook(fn CompleteHook) {
	h.completeHooks = append(h.completeHooks, fn)
}

// Process runs one notification through the pipeline. The returned error is
// for logging only; the HTTP layer must acknowledge regardless.
func (h *Handler) Process(ctx context.Context, rawBody, sourceIP, forwardedFor string) error {
	if h.metrics != nil {
		h.metrics.ItnReceived.Inc()
	}

	data, err := payfast.ParseITN(rawBody)
	if err != nil {
		logctx.FromCtx(ctx, h.log).Warnw("itn_unparseable_payload", "err", err)
		h.sendErrorEmail(ctx, nil, nil, &ValidationError{Kind: ErrorKindBadAccess}, sourceIP)
		h.recordOutcome(ctx, nil, sourceIP, "error:bad_access", err)
		if h.metrics != nil {
			h.metrics.ItnOutcome.WithLabelValues("error:bad_access").Inc()
		}
		return err
	}

	h.record(ctx, data, sourceIP, models.ItnNotificationLogStatusReceived, nil)

	outcome, err := h.reconcile(ctx, data, sourceIP, forwardedFor)
	h.recordOutcome(ctx, data, sourceIP, outcome, err)
	if h.metrics != nil {
		h.metrics.ItnOutcome.WithLabelValues(outcome).Inc()
	}
	return err
}

// reconcile applies the verification pipeline strictly in order,
// short-circuiting on the first failure.
func (h *Handler) reconcile(ctx context.Context, data *payfast.Data, sourceIP, forwardedFor string) (string, error) {
	log := logctx.FromCtx(ctx, h.log)
	pf := h.cfg.PayFast

	// 1. Signature, over the fields exactly as the provider sent them.
	expected := payfast.Sign(data, false, false, pf.Passphrase)
	if data.Get("signature") != expected {
		return h.reject(ctx, data, nil, &ValidationError{Kind: ErrorKindInvalidSignature}, sourceIP)
	}

	// 2. Source IP, skipped in sandbox mode.
	if !pf.Sandbox && !h.source.IsValidSource(ctx, sourceIP, forwardedFor) {
		return h.reject(ctx, data, nil, &ValidationError{Kind: ErrorKindBadSourceIP}, sourceIP)
	}

	// 3. Remote echo check, payload minus the signature field.
	echoPayload := data.Clone()
	echoPayload.Delete("signature")
	if !h.echo.Confirm(ctx, echoPayload.Values()) {
		return h.reject(ctx, data, nil, &ValidationError{Kind: ErrorKindBadAccess}, sourceIP)
	}

	// 4. Resolve the target order; a renewal_order_id embedded in the item
	// description redirects resolution to the renewal order.
	original, err := h.orders.Get(ctx, data.Get("custom_str3"))
	if err != nil {
		outcome, _ := h.reject(ctx, data, nil, &ValidationError{Kind: ErrorKindOrderInvalid, Received: data.Get("custom_str3")}, sourceIP)
		return outcome, err
	}
	resolved := original
	if rid := renewalOrderID(data.Get("item_description")); rid != "" {
		if ro, err := h.orders.Get(ctx, rid); err == nil {
			resolved = ro
		} else {
			log.Warnw("itn_renewal_order_missing", "renewal_order_id", rid, "err", err)
		}
	}

	// 5. Amount and session checks. The amount check does not apply to
	// subscription and pre-order sign-ups, whose charged amount legitimately
	// differs from the order total.
	gross := parseAmount(data.Get("amount_gross"))
	if !payfast.AmountsEqual(gross, resolved.Total) &&
		!original.ContainsPreOrder && !original.ContainsSubscription && !original.IsSubscription {
		return h.reject(ctx, data, original, &ValidationError{
			Kind:     ErrorKindAmountMismatch,
			Received: data.Get("amount_gross"),
			Expected: strconv.FormatFloat(resolved.Total, 'f', 2, 64),
		}, sourceIP)
	}
	if !strings.EqualFold(data.Get("custom_str1"), original.OrderKey) {
		return h.reject(ctx, data, original, &ValidationError{
			Kind:     ErrorKindSessionIDMismatch,
			Received: data.Get("custom_str1"),
			Expected: original.OrderKey,
		}, sourceIP)
	}

	// 6. Idempotency: a completed order is a no-op, never an error.
	if resolved.Status == types.OrderStatusCompleted {
		log.Infow("itn_order_already_processed", "order_id", resolved.ID)
		return "skip", nil
	}

	// 7. Re-verify the order key against the original order one more time
	// before any mutation. This failure is a silent stop: no email, no
	// mutation. Whether the original's asymmetry here is hardening or an
	// oversight is unresolved; the behavior is preserved.
	if original.OrderKey != data.Get("custom_str1") {
		log.Warnw("itn_order_key_recheck_failed", "order_id", original.ID)
		return "aborted", nil
	}

	status := types.PaymentStatus(strings.ToLower(data.Get("payment_status")))

	// 8. Change-payment-method: a zero-amount notification for a
	// subscription order only replaces the token. This must run before any
	// status dispatch; a R0 method change would fail amount matching against
	// any non-zero total otherwise.
	if original.IsSubscription && gross == 0 {
		return h.handleMethodChange(ctx, data, original, status)
	}

	subs, err := h.subs.ForOrder(ctx, original.ID)
	if err != nil {
		return "error:subscriptions", err
	}

	// 9. A non-terminal status flags every linked subscription so the next
	// completion rotates the token instead of reusing it.
	if !status.Terminal() {
		for _, sub := range subs {
			if err := h.subs.SetRenewalFlag(ctx, sub.ID); err != nil {
				log.Errorw("itn_set_renewal_flag_failed", "subscription_id", sub.ID, "err", err)
			}
		}
	}

	switch status {
	case types.PaymentStatusComplete:
		return "completed", h.handleComplete(ctx, data, original, resolved, subs)
	case types.PaymentStatusFailed:
		return "failed", h.handleFailed(ctx, data, resolved)
	case types.PaymentStatusPending:
		return "pending", h.handlePending(ctx, data, resolved)
	case types.PaymentStatusCancelled:
		return "cancelled", h.handleCancelled(ctx, subs)
	default:
		// Unknown statuses are never forwarded downstream.
		log.Warnw("itn_unknown_payment_status", "payment_status", data.Get("payment_status"))
		return "ignored", nil
	}
}

// handleMethodChange stores the new token for a zero-amount payment-method
// change, cancelling the previous one first, and returns without dispatching
// on payment_status.
func (h *Handler) handleMethodChange(ctx context.Context, data *payfast.Data, order *models.Order, status types.PaymentStatus) (string, error) {
	log := logctx.FromCtx(ctx, h.log)
	token := data.Get("token")
	if status != types.PaymentStatusComplete || token == "" {
		return "method_change", nil
	}

	sub, err := h.subs.ByParentOrder(ctx, order.ID)
	if err != nil {
		return "error:method_change", err
	}
	if sub == nil {
		log.Warnw("itn_method_change_without_subscription", "order_id", order.ID)
		return "method_change", nil
	}

	if sub.HasToken() {
		if err := h.subs.CancelRemoteToken(ctx, sub); err != nil {
			log.Errorw("itn_cancel_old_token_failed", "subscription_id", sub.ID, "err", err)
		}
	}
	if err := h.subs.SetToken(ctx, sub.ID, token); err != nil {
		return "error:method_change", err
	}
	log.Infow("itn_token_updated", "subscription_id", sub.ID)
	return "method_change", nil
}

func (h *Handler) handleComplete(ctx context.Context, data *payfast.Data, original, resolved *models.Order, subs []*models.Subscription) error {
	log := logctx.FromCtx(ctx, h.log)
	if err := h.orders.AddNote(ctx, resolved.ID, "ITN payment completed"); err != nil {
		log.Errorw("itn_note_failed", "order_id", resolved.ID, "err", err)
	}

	fee := parseAmountPtr(data.Get("amount_fee"))
	net := parseAmountPtr(data.Get("amount_net"))
	token := data.Get("token")

	// Token rotation: if a renewal went out with a fresh token, the old one
	// is cancelled before the new one is stored. All linked subscriptions
	// share one token, so only the first needs the cancel call.
	if len(subs) > 0 && token != "" {
		if subs[0].RenewalFlag && subs[0].HasToken() {
			log.Infow("itn_cancel_previous_token", "subscription_id", subs[0].ID)
			if err := h.subs.CancelRemoteToken(ctx, subs[0]); err != nil {
				log.Errorw("itn_cancel_previous_token_failed", "subscription_id", subs[0].ID, "err", err)
			}
		}
		for _, sub := range subs {
			if err := h.subs.ClearRenewalFlag(ctx, sub.ID); err != nil {
				log.Errorw("itn_clear_renewal_flag_failed", "subscription_id", sub.ID, "err", err)
			}
			if err := h.subs.SetToken(ctx, sub.ID, token); err != nil {
				log.Errorw("itn_set_token_failed", "subscription_id", sub.ID, "err", err)
			}
		}
	}

	if h.cfg.PayFast.EnablePreOrders && original.ContainsPreOrder {
		if err := h.completePreOrder(ctx, data, original, token); err != nil {
			return err
		}
	} else {
		if _, err := h.orders.MarkPaid(ctx, resolved.ID, data.Get("pf_payment_id"), fee, net); err != nil {
			return err
		}
	}

	h.sendCompleteEmail(ctx, data, resolved)

	for _, fn := range h.completeHooks {
		fn(ctx, data, resolved, subs)
	}
	return nil
}

// completePreOrder handles the deprecated tokenized pre-order flow: the
// first completion pays only the pre-order fee and parks the token, the
// second settles the remainder and retires the token.
func (h *Handler) completePreOrder(ctx context.Context, data *payfast.Data, order *models.Order, token string) error {
	log := logctx.FromCtx(ctx, h.log)
	if !order.PreOrderFeePaid {
		note := fmt.Sprintf("PayFast pre-order fee paid: R %s (%s)", data.Get("amount_gross"), data.Get("pf_payment_id"))
		if err := h.orders.AddNote(ctx, order.ID, note); err != nil {
			log.Errorw("itn_note_failed", "order_id", order.ID, "err", err)
		}
		if err := h.orders.SetPreOrderState(ctx, order.ID, token, true); err != nil {
			return err
		}
		return h.orders.UpdateStatus(ctx, order.ID, types.OrderStatusOnHold, "Order marked as pre-ordered.")
	}

	note := fmt.Sprintf("PayFast pre-order product line total paid: R %s (%s)", data.Get("amount_gross"), data.Get("pf_payment_id"))
	if err := h.orders.AddNote(ctx, order.ID, note); err != nil {
		log.Errorw("itn_note_failed", "order_id", order.ID, "err", err)
	}
	if _, err := h.orders.MarkPaid(ctx, order.ID, data.Get("pf_payment_id"), nil, nil); err != nil {
		return err
	}
	if token != "" {
		if err := h.api.CancelToken(ctx, token); err != nil {
			log.Errorw("itn_pre_order_token_cancel_failed", "order_id", order.ID, "err", err)
		}
	}
	return nil
}

func (h *Handler) handleFailed(ctx context.Context, data *payfast.Data, order *models.Order) error {
	note := fmt.Sprintf("Payment %s via ITN.", strings.ToLower(data.Get("payment_status")))
	if err := h.orders.UpdateStatus(ctx, order.ID, types.OrderStatusFailed, note); err != nil {
		return err
	}

	body := fmt.Sprintf(
		"Hi,\n\nA failed PayFast transaction on your website requires attention\n"+
			"------------------------------------------------------------\n"+
			"Site: %s (%s)\nPurchase ID: %s\nPayFast Transaction ID: %s\nPayFast Payment Status: %s\n",
		h.cfg.Store.Name, h.cfg.Store.URL, order.ID, data.Get("pf_payment_id"), data.Get("payment_status"))
	h.mail.SendDebugEmail(ctx, "PayFast ITN Transaction on your site", body)
	return nil
}

func (h *Handler) handlePending(ctx context.Context, data *payfast.Data, order *models.Order) error {
	// Wait for a Completed notification before processing.
	note := fmt.Sprintf("Payment %s via ITN.", strings.ToLower(data.Get("payment_status")))
	return h.orders.UpdateStatus(ctx, order.ID, types.OrderStatusOnHold, note)
}

// handleCancelled cancels every linked subscription that isn't already and
// deletes its token. The cancel API listener stays out of this path: the
// merchant cancelled on the provider side, there is nothing left to cancel
// remotely.
func (h *Handler) handleCancelled(ctx context.Context, subs []*models.Subscription) error {
	log := logctx.FromCtx(ctx, h.log)
	for _, sub := range subs {
		if sub.Status == types.SubscriptionStatusCancelled {
			continue
		}
		if err := h.subs.MarkCancelled(ctx, sub.ID, "Merchant cancelled subscription on PayFast."); err != nil {
			log.Errorw("itn_cancel_subscription_failed", "subscription_id", sub.ID, "err", err)
			continue
		}
		if err := h.subs.DeleteToken(ctx, sub.ID); err != nil {
			log.Errorw("itn_delete_token_failed", "subscription_id", sub.ID, "err", err)
		}
	}
	return nil
}

// reject logs a validation failure, sends the debug email and maps the error
// to an outcome label.
func (h *Handler) reject(ctx context.Context, data *payfast.Data, order *models.Order, vErr *ValidationError, sourceIP string) (string, error) {
	logctx.FromCtx(ctx, h.log).Warnw("itn_rejected", "kind", vErr.Kind.Message(), "received", vErr.Received, "expected", vErr.Expected)
	h.sendErrorEmail(ctx, data, order, vErr, sourceIP)
	return "error:" + outcomeLabel(vErr.Kind), vErr
}

func (h *Handler) sendErrorEmail(ctx context.Context, data *payfast.Data, order *models.Order, vErr *ValidationError, sourceIP string) {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi,\n\nAn invalid PayFast transaction on your website requires attention\n")
	fmt.Fprintf(&b, "------------------------------------------------------------\n")
	fmt.Fprintf(&b, "Site: %s (%s)\n", h.cfg.Store.Name, h.cfg.Store.URL)
	fmt.Fprintf(&b, "Remote IP Address: %s\n", sourceIP)
	if order != nil {
		fmt.Fprintf(&b, "Purchase ID: %s\nUser ID: %s\n", order.ID, order.CustomerID)
	}
	if data != nil {
		if v := data.Get("pf_payment_id"); v != "" {
			fmt.Fprintf(&b, "PayFast Transaction ID: %s\n", v)
		}
		if v := data.Get("payment_status"); v != "" {
			fmt.Fprintf(&b, "PayFast Payment Status: %s\n", v)
		}
	}
	fmt.Fprintf(&b, "\nError: %s\n", vErr.Kind.Message())
	if vErr.Received != "" || vErr.Expected != "" {
		fmt.Fprintf(&b, "Value received : %s\nValue should be: %s\n", vErr.Received, vErr.Expected)
	}
	h.mail.SendDebugEmail(ctx, "PayFast ITN error: "+vErr.Kind.Message(), b.String())
}

func (h *Handler) sendCompleteEmail(ctx context.Context, data *payfast.Data, order *models.Order) {
	body := fmt.Sprintf(
		"Hi,\n\nA PayFast transaction has been completed on your website\n"+
			"------------------------------------------------------------\n"+
			"Site: %s (%s)\nPurchase ID: %s\nPayFast Transaction ID: %s\nPayFast Payment Status: %s\nOrder Status Code: %s",
		h.cfg.Store.Name, h.cfg.Store.URL, data.Get("m_payment_id"), data.Get("pf_payment_id"),
		data.Get("payment_status"), string(types.OrderStatusProcessing))
	h.mail.SendDebugEmail(ctx, "PayFast ITN on your site", body)
}

func (h *Handler) record(ctx context.Context, data *payfast.Data, sourceIP string, status models.ItnNotificationLogStatus, result map[string]any) {
	if h.recorder == nil {
		return
	}
	row := &models.ItnNotificationLog{
		SourceIP: sourceIP,
		Status:   status,
	}
	if tid, ok := ctx.Value("traceID").(string); ok {
		row.TraceID = tid
	}
	if data != nil {
		if v := data.Get("custom_str3"); v != "" {
			row.OrderID = &v
		}
		row.PfPaymentID = data.Get("pf_payment_id")
		row.PaymentStatus = data.Get("payment_status")
		payload, _ := json.Marshal(data.Values())
		row.Data = datatypes.JSON(payload)
	}
	if result != nil {
		res, _ := json.Marshal(result)
		j := datatypes.JSON(res)
		row.Result = &j
	}
	h.recorder.Save(ctx, row)
}

func (h *Handler) recordOutcome(ctx context.Context, data *payfast.Data, sourceIP, outcome string, err error) {
	status := models.ItnNotificationLogStatusHandled
	result := map[string]any{"outcome": outcome}
	if err != nil {
		status = models.ItnNotificationLogStatusHandleFailed
		result["error"] = err.Error()
	}
	h.record(ctx, data, sourceIP, status, result)
}

func outcomeLabel(k ErrorKind) string {
	switch k {
	case ErrorKindInvalidSignature:
		return "invalid_signature"
	case ErrorKindBadSourceIP:
		return "bad_source_ip"
	case ErrorKindBadAccess:
		return "bad_access"
	case ErrorKindAmountMismatch:
		return "amount_mismatch"
	case ErrorKindSessionIDMismatch:
		return "session_id_mismatch"
	case ErrorKindOrderInvalid:
		return "order_invalid"
	default:
		return "unknown"
	}
}

// renewalOrderID extracts renewal_order_id from an item_description that may
// carry a JSON object. Plain-text descriptions return "".
func renewalOrderID(desc string) string {
	desc = strings.TrimSpace(desc)
	if desc == "" || !strings.HasPrefix(desc, "{") {
		return ""
	}
	var parsed struct {
		RenewalOrderID any `json:"renewal_order_id"`
	}
	if err := json.Unmarshal([]byte(desc), &parsed); err != nil {
		return ""
	}
	switch v := parsed.RenewalOrderID.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatInt(int64(v), 10)
	default:
		return ""
	}
}

func parseAmount(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return f
}

func parseAmountPtr(s string) *float64 {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	f := parseAmount(s)
	return &f
}
