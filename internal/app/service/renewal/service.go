package renewal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/mzansipay/payfast-gateway/internal/app/service/order"
	"github.com/mzansipay/payfast-gateway/internal/app/service/subscription"
	"github.com/mzansipay/payfast-gateway/internal/models"
	"github.com/mzansipay/payfast-gateway/internal/platform/payfast"
	"github.com/mzansipay/payfast-gateway/pkg/config"
	"github.com/mzansipay/payfast-gateway/pkg/logctx"
	"github.com/mzansipay/payfast-gateway/pkg/types"
)

// ErrNoToken means the subscription has no stored PayFast token to charge.
var ErrNoToken = errors.New("subscription has no payment token")

// Service submits scheduled charges against stored tokens: subscription
// renewals, and the balance capture for tokenized pre-orders. The charge is
// asynchronous on the provider side; the outcome arrives later via ITN.
type Service struct {
	cfg    *config.Config
	orders *order.Service
	subs   *subscription.Service
	client *payfast.Client
	log    *zap.SugaredLogger
}

func New(cfg *config.Config, orders *order.Service, subs *subscription.Service, client *payfast.Client, log *zap.SugaredLogger) *Service {
	return &Service{cfg: cfg, orders: orders, subs: subs, client: client, log: log}
}

// ChargeRenewal charges the next unpaid renewal order of a subscription.
// The renewal order id rides inside item_description so the ITN for this
// charge can be routed back to the right order.
func (s *Service) ChargeRenewal(ctx context.Context, subscriptionID string) (*models.Order, error) {
	log := logctx.FromCtx(ctx, s.log)

	sub, err := s.subs.Get(ctx, subscriptionID)
	if err != nil {
		return nil, err
	}
	if !sub.HasToken() {
		return nil, ErrNoToken
	}

	renewalOrder, err := s.orders.NextRenewalOrder(ctx, subscriptionID)
	if err != nil {
		return nil, err
	}

	desc, _ := json.Marshal(map[string]string{"renewal_order_id": renewalOrder.ID})
	itemName := fmt.Sprintf("%s - Order %s", s.cfg.Store.Name, renewalOrder.Number)

	err = s.client.SubmitAdHocPayment(ctx, sub.TokenValue(), renewalOrder.Total, itemName, string(desc))
	if err != nil {
		var apiErr *payfast.APIError
		note := fmt.Sprintf("PayFast renewal payment failed: %s", err.Error())
		if errors.As(err, &apiErr) {
			note = fmt.Sprintf("PayFast renewal payment failed (%s:%s)", apiErr.Code, apiErr.Reason)
		}
		if uerr := s.orders.UpdateStatus(ctx, renewalOrder.ID, types.OrderStatusFailed, note); uerr != nil {
			log.Errorw("renewal_mark_failed_error", "order_id", renewalOrder.ID, "err", uerr)
		}
		return renewalOrder, err
	}

	if nerr := s.orders.AddNote(ctx, renewalOrder.ID, "PayFast renewal transaction submitted."); nerr != nil {
		log.Errorw("renewal_note_failed", "order_id", renewalOrder.ID, "err", nerr)
	}
	log.Infow("renewal_charge_submitted", "subscription_id", subscriptionID, "order_id", renewalOrder.ID, "amount", renewalOrder.Total)
	return renewalOrder, nil
}

// CapturePreOrder charges the outstanding balance of a tokenized pre-order
// when the product releases. Disabled unless pre-order support is on.
func (s *Service) CapturePreOrder(ctx context.Context, orderID string) error {
	if !s.cfg.PayFast.EnablePreOrders {
		return errors.New("pre-order support is disabled")
	}

	o, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return err
	}
	if !o.ContainsPreOrder || o.PreOrderToken == nil || *o.PreOrderToken == "" {
		return ErrNoToken
	}
	if !o.PreOrderFeePaid {
		return fmt.Errorf("pre-order fee not yet paid for order %s", orderID)
	}

	remaining := o.Total - o.PreOrderFee
	if remaining <= 0 {
		return fmt.Errorf("no outstanding balance on pre-order %s", orderID)
	}

	itemName := fmt.Sprintf("%s - Pre-order %s", s.cfg.Store.Name, o.Number)
	err = s.client.SubmitAdHocPayment(ctx, *o.PreOrderToken, remaining, itemName, "")
	if err != nil {
		var apiErr *payfast.APIError
		note := fmt.Sprintf("PayFast pre-order capture failed: %s", err.Error())
		if errors.As(err, &apiErr) {
			note = fmt.Sprintf("PayFast pre-order capture failed (%s:%s)", apiErr.Code, apiErr.Reason)
		}
		if uerr := s.orders.UpdateStatus(ctx, orderID, types.OrderStatusFailed, note); uerr != nil {
			logctx.FromCtx(ctx, s.log).Errorw("pre_order_mark_failed_error", "order_id", orderID, "err", uerr)
		}
		return err
	}

	if nerr := s.orders.AddNote(ctx, orderID, "PayFast pre-order capture submitted."); nerr != nil {
		logctx.FromCtx(ctx, s.log).Errorw("pre_order_note_failed", "order_id", orderID, "err", nerr)
	}
	return nil
}
