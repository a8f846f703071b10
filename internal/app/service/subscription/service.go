package subscription

import (
	"context"
	"errors"
	"fmt"

	"github.com/samber/lo"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/mzansipay/payfast-gateway/internal/models"
	"github.com/mzansipay/payfast-gateway/internal/platform/payfast"
	"github.com/mzansipay/payfast-gateway/pkg/logctx"
	"github.com/mzansipay/payfast-gateway/pkg/tool"
	"github.com/mzansipay/payfast-gateway/pkg/types"
)

// Service is the subscription store plus the cancel listener. It is the sole
// writer of the PayFast token and renewal flag columns.
type Service struct {
	db     *gorm.DB
	client *payfast.Client
	log    *zap.SugaredLogger
}

func New(db *gorm.DB, client *payfast.Client, log *zap.SugaredLogger) *Service {
	return &Service{db: db, client: client, log: log}
}

func (s *Service) Get(ctx context.Context, id string) (*models.Subscription, error) {
	var sub models.Subscription
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&sub).Error; err != nil {
		return nil, fmt.Errorf("failed to load subscription %s: %w", id, err)
	}
	return &sub, nil
}

// ByParentOrder returns the subscription whose sign-up order is orderID, or
// nil when the order created none.
func (s *Service) ByParentOrder(ctx context.Context, orderID string) (*models.Subscription, error) {
	var sub models.Subscription
	err := s.db.WithContext(ctx).Where("parent_order_id = ?", orderID).First(&sub).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load subscription for order %s: %w", orderID, err)
	}
	return &sub, nil
}

// ForOrder returns every subscription linked to an order: those the order
// signed up, plus the one a renewal order belongs to.
func (s *Service) ForOrder(ctx context.Context, orderID string) ([]*models.Subscription, error) {
	var subs []*models.Subscription
	if err := s.db.WithContext(ctx).Where("parent_order_id = ?", orderID).Find(&subs).Error; err != nil {
		return nil, fmt.Errorf("failed to load subscriptions for order %s: %w", orderID, err)
	}

	var o models.Order
	err := s.db.WithContext(ctx).Select("subscription_id").Where("id = ?", orderID).First(&o).Error
	if err == nil && o.SubscriptionID != nil {
		renewalSub, err := s.Get(ctx, *o.SubscriptionID)
		if err == nil {
			subs = append(subs, renewalSub)
		}
	}

	return lo.UniqBy(subs, func(sub *models.Subscription) string { return sub.ID }), nil
}

func (s *Service) SetToken(ctx context.Context, id, token string) error {
	return s.updateColumns(ctx, id, map[string]any{"payfast_token": token})
}

func (s *Service) DeleteToken(ctx context.Context, id string) error {
	return s.updateColumns(ctx, id, map[string]any{"payfast_token": nil})
}

func (s *Service) SetRenewalFlag(ctx context.Context, id string) error {
	return s.updateColumns(ctx, id, map[string]any{"payfast_renewal_flag": true})
}

func (s *Service) ClearRenewalFlag(ctx context.Context, id string) error {
	return s.updateColumns(ctx, id, map[string]any{"payfast_renewal_flag": false})
}

// MarkCancelled cancels the subscription locally without calling the
// provider. The ITN cancelled path uses this: the merchant already cancelled
// on the provider side, so a cancel API call would be redundant.
func (s *Service) MarkCancelled(ctx context.Context, id, note string) error {
	logctx.FromCtx(ctx, s.log).Infow("subscription_cancelled", "subscription_id", id, "note", note)
	return s.updateColumns(ctx, id, map[string]any{"status": types.SubscriptionStatusCancelled})
}

// CancelRemoteToken asks the provider to cancel the stored token. No-op when
// the subscription holds none.
func (s *Service) CancelRemoteToken(ctx context.Context, sub *models.Subscription) error {
	if !sub.HasToken() {
		return nil
	}
	return s.client.CancelToken(ctx, sub.TokenValue())
}

// HandlePaymentMethodChanged reacts to the subscription switching away to a
// different gateway: the token is cancelled remotely and dropped locally.
func (s *Service) HandlePaymentMethodChanged(ctx context.Context, id, newPaymentMethod string) error {
	sub, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if !sub.HasToken() || newPaymentMethod == payfast.GatewayID {
		return nil
	}
	if err := s.CancelRemoteToken(ctx, sub); err != nil {
		return err
	}
	if err := s.DeleteToken(ctx, id); err != nil {
		return err
	}
	s.OrderNote(ctx, sub, "Payment method changed away from PayFast; token cancelled.")
	logctx.FromCtx(ctx, s.log).Infow("subscription_token_cancelled", "subscription_id", id, "new_method", newPaymentMethod)
	return nil
}

// OrderNote appends an audit note on the subscription's sign-up order.
func (s *Service) OrderNote(ctx context.Context, sub *models.Subscription, note string) {
	n := &models.OrderNote{ID: tool.GenerateUUIDV7(), OrderID: sub.ParentOrderID, Note: note}
	if err := s.db.WithContext(ctx).Create(n).Error; err != nil {
		logctx.FromCtx(ctx, s.log).Errorf("failed to add subscription note: %v", err)
	}
}

func (s *Service) updateColumns(ctx context.Context, id string, cols map[string]any) error {
	if err := s.db.WithContext(ctx).Model(&models.Subscription{}).Where("id = ?", id).Updates(cols).Error; err != nil {
		return fmt.Errorf("failed to update subscription %s: %w", id, err)
	}
	return nil
}
