package order

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/mzansipay/payfast-gateway/internal/models"
	"github.com/mzansipay/payfast-gateway/pkg/logctx"
	"github.com/mzansipay/payfast-gateway/pkg/tool"
	"github.com/mzansipay/payfast-gateway/pkg/types"
)

// Service is the order store. Status transitions that settle a payment use
// conditional updates so duplicate ITN deliveries for the same order cannot
// apply twice, even when processed concurrently.
type Service struct {
	db  *gorm.DB
	log *zap.SugaredLogger
}

func New(db *gorm.DB, log *zap.SugaredLogger) *Service {
	return &Service{db: db, log: log}
}

func (s *Service) Get(ctx context.Context, id string) (*models.Order, error) {
	var o models.Order
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&o).Error; err != nil {
		return nil, fmt.Errorf("failed to load order %s: %w", id, err)
	}
	return &o, nil
}

// MarkPaid settles an order: status, provider transaction id and the fee/net
// amounts reported by the provider. Returns false without touching the row
// when the order is already paid.
func (s *Service) MarkPaid(ctx context.Context, id, pfPaymentID string, fee, net *float64) (bool, error) {
	res := s.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND status NOT IN ?", id, []types.OrderStatus{types.OrderStatusProcessing, types.OrderStatusCompleted}).
		Updates(map[string]any{
			"status":         types.OrderStatusProcessing,
			"transaction_id": pfPaymentID,
			"amount_fee":     fee,
			"amount_net":     net,
		})
	if res.Error != nil {
		return false, fmt.Errorf("failed to mark order %s paid: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		logctx.FromCtx(ctx, s.log).Infow("order_already_paid", "order_id", id)
		return false, nil
	}
	return true, nil
}

// UpdateStatus moves an order to status and appends an audit note.
func (s *Service) UpdateStatus(ctx context.Context, id string, status types.OrderStatus, note string) error {
	if err := s.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ?", id).
		Update("status", status).Error; err != nil {
		return fmt.Errorf("failed to update order %s status: %w", id, err)
	}
	if note != "" {
		return s.AddNote(ctx, id, note)
	}
	return nil
}

func (s *Service) AddNote(ctx context.Context, id, note string) error {
	n := &models.OrderNote{ID: tool.GenerateUUIDV7(), OrderID: id, Note: note}
	if err := s.db.WithContext(ctx).Create(n).Error; err != nil {
		return fmt.Errorf("failed to add note to order %s: %w", id, err)
	}
	return nil
}

// SetPreOrderState stores the legacy pre-order capture token and the
// fee-paid marker.
func (s *Service) SetPreOrderState(ctx context.Context, id, token string, feePaid bool) error {
	if err := s.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ?", id).
		Updates(map[string]any{"pre_order_token": token, "pre_order_fee_paid": feePaid}).Error; err != nil {
		return fmt.Errorf("failed to set pre-order state on order %s: %w", id, err)
	}
	return nil
}

// NextRenewalOrder returns the earliest renewal order of a subscription still
// waiting on payment, if any.
func (s *Service) NextRenewalOrder(ctx context.Context, subscriptionID string) (*models.Order, error) {
	var o models.Order
	err := s.db.WithContext(ctx).
		Where("subscription_id = ? AND status IN ?", subscriptionID,
			[]types.OrderStatus{types.OrderStatusPending, types.OrderStatusOnHold, types.OrderStatusFailed}).
		Order("created_at asc").
		First(&o).Error
	if err != nil {
		return nil, fmt.Errorf("no chargeable renewal order for subscription %s: %w", subscriptionID, err)
	}
	return &o, nil
}
