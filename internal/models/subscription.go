package models

import (
	"time"

	"gorm.io/datatypes"

	"github.com/mzansipay/payfast-gateway/pkg/types"
)

// Subscription carries the PayFast ad-hoc token and the renewal flag. The ITN
// pipeline is the only writer of those two columns.
type Subscription struct {
	ID            string                   `gorm:"column:id;type:uuid;primary_key" json:"id"`
	ParentOrderID string                   `gorm:"column:parent_order_id;type:uuid;not null;index" json:"parent_order_id"`
	CustomerID    string                   `gorm:"column:customer_id;type:varchar(64)" json:"customer_id"`
	Status        types.SubscriptionStatus `gorm:"column:status;type:varchar(32);not null" json:"status"`

	// Token is the PayFast subscription (ad-hoc) token. A subscription never
	// holds more than one active token.
	Token *string `gorm:"column:payfast_token;type:varchar(64)" json:"token"`
	// RenewalFlag marks that the token must be rotated on the next completed
	// payment because an intervening attempt went out with a fresh token.
	RenewalFlag bool `gorm:"column:payfast_renewal_flag;not null;default:false" json:"renewal_flag"`

	// PaymentMethod is the storefront gateway id currently attached to the
	// subscription; token charges only make sense while it is ours.
	PaymentMethod string `gorm:"column:payment_method;type:varchar(64);not null" json:"payment_method"`

	NextPaymentAt *time.Time     `gorm:"column:next_payment_at;default:null" json:"next_payment_at"`
	Extra         datatypes.JSON `gorm:"column:extra;type:jsonb;default:'{}'" json:"extra"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

func (Subscription) TableName() string { return "gateway_subscription" }

// HasToken reports whether a provider token is stored.
func (s *Subscription) HasToken() bool {
	return s != nil && s.Token != nil && *s.Token != ""
}

// TokenValue returns the stored token or the empty string.
func (s *Subscription) TokenValue() string {
	if !s.HasToken() {
		return ""
	}
	return *s.Token
}
