package models

import (
	"time"

	"gorm.io/datatypes"

	"github.com/mzansipay/payfast-gateway/pkg/types"
)

// Order is the storefront order as the gateway sees it. The gateway mutates
// status, the PayFast fee/net amounts and the legacy pre-order token; the
// rest is owned by the storefront.
type Order struct {
	ID       string `gorm:"column:id;type:uuid;primary_key" json:"id"`
	Number   string `gorm:"column:number;type:varchar(64);not null;uniqueIndex" json:"number"`
	OrderKey string `gorm:"column:order_key;type:varchar(64);not null" json:"order_key"`

	CustomerID       string `gorm:"column:customer_id;type:varchar(64)" json:"customer_id"`
	BillingFirstName string `gorm:"column:billing_first_name;type:varchar(128)" json:"billing_first_name"`
	BillingLastName  string `gorm:"column:billing_last_name;type:varchar(128)" json:"billing_last_name"`
	BillingEmail     string `gorm:"column:billing_email;type:varchar(256)" json:"billing_email"`

	Total    float64           `gorm:"column:total;type:numeric(18,2);not null" json:"total"`
	Currency string            `gorm:"column:currency;type:varchar(8);not null" json:"currency"`
	Status   types.OrderStatus `gorm:"column:status;type:varchar(32);not null" json:"status"`

	// TransactionID is PayFast's pf_payment_id, set when payment completes.
	TransactionID *string  `gorm:"column:transaction_id;type:varchar(64)" json:"transaction_id"`
	AmountFee     *float64 `gorm:"column:amount_fee;type:numeric(18,2)" json:"amount_fee"`
	AmountNet     *float64 `gorm:"column:amount_net;type:numeric(18,2)" json:"amount_net"`

	// SubscriptionID links a renewal order back to its subscription.
	SubscriptionID *string `gorm:"column:subscription_id;type:uuid;index" json:"subscription_id"`
	// IsSubscription marks an order that represents a subscription sign-up or
	// a payment-method change for one.
	IsSubscription       bool `gorm:"column:is_subscription;not null;default:false" json:"is_subscription"`
	ContainsSubscription bool `gorm:"column:contains_subscription;not null;default:false" json:"contains_subscription"`

	// Legacy pre-order tokenization fields.
	ContainsPreOrder bool    `gorm:"column:contains_pre_order;not null;default:false" json:"contains_pre_order"`
	PreOrderFee      float64 `gorm:"column:pre_order_fee;type:numeric(18,2);not null;default:0" json:"pre_order_fee"`
	PreOrderToken    *string `gorm:"column:pre_order_token;type:varchar(64)" json:"pre_order_token"`
	PreOrderFeePaid  bool    `gorm:"column:pre_order_fee_paid;not null;default:false" json:"pre_order_fee_paid"`

	ItemName  string         `gorm:"column:item_name;type:varchar(256)" json:"item_name"`
	Extra     datatypes.JSON `gorm:"column:extra;type:jsonb;default:'{}'" json:"extra"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

func (Order) TableName() string { return "gateway_order" }

// Paid reports whether the order has already been paid.
func (o *Order) Paid() bool {
	return o != nil && o.Status.Paid()
}

// OrderNote is an audit note appended to an order.
type OrderNote struct {
	ID        string    `gorm:"column:id;type:uuid;primary_key" json:"id"`
	OrderID   string    `gorm:"column:order_id;type:uuid;not null;index" json:"order_id"`
	Note      string    `gorm:"column:note;type:text;not null" json:"note"`
	CreatedAt time.Time `json:"created_at"`
}

func (OrderNote) TableName() string { return "gateway_order_note" }
