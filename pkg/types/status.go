package types

// OrderStatus mirrors the storefront order lifecycle. The gateway only ever
// moves orders between these states; it never invents new ones.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusOnHold     OrderStatus = "on-hold"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusCompleted  OrderStatus = "completed"
	OrderStatusFailed     OrderStatus = "failed"
	OrderStatusCancelled  OrderStatus = "cancelled"
	OrderStatusRefunded   OrderStatus = "refunded"
)

// Paid reports whether the order has already been paid for.
func (s OrderStatus) Paid() bool {
	return s == OrderStatusProcessing || s == OrderStatusCompleted
}

type SubscriptionStatus string

const (
	SubscriptionStatusActive    SubscriptionStatus = "active"
	SubscriptionStatusOnHold    SubscriptionStatus = "on-hold"
	SubscriptionStatusCancelled SubscriptionStatus = "cancelled"
	SubscriptionStatusExpired   SubscriptionStatus = "expired"
)

// PaymentStatus is the payment_status field of an ITN payload, lower-cased.
// Anything outside this set is never dispatched.
type PaymentStatus string

const (
	PaymentStatusComplete  PaymentStatus = "complete"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCancelled PaymentStatus = "cancelled"
)

// Terminal reports whether a later ITN can still change the outcome. Renewal
// flags are only set for non-terminal statuses.
func (s PaymentStatus) Terminal() bool {
	return s == PaymentStatusComplete || s == PaymentStatusCancelled
}
