package types

// PaymentMethod is the data contract the storefront needs to render the
// PayFast option at checkout.
type PaymentMethod struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	IconURL     string   `json:"icon_url"`
	Available   bool     `json:"available"`
	Supports    []string `json:"supports"`
}

// SupportedFeatures is what the gateway can handle. Pre-orders are appended
// only when the legacy pre-order flow is enabled.
var SupportedFeatures = []string{
	"products",
	"subscriptions",
	"subscription_cancellation",
	"subscription_suspension",
	"subscription_reactivation",
	"subscription_amount_changes",
	"subscription_date_changes",
	"subscription_payment_method_change",
	"subscription_payment_method_change_customer",
}
