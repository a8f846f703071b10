package checkout

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/mzansipay/payfast-gateway/internal/app/service/order"
	"github.com/mzansipay/payfast-gateway/internal/app/service/subscription"
	"github.com/mzansipay/payfast-gateway/internal/models"
	"github.com/mzansipay/payfast-gateway/internal/platform/payfast"
	"github.com/mzansipay/payfast-gateway/pkg/config"
	"github.com/mzansipay/payfast-gateway/pkg/logctx"
	"github.com/mzansipay/payfast-gateway/pkg/types"
)

// adHocSubscriptionType requests a tokenized (ad-hoc) payment so the stored
// token can be charged again later.
const adHocSubscriptionType = "2"

// Transform mutates the payment data bundle before it is signed. Transforms
// run in registration order.
type Transform func(data *payfast.Data, o *models.Order)

// Redirect is everything the storefront needs to auto-submit the shopper to
// the hosted payment page.
type Redirect struct {
	URL       string          `json:"url"`
	Fields    []payfast.Field `json:"fields"`
	Signature string          `json:"signature"`
}

// Builder assembles signed checkout redirects.
type Builder struct {
	cfg        *config.Config
	orders     *order.Service
	subs       *subscription.Service
	transforms []Transform
	log        *zap.SugaredLogger
}

func New(cfg *config.Config, orders *order.Service, subs *subscription.Service, log *zap.SugaredLogger) *Builder {
	return &Builder{cfg: cfg, orders: orders, subs: subs, log: log}
}

// RegisterTransform appends a pre-sign transform.
func (b *Builder) RegisterTransform(fn Transform) {
	b.transforms = append(b.transforms, fn)
}

// BuildRedirect loads the order and produces the signed field bundle for the
// hosted payment page.
func (b *Builder) BuildRedirect(ctx context.Context, orderID string) (*Redirect, error) {
	o, err := b.orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return b.build(ctx, o)
}

func (b *Builder) build(ctx context.Context, o *models.Order) (*Redirect, error) {
	pf := b.cfg.PayFast
	data := payfast.NewData().
		Set("merchant_id", pf.MerchantID).
		Set("merchant_key", pf.MerchantKey).
		Set("return_url", b.cfg.URLs.Return).
		Set("cancel_url", b.cfg.URLs.Cancel).
		Set("notify_url", b.cfg.URLs.Notify).
		Set("name_first", o.BillingFirstName).
		Set("name_last", o.BillingLastName).
		Set("email_address", o.BillingEmail).
		Set("m_payment_id", strings.TrimPrefix(o.Number, "#")).
		Set("amount", formatAmount(o.Total)).
		Set("item_name", b.cfg.Store.Name+" - "+o.Number).
		Set("item_description", fmt.Sprintf("New order from %s", b.cfg.Store.Name)).
		Set("custom_str1", o.OrderKey).
		Set("custom_str2", b.cfg.Store.URL).
		Set("custom_str3", o.ID).
		Set("source", "PayFast-Gateway-Service")

	if o.IsSubscription || o.ContainsSubscription {
		data.Set("subscription_type", adHocSubscriptionType)
	}

	// A renewal order usually charges through the stored token, never through
	// checkout. When it lands here anyway, the subscription either needs its
	// token rotated or was last paid through another gateway; both cases need
	// a fresh token, so the redirect asks for tokenization and the old token
	// is cancelled once the resulting ITN completes.
	if o.SubscriptionID != nil {
		sub, err := b.subs.Get(ctx, *o.SubscriptionID)
		if err != nil {
			logctx.FromCtx(ctx, b.log).Warnw("checkout_renewal_subscription_missing", "order_id", o.ID, "err", err)
		} else if sub.RenewalFlag || sub.PaymentMethod != payfast.GatewayID {
			data.Set("subscription_type", adHocSubscriptionType)
		}
	}

	// Legacy pre-order tokenization: only the upfront fee is charged at
	// checkout, the balance is captured later against the stored token.
	if b.cfg.PayFast.EnablePreOrders && o.ContainsPreOrder && !o.PreOrderFeePaid {
		data.Set("amount", formatAmount(o.PreOrderFee))
		data.Set("subscription_type", adHocSubscriptionType)
	}

	for _, fn := range b.transforms {
		fn(data, o)
	}

	// The source field rides on the form but stays out of the signature.
	toSign := data.Clone()
	toSign.Delete("source")
	sig := payfast.Sign(toSign, true, true, pf.Passphrase)
	data.Set("signature", sig)

	return &Redirect{
		URL:       payfast.ProcessURL(pf.Sandbox),
		Fields:    data.Fields(),
		Signature: sig,
	}, nil
}

// PaymentMethod returns the storefront payload describing the gateway,
// including whether it may currently be offered.
func (b *Builder) PaymentMethod() types.PaymentMethod {
	supports := types.SupportedFeatures
	if b.cfg.PayFast.EnablePreOrders {
		supports = append(append([]string{}, supports...), "pre-orders")
	}
	return types.PaymentMethod{
		ID:          payfast.GatewayID,
		Title:       b.cfg.PayFast.Title,
		Description: b.cfg.PayFast.Description,
		IconURL:     b.cfg.PayFast.IconURL,
		Available:   b.cfg.Available(),
		Supports:    supports,
	}
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
