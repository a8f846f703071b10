package checkout

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mzansipay/payfast-gateway/internal/models"
	"github.com/mzansipay/payfast-gateway/internal/platform/payfast"
	"github.com/mzansipay/payfast-gateway/pkg/config"
	"github.com/mzansipay/payfast-gateway/pkg/types"
)

func testConfig() *config.Config {
	return &config.Config{
		Store: config.StoreConfig{Name: "Test Store", URL: "https://shop.example", Currency: "ZAR"},
		URLs: config.URLConfig{
			Return: "https://shop.example/return",
			Cancel: "https://shop.example/cancel",
			Notify: "https://shop.example/webhook/payfast",
		},
		PayFast: config.PayFastConfig{
			Enabled:     true,
			Title:       "PayFast",
			Description: "Pay with PayFast",
			Sandbox:     true,
			MerchantID:  "10000100",
			MerchantKey: "46f0cd694581a",
			Passphrase:  "secret",
			Currencies:  []string{"ZAR"},
		},
	}
}

func checkoutOrder() *models.Order {
	return &models.Order{
		ID:               "ord-1",
		Number:           "#1001",
		OrderKey:         "wc_order_abc",
		BillingFirstName: "Thandi",
		BillingLastName:  "Nkosi",
		BillingEmail:     "thandi@example.com",
		Total:            149.90,
		Currency:         "ZAR",
		Status:           types.OrderStatusPending,
	}
}

func newTestBuilder(cfg *config.Config) *Builder {
	return New(cfg, nil, nil, zap.NewNop().Sugar())
}

func fieldMap(fields []payfast.Field) map[string]string {
	m := map[string]string{}
	for _, f := range fields {
		m[f.Key] = f.Value
	}
	return m
}

func TestBuild_PopulatesMerchantAndOrderFields(t *testing.T) {
	b := newTestBuilder(testConfig())

	r, err := b.build(context.Background(), checkoutOrder())
	require.NoError(t, err)

	m := fieldMap(r.Fields)
	require.Equal(t, "10000100", m["merchant_id"])
	require.Equal(t, "46f0cd694581a", m["merchant_key"])
	require.Equal(t, "https://shop.example/webhook/payfast", m["notify_url"])
	require.Equal(t, "Thandi", m["name_first"])
	require.Equal(t, "1001", m["m_payment_id"]) // leading # stripped
	require.Equal(t, "149.90", m["amount"])
	require.Equal(t, "wc_order_abc", m["custom_str1"])
	require.Equal(t, "ord-1", m["custom_str3"])
	require.Equal(t, "https://sandbox.payfast.co.za/eng/process", r.URL)

	// merchant_id leads, signature closes
	require.Equal(t, "merchant_id", r.Fields[0].Key)
	require.Equal(t, "signature", r.Fields[len(r.Fields)-1].Key)
}

func TestBuild_SignatureExcludesSourceField(t *testing.T) {
	b := newTestBuilder(testConfig())

	r, err := b.build(context.Background(), checkoutOrder())
	require.NoError(t, err)

	expected := payfast.NewData()
	for _, f := range r.Fields {
		if f.Key == "source" || f.Key == "signature" {
			continue
		}
		expected.Set(f.Key, f.Value)
	}
	require.Equal(t, payfast.Sign(expected, true, true, "secret"), r.Signature)
	require.NotEmpty(t, fieldMap(r.Fields)["source"])
}

func TestBuild_NoSubscriptionTypeForPlainOrder(t *testing.T) {
	b := newTestBuilder(testConfig())

	r, err := b.build(context.Background(), checkoutOrder())
	require.NoError(t, err)
	require.NotContains(t, fieldMap(r.Fields), "subscription_type")
}

func TestBuild_SubscriptionOrdersRequestTokenization(t *testing.T) {
	b := newTestBuilder(testConfig())

	o := checkoutOrder()
	o.IsSubscription = true
	r, err := b.build(context.Background(), o)
	require.NoError(t, err)
	require.Equal(t, "2", fieldMap(r.Fields)["subscription_type"])

	o = checkoutOrder()
	o.ContainsSubscription = true
	r, err = b.build(context.Background(), o)
	require.NoError(t, err)
	require.Equal(t, "2", fieldMap(r.Fields)["subscription_type"])
}

func TestBuild_PreOrderChargesFeeOnly(t *testing.T) {
	cfg := testConfig()
	cfg.PayFast.EnablePreOrders = true
	b := newTestBuilder(cfg)

	o := checkoutOrder()
	o.ContainsPreOrder = true
	o.PreOrderFee = 20.00

	r, err := b.build(context.Background(), o)
	require.NoError(t, err)

	m := fieldMap(r.Fields)
	require.Equal(t, "20.00", m["amount"])
	require.Equal(t, "2", m["subscription_type"])
}

func TestBuild_TransformsRunBeforeSigning(t *testing.T) {
	b := newTestBuilder(testConfig())
	b.RegisterTransform(func(data *payfast.Data, _ *models.Order) {
		data.Set("custom_str4", "injected")
	})

	r, err := b.build(context.Background(), checkoutOrder())
	require.NoError(t, err)

	m := fieldMap(r.Fields)
	require.Equal(t, "injected", m["custom_str4"])

	// the transform's field participates in the signature
	expected := payfast.NewData()
	for _, f := range r.Fields {
		if f.Key == "source" || f.Key == "signature" {
			continue
		}
		expected.Set(f.Key, f.Value)
	}
	require.Equal(t, payfast.Sign(expected, true, true, "secret"), r.Signature)
}

func TestPaymentMethod_ReflectsAvailability(t *testing.T) {
	cfg := testConfig()
	b := newTestBuilder(cfg)

	pm := b.PaymentMethod()
	require.Equal(t, "payfast", pm.ID)
	require.Equal(t, "PayFast", pm.Title)
	require.True(t, pm.Available)
	require.Contains(t, pm.Supports, "subscriptions")
	require.NotContains(t, pm.Supports, "pre-orders")

	cfg.PayFast.Enabled = false
	require.False(t, b.PaymentMethod().Available)
}

func TestPaymentMethod_PreOrderSupportBehindFlag(t *testing.T) {
	cfg := testConfig()
	cfg.PayFast.EnablePreOrders = true
	b := newTestBuilder(cfg)

	require.Contains(t, b.PaymentMethod().Supports, "pre-orders")
}
