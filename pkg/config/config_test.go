package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func liveConfig() *Config {
	return &Config{
		Store: StoreConfig{Currency: "ZAR"},
		PayFast: PayFastConfig{
			Enabled:     true,
			MerchantID:  "10000100",
			MerchantKey: "46f0cd694581a",
			Passphrase:  "secret",
			Currencies:  []string{"ZAR"},
		},
	}
}

func TestRequirementErrors_NoneWhenFullyConfigured(t *testing.T) {
	require.Empty(t, liveConfig().RequirementErrors())
}

func TestRequirementErrors_CurrencyNotSupported(t *testing.T) {
	c := liveConfig()
	c.Store.Currency = "USD"
	require.Contains(t, c.RequirementErrors(), "store currency is not supported by PayFast")
}

func TestRequirementErrors_CredentialsRequiredOutsideSandbox(t *testing.T) {
	c := liveConfig()
	c.PayFast.MerchantID = ""
	c.PayFast.MerchantKey = ""
	c.PayFast.Passphrase = ""
	require.Len(t, c.RequirementErrors(), 3)
}

func TestRequirementErrors_SandboxNeedsNoCredentials(t *testing.T) {
	c := liveConfig()
	c.PayFast.Sandbox = true
	c.PayFast.MerchantID = ""
	c.PayFast.MerchantKey = ""
	c.PayFast.Passphrase = ""
	require.Empty(t, c.RequirementErrors())
}

func TestAvailable(t *testing.T) {
	c := liveConfig()
	require.True(t, c.Available())

	c.PayFast.Enabled = false
	require.False(t, c.Available())

	c.PayFast.Enabled = true
	c.Store.Currency = "USD"
	require.False(t, c.Available())
}
