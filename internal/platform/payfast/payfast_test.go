package payfast

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAmountsEqual_WithinEpsilon(t *testing.T) {
	require.True(t, AmountsEqual(100.00, 100.0099))
	require.True(t, AmountsEqual(100.0099, 100.00))
	require.True(t, AmountsEqual(100.00, 100.00))
}

func TestAmountsEqual_BoundaryIsEqual(t *testing.T) {
	// non-strict comparison: a difference of exactly one cent still matches
	require.True(t, AmountsEqual(100.00, 100.01))
}

func TestAmountsEqual_BeyondEpsilon(t *testing.T) {
	require.False(t, AmountsEqual(100.00, 100.02))
	require.False(t, AmountsEqual(100.00, 99.98))
}

func TestProcessURL_SwitchesOnSandbox(t *testing.T) {
	require.Equal(t, "https://www.payfast.co.za/eng/process", ProcessURL(false))
	require.Equal(t, "https://sandbox.payfast.co.za/eng/process", ProcessURL(true))
}

func TestValidateURL_SwitchesOnSandbox(t *testing.T) {
	require.Equal(t, "https://www.payfast.co.za/eng/query/validate", ValidateURL(false))
	require.Equal(t, "https://sandbox.payfast.co.za/eng/query/validate", ValidateURL(true))
}
