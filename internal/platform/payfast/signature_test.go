package payfast

import (
	"crypto/md5"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParameterString_SortedMatchesCanonicalForm(t *testing.T) {
	d := NewData().
		Set("merchant_id", "10000100").
		Set("amount", "100.00").
		Set("item_name", "Test Product")

	got := ParameterString(d, true, true, "secret")
	require.Equal(t, "amount=100.00&item_name=Test+Product&merchant_id=10000100&passphrase=secret", got)
}

func TestSign_SortedInvariantUnderPermutation(t *testing.T) {
	a := NewData().Set("merchant_id", "10000100").Set("amount", "100.00").Set("item_name", "Box")
	b := NewData().Set("item_name", "Box").Set("amount", "100.00").Set("merchant_id", "10000100")

	require.Equal(t, Sign(a, true, true, "secret"), Sign(b, true, true, "secret"))
}

func TestSign_UnsortedDependsOnInsertionOrder(t *testing.T) {
	a := NewData().Set("merchant_id", "10000100").Set("amount", "100.00")
	b := NewData().Set("amount", "100.00").Set("merchant_id", "10000100")

	require.NotEqual(t, Sign(a, false, false, "secret"), Sign(b, false, false, "secret"))
}

func TestParameterString_UnsortedAppendsPassphraseRaw(t *testing.T) {
	d := NewData().Set("m_payment_id", "42").Set("amount_gross", "100.00")

	got := ParameterString(d, false, false, "pass phrase")
	require.Equal(t, "m_payment_id=42&amount_gross=100.00&passphrase=pass+phrase", got)
}

func TestParameterString_SignatureFieldExcluded(t *testing.T) {
	d := NewData().Set("merchant_id", "10000100").Set("signature", "deadbeef")

	require.Equal(t, "merchant_id=10000100", ParameterString(d, true, true, ""))
	require.NotContains(t, ParameterString(d, false, false, ""), "deadbeef")
}

func TestParameterString_SkipEmptyOnlyWhenAsked(t *testing.T) {
	d := NewData().Set("merchant_id", "10000100").Set("name_last", "")

	require.Equal(t, "merchant_id=10000100", ParameterString(d, true, true, ""))
	require.Equal(t, "merchant_id=10000100&name_last=", ParameterString(d, false, false, ""))
}

func TestEncode_PHPCompatible(t *testing.T) {
	require.Equal(t, "a+b", encode("a b"))
	require.Equal(t, "%7E", encode("~"))
	require.Equal(t, "caf%C3%A9", encode("café"))
}

func TestSign_MatchesDirectDigest(t *testing.T) {
	d := NewData().Set("merchant_id", "10000100").Set("amount", "25.50")

	sum := md5.Sum([]byte("amount=25.50&merchant_id=10000100&passphrase=secret"))
	require.Equal(t, hex.EncodeToString(sum[:]), Sign(d, true, true, "secret"))
}

func TestSign_RoundTripStable(t *testing.T) {
	d := NewData().Set("merchant_id", "10000100").Set("amount", "100.00").Set("item_name", "Box")
	first := Sign(d, true, true, "secret")

	reparsed, err := ParseITN(ParameterString(d, true, true, ""))
	require.NoError(t, err)
	require.Equal(t, first, Sign(reparsed, true, true, "secret"))
}
