package payfast

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseITN_PreservesFieldOrder(t *testing.T) {
	d, err := ParseITN("m_payment_id=42&pf_payment_id=999&payment_status=COMPLETE&amount_gross=100.00")
	require.NoError(t, err)

	fields := d.Fields()
	require.Len(t, fields, 4)
	require.Equal(t, "m_payment_id", fields[0].Key)
	require.Equal(t, "pf_payment_id", fields[1].Key)
	require.Equal(t, "payment_status", fields[2].Key)
	require.Equal(t, "amount_gross", fields[3].Key)
}

func TestParseITN_DecodesValues(t *testing.T) {
	d, err := ParseITN("item_name=My+Store+-+Order+%2342&email_address=jo%40example.com")
	require.NoError(t, err)
	require.Equal(t, "My Store - Order #42", d.Get("item_name"))
	require.Equal(t, "jo@example.com", d.Get("email_address"))
}

func TestParseITN_FirstOccurrenceWins(t *testing.T) {
	d, err := ParseITN("amount_gross=100.00&amount_gross=1.00")
	require.NoError(t, err)
	require.Equal(t, "100.00", d.Get("amount_gross"))
	require.Equal(t, 1, d.Len())
}

func TestParseITN_RejectsEmptyBody(t *testing.T) {
	_, err := ParseITN("")
	require.Error(t, err)

	_, err = ParseITN("   ")
	require.Error(t, err)
}

func TestParseITN_RejectsMalformedEscapes(t *testing.T) {
	_, err := ParseITN("amount=%zz")
	require.Error(t, err)
}

func TestData_SetReplacesInPlace(t *testing.T) {
	d := NewData().Set("a", "1").Set("b", "2").Set("a", "3")
	require.Equal(t, "3", d.Get("a"))
	require.Equal(t, 2, d.Len())
	require.Equal(t, "a", d.Fields()[0].Key)
}

func TestData_CloneIsIndependent(t *testing.T) {
	d := NewData().Set("a", "1")
	c := d.Clone()
	c.Set("a", "2")
	c.Delete("a")

	require.Equal(t, "1", d.Get("a"))
	require.True(t, d.Has("a"))
	require.False(t, c.Has("a"))
}
