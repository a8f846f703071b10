package itn

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestErrorKind_Messages(t *testing.T) {
	require.Equal(t, "Security signature mismatch", ErrorKindInvalidSignature.Message())
	require.Equal(t, "Bad source IP address", ErrorKindBadSourceIP.Message())
	require.Equal(t, "Bad access of page", ErrorKindBadAccess.Message())
	require.Equal(t, "Amount mismatch", ErrorKindAmountMismatch.Message())
	require.Equal(t, "Session ID mismatch", ErrorKindSessionIDMismatch.Message())
	require.Equal(t, "This order ID is invalid", ErrorKindOrderInvalid.Message())
	require.Equal(t, "Unknown error occurred", ErrorKind(99).Message())
}

func TestValidationError_ErrorIncludesDiagnostics(t *testing.T) {
	err := &ValidationError{Kind: ErrorKindAmountMismatch, Received: "1.00", Expected: "100.00"}
	require.Contains(t, err.Error(), "Amount mismatch")
	require.Contains(t, err.Error(), `"1.00"`)
	require.Contains(t, err.Error(), `"100.00"`)

	bare := &ValidationError{Kind: ErrorKindBadAccess}
	require.Equal(t, "Bad access of page", bare.Error())
}
