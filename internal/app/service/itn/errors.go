package itn

import "fmt"

// ErrorKind enumerates the ITN validation failures. The set mirrors the
// provider integration guide's error taxonomy; messages are resolved through
// a lookup built once instead of ambient globals.
type ErrorKind int

const (
	ErrorKindInvalidSignature ErrorKind = iota + 1
	ErrorKindBadSourceIP
	ErrorKindBadAccess
	ErrorKindAmountMismatch
	ErrorKindSessionIDMismatch
	ErrorKindOrderInvalid
)

var kindMessages = map[ErrorKind]string{
	ErrorKindInvalidSignature:  "Security signature mismatch",
	ErrorKindBadSourceIP:       "Bad source IP address",
	ErrorKindBadAccess:         "Bad access of page",
	ErrorKindAmountMismatch:    "Amount mismatch",
	ErrorKindSessionIDMismatch: "Session ID mismatch",
	ErrorKindOrderInvalid:      "This order ID is invalid",
}

// Message returns the administrator-facing message for the kind.
func (k ErrorKind) Message() string {
	if msg, ok := kindMessages[k]; ok {
		return msg
	}
	return "Unknown error occurred"
}

func (k ErrorKind) String() string { return k.Message() }

// ValidationError is a rejected notification. Received/Expected carry the
// diagnostic context for mismatch kinds.
type ValidationError struct {
	Kind     ErrorKind
	Received string
	Expected string
}

func (e *ValidationError) Error() string {
	if e.Received != "" || e.Expected != "" {
		return fmt.Sprintf("%s (received %q, expected %q)", e.Kind.Message(), e.Received, e.Expected)
	}
	return e.Kind.Message()
}
