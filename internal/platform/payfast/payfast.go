// Package payfast implements the PayFast wire protocol: canonical parameter
// strings and MD5 signatures, source-IP and echo validation for inbound ITN
// payloads, and the subscriptions (ad-hoc token) API client.
package payfast

import "math"

// GatewayID is the payment method id the storefront knows this gateway by.
const GatewayID = "payfast"

const (
	liveBase    = "https://www.payfast.co.za"
	sandboxBase = "https://sandbox.payfast.co.za"
	apiBase     = "https://api.payfast.co.za"

	// UserAgent identifies this integration on outbound calls.
	UserAgent = "payfast-gateway/1.0"

	// Epsilon is the provider's documented amount tolerance. Gross amounts
	// are never compared exactly; rounding noise inside one cent is equal.
	Epsilon = 0.01
)

// ValidHosts are the hostnames ITN calls legitimately originate from.
var ValidHosts = []string{
	"www.payfast.co.za",
	"sandbox.payfast.co.za",
	"w1w.payfast.co.za",
	"w2w.payfast.co.za",
}

// ProcessURL is the hosted payment page the redirect form posts to.
func ProcessURL(sandbox bool) string {
	if sandbox {
		return sandboxBase + "/eng/process"
	}
	return liveBase + "/eng/process"
}

// ValidateURL is the echo-check endpoint ITN payloads are re-posted to.
func ValidateURL(sandbox bool) string {
	if sandbox {
		return sandboxBase + "/eng/query/validate"
	}
	return liveBase + "/eng/query/validate"
}

// AmountsEqual compares two amounts with the non-strict Epsilon tolerance:
// |a-b| == Epsilon still counts as equal.
func AmountsEqual(a, b float64) bool {
	return !(math.Abs(a-b) > Epsilon)
}
