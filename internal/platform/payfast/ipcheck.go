package payfast

import (
	"context"
	"net"
	"strings"

	"go.uber.org/zap"
)

// SourceOverride lets collaborators veto or rescue an IP validity decision.
// Overrides run in registration order, each seeing the previous result.
type SourceOverride func(valid bool, sourceIP string) bool

// SourceValidator checks that an ITN call originates from one of the
// provider's published hostnames.
type SourceValidator struct {
	resolver  *net.Resolver
	hosts     []string
	overrides []SourceOverride
	log       *zap.SugaredLogger
}

func NewSourceValidator(log *zap.SugaredLogger) *SourceValidator {
	return &SourceValidator{
		resolver: net.DefaultResolver,
		hosts:    ValidHosts,
		log:      log,
	}
}

// RegisterOverride appends an override hook.
func (v *SourceValidator) RegisterOverride(fn SourceOverride) {
	v.overrides = append(v.overrides, fn)
}

// IsValidSource resolves the provider hosts and reports whether the caller's
// address is among them. A forwarded-for header, when it carries a parseable
// IP as its first token, takes precedence over the connection address.
// Hosts that fail to resolve simply contribute no addresses.
func (v *SourceValidator) IsValidSource(ctx context.Context, sourceIP, forwardedFor string) bool {
	valid := map[string]struct{}{}
	for _, host := range v.hosts {
		addrs, err := v.resolver.LookupHost(ctx, host)
		if err != nil {
			v.log.Warnw("itn_host_lookup_failed", "host", host, "err", err)
			continue
		}
		for _, a := range addrs {
			valid[a] = struct{}{}
		}
	}

	if ip := forwardedForIP(forwardedFor); ip != "" {
		sourceIP = ip
	}

	_, ok := valid[sourceIP]
	for _, fn := range v.overrides {
		ok = fn(ok, sourceIP)
	}
	return ok
}

// forwardedForIP extracts the first token of a forwarded-for header, split on
// comma or colon, and returns it only if it parses as an IP.
func forwardedForIP(header string) string {
	header = strings.TrimSpace(header)
	if header == "" {
		return ""
	}
	token := header
	if i := strings.IndexAny(header, ",:"); i >= 0 {
		token = header[:i]
	}
	token = strings.TrimSpace(token)
	if net.ParseIP(token) == nil {
		return ""
	}
	return token
}
