package payfast

import (
	"crypto/md5"
	"encoding/hex"
	"net/url"
	"sort"
	"strings"
)

const signatureKey = "signature"

// encode matches PHP's urlencode, which is what the provider hashes against:
// spaces become '+', hex escapes are uppercase, and '~' is escaped too.
func encode(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "~", "%7E")
}

// ParameterString builds the canonical parameter string for signing.
//
// The passphrase placement is asymmetric on purpose: in sorted mode it is
// injected as a regular field before sorting and participates in ordering; in
// unsorted mode it is appended raw at the very end. Inbound ITN verification
// uses unsorted mode (the provider's field order), outbound signing uses
// sorted mode. The signature field itself is never included.
func ParameterString(d *Data, sortKeys, skipEmpty bool, passphrase string) string {
	fields := d.Fields()
	if sortKeys {
		if passphrase != "" {
			fields = append(fields, Field{Key: "passphrase", Value: passphrase})
		}
		sort.SliceStable(fields, func(i, j int) bool { return fields[i].Key < fields[j].Key })
	}

	var b strings.Builder
	for _, f := range fields {
		if f.Key == signatureKey {
			continue
		}
		if skipEmpty && f.Value == "" {
			continue
		}
		b.WriteString(f.Key)
		b.WriteByte('=')
		b.WriteString(encode(f.Value))
		b.WriteByte('&')
	}

	s := b.String()
	if !sortKeys && passphrase != "" {
		return s + "passphrase=" + encode(passphrase)
	}
	return strings.TrimSuffix(s, "&")
}

// Sign returns the MD5 hex digest of the canonical parameter string.
func Sign(d *Data, sortKeys, skipEmpty bool, passphrase string) string {
	sum := md5.Sum([]byte(ParameterString(d, sortKeys, skipEmpty, passphrase)))
	return hex.EncodeToString(sum[:])
}
