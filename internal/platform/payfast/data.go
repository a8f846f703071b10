package payfast

import (
	"fmt"
	"net/url"
	"strings"
)

// Field is one key/value pair of a payment data bundle.
type Field struct {
	Key   string
	Value string
}

// Data is an insertion-ordered field bundle. Order matters: the unsorted
// signature mode hashes fields in exactly the order the provider sent them,
// which Go maps (and every form codec that round-trips through them) discard.
type Data struct {
	fields []Field
}

func NewData() *Data {
	return &Data{}
}

// Set replaces the value of an existing key in place, or appends a new field.
func (d *Data) Set(key, value string) *Data {
	for i := range d.fields {
		if d.fields[i].Key == key {
			d.fields[i].Value = value
			return d
		}
	}
	d.fields = append(d.fields, Field{Key: key, Value: value})
	return d
}

// Get returns the value for key, or the empty string.
func (d *Data) Get(key string) string {
	for _, f := range d.fields {
		if f.Key == key {
			return f.Value
		}
	}
	return ""
}

// Has reports whether key is present, even with an empty value.
func (d *Data) Has(key string) bool {
	for _, f := range d.fields {
		if f.Key == key {
			return true
		}
	}
	return false
}

// Delete removes key if present.
func (d *Data) Delete(key string) {
	for i, f := range d.fields {
		if f.Key == key {
			d.fields = append(d.fields[:i], d.fields[i+1:]...)
			return
		}
	}
}

// Fields returns a copy of the fields in insertion order.
func (d *Data) Fields() []Field {
	out := make([]Field, len(d.fields))
	copy(out, d.fields)
	return out
}

// Clone returns an independent copy.
func (d *Data) Clone() *Data {
	return &Data{fields: d.Fields()}
}

// Len returns the number of fields.
func (d *Data) Len() int {
	return len(d.fields)
}

// Values converts the bundle to url.Values, losing order.
func (d *Data) Values() url.Values {
	v := url.Values{}
	for _, f := range d.fields {
		v.Set(f.Key, f.Value)
	}
	return v
}

// ParseITN decodes a raw form-encoded ITN body preserving field order.
// Duplicate keys keep the first occurrence, matching how the provider's
// payloads are constructed.
func ParseITN(raw string) (*Data, error) {
	d := NewData()
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("empty notification body")
	}
	for _, pair := range strings.Split(raw, "&") {
		if pair == "" {
			continue
		}
		key, val, _ := strings.Cut(pair, "=")
		key, err := url.QueryUnescape(key)
		if err != nil {
			return nil, fmt.Errorf("malformed notification key %q: %w", pair, err)
		}
		val, err = url.QueryUnescape(val)
		if err != nil {
			return nil, fmt.Errorf("malformed notification value for %q: %w", key, err)
		}
		if !d.Has(key) {
			d.Set(key, val)
		}
	}
	if d.Len() == 0 {
		return nil, fmt.Errorf("notification body has no fields")
	}
	return d, nil
}
