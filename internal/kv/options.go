package kv

import (
	"encoding/json"
	"fmt"
)

// ValueType selects how Get decodes a stored value.
type ValueType string

const (
	// TypeText returns the stored string unchanged.
	TypeText ValueType = "text"
	// TypeJSON parses the stored string as JSON.
	TypeJSON ValueType = "json"
)

// PutOptions configures a single write. The zero value stores a value
// that never expires and carries no metadata.
type PutOptions struct {
	// ExpirationTTL is a lifetime in seconds from now. Fractions are
	// allowed. Zero or negative expires the entry immediately.
	ExpirationTTL *float64

	// Expiration is an absolute instant in unix seconds. It takes
	// precedence over ExpirationTTL.
	Expiration *float64

	// Metadata is any JSON-serializable value. It is stored as its
	// JSON round-trip, so later changes to the original do not leak in.
	Metadata any
}

// GetOptions configures a read. The zero value returns raw text.
type GetOptions struct {
	Type ValueType
}

// ListOptions filters a listing.
type ListOptions struct {
	// Prefix keeps only keys starting with it. Empty matches all.
	Prefix string
	// Limit caps the number of keys returned. Nil means unlimited;
	// zero or negative returns no keys.
	Limit *int
}

// ListKey is one element of a listing.
type ListKey struct {
	Name string `json:"name"`
}

// ListResult is the outcome of List. ListComplete is always true: there is
// no cursor to continue from.
type ListResult struct {
	Keys         []ListKey `json:"keys"`
	ListComplete bool      `json:"list_complete"`
}

// ValueWithMetadata is the outcome of GetWithMetadata.
type ValueWithMetadata struct {
	Value    any `json:"value"`
	Metadata any `json:"metadata"`
}

// Seconds is a helper for the pointer-valued expiration fields.
func Seconds(n float64) *float64 {
	return &n
}

// MaxKeys is a helper for ListOptions.Limit.
func MaxKeys(n int) *int {
	return &n
}

func firstPut(opts []PutOptions) PutOptions {
	if len(opts) == 0 {
		return PutOptions{}
	}
	return opts[0]
}

func firstGet(opts []GetOptions) GetOptions {
	if len(opts) == 0 {
		return GetOptions{}
	}
	return opts[0]
}

func firstList(opts []ListOptions) ListOptions {
	if len(opts) == 0 {
		return ListOptions{}
	}
	return opts[0]
}

// optional renders a pointer-valued option for log lines.
func optional[T int | float64](v *T) string {
	if v == nil {
		return "none"
	}
	return fmt.Sprint(*v)
}

func describeMetadata(m any) string {
	if m == nil {
		return "none"
	}
	b, err := json.Marshal(m)
	if err != nil {
		return "unprintable"
	}
	return string(b)
}
