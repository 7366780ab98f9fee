package store

import "mock-kv/internal/ttl"

// Entry represents a single record stored in a namespace.
//
// Design choices:
// - Value is a pointer so a seeded record can carry "no value".
//   Writes through the namespace always set it.
// - ExpiresAt is epoch milliseconds; nil means "never expires".
// - Metadata holds an already JSON-normalized tree
//   (nil, bool, float64, string, []any, map[string]any).
type Entry struct {
	Value     *string `json:"value,omitempty"`
	ExpiresAt *int64  `json:"expiresAt,omitempty"`
	Metadata  any     `json:"metadata,omitempty"`
}

// IsLive checks whether the entry is still readable at now (epoch ms).
func (e Entry) IsLive(now int64) bool {
	return ttl.Live(e.ExpiresAt, now)
}

// Clone returns a copy that shares no memory with e.
func (e Entry) Clone() Entry {
	out := Entry{Metadata: CopyTree(e.Metadata)}
	if e.Value != nil {
		v := *e.Value
		out.Value = &v
	}
	if e.ExpiresAt != nil {
		at := *e.ExpiresAt
		out.ExpiresAt = &at
	}
	return out
}

// CopyTree deep-copies a JSON-shaped tree. Leaves other than maps and
// slices are immutable and returned as is.
func CopyTree(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, child := range t {
			out[k] = CopyTree(child)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, child := range t {
			out[i] = CopyTree(child)
		}
		return out
	default:
		return v
	}
}
