package ttl

import "math"

// forcedExpiryMargin is how far in the past a force-expired entry is placed.
const forcedExpiryMargin int64 = 1000

// Options carries the two ways a write can ask for expiration.
// Both are in seconds and may be fractional; nil means "not supplied".
type Options struct {
	// Expiration is an absolute instant as unix seconds.
	Expiration *float64
	// ExpirationTTL is relative to the moment of the write.
	ExpirationTTL *float64
}

// Resolve computes the absolute expiry in epoch milliseconds for a write
// happening at now (epoch milliseconds).
//
// Rules:
// - Expiration wins when both fields are set.
// - A TTL <= 0 (or NaN) yields an instant already in the past.
// - A NaN Expiration never expires.
// - Fractions of a millisecond round up; out-of-range instants saturate.
// - nil result means the entry never expires.
func Resolve(now int64, opts Options) *int64 {
	switch {
	case opts.Expiration != nil:
		exp := *opts.Expiration
		if math.IsNaN(exp) {
			return nil
		}
		at := toMillis(exp * 1000)
		return &at
	case opts.ExpirationTTL != nil:
		at := now - 1
		if ttl := *opts.ExpirationTTL; ttl > 0 {
			at = toMillis(float64(now) + ttl*1000)
		}
		return &at
	default:
		return nil
	}
}

// toMillis rounds ms up to a whole millisecond and clamps it to int64.
// Rounding up keeps Live exact: for an integer now, x > now iff ceil(x) > now.
func toMillis(ms float64) int64 {
	ms = math.Ceil(ms)
	switch {
	case ms >= math.MaxInt64:
		return math.MaxInt64
	case ms <= math.MinInt64:
		return math.MinInt64
	}
	return int64(ms)
}

// Live reports whether an entry expiring at expiresAt is still readable at now.
// An entry expiring exactly at now is already expired.
func Live(expiresAt *int64, now int64) bool {
	if expiresAt == nil {
		return true
	}
	return *expiresAt > now
}

// ForcedExpiry returns the instant stamped on a force-expired entry.
func ForcedExpiry(now int64) int64 {
	return now - forcedExpiryMargin
}
