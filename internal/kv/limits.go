package kv

import (
	"errors"
	"fmt"
)

// Size limits, in UTF-8 bytes.
const (
	MaxKeyBytes   = 512
	MaxValueBytes = 25 * 1024 * 1024
)

// Limit names the constraint a SizeError refers to.
type Limit string

const (
	KeyLimit   Limit = "key"
	ValueLimit Limit = "value"
)

// ErrSizeLimit is matched by every *SizeError via errors.Is.
var ErrSizeLimit = errors.New("kv: size limit exceeded")

// SizeError reports a key or value that is too large to store.
type SizeError struct {
	Limit Limit
	Max   int
	Size  int
}

func (e *SizeError) Error() string {
	return fmt.Sprintf("kv: %s length %d exceeds limit of %d bytes", e.Limit, e.Size, e.Max)
}

func (e *SizeError) Is(target error) bool {
	return target == ErrSizeLimit
}

// validateSize checks key and value against the byte limits. The key is
// checked first.
func validateSize(key, value string) error {
	if n := len(key); n > MaxKeyBytes {
		return &SizeError{Limit: KeyLimit, Max: MaxKeyBytes, Size: n}
	}
	if n := len(value); n > MaxValueBytes {
		return &SizeError{Limit: ValueLimit, Max: MaxValueBytes, Size: n}
	}
	return nil
}
