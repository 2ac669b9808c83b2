package crypto

import (
	"errors"
	"fmt"
)

// CryptoError reports a malformed key, digest or signature, or a failed
// verification.
type CryptoError struct {
	Op     string
	Reason string
	Err    error
}

func (e *CryptoError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("crypto %s: %s: %v", e.Op, e.Reason, e.Err)
	}
	return fmt.Sprintf("crypto %s: %s", e.Op, e.Reason)
}

func (e *CryptoError) Unwrap() error { return e.Err }

// IsCryptoError checks whether err is a CryptoError and returns it.
func IsCryptoError(err error) (*CryptoError, bool) {
	var e *CryptoError
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

func lengthReason(what string, want, got int) string {
	return fmt.Sprintf("%s must be %d bytes, got %d", what, want, got)
}
