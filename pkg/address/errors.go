package address

import (
	"errors"
	"fmt"
)

// ErrNotNative is returned when a foreign address has no client-side
// mapping to a Rooch address and must be resolved on chain.
var ErrNotNative = errors.New("address has no local rooch mapping")

// AddressFormatError reports malformed address text or bytes: a bad
// checksum, an unknown prefix or a wrong payload length.
type AddressFormatError struct {
	Chain ChainID
	Input string
	Err   error
}

func (e *AddressFormatError) Error() string {
	return fmt.Sprintf("invalid %s address %q: %v", e.Chain, e.Input, e.Err)
}

func (e *AddressFormatError) Unwrap() error { return e.Err }

// IsAddressFormatError checks whether err is an AddressFormatError and
// returns it.
func IsAddressFormatError(err error) (*AddressFormatError, bool) {
	var e *AddressFormatError
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

func formatErr(chain ChainID, input string, format string, args ...interface{}) error {
	return &AddressFormatError{Chain: chain, Input: input, Err: fmt.Errorf(format, args...)}
}
