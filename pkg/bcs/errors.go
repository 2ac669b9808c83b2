package bcs

import (
	"errors"
	"fmt"
)

// EncodeError reports a value that cannot be serialized: an integer wider
// than its declared type, a heterogeneous vector, or an invalid value.
type EncodeError struct {
	Type   string
	Reason string
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("bcs encode %s: %s", e.Type, e.Reason)
}

// DecodeError reports a buffer that does not hold a canonical encoding of
// the expected type.
type DecodeError struct {
	Offset int
	Type   string
	Reason string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("bcs decode %s at offset %d: %s", e.Type, e.Offset, e.Reason)
}

// IsEncodeError checks whether err is an EncodeError and returns it.
func IsEncodeError(err error) (*EncodeError, bool) {
	var e *EncodeError
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// IsDecodeError checks whether err is a DecodeError and returns it.
func IsDecodeError(err error) (*DecodeError, bool) {
	var e *DecodeError
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
