package rpcclient

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rooch-network/rooch-go/internal/rpc"
)

// RPCError is returned when the server responds with an error.
type RPCError struct {
	Code    int
	Message string
	Data    json.RawMessage
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// CompatibilityError reports a node whose API version differs from the
// one this client targets.
type CompatibilityError struct {
	Local  string
	Remote string
}

func (e *CompatibilityError) Error() string {
	return fmt.Sprintf("node rpc version %s does not match targeted version %s", e.Remote, e.Local)
}

// AbortError is returned when a view function did not execute.
type AbortError struct {
	Function string
	Status   rpc.VMStatus
}

func (e *AbortError) Error() string {
	return fmt.Sprintf("view function %s: %s", e.Function, e.Status)
}

// IsRPCError checks whether err is an RPCError and returns it.
func IsRPCError(err error) (*RPCError, bool) {
	var e *RPCError
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// IsCompatibilityError checks whether err is a CompatibilityError and
// returns it.
func IsCompatibilityError(err error) (*CompatibilityError, bool) {
	var e *CompatibilityError
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// IsAbortError checks whether err is an AbortError and returns it.
func IsAbortError(err error) (*AbortError, bool) {
	var e *AbortError
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
