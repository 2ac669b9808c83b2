package rpc

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// JSON-RPC 2.0 error codes.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
	CodeNotFound       = -32000
)

// Method names served by the node.
const (
	MethodDiscover            = "rpc.discover"
	MethodGetChainID          = "rooch_getChainID"
	MethodGetStates           = "rooch_getStates"
	MethodExecuteViewFunction = "rooch_executeViewFunction"
)

// Request is a JSON-RPC 2.0 request.
type Request struct {
	JSONRPC string      `json:"jsonrpc"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params"`
	ID      interface{} `json:"id"`
}

// Response is a JSON-RPC 2.0 response.
type Response struct {
	JSONRPC string      `json:"jsonrpc"`
	Result  interface{} `json:"result,omitempty"`
	Error   *Error      `json:"error,omitempty"`
	ID      interface{} `json:"id"`
}

// Error is a JSON-RPC 2.0 error object.
type Error struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// ── Results ─────────────────────────────────────────────────────────────

// DiscoverResult is the OpenRPC document returned by rpc.discover. Only
// the fields the client reads are modelled.
type DiscoverResult struct {
	OpenRPC string       `json:"openrpc"`
	Info    DiscoverInfo `json:"info"`
	Methods []MethodInfo `json:"methods"`
}

// DiscoverInfo carries the API version.
type DiscoverInfo struct {
	Title   string `json:"title"`
	Version string `json:"version"`
}

// MethodInfo names one served method.
type MethodInfo struct {
	Name string `json:"name"`
}

// StateOptions is the second positional param of rooch_getStates.
type StateOptions struct {
	Decode      bool `json:"decode"`
	ShowDisplay bool `json:"showDisplay"`
}

// StrU64 is a u64 carried as a decimal string on the wire. Plain numbers
// are accepted on input.
type StrU64 uint64

func (n StrU64) MarshalJSON() ([]byte, error) {
	return json.Marshal(strconv.FormatUint(uint64(n), 10))
}

func (n *StrU64) UnmarshalJSON(data []byte) error {
	s := string(bytes.Trim(data, `"`))
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid u64 %s: %w", data, err)
	}
	*n = StrU64(v)
	return nil
}

// ObjectStateView is one entry of a rooch_getStates result.
type ObjectStateView struct {
	ID                  string          `json:"id"`
	Owner               string          `json:"owner"`
	OwnerBitcoinAddress *string         `json:"owner_bitcoin_address"`
	Flag                uint8           `json:"flag"`
	StateRoot           string          `json:"state_root"`
	Size                StrU64          `json:"size"`
	CreatedAt           StrU64          `json:"created_at"`
	UpdatedAt           StrU64          `json:"updated_at"`
	ObjectType          string          `json:"object_type"`
	Value               string          `json:"value"`
	DecodedValue        json.RawMessage `json:"decoded_value,omitempty"`
	DisplayFields       json.RawMessage `json:"display_fields,omitempty"`
}

// FunctionCallView is the single param of rooch_executeViewFunction.
// Args are 0x-prefixed hex of the BCS encoding of each argument.
type FunctionCallView struct {
	FunctionID string   `json:"function_id"`
	TyArgs     []string `json:"ty_args"`
	Args       []string `json:"args"`
}

// VMStatus kinds.
const (
	StatusExecuted           = "Executed"
	StatusOutOfGas           = "OutOfGas"
	StatusMoveAbort          = "MoveAbort"
	StatusExecutionFailure   = "ExecutionFailure"
	StatusMiscellaneousError = "MiscellaneousError"
	StatusError              = "Error"
)

// VMStatus is the outcome of a view call. On the wire it is either a bare
// string ("Executed", "OutOfGas", "MiscellaneousError") or a single-key
// object ({"MoveAbort": {...}}, {"ExecutionFailure": {...}}, {"Error": "..."}).
type VMStatus struct {
	Kind       string
	Location   string
	AbortCode  uint64
	Function   uint16
	CodeOffset uint16
	StatusCode uint64
	Message    string
}

// Executed reports whether the call succeeded.
func (s VMStatus) Executed() bool { return s.Kind == StatusExecuted }

func (s VMStatus) String() string {
	switch s.Kind {
	case StatusMoveAbort:
		return fmt.Sprintf("MoveAbort(%s, %d)", s.Location, s.AbortCode)
	case StatusExecutionFailure:
		return fmt.Sprintf("ExecutionFailure(%s, status %d)", s.Location, s.StatusCode)
	case StatusError:
		return "Error(" + s.Message + ")"
	default:
		return s.Kind
	}
}

type moveAbortView struct {
	Location  string `json:"location"`
	AbortCode StrU64 `json:"abort_code"`
}

type executionFailureView struct {
	Location   string `json:"location"`
	Function   uint16 `json:"function"`
	CodeOffset uint16 `json:"code_offset"`
	StatusCode StrU64 `json:"status_code"`
}

func (s VMStatus) MarshalJSON() ([]byte, error) {
	switch s.Kind {
	case StatusExecuted, StatusOutOfGas, StatusMiscellaneousError:
		return json.Marshal(s.Kind)
	case StatusMoveAbort:
		return json.Marshal(map[string]moveAbortView{
			StatusMoveAbort: {Location: s.Location, AbortCode: StrU64(s.AbortCode)},
		})
	case StatusExecutionFailure:
		return json.Marshal(map[string]executionFailureView{
			StatusExecutionFailure: {
				Location:   s.Location,
				Function:   s.Function,
				CodeOffset: s.CodeOffset,
				StatusCode: StrU64(s.StatusCode),
			},
		})
	case StatusError:
		return json.Marshal(map[string]string{StatusError: s.Message})
	default:
		return nil, fmt.Errorf("unknown vm status %q", s.Kind)
	}
}

func (s *VMStatus) UnmarshalJSON(data []byte) error {
	var kind string
	if err := json.Unmarshal(data, &kind); err == nil {
		*s = VMStatus{Kind: kind}
		return nil
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("invalid vm status: %w", err)
	}
	if len(obj) != 1 {
		return fmt.Errorf("invalid vm status: want one variant, got %d", len(obj))
	}

	for kind, raw := range obj {
		switch kind {
		case StatusMoveAbort:
			var v moveAbortView
			if err := json.Unmarshal(raw, &v); err != nil {
				return fmt.Errorf("invalid MoveAbort: %w", err)
			}
			*s = VMStatus{Kind: kind, Location: v.Location, AbortCode: uint64(v.AbortCode)}
		case StatusExecutionFailure:
			var v executionFailureView
			if err := json.Unmarshal(raw, &v); err != nil {
				return fmt.Errorf("invalid ExecutionFailure: %w", err)
			}
			*s = VMStatus{
				Kind:       kind,
				Location:   v.Location,
				Function:   v.Function,
				CodeOffset: v.CodeOffset,
				StatusCode: uint64(v.StatusCode),
			}
		case StatusError:
			var msg string
			if err := json.Unmarshal(raw, &msg); err != nil {
				return fmt.Errorf("invalid Error status: %w", err)
			}
			*s = VMStatus{Kind: kind, Message: msg}
		default:
			*s = VMStatus{Kind: kind, Message: string(raw)}
		}
	}
	return nil
}

// AnnotatedValue is a typed return value: a Move type tag plus the hex of
// its BCS encoding.
type AnnotatedValue struct {
	TypeTag string `json:"type_tag"`
	Value   string `json:"value"`
}

// ReturnValue pairs the encoded value with its JSON rendering.
type ReturnValue struct {
	Value        AnnotatedValue  `json:"value"`
	DecodedValue json.RawMessage `json:"decoded_value"`
}

// ExecuteResult is the rooch_executeViewFunction result.
type ExecuteResult struct {
	VMStatus     VMStatus      `json:"vm_status"`
	ReturnValues []ReturnValue `json:"return_values"`
}
