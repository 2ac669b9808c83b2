package rpcclient

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rooch-network/rooch-go/internal/rpc"
	"github.com/rooch-network/rooch-go/pkg/address"
	"github.com/rooch-network/rooch-go/pkg/bcs"
	"github.com/rooch-network/rooch-go/pkg/types"
)

// TargetedRPCVersion is the node API version this client speaks.
const TargetedRPCVersion = "0.8.4"

// Framework functions called by the façade.
const (
	FnSequenceNumber    = "0x2::account::sequence_number"
	FnResolveOrGenerate = "0x3::address_mapping::resolve_or_generate"
	FnResolve           = "0x3::address_mapping::resolve"
)

// StateOptions selects the extra views rooch_getStates returns.
type StateOptions = rpc.StateOptions

// FunctionCall is a view function invocation.
type FunctionCall struct {
	Target   string
	TypeArgs []string
	Args     []bcs.Value
}

// ViewResult holds the return values of an executed view function.
type ViewResult struct {
	ReturnValues []rpc.ReturnValue
}

// Decode decodes return value i as t, checking the reported type tag.
func (r *ViewResult) Decode(i int, t bcs.Type) (bcs.Value, error) {
	if i < 0 || i >= len(r.ReturnValues) {
		return bcs.Value{}, fmt.Errorf("return value %d out of range (%d values)", i, len(r.ReturnValues))
	}
	rv := r.ReturnValues[i].Value
	if tag, err := bcs.ParseType(rv.TypeTag); err == nil && !tag.Equal(t) {
		return bcs.Value{}, fmt.Errorf("return value %d has type %s, want %s", i, rv.TypeTag, t)
	}
	data, err := decodeHex(rv.Value)
	if err != nil {
		return bcs.Value{}, fmt.Errorf("return value %d: %w", i, err)
	}
	return bcs.Decode(data, t)
}

// GetRPCAPIVersion returns the API version the node reports.
func (c *Client) GetRPCAPIVersion(ctx context.Context) (string, error) {
	var res rpc.DiscoverResult
	if err := c.Call(ctx, rpc.MethodDiscover, nil, &res); err != nil {
		return "", err
	}
	if res.Info.Version == "" {
		return "", fmt.Errorf("node did not report an api version")
	}
	return res.Info.Version, nil
}

// CheckCompatibility fails with a *CompatibilityError unless the node runs
// exactly TargetedRPCVersion.
func (c *Client) CheckCompatibility(ctx context.Context) error {
	remote, err := c.GetRPCAPIVersion(ctx)
	if err != nil {
		return err
	}
	if remote != TargetedRPCVersion {
		return &CompatibilityError{Local: TargetedRPCVersion, Remote: remote}
	}
	return nil
}

// GetChainID returns the node's chain id.
func (c *Client) GetChainID(ctx context.Context) (uint64, error) {
	var id rpc.StrU64
	if err := c.Call(ctx, rpc.MethodGetChainID, nil, &id); err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetStates returns the states under accessPath. Objects the node does not
// have are omitted, so an unknown id yields an empty slice.
func (c *Client) GetStates(ctx context.Context, accessPath string, opts StateOptions) ([]*rpc.ObjectStateView, error) {
	if _, err := types.ParseAccessPath(accessPath); err != nil {
		return nil, err
	}
	var raw []*rpc.ObjectStateView
	if err := c.Call(ctx, rpc.MethodGetStates, []interface{}{accessPath, opts}, &raw); err != nil {
		return nil, err
	}
	states := make([]*rpc.ObjectStateView, 0, len(raw))
	for _, s := range raw {
		if s != nil {
			states = append(states, s)
		}
	}
	return states, nil
}

// ExecuteViewFunction encodes the call arguments and runs the view
// function. A non-Executed status is returned as *AbortError.
func (c *Client) ExecuteViewFunction(ctx context.Context, call FunctionCall) (*ViewResult, error) {
	fid, err := types.ParseFunctionID(call.Target)
	if err != nil {
		return nil, err
	}
	args := make([]string, len(call.Args))
	for i, arg := range call.Args {
		data, err := bcs.Encode(arg)
		if err != nil {
			return nil, fmt.Errorf("encode arg %d: %w", i, err)
		}
		args[i] = "0x" + hex.EncodeToString(data)
	}
	tyArgs := call.TypeArgs
	if tyArgs == nil {
		tyArgs = []string{}
	}

	view := rpc.FunctionCallView{FunctionID: fid.String(), TyArgs: tyArgs, Args: args}
	var res rpc.ExecuteResult
	if err := c.Call(ctx, rpc.MethodExecuteViewFunction, []interface{}{view}, &res); err != nil {
		return nil, err
	}
	if !res.VMStatus.Executed() {
		return nil, &AbortError{Function: view.FunctionID, Status: res.VMStatus}
	}
	return &ViewResult{ReturnValues: res.ReturnValues}, nil
}

// GetSequenceNumber returns the account's sequence number; fresh accounts
// report 0.
func (c *Client) GetSequenceNumber(ctx context.Context, addr types.Address) (uint64, error) {
	res, err := c.ExecuteViewFunction(ctx, FunctionCall{
		Target: FnSequenceNumber,
		Args:   []bcs.Value{bcs.Address(addr)},
	})
	if err != nil {
		return 0, err
	}
	v, err := single(res, bcs.U64Type())
	if err != nil {
		return 0, err
	}
	seq, _ := v.AsUint64()
	return seq, nil
}

// ResolveAddress asks the chain's resolver for the Rooch address of env.
func (c *Client) ResolveAddress(ctx context.Context, env address.MultiChainAddress) (types.Address, error) {
	res, err := c.ExecuteViewFunction(ctx, FunctionCall{
		Target: FnResolveOrGenerate,
		Args:   []bcs.Value{env.Arg()},
	})
	if err != nil {
		return types.Address{}, err
	}
	v, err := single(res, bcs.AddressType())
	if err != nil {
		return types.Address{}, err
	}
	addr, _ := v.AsAddress()
	if err := checkDecoded(res.ReturnValues[0].DecodedValue, addr); err != nil {
		return types.Address{}, err
	}
	return addr, nil
}

// ResolveOptional returns the mapped address of env, if the chain has
// one, without generating a new one.
func (c *Client) ResolveOptional(ctx context.Context, env address.MultiChainAddress) (types.Address, bool, error) {
	res, err := c.ExecuteViewFunction(ctx, FunctionCall{
		Target: FnResolve,
		Args:   []bcs.Value{env.Arg()},
	})
	if err != nil {
		return types.Address{}, false, err
	}
	v, err := single(res, bcs.OptionType(bcs.AddressType()))
	if err != nil {
		return types.Address{}, false, err
	}
	inner, ok := v.Option()
	if !ok {
		return types.Address{}, false, nil
	}
	addr, _ := inner.AsAddress()
	return addr, true, nil
}

func single(res *ViewResult, t bcs.Type) (bcs.Value, error) {
	if len(res.ReturnValues) != 1 {
		return bcs.Value{}, fmt.Errorf("expected 1 return value, got %d", len(res.ReturnValues))
	}
	return res.Decode(0, t)
}

// checkDecoded compares the node's decoded rendering of an address with
// the BCS bytes. Absent or null renderings are skipped.
func checkDecoded(decoded json.RawMessage, addr types.Address) error {
	if len(decoded) == 0 || string(decoded) == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(decoded, &s); err != nil {
		return fmt.Errorf("decoded_value: %w", err)
	}
	other, err := types.ParseAddress(s)
	if err != nil {
		return fmt.Errorf("decoded_value: %w", err)
	}
	if other != addr {
		return fmt.Errorf("decoded_value %s disagrees with encoded value %s", other, addr)
	}
	return nil
}

func decodeHex(s string) ([]byte, error) {
	if !strings.HasPrefix(s, "0x") {
		return nil, fmt.Errorf("value %q is not 0x-prefixed hex", s)
	}
	return hex.DecodeString(s[2:])
}
