package localnode

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/rooch-network/rooch-go/internal/rpc"
	"github.com/rooch-network/rooch-go/pkg/address"
	"github.com/rooch-network/rooch-go/pkg/bcs"
	"github.com/rooch-network/rooch-go/pkg/crypto"
	"github.com/rooch-network/rooch-go/pkg/types"
)

// View functions served by the node.
const (
	FnSequenceNumber    = "0x2::account::sequence_number"
	FnResolveOrGenerate = "0x3::address_mapping::resolve_or_generate"
	FnResolve           = "0x3::address_mapping::resolve"
)

// Move status codes reported for calls that never reach execution.
const (
	StatusFunctionResolutionFailure = "FUNCTION_RESOLUTION_FAILURE"
	StatusTypeArgumentsMismatch     = "NUMBER_OF_TYPE_ARGUMENTS_MISMATCH"
	StatusArgumentsMismatch         = "NUMBER_OF_ARGUMENTS_MISMATCH"
	StatusFailedToDeserialize       = "FAILED_TO_DESERIALIZE_ARGUMENT"
)

// Abort raised by the address mapping module on an envelope whose raw
// bytes are not a valid address of its chain.
const (
	abortLocationMultichain = "0x3::multichain_address"
	ErrorInvalidAddress     = 1
)

type viewFunction struct {
	params  []bcs.Type
	returns []bcs.Type
	call    func(args []bcs.Value) ([]bcs.Value, *rpc.VMStatus, error)
}

func (b *Backend) registerViews() map[string]*viewFunction {
	envelope := address.MultiChainAddressBCSType()
	return map[string]*viewFunction{
		FnSequenceNumber: {
			params:  []bcs.Type{bcs.AddressType()},
			returns: []bcs.Type{bcs.U64Type()},
			call:    b.viewSequenceNumber,
		},
		FnResolveOrGenerate: {
			params:  []bcs.Type{envelope},
			returns: []bcs.Type{bcs.AddressType()},
			call:    b.viewResolveOrGenerate,
		},
		FnResolve: {
			params:  []bcs.Type{envelope},
			returns: []bcs.Type{bcs.OptionType(bcs.AddressType())},
			call:    b.viewResolve,
		},
	}
}

// ExecuteViewFunction runs a registered view function. Malformed ids and
// argument hex are RPC errors; everything the VM would reject is reported
// in the vm status.
func (b *Backend) ExecuteViewFunction(call rpc.FunctionCallView) (*rpc.ExecuteResult, error) {
	fid, err := types.ParseFunctionID(call.FunctionID)
	if err != nil {
		return nil, &rpc.Error{Code: rpc.CodeInvalidParams, Message: err.Error()}
	}

	raw := make([][]byte, len(call.Args))
	for i, arg := range call.Args {
		if raw[i], err = decodeHexArg(arg); err != nil {
			return nil, &rpc.Error{Code: rpc.CodeInvalidParams, Message: fmt.Sprintf("args[%d]: %v", i, err)}
		}
	}

	view, ok := b.views[fid.String()]
	if !ok {
		return failed(StatusFunctionResolutionFailure), nil
	}
	if len(call.TyArgs) != 0 {
		return failed(StatusTypeArgumentsMismatch), nil
	}
	if len(raw) != len(view.params) {
		return failed(StatusArgumentsMismatch), nil
	}

	args := make([]bcs.Value, len(raw))
	for i, data := range raw {
		if args[i], err = bcs.Decode(data, view.params[i]); err != nil {
			b.logger.Debug().Err(err).Str("function", fid.String()).Int("arg", i).Msg("Argument rejected")
			return failed(StatusFailedToDeserialize), nil
		}
	}

	b.mu.RLock()
	values, status, err := view.call(args)
	b.mu.RUnlock()
	if err != nil {
		return nil, err
	}
	if status != nil {
		return &rpc.ExecuteResult{VMStatus: *status}, nil
	}

	result := &rpc.ExecuteResult{
		VMStatus:     rpc.VMStatus{Kind: rpc.StatusExecuted},
		ReturnValues: make([]rpc.ReturnValue, len(values)),
	}
	for i, v := range values {
		enc, err := bcs.Encode(v)
		if err != nil {
			return nil, fmt.Errorf("encode return value: %w", err)
		}
		decoded, err := marshalValue(v)
		if err != nil {
			return nil, err
		}
		result.ReturnValues[i] = rpc.ReturnValue{
			Value: rpc.AnnotatedValue{
				TypeTag: view.returns[i].String(),
				Value:   "0x" + hex.EncodeToString(enc),
			},
			DecodedValue: decoded,
		}
	}
	return result, nil
}

func decodeHexArg(s string) ([]byte, error) {
	if !strings.HasPrefix(s, "0x") {
		return nil, fmt.Errorf("want 0x-prefixed hex")
	}
	return hex.DecodeString(s[2:])
}

func failed(code string) *rpc.ExecuteResult {
	return &rpc.ExecuteResult{VMStatus: rpc.VMStatus{Kind: rpc.StatusError, Message: code}}
}

func moveAbort(location string, code uint64) *rpc.VMStatus {
	return &rpc.VMStatus{Kind: rpc.StatusMoveAbort, Location: location, AbortCode: code}
}

func (b *Backend) viewSequenceNumber(args []bcs.Value) ([]bcs.Value, *rpc.VMStatus, error) {
	account, _ := args[0].AsAddress()
	seq, err := b.store.SequenceNumber(account)
	if err != nil {
		return nil, nil, err
	}
	return []bcs.Value{bcs.U64(seq)}, nil, nil
}

func (b *Backend) viewResolveOrGenerate(args []bcs.Value) ([]bcs.Value, *rpc.VMStatus, error) {
	env, enc := envelopeArg(args[0])
	addr, found, status, err := b.resolve(env, enc)
	if status != nil || err != nil {
		return nil, status, err
	}
	if !found {
		// Unmapped foreign addresses get a deterministic address that a
		// later binding may replace.
		addr = types.Address(crypto.HashBlake2b(enc))
	}
	return []bcs.Value{bcs.Address(addr)}, nil, nil
}

func (b *Backend) viewResolve(args []bcs.Value) ([]bcs.Value, *rpc.VMStatus, error) {
	env, enc := envelopeArg(args[0])
	addr, found, status, err := b.resolve(env, enc)
	if status != nil || err != nil {
		return nil, status, err
	}
	if !found {
		return []bcs.Value{bcs.None(bcs.AddressType())}, nil, nil
	}
	return []bcs.Value{bcs.Some(bcs.Address(addr))}, nil, nil
}

// resolve maps an envelope to its Rooch address: derived for Rooch and
// Bitcoin, looked up for other chains.
func (b *Backend) resolve(env address.MultiChainAddress, enc []byte) (types.Address, bool, *rpc.VMStatus, error) {
	ca, err := env.ChainAddress(address.BitcoinMainnet)
	if err != nil {
		return types.Address{}, false, moveAbort(abortLocationMultichain, ErrorInvalidAddress), nil
	}
	if addr, err := address.ExpectedRoochAddress(ca); err == nil {
		return addr, true, nil, nil
	}
	addr, found, err := b.store.Mapping(enc)
	if err != nil {
		return types.Address{}, false, nil, err
	}
	return addr, found, nil, nil
}

// envelopeArg extracts the envelope from a decoded argument and
// re-encodes it canonically for mapping lookups.
func envelopeArg(v bcs.Value) (address.MultiChainAddress, []byte) {
	idv, _ := v.Field("multichain_id")
	rawv, _ := v.Field("raw_address")
	id, _ := idv.AsUint64()
	raw, _ := rawv.AsBytes()
	env := address.MultiChainAddress{ChainID: address.ChainID(id), RawAddress: raw}
	return env, bcs.MustEncode(v)
}
