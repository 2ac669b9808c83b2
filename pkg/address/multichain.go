package address

import (
	"fmt"

	"github.com/rooch-network/rooch-go/pkg/bcs"
	"github.com/rooch-network/rooch-go/pkg/types"
)

// MultiChainAddressType is the Move struct the resolver takes.
const MultiChainAddressType = "0x3::multichain_address::MultiChainAddress"

// MultiChainAddress tags raw address bytes with their chain id.
type MultiChainAddress struct {
	ChainID    ChainID
	RawAddress []byte
}

// MultiChainAddressBCSType is the schema of the envelope:
// struct { multichain_id: u64, raw_address: vector<u8> }.
func MultiChainAddressBCSType() bcs.Type {
	return bcs.StructType(MultiChainAddressType,
		bcs.FieldType{Name: "multichain_id", Type: bcs.U64Type()},
		bcs.FieldType{Name: "raw_address", Type: bcs.VectorType(bcs.U8Type())},
	)
}

// ToMultiChainEnvelope builds the resolver argument for a.
func ToMultiChainEnvelope(a ChainAddress) MultiChainAddress {
	return MultiChainAddress{ChainID: a.chain, RawAddress: a.Bytes()}
}

// Arg returns the envelope as a call argument.
func (m MultiChainAddress) Arg() bcs.Value {
	return bcs.Struct(MultiChainAddressType,
		bcs.Field{Name: "multichain_id", Value: bcs.U64(uint64(m.ChainID))},
		bcs.Field{Name: "raw_address", Value: bcs.Bytes(m.RawAddress)},
	)
}

// Encode returns the canonical encoding of the envelope.
func (m MultiChainAddress) Encode() ([]byte, error) {
	return bcs.Encode(m.Arg())
}

// DecodeMultiChainAddress parses an encoded envelope.
func DecodeMultiChainAddress(b []byte) (MultiChainAddress, error) {
	v, err := bcs.Decode(b, MultiChainAddressBCSType())
	if err != nil {
		return MultiChainAddress{}, fmt.Errorf("decode multichain address: %w", err)
	}
	idv, _ := v.Field("multichain_id")
	rawv, _ := v.Field("raw_address")
	id, _ := idv.AsUint64()
	raw, _ := rawv.AsBytes()
	return MultiChainAddress{ChainID: ChainID(id), RawAddress: raw}, nil
}

// ChainAddress validates the raw bytes for the envelope's chain. network
// selects the display form of Bitcoin addresses.
func (m MultiChainAddress) ChainAddress(network BitcoinNetwork) (ChainAddress, error) {
	switch m.ChainID {
	case ChainBitcoin:
		return BitcoinFromBytes(m.RawAddress, network)
	case ChainEther:
		return EthereumFromBytes(m.RawAddress)
	case ChainRooch:
		addr, err := types.AddressFromBytes(m.RawAddress)
		if err != nil {
			return ChainAddress{}, &AddressFormatError{Chain: ChainRooch, Input: fmt.Sprintf("%x", m.RawAddress), Err: err}
		}
		return FromRoochAddress(addr), nil
	default:
		return ChainAddress{}, formatErr(m.ChainID, fmt.Sprintf("%x", m.RawAddress), "unsupported chain")
	}
}
