package address

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/rooch-network/rooch-go/pkg/crypto"
	"github.com/rooch-network/rooch-go/pkg/types"
)

// ChainAddress is an immutable address on one chain. Its raw bytes are the
// form the chain itself stores and hashes; two addresses are equal when
// chain and raw bytes are equal, regardless of display network.
type ChainAddress struct {
	chain   ChainID
	network BitcoinNetwork
	raw     []byte
	text    string
}

// Chain returns the chain the address belongs to.
func (a ChainAddress) Chain() ChainID { return a.chain }

// Network returns the Bitcoin network used for display, or 0 for other
// chains.
func (a ChainAddress) Network() BitcoinNetwork { return a.network }

// Bytes returns a copy of the raw address bytes.
func (a ChainAddress) Bytes() []byte {
	out := make([]byte, len(a.raw))
	copy(out, a.raw)
	return out
}

// String returns the chain-native text form: base58 or bech32 for
// Bitcoin, EIP-55 hex for Ethereum and 0x hex for Rooch.
func (a ChainAddress) String() string { return a.text }

// IsZero reports whether a is the zero ChainAddress.
func (a ChainAddress) IsZero() bool { return len(a.raw) == 0 }

// Equal reports byte equality.
func (a ChainAddress) Equal(o ChainAddress) bool {
	return a.chain == o.chain && bytes.Equal(a.raw, o.raw)
}

// BitcoinType returns the address type of a Bitcoin address.
func (a ChainAddress) BitcoinType() (BitcoinAddressType, bool) {
	if a.chain != ChainBitcoin || len(a.raw) == 0 {
		return 0, false
	}
	return BitcoinAddressType(a.raw[0]), true
}

// Rooch returns the account address of a Rooch ChainAddress.
func (a ChainAddress) Rooch() (types.Address, bool) {
	if a.chain != ChainRooch {
		return types.Address{}, false
	}
	var out types.Address
	copy(out[:], a.raw)
	return out, true
}

// FromRoochAddress wraps a Rooch account address.
func FromRoochAddress(addr types.Address) ChainAddress {
	return ChainAddress{chain: ChainRooch, raw: addr.Bytes(), text: addr.String()}
}

// FromPublicKey derives the Rooch address owned by a 33-byte compressed
// secp256k1 public key: the blake2b-256 hash of the key's taproot Bitcoin
// address bytes.
func FromPublicKey(pub []byte) (ChainAddress, error) {
	btc, err := BitcoinFromPublicKey(pub, BitcoinMainnet)
	if err != nil {
		return ChainAddress{}, err
	}
	return ToRoochAddress(btc)
}

// ParseForeignAddress parses address text for chain, validating its
// checksum, prefix and payload length.
func ParseForeignAddress(chain ChainID, text string) (ChainAddress, error) {
	text = strings.TrimSpace(text)
	switch chain {
	case ChainBitcoin:
		return ParseBitcoinAddress(text)
	case ChainEther:
		return ParseEthereumAddress(text)
	case ChainRooch:
		addr, err := types.ParseAddress(text)
		if err != nil {
			return ChainAddress{}, &AddressFormatError{Chain: chain, Input: text, Err: err}
		}
		return FromRoochAddress(addr), nil
	default:
		return ChainAddress{}, formatErr(chain, text, "unsupported chain")
	}
}

// ExpectedRoochAddress returns the Rooch address a foreign address maps
// to: blake2b-256 over its raw bytes for Bitcoin, identity for Rooch.
// Ethereum addresses are mapped by the chain when first seen and yield
// ErrNotNative. The resolver remains authoritative; this is the value it
// must agree with.
func ExpectedRoochAddress(a ChainAddress) (types.Address, error) {
	switch a.chain {
	case ChainRooch:
		addr, _ := a.Rooch()
		return addr, nil
	case ChainBitcoin:
		if len(a.raw) == 0 {
			return types.Address{}, fmt.Errorf("empty bitcoin address")
		}
		return types.Address(crypto.HashBlake2b(a.raw)), nil
	default:
		return types.Address{}, fmt.Errorf("%s: %w", a.chain, ErrNotNative)
	}
}

// ToRoochAddress is ExpectedRoochAddress wrapped as a ChainAddress.
func ToRoochAddress(a ChainAddress) (ChainAddress, error) {
	addr, err := ExpectedRoochAddress(a)
	if err != nil {
		return ChainAddress{}, err
	}
	return FromRoochAddress(addr), nil
}
