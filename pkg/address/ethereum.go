package address

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

// EthereumFromPublicKey returns the Ethereum address of a compressed
// secp256k1 public key.
func EthereumFromPublicKey(pub []byte) (ChainAddress, error) {
	key, err := ethcrypto.DecompressPubkey(pub)
	if err != nil {
		return ChainAddress{}, fmt.Errorf("decompress public key: %w", err)
	}
	return fromEthereum(ethcrypto.PubkeyToAddress(*key)), nil
}

// ParseEthereumAddress parses 0x-prefixed 40-digit hex. All-lower and
// all-upper input is accepted as is; mixed case must carry a valid EIP-55
// checksum.
func ParseEthereumAddress(text string) (ChainAddress, error) {
	if !strings.HasPrefix(text, "0x") && !strings.HasPrefix(text, "0X") {
		return ChainAddress{}, formatErr(ChainEther, text, "missing 0x prefix")
	}
	if !common.IsHexAddress(text) {
		return ChainAddress{}, formatErr(ChainEther, text, "want 40 hex digits")
	}
	addr := common.HexToAddress(text)
	digits := text[2:]
	mixed := strings.ToLower(digits) != digits && strings.ToUpper(digits) != digits
	if mixed && addr.Hex()[2:] != digits {
		return ChainAddress{}, formatErr(ChainEther, text, "EIP-55 checksum mismatch")
	}
	return fromEthereum(addr), nil
}

// EthereumFromBytes wraps 20 raw address bytes.
func EthereumFromBytes(raw []byte) (ChainAddress, error) {
	if len(raw) != common.AddressLength {
		return ChainAddress{}, formatErr(ChainEther, fmt.Sprintf("%x", raw), "want %d bytes, got %d", common.AddressLength, len(raw))
	}
	return fromEthereum(common.BytesToAddress(raw)), nil
}

func fromEthereum(addr common.Address) ChainAddress {
	return ChainAddress{chain: ChainEther, raw: addr.Bytes(), text: addr.Hex()}
}
