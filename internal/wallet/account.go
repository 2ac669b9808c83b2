package wallet

import (
	"time"

	"github.com/rooch-network/rooch-go/pkg/address"
	"github.com/rooch-network/rooch-go/pkg/types"
)

// Key kinds.
const (
	KindMnemonic = "mnemonic"
	KindSecret   = "secret"
)

// Account describes a stored key without decrypting it.
type Account struct {
	Name           string
	Kind           string
	Address        types.Address
	PublicKey      []byte
	DerivationPath string // mnemonic keys only
	CreatedAt      time.Time
}

// BitcoinAddress returns the taproot address of the account key on network.
func (a Account) BitcoinAddress(network address.BitcoinNetwork) (address.ChainAddress, error) {
	return address.BitcoinFromPublicKey(a.PublicKey, network)
}
