package wallet

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rooch-network/rooch-go/pkg/address"
	"github.com/rooch-network/rooch-go/pkg/crypto"
	"github.com/rooch-network/rooch-go/pkg/types"
	"github.com/tyler-smith/go-bip32"
)

// DefaultPath is the BIP-86 path of the first taproot receiving key,
// which Rooch wallets use for the account key.
const DefaultPath = "m/86'/0'/0'/0/0"

// PurposeBIP86 is the hardened purpose index for single-key taproot.
const PurposeBIP86 = bip32.FirstHardenedChild + 86

// ParsePath parses a derivation path such as m/86'/0'/0'/0/0. Hardened
// steps are marked with ' or h.
func ParsePath(path string) ([]uint32, error) {
	parts := strings.Split(strings.TrimSpace(path), "/")
	if len(parts) == 0 || parts[0] != "m" {
		return nil, fmt.Errorf("derivation path %q must start with m/", path)
	}
	indices := make([]uint32, 0, len(parts)-1)
	for _, p := range parts[1:] {
		hardened := strings.HasSuffix(p, "'") || strings.HasSuffix(p, "h")
		if hardened {
			p = p[:len(p)-1]
		}
		n, err := strconv.ParseUint(p, 10, 32)
		if err != nil || n >= uint64(bip32.FirstHardenedChild) {
			return nil, fmt.Errorf("derivation path %q: bad index %q", path, p)
		}
		idx := uint32(n)
		if hardened {
			idx += bip32.FirstHardenedChild
		}
		indices = append(indices, idx)
	}
	return indices, nil
}

// HDKey is a BIP-32 extended key.
type HDKey struct {
	key *bip32.Key
}

// NewMasterKey creates the master key of a 64-byte seed.
func NewMasterKey(seed []byte) (*HDKey, error) {
	if len(seed) != SeedSize {
		return nil, fmt.Errorf("seed must be %d bytes, got %d", SeedSize, len(seed))
	}
	master, err := bip32.NewMasterKey(seed)
	if err != nil {
		return nil, fmt.Errorf("create master key: %w", err)
	}
	return &HDKey{key: master}, nil
}

// DeriveChild derives the child at index.
func (k *HDKey) DeriveChild(index uint32) (*HDKey, error) {
	child, err := k.key.NewChildKey(index)
	if err != nil {
		return nil, fmt.Errorf("derive child %d: %w", index, err)
	}
	return &HDKey{key: child}, nil
}

// DerivePath derives along a textual path.
func (k *HDKey) DerivePath(path string) (*HDKey, error) {
	indices, err := ParsePath(path)
	if err != nil {
		return nil, err
	}
	current := k
	for _, idx := range indices {
		if current, err = current.DeriveChild(idx); err != nil {
			return nil, err
		}
	}
	return current, nil
}

// Keypair returns the secp256k1 keypair of a private extended key.
func (k *HDKey) Keypair() (*crypto.Keypair, error) {
	if !k.key.IsPrivate {
		return nil, fmt.Errorf("cannot create keypair from public key")
	}
	// go-bip32 stores private keys as 32 bytes, possibly with a leading
	// zero pad.
	raw := k.key.Key
	if len(raw) == 33 && raw[0] == 0 {
		raw = raw[1:]
	}
	return crypto.KeypairFromSecret(raw)
}

// PublicKeyBytes returns the compressed public key.
func (k *HDKey) PublicKeyBytes() []byte {
	return k.key.PublicKey().Key
}

// Address returns the Rooch address of the key.
func (k *HDKey) Address() (types.Address, error) {
	ca, err := address.FromPublicKey(k.PublicKeyBytes())
	if err != nil {
		return types.Address{}, err
	}
	addr, _ := ca.Rooch()
	return addr, nil
}

// IsPrivate reports whether the key holds a private key.
func (k *HDKey) IsPrivate() bool { return k.key.IsPrivate }

// Depth returns the derivation depth (0 for master).
func (k *HDKey) Depth() uint8 { return k.key.Depth }

// Neuter returns a public-only copy.
func (k *HDKey) Neuter() *HDKey {
	return &HDKey{key: k.key.PublicKey()}
}

// DeriveKeypair derives the keypair at path from a seed. An empty path
// means DefaultPath.
func DeriveKeypair(seed []byte, path string) (*crypto.Keypair, error) {
	if path == "" {
		path = DefaultPath
	}
	master, err := NewMasterKey(seed)
	if err != nil {
		return nil, err
	}
	child, err := master.DerivePath(path)
	if err != nil {
		return nil, err
	}
	return child.Keypair()
}

// KeypairFromMnemonic is SeedFromMnemonic followed by DeriveKeypair.
func KeypairFromMnemonic(mnemonic, passphrase, path string) (*crypto.Keypair, error) {
	seed, err := SeedFromMnemonic(mnemonic, passphrase)
	if err != nil {
		return nil, err
	}
	defer zero(seed)
	return DeriveKeypair(seed, path)
}
