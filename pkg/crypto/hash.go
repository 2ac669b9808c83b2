// Package crypto provides the secp256k1 keypair, ECDSA signing and the
// digest functions used by Rooch clients.
package crypto

import (
	"crypto/sha256"
	"fmt"
	"strings"

	"github.com/rooch-network/rooch-go/pkg/types"
	"github.com/zeebo/blake3"
	"golang.org/x/crypto/blake2b"
)

// Algorithm names a digest function. Signing never picks one: callers
// hash with the function their chain defines and sign the 32-byte result.
type Algorithm string

const (
	SHA256     Algorithm = "sha256"
	Blake2b256 Algorithm = "blake2b256"
	Blake3     Algorithm = "blake3"
)

// ParseAlgorithm accepts an algorithm name case-insensitively.
func ParseAlgorithm(s string) (Algorithm, error) {
	switch a := Algorithm(strings.ToLower(s)); a {
	case SHA256, Blake2b256, Blake3:
		return a, nil
	}
	return "", fmt.Errorf("unknown digest algorithm %q", s)
}

// Digest hashes msg with alg.
func Digest(alg Algorithm, msg []byte) (types.Hash, error) {
	switch alg {
	case SHA256:
		return sha256.Sum256(msg), nil
	case Blake2b256:
		return HashBlake2b(msg), nil
	case Blake3:
		return HashBlake3(msg), nil
	}
	return types.Hash{}, fmt.Errorf("unknown digest algorithm %q", alg)
}

// HashBlake2b computes the unkeyed BLAKE2b-256 hash of data. Rooch derives
// account addresses with it.
func HashBlake2b(data []byte) types.Hash {
	return blake2b.Sum256(data)
}

// HashBlake3 computes a BLAKE3-256 hash of data.
func HashBlake3(data []byte) types.Hash {
	return blake3.Sum256(data)
}
