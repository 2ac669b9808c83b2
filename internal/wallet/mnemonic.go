// Package wallet derives Rooch keypairs from BIP-39 mnemonics and keeps
// them in an encrypted on-disk keystore.
package wallet

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tyler-smith/go-bip39"
)

// Mnemonic sizes in entropy bits.
const (
	Entropy12Words = 128
	Entropy24Words = 256
)

// SeedSize is the length of a BIP-39 seed in bytes.
const SeedSize = 64

// ErrInvalidMnemonic is returned for phrases that fail BIP-39 validation.
var ErrInvalidMnemonic = errors.New("invalid mnemonic")

// GenerateMnemonic creates a BIP-39 mnemonic with the given number of
// words (12 or 24).
func GenerateMnemonic(words int) (string, error) {
	var bits int
	switch words {
	case 12:
		bits = Entropy12Words
	case 24:
		bits = Entropy24Words
	default:
		return "", fmt.Errorf("unsupported mnemonic length %d (want 12 or 24)", words)
	}
	entropy, err := bip39.NewEntropy(bits)
	if err != nil {
		return "", fmt.Errorf("generate entropy: %w", err)
	}
	defer zero(entropy)
	mnemonic, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return "", fmt.Errorf("generate mnemonic: %w", err)
	}
	return mnemonic, nil
}

// NormalizeMnemonic lowercases the phrase and collapses whitespace.
func NormalizeMnemonic(mnemonic string) string {
	return strings.Join(strings.Fields(strings.ToLower(mnemonic)), " ")
}

// ValidateMnemonic checks word list membership and checksum.
func ValidateMnemonic(mnemonic string) bool {
	return bip39.IsMnemonicValid(NormalizeMnemonic(mnemonic))
}

// SeedFromMnemonic derives the 64-byte BIP-39 seed (PBKDF2-SHA512).
func SeedFromMnemonic(mnemonic, passphrase string) ([]byte, error) {
	mnemonic = NormalizeMnemonic(mnemonic)
	if !bip39.IsMnemonicValid(mnemonic) {
		return nil, ErrInvalidMnemonic
	}
	seed, err := bip39.NewSeedWithErrorChecking(mnemonic, passphrase)
	if err != nil {
		return nil, fmt.Errorf("derive seed: %w", err)
	}
	return seed, nil
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
