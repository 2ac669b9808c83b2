// Package types defines core primitive types shared by the Rooch client packages.
package types

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
)

// HashSize is the length of a hash in bytes.
const HashSize = 32

// Hash represents a 256-bit digest. Digests are what the signer operates on;
// the hash function that produced one is chosen by the caller.
type Hash [HashSize]byte

// IsZero returns true if the hash is all zeros.
func (h Hash) IsZero() bool {
	return h == Hash{}
}

// String returns the hex-encoded hash.
func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// Bytes returns a copy of the hash as a byte slice.
func (h Hash) Bytes() []byte {
	b := make([]byte, HashSize)
	copy(b, h[:])
	return b
}

// MarshalJSON encodes the hash as a hex string.
func (h Hash) MarshalJSON() ([]byte, error) {
	return json.Marshal(h.String())
}

// UnmarshalJSON decodes a hex string (with or without 0x) into a hash.
func (h *Hash) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*h = Hash{}
		return nil
	}
	parsed, err := HexToHash(s)
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}

// HexToHash converts a 64-digit hex string, optionally 0x-prefixed, to a Hash.
func HexToHash(s string) (Hash, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	b, err := hex.DecodeString(s)
	if err != nil {
		return Hash{}, fmt.Errorf("invalid hex: %w", err)
	}
	if len(b) != HashSize {
		return Hash{}, fmt.Errorf("hash must be %d bytes, got %d", HashSize, len(b))
	}
	var h Hash
	copy(h[:], b)
	return h, nil
}
