package types

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcutil/bech32"
)

// AddressSize is the length of a Rooch account address in bytes.
const AddressSize = 32

// RoochHRP is the human-readable part of bech32m-encoded Rooch addresses.
const RoochHRP = "rooch"

// Address is a 256-bit Rooch account address.
type Address [AddressSize]byte

// IsZero returns true if the address is all zeros.
func (a Address) IsZero() bool {
	return a == Address{}
}

// String returns the full 0x-prefixed hex form (64 hex digits).
func (a Address) String() string {
	return "0x" + hex.EncodeToString(a[:])
}

// Hex returns the raw hex-encoded address without prefix.
func (a Address) Hex() string {
	return hex.EncodeToString(a[:])
}

// ShortString returns the 0x-prefixed hex form with leading zeros
// trimmed, e.g. "0x3" for the framework address.
func (a Address) ShortString() string {
	s := strings.TrimLeft(hex.EncodeToString(a[:]), "0")
	if s == "" {
		s = "0"
	}
	return "0x" + s
}

// Bech32 returns the bech32m-encoded address (e.g. "rooch1...").
func (a Address) Bech32() string {
	conv, err := bech32.ConvertBits(a[:], 8, 5, true)
	if err != nil {
		// 8->5 conversion with padding cannot fail on a fixed-size input.
		return a.String()
	}
	s, err := bech32.EncodeM(RoochHRP, conv)
	if err != nil {
		return a.String()
	}
	return s
}

// Bytes returns a copy of the address as a byte slice.
func (a Address) Bytes() []byte {
	b := make([]byte, AddressSize)
	copy(b, a[:])
	return b
}

// MarshalJSON encodes the address as a 0x-prefixed hex string.
func (a Address) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

// UnmarshalJSON decodes a hex or bech32m string into an address.
func (a *Address) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*a = Address{}
		return nil
	}
	parsed, err := ParseAddress(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// ParseAddress parses a Rooch address.
// Accepts: bech32m ("rooch1..."), 0x-prefixed hex of up to 64 digits
// (short forms such as "0x3" are left-padded), or raw 64-digit hex.
func ParseAddress(s string) (Address, error) {
	if s == "" {
		return Address{}, fmt.Errorf("empty address")
	}

	if strings.HasPrefix(strings.ToLower(s), RoochHRP+"1") {
		return parseBech32Address(s)
	}

	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		return parseShortHex(s[2:])
	}

	return HexToAddress(s)
}

// MustParseAddress is like ParseAddress but panics on error.
// Intended for well-known constants.
func MustParseAddress(s string) Address {
	a, err := ParseAddress(s)
	if err != nil {
		panic(fmt.Sprintf("types: invalid address %q: %v", s, err))
	}
	return a
}

// HexToAddress converts a raw 64-digit hex string to an Address.
// For user-facing input that may be prefixed or shortened, use ParseAddress.
func HexToAddress(s string) (Address, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return Address{}, fmt.Errorf("invalid hex: %w", err)
	}
	if len(b) != AddressSize {
		return Address{}, fmt.Errorf("address must be %d bytes, got %d", AddressSize, len(b))
	}
	var a Address
	copy(a[:], b)
	return a, nil
}

// AddressFromBytes copies a 32-byte slice into an Address.
func AddressFromBytes(b []byte) (Address, error) {
	if len(b) != AddressSize {
		return Address{}, fmt.Errorf("address must be %d bytes, got %d", AddressSize, len(b))
	}
	var a Address
	copy(a[:], b)
	return a, nil
}

func parseShortHex(digits string) (Address, error) {
	if digits == "" {
		return Address{}, fmt.Errorf("empty hex address")
	}
	if len(digits) > AddressSize*2 {
		return Address{}, fmt.Errorf("hex address too long: %d digits, max %d", len(digits), AddressSize*2)
	}
	padded := strings.Repeat("0", AddressSize*2-len(digits)) + digits
	return HexToAddress(padded)
}

func parseBech32Address(s string) (Address, error) {
	hrp, data, version, err := bech32.DecodeGeneric(s)
	if err != nil {
		return Address{}, fmt.Errorf("invalid bech32 address: %w", err)
	}
	if hrp != RoochHRP {
		return Address{}, fmt.Errorf("unexpected address prefix %q, want %q", hrp, RoochHRP)
	}
	if version != bech32.VersionM {
		return Address{}, fmt.Errorf("rooch addresses must use bech32m checksum")
	}
	raw, err := bech32.ConvertBits(data, 5, 8, false)
	if err != nil {
		return Address{}, fmt.Errorf("invalid bech32 payload: %w", err)
	}
	return AddressFromBytes(raw)
}
