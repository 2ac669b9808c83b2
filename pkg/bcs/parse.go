package bcs

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	"github.com/holiman/uint256"
	"github.com/rooch-network/rooch-go/pkg/types"
)

const optionTypePrefix = "0x1::option::Option<"

// ParseType parses a Move type tag for the non-struct kinds:
// bool, u8..u256, address, vector<T> and 0x1::option::Option<T>.
func ParseType(s string) (Type, error) {
	s = strings.TrimSpace(s)
	switch s {
	case "bool":
		return BoolType(), nil
	case "u8":
		return U8Type(), nil
	case "u16":
		return U16Type(), nil
	case "u32":
		return U32Type(), nil
	case "u64":
		return U64Type(), nil
	case "u128":
		return U128Type(), nil
	case "u256":
		return U256Type(), nil
	case "address":
		return AddressType(), nil
	}

	if inner, ok := cutGeneric(s, "vector<"); ok {
		elem, err := ParseType(inner)
		if err != nil {
			return Type{}, err
		}
		return VectorType(elem), nil
	}
	for _, prefix := range []string{optionTypePrefix, "option<"} {
		if inner, ok := cutGeneric(s, prefix); ok {
			elem, err := ParseType(inner)
			if err != nil {
				return Type{}, err
			}
			return OptionType(elem), nil
		}
	}
	return Type{}, fmt.Errorf("bcs: unsupported type tag %q", s)
}

func cutGeneric(s, prefix string) (string, bool) {
	if !strings.HasPrefix(s, prefix) || !strings.HasSuffix(s, ">") {
		return "", false
	}
	return s[len(prefix) : len(s)-1], true
}

// ParseValue converts text to a value of type t. Integers accept decimal
// or 0x hex, addresses any form types.ParseAddress accepts, vector<u8>
// accepts 0x hex, other vectors a bracketed comma list, and options
// "none", "some(<v>)" or a bare payload.
func ParseValue(t Type, s string) (Value, error) {
	s = strings.TrimSpace(s)
	switch k := t.kind; k {
	case KindBool:
		switch s {
		case "true":
			return Bool(true), nil
		case "false":
			return Bool(false), nil
		}
		return Value{}, &EncodeError{Type: t.String(), Reason: fmt.Sprintf("invalid bool %q", s)}

	case KindU8, KindU16, KindU32, KindU64, KindU128, KindU256:
		n, ok := new(big.Int).SetString(s, 0)
		if !ok || n.Sign() < 0 {
			return Value{}, &EncodeError{Type: t.String(), Reason: fmt.Sprintf("invalid unsigned integer %q", s)}
		}
		if n.BitLen() > k.bitWidth() {
			return Value{}, &EncodeError{Type: t.String(), Reason: fmt.Sprintf("value %s does not fit in %d bits", s, k.bitWidth())}
		}
		u, _ := uint256.FromBig(n)
		return Uint(k, u), nil

	case KindAddress:
		a, err := types.ParseAddress(s)
		if err != nil {
			return Value{}, &EncodeError{Type: t.String(), Reason: err.Error()}
		}
		return Address(a), nil

	case KindVector:
		elem := t.Elem()
		if elem.kind == KindU8 && strings.HasPrefix(s, "0x") {
			b, err := hex.DecodeString(s[2:])
			if err != nil {
				return Value{}, &EncodeError{Type: t.String(), Reason: fmt.Sprintf("invalid hex: %v", err)}
			}
			return Bytes(b), nil
		}
		if !strings.HasPrefix(s, "[") || !strings.HasSuffix(s, "]") {
			return Value{}, &EncodeError{Type: t.String(), Reason: "expected [a, b, ...]"}
		}
		if elem.kind == KindVector || elem.kind == KindStruct || elem.kind == KindOption {
			return Value{}, &EncodeError{Type: t.String(), Reason: "nested collections are not supported in text form"}
		}
		body := strings.TrimSpace(s[1 : len(s)-1])
		if body == "" {
			return Vector(elem), nil
		}
		var elems []Value
		for _, part := range strings.Split(body, ",") {
			e, err := ParseValue(elem, part)
			if err != nil {
				return Value{}, err
			}
			elems = append(elems, e)
		}
		return Vector(elem, elems...), nil

	case KindOption:
		if s == "none" || s == "" {
			return None(t.Elem()), nil
		}
		if strings.HasPrefix(s, "some(") && strings.HasSuffix(s, ")") {
			s = s[len("some(") : len(s)-1]
		}
		inner, err := ParseValue(t.Elem(), s)
		if err != nil {
			return Value{}, err
		}
		return Some(inner), nil

	default:
		return Value{}, &EncodeError{Type: t.String(), Reason: "no text form"}
	}
}
