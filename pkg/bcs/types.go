// Package bcs implements the canonical binary encoding used for Move call
// arguments and return values.
//
// The wire format carries no type information: decoding is directed by a
// Type supplied by the caller. Integers are little-endian fixed width,
// sequence lengths and option flags are ULEB128, struct fields follow each
// other in declaration order, and every logical value has exactly one
// valid encoding.
package bcs

import (
	"fmt"
	"strings"
)

// Kind identifies the variant of a Type or Value.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindBool
	KindU8
	KindU16
	KindU32
	KindU64
	KindU128
	KindU256
	KindAddress
	KindVector
	KindStruct
	KindOption
)

var kindNames = [...]string{
	KindInvalid: "invalid",
	KindBool:    "bool",
	KindU8:      "u8",
	KindU16:     "u16",
	KindU32:     "u32",
	KindU64:     "u64",
	KindU128:    "u128",
	KindU256:    "u256",
	KindAddress: "address",
	KindVector:  "vector",
	KindStruct:  "struct",
	KindOption:  "option",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// IsInteger reports whether k is one of the unsigned integer kinds.
func (k Kind) IsInteger() bool {
	return k >= KindU8 && k <= KindU256
}

// bitWidth returns the width in bits of an integer kind.
func (k Kind) bitWidth() int {
	switch k {
	case KindU8:
		return 8
	case KindU16:
		return 16
	case KindU32:
		return 32
	case KindU64:
		return 64
	case KindU128:
		return 128
	case KindU256:
		return 256
	default:
		return 0
	}
}

// Type is the schema of a Value. Types are immutable once built.
type Type struct {
	kind   Kind
	elem   *Type
	name   string
	fields []FieldType
}

// FieldType is a named struct field in a Type.
type FieldType struct {
	Name string
	Type Type
}

func BoolType() Type    { return Type{kind: KindBool} }
func U8Type() Type      { return Type{kind: KindU8} }
func U16Type() Type     { return Type{kind: KindU16} }
func U32Type() Type     { return Type{kind: KindU32} }
func U64Type() Type     { return Type{kind: KindU64} }
func U128Type() Type    { return Type{kind: KindU128} }
func U256Type() Type    { return Type{kind: KindU256} }
func AddressType() Type { return Type{kind: KindAddress} }

// VectorType returns vector<elem>.
func VectorType(elem Type) Type {
	e := elem
	return Type{kind: KindVector, elem: &e}
}

// OptionType returns option<elem>.
func OptionType(elem Type) Type {
	e := elem
	return Type{kind: KindOption, elem: &e}
}

// StructType returns a struct schema. The name is informational (it is
// never serialized); the field order is the wire contract.
func StructType(name string, fields ...FieldType) Type {
	fs := make([]FieldType, len(fields))
	copy(fs, fields)
	return Type{kind: KindStruct, name: name, fields: fs}
}

// IntegerType returns the Type for an integer kind.
func IntegerType(k Kind) (Type, error) {
	if !k.IsInteger() {
		return Type{}, fmt.Errorf("bcs: %s is not an integer kind", k)
	}
	return Type{kind: k}, nil
}

// Kind returns the variant of t.
func (t Type) Kind() Kind { return t.kind }

// Elem returns the element type of a vector or option. It returns the
// zero Type for other kinds.
func (t Type) Elem() Type {
	if t.elem == nil {
		return Type{}
	}
	return *t.elem
}

// Name returns the struct name, or "" for non-struct types.
func (t Type) Name() string { return t.name }

// Fields returns a copy of the struct field schema.
func (t Type) Fields() []FieldType {
	fs := make([]FieldType, len(t.fields))
	copy(fs, t.fields)
	return fs
}

// Equal reports whether two types describe the same wire shape and name.
func (t Type) Equal(o Type) bool {
	if t.kind != o.kind {
		return false
	}
	switch t.kind {
	case KindVector, KindOption:
		return t.Elem().Equal(o.Elem())
	case KindStruct:
		if t.name != o.name || len(t.fields) != len(o.fields) {
			return false
		}
		for i := range t.fields {
			if t.fields[i].Name != o.fields[i].Name || !t.fields[i].Type.Equal(o.fields[i].Type) {
				return false
			}
		}
		return true
	default:
		return true
	}
}

// String renders the Move type tag, e.g. "vector<u8>".
func (t Type) String() string {
	switch t.kind {
	case KindVector:
		return "vector<" + t.Elem().String() + ">"
	case KindOption:
		return "0x1::option::Option<" + t.Elem().String() + ">"
	case KindStruct:
		if t.name != "" {
			return t.name
		}
		names := make([]string, len(t.fields))
		for i, f := range t.fields {
			names[i] = f.Name + ": " + f.Type.String()
		}
		return "struct{" + strings.Join(names, ", ") + "}"
	default:
		return t.kind.String()
	}
}

// minSize is the smallest number of bytes any value of t encodes to.
// Used to reject length prefixes that cannot fit in the remaining buffer.
func (t Type) minSize() int {
	switch t.kind {
	case KindBool, KindU8:
		return 1
	case KindU16:
		return 2
	case KindU32:
		return 4
	case KindU64:
		return 8
	case KindU128:
		return 16
	case KindU256:
		return 32
	case KindAddress:
		return 32
	case KindVector, KindOption:
		return 1
	case KindStruct:
		n := 0
		for _, f := range t.fields {
			n += f.Type.minSize()
		}
		return n
	default:
		return 0
	}
}
