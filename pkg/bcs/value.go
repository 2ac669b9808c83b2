package bcs

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/holiman/uint256"
	"github.com/rooch-network/rooch-go/pkg/types"
)

// Value is a typed call argument: a tagged union over the Kind variants.
// Build values with the per-variant constructors below; the zero Value is
// invalid and fails to encode.
type Value struct {
	typ    Type
	flag   bool // Bool payload, or presence for Option
	num    uint256.Int
	addr   types.Address
	elems  []Value // Vector elements, or the single Option payload
	fields []Field
}

// Field is a named struct field value.
type Field struct {
	Name  string
	Value Value
}

// Bool returns a bool value.
func Bool(b bool) Value {
	return Value{typ: BoolType(), flag: b}
}

// U8 returns a u8 value.
func U8(v uint8) Value {
	return uintValue(KindU8, uint64(v))
}

// U16 returns a u16 value.
func U16(v uint16) Value {
	return uintValue(KindU16, uint64(v))
}

// U32 returns a u32 value.
func U32(v uint32) Value {
	return uintValue(KindU32, uint64(v))
}

// U64 returns a u64 value.
func U64(v uint64) Value {
	return uintValue(KindU64, v)
}

// U128 returns a u128 value. Values wider than 128 bits are rejected by
// Encode with an EncodeError.
func U128(v *uint256.Int) Value {
	return Uint(KindU128, v)
}

// U256 returns a u256 value.
func U256(v *uint256.Int) Value {
	return Uint(KindU256, v)
}

// Uint returns an integer value of the given kind without checking that v
// fits its width; Encode performs that check.
func Uint(k Kind, v *uint256.Int) Value {
	val := Value{typ: Type{kind: k}}
	if v != nil {
		val.num = *v
	}
	return val
}

func uintValue(k Kind, v uint64) Value {
	val := Value{typ: Type{kind: k}}
	val.num.SetUint64(v)
	return val
}

// Address returns an address value.
func Address(a types.Address) Value {
	return Value{typ: AddressType(), addr: a}
}

// Vector returns vector<elem> holding elems. Every element must have type
// elem; a mismatch is reported by Encode.
func Vector(elem Type, elems ...Value) Value {
	es := make([]Value, len(elems))
	copy(es, elems)
	return Value{typ: VectorType(elem), elems: es}
}

// Bytes returns a vector<u8> holding a copy of b.
func Bytes(b []byte) Value {
	es := make([]Value, len(b))
	for i, c := range b {
		es[i] = U8(c)
	}
	return Value{typ: VectorType(U8Type()), elems: es}
}

// Struct returns a struct value. Field order is the wire order.
func Struct(name string, fields ...Field) Value {
	fs := make([]Field, len(fields))
	ft := make([]FieldType, len(fields))
	for i, f := range fields {
		fs[i] = f
		ft[i] = FieldType{Name: f.Name, Type: f.Value.Type()}
	}
	return Value{typ: Type{kind: KindStruct, name: name, fields: ft}, fields: fs}
}

// Some returns a present option holding v.
func Some(v Value) Value {
	return Value{typ: OptionType(v.Type()), flag: true, elems: []Value{v}}
}

// None returns an absent option of element type elem.
func None(elem Type) Value {
	return Value{typ: OptionType(elem)}
}

// Type returns the schema of v.
func (v Value) Type() Type { return v.typ }

// Kind returns the variant of v.
func (v Value) Kind() Kind { return v.typ.kind }

// AsBool returns the payload of a bool value.
func (v Value) AsBool() (bool, bool) {
	if v.typ.kind != KindBool {
		return false, false
	}
	return v.flag, true
}

// AsUint returns a copy of the payload of an integer value.
func (v Value) AsUint() (*uint256.Int, bool) {
	if !v.typ.kind.IsInteger() {
		return nil, false
	}
	return v.num.Clone(), true
}

// AsUint64 returns the payload of an integer value that fits in 64 bits.
func (v Value) AsUint64() (uint64, bool) {
	if !v.typ.kind.IsInteger() || !v.num.IsUint64() {
		return 0, false
	}
	return v.num.Uint64(), true
}

// AsAddress returns the payload of an address value.
func (v Value) AsAddress() (types.Address, bool) {
	if v.typ.kind != KindAddress {
		return types.Address{}, false
	}
	return v.addr, true
}

// Elems returns a copy of the elements of a vector value.
func (v Value) Elems() []Value {
	if v.typ.kind != KindVector {
		return nil
	}
	es := make([]Value, len(v.elems))
	copy(es, v.elems)
	return es
}

// AsBytes returns the payload of a vector<u8> value.
func (v Value) AsBytes() ([]byte, bool) {
	if v.typ.kind != KindVector || v.typ.Elem().kind != KindU8 {
		return nil, false
	}
	out := make([]byte, len(v.elems))
	for i, e := range v.elems {
		n, ok := e.AsUint64()
		if !ok || n > 0xff {
			return nil, false
		}
		out[i] = byte(n)
	}
	return out, true
}

// Fields returns a copy of the fields of a struct value.
func (v Value) Fields() []Field {
	if v.typ.kind != KindStruct {
		return nil
	}
	fs := make([]Field, len(v.fields))
	copy(fs, v.fields)
	return fs
}

// Field returns the struct field with the given name.
func (v Value) Field(name string) (Value, bool) {
	for _, f := range v.fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return Value{}, false
}

// Option returns the payload of an option value and whether it is present.
func (v Value) Option() (Value, bool) {
	if v.typ.kind != KindOption || !v.flag || len(v.elems) == 0 {
		return Value{}, false
	}
	return v.elems[0], true
}

// Equal reports whether v and o are the same logical value of the same type.
func (v Value) Equal(o Value) bool {
	if !v.typ.Equal(o.typ) {
		return false
	}
	switch v.typ.kind {
	case KindBool:
		return v.flag == o.flag
	case KindU8, KindU16, KindU32, KindU64, KindU128, KindU256:
		return v.num.Eq(&o.num)
	case KindAddress:
		return v.addr == o.addr
	case KindVector:
		if len(v.elems) != len(o.elems) {
			return false
		}
		for i := range v.elems {
			if !v.elems[i].Equal(o.elems[i]) {
				return false
			}
		}
		return true
	case KindStruct:
		if len(v.fields) != len(o.fields) {
			return false
		}
		for i := range v.fields {
			if v.fields[i].Name != o.fields[i].Name || !v.fields[i].Value.Equal(o.fields[i].Value) {
				return false
			}
		}
		return true
	case KindOption:
		a, aok := v.Option()
		b, bok := o.Option()
		if aok != bok {
			return false
		}
		return !aok || a.Equal(b)
	default:
		return false
	}
}

// String renders v for logs and CLI output.
func (v Value) String() string {
	switch v.typ.kind {
	case KindBool:
		return fmt.Sprintf("%t", v.flag)
	case KindU8, KindU16, KindU32, KindU64, KindU128, KindU256:
		return v.num.Dec()
	case KindAddress:
		return v.addr.ShortString()
	case KindVector:
		if b, ok := v.AsBytes(); ok {
			return fmt.Sprintf("0x%x", b)
		}
		parts := make([]string, len(v.elems))
		for i, e := range v.elems {
			parts[i] = e.String()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case KindStruct:
		var buf bytes.Buffer
		buf.WriteString("{")
		for i, f := range v.fields {
			if i > 0 {
				buf.WriteString(", ")
			}
			buf.WriteString(f.Name)
			buf.WriteString(": ")
			buf.WriteString(f.Value.String())
		}
		buf.WriteString("}")
		return buf.String()
	case KindOption:
		if inner, ok := v.Option(); ok {
			return "some(" + inner.String() + ")"
		}
		return "none"
	default:
		return "<invalid>"
	}
}
