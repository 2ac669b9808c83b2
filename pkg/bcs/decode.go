package bcs

import (
	"encoding/binary"
	"fmt"

	"github.com/rooch-network/rooch-go/pkg/types"
)

// Decoder reads values from a byte slice following caller-supplied types.
type Decoder struct {
	buf []byte
	off int
}

// NewDecoder returns a Decoder over b. The slice is not copied.
func NewDecoder(b []byte) *Decoder {
	return &Decoder{buf: b}
}

// Remaining returns the number of unread bytes.
func (d *Decoder) Remaining() int {
	return len(d.buf) - d.off
}

// Decode reads one value of type t.
func (d *Decoder) Decode(t Type) (Value, error) {
	return d.value(t)
}

// Decode parses b as exactly one value of type t. Trailing bytes are an
// error: a canonical encoding has no slack.
func Decode(b []byte, t Type) (Value, error) {
	d := NewDecoder(b)
	v, err := d.value(t)
	if err != nil {
		return Value{}, err
	}
	if d.Remaining() != 0 {
		return Value{}, &DecodeError{
			Offset: d.off,
			Type:   t.String(),
			Reason: fmt.Sprintf("%d trailing bytes", d.Remaining()),
		}
	}
	return v, nil
}

func (d *Decoder) fail(t Type, format string, args ...interface{}) error {
	return &DecodeError{Offset: d.off, Type: t.String(), Reason: fmt.Sprintf(format, args...)}
}

func (d *Decoder) take(t Type, n int) ([]byte, error) {
	if n > d.Remaining() {
		return nil, d.fail(t, "need %d bytes, have %d", n, d.Remaining())
	}
	b := d.buf[d.off : d.off+n]
	d.off += n
	return b, nil
}

func (d *Decoder) value(t Type) (Value, error) {
	switch k := t.kind; k {
	case KindBool:
		b, err := d.take(t, 1)
		if err != nil {
			return Value{}, err
		}
		switch b[0] {
		case 0:
			return Bool(false), nil
		case 1:
			return Bool(true), nil
		default:
			d.off--
			return Value{}, d.fail(t, "invalid bool byte 0x%02x", b[0])
		}

	case KindU8, KindU16, KindU32, KindU64, KindU128, KindU256:
		b, err := d.take(t, k.bitWidth()/8)
		if err != nil {
			return Value{}, err
		}
		v := Value{typ: Type{kind: k}}
		for i := 0; i*8 < len(b); i++ {
			end := i*8 + 8
			if end > len(b) {
				end = len(b)
			}
			var limb [8]byte
			copy(limb[:], b[i*8:end])
			v.num[i] = binary.LittleEndian.Uint64(limb[:])
		}
		return v, nil

	case KindAddress:
		b, err := d.take(t, types.AddressSize)
		if err != nil {
			return Value{}, err
		}
		var a types.Address
		copy(a[:], b)
		return Address(a), nil

	case KindVector:
		n, err := d.ReadULEB128()
		if err != nil {
			return Value{}, d.wrap(t, err)
		}
		elem := t.Elem()
		if size := elem.minSize(); size > 0 && uint64(n)*uint64(size) > uint64(d.Remaining()) {
			return Value{}, d.fail(t, "length %d exceeds remaining %d bytes", n, d.Remaining())
		}
		capHint := int(n)
		if capHint > d.Remaining() {
			capHint = d.Remaining()
		}
		elems := make([]Value, 0, capHint)
		for i := uint32(0); i < n; i++ {
			e, err := d.value(elem)
			if err != nil {
				return Value{}, err
			}
			elems = append(elems, e)
		}
		return Value{typ: t, elems: elems}, nil

	case KindStruct:
		fields := make([]Field, len(t.fields))
		for i, ft := range t.fields {
			fv, err := d.value(ft.Type)
			if err != nil {
				return Value{}, fmt.Errorf("field %s: %w", ft.Name, err)
			}
			fields[i] = Field{Name: ft.Name, Value: fv}
		}
		return Value{typ: t, fields: fields}, nil

	case KindOption:
		flagOff := d.off
		n, err := d.ReadULEB128()
		if err != nil {
			return Value{}, d.wrap(t, err)
		}
		switch n {
		case 0:
			return Value{typ: t}, nil
		case 1:
			inner, err := d.value(t.Elem())
			if err != nil {
				return Value{}, err
			}
			return Value{typ: t, flag: true, elems: []Value{inner}}, nil
		default:
			d.off = flagOff
			return Value{}, d.fail(t, "invalid option flag %d", n)
		}

	default:
		return Value{}, d.fail(t, "cannot decode %s", k)
	}
}

// ReadULEB128 reads a canonical ULEB128 length prefix. Encodings with
// redundant trailing zero groups, and values above MaxSequenceLength, are
// rejected.
func (d *Decoder) ReadULEB128() (uint32, error) {
	var value uint64
	start := d.off
	for shift := uint(0); shift < 35; shift += 7 {
		if d.off >= len(d.buf) {
			d.off = start
			return 0, fmt.Errorf("truncated length prefix")
		}
		b := d.buf[d.off]
		d.off++
		value |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			if b == 0 && shift > 0 {
				d.off = start
				return 0, fmt.Errorf("non-canonical length prefix")
			}
			if value > MaxSequenceLength {
				d.off = start
				return 0, fmt.Errorf("length %d exceeds maximum %d", value, MaxSequenceLength)
			}
			return uint32(value), nil
		}
	}
	d.off = start
	return 0, fmt.Errorf("length prefix overflows 32 bits")
}

func (d *Decoder) wrap(t Type, err error) error {
	return &DecodeError{Offset: d.off, Type: t.String(), Reason: err.Error()}
}
