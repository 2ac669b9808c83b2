package bcs

import (
	"encoding/binary"
	"fmt"
)

// MaxSequenceLength is the largest vector length the format admits.
const MaxSequenceLength = 1<<31 - 1

// Encoder appends canonical encodings to an internal buffer. It is not
// safe for concurrent use; Encode is.
type Encoder struct {
	buf []byte
}

// NewEncoder returns an empty Encoder.
func NewEncoder() *Encoder {
	return &Encoder{}
}

// Encode appends the encoding of v. On error the buffer is left as it
// was before the call.
func (e *Encoder) Encode(v Value) error {
	out, err := appendValue(e.buf, v)
	if err != nil {
		return err
	}
	e.buf = out
	return nil
}

// Bytes returns the accumulated encoding.
func (e *Encoder) Bytes() []byte {
	return e.buf
}

// Reset clears the buffer, retaining its capacity.
func (e *Encoder) Reset() {
	e.buf = e.buf[:0]
}

// Encode returns the canonical encoding of v.
func Encode(v Value) ([]byte, error) {
	return appendValue(nil, v)
}

// MustEncode is like Encode but panics on error. Intended for values
// built from constants.
func MustEncode(v Value) []byte {
	b, err := Encode(v)
	if err != nil {
		panic(err)
	}
	return b
}

func appendValue(buf []byte, v Value) ([]byte, error) {
	switch k := v.typ.kind; k {
	case KindBool:
		if v.flag {
			return append(buf, 1), nil
		}
		return append(buf, 0), nil

	case KindU8, KindU16, KindU32, KindU64, KindU128, KindU256:
		if v.num.BitLen() > k.bitWidth() {
			return nil, &EncodeError{
				Type:   k.String(),
				Reason: fmt.Sprintf("value %s does not fit in %d bits", v.num.Dec(), k.bitWidth()),
			}
		}
		return appendUint(buf, k, v), nil

	case KindAddress:
		return append(buf, v.addr[:]...), nil

	case KindVector:
		if len(v.elems) > MaxSequenceLength {
			return nil, &EncodeError{Type: v.typ.String(), Reason: "vector too long"}
		}
		elem := v.typ.Elem()
		buf = AppendULEB128(buf, uint32(len(v.elems)))
		for i, e := range v.elems {
			if !e.typ.Equal(elem) {
				return nil, &EncodeError{
					Type:   v.typ.String(),
					Reason: fmt.Sprintf("element %d has type %s", i, e.typ),
				}
			}
			var err error
			if buf, err = appendValue(buf, e); err != nil {
				return nil, err
			}
		}
		return buf, nil

	case KindStruct:
		for _, f := range v.fields {
			var err error
			if buf, err = appendValue(buf, f.Value); err != nil {
				return nil, fmt.Errorf("field %s: %w", f.Name, err)
			}
		}
		return buf, nil

	case KindOption:
		inner, ok := v.Option()
		if !ok {
			return append(buf, 0), nil
		}
		if !inner.typ.Equal(v.typ.Elem()) {
			return nil, &EncodeError{Type: v.typ.String(), Reason: fmt.Sprintf("payload has type %s", inner.typ)}
		}
		return appendValue(append(buf, 1), inner)

	default:
		return nil, &EncodeError{Type: k.String(), Reason: "invalid value"}
	}
}

// appendUint writes the low bytes of an integer little-endian.
// uint256.Int limbs are little-endian 64-bit words.
func appendUint(buf []byte, k Kind, v Value) []byte {
	switch k {
	case KindU8:
		return append(buf, byte(v.num[0]))
	case KindU16:
		return binary.LittleEndian.AppendUint16(buf, uint16(v.num[0]))
	case KindU32:
		return binary.LittleEndian.AppendUint32(buf, uint32(v.num[0]))
	case KindU64:
		return binary.LittleEndian.AppendUint64(buf, v.num[0])
	case KindU128:
		buf = binary.LittleEndian.AppendUint64(buf, v.num[0])
		return binary.LittleEndian.AppendUint64(buf, v.num[1])
	default:
		for _, limb := range v.num {
			buf = binary.LittleEndian.AppendUint64(buf, limb)
		}
		return buf
	}
}

// AppendULEB128 appends the unsigned LEB128 encoding of n: seven payload
// bits per byte, low group first, top bit set on every byte but the last.
func AppendULEB128(buf []byte, n uint32) []byte {
	for n >= 0x80 {
		buf = append(buf, byte(n)|0x80)
		n >>= 7
	}
	return append(buf, byte(n))
}
