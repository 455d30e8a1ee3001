package chain

import (
	"bytes"
	"fmt"
	"math"
)

// ConstType tags the serialized form of a register or hardcoded value.
// The numeric values are wire bytes and must not be reordered.
type ConstType uint8

const (
	CONST_TYPE_BOOLEAN       ConstType = 0x01
	CONST_TYPE_INT           ConstType = 0x04
	CONST_TYPE_LONG          ConstType = 0x05
	CONST_TYPE_GROUP_ELEMENT ConstType = 0x07
	CONST_TYPE_BYTES         ConstType = 0x0e
)

func (t ConstType) String() string {
	switch t {
	case CONST_TYPE_BOOLEAN:
		return "boolean"
	case CONST_TYPE_INT:
		return "int"
	case CONST_TYPE_LONG:
		return "long"
	case CONST_TYPE_GROUP_ELEMENT:
		return "group_element"
	case CONST_TYPE_BYTES:
		return "bytes"
	default:
		return fmt.Sprintf("const_type(0x%02x)", uint8(t))
	}
}

// Constant is an immutable typed value as it appears in a register or in a
// stage's hardcoded-value table. Construct through the typed helpers; the
// zero Constant is invalid and fails every getter.
type Constant struct {
	typ ConstType
	n   int64
	raw []byte
}

func BoolConst(v bool) Constant {
	var n int64
	if v {
		n = 1
	}
	return Constant{typ: CONST_TYPE_BOOLEAN, n: n}
}

func IntConst(v int32) Constant {
	return Constant{typ: CONST_TYPE_INT, n: int64(v)}
}

func LongConst(v int64) Constant {
	return Constant{typ: CONST_TYPE_LONG, n: v}
}

func GroupElementConst(point [33]byte) Constant {
	return Constant{typ: CONST_TYPE_GROUP_ELEMENT, raw: append([]byte(nil), point[:]...)}
}

func BytesConst(b []byte) Constant {
	return Constant{typ: CONST_TYPE_BYTES, raw: append([]byte(nil), b...)}
}

func (c Constant) Type() ConstType { return c.typ }

func (c Constant) Bool() (bool, error) {
	if c.typ != CONST_TYPE_BOOLEAN {
		return false, fmt.Errorf("constant: %s is not a boolean", c.typ)
	}
	return c.n != 0, nil
}

func (c Constant) Int() (int32, error) {
	if c.typ != CONST_TYPE_INT {
		return 0, fmt.Errorf("constant: %s is not an int", c.typ)
	}
	// #nosec G115 -- constructor and decoder both bound n to int32.
	return int32(c.n), nil
}

func (c Constant) Long() (int64, error) {
	if c.typ != CONST_TYPE_LONG {
		return 0, fmt.Errorf("constant: %s is not a long", c.typ)
	}
	return c.n, nil
}

func (c Constant) GroupElement() ([33]byte, error) {
	var p [33]byte
	if c.typ != CONST_TYPE_GROUP_ELEMENT {
		return p, fmt.Errorf("constant: %s is not a group element", c.typ)
	}
	copy(p[:], c.raw)
	return p, nil
}

// Bytes returns a copy of the byte-collection payload.
func (c Constant) Bytes() ([]byte, error) {
	if c.typ != CONST_TYPE_BYTES {
		return nil, fmt.Errorf("constant: %s is not a byte collection", c.typ)
	}
	return append([]byte(nil), c.raw...), nil
}

func (c Constant) Equal(other Constant) bool {
	return c.typ == other.typ && c.n == other.n && bytes.Equal(c.raw, other.raw)
}

func (c Constant) Encode() []byte {
	out := make([]byte, 0, 1+len(c.raw)+10)
	out = append(out, byte(c.typ))
	switch c.typ {
	case CONST_TYPE_BOOLEAN:
		if c.n != 0 {
			out = append(out, 0x01)
		} else {
			out = append(out, 0x00)
		}
	case CONST_TYPE_INT, CONST_TYPE_LONG:
		out = append(out, Uvlq(zigzag64(c.n)).Encode()...)
	case CONST_TYPE_GROUP_ELEMENT:
		out = append(out, c.raw...)
	case CONST_TYPE_BYTES:
		out = append(out, Uvlq(len(c.raw)).Encode()...)
		out = append(out, c.raw...)
	}
	return out
}

// DecodeConstant reads one constant from the front of b and reports how many
// bytes it consumed. Padded VLQ forms, out-of-range payloads, and unknown
// type tags are rejected.
func DecodeConstant(b []byte) (Constant, int, error) {
	if len(b) < 1 {
		return Constant{}, 0, fmt.Errorf("constant: empty")
	}
	typ := ConstType(b[0])
	rest := b[1:]
	switch typ {
	case CONST_TYPE_BOOLEAN:
		if len(rest) < 1 {
			return Constant{}, 0, fmt.Errorf("constant: truncated boolean")
		}
		if rest[0] > 0x01 {
			return Constant{}, 0, fmt.Errorf("constant: non-canonical boolean 0x%02x", rest[0])
		}
		return BoolConst(rest[0] == 0x01), 2, nil

	case CONST_TYPE_INT:
		u, used, err := DecodeUvlq(rest)
		if err != nil {
			return Constant{}, 0, fmt.Errorf("constant: int: %w", err)
		}
		v := unzigzag64(uint64(u))
		if v < math.MinInt32 || v > math.MaxInt32 {
			return Constant{}, 0, fmt.Errorf("constant: int out of range")
		}
		// #nosec G115 -- v is range-checked against int32 above.
		return IntConst(int32(v)), 1 + used, nil

	case CONST_TYPE_LONG:
		u, used, err := DecodeUvlq(rest)
		if err != nil {
			return Constant{}, 0, fmt.Errorf("constant: long: %w", err)
		}
		return LongConst(unzigzag64(uint64(u))), 1 + used, nil

	case CONST_TYPE_GROUP_ELEMENT:
		if len(rest) < 33 {
			return Constant{}, 0, fmt.Errorf("constant: truncated group element")
		}
		var p [33]byte
		copy(p[:], rest[:33])
		if err := checkGroupElement(p); err != nil {
			return Constant{}, 0, err
		}
		return GroupElementConst(p), 1 + 33, nil

	case CONST_TYPE_BYTES:
		u, used, err := DecodeUvlq(rest)
		if err != nil {
			return Constant{}, 0, fmt.Errorf("constant: bytes length: %w", err)
		}
		if uint64(u) > MAX_CONSTANT_BYTES {
			return Constant{}, 0, fmt.Errorf("constant: byte collection exceeds %d bytes", MAX_CONSTANT_BYTES)
		}
		n := int(u)
		if len(rest) < used+n {
			return Constant{}, 0, fmt.Errorf("constant: truncated byte collection")
		}
		return BytesConst(rest[used : used+n]), 1 + used + n, nil

	default:
		return Constant{}, 0, fmt.Errorf("constant: unknown type tag 0x%02x", b[0])
	}
}

// checkGroupElement accepts a compressed curve point (0x02/0x03 prefix) or
// the all-zero identity encoding.
func checkGroupElement(p [33]byte) error {
	if p[0] == 0x02 || p[0] == 0x03 {
		return nil
	}
	if p == ([33]byte{}) {
		return nil
	}
	return fmt.Errorf("constant: invalid group element prefix 0x%02x", p[0])
}
