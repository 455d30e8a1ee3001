package chain

import "fmt"

// Uvlq is the unsigned variable-length quantity used throughout box
// serialization: little-endian 7-bit groups, MSB set on every group except
// the last. Encodings are canonical; a decoder rejects padded forms.
type Uvlq uint64

func (u Uvlq) Encode() []byte {
	v := uint64(u)
	out := make([]byte, 0, 10)
	for v >= 0x80 {
		out = append(out, byte(v)|0x80)
		v >>= 7
	}
	out = append(out, byte(v))
	return out
}

func DecodeUvlq(b []byte) (Uvlq, int, error) {
	var v uint64
	var shift uint
	for i := 0; i < len(b); i++ {
		g := b[i]
		if shift == 63 && g > 0x01 {
			return 0, 0, fmt.Errorf("vlq: u64 overflow")
		}
		v |= uint64(g&0x7f) << shift
		if g&0x80 == 0 {
			if i > 0 && g == 0x00 {
				return 0, 0, fmt.Errorf("vlq: non-minimal encoding")
			}
			return Uvlq(v), i + 1, nil
		}
		shift += 7
		if shift > 63 {
			return 0, 0, fmt.Errorf("vlq: u64 overflow")
		}
	}
	return 0, 0, fmt.Errorf("vlq: truncated")
}

// zigzag64 maps a signed value onto the unsigned VLQ domain so that small
// magnitudes of either sign encode short.
func zigzag64(v int64) uint64 {
	// #nosec G115 -- two's-complement bit mapping, not a range conversion.
	return uint64((v << 1) ^ (v >> 63))
}

func unzigzag64(u uint64) int64 {
	// #nosec G115 -- inverse of the zigzag bit mapping above.
	return int64(u>>1) ^ -int64(u&1)
}
