// Package encoding holds the compact text codec used for chunk columns.
package encoding

import (
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
)

var ErrLength = errors.New("decoded length mismatch")

// EncodeRLE packs vals as base64 of (value, run) uvarint pairs.
func EncodeRLE(vals []uint16) string {
	var buf []byte
	for i := 0; i < len(vals); {
		run := 1
		for i+run < len(vals) && vals[i+run] == vals[i] {
			run++
		}
		buf = binary.AppendUvarint(buf, uint64(vals[i]))
		buf = binary.AppendUvarint(buf, uint64(run))
		i += run
	}
	return base64.StdEncoding.EncodeToString(buf)
}

// DecodeRLE decodes a string produced by EncodeRLE. When want > 0 the
// decoded length must equal want; longer inputs fail early instead of
// allocating.
func DecodeRLE(s string, want int) ([]uint16, error) {
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, err
	}
	out := make([]uint16, 0, max(want, 0))
	for i := 0; i < len(raw); {
		v, n := binary.Uvarint(raw[i:])
		if n <= 0 {
			return nil, fmt.Errorf("bad value varint at %d", i)
		}
		i += n
		run, n := binary.Uvarint(raw[i:])
		if n <= 0 || run == 0 {
			return nil, fmt.Errorf("bad run varint at %d", i)
		}
		i += n
		if v > 0xFFFF {
			return nil, fmt.Errorf("value too large: %d", v)
		}
		if want > 0 && uint64(len(out))+run > uint64(want) {
			return nil, ErrLength
		}
		for k := uint64(0); k < run; k++ {
			out = append(out, uint16(v))
		}
	}
	if want > 0 && len(out) != want {
		return nil, ErrLength
	}
	return out, nil
}
