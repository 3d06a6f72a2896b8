// Package quant converts field values to and from fixed-precision integer codes.
//
// A code is the number of resolution steps a value sits away from zero,
// stored as a uint64 bit pattern:
//   - unsigned fields: code = round(v / step), decoded = code * step
//   - signed fields: code = int64 bits of round(v / step), decoded = code * step
//   - float fields: code = int64 bits of round(v / resolution), decoded = code * resolution
//
// Rounding is to the nearest step with halves away from zero, so a decoded
// value never differs from the input by more than half a step. A step of 1
// makes integer fields lossless. A float field with resolution 0 stores the
// IEEE-754 bits unchanged and is lossless too.
//
// Values whose code or decoded value would leave the representable range
// fail with errs.ErrRange instead of wrapping.
package quant

import (
	"fmt"
	"math"
	"math/bits"

	"github.com/arloliu/qcf/errs"
	"github.com/arloliu/qcf/format"
)

// two63 is 2^63 as a float64; int64 holds [-two63, two63).
const two63 = 9223372036854775808.0

// Codec quantizes values of one field kind with one resolution.
//
// The zero value is not usable; create codecs with New.
type Codec struct {
	kind       format.FieldKind
	resolution float64
	step       uint64 // integer kinds only
}

// NormalizeResolution validates a resolution for a field kind and returns the
// value to store.
//
// Integer kinds take a whole-number step; 0 is promoted to 1. Float fields
// take any finite non-negative value, where 0 means lossless.
func NormalizeResolution(kind format.FieldKind, resolution float64) (float64, error) {
	if math.IsNaN(resolution) || math.IsInf(resolution, 0) || resolution < 0 {
		return 0, fmt.Errorf("%w: %v", errs.ErrInvalidResolution, resolution)
	}

	switch kind {
	case format.KindUnsigned, format.KindSigned:
		if resolution == 0 {
			return 1, nil
		}
		if resolution != math.Trunc(resolution) {
			return 0, fmt.Errorf("%w: %s fields need a whole-number resolution, got %v",
				errs.ErrInvalidResolution, kind, resolution)
		}
		if resolution >= two63 {
			return 0, fmt.Errorf("%w: resolution %v exceeds 2^63", errs.ErrInvalidResolution, resolution)
		}

		return resolution, nil
	case format.KindFloat:
		return resolution, nil
	default:
		return 0, fmt.Errorf("%w: unknown field kind %d", errs.ErrInvalidResolution, kind)
	}
}

// New creates a codec for the kind and resolution, normalizing the resolution
// as NormalizeResolution does.
func New(kind format.FieldKind, resolution float64) (Codec, error) {
	res, err := NormalizeResolution(kind, resolution)
	if err != nil {
		return Codec{}, err
	}

	c := Codec{kind: kind, resolution: res}
	if kind != format.KindFloat {
		c.step = uint64(res)
	}

	return c, nil
}

// Kind returns the field kind.
func (c Codec) Kind() format.FieldKind { return c.kind }

// Resolution returns the normalized resolution.
func (c Codec) Resolution() float64 { return c.resolution }

// Lossless reports whether every representable input round-trips exactly.
func (c Codec) Lossless() bool {
	return c.step == 1 || (c.kind == format.KindFloat && c.resolution == 0)
}

// Signed reports whether column bounds should compare codes as int64.
func (c Codec) Signed() bool {
	return c.kind != format.KindUnsigned
}

// Less orders two codes by the values they decode to.
func (c Codec) Less(a, b uint64) bool {
	switch {
	case c.kind == format.KindUnsigned:
		return a < b
	case c.kind == format.KindFloat && c.resolution == 0:
		return math.Float64frombits(a) < math.Float64frombits(b)
	default:
		return int64(a) < int64(b) //nolint:gosec
	}
}

func rangeErr(msg string, args ...any) error {
	return fmt.Errorf("%w: "+msg, append([]any{errs.ErrRange}, args...)...)
}

// EncodeUnsigned quantizes an unsigned integer.
func (c Codec) EncodeUnsigned(v uint64) (uint64, error) {
	switch c.kind {
	case format.KindUnsigned:
		q, r := v/c.step, v%c.step
		if r >= c.step-r {
			q++
		}
		if hi, _ := bits.Mul64(q, c.step); hi != 0 {
			return 0, rangeErr("%d rounds past the uint64 range with step %d", v, c.step)
		}

		return q, nil
	case format.KindSigned:
		if v > math.MaxInt64 {
			return 0, rangeErr("%d overflows a signed field", v)
		}

		return c.EncodeSigned(int64(v))
	default:
		return c.EncodeFloat(float64(v))
	}
}

// EncodeSigned quantizes a signed integer.
func (c Codec) EncodeSigned(v int64) (uint64, error) {
	switch c.kind {
	case format.KindUnsigned:
		if v < 0 {
			return 0, rangeErr("negative value %d for an unsigned field", v)
		}

		return c.EncodeUnsigned(uint64(v))
	case format.KindSigned:
		if c.step == 1 {
			return uint64(v), nil //nolint:gosec
		}

		step := int64(c.step) //nolint:gosec
		q, r := v/step, v%step
		mag := r
		if mag < 0 {
			mag = -mag
		}
		if uint64(mag) >= c.step-uint64(mag) { //nolint:gosec
			if v < 0 {
				q--
			} else {
				q++
			}
		}
		if q > math.MaxInt64/step || q < math.MinInt64/step {
			return 0, rangeErr("%d rounds past the int64 range with step %d", v, step)
		}

		return uint64(q), nil //nolint:gosec
	default:
		return c.EncodeFloat(float64(v))
	}
}

// EncodeFloat quantizes a floating-point value. Integer fields accept floats
// that round to a representable integer step.
func (c Codec) EncodeFloat(v float64) (uint64, error) {
	if c.kind == format.KindFloat && c.resolution == 0 {
		return math.Float64bits(v), nil
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, rangeErr("%v cannot be quantized", v)
	}

	switch c.kind {
	case format.KindUnsigned:
		q := math.Round(v / float64(c.step))
		if q < 0 || q >= 2*two63 {
			return 0, rangeErr("%v is outside the unsigned range", v)
		}
		code := uint64(q)
		if hi, _ := bits.Mul64(code, c.step); hi != 0 {
			return 0, rangeErr("%v rounds past the uint64 range with step %d", v, c.step)
		}

		return code, nil
	case format.KindSigned:
		step := float64(c.step)
		q := math.Round(v / step)
		if q < -two63 || q >= two63 {
			return 0, rangeErr("%v is outside the signed range", v)
		}
		code := int64(q)
		s := int64(c.step) //nolint:gosec
		if code > math.MaxInt64/s || code < math.MinInt64/s {
			return 0, rangeErr("%v rounds past the int64 range with step %d", v, s)
		}

		return uint64(code), nil //nolint:gosec
	default:
		q := math.Round(v / c.resolution)
		if q < -two63 || q >= two63 {
			return 0, rangeErr("%v needs more than 64 bits at resolution %v", v, c.resolution)
		}

		return uint64(int64(q)), nil //nolint:gosec
	}
}

// Uint64 decodes a code and converts the value to uint64 with Go conversion
// semantics (negative signed or float values are not clamped).
func (c Codec) Uint64(code uint64) uint64 {
	switch c.kind {
	case format.KindUnsigned:
		return code * c.step
	case format.KindSigned:
		return uint64(c.Int64(code)) //nolint:gosec
	default:
		f := c.Float64(code)
		if f <= 0 || math.IsNaN(f) {
			return 0
		}
		if f >= 2*two63 {
			return math.MaxUint64
		}

		return uint64(f)
	}
}

// Int64 decodes a code as int64.
func (c Codec) Int64(code uint64) int64 {
	switch c.kind {
	case format.KindUnsigned:
		return int64(code * c.step) //nolint:gosec
	case format.KindSigned:
		return int64(code) * int64(c.step) //nolint:gosec
	default:
		f := c.Float64(code)
		switch {
		case math.IsNaN(f):
			return 0
		case f >= two63:
			return math.MaxInt64
		case f < -two63:
			return math.MinInt64
		default:
			return int64(f)
		}
	}
}

// Float64 decodes a code of any kind as float64.
func (c Codec) Float64(code uint64) float64 {
	switch c.kind {
	case format.KindUnsigned:
		return float64(code * c.step)
	case format.KindSigned:
		return float64(int64(code) * int64(c.step)) //nolint:gosec
	default:
		if c.resolution == 0 {
			return math.Float64frombits(code)
		}

		return float64(int64(code)) * c.resolution //nolint:gosec
	}
}
