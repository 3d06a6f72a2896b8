package quant

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/qcf/errs"
	"github.com/arloliu/qcf/format"
)

func TestNormalizeResolution(t *testing.T) {
	tests := []struct {
		name string
		kind format.FieldKind
		in   float64
		want float64
		err  error
	}{
		{"unsigned zero promoted", format.KindUnsigned, 0, 1, nil},
		{"signed step", format.KindSigned, 10, 10, nil},
		{"unsigned fractional", format.KindUnsigned, 0.5, 0, errs.ErrInvalidResolution},
		{"negative", format.KindFloat, -0.1, 0, errs.ErrInvalidResolution},
		{"nan", format.KindFloat, math.NaN(), 0, errs.ErrInvalidResolution},
		{"inf", format.KindSigned, math.Inf(1), 0, errs.ErrInvalidResolution},
		{"float lossless", format.KindFloat, 0, 0, nil},
		{"float step", format.KindFloat, 0.01, 0.01, nil},
		{"unknown kind", format.FieldKind(9), 1, 0, errs.ErrInvalidResolution},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeResolution(tt.kind, tt.in)
			if tt.err != nil {
				require.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestCodec_FloatWithinHalfResolution(t *testing.T) {
	for _, res := range []float64{0.1, 0.001, 0.5, 2.5, 1e-6} {
		c, err := New(format.KindFloat, res)
		require.NoError(t, err)
		require.False(t, c.Lossless())

		for _, v := range []float64{0, 0.25, -0.25, 0.75, 6.0, -1234.5678, 3.14159, 1e6} {
			code, err := c.EncodeFloat(v)
			require.NoError(t, err)
			require.InDelta(t, v, c.Float64(code), res/2+1e-9*math.Abs(v)+1e-12)
		}
	}
}

func TestCodec_FloatScenarioValues(t *testing.T) {
	c, err := New(format.KindFloat, 0.1)
	require.NoError(t, err)

	for _, v := range []float64{0.0, 0.25, 0.5, 0.75, 6.0} {
		code, err := c.EncodeFloat(v)
		require.NoError(t, err)
		require.InDelta(t, v, c.Float64(code), 0.05+1e-12)
	}
}

func TestCodec_FloatLossless(t *testing.T) {
	c, err := New(format.KindFloat, 0)
	require.NoError(t, err)
	require.True(t, c.Lossless())

	for _, v := range []float64{math.Pi, -0.0, math.Inf(-1), math.MaxFloat64, math.SmallestNonzeroFloat64} {
		code, err := c.EncodeFloat(v)
		require.NoError(t, err)
		require.Equal(t, math.Float64bits(v), math.Float64bits(c.Float64(code)))
	}

	code, err := c.EncodeFloat(math.NaN())
	require.NoError(t, err)
	require.True(t, math.IsNaN(c.Float64(code)))
}

func TestCodec_FloatRange(t *testing.T) {
	c, err := New(format.KindFloat, 1e-3)
	require.NoError(t, err)

	for _, v := range []float64{math.NaN(), math.Inf(1), math.Inf(-1), 1e17, -1e17} {
		_, err := c.EncodeFloat(v)
		require.ErrorIs(t, err, errs.ErrRange, "%v", v)
	}
}

func TestCodec_IntegerLosslessAtStepOne(t *testing.T) {
	u, err := New(format.KindUnsigned, 1)
	require.NoError(t, err)
	require.True(t, u.Lossless())
	require.False(t, u.Signed())

	for _, v := range []uint64{0, 1, 4, 1 << 40, math.MaxUint64} {
		code, err := u.EncodeUnsigned(v)
		require.NoError(t, err)
		require.Equal(t, v, u.Uint64(code))
	}

	s, err := New(format.KindSigned, 1)
	require.NoError(t, err)
	require.True(t, s.Signed())

	for _, v := range []int64{0, -1, 1, math.MinInt64, math.MaxInt64} {
		code, err := s.EncodeSigned(v)
		require.NoError(t, err)
		require.Equal(t, v, s.Int64(code))
	}
}

func TestCodec_IntegerStepRounding(t *testing.T) {
	u, err := New(format.KindUnsigned, 10)
	require.NoError(t, err)

	tests := map[uint64]uint64{0: 0, 4: 0, 5: 10, 14: 10, 15: 20, 99: 100}
	for in, want := range tests {
		code, err := u.EncodeUnsigned(in)
		require.NoError(t, err)
		require.Equal(t, want, u.Uint64(code), "input %d", in)
	}

	s, err := New(format.KindSigned, 4)
	require.NoError(t, err)

	signed := map[int64]int64{0: 0, 1: 0, 2: 4, -2: -4, -1: 0, -5: -4, -6: -8, 7: 8}
	for in, want := range signed {
		code, err := s.EncodeSigned(in)
		require.NoError(t, err)
		require.Equal(t, want, s.Int64(code), "input %d", in)
	}
}

func TestCodec_IntegerRange(t *testing.T) {
	u, err := New(format.KindUnsigned, 1)
	require.NoError(t, err)

	_, err = u.EncodeSigned(-1)
	require.ErrorIs(t, err, errs.ErrRange)
	_, err = u.EncodeFloat(-3)
	require.ErrorIs(t, err, errs.ErrRange)
	_, err = u.EncodeFloat(math.NaN())
	require.ErrorIs(t, err, errs.ErrRange)
	_, err = u.EncodeFloat(1e30)
	require.ErrorIs(t, err, errs.ErrRange)

	u10, err := New(format.KindUnsigned, 10)
	require.NoError(t, err)
	_, err = u10.EncodeUnsigned(math.MaxUint64)
	require.ErrorIs(t, err, errs.ErrRange)

	s, err := New(format.KindSigned, 1)
	require.NoError(t, err)
	_, err = s.EncodeUnsigned(math.MaxUint64)
	require.ErrorIs(t, err, errs.ErrRange)

	s2, err := New(format.KindSigned, 2)
	require.NoError(t, err)
	_, err = s2.EncodeSigned(math.MaxInt64)
	require.ErrorIs(t, err, errs.ErrRange)
}

func TestCodec_CrossKind(t *testing.T) {
	u, err := New(format.KindUnsigned, 1)
	require.NoError(t, err)

	code, err := u.EncodeFloat(4.4)
	require.NoError(t, err)
	require.Equal(t, uint64(4), u.Uint64(code))
	require.InDelta(t, 4.0, u.Float64(code), 0)

	f, err := New(format.KindFloat, 0.5)
	require.NoError(t, err)

	code, err = f.EncodeSigned(-3)
	require.NoError(t, err)
	require.Equal(t, int64(-3), f.Int64(code))
	require.Equal(t, uint64(0), f.Uint64(code))

	code, err = f.EncodeUnsigned(7)
	require.NoError(t, err)
	require.Equal(t, uint64(7), f.Uint64(code))
}

func TestCodec_Less(t *testing.T) {
	u, err := New(format.KindUnsigned, 1)
	require.NoError(t, err)
	require.True(t, u.Less(1, math.MaxUint64))

	s, err := New(format.KindSigned, 1)
	require.NoError(t, err)
	minus, err := s.EncodeSigned(-1)
	require.NoError(t, err)
	require.True(t, s.Less(minus, 0))

	f, err := New(format.KindFloat, 0)
	require.NoError(t, err)
	a, _ := f.EncodeFloat(-2.5)
	b, _ := f.EncodeFloat(-1.0)
	require.True(t, f.Less(a, b))
	require.False(t, f.Less(b, a))
}
