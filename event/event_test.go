package event

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/qcf/errs"
	"github.com/arloliu/qcf/field"
	"github.com/arloliu/qcf/format"
)

func scenarioTable(t *testing.T) *field.Table {
	t.Helper()

	tbl := field.NewTable()
	_, err := tbl.Allocate("A", format.KindUnsigned, 1, "")
	require.NoError(t, err)
	_, err = tbl.Allocate("B", format.KindFloat, 0.1, "A")
	require.NoError(t, err)

	return tbl
}

func TestAssembler_Commit(t *testing.T) {
	tbl := scenarioTable(t)
	a := NewAssembler(tbl)
	require.Equal(t, StateEmpty, a.State())

	require.NoError(t, a.Add(0, 2))
	require.Equal(t, StateFilling, a.State())
	require.Equal(t, uint64(2), a.Cardinality(1))
	require.NoError(t, a.Add(1, 5))
	require.NoError(t, a.Add(1, 7))
	require.Equal(t, []uint64{5, 7}, a.Pending(1))

	cols, err := a.Commit()
	require.NoError(t, err)
	require.Equal(t, StateCommitted, a.State())
	require.Equal(t, Columns{{2}, {5, 7}}, cols)
	require.Nil(t, a.Pending(0))

	// next event starts clean
	require.NoError(t, a.Add(0, 0))
	require.Equal(t, StateFilling, a.State())
	cols, err = a.Commit()
	require.NoError(t, err)
	require.Equal(t, []uint64{0}, cols[0])
	require.Empty(t, cols[1])
}

func TestAssembler_CardinalityMismatch(t *testing.T) {
	tbl := scenarioTable(t)
	_, err := tbl.Allocate("C", format.KindSigned, 1, "")
	require.NoError(t, err)
	a := NewAssembler(tbl)

	require.NoError(t, a.Add(0, 3))
	require.NoError(t, a.Add(1, 1, 2))

	_, err = a.Commit()
	require.ErrorIs(t, err, errs.ErrCardinality)
	require.Contains(t, err.Error(), "B has 2 values, want 3")
	require.Contains(t, err.Error(), "C has 0 values, want 1")
	require.NotContains(t, err.Error(), "A has")

	// the failed event is gone
	require.Equal(t, StateEmpty, a.State())
	require.Nil(t, a.Pending(1))

	require.NoError(t, a.Add(0, 1))
	require.NoError(t, a.Add(1, 4))
	require.NoError(t, a.Add(2, 9))
	cols, err := a.Commit()
	require.NoError(t, err)
	require.Equal(t, Columns{{1}, {4}, {9}}, cols)
}

func TestAssembler_EmptyCommitAndDiscard(t *testing.T) {
	a := NewAssembler(scenarioTable(t))

	_, err := a.Commit()
	require.ErrorIs(t, err, errs.ErrCardinality)

	require.NoError(t, a.Add(0, 1))
	a.Discard()
	require.Equal(t, StateEmpty, a.State())
	_, err = a.Commit()
	require.ErrorIs(t, err, errs.ErrCardinality)

	require.ErrorIs(t, a.Add(5, 1), errs.ErrUnknownField)
	require.ErrorIs(t, a.Add(-1, 1), errs.ErrUnknownField)
}

func TestAssembler_LateField(t *testing.T) {
	tbl := scenarioTable(t)
	a := NewAssembler(tbl)

	_, err := tbl.Allocate("C", format.KindUnsigned, 1, "")
	require.NoError(t, err)
	require.NoError(t, a.Add(0, 0))
	require.NoError(t, a.Add(2, 8))

	cols, err := a.Commit()
	require.NoError(t, err)
	require.Len(t, cols, 3)
}

func TestState_String(t *testing.T) {
	require.Equal(t, "Empty", StateEmpty.String())
	require.Equal(t, "Filling", StateFilling.String())
	require.Equal(t, "Committed", StateCommitted.String())
	require.Equal(t, "Unknown", State(9).String())
}

func TestEvent_Accessors(t *testing.T) {
	tbl := scenarioTable(t)
	_, err := tbl.Allocate("S", format.KindSigned, 1, "")
	require.NoError(t, err)

	b := tbl.At(1).Codec()
	codes := make([]uint64, 0, 2)
	for _, v := range []float64{0.5, 6.0} {
		c, err := b.EncodeFloat(v)
		require.NoError(t, err)
		codes = append(codes, c)
	}
	s, err := tbl.At(2).Codec().EncodeSigned(-3)
	require.NoError(t, err)

	ev := New(7, tbl, [][]uint64{{2}, codes, {s}})
	require.Equal(t, uint64(7), ev.Number())
	require.Equal(t, []string{"A", "B", "S"}, ev.Fields())

	n, err := ev.Len("B")
	require.NoError(t, err)
	require.Equal(t, 2, n)

	a, err := ev.Uint("A")
	require.NoError(t, err)
	require.Equal(t, uint64(2), a)

	i, err := ev.Int("S")
	require.NoError(t, err)
	require.Equal(t, int64(-3), i)

	f, err := ev.Float("A")
	require.NoError(t, err)
	require.InDelta(t, 2.0, f, 0)

	fs, err := ev.Floats("B")
	require.NoError(t, err)
	require.InDeltaSlice(t, []float64{0.5, 6.0}, fs, 0.05)

	vs, err := ev.Values("B")
	require.NoError(t, err)
	require.Equal(t, fs, vs)

	us, err := ev.Uints("A")
	require.NoError(t, err)
	require.Equal(t, []uint64{2}, us)

	is, err := ev.Ints("S")
	require.NoError(t, err)
	require.Equal(t, []int64{-3}, is)

	_, err = ev.Float("B")
	require.ErrorIs(t, err, errs.ErrCardinality)
	_, err = ev.Uint("missing")
	require.ErrorIs(t, err, errs.ErrUnknownField)

	m := ev.Map()
	require.Equal(t, uint64(2), m["A"])
	require.Equal(t, int64(-3), m["S"])
	require.InDeltaSlice(t, []float64{0.5, 6.0}, m["B"], 0.05)
	require.Equal(t, codes, ev.Codes(1))
}

func TestEvent_Zero(t *testing.T) {
	var ev Event
	require.Empty(t, ev.Fields())
	require.Empty(t, ev.Map())
	_, err := ev.Len("A")
	require.ErrorIs(t, err, errs.ErrUnknownField)
}
