package qcf

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/qcf/container"
	"github.com/arloliu/qcf/errs"
	"github.com/arloliu/qcf/format"
	"github.com/arloliu/qcf/internal/hash"
)

func writeScenario(t *testing.T, path string) {
	t.Helper()

	w, err := Create(path, container.WithCompression(format.CompressionS2))
	require.NoError(t, err)

	a, err := w.AllocateField("A", format.KindUnsigned, 1, "")
	require.NoError(t, err)
	b, err := w.AllocateField("B", format.KindFloat, 0.1, "A")
	require.NoError(t, err)

	require.NoError(t, a.AddUint(4))
	require.NoError(t, b.Add(0, 0.25, 0.5, 0.75))
	require.NoError(t, w.Write())
	require.NoError(t, a.AddUint(1))
	require.NoError(t, b.Add(6.0))
	require.NoError(t, w.Write())
	require.NoError(t, w.Close())
}

func TestCreateOpenReadAll(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenario.qcf")
	writeScenario(t, path)

	r, err := Open(path)
	require.NoError(t, err)
	require.Equal(t, 2, r.NFields())
	require.Equal(t, format.ModeRead, r.Mode())
	require.NoError(t, r.Close())

	events, err := ReadAll(path)
	require.NoError(t, err)
	require.Len(t, events, 2)

	b, err := events[0].Floats("B")
	require.NoError(t, err)
	want := []float64{0, 0.25, 0.5, 0.75}
	for i := range want {
		require.InDelta(t, want[i], b[i], 0.05+1e-9)
	}
	b, err = events[1].Floats("B")
	require.NoError(t, err)
	require.InDeltaSlice(t, []float64{6.0}, b, 0.05)
}

func TestAppend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "append.qcf")
	writeScenario(t, path)

	s, err := Append(path)
	require.NoError(t, err)
	_, err = s.AllocateField("B", format.KindFloat, 0.2, "A")
	require.ErrorIs(t, err, errs.ErrSchemaMismatch)

	a, err := s.Field("A")
	require.NoError(t, err)
	require.NoError(t, a.AddUint(0))
	require.NoError(t, s.Write())
	require.NoError(t, s.Close())

	events, err := ReadAll(path)
	require.NoError(t, err)
	require.Len(t, events, 3)
	n, err := events[2].Len("B")
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestOpenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mode.qcf")

	s, err := OpenFile(path, format.ModeWrite)
	require.NoError(t, err)
	require.Equal(t, format.ModeWrite, s.Mode())
	require.NoError(t, s.Close())

	s, err = OpenFile(path, format.ModeAppend)
	require.NoError(t, err)
	require.Equal(t, format.ModeAppend, s.Mode())
	require.NoError(t, s.Close())

	_, err = ReadAll(filepath.Join(t.TempDir(), "missing.qcf"))
	require.Error(t, err)
}

func TestFieldID(t *testing.T) {
	require.Equal(t, hash.ID("hitTime"), FieldID("hitTime"))
	require.NotEqual(t, FieldID("a"), FieldID("b"))
}
