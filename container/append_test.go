package container

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/qcf/errs"
	"github.com/arloliu/qcf/format"
)

func TestAppend_CountsAndCommentsAdd(t *testing.T) {
	path := tempFile(t)
	first := makeEvents(7)
	second := makeEvents(5)

	s, err := Create(path, WithBlockSize(3))
	require.NoError(t, err)
	a, b := allocateScenario(t, s)
	require.NoError(t, s.AddComment("first run"))
	writeScenarioEvents(t, s, a, b, first)
	require.NoError(t, s.Close())

	r, err := OpenRead(path)
	require.NoError(t, err)
	blocksBefore := r.BlockCount()
	id := r.FileID()
	require.NoError(t, r.Close())

	ap, err := OpenAppend(path, WithBlockSize(100))
	require.NoError(t, err)
	require.Equal(t, uint64(len(first)), ap.EventCount())
	require.Equal(t, 3, ap.BlockSize())

	a, err = ap.AllocateField("A", format.KindUnsigned, 1, "")
	require.NoError(t, err)
	b, err = ap.Field("B")
	require.NoError(t, err)
	require.NoError(t, ap.AddComment("second run"))
	writeScenarioEvents(t, ap, a, b, second)
	require.Equal(t, uint64(len(first)+len(second)), ap.EventCount())
	require.NoError(t, ap.Close())

	r, err = OpenRead(path)
	require.NoError(t, err)
	defer r.Close()
	require.Equal(t, uint64(len(first)+len(second)), r.EventCount())
	require.Equal(t, blocksBefore+2, r.BlockCount())
	require.Equal(t, []string{"first run", "second run"}, r.Comments())
	require.Equal(t, []string{"first run"}, r.HeaderComments())
	require.Equal(t, id, r.FileID())

	requireScenarioEvents(t, append(append([]scenarioEvent{}, first...), second...), readAll(t, path))

	stats := r.FieldStats()
	require.Equal(t, uint64(len(first)+len(second)), stats[0].Values)
}

func TestAppend_SchemaMismatchLeavesFileUntouched(t *testing.T) {
	path := tempFile(t)
	writeFile(t, path, scenarioEvents)
	before := readBytes(t, path)

	cases := []struct {
		name   string
		kind   format.FieldKind
		res    float64
		parent string
	}{
		{"B", format.KindFloat, 0.01, "A"},
		{"B", format.KindSigned, 1, "A"},
		{"B", format.KindFloat, 0.1, ""},
		{"A", format.KindSigned, 1, ""},
		{"C", format.KindUnsigned, 1, ""},
	}
	for _, c := range cases {
		s, err := OpenAppend(path)
		require.NoError(t, err)
		_, err = s.AllocateField(c.name, c.kind, c.res, c.parent)
		require.ErrorIs(t, err, errs.ErrSchemaMismatch, "%+v", c)
		require.NoError(t, s.Close())

		require.Equal(t, before, readBytes(t, path))
	}
}

func TestAppend_NoWritesLeavesFileUntouched(t *testing.T) {
	path := tempFile(t)
	writeFile(t, path, scenarioEvents)
	before := readBytes(t, path)

	s, err := OpenAppend(path)
	require.NoError(t, err)
	a, err := s.Field("A")
	require.NoError(t, err)
	require.NoError(t, a.AddUint(9))
	require.NoError(t, s.Close())

	require.Equal(t, before, readBytes(t, path))
}

func TestAppend_CommentOnly(t *testing.T) {
	path := tempFile(t)
	writeFile(t, path, scenarioEvents)

	s, err := OpenAppend(path)
	require.NoError(t, err)
	require.NoError(t, s.AddComment("note"))
	require.NoError(t, s.Close())

	r, err := OpenRead(path)
	require.NoError(t, err)
	defer r.Close()
	require.Equal(t, []string{"note"}, r.Comments())
	require.Equal(t, 1, r.BlockCount())
	requireScenarioEvents(t, scenarioEvents, readAll(t, path))
}

func TestAppend_RejectedEventNotPersisted(t *testing.T) {
	path := tempFile(t)
	writeFile(t, path, scenarioEvents)

	s, err := OpenAppend(path)
	require.NoError(t, err)
	a, err := s.Field("A")
	require.NoError(t, err)
	require.NoError(t, a.AddUint(2))
	require.ErrorIs(t, s.Write(), errs.ErrCardinality)
	require.NoError(t, s.Close())

	requireScenarioEvents(t, scenarioEvents, readAll(t, path))
}

func TestAppend_Repeated(t *testing.T) {
	path := tempFile(t)
	all := makeEvents(3)
	writeFile(t, path, all, WithBigEndian(), WithCompression(format.CompressionLZ4))

	for round := range 3 {
		batch := makeEvents(round + 2)
		s, err := OpenAppend(path)
		require.NoError(t, err)
		require.True(t, s.BigEndian())
		require.Equal(t, format.CompressionLZ4, s.Compression())
		a, b := allocateScenario(t, s)
		writeScenarioEvents(t, s, a, b, batch)
		require.NoError(t, s.Close())
		all = append(all, batch...)
	}

	requireScenarioEvents(t, all, readAll(t, path))
}
