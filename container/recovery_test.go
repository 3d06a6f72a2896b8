package container

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/qcf/errs"
	"github.com/arloliu/qcf/section"
)

// writeAndCut writes events with the given block size and truncates the
// file to cut(blocks, size).
func writeAndCut(t *testing.T, path string, events []scenarioEvent, blockSize int, cut func([]section.BlockIndexEntry, int64) int64) {
	t.Helper()

	writeFile(t, path, events, WithBlockSize(blockSize))

	s, err := OpenRead(path)
	require.NoError(t, err)
	blocks := s.Blocks()
	require.NoError(t, s.Close())

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.NoError(t, os.Truncate(path, cut(blocks, info.Size())))
}

func trailerOffset(t *testing.T, path string) int64 {
	t.Helper()

	data := readBytes(t, path)
	footer, err := section.ParseFooter(data[len(data)-section.FooterSize:])
	require.NoError(t, err)

	return int64(footer.TrailerOffset)
}

func TestRecovery_MissingTrailer(t *testing.T) {
	path := tempFile(t)
	events := makeEvents(5)
	writeFile(t, path, events, WithBlockSize(2))
	require.NoError(t, os.Truncate(path, trailerOffset(t, path)))

	s, err := OpenRead(path)
	require.NoError(t, err)
	require.True(t, s.Recovered())
	require.Equal(t, uint64(5), s.EventCount())
	require.Equal(t, 3, s.BlockCount())
	require.Equal(t, uint64(5), s.FieldStats()[0].Values)
	require.NoError(t, s.Close())

	requireScenarioEvents(t, events, readAll(t, path))
}

func TestRecovery_TruncatedBlock(t *testing.T) {
	path := tempFile(t)
	events := makeEvents(5)
	writeAndCut(t, path, events, 2, func(blocks []section.BlockIndexEntry, _ int64) int64 {
		return int64(blocks[2].Offset) + 5
	})

	s, err := OpenRead(path)
	require.NoError(t, err)
	require.True(t, s.Recovered())
	require.Equal(t, uint64(4), s.EventCount())
	require.NoError(t, s.Close())

	requireScenarioEvents(t, events[:4], readAll(t, path))
}

func TestRecovery_HeaderOnly(t *testing.T) {
	path := tempFile(t)
	writeAndCut(t, path, makeEvents(3), 2, func(blocks []section.BlockIndexEntry, _ int64) int64 {
		return int64(blocks[0].Offset)
	})

	s, err := OpenRead(path)
	require.NoError(t, err)
	defer s.Close()
	require.True(t, s.Recovered())
	require.Zero(t, s.EventCount())
	require.Equal(t, 2, s.NFields())
}

func TestRecovery_Disabled(t *testing.T) {
	path := tempFile(t)
	writeFile(t, path, makeEvents(5), WithBlockSize(2))
	require.NoError(t, os.Truncate(path, trailerOffset(t, path)))

	_, err := OpenRead(path, WithRecovery(false))
	require.ErrorIs(t, err, errs.ErrFormat)
	_, err = OpenAppend(path, WithRecovery(false))
	require.ErrorIs(t, err, errs.ErrFormat)
}

func TestRecovery_AppendRepairs(t *testing.T) {
	path := tempFile(t)
	events := makeEvents(5)
	writeAndCut(t, path, events, 2, func(blocks []section.BlockIndexEntry, _ int64) int64 {
		return int64(blocks[2].Offset) + 5
	})

	s, err := OpenAppend(path)
	require.NoError(t, err)
	require.True(t, s.Recovered())
	a, b := allocateScenario(t, s)
	extra := makeEvents(3)
	writeScenarioEvents(t, s, a, b, extra)
	require.NoError(t, s.Close())

	r, err := OpenRead(path, WithRecovery(false))
	require.NoError(t, err)
	defer r.Close()
	require.False(t, r.Recovered())
	require.Equal(t, uint64(7), r.EventCount())

	want := append(append([]scenarioEvent{}, events[:4]...), extra...)
	requireScenarioEvents(t, want, readAll(t, path))
}

func TestCorruptBlock_StopsAfterValidEvents(t *testing.T) {
	path := tempFile(t)
	events := makeEvents(6)
	writeFile(t, path, events, WithBlockSize(2))

	r, err := OpenRead(path)
	require.NoError(t, err)
	blocks := r.Blocks()
	require.NoError(t, r.Close())

	data := readBytes(t, path)
	data[int(blocks[1].Offset)+section.FrameHeaderSize+3] ^= 0xFF
	require.NoError(t, os.WriteFile(path, data, 0o600))

	obs := &countingObserver{}
	s, err := OpenRead(path, WithObserver(obs))
	require.NoError(t, err)
	defer s.Close()

	cur, err := s.Cursor()
	require.NoError(t, err)
	var got []uint64
	for cur.Next() {
		got = append(got, cur.Event().Number())
	}
	require.ErrorIs(t, cur.Err(), errs.ErrCorruptBlock)
	require.Equal(t, []uint64{0, 1}, got)
	require.Equal(t, 1, obs.corrupt)

	// the block after the damaged one is still reachable
	require.NoError(t, cur.Seek(4))
	require.True(t, cur.Next())
	require.Equal(t, uint64(4), cur.Event().Number())

	var last error
	n := 0
	for ev, err := range s.Events() {
		if err != nil {
			last = err
			break
		}
		require.Equal(t, uint64(n), ev.Number())
		n++
	}
	require.Equal(t, 2, n)
	require.ErrorIs(t, last, errs.ErrCorruptBlock)
}
