package container

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/qcf/errs"
)

func TestCursor_SeekAndRewind(t *testing.T) {
	path := tempFile(t)
	events := makeEvents(20)
	writeFile(t, path, events, WithBlockSize(3))

	s, err := OpenRead(path)
	require.NoError(t, err)
	defer s.Close()

	cur, err := s.Cursor()
	require.NoError(t, err)

	for _, n := range []uint64{13, 0, 2, 3, 19, 7} {
		require.NoError(t, cur.Seek(n))
		require.True(t, cur.Next())
		ev := cur.Event()
		require.Equal(t, n, ev.Number())
		a, err := ev.Uint("A")
		require.NoError(t, err)
		require.Equal(t, events[n].a, a)
	}

	require.NoError(t, cur.Seek(20))
	require.False(t, cur.Next())
	require.NoError(t, cur.Err())
	require.ErrorIs(t, cur.Seek(21), errs.ErrEventOutOfRange)

	cur.Rewind()
	count := 0
	for ev := range cur.All() {
		require.Equal(t, uint64(count), ev.Number())
		count++
	}
	require.Equal(t, 20, count)
	require.NoError(t, cur.Err())
}

func TestCursor_AllStopsEarly(t *testing.T) {
	path := tempFile(t)
	writeFile(t, path, makeEvents(10), WithBlockSize(4))

	s, err := OpenRead(path)
	require.NoError(t, err)
	defer s.Close()

	cur, err := s.Cursor()
	require.NoError(t, err)
	for ev := range cur.All() {
		if ev.Number() == 4 {
			break
		}
	}
	require.True(t, cur.Next())
	require.Equal(t, uint64(5), cur.Event().Number())

	n := 0
	for _, err := range s.Events() {
		require.NoError(t, err)
		n++
		if n == 3 {
			break
		}
	}
	require.Equal(t, 3, n)
}

func TestCursor_IndependentCursors(t *testing.T) {
	path := tempFile(t)
	writeFile(t, path, makeEvents(9), WithBlockSize(2))

	s, err := OpenRead(path)
	require.NoError(t, err)
	defer s.Close()

	c1, err := s.Cursor()
	require.NoError(t, err)
	c2, err := s.Cursor()
	require.NoError(t, err)
	require.NoError(t, c2.Seek(8))

	require.True(t, c1.Next())
	require.True(t, c2.Next())
	require.Equal(t, uint64(0), c1.Event().Number())
	require.Equal(t, uint64(8), c2.Event().Number())
	require.False(t, c2.Next())
	require.True(t, c1.Next())
	require.Equal(t, uint64(1), c1.Event().Number())
}
