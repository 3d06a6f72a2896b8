package container

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/qcf/event"
	"github.com/arloliu/qcf/format"
)

// scenarioEvent is one event of the A/B table: A counts the values of B.
type scenarioEvent struct {
	a uint64
	b []float64
}

var scenarioEvents = []scenarioEvent{
	{a: 4, b: []float64{0, 0.25, 0.5, 0.75}},
	{a: 1, b: []float64{6.0}},
}

func tempFile(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "test.qcf")
}

func allocateScenario(t *testing.T, s *Session) (*Field, *Field) {
	t.Helper()

	a, err := s.AllocateField("A", format.KindUnsigned, 1, "")
	require.NoError(t, err)
	b, err := s.AllocateField("B", format.KindFloat, 0.1, "A")
	require.NoError(t, err)

	return a, b
}

func writeScenarioEvents(t *testing.T, s *Session, a, b *Field, events []scenarioEvent) {
	t.Helper()

	for _, ev := range events {
		require.NoError(t, a.AddUint(ev.a))
		require.NoError(t, b.Add(ev.b...))
		require.NoError(t, s.Write())
	}
}

// makeEvents generates n scenario events whose B values vary with i.
func makeEvents(n int) []scenarioEvent {
	out := make([]scenarioEvent, n)
	for i := range out {
		count := uint64(i % 4)
		vals := make([]float64, count)
		for j := range vals {
			vals[j] = float64(i) + float64(j)*0.3
		}
		out[i] = scenarioEvent{a: count, b: vals}
	}

	return out
}

func writeFile(t *testing.T, path string, events []scenarioEvent, opts ...SessionOption) {
	t.Helper()

	s, err := Create(path, opts...)
	require.NoError(t, err)
	a, b := allocateScenario(t, s)
	writeScenarioEvents(t, s, a, b, events)
	require.NoError(t, s.Close())
}

func readAll(t *testing.T, path string, opts ...SessionOption) []event.Event {
	t.Helper()

	s, err := OpenRead(path, opts...)
	require.NoError(t, err)
	defer func() { require.NoError(t, s.Close()) }()

	var out []event.Event
	for ev, err := range s.Events() {
		require.NoError(t, err)
		out = append(out, ev)
	}

	return out
}

func requireScenarioEvents(t *testing.T, want []scenarioEvent, got []event.Event) {
	t.Helper()

	require.Len(t, got, len(want))
	for i, ev := range got {
		require.Equal(t, uint64(i), ev.Number())

		a, err := ev.Uint("A")
		require.NoError(t, err)
		require.Equal(t, want[i].a, a, "event %d", i)

		b, err := ev.Floats("B")
		require.NoError(t, err)
		require.Len(t, b, len(want[i].b), "event %d", i)
		for j := range b {
			require.InDelta(t, want[i].b[j], b[j], 0.05+1e-9, "event %d value %d", i, j)
		}
	}
}

func readBytes(t *testing.T, path string) []byte {
	t.Helper()

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	return data
}
