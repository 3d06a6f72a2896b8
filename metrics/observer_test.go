package metrics

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/qcf/container"
	"github.com/arloliu/qcf/format"
	"github.com/arloliu/qcf/section"
)

func TestNewObserver_Register(t *testing.T) {
	reg := prometheus.NewRegistry()
	obs, err := NewObserver(reg, "test")
	require.NoError(t, err)
	require.NotNil(t, obs)

	obs.EventWritten()
	obs.BlockWritten(10, 80, 20)

	families, err := reg.Gather()
	require.NoError(t, err)

	names := make(map[string]bool)
	for _, mf := range families {
		names[mf.GetName()] = true
	}
	require.True(t, names["test_qcf_events_written_total"])
	require.True(t, names["test_qcf_blocks_written_total"])
	require.True(t, names["test_qcf_stored_bytes_total"])

	_, err = NewObserver(reg, "test")
	require.Error(t, err, "duplicate registration must fail")
}

func TestNewObserver_NilRegisterer(t *testing.T) {
	obs, err := NewObserver(nil, "")
	require.NoError(t, err)

	obs.EventRejected()
	obs.CorruptBlock()
	obs.Recovered()
	obs.BlockRead(3, 12)

	require.InDelta(t, 1, testutil.ToFloat64(obs.EventsRejected), 0)
	require.InDelta(t, 1, testutil.ToFloat64(obs.CorruptBlocks), 0)
	require.InDelta(t, 1, testutil.ToFloat64(obs.Recoveries), 0)
	require.InDelta(t, 1, testutil.ToFloat64(obs.BlocksRead), 0)
	require.InDelta(t, 12, testutil.ToFloat64(obs.StoredBytes.WithLabelValues("read")), 0)
}

func writeFile(t *testing.T, path string, obs container.Observer, n int) {
	t.Helper()

	s, err := container.Create(path, container.WithObserver(obs), container.WithBlockSize(4))
	require.NoError(t, err)
	a, err := s.AllocateField("A", format.KindUnsigned, 1, "")
	require.NoError(t, err)
	b, err := s.AllocateField("B", format.KindFloat, 0.1, "A")
	require.NoError(t, err)

	for i := range n {
		require.NoError(t, a.AddUint(2))
		require.NoError(t, b.Add(float64(i), float64(i)+0.5))
		require.NoError(t, s.Write())
	}

	require.NoError(t, a.AddUint(2))
	require.NoError(t, b.Add(1))
	require.Error(t, s.Write())
	require.NoError(t, s.Close())
}

func TestObserver_Session(t *testing.T) {
	obs, err := NewObserver(prometheus.NewRegistry(), "")
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "metrics.qcf")
	writeFile(t, path, obs, 10)

	require.InDelta(t, 10, testutil.ToFloat64(obs.EventsWritten), 0)
	require.InDelta(t, 1, testutil.ToFloat64(obs.EventsRejected), 0)
	require.InDelta(t, 3, testutil.ToFloat64(obs.BlocksWritten), 0)
	// 10 events, 3 codes each
	require.InDelta(t, 10*3*8, testutil.ToFloat64(obs.RawBytes), 0)
	require.Greater(t, testutil.ToFloat64(obs.StoredBytes.WithLabelValues("write")), 0.0)

	r, err := container.OpenRead(path, container.WithObserver(obs))
	require.NoError(t, err)
	for _, err := range r.Events() {
		require.NoError(t, err)
	}
	require.NoError(t, r.Close())

	require.InDelta(t, 3, testutil.ToFloat64(obs.BlocksRead), 0)
	require.Zero(t, testutil.ToFloat64(obs.Recoveries))
}

func TestObserver_Recovery(t *testing.T) {
	obs, err := NewObserver(nil, "")
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "recover.qcf")
	writeFile(t, path, container.Observer(obs), 8)

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.NoError(t, os.Truncate(path, info.Size()-section.FooterSize))

	r, err := container.OpenRead(path, container.WithObserver(obs))
	require.NoError(t, err)
	require.True(t, r.Recovered())
	require.Equal(t, uint64(8), r.EventCount())
	require.NoError(t, r.Close())

	require.InDelta(t, 1, testutil.ToFloat64(obs.Recoveries), 0)
}
