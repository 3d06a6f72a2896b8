// Package metrics exports qcf session activity as Prometheus metrics.
//
// An Observer is passed to sessions with container.WithObserver. One
// Observer may be shared by any number of sessions.
//
//	reg := prometheus.NewRegistry()
//	obs, err := metrics.NewObserver(reg, "myapp")
//	w, err := qcf.Create("run.qcf", container.WithObserver(obs))
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/arloliu/qcf/container"
)

const subsystem = "qcf"

// Observer implements container.Observer with Prometheus collectors.
type Observer struct {
	EventsWritten  prometheus.Counter
	EventsRejected prometheus.Counter
	BlocksWritten  prometheus.Counter
	BlocksRead     prometheus.Counter
	CorruptBlocks  prometheus.Counter
	Recoveries     prometheus.Counter

	RawBytes    prometheus.Counter
	StoredBytes *prometheus.CounterVec
	BlockEvents prometheus.Histogram
}

var _ container.Observer = (*Observer)(nil)

func counter(namespace, name, help string) prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      name,
		Help:      help,
	})
}

// NewObserver creates an Observer and registers its collectors with reg.
//
// A nil reg leaves the collectors unregistered. The namespace prefixes every
// metric name and may be empty.
func NewObserver(reg prometheus.Registerer, namespace string) (*Observer, error) {
	o := &Observer{
		EventsWritten:  counter(namespace, "events_written_total", "Total number of events committed to qcf files"),
		EventsRejected: counter(namespace, "events_rejected_total", "Total number of events rejected by cardinality checks"),
		BlocksWritten:  counter(namespace, "blocks_written_total", "Total number of blocks written"),
		BlocksRead:     counter(namespace, "blocks_read_total", "Total number of blocks decoded"),
		CorruptBlocks:  counter(namespace, "corrupt_blocks_total", "Total number of blocks that failed checksum or decoding"),
		Recoveries:     counter(namespace, "recoveries_total", "Total number of files opened by scanning blocks"),
		RawBytes:       counter(namespace, "raw_bytes_total", "Total size of written codes before encoding"),
		StoredBytes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "stored_bytes_total",
				Help:      "Total size of block payloads after compression",
			},
			[]string{"direction"},
		),
		BlockEvents: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "block_events",
			Help:      "Number of events per written block",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 10),
		}),
	}

	if reg == nil {
		return o, nil
	}

	for _, c := range o.collectors() {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("register qcf metrics: %w", err)
		}
	}

	return o, nil
}

func (o *Observer) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		o.EventsWritten,
		o.EventsRejected,
		o.BlocksWritten,
		o.BlocksRead,
		o.CorruptBlocks,
		o.Recoveries,
		o.RawBytes,
		o.StoredBytes,
		o.BlockEvents,
	}
}

func (o *Observer) EventWritten() { o.EventsWritten.Inc() }

func (o *Observer) EventRejected() { o.EventsRejected.Inc() }

func (o *Observer) BlockWritten(events, rawBytes, storedBytes int) {
	o.BlocksWritten.Inc()
	o.BlockEvents.Observe(float64(events))
	o.RawBytes.Add(float64(rawBytes))
	o.StoredBytes.WithLabelValues("write").Add(float64(storedBytes))
}

func (o *Observer) BlockRead(_, storedBytes int) {
	o.BlocksRead.Inc()
	o.StoredBytes.WithLabelValues("read").Add(float64(storedBytes))
}

func (o *Observer) CorruptBlock() { o.CorruptBlocks.Inc() }

func (o *Observer) Recovered() { o.Recoveries.Inc() }
