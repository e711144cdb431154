package sharedb

import (
	"fmt"
	"io"

	"github.com/VictoriaMetrics/metrics"
)

// storeMetrics is the per-store metrics set, labelled with the store id
// from its persisted record.
type storeMetrics struct {
	set         *metrics.Set
	commits     *metrics.Counter
	aborts      *metrics.Counter
	mutations   *metrics.Counter
	flushes     *metrics.Counter
	autoFlushes *metrics.Counter
}

func newStoreMetrics(id string, buf *writeBuffer) *storeMetrics {
	set := metrics.NewSet()
	name := func(metric string) string {
		return fmt.Sprintf(`sharedb_%s{store=%q}`, metric, id)
	}
	m := &storeMetrics{
		set:         set,
		commits:     set.NewCounter(name("commits_total")),
		aborts:      set.NewCounter(name("aborts_total")),
		mutations:   set.NewCounter(name("mutations_total")),
		flushes:     set.NewCounter(name("flushes_total")),
		autoFlushes: set.NewCounter(name("auto_flushes_total")),
	}
	set.NewGauge(name("pending_writes"), func() float64 {
		return float64(buf.pending)
	})
	return m
}

// WriteMetrics writes the store's metrics in Prometheus text format.
func (s *Store) WriteMetrics(w io.Writer) {
	s.metrics.set.WritePrometheus(w)
}
