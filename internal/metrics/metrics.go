// Package metrics exposes Prometheus counters for diary interception.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the interceptor counters. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	hits          prometheus.Counter
	misses        *prometheus.CounterVec
	liveCalls     *prometheus.CounterVec
	recorded      prometheus.Counter
	persistErrors prometheus.Counter
}

// New registers the counters on reg. Passing a fresh registry per
// interceptor keeps tests independent.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		hits: f.NewCounter(prometheus.CounterOpts{
			Name: "sofetch_diary_hits_total",
			Help: "Requests answered from the diary",
		}),
		misses: f.NewCounterVec(prometheus.CounterOpts{
			Name: "sofetch_diary_misses_total",
			Help: "Requests with no matching diary entry",
		}, []string{"strategy"}),
		liveCalls: f.NewCounterVec(prometheus.CounterOpts{
			Name: "sofetch_live_calls_total",
			Help: "Requests passed through to the real transport",
		}, []string{"result"}),
		recorded: f.NewCounter(prometheus.CounterOpts{
			Name: "sofetch_recorded_entries_total",
			Help: "Entries appended to the diary",
		}),
		persistErrors: f.NewCounter(prometheus.CounterOpts{
			Name: "sofetch_persist_errors_total",
			Help: "Failed diary rewrites",
		}),
	}
}

func (m *Metrics) Hit() {
	if m != nil {
		m.hits.Inc()
	}
}

func (m *Metrics) Miss(strategy string) {
	if m != nil {
		m.misses.WithLabelValues(strategy).Inc()
	}
}

// LiveCall counts a pass-through, err marks a transport failure.
func (m *Metrics) LiveCall(err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.liveCalls.WithLabelValues(result).Inc()
}

func (m *Metrics) Recorded() {
	if m != nil {
		m.recorded.Inc()
	}
}

func (m *Metrics) PersistError() {
	if m != nil {
		m.persistErrors.Inc()
	}
}
