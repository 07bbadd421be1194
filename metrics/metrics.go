// Package metrics exposes Prometheus counters for round generation and
// result entry.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "belote"

type Recorder interface {
	RoundGenerated(phase string, matchesCreated int)
	OperationFailed(operation string)
	ResultRecorded()
}

type prometheusRecorder struct {
	roundsGenerated *prometheus.CounterVec
	matchesCreated  *prometheus.CounterVec
	failures        *prometheus.CounterVec
	results         prometheus.Counter
}

// NewPrometheus registers the collectors on reg.
func NewPrometheus(reg prometheus.Registerer) Recorder {
	r := &prometheusRecorder{
		roundsGenerated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rounds_generated_total",
			Help:      "Rounds written to storage, by phase.",
		}, []string{"phase"}),
		matchesCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "matches_created_total",
			Help:      "Matches inserted by round generation, by phase.",
		}, []string{"phase"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operation_failures_total",
			Help:      "Failed tournament operations, by operation.",
		}, []string{"operation"}),
		results: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "match_results_recorded_total",
			Help:      "Match results entered.",
		}),
	}
	reg.MustRegister(r.roundsGenerated, r.matchesCreated, r.failures, r.results)
	return r
}

func (r *prometheusRecorder) RoundGenerated(phase string, matchesCreated int) {
	r.roundsGenerated.WithLabelValues(phase).Inc()
	r.matchesCreated.WithLabelValues(phase).Add(float64(matchesCreated))
}

func (r *prometheusRecorder) OperationFailed(operation string) {
	r.failures.WithLabelValues(operation).Inc()
}

func (r *prometheusRecorder) ResultRecorded() {
	r.results.Inc()
}

type noopRecorder struct{}

func NewNoop() Recorder { return noopRecorder{} }

func (noopRecorder) RoundGenerated(string, int) {}
func (noopRecorder) OperationFailed(string)     {}
func (noopRecorder) ResultRecorded()            {}

func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
