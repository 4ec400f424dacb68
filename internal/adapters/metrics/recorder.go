// Package metrics exports session and transaction counters to Prometheus.
package metrics

import (
	"fmt"
	"net/http"
	"time"

	"github.com/bnema/poolwallet-cli/internal/ports"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "pw"

type Recorder struct {
	registry     *prometheus.Registry
	connects     *prometheus.CounterVec
	transactions *prometheus.CounterVec
	phases       *prometheus.HistogramVec
}

var _ ports.Recorder = (*Recorder)(nil)

// NewRecorder registers the collectors on a private registry.
func NewRecorder() (*Recorder, error) {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		connects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connect_total",
			Help:      "Interactive connect attempts by agent kind and outcome.",
		}, []string{"kind", "outcome"}),
		transactions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transactions_total",
			Help:      "Orchestrated transactions by kind and result reason.",
		}, []string{"kind", "reason"}),
		phases: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "transaction_phase_seconds",
			Help:      "Time from submission to confirmation per transaction phase.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 40, 80, 160},
		}, []string{"phase"}),
	}

	for _, collector := range []prometheus.Collector{r.connects, r.transactions, r.phases} {
		if err := r.registry.Register(collector); err != nil {
			return nil, fmt.Errorf("register collector: %w", err)
		}
	}

	return r, nil
}

func (r *Recorder) ConnectAttempt(kind, outcome string) {
	r.connects.WithLabelValues(kind, outcome).Inc()
}

func (r *Recorder) TransactionFinished(kind, reason string) {
	r.transactions.WithLabelValues(kind, reason).Inc()
}

func (r *Recorder) PhaseDuration(phase string, elapsed time.Duration) {
	r.phases.WithLabelValues(phase).Observe(elapsed.Seconds())
}

func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
