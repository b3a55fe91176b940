package service

import (
	"context"
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/hugo-lorenzo-mato/quorum-synth/internal/core"
)

// MetricsObserver records synthesis lifecycle events as Prometheus metrics.
type MetricsObserver struct {
	runs         *prometheus.CounterVec
	failures     *prometheus.CounterVec
	duration     prometheus.Histogram
	confidence   prometheus.Histogram
	quality      prometheus.Histogram
	agents       prometheus.Histogram
	clinical     *prometheus.CounterVec
	initialized  prometheus.Gauge
	inflightRuns prometheus.Gauge
}

// NewMetricsObserver registers the synthesis metrics on reg.
// A nil reg uses the default Prometheus registerer.
func NewMetricsObserver(reg prometheus.Registerer) *MetricsObserver {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)

	return &MetricsObserver{
		runs: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quorum_synth",
			Name:      "runs_total",
			Help:      "Total synthesis runs by outcome",
		}, []string{"outcome"}),
		failures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quorum_synth",
			Name:      "failures_total",
			Help:      "Failed synthesis runs by error code",
		}, []string{"code"}),
		duration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "quorum_synth",
			Name:      "run_duration_seconds",
			Help:      "Duration of synthesis runs",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14), // 0.5ms to ~4s
		}),
		confidence: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "quorum_synth",
			Name:      "confidence",
			Help:      "Confidence of synthesized answers",
			Buckets:   prometheus.LinearBuckets(0.1, 0.1, 10),
		}),
		quality: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "quorum_synth",
			Name:      "quality_score",
			Help:      "Quality score of synthesized answers",
			Buckets:   prometheus.LinearBuckets(0.1, 0.1, 10),
		}),
		agents: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "quorum_synth",
			Name:      "participating_agents",
			Help:      "Number of agents contributing to a synthesized answer",
			Buckets:   prometheus.LinearBuckets(1, 1, 8),
		}),
		clinical: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quorum_synth",
			Name:      "clinical_validation_total",
			Help:      "Completed runs by clinical validation flag",
		}, []string{"validated"}),
		initialized: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "quorum_synth",
			Name:      "initialized",
			Help:      "1 once the engine readiness gate has opened",
		}),
		inflightRuns: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "quorum_synth",
			Name:      "inflight_runs",
			Help:      "Synthesis runs currently in progress",
		}),
	}
}

// Notify implements core.Observer.
func (m *MetricsObserver) Notify(_ context.Context, ev core.LifecycleEvent) {
	switch ev.Type {
	case core.EventConsensusStart:
		m.inflightRuns.Inc()
	case core.EventConsensusComplete:
		m.inflightRuns.Dec()
		m.runs.WithLabelValues("success").Inc()
		m.duration.Observe(ev.Duration.Seconds())
		if r := ev.Result; r != nil {
			m.confidence.Observe(r.Confidence)
			m.quality.Observe(r.QualityScore)
			m.agents.Observe(float64(len(r.ParticipatingAgents)))
			if _, ran := r.Metadata[core.MetaClinicalChecks]; ran {
				label := "false"
				if r.ClinicallyValidated {
					label = "true"
				}
				m.clinical.WithLabelValues(label).Inc()
			}
		}
	case core.EventConsensusFailed:
		m.inflightRuns.Dec()
		m.runs.WithLabelValues("failure").Inc()
		m.duration.Observe(ev.Duration.Seconds())
		m.failures.WithLabelValues(errorCode(ev.Err)).Inc()
	case core.EventInitialized:
		m.initialized.Set(1)
	}
}

func errorCode(err error) string {
	var de *core.DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return "unknown"
}

var _ core.Observer = (*MetricsObserver)(nil)
