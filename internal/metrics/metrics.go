// Package metrics defines the prometheus instrumentation for the agent
// worker. All collectors live on one Registry so the health server can
// expose them without touching the global default registry.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles the worker's collectors.
type Metrics struct {
	Registry *prometheus.Registry

	SessionsActive  prometheus.Gauge
	SessionsStarted prometheus.Counter
	JobsTotal       *prometheus.CounterVec
	StageDuration   *prometheus.HistogramVec
	ProviderErrors  *prometheus.CounterVec
	AssetsTotal     *prometheus.CounterVec
	AssetBytes      prometheus.Counter
}

// New creates and registers all collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),

		SessionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "androfit_sessions_active",
			Help: "Number of agent sessions currently running",
		}),
		SessionsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "androfit_sessions_started_total",
			Help: "Total number of agent sessions started",
		}),
		JobsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "androfit_jobs_total",
			Help: "Jobs processed by outcome",
		}, []string{"outcome"}),
		StageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "androfit_stage_duration_seconds",
			Help:    "Duration of pipeline stages (stt, llm, tts)",
			Buckets: prometheus.DefBuckets,
		}, []string{"stage"}),
		ProviderErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "androfit_provider_errors_total",
			Help: "Provider API failures by stage",
		}, []string{"stage"}),
		AssetsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "androfit_assets_total",
			Help: "Asset download attempts by outcome",
		}, []string{"outcome"}),
		AssetBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "androfit_asset_bytes_total",
			Help: "Total bytes of downloaded assets",
		}),
	}

	m.Registry.MustRegister(
		m.SessionsActive,
		m.SessionsStarted,
		m.JobsTotal,
		m.StageDuration,
		m.ProviderErrors,
		m.AssetsTotal,
		m.AssetBytes,
	)

	return m
}

// Job outcome label values.
const (
	OutcomeOK       = "ok"
	OutcomeFailed   = "failed"
	OutcomeRejected = "rejected"
	OutcomeSkipped  = "skipped"
)
