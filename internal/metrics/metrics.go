// Package metrics records per-run Prometheus metrics for the pipeline.
//
// Each command run owns a Recorder backed by its own registry. Batch runs
// push the registry to a Pushgateway when one is configured; the serve
// command exposes it on /metrics instead.
package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

const namespace = "perk_events"

// PushJob is the Pushgateway job name.
const PushJob = "perk_events"

// Recorder holds the run's metrics.
type Recorder struct {
	registry *prometheus.Registry

	Scraped      prometheus.Counter
	Dropped      *prometheus.CounterVec
	Upserted     prometheus.Counter
	PerkFailures prometheus.Counter
	DigestEvents prometheus.Gauge
	EmailsSent   prometheus.Counter
	RunDuration  *prometheus.GaugeVec
}

// New creates a Recorder with all metrics registered on a fresh registry.
func New() *Recorder {
	r := &Recorder{registry: prometheus.NewRegistry()}

	r.Scraped = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "scraped_total",
		Help:      "Listing cards extracted.",
	})
	r.Dropped = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "dropped_total",
		Help:      "Records dropped before storage, by reason.",
	}, []string{"reason"})
	r.Upserted = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "upserted_total",
		Help:      "Rows sent to the store.",
	})
	r.PerkFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "perk_failures_total",
		Help:      "Detail pages whose perks could not be extracted.",
	})
	r.DigestEvents = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "digest_events",
		Help:      "Events in the latest digest.",
	})
	r.EmailsSent = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "emails_sent_total",
		Help:      "Digest emails accepted by the provider.",
	})
	r.RunDuration = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "run_duration_seconds",
		Help:      "Wall time of the last run, by command.",
	}, []string{"command"})

	r.registry.MustRegister(
		r.Scraped,
		r.Dropped,
		r.Upserted,
		r.PerkFailures,
		r.DigestEvents,
		r.EmailsSent,
		r.RunDuration,
	)

	return r
}

// Registry exposes the underlying registry, for HTTP handlers and tests.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// AddDropped counts drops per reason.
func (r *Recorder) AddDropped(byReason map[string]int) {
	for reason, n := range byReason {
		r.Dropped.WithLabelValues(reason).Add(float64(n))
	}
}

// ObserveRun records how long command took since start.
func (r *Recorder) ObserveRun(command string, start time.Time) {
	r.RunDuration.WithLabelValues(command).Set(time.Since(start).Seconds())
}

// Push sends the registry to the Pushgateway at url, grouped by command.
func (r *Recorder) Push(ctx context.Context, url, command string) error {
	err := push.New(url, PushJob).
		Gatherer(r.registry).
		Grouping("command", command).
		PushContext(ctx)
	if err != nil {
		return fmt.Errorf("pushing metrics: %w", err)
	}
	return nil
}
