// Package metrics exposes activity and batch counters in Prometheus format.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/maxkimambo/stockctl/internal/activity"
	"github.com/maxkimambo/stockctl/internal/logger"
)

// Metrics holds all Prometheus metrics for stockctl
type Metrics struct {
	Visible         prometheus.Gauge
	EpisodesShown   prometheus.Counter
	VisibleDuration prometheus.Histogram
	Movements       *prometheus.CounterVec

	registry *prometheus.Registry
	clock    clock.Clock

	mu      sync.Mutex
	shownAt time.Time
	showing bool
}

// New creates the metrics and registers them with a fresh registry.
func New(c clock.Clock) *Metrics {
	if c == nil {
		c = clock.New()
	}
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Visible: factory.NewGauge(prometheus.GaugeOpts{
			Name: "stockctl_activity_visible",
			Help: "Whether the busy indicator is currently showing (0 or 1)",
		}),
		EpisodesShown: factory.NewCounter(prometheus.CounterOpts{
			Name: "stockctl_activity_episodes_shown_total",
			Help: "Total number of busy periods long enough to show the indicator",
		}),
		VisibleDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "stockctl_activity_visible_duration_seconds",
			Help:    "Time the busy indicator stayed visible",
			Buckets: prometheus.DefBuckets,
		}),
		Movements: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockctl_movements_total",
				Help: "Total number of stock movements submitted",
			},
			[]string{"result"}, // success, error
		),
		registry: reg,
		clock:    c,
	}
}

// Registry returns the registry holding these metrics.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Attach exports the in-flight count of c and subscribes to its visibility
// transitions. The returned function unsubscribes.
func (m *Metrics) Attach(c *activity.Coordinator) func() {
	inFlight := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "stockctl_activity_in_flight",
		Help: "Number of participating operations currently in flight",
	}, func() float64 { return float64(c.Active()) })
	if err := m.registry.Register(inFlight); err != nil {
		logger.Op.Warnf("In-flight gauge not registered: %v", err)
	}

	unsubscribe := c.Subscribe(m.ObserveVisibility)
	return func() {
		unsubscribe()
		m.registry.Unregister(inFlight)
	}
}

// ObserveVisibility records a busy indicator transition.
func (m *Metrics) ObserveVisibility(visible bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if visible == m.showing {
		return
	}
	m.showing = visible
	if visible {
		m.shownAt = m.clock.Now()
		m.Visible.Set(1)
		m.EpisodesShown.Inc()
		return
	}
	m.Visible.Set(0)
	m.VisibleDuration.Observe(m.clock.Since(m.shownAt).Seconds())
}

// RecordMovement records the outcome of one submitted movement
func (m *Metrics) RecordMovement(success bool) {
	result := "success"
	if !success {
		result = "error"
	}
	m.Movements.WithLabelValues(result).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is cancelled.
func (m *Metrics) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	logger.Op.WithFields(map[string]interface{}{"addr": addr}).Info("Serving metrics")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
