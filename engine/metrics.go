package engine

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Vaishnavi-Hegde17/enginetwin/model"
)

// MetricsStore holds the latest analyzed reading for the API and exports it
// as Prometheus metrics.
type MetricsStore struct {
	mu     sync.RWMutex
	snap   *model.Snapshot
	result *model.AnalysisResult
	ts     time.Time

	reg          *prometheus.Registry
	up           prometheus.Gauge
	health       prometheus.Gauge
	paramValue   *prometheus.GaugeVec
	paramPct     *prometheus.GaugeVec
	paramScore   *prometheus.GaugeVec
	probability  *prometheus.GaugeVec
	ticks        *prometheus.CounterVec
	anomalies    prometheus.Counter
	pollDuration prometheus.Histogram
	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

// NewMetricsStore creates a store with its own registry.
func NewMetricsStore() *MetricsStore {
	s := &MetricsStore{
		reg: prometheus.NewRegistry(),
		up: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "enginetwin_up",
			Help: "1 once a reading has been analyzed.",
		}),
		health: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "enginetwin_health",
			Help: "Health from the prediction label (0 unknown, 1 normal, 2 warning, 3 critical).",
		}),
		paramValue: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "enginetwin_parameter_value",
			Help: "Latest raw parameter value.",
		}, []string{"param"}),
		paramPct: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "enginetwin_parameter_percent",
			Help: "Latest parameter value on the 0-100 display scale.",
		}, []string{"param"}),
		paramScore: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "enginetwin_parameter_deviation_score",
			Help: "Distance outside the normal band as a fraction of the display scale.",
		}, []string{"param"}),
		probability: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "enginetwin_prediction_probability",
			Help: "Class probability reported with the latest prediction.",
		}, []string{"label"}),
		ticks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "enginetwin_polls_total",
			Help: "Feed polls by outcome.",
		}, []string{"outcome"}),
		anomalies: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "enginetwin_anomalous_readings_total",
			Help: "Readings whose prediction was not NORMAL.",
		}),
		pollDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "enginetwin_poll_duration_seconds",
			Help:    "Time spent polling and analyzing one reading.",
			Buckets: prometheus.DefBuckets,
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "enginetwin_http_requests_total",
			Help: "HTTP requests by route and status.",
		}, []string{"route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "enginetwin_http_request_duration_seconds",
			Help:    "HTTP request durations by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
	}
	s.reg.MustRegister(
		s.up, s.health, s.paramValue, s.paramPct, s.paramScore, s.probability,
		s.ticks, s.anomalies, s.pollDuration, s.httpRequests, s.httpDuration,
	)
	return s
}

// Registry returns the store's Prometheus registry.
func (s *MetricsStore) Registry() *prometheus.Registry {
	return s.reg
}

// Update stores the latest sample and refreshes the gauges.
func (s *MetricsStore) Update(snap *model.Snapshot, result *model.AnalysisResult) {
	switch {
	case snap == nil:
		s.ticks.WithLabelValues("nodata").Inc()
		return
	case result == nil:
		s.ticks.WithLabelValues("error").Inc()
		return
	}
	s.ticks.WithLabelValues("ok").Inc()

	s.mu.Lock()
	s.snap = snap
	s.result = result
	s.ts = time.Now()
	s.mu.Unlock()

	s.up.Set(1)
	s.health.Set(float64(result.Health))
	if result.Anomalous() {
		s.anomalies.Inc()
	}
	for _, p := range result.Parameters {
		s.paramValue.WithLabelValues(p.Name).Set(p.Value)
		if p.HasRange && p.Err == "" {
			s.paramPct.WithLabelValues(p.Name).Set(p.ValuePct)
			s.paramScore.WithLabelValues(p.Name).Set(p.Score)
		}
	}
	s.probability.Reset()
	for label, p := range result.Probabilities {
		s.probability.WithLabelValues(label).Set(p)
	}
}

// Snapshot returns the latest stored sample.
func (s *MetricsStore) Snapshot() (*model.Snapshot, *model.AnalysisResult, time.Time) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap, s.result, s.ts
}

// Handler exposes the registry in the Prometheus text format.
func (s *MetricsStore) Handler() http.Handler {
	return promhttp.HandlerFor(s.reg, promhttp.HandlerOpts{})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// WrapHandler counts requests and their duration under route.
func (s *MetricsStore) WrapHandler(route string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)
		if s != nil {
			s.httpRequests.WithLabelValues(route, strconv.Itoa(rec.status)).Inc()
			s.httpDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
		}
	})
}

// instrumentedTicker updates a metrics store on each tick.
type instrumentedTicker struct {
	inner Ticker
	store *MetricsStore
}

// NewInstrumentedTicker wraps a ticker and updates the metrics store.
func NewInstrumentedTicker(inner Ticker, store *MetricsStore) Ticker {
	return &instrumentedTicker{inner: inner, store: store}
}

func (t *instrumentedTicker) Tick(ctx context.Context) (*model.Snapshot, *model.AnalysisResult) {
	start := time.Now()
	snap, result := t.inner.Tick(ctx)
	t.store.pollDuration.Observe(time.Since(start).Seconds())
	t.store.Update(snap, result)
	return snap, result
}

func (t *instrumentedTicker) Base() *Engine {
	return t.inner.Base()
}
