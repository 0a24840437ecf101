package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds all Prometheus metrics. A nil *Registry is valid and
// turns every observation into a no-op, so instrumented components do
// not need to care whether metrics are enabled.
type Registry struct {
	*prometheus.Registry

	fetchesTotal   *prometheus.CounterVec
	fetchDuration  *prometheus.HistogramVec
	fallbacksTotal prometheus.Counter
	runsTotal      prometheus.Counter
	runDuration    prometheus.Histogram
	tickersFailed  prometheus.Gauge
}

// NewRegistry creates a new metrics registry with all metrics registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	// Register Go runtime metrics
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &Registry{
		Registry: reg,

		fetchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "screener_fetches_total",
				Help: "Total number of provider fetches by outcome",
			},
			[]string{"provider", "status"},
		),
		fetchDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "screener_fetch_duration_seconds",
				Help:    "Provider fetch duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"provider"},
		),
		fallbacksTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "screener_fallbacks_total",
				Help: "Total number of tickers re-fetched from the fallback provider",
			},
		),
		runsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "screener_runs_total",
				Help: "Total number of screening runs completed",
			},
		),
		runDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "screener_run_duration_seconds",
				Help:    "Screening run duration in seconds",
				Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
			},
		),
		tickersFailed: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "screener_tickers_failed",
				Help: "Tickers that failed both providers in the last run",
			},
		),
	}

	reg.MustRegister(r.fetchesTotal)
	reg.MustRegister(r.fetchDuration)
	reg.MustRegister(r.fallbacksTotal)
	reg.MustRegister(r.runsTotal)
	reg.MustRegister(r.runDuration)
	reg.MustRegister(r.tickersFailed)

	return r
}

// ObserveFetch records one provider fetch outcome and its duration.
func (r *Registry) ObserveFetch(provider, status string, seconds float64) {
	if r == nil {
		return
	}
	r.fetchesTotal.WithLabelValues(provider, status).Inc()
	r.fetchDuration.WithLabelValues(provider).Observe(seconds)
}

// IncFallback counts one ticker handed to the fallback provider.
func (r *Registry) IncFallback() {
	if r == nil {
		return
	}
	r.fallbacksTotal.Inc()
}

// ObserveRun records one completed run.
func (r *Registry) ObserveRun(seconds float64, failedTickers int) {
	if r == nil {
		return
	}
	r.runsTotal.Inc()
	r.runDuration.Observe(seconds)
	r.tickersFailed.Set(float64(failedTickers))
}

// Handler returns an HTTP handler for scraping this registry.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.Registry, promhttp.HandlerOpts{})
}
