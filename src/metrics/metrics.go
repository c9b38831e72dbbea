package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	metricPrefix = "energy_forecast_"

	ResultHit  = "hit"
	ResultMiss = "miss"

	ResultStored  = "stored"
	ResultSkipped = "skipped"
	ResultError   = "error"

	ResultOK         = "ok"
	ResultSuperseded = "superseded"
)

var (
	registerOnce sync.Once

	cacheRequests    *prometheus.CounterVec
	cacheWrites      *prometheus.CounterVec
	upstreamRequests *prometheus.CounterVec
	upstreamLatency  prometheus.Histogram
	pipelineRuns     *prometheus.CounterVec
)

// Init registers the collectors with the default registry. Safe to call
// more than once; observations before Init are dropped.
func Init() {
	registerOnce.Do(func() {
		cacheRequests = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "cache_requests_total",
				Help: "Proxy lookups by result",
			},
			[]string{"result"},
		)
		cacheWrites = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "cache_writes_total",
				Help: "Upstream bodies stored, skipped by validation, or failed to store",
			},
			[]string{"result"},
		)
		upstreamRequests = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "upstream_requests_total",
				Help: "Upstream requests by result",
			},
			[]string{"result"},
		)
		upstreamLatency = prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "upstream_latency_seconds",
				Help:    "Upstream request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
		)
		pipelineRuns = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "pipeline_runs_total",
				Help: "Forecast pipeline runs by result",
			},
			[]string{"result"},
		)

		prometheus.MustRegister(cacheRequests, cacheWrites, upstreamRequests, upstreamLatency, pipelineRuns)
	})
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// -----------------------------------------------------------------------------

// ObserveCacheRequest counts a proxy lookup.
func ObserveCacheRequest(hit bool) {
	if cacheRequests == nil {
		return
	}
	result := ResultMiss
	if hit {
		result = ResultHit
	}
	cacheRequests.WithLabelValues(result).Inc()
}

// IncCacheWrite counts a store decision.
func IncCacheWrite(result string) {
	if cacheWrites != nil {
		cacheWrites.WithLabelValues(result).Inc()
	}
}

// ObserveUpstream records one upstream call.
func ObserveUpstream(result string, duration time.Duration) {
	if result == "" {
		result = ResultOK
	}
	if upstreamRequests != nil {
		upstreamRequests.WithLabelValues(result).Inc()
	}
	if upstreamLatency != nil {
		upstreamLatency.Observe(duration.Seconds())
	}
}

// IncPipelineRun counts a finished, failed or superseded pipeline run.
func IncPipelineRun(result string) {
	if pipelineRuns != nil {
		pipelineRuns.WithLabelValues(result).Inc()
	}
}
