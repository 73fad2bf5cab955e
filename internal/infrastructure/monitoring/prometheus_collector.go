package monitoring

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type PrometheusCollector struct {
	// Counters
	tokenCacheHits   prometheus.Counter
	tokenRefreshes   *prometheus.CounterVec
	categoryLookups  *prometheus.CounterVec
	upstreamRequests *prometheus.CounterVec
	httpRequests     *prometheus.CounterVec

	// Histograms
	upstreamDuration *prometheus.HistogramVec
	httpDuration     *prometheus.HistogramVec

	// Gauges
	liveStreams prometheus.Gauge
}

// NewPrometheusCollector registers the collector's metrics with reg.
func NewPrometheusCollector(reg prometheus.Registerer) *PrometheusCollector {
	factory := promauto.With(reg)

	return &PrometheusCollector{
		tokenCacheHits: factory.NewCounter(prometheus.CounterOpts{
			Name: "multiview_token_cache_hits_total",
			Help: "Token requests served from the cache",
		}),

		tokenRefreshes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "multiview_token_refreshes_total",
			Help: "App token exchanges with Twitch by outcome",
		}, []string{"result"}),

		categoryLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "multiview_category_lookups_total",
			Help: "Category id requests by source (cache or upstream)",
		}, []string{"source"}),

		upstreamRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "multiview_upstream_requests_total",
			Help: "Requests sent to Twitch by endpoint and status code",
		}, []string{"endpoint", "status"}),

		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "multiview_http_requests_total",
			Help: "HTTP requests served by route and status code",
		}, []string{"method", "route", "status"}),

		upstreamDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "multiview_upstream_request_duration_seconds",
			Help:    "Duration of requests sent to Twitch",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		}, []string{"endpoint"}),

		httpDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "multiview_http_request_duration_seconds",
			Help:    "Duration of HTTP requests served",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),

		liveStreams: factory.NewGauge(prometheus.GaugeOpts{
			Name: "multiview_live_streams",
			Help: "Number of live streams returned by the last successful listing",
		}),
	}
}

func (p *PrometheusCollector) RecordTokenCacheHit() {
	p.tokenCacheHits.Inc()
}

func (p *PrometheusCollector) RecordTokenRefresh(success bool) {
	result := "success"
	if !success {
		result = "failure"
	}
	p.tokenRefreshes.WithLabelValues(result).Inc()
}

func (p *PrometheusCollector) RecordCategoryLookup(cached bool) {
	source := "upstream"
	if cached {
		source = "cache"
	}
	p.categoryLookups.WithLabelValues(source).Inc()
}

func (p *PrometheusCollector) RecordStreamsListed(count int) {
	p.liveStreams.Set(float64(count))
}

// ObserveUpstreamRequest records one Twitch round trip; status 0 means the
// request never got a response.
func (p *PrometheusCollector) ObserveUpstreamRequest(endpoint string, status int, duration time.Duration) {
	code := "error"
	if status > 0 {
		code = strconv.Itoa(status)
	}
	p.upstreamRequests.WithLabelValues(endpoint, code).Inc()
	p.upstreamDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

func (p *PrometheusCollector) RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	p.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	p.httpDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}
