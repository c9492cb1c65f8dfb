package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics exported by an OLD instance.
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPRequestSize     *prometheus.HistogramVec
	HTTPResponseSize    *prometheus.HistogramVec

	// Resource Store metrics (pkg/store)
	StoreOperationsTotal   *prometheus.CounterVec
	StoreOperationDuration *prometheus.HistogramVec
	StoreErrorsTotal       *prometheus.CounterVec

	// Compile-job metrics: phonology/morphology/LM/parser compilation
	// runs dispatched through the worker pool (pkg/worker, pkg/toolkit).
	CompileTotal       *prometheus.CounterVec
	CompileDuration    *prometheus.HistogramVec
	CompileErrorsTotal *prometheus.CounterVec

	// Worker pool metrics (pkg/worker)
	WorkerQueueDepth *prometheus.GaugeVec
	WorkerJobsTotal  *prometheus.CounterVec

	// Parse cache metrics (pkg/parser's LRU+Redis cache)
	ParseCacheHitsTotal      *prometheus.CounterVec
	ParseCacheMissesTotal    *prometheus.CounterVec
	ParseCacheEvictionsTotal *prometheus.CounterVec
	ParseCacheSizeBytes      *prometheus.GaugeVec

	// Database metrics
	DBConnectionsActive       prometheus.Gauge
	DBConnectionsIdle         prometheus.Gauge
	DBConnectionsWaitCount    prometheus.Gauge
	DBConnectionsWaitDuration prometheus.Gauge

	// Redis metrics
	RedisConnectionsActive prometheus.Gauge
	RedisCommandsTotal     *prometheus.CounterVec
	RedisCommandDuration   *prometheus.HistogramVec

	// Domain metrics
	FormsTotal           prometheus.Gauge
	CorporaTotal         prometheus.Gauge
	ActiveUsersTotal     prometheus.Gauge
	RestrictedFormsTotal prometheus.Gauge
}

// NewMetrics creates and registers all Prometheus metrics.
func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		// HTTP metrics
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "old_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "old_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		HTTPRequestSize: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "old_http_request_size_bytes",
				Help:    "HTTP request size in bytes",
				Buckets: prometheus.ExponentialBuckets(100, 10, 8),
			},
			[]string{"method", "path"},
		),
		HTTPResponseSize: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "old_http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: prometheus.ExponentialBuckets(100, 10, 8),
			},
			[]string{"method", "path"},
		),

		// Resource Store metrics
		StoreOperationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "old_store_operations_total",
				Help: "Total number of resource store operations",
			},
			[]string{"operation", "model", "status"},
		),
		StoreOperationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "old_store_operation_duration_seconds",
				Help:    "Resource store operation duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation", "model"},
		),
		StoreErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "old_store_errors_total",
				Help: "Total number of resource store errors",
			},
			[]string{"operation", "model", "error_type"},
		),

		// Compile-job metrics
		CompileTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "old_compile_total",
				Help: "Total number of compile jobs (phonology, morphology, language model, parser)",
			},
			[]string{"resource_kind", "status"},
		),
		CompileDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "old_compile_duration_seconds",
				Help:    "Compile job duration in seconds",
				Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
			},
			[]string{"resource_kind"},
		),
		CompileErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "old_compile_errors_total",
				Help: "Total number of compile job errors",
			},
			[]string{"resource_kind", "error_type"},
		),

		// Worker pool metrics
		WorkerQueueDepth: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "old_worker_queue_depth",
				Help: "Current depth of a worker queue (FOMA_WORKER_Q, EXPORT_WORKER_Q)",
			},
			[]string{"queue"},
		),
		WorkerJobsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "old_worker_jobs_total",
				Help: "Total number of jobs dispatched through a worker queue",
			},
			[]string{"queue", "status"},
		),

		// Parse cache metrics
		ParseCacheHitsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "old_parse_cache_hits_total",
				Help: "Total number of parse cache hits",
			},
			[]string{"tier"},
		),
		ParseCacheMissesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "old_parse_cache_misses_total",
				Help: "Total number of parse cache misses",
			},
			[]string{"tier"},
		),
		ParseCacheEvictionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "old_parse_cache_evictions_total",
				Help: "Total number of parse cache evictions",
			},
			[]string{"tier", "reason"},
		),
		ParseCacheSizeBytes: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "old_parse_cache_size_bytes",
				Help: "Current parse cache size in bytes",
			},
			[]string{"tier"},
		),

		// Database metrics
		DBConnectionsActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "old_db_connections_active",
				Help: "Number of active database connections",
			},
		),
		DBConnectionsIdle: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "old_db_connections_idle",
				Help: "Number of idle database connections",
			},
		),
		DBConnectionsWaitCount: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "old_db_connections_wait_count",
				Help: "Total number of connections waited for",
			},
		),
		DBConnectionsWaitDuration: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "old_db_connections_wait_duration_seconds",
				Help: "Total time spent waiting for connections",
			},
		),

		// Redis metrics
		RedisConnectionsActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "old_redis_connections_active",
				Help: "Number of active Redis connections",
			},
		),
		RedisCommandsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "old_redis_commands_total",
				Help: "Total number of Redis commands",
			},
			[]string{"command", "status"},
		),
		RedisCommandDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "old_redis_command_duration_seconds",
				Help:    "Redis command duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"command"},
		),

		// Domain metrics
		FormsTotal: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "old_forms_total",
				Help: "Total number of forms in the database",
			},
		),
		CorporaTotal: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "old_corpora_total",
				Help: "Total number of corpora in the database",
			},
		),
		ActiveUsersTotal: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "old_active_users_total",
				Help: "Total number of active (non-inactive) users",
			},
		),
		RestrictedFormsTotal: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "old_restricted_forms_total",
				Help: "Total number of forms tagged restricted",
			},
		),
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestSize,
		m.HTTPResponseSize,
		m.StoreOperationsTotal,
		m.StoreOperationDuration,
		m.StoreErrorsTotal,
		m.CompileTotal,
		m.CompileDuration,
		m.CompileErrorsTotal,
		m.WorkerQueueDepth,
		m.WorkerJobsTotal,
		m.ParseCacheHitsTotal,
		m.ParseCacheMissesTotal,
		m.ParseCacheEvictionsTotal,
		m.ParseCacheSizeBytes,
		m.DBConnectionsActive,
		m.DBConnectionsIdle,
		m.DBConnectionsWaitCount,
		m.DBConnectionsWaitDuration,
		m.RedisConnectionsActive,
		m.RedisCommandsTotal,
		m.RedisCommandDuration,
		m.FormsTotal,
		m.CorporaTotal,
		m.ActiveUsersTotal,
		m.RestrictedFormsTotal,
	)

	return m
}

// responseWriter wraps http.ResponseWriter to capture status code and size
type responseWriter struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.bytesWritten += n
	return n, err
}

// HTTPMetricsMiddleware instruments HTTP requests with Prometheus metrics
func HTTPMetricsMiddleware(metrics *Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			rw := &responseWriter{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
			}

			if r.ContentLength > 0 {
				metrics.HTTPRequestSize.WithLabelValues(r.Method, r.URL.Path).Observe(float64(r.ContentLength))
			}

			next.ServeHTTP(rw, r)

			duration := time.Since(start).Seconds()
			status := strconv.Itoa(rw.statusCode)

			metrics.HTTPRequestsTotal.WithLabelValues(r.Method, r.URL.Path, status).Inc()
			metrics.HTTPRequestDuration.WithLabelValues(r.Method, r.URL.Path).Observe(duration)
			metrics.HTTPResponseSize.WithLabelValues(r.Method, r.URL.Path).Observe(float64(rw.bytesWritten))
		})
	}
}

// RegisterMetricsEndpoint registers the /metrics endpoint
func RegisterMetricsEndpoint(mux *http.ServeMux, registry *prometheus.Registry) {
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
}
