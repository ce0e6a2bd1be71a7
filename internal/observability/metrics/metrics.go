package metrics

import (
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

type Outcome string

const (
	Success                  Outcome       = "success"
	Error                    Outcome       = "error"
	MetricRequestTimeout     time.Duration = 5 * time.Second
	MetricRequestIdleTimeout time.Duration = 10 * time.Second
)

func (O Outcome) String() string {
	return string(O)
}

func outcome(failure bool) Outcome {
	if failure {
		return Error
	}
	return Success
}

var defaultHistogramBucketsSeconds = []float64{0.001, 0.01, 0.1, 0.5, 1, 2.5, 5, 10, 30}

var (
	once          sync.Once
	metricsRouter *chi.Mux

	// client requests are the ones sending to other service
	clientRequestDurationHistogram = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "client_request_duration_seconds",
			Help:    "Histogram of outgoing client request durations in seconds.",
			Buckets: defaultHistogramBucketsSeconds,
		},
		[]string{"baseurl", "method", "path", "status"},
	)

	apiRequestDurationHistogram = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "Histogram of inbound API request durations in seconds.",
			Buckets: defaultHistogramBucketsSeconds,
		},
		[]string{"method", "route", "status"},
	)

	actorDispatchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "actor_dispatch_duration_seconds",
			Help:    "Time a program spent on one request, suspension included.",
			Buckets: defaultHistogramBucketsSeconds,
		},
		[]string{"program", "status"},
	)

	stakingOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "staking_operation_duration_seconds",
			Help:    "Staking operation durations in seconds split by operation and error code.",
			Buckets: defaultHistogramBucketsSeconds,
		},
		[]string{"operation", "status", "error_code"},
	)

	transferLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "transfer_latency_seconds",
			Help:    "Latency of delegated transfers to the asset ledger.",
			Buckets: defaultHistogramBucketsSeconds,
		},
		[]string{"direction", "status"},
	)

	totalStakedGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "total_staked",
			Help: "Last committed total staked amount (lossy float)",
		},
	)

	reconcileDifferenceGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "reconcile_difference",
			Help: "Asset ledger balance of the staking program minus total staked",
		},
	)

	eventSinkErrorCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "event_sink_error_count",
			Help: "The total number of committed staking events that a sink failed to record",
		},
		[]string{"sink"},
	)

	// add a counter for the number of errors from the fail to push message into queue
	queueSendErrorCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "queue_send_error_count",
			Help: "The total number of errors when sending messages to the queue",
		},
	)

	pollerDurationHistogram = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "poller_duration_seconds",
			Help:    "Histogram of poller durations in seconds.",
			Buckets: defaultHistogramBucketsSeconds,
		},
		[]string{"type", "status"},
	)

	dbLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "db_latency_seconds",
			Help: "DB latency in seconds splitted by method and execution status",
		},
		[]string{"method", "status"},
	)
)

// Init initializes the metrics package.
func Init(metricsPort int) {
	once.Do(func() {
		initMetricsRouter(metricsPort)
		registerMetrics()
	})
}

// initMetricsRouter initializes the metrics router.
func initMetricsRouter(metricsPort int) {
	metricsRouter = chi.NewRouter()
	metricsRouter.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})
	// Create a custom server with timeout settings
	metricsAddr := fmt.Sprintf(":%d", metricsPort)
	server := &http.Server{
		Addr:         metricsAddr,
		Handler:      metricsRouter,
		ReadTimeout:  MetricRequestTimeout,
		WriteTimeout: MetricRequestTimeout,
		IdleTimeout:  MetricRequestIdleTimeout,
	}

	// Start the server in a separate goroutine
	go func() {
		log.Printf("Starting metrics server on %s", metricsAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msgf("Error starting metrics server on %s", metricsAddr)
		}
	}()
}

// registerMetrics registers the Prometheus metrics with the default registry.
func registerMetrics() {
	prometheus.MustRegister(
		clientRequestDurationHistogram,
		apiRequestDurationHistogram,
		actorDispatchDuration,
		stakingOperationDuration,
		transferLatency,
		totalStakedGauge,
		reconcileDifferenceGauge,
		eventSinkErrorCounter,
		queueSendErrorCounter,
		pollerDurationHistogram,
		dbLatency,
	)
}

func RecordActorDispatch(d time.Duration, program string, failure bool) {
	actorDispatchDuration.WithLabelValues(program, outcome(failure).String()).Observe(d.Seconds())
}

// RecordStakingOperation records one staking operation. errorCode is empty
// on success.
func RecordStakingOperation(d time.Duration, operation, errorCode string) {
	stakingOperationDuration.
		WithLabelValues(operation, outcome(errorCode != "").String(), errorCode).
		Observe(d.Seconds())
}

func RecordTransferLatency(d time.Duration, direction string, failure bool) {
	transferLatency.WithLabelValues(direction, outcome(failure).String()).Observe(d.Seconds())
}

func RecordTotalStaked(total float64) {
	totalStakedGauge.Set(total)
}

func RecordReconcileDifference(diff float64) {
	reconcileDifferenceGauge.Set(diff)
}

func IncEventSinkFailures(sink string) {
	eventSinkErrorCounter.WithLabelValues(sink).Inc()
}

func RecordDbLatency(d time.Duration, method string, failure bool) {
	dbLatency.WithLabelValues(method, outcome(failure).String()).Observe(d.Seconds())
}

func RecordAPIRequest(d time.Duration, method, route string, statusCode int) {
	apiRequestDurationHistogram.
		WithLabelValues(method, route, strconv.Itoa(statusCode)).
		Observe(d.Seconds())
}

// StartClientRequestDurationTimer starts a timer to measure outgoing client request duration.
func StartClientRequestDurationTimer(baseUrl, method, path string) func(statusCode int) {
	startTime := time.Now()
	return func(statusCode int) {
		duration := time.Since(startTime).Seconds()
		clientRequestDurationHistogram.WithLabelValues(
			baseUrl,
			method,
			path,
			fmt.Sprintf("%d", statusCode),
		).Observe(duration)
	}
}

func RecordQueueSendError() {
	queueSendErrorCounter.Inc()
}
