package observability

import "github.com/prometheus/client_golang/prometheus"

var (
	HeartbeatTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "streaming_lag_heartbeat_total",
		Help: "Heartbeat update transactions by outcome",
	}, []string{"outcome"})

	HeartbeatDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "streaming_lag_heartbeat_duration_seconds",
		Help:    "Heartbeat update transaction latency",
		Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.5, 1},
	})

	HeartbeatLastWrite = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "streaming_lag_heartbeat_last_write_timestamp_seconds",
		Help: "Unix time of the last committed heartbeat",
	})

	PrecisionMillis = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "streaming_lag_precision_milliseconds",
		Help: "Currently armed heartbeat interval, 0 when disarmed",
	})

	ReloadTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "streaming_lag_reload_total",
		Help: "Settings reloads by outcome",
	}, []string{"outcome"})

	WakeupTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "streaming_lag_wakeup_total",
		Help: "Drained notifications by kind",
	}, []string{"kind"})

	WorkerState = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "streaming_lag_worker_state",
		Help: "1 for the worker's current lifecycle state",
	}, []string{"state"})

	ValidationDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "streaming_lag_validation_duration_seconds",
		Help:    "Startup validation transaction latency",
		Buckets: prometheus.DefBuckets,
	})

	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "streaming_lag_http_requests_total",
		Help: "Ops endpoint requests",
	}, []string{"route", "method", "code"})

	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "streaming_lag_http_request_duration_seconds",
		Help:    "Ops endpoint latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"route", "method"})
)

func RegisterAll(reg prometheus.Registerer) {
	reg.MustRegister(
		HeartbeatTotal, HeartbeatDuration, HeartbeatLastWrite,
		PrecisionMillis, ReloadTotal, WakeupTotal, WorkerState,
		ValidationDuration, HTTPRequestsTotal, HTTPRequestDuration,
	)
}
