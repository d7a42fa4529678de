// Package metrics описывает метрики Prometheus сервиса маршрутизации.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "dynamic_routing"

var (
	AlgorithmOperationLabels = []string{"algorithm", "operation"}

	// LatencyBuckets - от 0.5ms до 2.5s: одна операция это несколько обращений к Redis.
	LatencyBuckets = []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5}
)

var (
	requestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Routing operations broken out by algorithm, operation and outcome.",
		},
		append(AlgorithmOperationLabels, "outcome"),
	)

	requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "Latency of routing operations.",
			Buckets:   LatencyBuckets,
		},
		AlgorithmOperationLabels,
	)

	rotationsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "success_rate",
			Name:      "block_rotations_total",
			Help:      "Current blocks closed into the aggregates list.",
		},
	)

	eliminationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "elimination",
			Name:      "eliminated_labels_total",
			Help:      "Labels reported as eliminated, by scope.",
		},
		[]string{"scope"},
	)

	fulfilledContractsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "contract",
			Name:      "fulfilled_updates_skipped_total",
			Help:      "Updates ignored because the contract was already fulfilled.",
		},
	)

	invalidatedKeysTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invalidated_keys_total",
			Help:      "Keys removed by invalidate requests.",
		},
		[]string{"algorithm"},
	)

	configCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "config_cache",
			Name:      "lookups_total",
			Help:      "Read-through cache lookups by result (hit/miss).",
		},
		[]string{"result"},
	)
)

var registerOnce sync.Once

// Register регистрирует все метрики. Повторные вызовы игнорируются.
func Register(reg prometheus.Registerer) {
	registerOnce.Do(func() {
		reg.MustRegister(
			requestsTotal,
			requestDuration,
			rotationsTotal,
			eliminationsTotal,
			fulfilledContractsTotal,
			invalidatedKeysTotal,
			configCacheTotal,
		)
	})
}

// ObserveRequest фиксирует исход и длительность операции.
func ObserveRequest(algorithm, operation string, started time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	requestsTotal.WithLabelValues(algorithm, operation, outcome).Inc()
	requestDuration.WithLabelValues(algorithm, operation).Observe(time.Since(started).Seconds())
}

func RecordRotation() {
	rotationsTotal.Inc()
}

func RecordElimination(scope string) {
	eliminationsTotal.WithLabelValues(scope).Inc()
}

func RecordFulfilledSkip() {
	fulfilledContractsTotal.Inc()
}

func RecordInvalidatedKeys(algorithm string, n int) {
	invalidatedKeysTotal.WithLabelValues(algorithm).Add(float64(n))
}

func RecordCacheLookup(hit bool) {
	if hit {
		configCacheTotal.WithLabelValues("hit").Inc()
		return
	}
	configCacheTotal.WithLabelValues("miss").Inc()
}
