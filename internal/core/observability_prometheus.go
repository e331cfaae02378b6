package core

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusMetricsRecorder exports service operation counts and latencies
// labelled by operation and status, and controller operation counts labelled
// by kind and status.
type PrometheusMetricsRecorder struct {
	operations *prometheus.CounterVec
	durations  *prometheus.HistogramVec
	controller *prometheus.CounterVec
}

// NewPrometheusMetricsRecorder registers the recorder's collectors on reg.
// A nil registerer uses prometheus.DefaultRegisterer. Collectors already
// registered by an earlier recorder are reused.
func NewPrometheusMetricsRecorder(reg prometheus.Registerer) (*PrometheusMetricsRecorder, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	operations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "origamicore",
		Subsystem: "service",
		Name:      "operations_total",
		Help:      "Service operations by outcome.",
	}, []string{"operation", "status"})
	durations := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "origamicore",
		Subsystem: "service",
		Name:      "operation_duration_seconds",
		Help:      "Service operation latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"operation"})
	controller := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "origamicore",
		Subsystem: "controller",
		Name:      "operations_total",
		Help:      "Controller operations applied by the service, by kind and outcome.",
	}, []string{"kind", "status"})

	var err error
	if operations, err = registerOrReuse(reg, operations); err != nil {
		return nil, err
	}
	if durations, err = registerOrReuse(reg, durations); err != nil {
		return nil, err
	}
	if controller, err = registerOrReuse(reg, controller); err != nil {
		return nil, err
	}
	return &PrometheusMetricsRecorder{operations: operations, durations: durations, controller: controller}, nil
}

func registerOrReuse[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// Observe records a service operation outcome.
func (r *PrometheusMetricsRecorder) Observe(_ context.Context, operation string, success bool, duration time.Duration) {
	if operation == "" {
		return
	}
	r.operations.WithLabelValues(operation, outcome(success)).Inc()
	r.durations.WithLabelValues(operation).Observe(duration.Seconds())
}

// CountOperation records one applied controller operation.
func (r *PrometheusMetricsRecorder) CountOperation(kind OperationKind, success bool) {
	r.controller.WithLabelValues(string(kind), outcome(success)).Inc()
}
