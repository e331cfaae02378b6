package core

import (
	"context"
	"expvar"
	"fmt"
	"sync/atomic"
	"time"
)

var expvarNames atomic.Uint64

// ExpvarMetrics publishes counters as one expvar map with three sections:
//
//	service     "<operation>/<outcome>" service operation counts
//	service_ms  "<operation>" total service latency in milliseconds
//	controller  "<kind>/<outcome>" applied controller operation counts
type ExpvarMetrics struct {
	name       string
	service    expvar.Map
	latency    expvar.Map
	controller expvar.Map
}

// MetricsSnapshot is the decoded content of an ExpvarMetrics map.
type MetricsSnapshot struct {
	Service    map[string]int64   `json:"service"`
	LatencyMS  map[string]float64 `json:"service_ms"`
	Controller map[string]int64   `json:"controller"`
}

// NewExpvarMetrics publishes a recorder under name, or under a generated
// name when empty. expvar panics on a name published twice.
func NewExpvarMetrics(name string) *ExpvarMetrics {
	if name == "" {
		name = fmt.Sprintf("origamicore_metrics_%d", expvarNames.Add(1))
	}
	m := &ExpvarMetrics{name: name}
	root := expvar.NewMap(name)
	root.Set("service", &m.service)
	root.Set("service_ms", &m.latency)
	root.Set("controller", &m.controller)
	return m
}

// Name is the expvar key of the map.
func (m *ExpvarMetrics) Name() string { return m.name }

// Observe records a service operation outcome.
func (m *ExpvarMetrics) Observe(_ context.Context, operation string, success bool, duration time.Duration) {
	if operation == "" {
		return
	}
	m.service.Add(operation+"/"+outcome(success), 1)
	m.latency.AddFloat(operation, float64(duration)/float64(time.Millisecond))
}

// CountOperation records one applied controller operation.
func (m *ExpvarMetrics) CountOperation(kind OperationKind, success bool) {
	m.controller.Add(string(kind)+"/"+outcome(success), 1)
}

// Snapshot copies the current counters.
func (m *ExpvarMetrics) Snapshot() MetricsSnapshot {
	snap := MetricsSnapshot{
		Service:    map[string]int64{},
		LatencyMS:  map[string]float64{},
		Controller: map[string]int64{},
	}
	m.service.Do(func(kv expvar.KeyValue) {
		snap.Service[kv.Key] = kv.Value.(*expvar.Int).Value()
	})
	m.latency.Do(func(kv expvar.KeyValue) {
		snap.LatencyMS[kv.Key] = kv.Value.(*expvar.Float).Value()
	})
	m.controller.Do(func(kv expvar.KeyValue) {
		snap.Controller[kv.Key] = kv.Value.(*expvar.Int).Value()
	})
	return snap
}

func outcome(success bool) string {
	if success {
		return "success"
	}
	return "error"
}
