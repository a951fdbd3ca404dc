package protocol

import (
	"fmt"
	"time"

	"github.com/mpcwallet/hdtss/internal/round"
	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "hdtss"

// Message results reported by Metrics.
const (
	resultAccepted   = "accepted"
	resultRejected   = "rejected"
	resultOutOfOrder = "out_of_order"
)

// Metrics collects Prometheus metrics about protocol executions.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	messages *prometheus.CounterVec
	rounds   *prometheus.HistogramVec
	aborts   *prometheus.CounterVec
	finished *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		messages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "protocol",
			Name:      "messages_total",
			Help:      "Incoming protocol messages, by result.",
		}, []string{"protocol", "result"}),
		rounds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "protocol",
			Name:      "round_duration_seconds",
			Help:      "Time spent finalizing a round.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}, []string{"protocol", "round"}),
		aborts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "protocol",
			Name:      "aborts_total",
			Help:      "Protocol executions that failed with a critical error.",
		}, []string{"protocol"}),
		finished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "protocol",
			Name:      "finished_total",
			Help:      "Protocol executions that produced an output.",
		}, []string{"protocol"}),
	}
	for _, c := range []prometheus.Collector{m.messages, m.rounds, m.aborts, m.finished} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("protocol: register metrics: %w", err)
		}
	}
	return m, nil
}

func (m *Metrics) message(protocolID, result string) {
	if m == nil {
		return
	}
	m.messages.WithLabelValues(protocolID, result).Inc()
}

func (m *Metrics) round(protocolID string, number round.Number, d time.Duration) {
	if m == nil {
		return
	}
	m.rounds.WithLabelValues(protocolID, fmt.Sprint(number)).Observe(d.Seconds())
}

func (m *Metrics) abort(protocolID string) {
	if m == nil {
		return
	}
	m.aborts.WithLabelValues(protocolID).Inc()
}

func (m *Metrics) finish(protocolID string) {
	if m == nil {
		return
	}
	m.finished.WithLabelValues(protocolID).Inc()
}
