package gateway

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

type metrics struct {
	requests       *prometheus.CounterVec
	refreshes      *prometheus.CounterVec
	refreshWaiters prometheus.Counter
	expiries       *prometheus.CounterVec
}

func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "portal",
			Subsystem: "gateway",
			Name:      "requests_total",
			Help:      "Outbound backend requests by target and HTTP status (0 when no response).",
		}, []string{"target", "status"}),
		refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "portal",
			Subsystem: "gateway",
			Name:      "refreshes_total",
			Help:      "Refresh flights by outcome (success, expired, failed, discarded).",
		}, []string{"outcome"}),
		refreshWaiters: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "portal",
			Subsystem: "gateway",
			Name:      "refresh_waiters_total",
			Help:      "Callers that attached to an in-flight refresh instead of starting one.",
		}),
		expiries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "portal",
			Subsystem: "gateway",
			Name:      "session_expiries_total",
			Help:      "Sessions cleared after an unrecoverable authentication failure, by reason.",
		}, []string{"reason"}),
	}

	if reg != nil {
		reg.MustRegister(m.requests, m.refreshes, m.refreshWaiters, m.expiries)
	}
	return m
}

func (m *metrics) observe(target Target, status int) {
	m.requests.WithLabelValues(string(target), strconv.Itoa(status)).Inc()
}
