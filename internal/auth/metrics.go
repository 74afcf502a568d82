// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inventra Contributors

package auth

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Result labels for authentication metrics.
const (
	ResultSuccess            = "success"
	ResultInvalidCredentials = "invalid_credentials"
	ResultInvalidSession     = "invalid_session"
	ResultNoActiveSession    = "no_active_session"
	ResultError              = "error"
)

// Metrics records authentication outcomes.
type Metrics interface {
	RecordLogin(result string)
	RecordLogout(result string)
	RecordSessionCheck(result string)
}

type noopMetrics struct{}

func (noopMetrics) RecordLogin(string)        {}
func (noopMetrics) RecordLogout(string)       {}
func (noopMetrics) RecordSessionCheck(string) {}

// PrometheusMetrics implements Metrics with Prometheus counters.
type PrometheusMetrics struct {
	logins        *prometheus.CounterVec
	logouts       *prometheus.CounterVec
	sessionChecks *prometheus.CounterVec
}

// NewPrometheusMetrics creates the auth counters and registers them with reg.
// Panics if registration fails (following prometheus convention).
func NewPrometheusMetrics(reg prometheus.Registerer) *PrometheusMetrics {
	m := &PrometheusMetrics{
		logins: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "inventra_auth_logins_total",
				Help: "Total number of login attempts by result",
			},
			[]string{"result"},
		),
		logouts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "inventra_auth_logouts_total",
				Help: "Total number of logout attempts by result",
			},
			[]string{"result"},
		),
		sessionChecks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "inventra_auth_session_checks_total",
				Help: "Total number of session lookups by result",
			},
			[]string{"result"},
		),
	}

	reg.MustRegister(m.logins)
	reg.MustRegister(m.logouts)
	reg.MustRegister(m.sessionChecks)

	return m
}

// RecordLogin increments the login counter.
func (m *PrometheusMetrics) RecordLogin(result string) {
	m.logins.WithLabelValues(result).Inc()
}

// RecordLogout increments the logout counter.
func (m *PrometheusMetrics) RecordLogout(result string) {
	m.logouts.WithLabelValues(result).Inc()
}

// RecordSessionCheck increments the session check counter.
func (m *PrometheusMetrics) RecordSessionCheck(result string) {
	m.sessionChecks.WithLabelValues(result).Inc()
}

var _ Metrics = (*PrometheusMetrics)(nil)
