// Package metrics exposes Prometheus instrumentation for the honeypot.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics tracks honeypot Prometheus metrics.
//
// All metrics use the honeypot_ prefix. A nil *Metrics is a valid no-op
// collector, so callers never need to guard their instrumentation sites.
type Metrics struct {
	// ConnectionsTotal counts TCP connections reaching the listener
	ConnectionsTotal prometheus.Counter

	// AuthAttemptsTotal counts authentication attempts by method
	AuthAttemptsTotal *prometheus.CounterVec

	// ActiveSessions tracks currently open interactive sessions
	ActiveSessions prometheus.Gauge

	// CommandsTotal counts executed shell commands by name
	CommandsTotal *prometheus.CounterVec

	// UploadsTotal counts files received over SFTP
	UploadsTotal prometheus.Counter

	// UploadBytes counts bytes received over SFTP
	UploadBytes prometheus.Counter

	// EnrichmentLookupsTotal counts IP enrichment lookups by service
	// and which tier answered them
	EnrichmentLookupsTotal *prometheus.CounterVec

	// SessionDuration tracks how long attackers stay connected
	SessionDuration prometheus.Histogram
}

// NewMetrics creates honeypot metrics registered against reg. Panics if
// registration fails (expected during initialization only).
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ConnectionsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "honeypot_connections_total",
				Help: "Total TCP connections accepted by the listener",
			},
		),
		AuthAttemptsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "honeypot_auth_attempts_total",
				Help: "Total authentication attempts by method",
			},
			[]string{"method"}, // "password", "publickey", "keyboard-interactive"
		),
		ActiveSessions: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "honeypot_active_sessions",
				Help: "Currently open interactive sessions",
			},
		),
		CommandsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "honeypot_commands_total",
				Help: "Total shell commands executed by command name",
			},
			[]string{"command"},
		),
		UploadsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "honeypot_uploads_total",
				Help: "Total files received over SFTP",
			},
		),
		UploadBytes: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "honeypot_upload_bytes_total",
				Help: "Total bytes received over SFTP",
			},
		),
		EnrichmentLookupsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "honeypot_enrichment_lookups_total",
				Help: "IP enrichment lookups by service and answering tier",
			},
			[]string{"service", "tier"}, // tier: "memory", "database", "api", "error"
		),
		SessionDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "honeypot_session_duration_seconds",
				Help:    "Interactive session duration in seconds",
				Buckets: []float64{1, 5, 15, 60, 300, 900, 3600},
			},
		),
	}

	reg.MustRegister(
		m.ConnectionsTotal,
		m.AuthAttemptsTotal,
		m.ActiveSessions,
		m.CommandsTotal,
		m.UploadsTotal,
		m.UploadBytes,
		m.EnrichmentLookupsTotal,
		m.SessionDuration,
	)

	return m
}

// RecordConnection records an accepted TCP connection.
func (m *Metrics) RecordConnection() {
	if m == nil {
		return
	}
	m.ConnectionsTotal.Inc()
}

// RecordAuthAttempt records one authentication attempt.
func (m *Metrics) RecordAuthAttempt(method string) {
	if m == nil {
		return
	}
	m.AuthAttemptsTotal.WithLabelValues(method).Inc()
}

// SessionOpened increments the active session gauge.
func (m *Metrics) SessionOpened() {
	if m == nil {
		return
	}
	m.ActiveSessions.Inc()
}

// SessionClosed decrements the active session gauge and records the
// session duration.
func (m *Metrics) SessionClosed(durationSeconds float64) {
	if m == nil {
		return
	}
	m.ActiveSessions.Dec()
	m.SessionDuration.Observe(durationSeconds)
}

// RecordCommand records one executed shell command.
func (m *Metrics) RecordCommand(name string) {
	if m == nil {
		return
	}
	m.CommandsTotal.WithLabelValues(name).Inc()
}

// RecordUpload records one received file.
func (m *Metrics) RecordUpload(sizeBytes int64) {
	if m == nil {
		return
	}
	m.UploadsTotal.Inc()
	m.UploadBytes.Add(float64(sizeBytes))
}

// RecordEnrichmentLookup records one IP enrichment lookup.
//
// Parameters:
//   - service: "abuseipdb" or "ip-api"
//   - tier: which tier answered ("memory", "database", "api", "error")
func (m *Metrics) RecordEnrichmentLookup(service, tier string) {
	if m == nil {
		return
	}
	m.EnrichmentLookupsTotal.WithLabelValues(service, tier).Inc()
}

// NullMetrics returns nil, which acts as a no-op metrics collector.
// All Metrics methods handle nil receiver gracefully.
func NullMetrics() *Metrics {
	return nil
}
