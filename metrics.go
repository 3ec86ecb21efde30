package goGrant

import (
	internalmetrics "github.com/MrEthical07/goGrant/internal/metrics"
)

// MetricID identifies one engine instrument.
type MetricID = internalmetrics.ID

const (
	MetricGrantSuccess         MetricID = internalmetrics.GrantSuccess
	MetricGrantFailure         MetricID = internalmetrics.GrantFailure
	MetricRefreshSuccess       MetricID = internalmetrics.RefreshSuccess
	MetricRefreshFailure       MetricID = internalmetrics.RefreshFailure
	MetricReuseDetected        MetricID = internalmetrics.ReuseDetected
	MetricFamilyRevoked        MetricID = internalmetrics.FamilyRevoked
	MetricAuthenticateRejected MetricID = internalmetrics.AuthenticateRejected
	MetricBlacklistHit         MetricID = internalmetrics.BlacklistHit
	MetricConflictRetried      MetricID = internalmetrics.ConflictRetried
	MetricAuthenticateLatency  MetricID = internalmetrics.AuthenticateLatency
)

// Metrics is the engine's lock-free metric storage.
type Metrics = internalmetrics.Metrics

// MetricsSnapshot is a point-in-time copy of all counters and histograms,
// consumed by the exporters under metrics/export.
type MetricsSnapshot = internalmetrics.Snapshot

// NewMetrics creates a Metrics instance from config.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return internalmetrics.New(internalmetrics.Config{
		Enabled:                 cfg.Enabled,
		EnableLatencyHistograms: cfg.EnableLatencyHistograms,
	})
}
