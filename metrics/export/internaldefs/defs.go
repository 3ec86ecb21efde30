package internaldefs

import (
	goGrant "github.com/MrEthical07/goGrant"
)

// CounterDef binds a metric id to its stable export name.
type CounterDef struct {
	ID   goGrant.MetricID
	Name string
	Help string
}

// HistogramDef binds a histogram id to its stable export name.
type HistogramDef struct {
	ID   goGrant.MetricID
	Name string
	Help string
}

var CounterDefs = []CounterDef{
	{ID: goGrant.MetricGrantSuccess, Name: "gogrant_grant_success_total", Help: "Successful password grants."},
	{ID: goGrant.MetricGrantFailure, Name: "gogrant_grant_failure_total", Help: "Failed password grants."},
	{ID: goGrant.MetricRefreshSuccess, Name: "gogrant_refresh_success_total", Help: "Successful refresh rotations."},
	{ID: goGrant.MetricRefreshFailure, Name: "gogrant_refresh_failure_total", Help: "Failed refresh attempts."},
	{ID: goGrant.MetricReuseDetected, Name: "gogrant_refresh_reuse_detected_total", Help: "Detected refresh token reuses."},
	{ID: goGrant.MetricFamilyRevoked, Name: "gogrant_family_revoked_total", Help: "Revoked token families."},
	{ID: goGrant.MetricAuthenticateRejected, Name: "gogrant_authenticate_rejected_total", Help: "Rejected access token verifications."},
	{ID: goGrant.MetricBlacklistHit, Name: "gogrant_blacklist_hit_total", Help: "Access tokens rejected by the revocation blacklist."},
	{ID: goGrant.MetricConflictRetried, Name: "gogrant_conflict_retried_total", Help: "Storage compare-and-swap conflicts that triggered a retry."},
}

var HistogramDefs = []HistogramDef{
	{ID: goGrant.MetricAuthenticateLatency, Name: "gogrant_authenticate_latency_seconds", Help: "Authenticate latency histogram."},
}

// HistogramBounds are the upper bounds of the 8 fixed latency buckets, as
// Prometheus le label values.
var HistogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

// HistogramBoundSuffix are the same bounds as OTel-safe name suffixes.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets pads or truncates a raw snapshot slice to the fixed
// bucket count.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets converts per-bucket counts into the cumulative form
// both export formats expect.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
