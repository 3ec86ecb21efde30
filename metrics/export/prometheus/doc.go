// Package prometheus provides Prometheus collectors for goGrant metrics.
//
// [NewPrometheusExporter] accepts a [goGrant.Engine] and exposes an [http.Handler]
// that renders all goGrant counters and histograms in Prometheus text exposition
// format. Counter names are prefixed gogrant_*_total; the single histogram is
// gogrant_authenticate_latency_seconds.
//
// # What this package must NOT do
//
//   - Register metrics in a global Prometheus registry — callers mount the Handler.
//   - Mutate engine state.
package prometheus
