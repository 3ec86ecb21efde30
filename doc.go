// Package goGrant provides an access/refresh token engine: signed JWT access
// tokens, rotating JWT refresh tokens with family-level reuse detection, and
// a pluggable store for refresh state.
//
// The package is designed for concurrent server workloads: Engine methods are
// safe to call from multiple goroutines after initialization through
// [Builder.Build].
//
// # Architecture boundaries
//
// goGrant is the public surface. It exposes [Engine], [Builder], [Config],
// and value types (TokenPair, Principal, MetricsSnapshot). Token encoding
// lives in token/, refresh-family persistence in family/, revocation caching
// in blacklist/, and audit/metric plumbing under internal/.
//
// # What this package must NOT do
//
//   - Expose Redis clients, store internals, or wire encoding details in its
//     public API.
//   - Perform I/O outside of Engine methods (construction via Builder is
//     allocation-only until Build).
//   - Import any sub-package that re-imports goGrant (no import cycles).
//
// # Performance contract
//
// Authenticate is the hot path. Without a blacklist it is pure computation:
// signature check plus timing claims, no store round-trip. PasswordGrant and
// RefreshGrant are allowed one store round-trip per call.
package goGrant
