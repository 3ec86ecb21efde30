// Package middleware exposes net/http adapters over goGrant.Engine
// verification.
//
// # Guards
//
//   - [Guard] — reads the Authorization header, calls Engine.Authenticate,
//     and injects the [goGrant.Principal] into the request context.
//   - [RequireScope] — rejects requests whose principal lacks a scope.
//
// # Architecture boundaries
//
// This package translates HTTP semantics into Engine calls. It does NOT
// implement authentication logic itself — all decisions are delegated to
// Engine.Authenticate.
//
// # What this package must NOT do
//
//   - Parse or create tokens directly (delegates to Engine).
//   - Access the family store or blacklist (Engine handles I/O).
//   - Make authorization decisions beyond pass/reject and scope checks.
package middleware
