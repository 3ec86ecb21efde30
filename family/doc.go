// Package family persists refresh-token families and enforces the rotation
// invariant: at most one current refresh token per family at any time.
//
// # Design
//
// A family is the lineage of refresh tokens produced by successive
// rotations from one original grant. The store never sees token material,
// only SHA-256 digests. Rotate is the single mutating hot path and must be
// a compare-and-swap: the Redis backend runs a Lua script, the Postgres
// backend a guarded UPDATE. A hash mismatch on a live record is treated as
// reuse (probable theft) and revokes the entire family.
//
// # What this package must NOT do
//
//   - Parse or verify tokens (that is the token package's job).
//   - Decide grant policy; it only reports what happened to a record.
//   - Import the root package or any sibling package.
package family
