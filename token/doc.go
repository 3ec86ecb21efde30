// Package token implements the signed token codec: claim serialization,
// signing, and pure verification for access and refresh tokens.
//
// # Architecture boundaries
//
// This package owns the wire representation (JWS compact serialization,
// three base64url segments) and nothing else. It never consults a store —
// statelessness of access-token checks is the point of the design; revocation
// state lives with the engine and the family store.
//
// # What this package must NOT do
//
//   - Perform I/O of any kind.
//   - Hold mutable state after NewCodec returns.
//   - Import the root package or any sibling package.
package token
