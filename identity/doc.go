// Package identity provides a ready-made credential verifier for the
// password grant: Argon2id hashing in PHC string format plus a
// [goGrant.IdentityVerifier] that resists username enumeration.
//
// Using it is optional. The engine accepts any IdentityVerifier, so
// deployments with an existing user store plug in their own.
//
// # What this package must NOT do
//
//   - Issue or inspect tokens.
//   - Distinguish unknown-user from wrong-password in its results.
package identity
