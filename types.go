package goGrant

import (
	"context"
	"time"
)

// Principal is the authenticated identity attached to a verified request.
type Principal struct {
	SubjectID string
	Scopes    []string

	// FamilyID names the refresh family the presented access token was
	// minted under. Revoking it invalidates the whole session line.
	FamilyID string

	// ExpiresAt is the access token's expiry.
	ExpiresAt time.Time
}

// HasScope reports whether the principal carries the named scope.
func (p *Principal) HasScope(scope string) bool {
	if p == nil {
		return false
	}
	for _, s := range p.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}

// TokenPair is the result of a successful grant.
type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	FamilyID         string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

// IdentityVerifier checks primary credentials during the password grant.
//
// Implementations must collapse all authentication failures into
// [ErrInvalidCredentials]; any other error is treated as a backend outage
// and surfaced to the caller. The identity package ships a ready-made
// Argon2id-backed implementation.
type IdentityVerifier interface {
	VerifyCredentials(ctx context.Context, username, password string) (*Principal, error)
}

// Clock supplies the current time to the engine and codec. Injectable for
// tests; production code uses [SystemClock].
type Clock interface {
	Now() time.Time
}

// SystemClock is the default [Clock] backed by [time.Now].
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }
