// Package blacklist holds revoked family ids until every access token minted
// for them has expired. Entries only need to live for one access-token
// lifetime, so both backends lean on TTLs instead of explicit cleanup.
package blacklist

import (
	"context"
	"errors"
	"time"
)

// ErrUnavailable wraps backend failures.
var ErrUnavailable = errors.New("blacklist backend unavailable")

// Blacklist is a best-effort revocation set consulted on token verification.
// Contains is on the hot path and must stay cheap.
type Blacklist interface {
	// Add marks familyID revoked for ttl. Re-adding extends the entry.
	Add(ctx context.Context, familyID string, ttl time.Duration) error

	// Contains reports whether familyID is currently blacklisted.
	Contains(ctx context.Context, familyID string) (bool, error)
}
