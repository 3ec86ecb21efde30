package family

import (
	"context"
	"crypto/sha256"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when no record exists for a family id.
	ErrNotFound = errors.New("refresh family not found")
	// ErrExpired is returned when the family's refresh lifetime has elapsed.
	ErrExpired = errors.New("refresh family expired")
	// ErrReuseDetected is returned by Rotate when the provided hash does not
	// match the current hash of a live record. The store marks the family
	// revoked before returning: a replayed refresh token is indistinguishable
	// from theft and invalidates the whole lineage.
	ErrReuseDetected = errors.New("refresh token reuse detected")
	// ErrFamilyRevoked is returned by Rotate on an already-revoked family.
	ErrFamilyRevoked = errors.New("refresh family revoked")
	// ErrCorrupt is returned when a stored record cannot be decoded.
	ErrCorrupt = errors.New("refresh family record corrupt")
	// ErrConflict is a transient storage conflict; callers may retry once.
	ErrConflict = errors.New("refresh family storage conflict")
	// ErrUnavailable wraps backend transport failures.
	ErrUnavailable = errors.New("refresh family store unavailable")
)

// Record tracks one refresh-token family: the lineage of refresh tokens
// produced by successive rotations from a single grant.
//
// The invariant the store must uphold: at most one current (non-superseded)
// refresh token exists per family at any time. Only the SHA-256 hash of that
// token is ever persisted.
type Record struct {
	FamilyID      string
	SubjectID     string
	CurrentHash   [32]byte
	IssuedAt      int64
	ExpiresAt     int64
	Revoked       bool
	RotationCount uint32
}

// Store persists refresh-token families. Implementations must provide
// compare-and-swap semantics on CurrentHash: when concurrent Rotate calls
// race on one family, exactly one wins and the others observe a mismatch.
type Store interface {
	// CreateFamily inserts a new record with RotationCount zero.
	CreateFamily(ctx context.Context, rec *Record) error

	// Get returns the record for a family id, or ErrNotFound.
	Get(ctx context.Context, familyID string) (*Record, error)

	// Rotate atomically compares providedHash against CurrentHash and, on
	// match, installs nextHash and increments RotationCount, returning the
	// updated record. A mismatch on a live record revokes the family and
	// returns ErrReuseDetected; an already-revoked family returns
	// ErrFamilyRevoked.
	Rotate(ctx context.Context, familyID string, providedHash, nextHash [32]byte) (*Record, error)

	// Revoke marks the family revoked. Idempotent; unknown ids are a no-op.
	Revoke(ctx context.Context, familyID string) error

	// IsRevoked reports whether the family is revoked. Missing and expired
	// families report true: they can never be rotated again.
	IsRevoked(ctx context.Context, familyID string) (bool, error)

	// DeleteExpired removes records whose refresh lifetime elapsed before
	// now, returning the number deleted. Safe to run on any timer: it only
	// touches rows that are already unusable.
	DeleteExpired(ctx context.Context, now time.Time) (int, error)
}

// HashToken returns the SHA-256 digest of a token's wire form. Stores keep
// only this digest, never the token itself.
func HashToken(raw string) [32]byte {
	return sha256.Sum256([]byte(raw))
}
