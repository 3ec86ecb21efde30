package family

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is the narrow pgx surface the store needs; satisfied by
// *pgxpool.Pool, *pgx.Conn, and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PostgresStore is a PostgreSQL-backed [Store]. The rotation CAS is a
// conditional UPDATE guarded on the current hash, so the row-level lock
// serializes concurrent refreshes the same way the Redis script does.
//
// Expected schema:
//
//	CREATE TABLE refresh_families (
//	    family_id      text PRIMARY KEY,
//	    subject_id     text NOT NULL,
//	    current_hash   bytea NOT NULL,
//	    issued_at      timestamptz NOT NULL,
//	    expires_at     timestamptz NOT NULL,
//	    revoked        boolean NOT NULL DEFAULT false,
//	    rotation_count integer NOT NULL DEFAULT 0
//	);
type PostgresStore struct {
	db  DBTX
	now func() time.Time
}

// NewPostgresStore constructs a store bound to the given DBTX.
func NewPostgresStore(db DBTX) *PostgresStore {
	return &PostgresStore{db: db, now: time.Now}
}

// WithTimeFunc overrides the store's time source.
func (s *PostgresStore) WithTimeFunc(fn func() time.Time) *PostgresStore {
	if fn != nil {
		s.now = fn
	}
	return s
}

const createFamilySQL = `
INSERT INTO refresh_families (family_id, subject_id, current_hash, issued_at, expires_at, revoked, rotation_count)
VALUES ($1, $2, $3, $4, $5, false, 0)
`

// CreateFamily inserts a new record with RotationCount zero.
func (s *PostgresStore) CreateFamily(ctx context.Context, rec *Record) error {
	_, err := s.db.Exec(ctx, createFamilySQL,
		rec.FamilyID,
		rec.SubjectID,
		rec.CurrentHash[:],
		time.Unix(rec.IssuedAt, 0),
		time.Unix(rec.ExpiresAt, 0),
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrConflict
		}
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

const getFamilySQL = `
SELECT subject_id, current_hash, issued_at, expires_at, revoked, rotation_count
FROM refresh_families
WHERE family_id = $1
`

// Get returns the record for a family id, or ErrNotFound. Rows past their
// expiry report ErrExpired; the janitor collects them later.
func (s *PostgresStore) Get(ctx context.Context, familyID string) (*Record, error) {
	rows, _ := s.db.Query(ctx, getFamilySQL, familyID)
	rec, err := pgx.CollectOneRow(rows, func(row pgx.CollectableRow) (*Record, error) {
		return scanRecord(row, familyID)
	})
	switch {
	case err == nil:
	case errors.Is(err, pgx.ErrNoRows):
		return nil, ErrNotFound
	case errors.Is(err, ErrCorrupt):
		return nil, err
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if rec.ExpiresAt <= s.now().Unix() {
		return nil, ErrExpired
	}
	return rec, nil
}

const rotateFamilySQL = `
UPDATE refresh_families
SET current_hash = $3, rotation_count = rotation_count + 1
WHERE family_id = $1 AND current_hash = $2 AND NOT revoked AND expires_at > $4
RETURNING subject_id, current_hash, issued_at, expires_at, revoked, rotation_count
`

const revokeOnReuseSQL = `
UPDATE refresh_families
SET revoked = true
WHERE family_id = $1 AND NOT revoked AND expires_at > $2
`

// Rotate runs the conditional-UPDATE CAS. When the guard misses, a second
// read classifies the failure; a live record with a different hash is reuse
// and revokes the family before returning.
func (s *PostgresStore) Rotate(ctx context.Context, familyID string, providedHash, nextHash [32]byte) (*Record, error) {
	now := s.now()

	rows, _ := s.db.Query(ctx, rotateFamilySQL, familyID, providedHash[:], nextHash[:], now)
	rec, err := pgx.CollectOneRow(rows, func(row pgx.CollectableRow) (*Record, error) {
		return scanRecord(row, familyID)
	})
	switch {
	case err == nil:
		return rec, nil
	case errors.Is(err, pgx.ErrNoRows):
		// CAS guard missed; classify below.
	default:
		if isSerializationFailure(err) {
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	current, err := s.Get(ctx, familyID)
	if err != nil {
		return nil, err
	}
	if current.Revoked {
		return nil, ErrFamilyRevoked
	}

	if _, err := s.db.Exec(ctx, revokeOnReuseSQL, familyID, now); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil, ErrReuseDetected
}

const revokeFamilySQL = `
UPDATE refresh_families
SET revoked = true
WHERE family_id = $1
`

// Revoke marks the family revoked. Idempotent.
func (s *PostgresStore) Revoke(ctx context.Context, familyID string) error {
	if _, err := s.db.Exec(ctx, revokeFamilySQL, familyID); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// IsRevoked reports the revocation flag; missing and expired rows report true.
func (s *PostgresStore) IsRevoked(ctx context.Context, familyID string) (bool, error) {
	rec, err := s.Get(ctx, familyID)
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrExpired) {
			return true, nil
		}
		return false, err
	}
	return rec.Revoked, nil
}

const deleteExpiredSQL = `
DELETE FROM refresh_families
WHERE expires_at <= $1
`

// DeleteExpired removes rows whose refresh lifetime elapsed before now.
func (s *PostgresStore) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	tag, err := s.db.Exec(ctx, deleteExpiredSQL, now)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return int(tag.RowsAffected()), nil
}

func scanRecord(row pgx.CollectableRow, familyID string) (*Record, error) {
	var (
		rec       = Record{FamilyID: familyID}
		hash      []byte
		issuedAt  time.Time
		expiresAt time.Time
	)
	if err := row.Scan(&rec.SubjectID, &hash, &issuedAt, &expiresAt, &rec.Revoked, &rec.RotationCount); err != nil {
		return nil, err
	}
	if len(hash) != len(rec.CurrentHash) {
		return nil, fmt.Errorf("%w: hash length %d", ErrCorrupt, len(hash))
	}
	copy(rec.CurrentHash[:], hash)
	rec.IssuedAt = issuedAt.Unix()
	rec.ExpiresAt = expiresAt.Unix()
	return &rec, nil
}

// Ping measures one round trip to the backend.
func (s *PostgresStore) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if _, err := s.db.Exec(ctx, "SELECT 1"); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return time.Since(start), nil
}

func isSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	// 40001 serialization_failure, 40P01 deadlock_detected.
	return errors.As(err, &pgErr) && (pgErr.Code == "40001" || pgErr.Code == "40P01")
}
