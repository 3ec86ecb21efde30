package identity

import (
	"context"
	"errors"
	"fmt"

	goGrant "github.com/MrEthical07/goGrant"
)

// ErrPrincipalNotFound is returned by a PrincipalSource when no principal
// exists for a username. The Verifier never surfaces it to callers.
var ErrPrincipalNotFound = errors.New("principal not found")

// PrincipalRecord is the stored view of a principal.
type PrincipalRecord struct {
	SubjectID    string
	PasswordHash string
	Scopes       []string
	Disabled     bool
}

// PrincipalSource looks up principals by login name. Implementations return
// ErrPrincipalNotFound for unknown usernames; any other error is treated as
// a backend failure and surfaced as is.
type PrincipalSource interface {
	LookupByUsername(ctx context.Context, username string) (*PrincipalRecord, error)
}

// Verifier checks username/password pairs against a PrincipalSource.
//
// All authentication failures, unknown username, disabled account, or wrong
// password, collapse into the same error and take a comparable amount of
// time. An unknown username still burns one Argon2 verification against a
// throwaway hash, so response timing does not reveal which usernames exist.
type Verifier struct {
	source    PrincipalSource
	hasher    *Hasher
	decoyHash string
}

// NewVerifier builds a Verifier around source and hasher.
func NewVerifier(source PrincipalSource, hasher *Hasher) (*Verifier, error) {
	if source == nil {
		return nil, errors.New("identity: nil principal source")
	}
	if hasher == nil {
		return nil, errors.New("identity: nil hasher")
	}

	decoy, err := hasher.Hash("goGrant-decoy-password")
	if err != nil {
		return nil, fmt.Errorf("identity: decoy hash: %w", err)
	}

	return &Verifier{source: source, hasher: hasher, decoyHash: decoy}, nil
}

// VerifyCredentials implements [goGrant.IdentityVerifier].
func (v *Verifier) VerifyCredentials(ctx context.Context, username, password string) (*goGrant.Principal, error) {
	rec, err := v.source.LookupByUsername(ctx, username)
	switch {
	case errors.Is(err, ErrPrincipalNotFound):
		_, _ = v.hasher.Verify(password, v.decoyHash)
		return nil, goGrant.ErrInvalidCredentials
	case err != nil:
		return nil, err
	}

	ok, err := v.hasher.Verify(password, rec.PasswordHash)
	if err != nil || !ok || rec.Disabled {
		return nil, goGrant.ErrInvalidCredentials
	}

	return &goGrant.Principal{
		SubjectID: rec.SubjectID,
		Scopes:    append([]string(nil), rec.Scopes...),
	}, nil
}
