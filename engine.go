package goGrant

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/MrEthical07/goGrant/blacklist"
	"github.com/MrEthical07/goGrant/family"
	internalaudit "github.com/MrEthical07/goGrant/internal/audit"
	"github.com/MrEthical07/goGrant/token"
)

// Engine issues, refreshes, verifies, and revokes token pairs. Construct it
// through [New]; a zero Engine is not usable.
//
// All methods are safe for concurrent use. Concurrent RefreshGrant calls on
// the same refresh token serialize in the store: exactly one wins, the rest
// trip reuse detection.
type Engine struct {
	config    Config
	codec     *token.Codec
	store     family.Store
	blacklist blacklist.Blacklist
	verifier  IdentityVerifier
	clock     Clock
	metrics   *Metrics
	audit     *internalaudit.Dispatcher
}

// Close flushes and stops the audit dispatcher.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	e.audit.Close()
}

// AuditDropped reports how many audit events were discarded because the
// buffer was full.
func (e *Engine) AuditDropped() uint64 {
	if e == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot returns a point-in-time copy of the engine's instruments.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil {
		return MetricsSnapshot{}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e != nil {
		e.metrics.Inc(id)
	}
}

// PasswordGrant exchanges primary credentials for a fresh token pair in a
// brand new refresh family. Every authentication failure surfaces as
// [ErrInvalidCredentials]; only backend outages look different.
func (e *Engine) PasswordGrant(ctx context.Context, username, password string) (*TokenPair, error) {
	if e == nil || e.verifier == nil {
		return nil, ErrEngineNotReady
	}

	principal, err := e.verifier.VerifyCredentials(ctx, username, password)
	if err != nil {
		e.metricInc(MetricGrantFailure)
		e.emitAudit(ctx, AuditPasswordGrant, "", "", false, err)
		if errors.Is(err, ErrInvalidCredentials) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	pair, err := e.createFamilyPair(ctx, principal.SubjectID, principal.Scopes)
	if err != nil {
		e.metricInc(MetricGrantFailure)
		e.emitAudit(ctx, AuditPasswordGrant, principal.SubjectID, "", false, err)
		return nil, err
	}

	e.metricInc(MetricGrantSuccess)
	e.emitAudit(ctx, AuditPasswordGrant, principal.SubjectID, pair.FamilyID, true, nil)
	return pair, nil
}

// createFamilyPair mints a pair under a new family id and persists the
// family record. A create collision on the generated id is retried once
// with a fresh id.
func (e *Engine) createFamilyPair(ctx context.Context, subjectID string, scopes []string) (*TokenPair, error) {
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		familyID := uuid.NewString()

		pair, refreshHash, err := e.issuePair(subjectID, scopes, familyID)
		if err != nil {
			return nil, err
		}

		rec := &family.Record{
			FamilyID:    familyID,
			SubjectID:   subjectID,
			CurrentHash: refreshHash,
			IssuedAt:    e.clock.Now().Unix(),
			ExpiresAt:   pair.RefreshExpiresAt.Unix(),
		}

		err = e.store.CreateFamily(ctx, rec)
		switch {
		case err == nil:
			return pair, nil
		case errors.Is(err, family.ErrConflict):
			e.metricInc(MetricConflictRetried)
			lastErr = ErrConflict
		default:
			return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
	}
	return nil, lastErr
}

// issuePair signs an access and a refresh token for the given family and
// returns the pair along with the refresh token's store hash.
func (e *Engine) issuePair(subjectID string, scopes []string, familyID string) (*TokenPair, [32]byte, error) {
	now := e.clock.Now()
	accessExpiry := now.Add(e.config.Token.AccessTTL)
	refreshExpiry := now.Add(e.config.Token.RefreshTTL)

	access, err := e.codec.Issue(token.Claims{
		Subject:   subjectID,
		Scopes:    scopes,
		TokenType: token.TypeAccess,
		FamilyID:  familyID,
		TokenID:   uuid.NewString(),
		IssuedAt:  now,
		ExpiresAt: accessExpiry,
	})
	if err != nil {
		return nil, [32]byte{}, err
	}

	refresh, err := e.codec.Issue(token.Claims{
		Subject:   subjectID,
		Scopes:    scopes,
		TokenType: token.TypeRefresh,
		FamilyID:  familyID,
		TokenID:   uuid.NewString(),
		IssuedAt:  now,
		ExpiresAt: refreshExpiry,
	})
	if err != nil {
		return nil, [32]byte{}, err
	}

	return &TokenPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		FamilyID:         familyID,
		AccessExpiresAt:  accessExpiry,
		RefreshExpiresAt: refreshExpiry,
	}, family.HashToken(refresh), nil
}

// RefreshGrant rotates a refresh token: the presented token is retired, a
// successor refresh token and a fresh access token are issued. Presenting a
// superseded token returns [ErrRefreshReuse] and revokes the whole family.
//
// The successor keeps the family's absolute expiry; refreshing never
// extends a session beyond the lifetime set at login.
func (e *Engine) RefreshGrant(ctx context.Context, refreshToken string) (*TokenPair, error) {
	if e == nil || e.codec == nil {
		return nil, ErrEngineNotReady
	}

	claims, err := e.codec.Verify(refreshToken)
	if err != nil {
		e.metricInc(MetricRefreshFailure)
		e.emitAudit(ctx, AuditRefreshGrant, "", "", false, err)
		return nil, mapTokenError(err)
	}
	if claims.TokenType != token.TypeRefresh {
		e.metricInc(MetricRefreshFailure)
		e.emitAudit(ctx, AuditRefreshGrant, claims.Subject, claims.FamilyID, false, ErrWrongTokenType)
		return nil, ErrWrongTokenType
	}

	now := e.clock.Now()

	// The successor is minted before the CAS so its hash can be swapped in
	// atomically. If rotation fails the string is discarded unused.
	nextRefresh, err := e.codec.Issue(token.Claims{
		Subject:   claims.Subject,
		Scopes:    claims.Scopes,
		TokenType: token.TypeRefresh,
		FamilyID:  claims.FamilyID,
		TokenID:   uuid.NewString(),
		IssuedAt:  now,
		ExpiresAt: claims.ExpiresAt,
	})
	if err != nil {
		e.metricInc(MetricRefreshFailure)
		return nil, ErrRefreshInvalid
	}

	providedHash := family.HashToken(refreshToken)
	nextHash := family.HashToken(nextRefresh)

	_, err = e.store.Rotate(ctx, claims.FamilyID, providedHash, nextHash)
	if errors.Is(err, family.ErrConflict) {
		e.metricInc(MetricConflictRetried)
		_, err = e.store.Rotate(ctx, claims.FamilyID, providedHash, nextHash)
	}
	if err != nil {
		e.metricInc(MetricRefreshFailure)
		return nil, e.classifyRotateFailure(ctx, claims, err)
	}

	accessExpiry := now.Add(e.config.Token.AccessTTL)
	access, err := e.codec.Issue(token.Claims{
		Subject:   claims.Subject,
		Scopes:    claims.Scopes,
		TokenType: token.TypeAccess,
		FamilyID:  claims.FamilyID,
		TokenID:   uuid.NewString(),
		IssuedAt:  now,
		ExpiresAt: accessExpiry,
	})
	if err != nil {
		e.metricInc(MetricRefreshFailure)
		return nil, err
	}

	e.metricInc(MetricRefreshSuccess)
	e.emitAudit(ctx, AuditRefreshGrant, claims.Subject, claims.FamilyID, true, nil)

	return &TokenPair{
		AccessToken:      access,
		RefreshToken:     nextRefresh,
		FamilyID:         claims.FamilyID,
		AccessExpiresAt:  accessExpiry,
		RefreshExpiresAt: claims.ExpiresAt,
	}, nil
}

func (e *Engine) classifyRotateFailure(ctx context.Context, claims *token.Claims, err error) error {
	switch {
	case errors.Is(err, family.ErrReuseDetected):
		e.metricInc(MetricReuseDetected)
		e.metricInc(MetricFamilyRevoked)
		e.blacklistFamily(ctx, claims.FamilyID)
		e.emitAudit(ctx, AuditReuseDetected, claims.Subject, claims.FamilyID, false, ErrRefreshReuse)
		return ErrRefreshReuse
	case errors.Is(err, family.ErrFamilyRevoked):
		e.emitAudit(ctx, AuditRefreshGrant, claims.Subject, claims.FamilyID, false, ErrFamilyRevoked)
		return ErrFamilyRevoked
	case errors.Is(err, family.ErrNotFound), errors.Is(err, family.ErrExpired):
		return ErrRefreshInvalid
	case errors.Is(err, family.ErrConflict):
		return ErrConflict
	default:
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
}

// blacklistFamily is best effort: the family is already revoked in the
// store, the blacklist only shortens how long outstanding access tokens
// keep working.
func (e *Engine) blacklistFamily(ctx context.Context, familyID string) {
	if e.blacklist == nil {
		return
	}
	_ = e.blacklist.Add(ctx, familyID, e.config.Token.AccessTTL)
}

// Authenticate verifies a presented access token and returns the principal
// it names. Verification is pure signature and timing checks; the only
// stateful step is the optional blacklist probe.
func (e *Engine) Authenticate(ctx context.Context, accessToken string) (*Principal, error) {
	if e == nil || e.codec == nil {
		return nil, ErrEngineNotReady
	}

	if e.metrics.LatencyEnabled() {
		start := time.Now()
		defer func() {
			e.metrics.Observe(MetricAuthenticateLatency, time.Since(start))
		}()
	}

	if accessToken == "" {
		e.metricInc(MetricAuthenticateRejected)
		return nil, ErrTokenMissing
	}

	claims, err := e.codec.Verify(accessToken)
	if err != nil {
		e.metricInc(MetricAuthenticateRejected)
		return nil, mapTokenError(err)
	}
	if claims.TokenType != token.TypeAccess {
		e.metricInc(MetricAuthenticateRejected)
		return nil, ErrWrongTokenType
	}

	if e.blacklist != nil {
		hit, blErr := e.blacklist.Contains(ctx, claims.FamilyID)
		if blErr != nil {
			return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, blErr)
		}
		if hit {
			e.metricInc(MetricBlacklistHit)
			e.metricInc(MetricAuthenticateRejected)
			e.emitAudit(ctx, AuditAuthenticate, claims.Subject, claims.FamilyID, false, ErrFamilyRevoked)
			return nil, ErrFamilyRevoked
		}
	}

	return &Principal{
		SubjectID: claims.Subject,
		Scopes:    claims.Scopes,
		FamilyID:  claims.FamilyID,
		ExpiresAt: claims.ExpiresAt,
	}, nil
}

// Revoke marks the family revoked so no refresh token in it can ever
// rotate again. Idempotent. With the blacklist enabled, outstanding access
// tokens die immediately as well; without it they run out their short
// natural lifetime.
func (e *Engine) Revoke(ctx context.Context, familyID string) error {
	if e == nil || e.store == nil {
		return ErrEngineNotReady
	}

	if err := e.store.Revoke(ctx, familyID); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	e.blacklistFamily(ctx, familyID)
	e.metricInc(MetricFamilyRevoked)
	e.emitAudit(ctx, AuditRevoke, "", familyID, true, nil)
	return nil
}

// RevokeByToken revokes the family named by a presented refresh token.
// This is the logout path: the caller holds a refresh token, not a family
// id.
func (e *Engine) RevokeByToken(ctx context.Context, refreshToken string) error {
	if e == nil || e.codec == nil {
		return ErrEngineNotReady
	}

	claims, err := e.codec.Verify(refreshToken)
	if err != nil {
		return mapTokenError(err)
	}
	if claims.TokenType != token.TypeRefresh {
		return ErrWrongTokenType
	}

	return e.Revoke(ctx, claims.FamilyID)
}

func mapTokenError(err error) error {
	switch {
	case errors.Is(err, token.ErrExpired):
		return ErrTokenExpired
	case errors.Is(err, token.ErrSignatureInvalid):
		return ErrSignatureInvalid
	default:
		return ErrTokenMalformed
	}
}
