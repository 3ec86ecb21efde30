package goGrant

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/goGrant/family"
)

// FamilyInfo is the safe introspection view for a refresh-token family.
// It intentionally excludes the current refresh hash and any token material.
type FamilyInfo struct {
	FamilyID      string
	SubjectID     string
	IssuedAt      int64
	ExpiresAt     int64
	Revoked       bool
	RotationCount uint32
}

// HealthStatus is an on-demand backend health result.
type HealthStatus struct {
	StoreAvailable bool
	StoreLatency   time.Duration
}

// FamilyInfo returns the stored state of one refresh-token family, for
// admin and support tooling. Missing and expired families both surface as
// [ErrFamilyNotFound].
func (e *Engine) FamilyInfo(ctx context.Context, familyID string) (*FamilyInfo, error) {
	if e == nil || e.store == nil {
		return nil, ErrEngineNotReady
	}
	if familyID == "" {
		return nil, ErrFamilyNotFound
	}

	rec, err := e.store.Get(ctx, familyID)
	if err != nil {
		switch {
		case errors.Is(err, family.ErrNotFound), errors.Is(err, family.ErrExpired):
			return nil, ErrFamilyNotFound
		default:
			return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
	}

	return &FamilyInfo{
		FamilyID:      rec.FamilyID,
		SubjectID:     rec.SubjectID,
		IssuedAt:      rec.IssuedAt,
		ExpiresAt:     rec.ExpiresAt,
		Revoked:       rec.Revoked,
		RotationCount: rec.RotationCount,
	}, nil
}

type storePinger interface {
	Ping(ctx context.Context) (time.Duration, error)
}

// Health probes the family store with one round trip. Stores that expose no
// Ping report as available without a latency figure.
func (e *Engine) Health(ctx context.Context) HealthStatus {
	if e == nil || e.store == nil {
		return HealthStatus{}
	}

	pinger, ok := e.store.(storePinger)
	if !ok {
		return HealthStatus{StoreAvailable: true}
	}

	latency, err := pinger.Ping(ctx)
	return HealthStatus{
		StoreAvailable: err == nil,
		StoreLatency:   latency,
	}
}
