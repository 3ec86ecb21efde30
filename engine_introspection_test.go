package goGrant

import (
	"context"
	"errors"
	"testing"
)

func TestFamilyInfoReflectsLifecycle(t *testing.T) {
	env := newTestEngine(t, nil, nil)
	ctx := context.Background()

	pair, err := env.engine.PasswordGrant(ctx, "alice", "correct-password-123")
	if err != nil {
		t.Fatalf("PasswordGrant: %v", err)
	}

	info, err := env.engine.FamilyInfo(ctx, pair.FamilyID)
	if err != nil {
		t.Fatalf("FamilyInfo: %v", err)
	}
	if info.SubjectID != "subject-alice" || info.RotationCount != 0 || info.Revoked {
		t.Errorf("unexpected info after grant: %+v", info)
	}

	if _, err := env.engine.RefreshGrant(ctx, pair.RefreshToken); err != nil {
		t.Fatalf("RefreshGrant: %v", err)
	}
	info, err = env.engine.FamilyInfo(ctx, pair.FamilyID)
	if err != nil {
		t.Fatalf("FamilyInfo after rotate: %v", err)
	}
	if info.RotationCount != 1 {
		t.Errorf("rotation count = %d, want 1", info.RotationCount)
	}

	if err := env.engine.Revoke(ctx, pair.FamilyID); err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	info, err = env.engine.FamilyInfo(ctx, pair.FamilyID)
	if err != nil {
		t.Fatalf("FamilyInfo after revoke: %v", err)
	}
	if !info.Revoked {
		t.Error("expected revoked flag set")
	}
}

func TestFamilyInfoMissing(t *testing.T) {
	env := newTestEngine(t, nil, nil)

	for _, id := range []string{"", "no-such-family"} {
		if _, err := env.engine.FamilyInfo(context.Background(), id); !errors.Is(err, ErrFamilyNotFound) {
			t.Errorf("id %q: err = %v, want ErrFamilyNotFound", id, err)
		}
	}
}

func TestHealthReportsStore(t *testing.T) {
	env := newTestEngine(t, nil, nil)

	status := env.engine.Health(context.Background())
	if !status.StoreAvailable {
		t.Fatal("expected store available")
	}

	env.redis.Close()
	status = env.engine.Health(context.Background())
	if status.StoreAvailable {
		t.Fatal("expected store unavailable after backend shutdown")
	}
}
