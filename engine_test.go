package goGrant

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type stubVerifier struct {
	users map[string]string // username -> password
}

func (v stubVerifier) VerifyCredentials(_ context.Context, username, password string) (*Principal, error) {
	want, ok := v.users[username]
	if !ok || want != password {
		return nil, ErrInvalidCredentials
	}
	return &Principal{SubjectID: "subject-" + username, Scopes: []string{"read", "write"}}, nil
}

type testEnv struct {
	engine *Engine
	redis  *miniredis.Miniredis
	clock  *fakeClock
}

func testKeyPair(t *testing.T) (ed25519.PublicKey, ed25519.PrivateKey) {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	return pub, priv
}

func newTestEngine(t *testing.T, mutate func(*Config), build func(*Builder)) *testEnv {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	pub, priv := testKeyPair(t)
	clock := newFakeClock()

	cfg := defaultConfig()
	cfg.Token.PrivateKey = priv
	cfg.Token.PublicKey = pub
	cfg.Token.Issuer = "gogrant-test"
	if mutate != nil {
		mutate(&cfg)
	}

	b := New().
		WithConfig(cfg).
		WithRedis(client).
		WithClock(clock).
		WithIdentityVerifier(stubVerifier{users: map[string]string{
			"alice": "correct-password-123",
			"bob":   "hunter2hunter2",
		}})
	if build != nil {
		build(b)
	}

	engine, err := b.Build()
	if err != nil {
		t.Fatalf("build engine: %v", err)
	}
	t.Cleanup(engine.Close)

	return &testEnv{engine: engine, redis: mr, clock: clock}
}
