package middleware

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	goGrant "github.com/MrEthical07/goGrant"
)

type staticVerifier struct{}

func (staticVerifier) VerifyCredentials(_ context.Context, username, password string) (*goGrant.Principal, error) {
	if username != "alice" || password != "correct-password-123" {
		return nil, goGrant.ErrInvalidCredentials
	}
	return &goGrant.Principal{SubjectID: "u-1", Scopes: []string{"read"}}, nil
}

func newGuardedServer(t *testing.T) (*goGrant.Engine, http.Handler) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}

	cfg := goGrant.Config{}
	cfg.Token.AccessTTL = 900e9
	cfg.Token.RefreshTTL = 720 * 3600e9
	cfg.Token.SigningMethod = "ed25519"
	cfg.Token.PrivateKey = priv
	cfg.Token.PublicKey = pub

	engine, err := goGrant.New().
		WithConfig(cfg).
		WithRedis(client).
		WithIdentityVerifier(staticVerifier{}).
		Build()
	if err != nil {
		t.Fatalf("build engine: %v", err)
	}
	t.Cleanup(engine.Close)

	mux := http.NewServeMux()
	mux.Handle("/me", Guard(engine)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, _ := PrincipalFromContext(r.Context())
		_, _ = w.Write([]byte(principal.SubjectID))
	})))
	mux.Handle("/admin", Guard(engine)(RequireScope("admin")(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))))

	return engine, mux
}

func TestGuardAcceptsValidToken(t *testing.T) {
	engine, handler := newGuardedServer(t)

	pair, err := engine.PasswordGrant(context.Background(), "alice", "correct-password-123")
	if err != nil {
		t.Fatalf("PasswordGrant: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if rec.Body.String() != "u-1" {
		t.Errorf("body = %q, want u-1", rec.Body.String())
	}
}

func TestGuardRejectsBadHeaders(t *testing.T) {
	_, handler := newGuardedServer(t)

	cases := map[string]string{
		"no header":     "",
		"wrong scheme":  "Basic abc",
		"empty bearer":  "Bearer ",
		"garbage token": "Bearer garbage",
	}
	for name, header := range cases {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s: status = %d, want 401", name, rec.Code)
		}
	}
}

func TestRequireScopeForbidsMissingScope(t *testing.T) {
	engine, handler := newGuardedServer(t)

	pair, err := engine.PasswordGrant(context.Background(), "alice", "correct-password-123")
	if err != nil {
		t.Fatalf("PasswordGrant: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
}
