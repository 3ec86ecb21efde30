package token

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func base64URL(s string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(s))
}

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func newTestCodec(t *testing.T, now func() time.Time) *Codec {
	t.Helper()

	codec, err := NewCodec(Config{
		SigningMethod: MethodHS256,
		PrivateKey:    testSecret,
		Issuer:        "gogrant-test",
		Leeway:        30 * time.Second,
		TimeFunc:      now,
	})
	require.NoError(t, err)

	return codec
}

func baseClaims(now time.Time) Claims {
	return Claims{
		Subject:   "user-1",
		Scopes:    []string{"orders:read", "orders:write"},
		TokenType: TypeAccess,
		FamilyID:  "fam-1",
		TokenID:   "jti-1",
		IssuedAt:  now,
		ExpiresAt: now.Add(15 * time.Minute),
	}
}

func TestIssueVerifyRoundTrip(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	codec := newTestCodec(t, func() time.Time { return now })

	claims := baseClaims(now)
	claims.Scopes = []string{"orders:write", "orders:read", "orders:read"}

	raw, err := codec.Issue(claims)
	require.NoError(t, err)
	require.Len(t, strings.Split(raw, "."), 3)

	got, err := codec.Verify(raw)
	require.NoError(t, err)
	require.Equal(t, claims.Subject, got.Subject)
	require.Equal(t, claims.FamilyID, got.FamilyID)
	require.Equal(t, claims.TokenID, got.TokenID)
	require.Equal(t, TypeAccess, got.TokenType)
	require.ElementsMatch(t, []string{"orders:read", "orders:write"}, got.Scopes)
	require.True(t, got.ExpiresAt.Sub(got.IssuedAt) == 15*time.Minute)
}

func TestIssueRejectsInvalidClaims(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	codec := newTestCodec(t, func() time.Time { return now })

	cases := map[string]func(*Claims){
		"empty subject":         func(c *Claims) { c.Subject = "" },
		"empty family id":       func(c *Claims) { c.FamilyID = "" },
		"unknown token type":    func(c *Claims) { c.TokenType = "session" },
		"non-positive lifetime": func(c *Claims) { c.ExpiresAt = c.IssuedAt },
	}

	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			claims := baseClaims(now)
			mutate(&claims)

			_, err := codec.Issue(claims)
			require.ErrorIs(t, err, ErrEncoding)
		})
	}
}

func TestVerifySignatureTamper(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	codec := newTestCodec(t, func() time.Time { return now })

	raw, err := codec.Issue(baseClaims(now))
	require.NoError(t, err)

	// Flip one byte inside the signature segment.
	idx := strings.LastIndex(raw, ".") + 1
	for i := idx; i < len(raw); i++ {
		mutated := []byte(raw)
		if mutated[i] == 'A' {
			mutated[i] = 'B'
		} else {
			mutated[i] = 'A'
		}
		if string(mutated) == raw {
			continue
		}

		_, err = codec.Verify(string(mutated))
		require.ErrorIs(t, err, ErrSignatureInvalid, "byte %d", i)
		return
	}
	t.Fatal("no signature byte could be mutated")
}

func TestVerifyExpiredBeyondLeeway(t *testing.T) {
	issuedAt := time.Unix(1_700_000_000, 0)
	current := issuedAt

	codec := newTestCodec(t, func() time.Time { return current })

	raw, err := codec.Issue(baseClaims(issuedAt))
	require.NoError(t, err)

	// Inside leeway: still accepted.
	current = issuedAt.Add(15*time.Minute + 10*time.Second)
	_, err = codec.Verify(raw)
	require.NoError(t, err)

	current = issuedAt.Add(16 * time.Minute)
	_, err = codec.Verify(raw)
	require.ErrorIs(t, err, ErrExpired)
}

func TestVerifyMalformed(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	codec := newTestCodec(t, func() time.Time { return now })

	for _, raw := range []string{"", "not-a-token", "a.b", "a.b.c.d", "!!!.###.$$$"} {
		_, err := codec.Verify(raw)
		require.ErrorIs(t, err, ErrMalformed, "input %q", raw)
	}
}

func TestVerifyWrongAlgorithmRejected(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	codec := newTestCodec(t, func() time.Time { return now })

	// alg=none with an empty signature must never pass.
	raw, err := codec.Issue(baseClaims(now))
	require.NoError(t, err)

	parts := strings.Split(raw, ".")
	forged := `{"alg":"none","typ":"JWT"}`
	parts[0] = base64URL(forged)
	parts[2] = ""

	_, err = codec.Verify(strings.Join(parts, "."))
	require.Error(t, err)
}

func TestKeyedSecretRotation(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	oldSecret := []byte("old-secret-old-secret-old-secret")
	newSecret := []byte("new-secret-new-secret-new-secret")

	oldCodec, err := NewCodec(Config{
		SigningMethod: MethodHS256,
		PrivateKey:    oldSecret,
		KeyID:         "k1",
		VerifyKeys:    map[string][]byte{"k1": oldSecret},
		TimeFunc:      func() time.Time { return now },
	})
	require.NoError(t, err)

	rotated, err := NewCodec(Config{
		SigningMethod: MethodHS256,
		PrivateKey:    newSecret,
		KeyID:         "k2",
		VerifyKeys: map[string][]byte{
			"k1": oldSecret,
			"k2": newSecret,
		},
		TimeFunc: func() time.Time { return now },
	})
	require.NoError(t, err)

	oldToken, err := oldCodec.Issue(baseClaims(now))
	require.NoError(t, err)
	newToken, err := rotated.Issue(baseClaims(now))
	require.NoError(t, err)

	// Rotated codec verifies both generations via kid lookup.
	_, err = rotated.Verify(oldToken)
	require.NoError(t, err)
	_, err = rotated.Verify(newToken)
	require.NoError(t, err)

	// Pre-rotation codec does not know k2.
	_, err = oldCodec.Verify(newToken)
	require.Error(t, err)
}

func TestNewCodecConfigBounds(t *testing.T) {
	_, err := NewCodec(Config{SigningMethod: MethodHS256})
	require.Error(t, err, "missing secret")

	_, err = NewCodec(Config{
		SigningMethod: MethodHS256,
		PrivateKey:    testSecret,
		Leeway:        3 * time.Minute,
	})
	require.Error(t, err, "leeway above cap")

	_, err = NewCodec(Config{
		SigningMethod: MethodHS256,
		PrivateKey:    testSecret,
		KeyID:         "k9",
		VerifyKeys:    map[string][]byte{"k1": testSecret},
	})
	require.Error(t, err, "kid missing from verify keys")

	_, err = NewCodec(Config{SigningMethod: "rs256", PrivateKey: testSecret})
	require.Error(t, err, "unsupported method")
}
