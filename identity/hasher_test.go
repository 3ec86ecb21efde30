package identity

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func testParams() Params {
	// Small but above the validation floor, to keep tests fast.
	return Params{
		MemoryKB:    8 * 1024,
		Iterations:  1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	}
}

func TestHashAndVerify(t *testing.T) {
	h, err := NewHasher(testParams())
	require.NoError(t, err)

	encoded, err := h.Hash("correct horse battery staple")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(encoded, "$argon2id$v=19$"))

	ok, err := h.Verify("correct horse battery staple", encoded)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = h.Verify("wrong password", encoded)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestHashSaltsAreUnique(t *testing.T) {
	h, err := NewHasher(testParams())
	require.NoError(t, err)

	a, err := h.Hash("same password")
	require.NoError(t, err)
	b, err := h.Hash("same password")
	require.NoError(t, err)
	require.NotEqual(t, a, b)
}

func TestVerifyMalformedHash(t *testing.T) {
	h, err := NewHasher(testParams())
	require.NoError(t, err)

	for _, encoded := range []string{
		"",
		"plainhash",
		"$argon2i$v=19$m=8192,t=1,p=1$c2FsdHNhbHRzYWx0c2FsdA$aGFzaA",
		"$argon2id$v=18$m=8192,t=1,p=1$c2FsdHNhbHRzYWx0c2FsdA$aGFzaA",
		"$argon2id$v=19$m=8192,t=1$c2FsdHNhbHRzYWx0c2FsdA$aGFzaA",
		"$argon2id$v=19$m=8192,t=1,p=1$!!$aGFzaA",
	} {
		_, err := h.Verify("pw", encoded)
		require.ErrorIs(t, err, ErrHashMalformed, "input %q", encoded)
	}
}

func TestNewHasherRejectsWeakParams(t *testing.T) {
	weak := testParams()
	weak.MemoryKB = 1024

	_, err := NewHasher(weak)
	require.ErrorIs(t, err, ErrWeakParams)
}

func TestNeedsRehash(t *testing.T) {
	old, err := NewHasher(testParams())
	require.NoError(t, err)

	encoded, err := old.Hash("some password 123")
	require.NoError(t, err)

	same, err := old.NeedsRehash(encoded)
	require.NoError(t, err)
	require.False(t, same)

	stronger := testParams()
	stronger.MemoryKB = 19 * 1024
	h2, err := NewHasher(stronger)
	require.NoError(t, err)

	upgrade, err := h2.NeedsRehash(encoded)
	require.NoError(t, err)
	require.True(t, upgrade)
}
