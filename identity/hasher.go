package identity

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/crypto/argon2"
)

const phcAlgorithm = "argon2id"

var (
	// ErrHashMalformed reports a stored hash that is not a valid PHC string.
	ErrHashMalformed = errors.New("malformed password hash")

	// ErrWeakParams reports hashing parameters below the accepted floor.
	ErrWeakParams = errors.New("argon2 parameters below minimum")
)

// Params are the Argon2id cost parameters. Zero values are invalid; use
// [DefaultParams] unless you have measured better ones for your hardware.
type Params struct {
	MemoryKB    uint32
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultParams follows the second OWASP recommendation for Argon2id
// (19 MiB, 2 iterations).
func DefaultParams() Params {
	return Params{
		MemoryKB:    19 * 1024,
		Iterations:  2,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	}
}

func (p Params) validate() error {
	switch {
	case p.MemoryKB < 8*1024:
		return fmt.Errorf("%w: memory %d KB", ErrWeakParams, p.MemoryKB)
	case p.Iterations < 1:
		return fmt.Errorf("%w: iterations %d", ErrWeakParams, p.Iterations)
	case p.Parallelism < 1:
		return fmt.Errorf("%w: parallelism %d", ErrWeakParams, p.Parallelism)
	case p.SaltLength < 16:
		return fmt.Errorf("%w: salt length %d", ErrWeakParams, p.SaltLength)
	case p.KeyLength < 16:
		return fmt.Errorf("%w: key length %d", ErrWeakParams, p.KeyLength)
	}
	return nil
}

// Hasher hashes and verifies passwords with Argon2id, encoding hashes in
// PHC string format:
//
//	$argon2id$v=19$m=<memory>,t=<iterations>,p=<threads>$<salt>$<hash>
type Hasher struct {
	params Params
}

// NewHasher validates params and returns a Hasher.
func NewHasher(params Params) (*Hasher, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}
	return &Hasher{params: params}, nil
}

// Hash derives a PHC-encoded hash from password with a fresh random salt.
func (h *Hasher) Hash(password string) (string, error) {
	salt := make([]byte, h.params.SaltLength)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", err
	}

	key := argon2.IDKey(
		[]byte(password),
		salt,
		h.params.Iterations,
		h.params.MemoryKB,
		h.params.Parallelism,
		h.params.KeyLength,
	)

	return fmt.Sprintf(
		"$%s$v=%d$m=%d,t=%d,p=%d$%s$%s",
		phcAlgorithm,
		argon2.Version,
		h.params.MemoryKB,
		h.params.Iterations,
		h.params.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify reports whether password matches the PHC-encoded hash. The
// comparison is constant time over the derived keys.
func (h *Hasher) Verify(password, encoded string) (bool, error) {
	memory, iterations, parallelism, salt, key, err := parsePHC(encoded)
	if err != nil {
		return false, err
	}

	computed := argon2.IDKey(
		[]byte(password),
		salt,
		iterations,
		memory,
		parallelism,
		uint32(len(key)),
	)

	return subtle.ConstantTimeCompare(computed, key) == 1, nil
}

// NeedsRehash reports whether the stored hash was produced with parameters
// weaker than the Hasher's own. Callers re-hash on the next successful
// verification.
func (h *Hasher) NeedsRehash(encoded string) (bool, error) {
	memory, iterations, parallelism, _, key, err := parsePHC(encoded)
	if err != nil {
		return false, err
	}
	return memory < h.params.MemoryKB ||
		iterations < h.params.Iterations ||
		parallelism < h.params.Parallelism ||
		uint32(len(key)) != h.params.KeyLength, nil
}

func parsePHC(encoded string) (memory, iterations uint32, parallelism uint8, salt, key []byte, err error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != phcAlgorithm {
		return 0, 0, 0, nil, nil, fmt.Errorf("%w: not an argon2id PHC string", ErrHashMalformed)
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return 0, 0, 0, nil, nil, fmt.Errorf("%w: bad version field", ErrHashMalformed)
	}

	for _, pair := range strings.Split(parts[3], ",") {
		kv := strings.SplitN(pair, "=", 2)
		if len(kv) != 2 {
			return 0, 0, 0, nil, nil, fmt.Errorf("%w: bad parameter field", ErrHashMalformed)
		}
		v, perr := strconv.ParseUint(kv[1], 10, 32)
		if perr != nil {
			return 0, 0, 0, nil, nil, fmt.Errorf("%w: bad parameter value", ErrHashMalformed)
		}
		switch kv[0] {
		case "m":
			memory = uint32(v)
		case "t":
			iterations = uint32(v)
		case "p":
			if v > 255 {
				return 0, 0, 0, nil, nil, fmt.Errorf("%w: parallelism out of range", ErrHashMalformed)
			}
			parallelism = uint8(v)
		default:
			return 0, 0, 0, nil, nil, fmt.Errorf("%w: unknown parameter %q", ErrHashMalformed, kv[0])
		}
	}
	if memory == 0 || iterations == 0 || parallelism == 0 {
		return 0, 0, 0, nil, nil, fmt.Errorf("%w: missing parameters", ErrHashMalformed)
	}

	if salt, err = base64.RawStdEncoding.DecodeString(parts[4]); err != nil || len(salt) < 8 {
		return 0, 0, 0, nil, nil, fmt.Errorf("%w: bad salt", ErrHashMalformed)
	}
	if key, err = base64.RawStdEncoding.DecodeString(parts[5]); err != nil || len(key) < 16 {
		return 0, 0, 0, nil, nil, fmt.Errorf("%w: bad key", ErrHashMalformed)
	}

	return memory, iterations, parallelism, salt, key, nil
}
