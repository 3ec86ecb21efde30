package token

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SigningMethod selects the signature algorithm for issued tokens.
type SigningMethod string

const (
	// MethodEd25519 signs tokens with an Ed25519 key pair.
	MethodEd25519 SigningMethod = "ed25519"
	// MethodHS256 signs tokens with a shared HMAC secret.
	MethodHS256 SigningMethod = "hs256"
)

// Type distinguishes short-lived access tokens from long-lived refresh tokens.
type Type string

const (
	// TypeAccess marks a token that authorizes individual API requests.
	TypeAccess Type = "access"
	// TypeRefresh marks a token used solely to obtain new token pairs.
	TypeRefresh Type = "refresh"
)

var (
	// ErrEncoding is returned by Issue when claims fail schema validation.
	ErrEncoding = errors.New("claims failed encoding validation")
	// ErrMalformed is returned by Verify when the token structure cannot be parsed.
	ErrMalformed = errors.New("malformed token")
	// ErrSignatureInvalid is returned by Verify on a signature mismatch.
	ErrSignatureInvalid = errors.New("token signature invalid")
	// ErrExpired is returned by Verify when the token is past its expiry, beyond leeway.
	ErrExpired = errors.New("token expired")
)

// Claims is the decoded payload of an issued token.
//
// Scopes is a set: order is irrelevant and duplicates are removed at issue
// time. Verification never mutates the token it was decoded from.
type Claims struct {
	Subject   string
	Scopes    []string
	TokenType Type
	FamilyID  string
	TokenID   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Config holds the immutable signing configuration for a [Codec].
type Config struct {
	SigningMethod SigningMethod
	PrivateKey    []byte
	PublicKey     []byte
	Issuer        string
	Audience      string

	// Leeway is the clock-skew tolerance applied to expiry checks.
	Leeway time.Duration

	// KeyID is embedded in the token header so verifiers can select the
	// right key during secret rotation.
	KeyID string

	// VerifyKeys maps key ids to verification keys. When non-empty, every
	// presented token must carry a known kid.
	VerifyKeys map[string][]byte

	// TimeFunc supplies the current time for expiry checks. Defaults to
	// [time.Now]; injectable for tests.
	TimeFunc func() time.Time
}

// Codec encodes and verifies signed tokens. Verify is pure computation:
// it holds no mutable state and never touches a store, so a single Codec
// is safe for unbounded concurrent use.
type Codec struct {
	config Config
}

type wireClaims struct {
	Scopes    []string `json:"scp,omitempty"`
	TokenType string   `json:"typ"`
	FamilyID  string   `json:"fid"`
	jwt.RegisteredClaims
}

// NewCodec validates cfg and returns a ready Codec.
func NewCodec(cfg Config) (*Codec, error) {
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}
	if cfg.TimeFunc == nil {
		cfg.TimeFunc = time.Now
	}
	cfg.KeyID = strings.TrimSpace(cfg.KeyID)

	switch cfg.SigningMethod {
	case MethodHS256:
		if len(cfg.PrivateKey) == 0 {
			return nil, errors.New("hs256 requires private key")
		}
	case MethodEd25519:
		if len(cfg.PrivateKey) > 0 {
			if _, err := parseEdPrivateKey(cfg.PrivateKey); err != nil {
				return nil, err
			}
		}
		if len(cfg.PublicKey) > 0 {
			if _, err := parseEdPublicKey(cfg.PublicKey); err != nil {
				return nil, err
			}
		}
		if len(cfg.VerifyKeys) == 0 && len(cfg.PublicKey) == 0 {
			return nil, errors.New("ed25519 requires public key or verify key set")
		}
	default:
		return nil, errors.New("unsupported signing method")
	}

	for kid, key := range cfg.VerifyKeys {
		if strings.TrimSpace(kid) == "" {
			return nil, errors.New("verify key map contains empty kid")
		}
		if cfg.SigningMethod == MethodEd25519 {
			if _, err := parseEdPublicKey(key); err != nil {
				return nil, fmt.Errorf("invalid ed25519 verify key for kid %q: %w", kid, err)
			}
		} else if len(key) == 0 {
			return nil, fmt.Errorf("empty verify key for kid %q", kid)
		}
	}
	if cfg.KeyID != "" && len(cfg.VerifyKeys) > 0 {
		if _, ok := cfg.VerifyKeys[cfg.KeyID]; !ok {
			return nil, errors.New("KeyID is not present in VerifyKeys")
		}
	}

	return &Codec{config: cfg}, nil
}

// Issue serializes and signs the given claims, returning the compact
// three-segment wire representation. It fails with [ErrEncoding] when the
// claims are schema-invalid: empty subject or family id, missing token
// type, or a non-positive lifetime.
func (c *Codec) Issue(claims Claims) (string, error) {
	if claims.Subject == "" {
		return "", fmt.Errorf("%w: empty subject", ErrEncoding)
	}
	if claims.FamilyID == "" {
		return "", fmt.Errorf("%w: empty family id", ErrEncoding)
	}
	if claims.TokenType != TypeAccess && claims.TokenType != TypeRefresh {
		return "", fmt.Errorf("%w: unknown token type %q", ErrEncoding, claims.TokenType)
	}
	if !claims.ExpiresAt.After(claims.IssuedAt) {
		return "", fmt.Errorf("%w: non-positive lifetime", ErrEncoding)
	}

	wire := wireClaims{
		Scopes:    normalizeScopes(claims.Scopes),
		TokenType: string(claims.TokenType),
		FamilyID:  claims.FamilyID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   claims.Subject,
			ID:        claims.TokenID,
			IssuedAt:  jwt.NewNumericDate(claims.IssuedAt),
			ExpiresAt: jwt.NewNumericDate(claims.ExpiresAt),
			Issuer:    c.config.Issuer,
		},
	}
	if c.config.Audience != "" {
		wire.Audience = jwt.ClaimStrings{c.config.Audience}
	}

	tok := jwt.NewWithClaims(c.method(), wire)
	if c.config.KeyID != "" {
		tok.Header["kid"] = c.config.KeyID
	}

	signKey, err := c.signKey()
	if err != nil {
		return "", err
	}

	signed, err := tok.SignedString(signKey)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrEncoding, err)
	}
	return signed, nil
}

// Verify checks the signature and timing claims of a presented token and
// returns its decoded claims. Failures map onto [ErrSignatureInvalid],
// [ErrExpired], and [ErrMalformed].
func (c *Codec) Verify(raw string) (*Claims, error) {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{c.method().Alg()}),
		jwt.WithTimeFunc(c.config.TimeFunc),
		jwt.WithExpirationRequired(),
	}
	if c.config.Leeway > 0 {
		options = append(options, jwt.WithLeeway(c.config.Leeway))
	}
	if c.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(c.config.Issuer))
	}
	if c.config.Audience != "" {
		options = append(options, jwt.WithAudience(c.config.Audience))
	}

	parser := jwt.NewParser(options...)
	tok, err := parser.ParseWithClaims(raw, &wireClaims{}, c.keyFunc)
	if err != nil {
		return nil, mapParseError(err)
	}

	wire, ok := tok.Claims.(*wireClaims)
	if !ok || !tok.Valid {
		return nil, ErrMalformed
	}
	if wire.Subject == "" || wire.FamilyID == "" {
		return nil, ErrMalformed
	}

	tokenType := Type(wire.TokenType)
	if tokenType != TypeAccess && tokenType != TypeRefresh {
		return nil, ErrMalformed
	}

	claims := &Claims{
		Subject:   wire.Subject,
		Scopes:    wire.Scopes,
		TokenType: tokenType,
		FamilyID:  wire.FamilyID,
		TokenID:   wire.ID,
	}
	if wire.IssuedAt != nil {
		claims.IssuedAt = wire.IssuedAt.Time
	}
	if wire.ExpiresAt != nil {
		claims.ExpiresAt = wire.ExpiresAt.Time
	}

	return claims, nil
}

func (c *Codec) keyFunc(t *jwt.Token) (interface{}, error) {
	if t.Method.Alg() != c.method().Alg() {
		return nil, fmt.Errorf("unexpected signing algorithm: %s", t.Method.Alg())
	}

	if len(c.config.VerifyKeys) > 0 {
		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, errors.New("missing kid")
		}
		key, ok := c.config.VerifyKeys[kid]
		if !ok {
			return nil, errors.New("unknown kid")
		}
		return c.toVerifyKey(key)
	}

	if c.config.KeyID != "" {
		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, errors.New("missing kid")
		}
		if kid != c.config.KeyID {
			return nil, errors.New("unknown kid")
		}
	}

	return c.verifyKey()
}

func mapParseError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return ErrSignatureInvalid
	default:
		return ErrMalformed
	}
}

func normalizeScopes(scopes []string) []string {
	if len(scopes) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(scopes))
	out := make([]string, 0, len(scopes))
	for _, s := range scopes {
		if s == "" {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	sort.Strings(out)

	if len(out) == 0 {
		return nil
	}
	return out
}

func (c *Codec) method() jwt.SigningMethod {
	switch c.config.SigningMethod {
	case MethodHS256:
		return jwt.SigningMethodHS256
	default:
		return jwt.SigningMethodEdDSA
	}
}

func (c *Codec) signKey() (interface{}, error) {
	switch c.config.SigningMethod {
	case MethodHS256:
		return c.config.PrivateKey, nil
	default:
		return parseEdPrivateKey(c.config.PrivateKey)
	}
}

func (c *Codec) verifyKey() (interface{}, error) {
	switch c.config.SigningMethod {
	case MethodHS256:
		return c.config.PrivateKey, nil
	default:
		return parseEdPublicKey(c.config.PublicKey)
	}
}

func (c *Codec) toVerifyKey(key []byte) (interface{}, error) {
	switch c.config.SigningMethod {
	case MethodHS256:
		return key, nil
	default:
		return parseEdPublicKey(key)
	}
}

func parseEdPrivateKey(key []byte) (ed25519.PrivateKey, error) {
	if len(key) == ed25519.PrivateKeySize {
		return ed25519.PrivateKey(key), nil
	}
	parsed, err := jwt.ParseEdPrivateKeyFromPEM(key)
	if err != nil {
		return nil, errors.New("invalid ed25519 private key")
	}
	edKey, ok := parsed.(ed25519.PrivateKey)
	if !ok {
		return nil, errors.New("invalid ed25519 private key type")
	}
	return edKey, nil
}

func parseEdPublicKey(key []byte) (ed25519.PublicKey, error) {
	if len(key) == ed25519.PublicKeySize {
		return ed25519.PublicKey(key), nil
	}
	parsed, err := jwt.ParseEdPublicKeyFromPEM(key)
	if err != nil {
		return nil, errors.New("invalid ed25519 public key")
	}
	edKey, ok := parsed.(ed25519.PublicKey)
	if !ok {
		return nil, errors.New("invalid ed25519 public key type")
	}
	return edKey, nil
}
