package goGrant

import (
	"errors"
	"time"
)

// Config is the immutable engine configuration. Construct it once, hand it
// to the [Builder], and treat it as read-only afterwards.
type Config struct {
	Token     TokenConfig
	Store     StoreConfig
	Blacklist BlacklistConfig
	Audit     AuditConfig
	Metrics   MetricsConfig
}

// TokenConfig controls signing and lifetimes for both token types.
type TokenConfig struct {
	AccessTTL  time.Duration
	RefreshTTL time.Duration

	// Leeway is the clock-skew tolerance on expiry checks. At most two
	// minutes.
	Leeway time.Duration

	SigningMethod string // "ed25519" (default) or "hs256"
	PrivateKey    []byte
	PublicKey     []byte

	// KeyID and VerifyKeys enable signing-key rotation: new tokens carry
	// KeyID in their header, and presented tokens are verified against
	// whichever VerifyKeys entry their kid names.
	KeyID      string
	VerifyKeys map[string][]byte

	Issuer   string
	Audience string
}

// StoreConfig controls the default Redis-backed family store.
type StoreConfig struct {
	RedisPrefix string
}

// BlacklistConfig controls the optional revocation blacklist consulted by
// Authenticate. Disabled by default: outstanding access tokens then stay
// valid until natural expiry even after their family is revoked.
type BlacklistConfig struct {
	Enabled     bool
	RedisPrefix string
}

// AuditConfig controls the async audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig controls the in-process metrics instruments.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// DefaultConfig returns the baseline configuration: 15m access tokens, 30d
// refresh families, 30s leeway, Ed25519 signing. Key material must still be
// supplied by the caller.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		Token: TokenConfig{
			AccessTTL:     15 * time.Minute,
			RefreshTTL:    720 * time.Hour,
			Leeway:        30 * time.Second,
			SigningMethod: "ed25519",
		},
		Audit: AuditConfig{
			BufferSize: 256,
			DropIfFull: true,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Token.PrivateKey = cloneBytes(cfg.Token.PrivateKey)
	out.Token.PublicKey = cloneBytes(cfg.Token.PublicKey)

	if cfg.Token.VerifyKeys != nil {
		out.Token.VerifyKeys = make(map[string][]byte, len(cfg.Token.VerifyKeys))
		for kid, key := range cfg.Token.VerifyKeys {
			out.Token.VerifyKeys[kid] = cloneBytes(key)
		}
	}

	return out
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

// Validate checks the configuration invariants that do not require key
// material parsing; the token codec performs the deeper key checks.
func (c *Config) Validate() error {
	if c.Token.AccessTTL <= 0 {
		return errors.New("access TTL must be positive")
	}
	if c.Token.RefreshTTL <= c.Token.AccessTTL {
		return errors.New("refresh TTL must exceed access TTL")
	}
	if c.Token.Leeway < 0 || c.Token.Leeway > 2*time.Minute {
		return errors.New("leeway must be within [0, 2m]")
	}

	switch c.Token.SigningMethod {
	case "ed25519", "hs256":
	default:
		return errors.New("signing method must be ed25519 or hs256")
	}

	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("audit buffer size must be positive")
	}

	return nil
}
