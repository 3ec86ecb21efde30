package goGrant

import (
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/MrEthical07/goGrant/blacklist"
	"github.com/MrEthical07/goGrant/family"
	internalaudit "github.com/MrEthical07/goGrant/internal/audit"
	"github.com/MrEthical07/goGrant/token"
)

// Builder assembles an [Engine]. A Builder is single-use: Build consumes it.
type Builder struct {
	config Config
	redis  *redis.Client

	store     family.Store
	blacklist blacklist.Blacklist
	verifier  IdentityVerifier
	auditSink AuditSink
	clock     Clock

	built bool
}

// New returns a Builder preloaded with the default configuration.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the entire configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis supplies the Redis client backing the default family store and
// blacklist.
func (b *Builder) WithRedis(client *redis.Client) *Builder {
	b.redis = client
	return b
}

// WithStore overrides the family store, e.g. with a [family.PostgresStore].
// When set, no Redis client is required for family persistence.
func (b *Builder) WithStore(store family.Store) *Builder {
	b.store = store
	return b
}

// WithBlacklist overrides the revocation blacklist implementation.
func (b *Builder) WithBlacklist(bl blacklist.Blacklist) *Builder {
	b.blacklist = bl
	return b
}

// WithIdentityVerifier supplies the credential checker for PasswordGrant.
// Engines built without one can still refresh, authenticate, and revoke.
func (b *Builder) WithIdentityVerifier(v IdentityVerifier) *Builder {
	b.verifier = v
	return b
}

// WithClock overrides the time source. Tests use this to step through token
// lifetimes deterministically.
func (b *Builder) WithClock(clock Clock) *Builder {
	b.clock = clock
	return b
}

// WithAuditSink supplies the audit event consumer.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithMetricsEnabled toggles metric collection.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles the Authenticate latency histogram.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration, wires defaults, and returns the Engine.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	clock := b.clock
	if clock == nil {
		clock = SystemClock{}
	}

	store := b.store
	if store == nil {
		if b.redis == nil {
			return nil, errors.New("redis client or family store required")
		}
		store = family.NewRedisStore(b.redis, cfg.Store.RedisPrefix).WithTimeFunc(clock.Now)
	}

	bl := b.blacklist
	if bl == nil && cfg.Blacklist.Enabled {
		if b.redis != nil {
			bl = blacklist.NewRedisBlacklist(b.redis, cfg.Blacklist.RedisPrefix)
		} else {
			bl = blacklist.NewLocalBlacklist()
		}
	}

	codec, err := token.NewCodec(token.Config{
		SigningMethod: token.SigningMethod(cfg.Token.SigningMethod),
		PrivateKey:    cfg.Token.PrivateKey,
		PublicKey:     cfg.Token.PublicKey,
		Issuer:        cfg.Token.Issuer,
		Audience:      cfg.Token.Audience,
		Leeway:        cfg.Token.Leeway,
		KeyID:         cfg.Token.KeyID,
		VerifyKeys:    cfg.Token.VerifyKeys,
		TimeFunc:      clock.Now,
	})
	if err != nil {
		return nil, err
	}

	dispatcher := internalaudit.NewDispatcher(internalaudit.Config{
		Enabled:    cfg.Audit.Enabled,
		BufferSize: cfg.Audit.BufferSize,
		DropIfFull: cfg.Audit.DropIfFull,
	}, b.auditSink)

	b.built = true

	return &Engine{
		config:    cfg,
		codec:     codec,
		store:     store,
		blacklist: bl,
		verifier:  b.verifier,
		clock:     clock,
		metrics:   NewMetrics(cfg.Metrics),
		audit:     dispatcher,
	}, nil
}
