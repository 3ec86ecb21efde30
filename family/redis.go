package family

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	rotateStatusNotFound    int64 = 0
	rotateStatusExpired     int64 = 1
	rotateStatusMismatch    int64 = 2
	rotateStatusRotated     int64 = 3
	rotateStatusInvalidBlob int64 = 4
	rotateStatusRevoked     int64 = 5
)

// Lua offsets are 1-indexed views of the layout in encoding.go.
const rotateFamilyScript = `
local function read_be64(s, i)
  local b1 = string.byte(s, i)
  local b2 = string.byte(s, i + 1)
  local b3 = string.byte(s, i + 2)
  local b4 = string.byte(s, i + 3)
  local b5 = string.byte(s, i + 4)
  local b6 = string.byte(s, i + 5)
  local b7 = string.byte(s, i + 6)
  local b8 = string.byte(s, i + 7)
  if not b8 then
    return nil
  end
  return ((((((((b1 * 256) + b2) * 256 + b3) * 256 + b4) * 256 + b5) * 256 + b6) * 256 + b7) * 256 + b8)
end

local function write_be32(n)
  return string.char(
    math.floor(n / 16777216) % 256,
    math.floor(n / 65536) % 256,
    math.floor(n / 256) % 256,
    n % 256
  )
end

local key = KEYS[1]
local provided_hash = ARGV[1]
local next_hash = ARGV[2]
local now_unix = tonumber(ARGV[3])

local data = redis.call("GET", key)
if not data then
  return {0}
end
if string.byte(data, 1) ~= 1 or #data < 56 then
  return {4}
end

local expires_at = read_be64(data, 15)
if not expires_at or expires_at <= now_unix then
  redis.call("DEL", key)
  return {1}
end

if string.byte(data, 2) ~= 0 then
  return {5}
end

local current_hash = string.sub(data, 23, 54)
if current_hash ~= provided_hash then
  local revoked = string.sub(data, 1, 1) .. string.char(1) .. string.sub(data, 3)
  local ttl = redis.call("PTTL", key)
  if ttl > 0 then
    redis.call("SET", key, revoked, "PX", ttl)
  else
    redis.call("SET", key, revoked)
  end
  return {2}
end

local ttl = redis.call("PTTL", key)
if ttl <= 0 then
  redis.call("DEL", key)
  return {1}
end

local count = string.byte(data, 3) * 16777216
  + string.byte(data, 4) * 65536
  + string.byte(data, 5) * 256
  + string.byte(data, 6)
local updated = string.sub(data, 1, 2)
  .. write_be32(count + 1)
  .. string.sub(data, 7, 22)
  .. next_hash
  .. string.sub(data, 55)

redis.call("SET", key, updated, "PX", ttl)
return {3, updated}
`

var rotateFamilyLua = redis.NewScript(rotateFamilyScript)

const revokeFamilyScript = `
local data = redis.call("GET", KEYS[1])
if not data then
  return 0
end
if string.byte(data, 2) ~= 0 then
  return 1
end

local updated = string.sub(data, 1, 1) .. string.char(1) .. string.sub(data, 3)
local ttl = redis.call("PTTL", KEYS[1])
if ttl > 0 then
  redis.call("SET", KEYS[1], updated, "PX", ttl)
else
  redis.call("SET", KEYS[1], updated)
end
return 1
`

var revokeFamilyLua = redis.NewScript(revokeFamilyScript)

// RedisStore is a Redis-backed [Store]. Rotation runs as a single Lua
// compare-and-swap, so concurrent refresh attempts racing on one family
// serialize inside Redis: exactly one wins, the rest observe a mismatch.
// Expiry is enforced twice, by key TTL and by the embedded expires_at, so
// a key surviving past its lifetime is still unusable.
type RedisStore struct {
	redis  redis.UniversalClient
	prefix string
	now    func() time.Time
}

// NewRedisStore creates a RedisStore. prefix namespaces all keys; when
// empty the default "gfam" is used.
func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "gfam"
	}
	return &RedisStore{
		redis:  client,
		prefix: prefix,
		now:    time.Now,
	}
}

// WithTimeFunc overrides the store's time source. The engine injects its
// clock here so expiry decisions agree with token timestamps.
func (s *RedisStore) WithTimeFunc(fn func() time.Time) *RedisStore {
	if fn != nil {
		s.now = fn
	}
	return s
}

func (s *RedisStore) key(familyID string) string {
	return s.prefix + ":" + familyID
}

// CreateFamily inserts a new record keyed by family id with a TTL equal to
// the remaining refresh lifetime.
func (s *RedisStore) CreateFamily(ctx context.Context, rec *Record) error {
	data, err := encodeRecord(rec)
	if err != nil {
		return err
	}

	ttl := time.Unix(rec.ExpiresAt, 0).Sub(s.now())
	if ttl <= 0 {
		return ErrExpired
	}

	ok, err := s.redis.SetNX(ctx, s.key(rec.FamilyID), data, ttl).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if !ok {
		return ErrConflict
	}

	return nil
}

// Get returns the decoded record, deleting it on the way out when the
// embedded expiry has already passed.
func (s *RedisStore) Get(ctx context.Context, familyID string) (*Record, error) {
	data, err := s.redis.Get(ctx, s.key(familyID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	rec, err := decodeRecord(data)
	if err != nil {
		return nil, err
	}
	rec.FamilyID = familyID

	if rec.ExpiresAt <= s.now().Unix() {
		_ = s.redis.Del(ctx, s.key(familyID)).Err()
		return nil, ErrExpired
	}

	return rec, nil
}

// Rotate performs the Lua compare-and-swap described on [Store].
func (s *RedisStore) Rotate(ctx context.Context, familyID string, providedHash, nextHash [32]byte) (*Record, error) {
	result, err := rotateFamilyLua.Run(
		ctx,
		s.redis,
		[]string{s.key(familyID)},
		providedHash[:],
		nextHash[:],
		s.now().Unix(),
	).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	parts, ok := result.([]interface{})
	if !ok || len(parts) == 0 {
		return nil, fmt.Errorf("%w: invalid rotate script response", ErrUnavailable)
	}

	code, ok := parts[0].(int64)
	if !ok {
		return nil, fmt.Errorf("%w: invalid rotate script status", ErrUnavailable)
	}

	switch code {
	case rotateStatusNotFound:
		return nil, ErrNotFound
	case rotateStatusExpired:
		return nil, ErrExpired
	case rotateStatusMismatch:
		return nil, ErrReuseDetected
	case rotateStatusRevoked:
		return nil, ErrFamilyRevoked
	case rotateStatusRotated:
		if len(parts) < 2 {
			return nil, fmt.Errorf("%w: missing updated record payload", ErrUnavailable)
		}

		var blob []byte
		switch v := parts[1].(type) {
		case string:
			blob = []byte(v)
		case []byte:
			blob = v
		default:
			return nil, fmt.Errorf("%w: invalid updated record payload", ErrUnavailable)
		}

		rec, decErr := decodeRecord(blob)
		if decErr != nil {
			return nil, decErr
		}
		rec.FamilyID = familyID
		return rec, nil
	case rotateStatusInvalidBlob:
		return nil, ErrCorrupt
	default:
		return nil, fmt.Errorf("%w: unknown rotate script status", ErrUnavailable)
	}
}

// Revoke sets the revoked flag in place, preserving the remaining TTL.
// Idempotent; a missing family is a no-op.
func (s *RedisStore) Revoke(ctx context.Context, familyID string) error {
	if err := revokeFamilyLua.Run(ctx, s.redis, []string{s.key(familyID)}).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// IsRevoked reports the revocation flag. Missing and expired families
// report true: nothing can ever rotate them again.
func (s *RedisStore) IsRevoked(ctx context.Context, familyID string) (bool, error) {
	rec, err := s.Get(ctx, familyID)
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrExpired) {
			return true, nil
		}
		return false, err
	}
	return rec.Revoked, nil
}

// DeleteExpired is a no-op for Redis: key TTLs already collect expired
// families.
func (s *RedisStore) DeleteExpired(context.Context, time.Time) (int, error) {
	return 0, nil
}

// Ping measures one round trip to the backend.
func (s *RedisStore) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return time.Since(start), nil
}
