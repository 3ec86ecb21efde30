package blacklist

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// LocalBlacklist is an in-process blacklist for single-instance deployments
// and tests. Revocations are not visible to other processes.
type LocalBlacklist struct {
	c *gocache.Cache
}

// NewLocalBlacklist creates an in-memory blacklist. Expired entries are
// purged once a minute.
func NewLocalBlacklist() *LocalBlacklist {
	return &LocalBlacklist{c: gocache.New(gocache.NoExpiration, time.Minute)}
}

func (b *LocalBlacklist) Add(_ context.Context, familyID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	b.c.Set(familyID, struct{}{}, ttl)
	return nil
}

func (b *LocalBlacklist) Contains(_ context.Context, familyID string) (bool, error) {
	_, ok := b.c.Get(familyID)
	return ok, nil
}
