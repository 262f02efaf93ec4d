package store

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/buyergroup-cli/pkg/brightdata"
)

// ProviderCache adapts the store's TTL tables to the provider client's
// cache interface. Store failures are logged and reported as misses; a
// broken cache must never fail a provider call.
type ProviderCache struct {
	store      Store
	searchTTL  time.Duration
	profileTTL time.Duration
}

var _ brightdata.Cache = (*ProviderCache)(nil)

// NewProviderCache wraps a Store for use as the provider client's cache.
func NewProviderCache(st Store, searchTTL, profileTTL time.Duration) *ProviderCache {
	return &ProviderCache{store: st, searchTTL: searchTTL, profileTTL: profileTTL}
}

func (c *ProviderCache) GetSearch(ctx context.Context, key string) ([]string, bool) {
	entry, err := c.store.GetSearch(ctx, key)
	if err != nil {
		zap.L().Warn("cache: search lookup failed", zap.String("query_hash", key), zap.Error(err))
		return nil, false
	}
	if entry == nil {
		return nil, false
	}
	return entry.IDs, true
}

func (c *ProviderCache) PutSearch(ctx context.Context, key string, ids []string) {
	if err := c.store.PutSearch(ctx, key, ids, c.searchTTL); err != nil {
		zap.L().Warn("cache: search write failed", zap.String("query_hash", key), zap.Error(err))
	}
}

func (c *ProviderCache) GetProfile(ctx context.Context, id string) (*brightdata.PersonRecord, bool) {
	rec, err := c.store.GetProfile(ctx, id)
	if err != nil {
		zap.L().Warn("cache: profile lookup failed", zap.String("person_id", id), zap.Error(err))
		return nil, false
	}
	if rec == nil {
		return nil, false
	}
	return rec, true
}

func (c *ProviderCache) PutProfile(ctx context.Context, id string, rec *brightdata.PersonRecord) {
	if err := c.store.PutProfile(ctx, id, rec, c.profileTTL); err != nil {
		zap.L().Warn("cache: profile write failed", zap.String("person_id", id), zap.Error(err))
	}
}
