package store

import (
	"context"
	"time"

	"github.com/voyagen/sectionvault/internal/cache"
	"github.com/voyagen/sectionvault/internal/logging"
	"github.com/voyagen/sectionvault/internal/models"
)

const (
	ttlTree        = 5 * time.Minute
	ttlCollections = 2 * time.Minute

	keyCollections = "collections:all"
)

func treeKey(c models.Collection) string { return "tree:" + string(c) }

// CachedStore serves reads of an inner Store from Redis; writes go straight
// through and invalidate the affected keys.
type CachedStore struct {
	inner Store
	cache *cache.Redis
}

func NewCachedStore(inner Store, c *cache.Redis) *CachedStore {
	return &CachedStore{inner: inner, cache: c}
}

func (c *CachedStore) GetTree(ctx context.Context, col models.Collection) (*SavedTree, error) {
	key := treeKey(col)
	if v, err := cache.Get[SavedTree](ctx, c.cache, key); err == nil {
		return &v, nil
	}
	t, err := c.inner.GetTree(ctx, col)
	if err != nil {
		return nil, err
	}
	if err := cache.Set(ctx, c.cache, key, t, ttlTree); err != nil {
		logging.Warn().Err(err).Str("key", key).Msg("cache set failed")
	}
	return t, nil
}

func (c *CachedStore) ListCollections(ctx context.Context) ([]CollectionInfo, error) {
	if v, err := cache.Get[[]CollectionInfo](ctx, c.cache, keyCollections); err == nil {
		return v, nil
	}
	infos, err := c.inner.ListCollections(ctx)
	if err != nil {
		return nil, err
	}
	if err := cache.Set(ctx, c.cache, keyCollections, infos, ttlCollections); err != nil {
		logging.Warn().Err(err).Str("key", keyCollections).Msg("cache set failed")
	}
	return infos, nil
}

func (c *CachedStore) PutTree(ctx context.Context, col models.Collection, groups []models.Group) (int64, error) {
	rev, err := c.inner.PutTree(ctx, col, groups)
	if err != nil {
		return 0, err
	}
	c.invalidate(ctx, treeKey(col), keyCollections)
	return rev, nil
}

func (c *CachedStore) DeleteTree(ctx context.Context, col models.Collection) error {
	if err := c.inner.DeleteTree(ctx, col); err != nil {
		return err
	}
	c.invalidate(ctx, treeKey(col), keyCollections)
	return nil
}

// Flush drops every cached tree, e.g. after migrations changed the table.
func (c *CachedStore) Flush(ctx context.Context) {
	if err := cache.DelPattern(ctx, c.cache, "tree:*"); err != nil {
		logging.Warn().Err(err).Msg("cache flush failed")
	}
	c.invalidate(ctx, keyCollections)
}

func (c *CachedStore) invalidate(ctx context.Context, keys ...string) {
	if err := cache.Del(ctx, c.cache, keys...); err != nil && !cache.IsMiss(err) {
		logging.Warn().Err(err).Strs("keys", keys).Msg("cache invalidate failed")
	}
}
