package scheme

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// CatalogCachePrefix namespaces cached catalog lookups.
const CatalogCachePrefix = "scheme:catalog:"

// JSONCache is the subset of the Redis cache the catalog needs.
type JSONCache interface {
	GetJSON(ctx context.Context, key string, dest interface{}) error
	SetJSON(ctx context.Context, key string, value interface{}, expiration time.Duration) error
}

// CachedCatalog serves catalog lookups from a cache and falls back to the
// wrapped catalog on a miss or a cache error.
type CachedCatalog struct {
	next   Catalog
	cache  JSONCache
	ttl    time.Duration
	logger logrus.FieldLogger
}

func NewCachedCatalog(next Catalog, cache JSONCache, ttl time.Duration, logger logrus.FieldLogger) *CachedCatalog {
	return &CachedCatalog{
		next:   CatalogOrEmpty(next),
		cache:  cache,
		ttl:    ttl,
		logger: logger,
	}
}

func CatalogCacheKey(branchID uint, semester int) string {
	return fmt.Sprintf("%s%d:%d", CatalogCachePrefix, branchID, semester)
}

func (c *CachedCatalog) FetchCatalog(ctx context.Context, branchID uint, semester int) ([]CourseRow, error) {
	key := CatalogCacheKey(branchID, semester)

	var rows []CourseRow
	if err := c.cache.GetJSON(ctx, key, &rows); err == nil {
		return rows, nil
	}

	rows, err := c.next.FetchCatalog(ctx, branchID, semester)
	if err != nil {
		return nil, err
	}

	if err := c.cache.SetJSON(ctx, key, rows, c.ttl); err != nil && c.logger != nil {
		c.logger.WithFields(logrus.Fields{"key": key}).Warnf("catalog cache write failed: %v", err)
	}
	return rows, nil
}
