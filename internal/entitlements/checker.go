package entitlements

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ottx/internal/models"
	"github.com/desertthunder/ottx/internal/shared"
	"golang.org/x/sync/singleflight"
)

// Source fetches entitlements from the backend.
type Source interface {
	GetEntitlements(ctx context.Context, offerID, jwt string) (models.Entitlement, error)
}

// Checker resolves offer access through a [Cache], coalescing concurrent lookups per offer.
type Checker struct {
	source Source
	cache  *Cache[models.Entitlement]
	clock  shared.Clock
	group  singleflight.Group
	logger *log.Logger
}

// NewChecker creates a checker. A nil clock uses the system clock.
func NewChecker(source Source, cache *Cache[models.Entitlement], clock shared.Clock, logger *log.Logger) *Checker {
	if clock == nil {
		clock = shared.SystemClock()
	}
	return &Checker{source: source, cache: cache, clock: clock, logger: logger}
}

// Key returns the cache key for offerID.
func Key(offerID string) string {
	return QueryKey + ":" + offerID
}

// HasAccess reports whether the jwt's customer may play content behind offerID.
// Anonymous callers (empty jwt) never have access and never reach the backend.
func (c *Checker) HasAccess(ctx context.Context, offerID, jwt string) (bool, error) {
	if offerID == "" {
		return false, fmt.Errorf("%w: offer id", shared.ErrMissingArgument)
	}
	if jwt == "" {
		return false, nil
	}

	key := Key(offerID)
	if e, ok := c.cache.Get(key); ok && c.valid(e) {
		return e.AccessGranted, nil
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		e, err := c.source.GetEntitlements(ctx, offerID, jwt)
		if err != nil {
			return models.Entitlement{}, err
		}
		c.cache.Set(key, e)
		return e, nil
	})
	if err != nil {
		c.logger.Warn("entitlement lookup failed", "offer", offerID, "error", err)
		return false, err
	}

	return v.(models.Entitlement).AccessGranted, nil
}

// InvalidateQueries drops cached entitlements under prefix.
func (c *Checker) InvalidateQueries(prefix string) int {
	n := c.cache.InvalidateQueries(prefix)
	c.logger.Debug("invalidated queries", "prefix", prefix, "count", n)
	return n
}

// Stats exposes cache counters.
func (c *Checker) Stats() CacheStats {
	return c.cache.Stats()
}

// valid rejects granted entitlements whose own expiry has passed.
func (c *Checker) valid(e models.Entitlement) bool {
	if !e.AccessGranted || e.ExpiresAt == 0 {
		return true
	}
	return c.clock.Now().Unix() < e.ExpiresAt
}
