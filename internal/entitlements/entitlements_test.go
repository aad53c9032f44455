package entitlements

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/desertthunder/ottx/internal/models"
	"github.com/desertthunder/ottx/internal/shared"
	tu "github.com/desertthunder/ottx/internal/testing"
	"github.com/stretchr/testify/require"
)

func TestCache(t *testing.T) {
	t.Run("Expires After TTL", func(t *testing.T) {
		clock := tu.NewFakeClock(time.Unix(1_700_000_000, 0))
		cache := NewCache[int](CacheConfig{TTL: time.Minute, Clock: clock})

		cache.Set("entitlements:a", 1)
		v, ok := cache.Get("entitlements:a")
		require.True(t, ok)
		require.Equal(t, 1, v)

		clock.Advance(2 * time.Minute)
		_, ok = cache.Get("entitlements:a")
		require.False(t, ok)
		require.Equal(t, 0, cache.Len())

		stats := cache.Stats()
		require.Equal(t, int64(1), stats.Hits)
		require.Equal(t, int64(1), stats.Misses)
	})

	t.Run("InvalidateQueries Matches Prefix Segments", func(t *testing.T) {
		cache := NewCache[int](CacheConfig{})
		cache.Set("entitlements", 0)
		cache.Set("entitlements:a", 1)
		cache.Set("entitlements:b", 2)
		cache.Set("entitlementsX", 3)
		cache.Set("media:a", 4)

		n := cache.InvalidateQueries(QueryKey)
		require.Equal(t, 3, n)
		require.Equal(t, 2, cache.Len())

		_, ok := cache.Get("entitlementsX")
		require.True(t, ok)
	})

	t.Run("Evicts When Full", func(t *testing.T) {
		cache := NewCache[int](CacheConfig{MaxSize: 2})
		cache.Set("a", 1)
		cache.Set("b", 2)
		cache.Set("c", 3)

		require.Equal(t, 2, cache.Len())
		require.Equal(t, int64(1), cache.Stats().Evictions)
	})
}

type countingSource struct {
	calls int
	resp  models.Entitlement
	err   error
}

func (s *countingSource) GetEntitlements(context.Context, string, string) (models.Entitlement, error) {
	s.calls++
	return s.resp, s.err
}

func TestChecker(t *testing.T) {
	logger := shared.NewLogger(io.Discard)
	ctx := context.Background()

	t.Run("Caches Successful Lookups", func(t *testing.T) {
		source := &countingSource{resp: models.Entitlement{AccessGranted: true}}
		checker := NewChecker(source, NewCache[models.Entitlement](CacheConfig{}), nil, logger)

		for range 3 {
			ok, err := checker.HasAccess(ctx, "S1", "jwt")
			require.NoError(t, err)
			require.True(t, ok)
		}
		require.Equal(t, 1, source.calls)
	})

	t.Run("Invalidation Forces Refetch", func(t *testing.T) {
		source := &countingSource{resp: models.Entitlement{AccessGranted: true}}
		checker := NewChecker(source, NewCache[models.Entitlement](CacheConfig{}), nil, logger)

		checker.HasAccess(ctx, "S1", "jwt")
		require.Equal(t, 1, checker.InvalidateQueries(QueryKey))

		source.resp = models.Entitlement{AccessGranted: false}
		ok, err := checker.HasAccess(ctx, "S1", "jwt")
		require.NoError(t, err)
		require.False(t, ok)
		require.Equal(t, 2, source.calls)
	})

	t.Run("Anonymous Never Has Access", func(t *testing.T) {
		source := &countingSource{resp: models.Entitlement{AccessGranted: true}}
		checker := NewChecker(source, NewCache[models.Entitlement](CacheConfig{}), nil, logger)

		ok, err := checker.HasAccess(ctx, "S1", "")
		require.NoError(t, err)
		require.False(t, ok)
		require.Zero(t, source.calls)
	})

	t.Run("Errors Are Not Cached", func(t *testing.T) {
		source := &countingSource{err: errors.New("boom")}
		checker := NewChecker(source, NewCache[models.Entitlement](CacheConfig{}), nil, logger)

		_, err := checker.HasAccess(ctx, "S1", "jwt")
		require.Error(t, err)
		_, err = checker.HasAccess(ctx, "S1", "jwt")
		require.Error(t, err)
		require.Equal(t, 2, source.calls)
	})

	t.Run("Expired Grant Is Refetched", func(t *testing.T) {
		clock := tu.NewFakeClock(time.Unix(1_700_000_000, 0))
		source := &countingSource{resp: models.Entitlement{AccessGranted: true, ExpiresAt: 1_700_000_030}}
		cache := NewCache[models.Entitlement](CacheConfig{TTL: time.Hour, Clock: clock})
		checker := NewChecker(source, cache, clock, logger)

		checker.HasAccess(ctx, "S1", "jwt")
		clock.Advance(time.Minute)
		checker.HasAccess(ctx, "S1", "jwt")
		require.Equal(t, 2, source.calls)
	})

	t.Run("Requires Offer", func(t *testing.T) {
		checker := NewChecker(&countingSource{}, NewCache[models.Entitlement](CacheConfig{}), nil, logger)
		_, err := checker.HasAccess(ctx, "", "jwt")
		require.ErrorIs(t, err, shared.ErrMissingArgument)
	})
}
