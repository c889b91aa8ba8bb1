// Package cache provides the in-process reconciliation cache backing the
// heartbeat fast path.
package cache

import (
	"log/slog"

	"signage/config"
	"signage/internal/domain/entity"
	domainerrors "signage/internal/domain/errors"
	"signage/internal/domain/service"

	"github.com/maypok86/otter"
)

// reconciliationCache is an otter-backed implementation of
// service.ReconciliationCache. The TTL is a backstop only; correctness comes
// from explicit invalidation on every schedule/playlist mutation.
type reconciliationCache struct {
	cache otter.Cache[int64, *entity.CacheEntry]
}

// nullCache is the degraded mode when the backing cache cannot be built:
// every lookup misses and the system falls back to fresh resolution.
type nullCache struct{}

func (nullCache) Get(int64) (*entity.CacheEntry, bool) { return nil, false }
func (nullCache) Put(int64, *entity.CacheEntry)        {}
func (nullCache) Invalidate(int64)                     {}
func (nullCache) InvalidateAll()                       {}

// New builds the reconciliation cache from the sync configuration. A cache
// construction failure degrades to an always-miss cache rather than failing
// startup, since the cache is a throughput optimization only.
func New(cfg *config.Config, logger *slog.Logger) service.ReconciliationCache {
	syncCfg := cfg.Sync

	if syncCfg.CacheCapacity <= 0 || syncCfg.CacheTTL <= 0 {
		return degrade(logger, domainerrors.ErrCacheBackendUnavailable.
			WithDetails("cache capacity and TTL must be positive"))
	}

	c, err := otter.MustBuilder[int64, *entity.CacheEntry](syncCfg.CacheCapacity).
		Cost(func(_ int64, _ *entity.CacheEntry) uint32 { return 1 }).
		WithTTL(syncCfg.CacheTTL).
		Build()
	if err != nil {
		return degrade(logger, domainerrors.ErrCacheBackendUnavailable.
			WithDetails(err.Error()))
	}

	return &reconciliationCache{cache: c}
}

// degrade logs the typed backend error and hands back the always-miss cache.
func degrade(logger *slog.Logger, cause *domainerrors.BaseError) service.ReconciliationCache {
	logger.Warn("reconciliation cache disabled, falling back to fresh resolution",
		slog.String("code", cause.ErrorCode()),
		slog.String("details", cause.Details()),
	)

	return nullCache{}
}

func (r *reconciliationCache) Get(deviceID int64) (*entity.CacheEntry, bool) {
	return r.cache.Get(deviceID)
}

func (r *reconciliationCache) Put(deviceID int64, entry *entity.CacheEntry) {
	r.cache.Set(deviceID, entry)
}

func (r *reconciliationCache) Invalidate(deviceID int64) {
	r.cache.Delete(deviceID)
}

func (r *reconciliationCache) InvalidateAll() {
	r.cache.Clear()
}
