// Package cache - read-through кеш над хранилищем конфигураций.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jellydator/ttlcache/v3"

	"github.com/Alexandr-Snisarenko/dynamic-routing/internal/config"
	"github.com/Alexandr-Snisarenko/dynamic-routing/internal/domain"
	"github.com/Alexandr-Snisarenko/dynamic-routing/internal/metrics"
	"github.com/Alexandr-Snisarenko/dynamic-routing/internal/ports"
)

var (
	_ ports.ConfigRepo   = (*ConfigCache)(nil)
	_ ports.ConfigHolder = (*ConfigCache)(nil)
)

// entry хранит момент загрузки: ttlcache продлевает запись при чтении (TTI),
// а абсолютный возраст (TTL) проверяем сами.
type entry[V any] struct {
	value    V
	loadedAt time.Time
}

type keyRef struct {
	tenantID string
	keyHash  string
}

// ConfigCache кеширует конфигурации и результаты проверки API-ключей.
// Отсутствующие записи не кешируются.
type ConfigCache struct {
	repo    ports.ConfigRepo
	ttl     time.Duration
	now     func() time.Time
	configs *ttlcache.Cache[domain.ConfigRef, entry[json.RawMessage]]
	keys    *ttlcache.Cache[keyRef, entry[domain.Identity]]
}

func NewConfigCache(repo ports.ConfigRepo, cfg *config.Cache) *ConfigCache {
	return &ConfigCache{
		repo: repo,
		ttl:  cfg.TTL,
		now:  time.Now,
		configs: ttlcache.New(
			ttlcache.WithTTL[domain.ConfigRef, entry[json.RawMessage]](cfg.TTI),
			ttlcache.WithCapacity[domain.ConfigRef, entry[json.RawMessage]](cfg.Capacity),
		),
		keys: ttlcache.New(
			ttlcache.WithTTL[keyRef, entry[domain.Identity]](cfg.TTI),
			ttlcache.WithCapacity[keyRef, entry[domain.Identity]](cfg.Capacity),
		),
	}
}

// Start запускает фоновую очистку просроченных записей до отмены ctx.
func (c *ConfigCache) Start(ctx context.Context) {
	go c.configs.Start()
	go c.keys.Start()
	<-ctx.Done()
	c.configs.Stop()
	c.keys.Stop()
}

func (c *ConfigCache) FetchKey(ctx context.Context, tenantID, apiKey, hashKey string) (domain.Identity, error) {
	ref := keyRef{tenantID: tenantID, keyHash: domain.HashAPIKey(apiKey, hashKey)}
	if id, ok := lookup(c, c.keys, ref); ok {
		return id, nil
	}

	id, err := c.repo.FetchKey(ctx, tenantID, apiKey, hashKey)
	if err != nil {
		return domain.Identity{}, err
	}
	c.keys.Set(ref, entry[domain.Identity]{value: id, loadedAt: c.now()}, ttlcache.DefaultTTL)
	return id, nil
}

func (c *ConfigCache) FetchDynamicRoutingConfigs(ctx context.Context, ref domain.ConfigRef) (json.RawMessage, error) {
	if raw, ok := lookup(c, c.configs, ref); ok {
		return raw, nil
	}

	raw, err := c.repo.FetchDynamicRoutingConfigs(ctx, ref)
	if err != nil {
		return nil, err
	}
	c.configs.Set(ref, entry[json.RawMessage]{value: raw, loadedAt: c.now()}, ttlcache.DefaultTTL)
	return raw, nil
}

// SaveDynamicRoutingConfig пишет в хранилище и сбрасывает локальную запись.
// Остальные инстансы узнают об изменении через ports.ConfigUpdatesPublisher.
func (c *ConfigCache) SaveDynamicRoutingConfig(ctx context.Context, ref domain.ConfigRef, cfg json.RawMessage) error {
	if err := c.repo.SaveDynamicRoutingConfig(ctx, ref, cfg); err != nil {
		return err
	}
	c.configs.Delete(ref)
	return nil
}

func (c *ConfigCache) PurgeConfig(_ context.Context, ref domain.ConfigRef) error {
	c.configs.Delete(ref)
	return nil
}

func lookup[K comparable, V any](c *ConfigCache, store *ttlcache.Cache[K, entry[V]], key K) (V, bool) {
	var zero V
	item := store.Get(key)
	if item == nil {
		metrics.RecordCacheLookup(false)
		return zero, false
	}
	e := item.Value()
	if c.ttl > 0 && c.now().Sub(e.loadedAt) >= c.ttl {
		store.Delete(key)
		metrics.RecordCacheLookup(false)
		return zero, false
	}
	metrics.RecordCacheLookup(true)
	return e.value, true
}
