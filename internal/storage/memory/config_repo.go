package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/Alexandr-Snisarenko/dynamic-routing/internal/domain"
	"github.com/Alexandr-Snisarenko/dynamic-routing/internal/ports"
)

var _ ports.ConfigRepo = (*ConfigDB)(nil)

type apiKeyRef struct {
	tenantID string
	keyHash  string
}

// ConfigDB - in-memory хранилище конфигураций и API-ключей.
type ConfigDB struct {
	mu      sync.RWMutex
	configs map[domain.ConfigRef]json.RawMessage
	keys    map[apiKeyRef]domain.Identity
}

func NewConfigDB() *ConfigDB {
	return &ConfigDB{
		configs: make(map[domain.ConfigRef]json.RawMessage),
		keys:    make(map[apiKeyRef]domain.Identity),
	}
}

// AddKey регистрирует API-ключ (выпуск ключей вне ядра; используется локальным режимом и тестами).
func (s *ConfigDB) AddKey(tenantID, apiKey, hashKey, merchantID, keyID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.keys[apiKeyRef{tenantID: tenantID, keyHash: domain.HashAPIKey(apiKey, hashKey)}] = domain.Identity{
		TenantID:   tenantID,
		MerchantID: merchantID,
		KeyID:      keyID,
		CreatedAt:  time.Now().UTC(),
	}
}

func (s *ConfigDB) FetchKey(_ context.Context, tenantID, apiKey, hashKey string) (domain.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.keys[apiKeyRef{tenantID: tenantID, keyHash: domain.HashAPIKey(apiKey, hashKey)}]
	if !ok {
		return domain.Identity{}, fmt.Errorf("fetch key for tenant %q: %w", tenantID, domain.ErrKeyNotFound)
	}
	return id, nil
}

func (s *ConfigDB) FetchDynamicRoutingConfigs(_ context.Context, ref domain.ConfigRef) (json.RawMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cfg, ok := s.configs[ref]
	if !ok {
		return nil, fmt.Errorf("fetch %s config for merchant %q: %w", ref.Algorithm, ref.MerchantID, domain.ErrKeyNotFound)
	}
	return slices.Clone(cfg), nil
}

func (s *ConfigDB) SaveDynamicRoutingConfig(_ context.Context, ref domain.ConfigRef, cfg json.RawMessage) error {
	if !json.Valid(cfg) {
		return fmt.Errorf("save %s config: %w", ref.Algorithm, domain.ErrDeserializationFailed)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.configs[ref] = slices.Clone(cfg)
	return nil
}
