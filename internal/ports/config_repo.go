package ports

import (
	"context"
	"encoding/json"

	"github.com/Alexandr-Snisarenko/dynamic-routing/internal/domain"
)

// ConfigRepo - абстракция хранилища конфигураций маршрутизации и API-ключей.
type ConfigRepo interface {
	// FetchKey проверяет API-ключ арендатора. hashKey - соль, с которой ключ хешировался при выпуске.
	FetchKey(ctx context.Context, tenantID, apiKey, hashKey string) (domain.Identity, error)
	// FetchDynamicRoutingConfigs возвращает сохранённую конфигурацию алгоритма (JSON).
	FetchDynamicRoutingConfigs(ctx context.Context, ref domain.ConfigRef) (json.RawMessage, error)
	// SaveDynamicRoutingConfig создаёт или заменяет конфигурацию алгоритма.
	SaveDynamicRoutingConfig(ctx context.Context, ref domain.ConfigRef, cfg json.RawMessage) error
}
