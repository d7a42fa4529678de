package routing

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Alexandr-Snisarenko/dynamic-routing/internal/domain"
	"github.com/Alexandr-Snisarenko/dynamic-routing/internal/ports"
)

// LoadJSON читает и декодирует значение ключа. found=false, если ключа нет.
func LoadJSON[T any](ctx context.Context, kv ports.KVStore, key string) (v T, found bool, err error) {
	raw, found, err := kv.Get(ctx, key)
	if err != nil || !found {
		return v, false, err
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, false, fmt.Errorf("decode %s: %w: %w", key, domain.ErrCorruptState, err)
	}
	return v, true, nil
}

// StoreJSON кодирует значение и записывает его с временем жизни ttl.
func StoreJSON(ctx context.Context, kv ports.KVStore, key string, v any, ttl time.Duration) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w: %w", key, domain.ErrSerializationFailed, err)
	}
	return kv.Set(ctx, key, raw, ttl)
}
