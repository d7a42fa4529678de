package ports

import (
	"context"
	"time"
)

// KVStore - адаптер хранилища ключ-значение с TTL (Redis или in-memory).
// Используется алгоритмами, которые хранят состояние сериализованным блобом.
type KVStore interface {
	// Get возвращает значение ключа. found=false, если ключа нет; это не ошибка.
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	// Set записывает значение с временем жизни ttl (0 - без срока).
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Delete удаляет ключ и сообщает, был ли он удалён.
	Delete(ctx context.Context, key string) (bool, error)
	// ScanPrefix перечисляет ключи с заданным префиксом.
	ScanPrefix(ctx context.Context, prefix string) ([]string, error)
	// DeleteKeysMatchingPrefix удаляет все ключи с префиксом и возвращает реально удалённые.
	DeleteKeysMatchingPrefix(ctx context.Context, prefix string) ([]string, error)
}
