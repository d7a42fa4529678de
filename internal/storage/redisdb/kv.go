package redisdb

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Alexandr-Snisarenko/dynamic-routing/internal/domain"
	"github.com/Alexandr-Snisarenko/dynamic-routing/internal/ports"
	"github.com/redis/go-redis/v9"
)

var _ ports.KVStore = (*KV)(nil)

// scanCount - подсказка Redis о размере страницы SCAN.
const scanCount = 500

// KV - реализация ports.KVStore поверх Redis.
// Значения хранятся строками (SET ... PX), префиксный поиск через SCAN MATCH.
type KV struct {
	client *redis.Client
}

func NewKV(rdc *redis.Client) *KV {
	return &KV{client: rdc}
}

func (s *KV) Get(ctx context.Context, key string) ([]byte, bool, error) {
	v, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, storeErr("get", key, err)
	}
	return v, true, nil
}

func (s *KV) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := s.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return storeErr("set", key, err)
	}
	return nil
}

func (s *KV) Delete(ctx context.Context, key string) (bool, error) {
	n, err := s.client.Del(ctx, key).Result()
	if err != nil {
		return false, storeErr("del", key, err)
	}
	return n > 0, nil
}

func (s *KV) ScanPrefix(ctx context.Context, prefix string) ([]string, error) {
	return scanPrefix(ctx, s.client, prefix)
}

func (s *KV) DeleteKeysMatchingPrefix(ctx context.Context, prefix string) ([]string, error) {
	return deleteKeysMatchingPrefix(ctx, s.client, prefix)
}

func scanPrefix(ctx context.Context, client *redis.Client, prefix string) ([]string, error) {
	var keys []string
	iter := client.Scan(ctx, 0, escapeGlob(prefix)+"*", scanCount).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, storeErr("scan", prefix, err)
	}
	return keys, nil
}

// deleteKeysMatchingPrefix удаляет ключи по одному в пайплайне, чтобы вернуть
// только реально удалённые (ключ мог истечь между SCAN и DEL).
func deleteKeysMatchingPrefix(ctx context.Context, client *redis.Client, prefix string) ([]string, error) {
	keys, err := scanPrefix(ctx, client, prefix)
	if err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return []string{}, nil
	}

	pipe := client.Pipeline()
	cmds := make([]*redis.IntCmd, len(keys))
	for i, k := range keys {
		cmds[i] = pipe.Del(ctx, k)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, storeErr("del by prefix", prefix, err)
	}

	deleted := make([]string, 0, len(keys))
	for i, cmd := range cmds {
		if cmd.Val() > 0 {
			deleted = append(deleted, keys[i])
		}
	}
	return deleted, nil
}

// escapeGlob экранирует спецсимволы шаблона MATCH, чтобы метки вроде "a*b" искались буквально.
func escapeGlob(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '*', '?', '[', ']', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

func storeErr(op, key string, err error) error {
	return fmt.Errorf("redis %s %s: %w: %w", op, key, domain.ErrStore, err)
}
