package memory

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/Alexandr-Snisarenko/dynamic-routing/internal/ports"
)

var _ ports.KVStore = (*KVDB)(nil)

// KVDB - in-memory реализация ports.KVStore для локального режима и тестов.
// TTL не поддерживается: значения живут до удаления.
type KVDB struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewKVDB() *KVDB {
	return &KVDB{data: make(map[string][]byte)}
}

func (s *KVDB) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.data[key]
	if !ok {
		return nil, false, nil
	}
	return slices.Clone(v), true, nil
}

func (s *KVDB) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[key] = slices.Clone(value)
	return nil
}

func (s *KVDB) Delete(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.data[key]
	delete(s.data, key)
	return ok, nil
}

func (s *KVDB) ScanPrefix(_ context.Context, prefix string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return matchingKeys(s.data, prefix), nil
}

func (s *KVDB) DeleteKeysMatchingPrefix(_ context.Context, prefix string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys := matchingKeys(s.data, prefix)
	for _, k := range keys {
		delete(s.data, k)
	}
	return keys, nil
}

func matchingKeys[V any](m map[string]V, prefix string) []string {
	keys := make([]string, 0)
	for k := range m {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)
	return keys
}
