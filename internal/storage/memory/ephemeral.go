package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/Alexandr-Snisarenko/dynamic-routing/internal/domain"
	"github.com/Alexandr-Snisarenko/dynamic-routing/internal/ports"
)

var _ ports.EphemeralStore = (*EphemeralDB)(nil)

// EphemeralDB - in-memory состояние success rate.
// Блокировка удерживается только на время одного обращения к map.
type EphemeralDB struct {
	mu         sync.RWMutex
	aggregates map[string][]domain.Block
	current    map[string]domain.Block
}

func NewEphemeralDB() *EphemeralDB {
	return &EphemeralDB{
		aggregates: make(map[string][]domain.Block),
		current:    make(map[string]domain.Block),
	}
}

func (s *EphemeralDB) SetAggregates(_ context.Context, key string, aggregates []domain.Block) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.aggregates[key] = slices.Clone(aggregates)
	return nil
}

func (s *EphemeralDB) FetchAggregates(_ context.Context, key string) ([]domain.Block, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.Clone(s.aggregates[key]), nil
}

func (s *EphemeralDB) InitializeCurrentBlock(_ context.Context, key string, createdAt int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.current[key] = domain.Block{CreatedAt: createdAt}
	return nil
}

func (s *EphemeralDB) FetchCurrentBlock(_ context.Context, key string) (*domain.Block, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.current[key]
	if !ok {
		return nil, nil
	}
	return &b, nil
}

func (s *EphemeralDB) IncrCurrentBlockFields(
	_ context.Context,
	key string,
	deltas ...domain.FieldDelta,
) (domain.Block, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b := s.current[key]
	for _, d := range deltas {
		switch d.Field {
		case domain.FieldSuccessCount:
			b.SuccessCount = SaturatingAdd(b.SuccessCount, d.Delta)
		case domain.FieldTotalCount:
			b.TotalCount = SaturatingAdd(b.TotalCount, d.Delta)
		default:
			return domain.Block{}, fmt.Errorf("incr %s: %w: unknown field %q", key, domain.ErrInvalidRequest, d.Field)
		}
	}
	s.current[key] = b
	return b, nil
}

func (s *EphemeralDB) DeleteKey(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, inAgg := s.aggregates[key]
	_, inCur := s.current[key]
	delete(s.aggregates, key)
	delete(s.current, key)
	return inAgg || inCur, nil
}

func (s *EphemeralDB) DeleteKeysMatchingPrefix(_ context.Context, prefix string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys := append(matchingKeys(s.aggregates, prefix), matchingKeys(s.current, prefix)...)
	for _, k := range keys {
		delete(s.aggregates, k)
		delete(s.current, k)
	}
	slices.Sort(keys)
	return slices.Compact(keys), nil
}

// SaturatingAdd применяет знаковое приращение с насыщением в [0, domain.MaxCounter].
func SaturatingAdd(cur uint64, delta int64) uint64 {
	if delta < 0 {
		dec := uint64(-(delta + 1)) + 1
		if dec >= cur {
			return 0
		}
		return cur - dec
	}
	inc := uint64(delta)
	if cur >= domain.MaxCounter || inc >= domain.MaxCounter-cur {
		return domain.MaxCounter
	}
	return cur + inc
}
