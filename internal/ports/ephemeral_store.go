package ports

import (
	"context"

	"github.com/Alexandr-Snisarenko/dynamic-routing/internal/domain"
)

// EphemeralStore - состояние алгоритма success rate: список закрытых агрегатов
// и текущий (живой) блок на ключ.
type EphemeralStore interface {
	// SetAggregates перезаписывает список агрегатов (от старых к новым).
	SetAggregates(ctx context.Context, key string, aggregates []domain.Block) error
	// FetchAggregates возвращает список агрегатов; отсутствие ключа - пустой список.
	FetchAggregates(ctx context.Context, key string) ([]domain.Block, error)
	// InitializeCurrentBlock заводит пустой текущий блок с меткой времени createdAt.
	InitializeCurrentBlock(ctx context.Context, key string, createdAt int64) error
	// FetchCurrentBlock возвращает текущий блок; nil, если его ещё нет.
	FetchCurrentBlock(ctx context.Context, key string) (*domain.Block, error)
	// IncrCurrentBlockFields атомарно применяет знаковые приращения к полям
	// с насыщением в [0, domain.MaxCounter] и возвращает блок после изменения.
	IncrCurrentBlockFields(ctx context.Context, key string, deltas ...domain.FieldDelta) (domain.Block, error)
	// DeleteKey удаляет ключ и сообщает, был ли он удалён.
	DeleteKey(ctx context.Context, key string) (bool, error)
	// DeleteKeysMatchingPrefix удаляет все ключи с префиксом и возвращает реально удалённые.
	DeleteKeysMatchingPrefix(ctx context.Context, prefix string) ([]string, error)
}
