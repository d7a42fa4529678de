package redisdb

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/Alexandr-Snisarenko/dynamic-routing/internal/domain"
	"github.com/Alexandr-Snisarenko/dynamic-routing/internal/ports"
	"github.com/redis/go-redis/v9"
)

//go:embed incr_current_block.lua
var incrCurrentBlockLua string

var incrCurrentBlockScript = redis.NewScript(incrCurrentBlockLua)

var _ ports.EphemeralStore = (*EphemeralStore)(nil)

// EphemeralTTL - время жизни состояния success rate.
type EphemeralTTL struct {
	Aggregates   time.Duration
	CurrentBlock time.Duration
}

// EphemeralStore хранит список агрегатов JSON-строкой, а текущий блок - хешем,
// поля которого инкрементируются Lua-скриптом атомарно с насыщением.
// TTL текущего блока продлевается при каждом инкременте.
type EphemeralStore struct {
	client *redis.Client
	ttl    EphemeralTTL
}

func NewEphemeralStore(rdc *redis.Client, ttl EphemeralTTL) *EphemeralStore {
	return &EphemeralStore{client: rdc, ttl: ttl}
}

func (s *EphemeralStore) SetAggregates(ctx context.Context, key string, aggregates []domain.Block) error {
	if aggregates == nil {
		aggregates = []domain.Block{}
	}
	data, err := json.Marshal(aggregates)
	if err != nil {
		return fmt.Errorf("encode aggregates %s: %w: %w", key, domain.ErrSerializationFailed, err)
	}
	if err := s.client.Set(ctx, key, data, s.ttl.Aggregates).Err(); err != nil {
		return storeErr("set aggregates", key, err)
	}
	return nil
}

func (s *EphemeralStore) FetchAggregates(ctx context.Context, key string) ([]domain.Block, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return []domain.Block{}, nil
	}
	if err != nil {
		return nil, storeErr("get aggregates", key, err)
	}

	var aggregates []domain.Block
	if err := json.Unmarshal(data, &aggregates); err != nil {
		return nil, fmt.Errorf("decode aggregates %s: %w: %w", key, domain.ErrCorruptState, err)
	}
	return aggregates, nil
}

func (s *EphemeralStore) InitializeCurrentBlock(ctx context.Context, key string, createdAt int64) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, key)
	pipe.HSet(ctx, key,
		domain.FieldSuccessCount, 0,
		domain.FieldTotalCount, 0,
		domain.FieldCreatedAt, createdAt,
	)
	if s.ttl.CurrentBlock > 0 {
		pipe.PExpire(ctx, key, s.ttl.CurrentBlock)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return storeErr("init current block", key, err)
	}
	return nil
}

func (s *EphemeralStore) FetchCurrentBlock(ctx context.Context, key string) (*domain.Block, error) {
	fields, err := s.client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, storeErr("get current block", key, err)
	}
	if len(fields) == 0 {
		return nil, nil
	}

	vals := make([]any, 0, 3)
	for _, f := range []string{domain.FieldSuccessCount, domain.FieldTotalCount, domain.FieldCreatedAt} {
		v, ok := fields[f]
		if !ok {
			vals = append(vals, nil)
			continue
		}
		vals = append(vals, v)
	}
	b, err := blockFromValues(vals)
	if err != nil {
		return nil, fmt.Errorf("decode current block %s: %w", key, err)
	}
	return &b, nil
}

func (s *EphemeralStore) IncrCurrentBlockFields(
	ctx context.Context,
	key string,
	deltas ...domain.FieldDelta,
) (domain.Block, error) {
	args := make([]any, 0, 2+2*len(deltas))
	args = append(args, s.ttl.CurrentBlock.Milliseconds(), domain.MaxCounter)
	for _, d := range deltas {
		if d.Field != domain.FieldSuccessCount && d.Field != domain.FieldTotalCount {
			return domain.Block{}, fmt.Errorf("incr %s: %w: unknown field %q", key, domain.ErrInvalidRequest, d.Field)
		}
		args = append(args, d.Field, d.Delta)
	}

	res, err := incrCurrentBlockScript.Run(ctx, s.client, []string{key}, args...).Result()
	if err != nil {
		return domain.Block{}, storeErr("incr current block", key, err)
	}
	vals, ok := res.([]any)
	if !ok {
		return domain.Block{}, fmt.Errorf("incr %s: %w: unexpected lua result %T",
			key, domain.ErrCorruptState, res)
	}
	b, err := blockFromValues(vals)
	if err != nil {
		return domain.Block{}, fmt.Errorf("incr %s: %w", key, err)
	}
	return b, nil
}

func (s *EphemeralStore) DeleteKey(ctx context.Context, key string) (bool, error) {
	n, err := s.client.Del(ctx, key).Result()
	if err != nil {
		return false, storeErr("del", key, err)
	}
	return n > 0, nil
}

func (s *EphemeralStore) DeleteKeysMatchingPrefix(ctx context.Context, prefix string) ([]string, error) {
	return deleteKeysMatchingPrefix(ctx, s.client, prefix)
}

// blockFromValues разбирает значения [success_count, total_count, created_at];
// отсутствующее поле считается нулём.
func blockFromValues(vals []any) (domain.Block, error) {
	if len(vals) != 3 {
		return domain.Block{}, fmt.Errorf("%w: expected 3 fields, got %d", domain.ErrCorruptState, len(vals))
	}
	nums := make([]int64, 3)
	for i, v := range vals {
		n, err := toInt64(v)
		if err != nil {
			return domain.Block{}, err
		}
		nums[i] = n
	}
	if nums[0] < 0 || nums[1] < 0 {
		return domain.Block{}, fmt.Errorf("%w: negative counter", domain.ErrCorruptState)
	}
	return domain.Block{
		SuccessCount: uint64(nums[0]),
		TotalCount:   uint64(nums[1]),
		CreatedAt:    nums[2],
	}, nil
}

func toInt64(v any) (int64, error) {
	switch t := v.(type) {
	case nil:
		return 0, nil
	case int64:
		return t, nil
	case string:
		parsed, err := strconv.ParseInt(t, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %w", domain.ErrCorruptState, err)
		}
		return parsed, nil
	default:
		return 0, fmt.Errorf("%w: unexpected numeric type %T", domain.ErrCorruptState, v)
	}
}
