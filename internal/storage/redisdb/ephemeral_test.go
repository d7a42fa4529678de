package redisdb

import (
	"context"
	"testing"
	"time"

	"github.com/Alexandr-Snisarenko/dynamic-routing/internal/domain"
	"github.com/stretchr/testify/require"
)

func TestEphemeralStore_Aggregates(t *testing.T) {
	s, client, cleanup := setupMiniredis(t)
	defer cleanup()

	store := NewEphemeralStore(client, EphemeralTTL{Aggregates: time.Hour, CurrentBlock: time.Minute})
	ctx := context.Background()
	key := "success_rate:m1:card:stripe:aggregates"

	agg, err := store.FetchAggregates(ctx, key)
	require.NoError(t, err)
	require.Empty(t, agg)

	blocks := []domain.Block{{SuccessCount: 1, TotalCount: 2, CreatedAt: 10}, {SuccessCount: 3, TotalCount: 3, CreatedAt: 20}}
	require.NoError(t, store.SetAggregates(ctx, key, blocks))
	require.Equal(t, time.Hour, s.TTL(key))

	agg, err = store.FetchAggregates(ctx, key)
	require.NoError(t, err)
	require.Equal(t, blocks, agg)

	require.NoError(t, s.Set(key, "not-json"))
	_, err = store.FetchAggregates(ctx, key)
	require.ErrorIs(t, err, domain.ErrDeserializationFailed)
}

func TestEphemeralStore_CurrentBlock(t *testing.T) {
	s, client, cleanup := setupMiniredis(t)
	defer cleanup()

	store := NewEphemeralStore(client, EphemeralTTL{Aggregates: time.Hour, CurrentBlock: time.Minute})
	ctx := context.Background()
	key := "success_rate:m1:card:stripe:current_block"

	cur, err := store.FetchCurrentBlock(ctx, key)
	require.NoError(t, err)
	require.Nil(t, cur)

	require.NoError(t, store.InitializeCurrentBlock(ctx, key, 1_700_000_000))
	cur, err = store.FetchCurrentBlock(ctx, key)
	require.NoError(t, err)
	require.Equal(t, &domain.Block{CreatedAt: 1_700_000_000}, cur)

	s.FastForward(30 * time.Second)
	b, err := store.IncrCurrentBlockFields(ctx, key,
		domain.FieldDelta{Field: domain.FieldTotalCount, Delta: 1},
		domain.FieldDelta{Field: domain.FieldSuccessCount, Delta: 1},
	)
	require.NoError(t, err)
	require.Equal(t, domain.Block{SuccessCount: 1, TotalCount: 1, CreatedAt: 1_700_000_000}, b)
	// TTL is refreshed on every increment
	require.Equal(t, time.Minute, s.TTL(key))

	b, err = store.IncrCurrentBlockFields(ctx, key, domain.FieldDelta{Field: domain.FieldSuccessCount, Delta: -10})
	require.NoError(t, err)
	require.Equal(t, uint64(0), b.SuccessCount)
	require.Equal(t, uint64(1), b.TotalCount)

	_, err = store.IncrCurrentBlockFields(ctx, key, domain.FieldDelta{Field: domain.FieldCreatedAt, Delta: 1})
	require.ErrorIs(t, err, domain.ErrInvalidRequest)

	ok, err := store.DeleteKey(ctx, key)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestEphemeralStore_IncrSaturatesAtMax(t *testing.T) {
	s, client, cleanup := setupMiniredis(t)
	defer cleanup()

	store := NewEphemeralStore(client, EphemeralTTL{})
	ctx := context.Background()
	key := "k:current_block"

	require.NoError(t, store.InitializeCurrentBlock(ctx, key, 1))
	s.HSet(key, domain.FieldTotalCount, "9007199254740990")

	b, err := store.IncrCurrentBlockFields(ctx, key, domain.FieldDelta{Field: domain.FieldTotalCount, Delta: 100})
	require.NoError(t, err)
	require.Equal(t, domain.MaxCounter, b.TotalCount)
}

func TestEphemeralStore_DeleteKeysMatchingPrefix(t *testing.T) {
	_, client, cleanup := setupMiniredis(t)
	defer cleanup()

	store := NewEphemeralStore(client, EphemeralTTL{Aggregates: time.Hour, CurrentBlock: time.Hour})
	ctx := context.Background()

	require.NoError(t, store.SetAggregates(ctx, "success_rate:m1:p:a:aggregates", nil))
	require.NoError(t, store.InitializeCurrentBlock(ctx, "success_rate:m1:p:a:current_block", 1))
	require.NoError(t, store.InitializeCurrentBlock(ctx, "success_rate:m2:p:a:current_block", 1))

	deleted, err := store.DeleteKeysMatchingPrefix(ctx, "success_rate:m1:")
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"success_rate:m1:p:a:aggregates", "success_rate:m1:p:a:current_block"}, deleted)

	cur, err := store.FetchCurrentBlock(ctx, "success_rate:m2:p:a:current_block")
	require.NoError(t, err)
	require.NotNil(t, cur)
}
