package memory

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/Alexandr-Snisarenko/dynamic-routing/internal/domain"
	"github.com/stretchr/testify/require"
)

func TestConfigDB_SaveAndFetch(t *testing.T) {
	s := NewConfigDB()
	ctx := context.Background()
	ref := domain.ConfigRef{TenantID: "t1", ProfileID: "p1", MerchantID: "m1", Algorithm: domain.SuccessRate}

	_, err := s.FetchDynamicRoutingConfigs(ctx, ref)
	require.ErrorIs(t, err, domain.ErrKeyNotFound)

	require.ErrorIs(t, s.SaveDynamicRoutingConfig(ctx, ref, json.RawMessage(`{bad`)), domain.ErrDeserializationFailed)

	require.NoError(t, s.SaveDynamicRoutingConfig(ctx, ref, json.RawMessage(`{"min_aggregates_size":1}`)))
	got, err := s.FetchDynamicRoutingConfigs(ctx, ref)
	require.NoError(t, err)
	require.JSONEq(t, `{"min_aggregates_size":1}`, string(got))
}

func TestConfigDB_FetchKey(t *testing.T) {
	s := NewConfigDB()
	ctx := context.Background()
	s.AddKey("t1", "secret", "salt", "m1", "key-1")

	id, err := s.FetchKey(ctx, "t1", "secret", "salt")
	require.NoError(t, err)
	require.Equal(t, "m1", id.MerchantID)

	_, err = s.FetchKey(ctx, "t1", "secret", "other-salt")
	require.ErrorIs(t, err, domain.ErrKeyNotFound)
	_, err = s.FetchKey(ctx, "t2", "secret", "salt")
	require.ErrorIs(t, err, domain.ErrKeyNotFound)
}
