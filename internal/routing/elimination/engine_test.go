package elimination

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Alexandr-Snisarenko/dynamic-routing/internal/domain"
	"github.com/Alexandr-Snisarenko/dynamic-routing/internal/routing"
	"github.com/Alexandr-Snisarenko/dynamic-routing/internal/storage/memory"
)

type countingKV struct {
	*memory.KVDB
	sets atomic.Int64
}

func (c *countingKV) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	c.sets.Add(1)
	return c.KVDB.Set(ctx, key, value, ttl)
}

type fakeClock struct {
	now int64
}

func (c *fakeClock) clock() routing.Clock {
	return func() time.Time { return time.Unix(c.now, 0) }
}

func newTestEngine() (*Engine, *countingKV, *fakeClock) {
	kv := &countingKV{KVDB: memory.NewKVDB()}
	clk := &fakeClock{now: 1_700_000_000}
	return NewEngine(kv, time.Hour, clk.clock(), nil), kv, clk
}

func testConfig() Config {
	return Config{
		EntityBucket: BucketSettings{BucketSize: 3, BucketLeakIntervalInSecs: 60},
		GlobalBucket: BucketSettings{BucketSize: 5, BucketLeakIntervalInSecs: 60},
	}
}

func reports(label string, n int) Feedback {
	var fb Feedback
	for i := 0; i < n; i++ {
		fb.Reports = append(fb.Reports, Report{Label: label})
	}
	return fb
}

func TestEngine_EndToEnd(t *testing.T) {
	ctx := context.Background()
	e, _, _ := newTestEngine()
	cfg := testConfig()

	for i := 0; i < 3; i++ {
		require.NoError(t, e.UpdateWindow(ctx, "m", "card", reports("X", 1), cfg, ""))
	}

	res, err := e.PerformRouting(ctx, "m", "card", []string{"X"}, cfg, "")
	require.NoError(t, err)
	require.Len(t, res.Labels, 1)
	require.True(t, res.Labels[0].Entity.ShouldEliminate)
	require.Equal(t, []string{DefaultBucketName}, res.Labels[0].Entity.BucketNames)
	// Глобальное ведро вмещает 5, поэтому на глобальном уровне метка ещё допускается.
	require.False(t, res.Labels[0].Global.ShouldEliminate)
	require.True(t, res.Labels[0].Eliminated())
}

func TestEngine_GlobalScopeSharedAcrossEntities(t *testing.T) {
	ctx := context.Background()
	e, _, _ := newTestEngine()
	cfg := testConfig()

	for _, id := range []string{"m1", "m2", "m3", "m4", "m5"} {
		require.NoError(t, e.UpdateWindow(ctx, id, "card", reports("X", 1), cfg, ""))
	}

	res, err := e.PerformRouting(ctx, "m6", "card", []string{"X", "Y"}, cfg, "")
	require.NoError(t, err)
	require.False(t, res.Labels[0].Entity.ShouldEliminate)
	require.True(t, res.Labels[0].Global.ShouldEliminate)
	require.Equal(t, []string{"Y"}, res.Eligible())
}

func TestEngine_RecoversAfterLeak(t *testing.T) {
	ctx := context.Background()
	e, _, clk := newTestEngine()
	cfg := testConfig()

	require.NoError(t, e.UpdateWindow(ctx, "m", "card", reports("X", 3), cfg, ""))

	clk.now += 60
	res, err := e.PerformRouting(ctx, "m", "card", []string{"X"}, cfg, "")
	require.NoError(t, err)
	require.False(t, res.Labels[0].Entity.ShouldEliminate)
	require.Equal(t, []string{"X"}, res.Eligible())
}

func TestEngine_WriteBackOnlyWhenLeaked(t *testing.T) {
	ctx := context.Background()
	e, kv, clk := newTestEngine()
	cfg := testConfig()

	require.NoError(t, e.UpdateWindow(ctx, "m", "card", reports("X", 1), cfg, ""))
	sets := kv.sets.Load()

	_, err := e.PerformRouting(ctx, "m", "card", []string{"X"}, cfg, "")
	require.NoError(t, err)
	require.Equal(t, sets, kv.sets.Load(), "no time elapsed, nothing to write")

	clk.now += 60
	_, err = e.PerformRouting(ctx, "m", "card", []string{"X"}, cfg, "")
	require.NoError(t, err)
	require.Equal(t, sets+2, kv.sets.Load(), "entity and global buckets leaked")
}

func TestEngine_UnknownLabelIsEligible(t *testing.T) {
	e, kv, _ := newTestEngine()
	res, err := e.PerformRouting(context.Background(), "m", "card", []string{"new"}, testConfig(), "")
	require.NoError(t, err)
	require.Equal(t, LabelStatus{Label: "new"}, res.Labels[0])
	require.Zero(t, kv.sets.Load())
}

func TestEngine_InvalidateKeepsGlobal(t *testing.T) {
	ctx := context.Background()
	e, _, _ := newTestEngine()
	cfg := testConfig()
	cfg.GlobalBucket.BucketSize = 3

	require.NoError(t, e.UpdateWindow(ctx, "m", "card", reports("X", 3), cfg, "t1"))

	deleted, err := e.InvalidateMetrics(ctx, "m", "t1")
	require.NoError(t, err)
	require.Equal(t, []string{"elimination:t1:m:card:X"}, deleted)

	res, err := e.PerformRouting(ctx, "m", "card", []string{"X"}, cfg, "t1")
	require.NoError(t, err)
	require.False(t, res.Labels[0].Entity.ShouldEliminate)
	require.True(t, res.Labels[0].Global.ShouldEliminate)
}

func TestEngine_InvalidConfig(t *testing.T) {
	e, _, _ := newTestEngine()
	cfg := testConfig()
	cfg.GlobalBucket.BucketLeakIntervalInSecs = 0

	err := e.UpdateWindow(context.Background(), "m", "card", reports("X", 1), cfg, "")
	require.ErrorIs(t, err, domain.ErrConfig)
}

func TestParseConfig(t *testing.T) {
	cfg, err := ParseConfig([]byte(`{
		"entity_bucket": {"bucket_size": 3, "bucket_leak_interval_in_secs": 60},
		"global_bucket": {"bucket_size": 10, "bucket_leak_interval_in_secs": 30}
	}`))
	require.NoError(t, err)
	require.Equal(t, uint64(10), cfg.settings(domain.ScopeGlobal).BucketSize)
	require.Equal(t, uint64(60), cfg.settings(domain.ScopeEntity).BucketLeakIntervalInSecs)

	_, err = ParseConfig([]byte(`[]`))
	require.ErrorIs(t, err, domain.ErrDeserializationFailed)

	_, err = ParseConfig([]byte(`{"entity_bucket": {"bucket_size": 3, "bucket_leak_interval_in_secs": 60}}`))
	require.ErrorIs(t, err, domain.ErrConfig)
}

type failingKV struct {
	*memory.KVDB
}

func (failingKV) Set(_ context.Context, key string, _ []byte, _ time.Duration) error {
	return errors.Join(domain.ErrStore, errors.New("write "+key+": timeout"))
}

func TestEngine_PartialWriteFailureSurfaces(t *testing.T) {
	e := NewEngine(failingKV{memory.NewKVDB()}, 0, nil, nil)
	err := e.UpdateWindow(context.Background(), "m", "card", reports("X", 1), testConfig(), "")
	require.ErrorIs(t, err, domain.ErrStore)
}

func TestEngine_CorruptedStateFails(t *testing.T) {
	ctx := context.Background()
	e, kv, _ := newTestEngine()
	require.NoError(t, kv.KVDB.Set(ctx, "elimination:m:card:X", []byte("not json"), 0))

	_, err := e.PerformRouting(ctx, "m", "card", []string{"X"}, testConfig(), "")
	require.ErrorIs(t, err, domain.ErrCorruptState)
	require.ErrorIs(t, err, domain.ErrDeserializationFailed)
}
