package routing

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/Alexandr-Snisarenko/dynamic-routing/internal/domain"
	"github.com/stretchr/testify/require"
)

type scored struct {
	label string
	score float64
}

func labels(items []scored) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.label)
	}
	return out
}

func TestRankDescending_StableTies(t *testing.T) {
	items := []scored{{"a", 10}, {"b", 50}, {"c", 10}, {"d", 50}, {"e", 20}}
	RankDescending(items, func(s scored) float64 { return s.score })
	require.Equal(t, []string{"b", "d", "e", "a", "c"}, labels(items))
}

func TestRankDescending_NaNAndZeros(t *testing.T) {
	items := []scored{{"neg0", math.Copysign(0, -1)}, {"nan", math.NaN()}, {"pos0", 0}, {"inf", math.Inf(1)}, {"neginf", math.Inf(-1)}}
	RankDescending(items, func(s scored) float64 { return s.score })
	// positive NaN sorts above +Inf in total order
	require.Equal(t, []string{"nan", "inf", "pos0", "neg0", "neginf"}, labels(items))
}

func TestTotalCompare(t *testing.T) {
	require.Equal(t, -1, TotalCompare(math.Copysign(0, -1), 0))
	require.Equal(t, 0, TotalCompare(1.5, 1.5))
	require.Equal(t, 1, TotalCompare(2, 1))
	require.Equal(t, 0, TotalCompare(math.NaN(), math.NaN()))
}

func TestClock_Now(t *testing.T) {
	fixed := time.Unix(1_700_000_000, 0)
	ts, err := Clock(func() time.Time { return fixed }).Now()
	require.NoError(t, err)
	require.Equal(t, int64(1_700_000_000), ts)

	_, err = Clock(func() time.Time { return time.Unix(-5, 0) }).Now()
	require.True(t, errors.Is(err, domain.ErrCurrentTime))

	var c Clock
	ts, err = c.Now()
	require.NoError(t, err)
	require.Greater(t, ts, int64(0))
}

func TestNarrowing(t *testing.T) {
	v, err := ToInt64(42)
	require.NoError(t, err)
	require.Equal(t, int64(42), v)

	_, err = ToInt64(math.MaxUint64)
	require.ErrorIs(t, err, domain.ErrTypeConversion)
}
