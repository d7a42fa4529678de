// Package contract ранжирует метки по градиенту выполнения контрактов на объём.
package contract

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Alexandr-Snisarenko/dynamic-routing/internal/domain"
	"github.com/Alexandr-Snisarenko/dynamic-routing/internal/logger"
	"github.com/Alexandr-Snisarenko/dynamic-routing/internal/metrics"
	"github.com/Alexandr-Snisarenko/dynamic-routing/internal/ports"
	"github.com/Alexandr-Snisarenko/dynamic-routing/internal/routing"
)

const keyPrefix = string(domain.ContractRouting)

// Feedback - снимки контрактов. CurrentCount снимка - приращение к сохранённому значению.
type Feedback struct {
	Contracts []domain.ContractMap
}

type LabelScore struct {
	Label        string  `json:"label"`
	Score        float64 `json:"score"`
	CurrentCount uint64  `json:"current_count"`
	TargetCount  uint64  `json:"target_count"`
}

// Result - метки по убыванию оценки. При равенстве сохраняется входной порядок.
type Result struct {
	Labels []LabelScore `json:"labels"`
}

var _ routing.DynamicRouting[Config, []string, Feedback, Result] = (*Engine)(nil)

type Engine struct {
	kv    ports.KVStore
	ttl   time.Duration
	clock routing.Clock
	log   *logger.Logger
}

func NewEngine(kv ports.KVStore, ttl time.Duration, clock routing.Clock, log *logger.Logger) *Engine {
	if log == nil {
		log = logger.Nop()
	}
	return &Engine{kv: kv, ttl: ttl, clock: clock, log: log}
}

func (e *Engine) key(tenant, id, params, label string) string {
	return routing.Key{Prefix: keyPrefix, Tenant: tenant, Entity: id, Params: params, Label: label}.String()
}

// PerformRouting требует контракт для каждой метки: без него метку нечем оценить.
func (e *Engine) PerformRouting(
	ctx context.Context,
	id, params string,
	labels []string,
	cfg Config,
	tenant string,
) (Result, error) {
	now, err := e.clock.Now()
	if err != nil {
		return Result{}, err
	}

	res := Result{Labels: make([]LabelScore, 0, len(labels))}
	for _, label := range labels {
		key := e.key(tenant, id, params, label)
		c, found, err := routing.LoadJSON[domain.ContractMap](ctx, e.kv, key)
		if err != nil {
			return Result{}, fmt.Errorf("score label %s: %w", label, err)
		}
		if !found {
			return Result{}, fmt.Errorf("score label %s: %w: %s", label, domain.ErrContractNotFound, key)
		}

		score, err := Score(c, now, cfg)
		if err != nil {
			return Result{}, fmt.Errorf("score label %s: %w", label, err)
		}
		res.Labels = append(res.Labels, LabelScore{
			Label:        label,
			Score:        score,
			CurrentCount: c.CurrentCount,
			TargetCount:  c.TargetCount,
		})
	}
	routing.RankDescending(res.Labels, func(s LabelScore) float64 { return s.Score })
	return res, nil
}

// UpdateWindow заводит контракт из первого снимка, а дальше накапливает CurrentCount
// с насыщением на TargetCount. Выполненный контракт не меняется.
func (e *Engine) UpdateWindow(
	ctx context.Context,
	id, params string,
	feedback Feedback,
	_ Config,
	tenant string,
) error {
	for _, snap := range feedback.Contracts {
		key := e.key(tenant, id, params, snap.Label)
		stored, found, err := routing.LoadJSON[domain.ContractMap](ctx, e.kv, key)
		if err != nil {
			return fmt.Errorf("update label %s: %w", snap.Label, err)
		}

		switch {
		case !found:
			// Первый снимок сохраняется как есть, кроме CurrentCount: он не выше TargetCount,
			// иначе контракт с перебором не считался бы выполненным при накоплении.
			stored = snap
			stored.CurrentCount = min(snap.CurrentCount, snap.TargetCount)
		case stored.Fulfilled():
			metrics.RecordFulfilledSkip()
			e.log.DebugContext(ctx, "contract already fulfilled", slog.String("key", key))
			continue
		default:
			stored.CurrentCount = saturatingAdd(stored.CurrentCount, snap.CurrentCount, stored.TargetCount)
		}

		if err := routing.StoreJSON(ctx, e.kv, key, stored, e.ttl); err != nil {
			return fmt.Errorf("update label %s: %w", snap.Label, err)
		}
	}
	return nil
}

func saturatingAdd(cur, delta, limit uint64) uint64 {
	if cur >= limit || delta >= limit-cur {
		return limit
	}
	return cur + delta
}

func (e *Engine) InvalidateMetrics(ctx context.Context, id, tenant string) ([]string, error) {
	deleted, err := e.kv.DeleteKeysMatchingPrefix(ctx, routing.EntityPrefix(keyPrefix, tenant, id))
	if err != nil {
		return nil, fmt.Errorf("invalidate %s: %w", id, err)
	}
	metrics.RecordInvalidatedKeys(keyPrefix, len(deleted))
	return deleted, nil
}
