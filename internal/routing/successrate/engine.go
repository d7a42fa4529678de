// Package successrate реализует ранжирование меток по взвешенной доле успешных попыток.
//
// Состояние ключа - список закрытых блоков (агрегатов) и текущий блок.
// Текущий блок закрывается по числу попыток или по возрасту и уходит в конец списка агрегатов.
package successrate

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/Alexandr-Snisarenko/dynamic-routing/internal/domain"
	"github.com/Alexandr-Snisarenko/dynamic-routing/internal/logger"
	"github.com/Alexandr-Snisarenko/dynamic-routing/internal/metrics"
	"github.com/Alexandr-Snisarenko/dynamic-routing/internal/ports"
	"github.com/Alexandr-Snisarenko/dynamic-routing/internal/routing"
)

const keyPrefix = string(domain.SuccessRate)

// Request - метки для оценки. Labels оцениваются на уровне из конфигурации,
// GlobalLabels всегда на глобальном уровне.
type Request struct {
	Labels       []string
	GlobalLabels []string
}

// Outcome - исход одной попытки через метку.
type Outcome struct {
	Label   string
	Success bool
}

// Feedback - отчёт об исходах для уровня из конфигурации и для глобального уровня.
type Feedback struct {
	Outcomes       []Outcome
	GlobalOutcomes []Outcome
}

// LabelScore - оценка метки и число попыток в текущем (ещё не закрытом) блоке.
type LabelScore struct {
	Label            string  `json:"label"`
	Score            float64 `json:"score"`
	CurrentBlockSize uint64  `json:"current_block_size"`
}

// Result - метки по убыванию оценки. При равенстве сохраняется входной порядок.
type Result struct {
	Labels       []LabelScore `json:"labels"`
	GlobalLabels []LabelScore `json:"global_labels,omitempty"`
}

// Проверка реализации протокола на этапе компиляции.
var _ routing.DynamicRouting[Config, Request, Feedback, Result] = (*Engine)(nil)

type Engine struct {
	store ports.EphemeralStore
	clock routing.Clock
	log   *logger.Logger
}

// NewEngine создаёт движок. clock может быть nil (time.Now), log может быть nil.
func NewEngine(store ports.EphemeralStore, clock routing.Clock, log *logger.Logger) *Engine {
	if log == nil {
		log = logger.Nop()
	}
	return &Engine{store: store, clock: clock, log: log}
}

func (e *Engine) PerformRouting(
	ctx context.Context,
	id, params string,
	req Request,
	cfg Config,
	tenant string,
) (Result, error) {
	if err := cfg.Validate(); err != nil {
		return Result{}, err
	}

	labels, err := e.scoreLabels(ctx, tenant, cfg.entityID(id), params, req.Labels, cfg)
	if err != nil {
		return Result{}, err
	}
	global, err := e.scoreLabels(ctx, tenant, domain.GlobalEntityID, params, req.GlobalLabels, cfg)
	if err != nil {
		return Result{}, err
	}
	return Result{Labels: labels, GlobalLabels: global}, nil
}

func (e *Engine) scoreLabels(
	ctx context.Context,
	tenant, entity, params string,
	labels []string,
	cfg Config,
) ([]LabelScore, error) {
	if len(labels) == 0 {
		return nil, nil
	}
	scores := make([]LabelScore, 0, len(labels))
	for _, label := range labels {
		key := routing.Key{Prefix: keyPrefix, Tenant: tenant, Entity: entity, Params: params, Label: label}
		s, err := e.scoreLabel(ctx, key, cfg)
		if err != nil {
			return nil, err
		}
		scores = append(scores, s)
	}
	routing.RankDescending(scores, func(s LabelScore) float64 { return s.Score })
	return scores, nil
}

// scoreLabel читает агрегаты и текущий блок параллельно. Отсутствие состояния даёт оценку по умолчанию.
func (e *Engine) scoreLabel(ctx context.Context, key routing.Key, cfg Config) (LabelScore, error) {
	var (
		aggregates []domain.Block
		current    *domain.Block
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		aggregates, err = e.store.FetchAggregates(gctx, key.WithSuffix(routing.SuffixAggregates).String())
		return err
	})
	g.Go(func() error {
		var err error
		current, err = e.store.FetchCurrentBlock(gctx, key.WithSuffix(routing.SuffixCurrentBlock).String())
		return err
	})
	if err := g.Wait(); err != nil {
		return LabelScore{}, fmt.Errorf("score label %s: %w", key.Label, err)
	}

	score := cfg.DefaultSuccessRate
	if len(aggregates) >= int(cfg.MinAggregatesSize) && len(aggregates) > 0 {
		score = WeightedSuccessRate(aggregates)
	}
	res := LabelScore{Label: key.Label, Score: score}
	if current != nil {
		res.CurrentBlockSize = current.TotalCount
	}
	return res, nil
}

func (e *Engine) UpdateWindow(
	ctx context.Context,
	id, params string,
	feedback Feedback,
	cfg Config,
	tenant string,
) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	entity := cfg.entityID(id)
	for _, o := range feedback.Outcomes {
		key := routing.Key{Prefix: keyPrefix, Tenant: tenant, Entity: entity, Params: params, Label: o.Label}
		if err := e.applyOutcome(ctx, key, o.Success, cfg); err != nil {
			return err
		}
	}
	for _, o := range feedback.GlobalOutcomes {
		key := routing.Key{Prefix: keyPrefix, Tenant: tenant, Entity: domain.GlobalEntityID, Params: params, Label: o.Label}
		if err := e.applyOutcome(ctx, key, o.Success, cfg); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) applyOutcome(ctx context.Context, key routing.Key, success bool, cfg Config) error {
	now, err := e.clock.Now()
	if err != nil {
		return err
	}

	currentKey := key.WithSuffix(routing.SuffixCurrentBlock).String()
	current, err := e.store.FetchCurrentBlock(ctx, currentKey)
	if err != nil {
		return fmt.Errorf("update label %s: %w", key.Label, err)
	}
	if current == nil {
		if err := e.store.InitializeCurrentBlock(ctx, currentKey, now); err != nil {
			return fmt.Errorf("update label %s: %w", key.Label, err)
		}
	}

	deltas := []domain.FieldDelta{{Field: domain.FieldTotalCount, Delta: 1}}
	if success {
		deltas = append(deltas, domain.FieldDelta{Field: domain.FieldSuccessCount, Delta: 1})
	}
	block, err := e.store.IncrCurrentBlockFields(ctx, currentKey, deltas...)
	if err != nil {
		return fmt.Errorf("update label %s: %w", key.Label, err)
	}

	if !shouldRotate(block, now, cfg) {
		return nil
	}
	return e.rotate(ctx, key, block, now, cfg)
}

func shouldRotate(b domain.Block, now int64, cfg Config) bool {
	if b.TotalCount >= cfg.CurrentBlockThreshold.MaxTotalCount {
		return true
	}
	limit, ok := cfg.maxDurationSecs()
	return ok && b.CreatedAt > 0 && now-b.CreatedAt >= limit
}

// rotate закрывает текущий блок: дописывает его в агрегаты и заводит новый пустой блок.
// Записи агрегатов и текущего блока не транзакционны.
func (e *Engine) rotate(ctx context.Context, key routing.Key, closed domain.Block, now int64, cfg Config) error {
	aggregatesKey := key.WithSuffix(routing.SuffixAggregates).String()
	aggregates, err := e.store.FetchAggregates(ctx, aggregatesKey)
	if err != nil {
		return fmt.Errorf("rotate label %s: %w", key.Label, err)
	}
	aggregates = appendEvicting(aggregates, closed, int(cfg.MaxAggregatesSize))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return e.store.SetAggregates(gctx, aggregatesKey, aggregates)
	})
	g.Go(func() error {
		return e.store.InitializeCurrentBlock(gctx, key.WithSuffix(routing.SuffixCurrentBlock).String(), now)
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("rotate label %s: %w", key.Label, err)
	}

	metrics.RecordRotation()
	e.log.DebugContext(ctx, "current block rotated",
		slog.String("key", key.String()),
		slog.Uint64("success_count", closed.SuccessCount),
		slog.Uint64("total_count", closed.TotalCount),
		slog.Int("aggregates", len(aggregates)),
	)
	return nil
}

func (e *Engine) InvalidateMetrics(ctx context.Context, id, tenant string) ([]string, error) {
	deleted, err := e.store.DeleteKeysMatchingPrefix(ctx, routing.EntityPrefix(keyPrefix, tenant, id))
	if err != nil {
		return nil, fmt.Errorf("invalidate %s: %w", id, err)
	}
	metrics.RecordInvalidatedKeys(keyPrefix, len(deleted))
	return deleted, nil
}
