// Package elimination реализует фильтр допуска меток на дырявых вёдрах.
//
// Неуспешные попытки наполняют ведро метки, ведро протекает на единицу за интервал.
// Метка исключается на уровне (сущность или глобальный), если хотя бы одно её ведро заполнено.
// Чтение-решение-запись не атомарно: два параллельных обновления могут применить утечку дважды.
package elimination

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Alexandr-Snisarenko/dynamic-routing/internal/domain"
	"github.com/Alexandr-Snisarenko/dynamic-routing/internal/logger"
	"github.com/Alexandr-Snisarenko/dynamic-routing/internal/metrics"
	"github.com/Alexandr-Snisarenko/dynamic-routing/internal/ports"
	"github.com/Alexandr-Snisarenko/dynamic-routing/internal/routing"
)

const keyPrefix = string(domain.Elimination)

// Report - неуспешная попытка через метку, отнесённая к ведру BucketName.
type Report struct {
	Label      string `json:"label"`
	BucketName string `json:"bucket_name,omitempty"`
}

type Feedback struct {
	Reports []Report
}

// LabelStatus - решения по метке на обоих уровнях.
type LabelStatus struct {
	Label  string `json:"label"`
	Entity Status `json:"entity"`
	Global Status `json:"global"`
}

// Eliminated сообщает, исключена ли метка хотя бы на одном уровне.
func (s LabelStatus) Eliminated() bool {
	return s.Entity.ShouldEliminate || s.Global.ShouldEliminate
}

// Result - статусы меток во входном порядке.
type Result struct {
	Labels []LabelStatus `json:"labels"`
}

// Eligible возвращает метки, не исключённые ни на одном уровне, во входном порядке.
func (r Result) Eligible() []string {
	out := make([]string, 0, len(r.Labels))
	for _, l := range r.Labels {
		if !l.Eliminated() {
			out = append(out, l.Label)
		}
	}
	return out
}

var _ routing.DynamicRouting[Config, []string, Feedback, Result] = (*Engine)(nil)

type Engine struct {
	kv    ports.KVStore
	ttl   time.Duration
	clock routing.Clock
	log   *logger.Logger
}

// NewEngine создаёт движок. ttl - время жизни списков вёдер (0 - без срока).
func NewEngine(kv ports.KVStore, ttl time.Duration, clock routing.Clock, log *logger.Logger) *Engine {
	if log == nil {
		log = logger.Nop()
	}
	return &Engine{kv: kv, ttl: ttl, clock: clock, log: log}
}

func (e *Engine) key(scope domain.Scope, tenant, id, params, label string) routing.Key {
	entity := id
	if scope == domain.ScopeGlobal {
		entity = domain.GlobalEntityID
	}
	return routing.Key{Prefix: keyPrefix, Tenant: tenant, Entity: entity, Params: params, Label: label}
}

func (e *Engine) PerformRouting(
	ctx context.Context,
	id, params string,
	labels []string,
	cfg Config,
	tenant string,
) (Result, error) {
	if err := cfg.Validate(); err != nil {
		return Result{}, err
	}
	now, err := e.clock.Now()
	if err != nil {
		return Result{}, err
	}

	res := Result{Labels: make([]LabelStatus, 0, len(labels))}
	for _, label := range labels {
		st := LabelStatus{Label: label}
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			var err error
			st.Entity, err = e.status(gctx, e.key(domain.ScopeEntity, tenant, id, params, label), now, cfg.EntityBucket)
			return err
		})
		g.Go(func() error {
			var err error
			st.Global, err = e.status(gctx, e.key(domain.ScopeGlobal, tenant, id, params, label), now, cfg.GlobalBucket)
			return err
		})
		if err := g.Wait(); err != nil {
			return Result{}, fmt.Errorf("eliminate label %s: %w", label, err)
		}

		if st.Entity.ShouldEliminate {
			metrics.RecordElimination(string(domain.ScopeEntity))
		}
		if st.Global.ShouldEliminate {
			metrics.RecordElimination(string(domain.ScopeGlobal))
		}
		res.Labels = append(res.Labels, st)
	}
	return res, nil
}

// status читает вёдра одного уровня, решает и при необходимости записывает протёкшее состояние.
func (e *Engine) status(ctx context.Context, key routing.Key, now int64, s BucketSettings) (Status, error) {
	k := key.String()
	buckets, found, err := routing.LoadJSON[[]domain.Bucket](ctx, e.kv, k)
	if err != nil || !found {
		return Status{}, err
	}

	st, leaked := GetEliminationStatus(buckets, now, s)
	if st.ShouldPersist {
		if err := routing.StoreJSON(ctx, e.kv, k, leaked, e.ttl); err != nil {
			return Status{}, err
		}
		e.log.DebugContext(ctx, "buckets leaked", slog.String("key", k))
	}
	return st, nil
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
	now, err := e.clock.Now()
	if err != nil {
		return err
	}

	for _, r := range feedback.Reports {
		g, gctx := errgroup.WithContext(ctx)
		for _, scope := range []domain.Scope{domain.ScopeEntity, domain.ScopeGlobal} {
			g.Go(func() error {
				return e.upsert(gctx, e.key(scope, tenant, id, params, r.Label), r.BucketName, now, cfg.settings(scope))
			})
		}
		if err := g.Wait(); err != nil {
			return fmt.Errorf("update label %s: %w", r.Label, err)
		}
	}
	return nil
}

func (e *Engine) upsert(ctx context.Context, key routing.Key, bucket string, now int64, s BucketSettings) error {
	k := key.String()
	buckets, _, err := routing.LoadJSON[[]domain.Bucket](ctx, e.kv, k)
	if err != nil {
		return err
	}
	return routing.StoreJSON(ctx, e.kv, k, UpsertBucket(buckets, bucket, now, s), e.ttl)
}

// InvalidateMetrics удаляет вёдра сущности. Глобальные вёдра общие и не затрагиваются.
func (e *Engine) InvalidateMetrics(ctx context.Context, id, tenant string) ([]string, error) {
	deleted, err := e.kv.DeleteKeysMatchingPrefix(ctx, routing.EntityPrefix(keyPrefix, tenant, id))
	if err != nil {
		return nil, fmt.Errorf("invalidate %s: %w", id, err)
	}
	metrics.RecordInvalidatedKeys(keyPrefix, len(deleted))
	return deleted, nil
}
