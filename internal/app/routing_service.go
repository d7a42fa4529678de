package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Alexandr-Snisarenko/dynamic-routing/internal/config"
	"github.com/Alexandr-Snisarenko/dynamic-routing/internal/domain"
	"github.com/Alexandr-Snisarenko/dynamic-routing/internal/logger"
	"github.com/Alexandr-Snisarenko/dynamic-routing/internal/metrics"
	"github.com/Alexandr-Snisarenko/dynamic-routing/internal/ports"
	"github.com/Alexandr-Snisarenko/dynamic-routing/internal/routing"
	"github.com/Alexandr-Snisarenko/dynamic-routing/internal/routing/contract"
	"github.com/Alexandr-Snisarenko/dynamic-routing/internal/routing/elimination"
	"github.com/Alexandr-Snisarenko/dynamic-routing/internal/routing/successrate"
)

// Subject - кто запрашивает маршрутизацию: арендатор, профиль и сущность (мерчант).
type Subject struct {
	TenantID  string
	ProfileID string
	ID        string
}

// RoutingRequest - запрос оценки меток одним алгоритмом.
// Config необязателен: без него берётся сохранённая конфигурация, затем конфигурация по умолчанию.
type RoutingRequest struct {
	Algorithm domain.Algorithm
	Subject
	Params       string
	Labels       []string
	GlobalLabels []string // только success rate
	Config       json.RawMessage
}

// RoutingResponse - результат ровно одного алгоритма (по Algorithm).
type RoutingResponse struct {
	Algorithm   domain.Algorithm
	SuccessRate *successrate.Result
	Elimination *elimination.Result
	Contract    *contract.Result
}

// FeedbackRequest - исходы для одного алгоритма. Заполняются поля, относящиеся к Algorithm.
type FeedbackRequest struct {
	Algorithm domain.Algorithm
	Subject
	Params         string
	Config         json.RawMessage
	Outcomes       []successrate.Outcome
	GlobalOutcomes []successrate.Outcome
	Reports        []elimination.Report
	Contracts      []domain.ContractMap
}

type RoutingUseCase interface {
	PerformRouting(ctx context.Context, req RoutingRequest) (RoutingResponse, error)
	UpdateWindow(ctx context.Context, req FeedbackRequest) error
	// InvalidateMetrics удаляет состояние сущности. Пустой alg - все алгоритмы.
	InvalidateMetrics(ctx context.Context, alg domain.Algorithm, tenantID, id string) ([]string, error)
}

// Проверка реализации интерфейса RoutingUseCase на этапе компиляции.
var _ RoutingUseCase = (*RoutingService)(nil)

// Engines - набор движков, между которыми диспетчеризует сервис.
type Engines struct {
	SuccessRate *successrate.Engine
	Elimination *elimination.Engine
	Contract    *contract.Engine
}

type RoutingService struct {
	engines      Engines
	configRepo   ports.ConfigRepo
	defaults     config.Routing
	multiTenancy bool
	log          *logger.Logger
}

func NewRoutingService(
	engines Engines,
	configRepo ports.ConfigRepo,
	cfg *config.Config,
	log *logger.Logger,
) *RoutingService {
	if log == nil {
		log = logger.Nop()
	}
	return &RoutingService{
		engines:      engines,
		configRepo:   configRepo,
		defaults:     cfg.Routing,
		multiTenancy: cfg.App.MultiTenancy,
		log:          log,
	}
}

func (s *RoutingService) PerformRouting(ctx context.Context, req RoutingRequest) (resp RoutingResponse, err error) {
	defer s.observe(ctx, req.Algorithm, "perform_routing", time.Now(), &err)

	if err := s.validateSubject(req.Subject, req.Params); err != nil {
		return RoutingResponse{}, err
	}
	raw, err := s.resolveConfig(ctx, req.Algorithm, req.Subject, req.Config)
	if err != nil {
		return RoutingResponse{}, err
	}
	tenant := s.tenant(req.TenantID)

	resp = RoutingResponse{Algorithm: req.Algorithm}
	switch req.Algorithm {
	case domain.SuccessRate:
		cfg, err := successrate.ParseConfig(raw)
		if err != nil {
			return RoutingResponse{}, err
		}
		r := successrate.Request{Labels: req.Labels, GlobalLabels: req.GlobalLabels}
		res, err := s.engines.SuccessRate.PerformRouting(ctx, req.ID, req.Params, r, cfg, tenant)
		if err != nil {
			return RoutingResponse{}, err
		}
		resp.SuccessRate = &res
	case domain.Elimination:
		cfg, err := elimination.ParseConfig(raw)
		if err != nil {
			return RoutingResponse{}, err
		}
		res, err := s.engines.Elimination.PerformRouting(ctx, req.ID, req.Params, req.Labels, cfg, tenant)
		if err != nil {
			return RoutingResponse{}, err
		}
		resp.Elimination = &res
	case domain.ContractRouting:
		cfg, err := contract.ParseConfig(raw)
		if err != nil {
			return RoutingResponse{}, err
		}
		res, err := s.engines.Contract.PerformRouting(ctx, req.ID, req.Params, req.Labels, cfg, tenant)
		if err != nil {
			return RoutingResponse{}, err
		}
		resp.Contract = &res
	}
	return resp, nil
}

func (s *RoutingService) UpdateWindow(ctx context.Context, req FeedbackRequest) (err error) {
	defer s.observe(ctx, req.Algorithm, "update_window", time.Now(), &err)

	if err := s.validateSubject(req.Subject, req.Params); err != nil {
		return err
	}
	raw, err := s.resolveConfig(ctx, req.Algorithm, req.Subject, req.Config)
	if err != nil {
		return err
	}
	tenant := s.tenant(req.TenantID)

	switch req.Algorithm {
	case domain.SuccessRate:
		cfg, err := successrate.ParseConfig(raw)
		if err != nil {
			return err
		}
		fb := successrate.Feedback{Outcomes: req.Outcomes, GlobalOutcomes: req.GlobalOutcomes}
		return s.engines.SuccessRate.UpdateWindow(ctx, req.ID, req.Params, fb, cfg, tenant)
	case domain.Elimination:
		cfg, err := elimination.ParseConfig(raw)
		if err != nil {
			return err
		}
		return s.engines.Elimination.UpdateWindow(ctx, req.ID, req.Params, elimination.Feedback{Reports: req.Reports}, cfg, tenant)
	case domain.ContractRouting:
		cfg, err := contract.ParseConfig(raw)
		if err != nil {
			return err
		}
		return s.engines.Contract.UpdateWindow(ctx, req.ID, req.Params, contract.Feedback{Contracts: req.Contracts}, cfg, tenant)
	}
	return nil
}

func (s *RoutingService) InvalidateMetrics(
	ctx context.Context,
	alg domain.Algorithm,
	tenantID, id string,
) (deleted []string, err error) {
	op := alg
	if op == "" {
		op = "all"
	}
	defer s.observe(ctx, op, "invalidate_metrics", time.Now(), &err)

	if err := s.validateSubject(Subject{TenantID: tenantID, ID: id}, ""); err != nil {
		return nil, err
	}
	tenant := s.tenant(tenantID)

	type invalidator interface {
		InvalidateMetrics(ctx context.Context, id, tenant string) ([]string, error)
	}
	var targets []invalidator
	switch alg {
	case "":
		targets = []invalidator{s.engines.SuccessRate, s.engines.Elimination, s.engines.Contract}
	case domain.SuccessRate:
		targets = []invalidator{s.engines.SuccessRate}
	case domain.Elimination:
		targets = []invalidator{s.engines.Elimination}
	case domain.ContractRouting:
		targets = []invalidator{s.engines.Contract}
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownAlgorithm, alg)
	}

	for _, t := range targets {
		keys, err := t.InvalidateMetrics(ctx, id, tenant)
		if err != nil {
			return deleted, err
		}
		deleted = append(deleted, keys...)
	}
	return deleted, nil
}

// resolveConfig выбирает конфигурацию: из запроса, затем сохранённую, затем по умолчанию.
func (s *RoutingService) resolveConfig(
	ctx context.Context,
	alg domain.Algorithm,
	subj Subject,
	inline json.RawMessage,
) (json.RawMessage, error) {
	if _, err := algorithmOf(alg); err != nil {
		return nil, err
	}
	if len(inline) > 0 {
		return inline, nil
	}

	ref := domain.ConfigRef{
		TenantID:   s.tenant(subj.TenantID),
		ProfileID:  subj.ProfileID,
		MerchantID: subj.ID,
		Algorithm:  alg,
	}
	raw, err := s.configRepo.FetchDynamicRoutingConfigs(ctx, ref)
	switch {
	case err == nil:
		return raw, nil
	case !errors.Is(err, domain.ErrKeyNotFound):
		return nil, fmt.Errorf("fetch %s config: %w", alg, err)
	}

	def := s.defaultConfig(alg)
	if def == "" {
		return nil, fmt.Errorf("%w: no %s config for merchant %q and no default", domain.ErrConfig, alg, subj.ID)
	}
	return json.RawMessage(def), nil
}

func (s *RoutingService) defaultConfig(alg domain.Algorithm) string {
	switch alg {
	case domain.SuccessRate:
		return s.defaults.SuccessRate
	case domain.Elimination:
		return s.defaults.Elimination
	case domain.ContractRouting:
		return s.defaults.Contract
	}
	return ""
}

// tenant возвращает арендатора для ключей состояния. Без мультиарендности он не участвует в ключах.
func (s *RoutingService) tenant(tenantID string) string {
	if !s.multiTenancy {
		return ""
	}
	return tenantID
}

func (s *RoutingService) observe(ctx context.Context, alg domain.Algorithm, op string, started time.Time, errp *error) {
	metrics.ObserveRequest(string(alg), op, started, *errp)
	if *errp != nil {
		s.log.ErrorContext(ctx, "routing operation failed",
			slog.String("algorithm", string(alg)),
			slog.String("operation", op),
			slog.Any("error", *errp),
		)
	}
}

// validateSubject отсекает идентификаторы, на которых ключи состояния перестают быть однозначными.
func (s *RoutingService) validateSubject(subj Subject, params string) error {
	switch subj.ID {
	case "":
		return fmt.Errorf("%w: entity id is required", domain.ErrInvalidRequest)
	case domain.GlobalEntityID:
		return fmt.Errorf("%w: entity id %q is reserved", domain.ErrInvalidRequest, subj.ID)
	}
	if s.multiTenancy && subj.TenantID == "" {
		return fmt.Errorf("%w: tenant id is required", domain.ErrInvalidRequest)
	}
	if err := routing.ValidateSegment("entity id", subj.ID); err != nil {
		return err
	}
	if err := routing.ValidateSegment("params", params); err != nil {
		return err
	}
	if s.multiTenancy {
		return routing.ValidateSegment("tenant id", subj.TenantID)
	}
	return nil
}
