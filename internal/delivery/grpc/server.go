package grpcserver

import (
	"context"
	"math"

	pbv1 "github.com/Alexandr-Snisarenko/dynamic-routing/api/dynamicrouting/v1"
	"github.com/Alexandr-Snisarenko/dynamic-routing/internal/app"
	"github.com/Alexandr-Snisarenko/dynamic-routing/internal/ctxmeta"
	"github.com/Alexandr-Snisarenko/dynamic-routing/internal/domain"
	"github.com/Alexandr-Snisarenko/dynamic-routing/internal/routing/elimination"
	"github.com/Alexandr-Snisarenko/dynamic-routing/internal/routing/successrate"
)

var _ pbv1.DynamicRoutingServer = (*Server)(nil)

type Server struct {
	pbv1.UnimplementedDynamicRoutingServer
	routing app.RoutingUseCase
	configs app.ConfigUseCase
}

func NewServer(routing app.RoutingUseCase, configs app.ConfigUseCase) *Server {
	return &Server{
		routing: routing,
		configs: configs,
	}
}

// tenantOf возвращает арендатора из проверенного API-ключа, если аутентификация включена,
// иначе значение из запроса.
func tenantOf(ctx context.Context, requested string) string {
	if id, ok := ctxmeta.IdentityFrom(ctx); ok {
		return id.TenantID
	}
	return requested
}

func (s *Server) PerformRouting(
	ctx context.Context,
	req *pbv1.PerformRoutingRequest,
) (resp *pbv1.PerformRoutingResponse, err error) {
	if s.routing == nil {
		return nil, toStatus(ErrRoutingNotConfigured)
	}

	res, err := s.routing.PerformRouting(ctx, app.RoutingRequest{
		Algorithm: domain.Algorithm(req.Algorithm),
		Subject: app.Subject{
			TenantID:  tenantOf(ctx, req.TenantID),
			ProfileID: req.ProfileID,
			ID:        req.ID,
		},
		Params:       req.Params,
		Labels:       req.Labels,
		GlobalLabels: req.GlobalLabels,
		Config:       req.Config,
	})
	if err != nil {
		return nil, toStatus(err)
	}
	return routingResponse(res), nil
}

func routingResponse(res app.RoutingResponse) *pbv1.PerformRoutingResponse {
	out := &pbv1.PerformRoutingResponse{Algorithm: string(res.Algorithm)}
	switch {
	case res.SuccessRate != nil:
		out.Labels = successRateScores(res.SuccessRate.Labels)
		out.GlobalLabels = successRateScores(res.SuccessRate.GlobalLabels)
	case res.Elimination != nil:
		out.Eliminations = eliminationStatuses(res.Elimination.Labels)
		out.Eligible = res.Elimination.Eligible()
	case res.Contract != nil:
		for _, l := range res.Contract.Labels {
			out.Labels = append(out.Labels, pbv1.LabelScore{
				Label:        l.Label,
				Score:        finite(l.Score),
				CurrentCount: l.CurrentCount,
				TargetCount:  l.TargetCount,
			})
		}
	}
	return out
}

func successRateScores(scores []successrate.LabelScore) []pbv1.LabelScore {
	if len(scores) == 0 {
		return nil
	}
	out := make([]pbv1.LabelScore, 0, len(scores))
	for _, l := range scores {
		out = append(out, pbv1.LabelScore{Label: l.Label, Score: finite(l.Score), CurrentBlockSize: l.CurrentBlockSize})
	}
	return out
}

func eliminationStatuses(labels []elimination.LabelStatus) []pbv1.EliminationStatus {
	out := make([]pbv1.EliminationStatus, 0, len(labels))
	for _, l := range labels {
		out = append(out, pbv1.EliminationStatus{
			Label:            l.Label,
			EntityEliminated: l.Entity.ShouldEliminate,
			EntityBuckets:    l.Entity.BucketNames,
			GlobalEliminated: l.Global.ShouldEliminate,
			GlobalBuckets:    l.Global.BucketNames,
		})
	}
	return out
}

// finite заменяет значения, которые не представимы в JSON. Порядок меток уже определён.
func finite(f float64) float64 {
	switch {
	case math.IsNaN(f):
		return 0
	case math.IsInf(f, 1):
		return math.MaxFloat64
	case math.IsInf(f, -1):
		return -math.MaxFloat64
	default:
		return f
	}
}

func (s *Server) UpdateWindow(
	ctx context.Context,
	req *pbv1.UpdateWindowRequest,
) (resp *pbv1.UpdateWindowResponse, err error) {
	if s.routing == nil {
		return nil, toStatus(ErrRoutingNotConfigured)
	}

	fb := app.FeedbackRequest{
		Algorithm: domain.Algorithm(req.Algorithm),
		Subject: app.Subject{
			TenantID:  tenantOf(ctx, req.TenantID),
			ProfileID: req.ProfileID,
			ID:        req.ID,
		},
		Params: req.Params,
		Config: req.Config,
	}
	for _, o := range req.Outcomes {
		fb.Outcomes = append(fb.Outcomes, successrate.Outcome{Label: o.Label, Success: o.Success})
	}
	for _, o := range req.GlobalOutcomes {
		fb.GlobalOutcomes = append(fb.GlobalOutcomes, successrate.Outcome{Label: o.Label, Success: o.Success})
	}
	for _, r := range req.Reports {
		fb.Reports = append(fb.Reports, elimination.Report{Label: r.Label, BucketName: r.BucketName})
	}
	for _, c := range req.Contracts {
		fb.Contracts = append(fb.Contracts, domain.ContractMap{
			Label:        c.Label,
			TargetCount:  c.TargetCount,
			TargetTime:   c.TargetTime,
			CurrentCount: c.CurrentCount,
		})
	}

	if err := s.routing.UpdateWindow(ctx, fb); err != nil {
		return nil, toStatus(err)
	}
	return &pbv1.UpdateWindowResponse{}, nil
}

func (s *Server) InvalidateMetrics(
	ctx context.Context,
	req *pbv1.InvalidateMetricsRequest,
) (resp *pbv1.InvalidateMetricsResponse, err error) {
	if s.routing == nil {
		return nil, toStatus(ErrRoutingNotConfigured)
	}

	keys, err := s.routing.InvalidateMetrics(ctx, domain.Algorithm(req.Algorithm), tenantOf(ctx, req.TenantID), req.ID)
	if err != nil {
		return nil, toStatus(err)
	}
	return &pbv1.InvalidateMetricsResponse{DeletedKeys: keys}, nil
}

func configRef(ctx context.Context, ref pbv1.ConfigRef) domain.ConfigRef {
	return domain.ConfigRef{
		TenantID:   tenantOf(ctx, ref.TenantID),
		ProfileID:  ref.ProfileID,
		MerchantID: ref.MerchantID,
		Algorithm:  domain.Algorithm(ref.Algorithm),
	}
}

func (s *Server) UpsertConfig(
	ctx context.Context,
	req *pbv1.UpsertConfigRequest,
) (resp *pbv1.UpsertConfigResponse, err error) {
	if s.configs == nil {
		return nil, toStatus(ErrConfigNotConfigured)
	}

	if err := s.configs.UpsertConfig(ctx, configRef(ctx, req.Ref), req.Config); err != nil {
		return nil, toStatus(err)
	}
	return &pbv1.UpsertConfigResponse{}, nil
}

func (s *Server) GetConfig(
	ctx context.Context,
	req *pbv1.GetConfigRequest,
) (resp *pbv1.GetConfigResponse, err error) {
	if s.configs == nil {
		return nil, toStatus(ErrConfigNotConfigured)
	}

	cfg, err := s.configs.GetConfig(ctx, configRef(ctx, req.Ref))
	if err != nil {
		return nil, toStatus(err)
	}
	return &pbv1.GetConfigResponse{Config: cfg}, nil
}
