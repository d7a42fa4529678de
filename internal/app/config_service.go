package app

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Alexandr-Snisarenko/dynamic-routing/internal/domain"
	"github.com/Alexandr-Snisarenko/dynamic-routing/internal/ports"
	"github.com/Alexandr-Snisarenko/dynamic-routing/internal/routing/contract"
	"github.com/Alexandr-Snisarenko/dynamic-routing/internal/routing/elimination"
	"github.com/Alexandr-Snisarenko/dynamic-routing/internal/routing/successrate"
)

type ConfigUseCase interface {
	UpsertConfig(ctx context.Context, ref domain.ConfigRef, cfg json.RawMessage) error
	GetConfig(ctx context.Context, ref domain.ConfigRef) (json.RawMessage, error)
}

// Проверка реализации интерфейса ConfigUseCase на этапе компиляции.
var _ ConfigUseCase = (*ConfigService)(nil)

type ConfigService struct {
	configRepo            ports.ConfigRepo
	configUpdatePublisher ports.ConfigUpdatesPublisher
	multiTenancy          bool
}

func NewConfigService(
	configRepo ports.ConfigRepo,
	configUpdatePublisher ports.ConfigUpdatesPublisher,
	multiTenancy bool,
) *ConfigService {
	return &ConfigService{
		configRepo:            configRepo,
		configUpdatePublisher: configUpdatePublisher,
		multiTenancy:          multiTenancy,
	}
}

// UpsertConfig проверяет конфигурацию разбором тем же парсером, что и движок, и сохраняет её.
func (s *ConfigService) UpsertConfig(ctx context.Context, ref domain.ConfigRef, cfg json.RawMessage) error {
	ref = s.normalize(ref)
	if err := ValidateConfig(ref.Algorithm, cfg); err != nil {
		return err
	}
	if err := s.configRepo.SaveDynamicRoutingConfig(ctx, ref, cfg); err != nil {
		return fmt.Errorf("save %s config: %w", ref.Algorithm, err)
	}
	// Сообщаем всем инстансам об изменении конфигурации
	if err := s.configUpdatePublisher.PublishConfigUpdated(ctx, ref); err != nil {
		return fmt.Errorf("publish config update: %w", err)
	}
	return nil
}

func (s *ConfigService) GetConfig(ctx context.Context, ref domain.ConfigRef) (json.RawMessage, error) {
	ref = s.normalize(ref)
	if _, err := algorithmOf(ref.Algorithm); err != nil {
		return nil, err
	}
	return s.configRepo.FetchDynamicRoutingConfigs(ctx, ref)
}

func (s *ConfigService) normalize(ref domain.ConfigRef) domain.ConfigRef {
	if !s.multiTenancy {
		ref.TenantID = ""
	}
	return ref
}

// ValidateConfig разбирает конфигурацию алгоритма и возвращает ошибку разбора или проверки.
func ValidateConfig(alg domain.Algorithm, raw json.RawMessage) error {
	alg, err := algorithmOf(alg)
	if err != nil {
		return err
	}
	switch alg {
	case domain.SuccessRate:
		_, err = successrate.ParseConfig(raw)
	case domain.Elimination:
		_, err = elimination.ParseConfig(raw)
	case domain.ContractRouting:
		_, err = contract.ParseConfig(raw)
	}
	return err
}

func algorithmOf(alg domain.Algorithm) (domain.Algorithm, error) {
	switch alg {
	case domain.SuccessRate, domain.Elimination, domain.ContractRouting:
		return alg, nil
	default:
		return "", fmt.Errorf("%w: %q", domain.ErrUnknownAlgorithm, alg)
	}
}
