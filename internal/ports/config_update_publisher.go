package ports

import (
	"context"

	"github.com/Alexandr-Snisarenko/dynamic-routing/internal/domain"
)

// ConfigHolder - держатель закешированных конфигураций, который умеет их сбрасывать.
type ConfigHolder interface {
	PurgeConfig(ctx context.Context, ref domain.ConfigRef) error
}

// ConfigUpdatesPublisher оповещает все инстансы об изменении конфигурации.
type ConfigUpdatesPublisher interface {
	PublishConfigUpdated(ctx context.Context, ref domain.ConfigRef) error
}
