package configupdatepublisher

import (
	"context"

	"github.com/Alexandr-Snisarenko/dynamic-routing/internal/domain"
	"github.com/Alexandr-Snisarenko/dynamic-routing/internal/ports"
)

var _ ports.ConfigUpdatesPublisher = (*LocalConfigUpdatesPublisher)(nil)

// LocalConfigUpdatesPublisher сбрасывает кеш своего же процесса (режим local, один инстанс).
type LocalConfigUpdatesPublisher struct {
	holder ports.ConfigHolder
}

func (p *LocalConfigUpdatesPublisher) PublishConfigUpdated(ctx context.Context, ref domain.ConfigRef) error {
	return p.holder.PurgeConfig(ctx, ref)
}

func NewLocalConfigUpdatesPublisher(
	holder ports.ConfigHolder,
) *LocalConfigUpdatesPublisher {
	return &LocalConfigUpdatesPublisher{
		holder: holder,
	}
}
