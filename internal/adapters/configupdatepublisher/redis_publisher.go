package configupdatepublisher

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/Alexandr-Snisarenko/dynamic-routing/internal/domain"
	"github.com/Alexandr-Snisarenko/dynamic-routing/internal/ports"
)

var _ ports.ConfigUpdatesPublisher = (*RedisConfigUpdatesPublisher)(nil)

// RedisConfigUpdatesPublisher рассылает адрес изменённой конфигурации всем инстансам через Pub/Sub.
type RedisConfigUpdatesPublisher struct {
	rdb     *redis.Client
	channel string
}

func (p *RedisConfigUpdatesPublisher) PublishConfigUpdated(ctx context.Context, ref domain.ConfigRef) error {
	payload, err := json.Marshal(ref)
	if err != nil {
		return fmt.Errorf("encode config ref: %w: %w", domain.ErrSerializationFailed, err)
	}
	if err := p.rdb.Publish(ctx, p.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish to %s: %w: %w", p.channel, domain.ErrStore, err)
	}
	return nil
}

func NewRedisConfigUpdatesPublisher(
	rdb *redis.Client,
	channel string,
) *RedisConfigUpdatesPublisher {
	return &RedisConfigUpdatesPublisher{rdb: rdb, channel: channel}
}
