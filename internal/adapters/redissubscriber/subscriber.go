package redissubscriber

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/Alexandr-Snisarenko/dynamic-routing/internal/domain"
	"github.com/Alexandr-Snisarenko/dynamic-routing/internal/logger"
	"github.com/Alexandr-Snisarenko/dynamic-routing/internal/ports"
)

// ConfigUpdatesSubscriber слушает канал изменений конфигураций и сбрасывает их в локальном кеше.
type ConfigUpdatesSubscriber struct {
	rdb     *redis.Client
	channel string
	holder  ports.ConfigHolder
	log     *logger.Logger
}

func NewConfigUpdatesSubscriber(
	rdb *redis.Client,
	holder ports.ConfigHolder,
	channel string,
	log *logger.Logger,
) *ConfigUpdatesSubscriber {
	if log == nil {
		log = logger.Nop()
	}
	return &ConfigUpdatesSubscriber{rdb: rdb, channel: channel, holder: holder, log: log}
}

func (s *ConfigUpdatesSubscriber) Start(ctx context.Context) error {
	pubsub := s.rdb.Subscribe(ctx, s.channel)
	defer pubsub.Close()
	ch := pubsub.Channel()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return fmt.Errorf("redis pubsub channel closed")
			}

			var ref domain.ConfigRef
			if err := json.Unmarshal([]byte(msg.Payload), &ref); err != nil {
				// Чужое сообщение в канале не должно останавливать подписчика
				s.log.WarnContext(ctx, "skip malformed config update",
					slog.String("channel", s.channel),
					slog.String("payload", msg.Payload),
					slog.Any("error", err),
				)
				continue
			}

			if err := s.holder.PurgeConfig(ctx, ref); err != nil {
				return fmt.Errorf("purge config: %w", err)
			}
			s.log.DebugContext(ctx, "config purged",
				slog.String("merchant_id", ref.MerchantID),
				slog.String("algorithm", string(ref.Algorithm)),
			)
		}
	}
}
