package factory

import (
	"context"
	"time"

	"github.com/Alexandr-Snisarenko/dynamic-routing/internal/config"
	"github.com/redis/go-redis/v9"
)

const pingTimeout = 2 * time.Second

// NewClientStore создаёт клиента Redis для состояния алгоритмов маршрутизации.
// Клиент (и его пул) разделяется всеми запросами.
func NewClientStore(cfg *config.Database) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Redis.Address,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
		PoolSize:     cfg.Redis.PoolSize,
	})
	return pinged(rdb)
}

// NewClientSubscriber создаёт отдельного клиента под Pub/Sub (долгоживущие соединения).
func NewClientSubscriber(cfg *config.Database) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        cfg.Redis.Address,
		Password:    cfg.Redis.Password,
		DB:          cfg.Redis.DB,
		ReadTimeout: cfg.Redis.Subscriber.ReadTimeout,
		PoolSize:    cfg.Redis.Subscriber.PoolSize,
	})
	return pinged(rdb)
}

func pinged(rdb *redis.Client) (*redis.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, err
	}
	return rdb, nil
}
