package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	pbv1 "github.com/Alexandr-Snisarenko/dynamic-routing/api/dynamicrouting/v1"
	"github.com/Alexandr-Snisarenko/dynamic-routing/internal/adapters/configupdatepublisher"
	"github.com/Alexandr-Snisarenko/dynamic-routing/internal/adapters/redissubscriber"
	"github.com/Alexandr-Snisarenko/dynamic-routing/internal/app"
	"github.com/Alexandr-Snisarenko/dynamic-routing/internal/cache"
	"github.com/Alexandr-Snisarenko/dynamic-routing/internal/config"
	grpcserver "github.com/Alexandr-Snisarenko/dynamic-routing/internal/delivery/grpc"
	"github.com/Alexandr-Snisarenko/dynamic-routing/internal/delivery/grpc/interceptors"
	"github.com/Alexandr-Snisarenko/dynamic-routing/internal/factory"
	"github.com/Alexandr-Snisarenko/dynamic-routing/internal/logger"
	"github.com/Alexandr-Snisarenko/dynamic-routing/internal/metrics"
	"github.com/Alexandr-Snisarenko/dynamic-routing/internal/ports"
	"github.com/Alexandr-Snisarenko/dynamic-routing/internal/routing"
	"github.com/Alexandr-Snisarenko/dynamic-routing/internal/routing/contract"
	"github.com/Alexandr-Snisarenko/dynamic-routing/internal/routing/elimination"
	"github.com/Alexandr-Snisarenko/dynamic-routing/internal/routing/successrate"
	"github.com/Alexandr-Snisarenko/dynamic-routing/internal/storage/memory"
	"github.com/Alexandr-Snisarenko/dynamic-routing/internal/storage/postgresql"
	"github.com/Alexandr-Snisarenko/dynamic-routing/internal/storage/redisdb"
	"github.com/Alexandr-Snisarenko/dynamic-routing/internal/version"
)

const shutdownTimeout = 5 * time.Second

var configFile string

func init() {
	flag.StringVar(&configFile, "config", "/etc/dynamic-routing/config.yaml", "Path to configuration file")
}

func main() {
	flag.Parse()

	if flag.Arg(0) == "version" {
		version.PrintVersion()
		return
	}

	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Запуск основного приложения
	if err := run(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "dynamic-routing exited with error: %v\n", err)
		os.Exit(1)
	}
}

// stores - хранилища, выбранные по режиму работы.
type stores struct {
	ephemeral  ports.EphemeralStore
	kv         ports.KVStore
	configRepo ports.ConfigRepo
	// publisher создаётся после кеша конфигураций, которому он адресован в режиме local
	publisher  func(holder ports.ConfigHolder) ports.ConfigUpdatesPublisher
	subscriber func(holder ports.ConfigHolder) *redissubscriber.ConfigUpdatesSubscriber
	closers    []func() error
}

func localStores() *stores {
	return &stores{
		ephemeral:  memory.NewEphemeralDB(),
		kv:         memory.NewKVDB(),
		configRepo: memory.NewConfigDB(),
		publisher: func(holder ports.ConfigHolder) ports.ConfigUpdatesPublisher {
			return configupdatepublisher.NewLocalConfigUpdatesPublisher(holder)
		},
	}
}

func externalStores(cfg *config.Config, logg *logger.Logger) (*stores, error) {
	s := &stores{}

	rdb, err := factory.NewClientStore(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	s.closers = append(s.closers, rdb.Close)

	subRdb, err := factory.NewClientSubscriber(&cfg.Database)
	if err != nil {
		s.close()
		return nil, fmt.Errorf("failed to connect Redis subscriber: %w", err)
	}
	s.closers = append(s.closers, subRdb.Close)

	db, err := postgresql.NewConfigDB(cfg.Database)
	if err != nil {
		s.close()
		return nil, fmt.Errorf("failed to initialize PostgreSQL config repository: %w", err)
	}
	s.closers = append(s.closers, db.Close)

	ttl := cfg.Database.Redis.TTL
	channel := cfg.Database.Redis.Subscriber.ConfigsChannel
	s.ephemeral = redisdb.NewEphemeralStore(rdb, redisdb.EphemeralTTL{
		Aggregates:   ttl.Aggregates,
		CurrentBlock: ttl.CurrentBlock,
	})
	s.kv = redisdb.NewKV(rdb)
	s.configRepo = db
	s.publisher = func(ports.ConfigHolder) ports.ConfigUpdatesPublisher {
		return configupdatepublisher.NewRedisConfigUpdatesPublisher(rdb, channel)
	}
	s.subscriber = func(holder ports.ConfigHolder) *redissubscriber.ConfigUpdatesSubscriber {
		return redissubscriber.NewConfigUpdatesSubscriber(subRdb, holder, channel, logg)
	}
	return s, nil
}

func (s *stores) close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		_ = s.closers[i]()
	}
}

func run(cfg *config.Config) error {
	var (
		st   *stores
		logg *logger.Logger
		err  error
	)

	// --------- Инициализация логгера ---------
	if cfg.Logger.File != "" {
		// Инициализация логгера с выводом в файл
		f, err := os.OpenFile(cfg.Logger.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			// логер не инициализирован, пишем в stderr
			return fmt.Errorf("failed to open log file: %w", err)
		}
		logg = logger.NewWithWriter(f, &cfg.Logger)
		defer f.Close()
	} else {
		// Инициализация логгера с выводом в stdout
		logg = logger.New(&cfg.Logger)
	}
	info := version.Get()
	logg.Info("Logger initialized", "level", cfg.Logger.Level, "release", info.Release, "git_hash", info.GitHash)

	// --------- Инициализация хранилищ ---------
	if cfg.Database.Workmode == config.WorkmodeLocal {
		st = localStores()
	} else {
		if st, err = externalStores(cfg, logg); err != nil {
			return err
		}
	}
	defer st.close()

	// Контекст для управления горутинами и подписчиком с сигналами ОС
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Конфигурации и ключи читаются через кеш, изменения сбрасывают его на всех инстансах
	configCache := cache.NewConfigCache(st.configRepo, &cfg.Cache)

	// --------- Инициализация сервисов ---------
	clock := routing.Clock(time.Now)
	ttl := cfg.Database.Redis.TTL
	routingSvc := app.NewRoutingService(app.Engines{
		SuccessRate: successrate.NewEngine(st.ephemeral, clock, logg),
		Elimination: elimination.NewEngine(st.kv, ttl.Elimination, clock, logg),
		Contract:    contract.NewEngine(st.kv, ttl.Contract, clock, logg),
	}, configCache, cfg, logg)
	configSvc := app.NewConfigService(configCache, st.publisher(configCache), cfg.App.MultiTenancy)

	// -------- gRPC-сервер --------
	addr := net.JoinHostPort(cfg.Server.Address, fmt.Sprint(cfg.Server.Port))
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}

	chain := []grpc.UnaryServerInterceptor{
		interceptors.UnaryRequestIDInterceptor(),
		interceptors.UnaryLoggingInterceptor(logg),
	}
	if cfg.Server.Auth.Enabled {
		chain = append(chain, interceptors.UnaryAuthInterceptor(configCache, cfg.Server.Auth.HashKey))
	}
	grpcSrv := grpc.NewServer(grpc.ChainUnaryInterceptor(chain...))
	pbv1.RegisterDynamicRoutingServer(grpcSrv, grpcserver.NewServer(routingSvc, configSvc))

	// -------- Метрики --------
	var metricsSrv *http.Server
	if cfg.Metrics.Enabled {
		metrics.Register(prometheus.DefaultRegisterer)
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		metricsSrv = &http.Server{Addr: cfg.Metrics.Address, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	}

	// -------- Запуск в горутинах --------
	// Используем errgroup для управления горутинами и обработки ошибок
	g, ctx := errgroup.WithContext(rootCtx)

	// Горутина, которая слушает ctx.Done и делает graceful shutdown серверов
	g.Go(func() error {
		<-ctx.Done() // ждём отмены контекста (сигнал или падение другой горутины)

		logg.Info("shutting down gRPC server...")
		done := make(chan struct{})
		go func() {
			grpcSrv.GracefulStop()
			close(done)
		}()

		select {
		case <-done:
			logg.Info("gRPC server stopped gracefully")
		case <-time.After(shutdownTimeout):
			logg.Info("gRPC server force stop")
			grpcSrv.Stop()
		}

		if metricsSrv != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
				logg.Error("metrics server shutdown", "error", err)
			}
		}

		return ctx.Err()
	})

	// Фоновая очистка кеша конфигураций
	g.Go(func() error {
		configCache.Start(ctx)
		return nil
	})

	// Подписчик на изменения конфигураций (только в режиме external)
	if st.subscriber != nil {
		subscriber := st.subscriber(configCache)
		g.Go(func() error {
			logg.Info("starting config updates subscriber...")
			return subscriber.Start(ctx)
		})
	}

	if metricsSrv != nil {
		g.Go(func() error {
			logg.Info("metrics server listening on", "address", cfg.Metrics.Address)
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
	}

	// Стартуем сервер в отдельной горутине
	g.Go(func() error {
		logg.Info("gRPC server listening on", "address", addr)
		return grpcSrv.Serve(lis)
	})

	// Ждём завершения горутин
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error("error from goroutines", "error", err)
		return err
	}

	logg.Info("application stopped gracefully")
	return nil
}
