package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"github.com/chatrouter/chatrouter/internal/blob"
	"github.com/chatrouter/chatrouter/internal/config"
	"github.com/chatrouter/chatrouter/internal/dispatch"
	"github.com/chatrouter/chatrouter/internal/handlers"
	"github.com/chatrouter/chatrouter/internal/healthcheck"
	"github.com/chatrouter/chatrouter/internal/inference"
	"github.com/chatrouter/chatrouter/internal/logger"
	"github.com/chatrouter/chatrouter/internal/modelselect"
	"github.com/chatrouter/chatrouter/internal/platform"
	"github.com/chatrouter/chatrouter/internal/platform/custom"
	"github.com/chatrouter/chatrouter/internal/platform/line"
	"github.com/chatrouter/chatrouter/internal/platform/slack"
	"github.com/chatrouter/chatrouter/internal/platform/teams"
	"github.com/chatrouter/chatrouter/internal/server"
	"github.com/chatrouter/chatrouter/internal/store"
	"github.com/chatrouter/chatrouter/internal/webhook"
	"github.com/chatrouter/chatrouter/internal/worker"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the webhook server and job worker",
	Run: func(cmd *cobra.Command, args []string) {
		runServe(configPath(cmd))
	},
}

type configFile string

func runServe(cfgPath string) {
	fx.New(
		fx.Supply(configFile(cfgPath)),
		fx.Provide(
			provideConfig,
			provideLogger,
			provideDBPool,
			provideStore,
			provideQueue,
			provideBlobStore,
			provideInferenceClient,
			provideSelector,
			provideRegistry,
			provideProcessor,
			webhook.NewHandler,
			provideHealthChecks,
			providePingHandler,
			provideServer,
			provideWorker,
		),
		fx.Invoke(
			startWorker,
			startExpirySweep,
			startServer,
		),
		fx.WithLogger(func(logger *slog.Logger) fxevent.Logger {
			return &fxevent.SlogLogger{Logger: logger.With(slog.String("component", "fx"))}
		}),
	).Run()
}

func provideConfig(path configFile) (config.Config, error) {
	cfg, err := config.Load(string(path))
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func provideLogger(cfg config.Config) *slog.Logger {
	logger.Init(cfg.Log.Level, cfg.Log.Format)
	return logger.L
}

func provideDBPool(lc fx.Lifecycle, cfg config.Config) (*pgxpool.Pool, error) {
	pool, err := store.Open(context.Background(), cfg.Postgres.DSN())
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}
	lc.Append(fx.Hook{OnStop: func(ctx context.Context) error { pool.Close(); return nil }})
	return pool, nil
}

func provideStore(log *slog.Logger, pool *pgxpool.Pool, cfg config.Config) *store.Store {
	ttl := time.Duration(cfg.History.MessageTTLSec) * time.Second
	return store.New(log, pool, ttl)
}

func provideQueue(lc fx.Lifecycle, log *slog.Logger, cfg config.Config) (*dispatch.Queue, error) {
	queue, err := dispatch.NewQueue(context.Background(), log, cfg.Redis.URL, cfg.Queue.Stream, cfg.Queue.Group)
	if err != nil {
		return nil, fmt.Errorf("queue connect: %w", err)
	}
	lc.Append(fx.Hook{OnStop: func(ctx context.Context) error { return queue.Close() }})
	return queue, nil
}

func provideBlobStore(log *slog.Logger, cfg config.Config) (*blob.Store, error) {
	return blob.New(context.Background(), log, cfg.Blob)
}

func provideInferenceClient(log *slog.Logger, cfg config.Config) *inference.Client {
	return inference.New(log, cfg.Inference)
}

func provideSelector(log *slog.Logger) *modelselect.Selector {
	return modelselect.New(log)
}

func provideRegistry(log *slog.Logger, cfg config.Config, st *store.Store, queue *dispatch.Queue) *platform.Registry {
	registry := platform.NewRegistry()
	registry.MustRegister(slack.New(log, cfg.Platforms.SlackSigningSecret))
	registry.MustRegister(teams.New(log, cfg.Platforms.TeamsSecret))
	registry.MustRegister(line.New(log, cfg.Platforms.LineChannelSecret))
	registry.MustRegister(custom.New(log, cfg.Platforms.CustomSecret, st, queue))
	return registry
}

func provideProcessor(log *slog.Logger, registry *platform.Registry, st *store.Store, blobs *blob.Store) *webhook.Processor {
	return webhook.NewProcessor(log, registry, st, blobs)
}

func provideHealthChecks(pool *pgxpool.Pool, queue *dispatch.Queue) *healthcheck.Registry {
	return healthcheck.NewRegistry(0,
		healthcheck.CheckFunc{CheckName: "postgres", Fn: pool.Ping},
		healthcheck.CheckFunc{CheckName: "redis", Fn: queue.Health},
	)
}

func providePingHandler(log *slog.Logger, checks *healthcheck.Registry) *handlers.PingHandler {
	return handlers.NewPingHandler(log, version, checks)
}

func provideServer(cfg config.Config, log *slog.Logger, ping *handlers.PingHandler, hook *webhook.Handler) *server.Server {
	return server.NewServer(cfg.Server.Addr, log, ping, hook)
}

func provideWorker(log *slog.Logger, queue *dispatch.Queue, st *store.Store, selector *modelselect.Selector, client *inference.Client, cfg config.Config) *worker.Worker {
	return worker.New(log, queue, st, selector, client, cfg.Queue.Consumer, cfg.History.Limit)
}

func startWorker(lc fx.Lifecycle, w *worker.Worker, log *slog.Logger) {
	ctx, cancel := context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			go func() {
				if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
					log.Error("worker stopped", slog.Any("error", err))
				}
			}()
			return nil
		},
		OnStop: func(_ context.Context) error { cancel(); return nil },
	})
}

// startExpirySweep removes messages past their retention window once an
// hour. The sweep only bounds table growth; it is not on the request path.
func startExpirySweep(lc fx.Lifecycle, st *store.Store, log *slog.Logger) {
	ctx, cancel := context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			go func() {
				ticker := time.NewTicker(time.Hour)
				defer ticker.Stop()
				for {
					select {
					case <-ctx.Done():
						return
					case <-ticker.C:
						deleted, err := st.DeleteExpiredMessages(ctx)
						if err != nil {
							log.Warn("expiry sweep failed", slog.Any("error", err))
							continue
						}
						if deleted > 0 {
							log.Info("expired messages removed", slog.Int64("count", deleted))
						}
					}
				}
			}()
			return nil
		},
		OnStop: func(_ context.Context) error { cancel(); return nil },
	})
}

func startServer(lc fx.Lifecycle, log *slog.Logger, srv *server.Server, shutdowner fx.Shutdowner) {
	fmt.Printf("Starting chatrouter %s\n", version)
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			go func() {
				if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error("server failed", slog.Any("error", err))
					_ = shutdowner.Shutdown()
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server stop: %w", err)
			}
			return nil
		},
	})
}
