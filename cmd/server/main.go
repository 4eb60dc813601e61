package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"carriercheck/internal/audit"
	"carriercheck/internal/intake/handler"
	intakemetrics "carriercheck/internal/intake/metrics"
	"carriercheck/internal/intake/service"
	"carriercheck/internal/loads"
	"carriercheck/internal/matching"
	"carriercheck/internal/platform/config"
	"carriercheck/internal/platform/httpserver"
	"carriercheck/internal/platform/logger"
	"carriercheck/internal/platform/metrics"
	"carriercheck/internal/platform/middleware"
	"carriercheck/internal/platform/postgres"
	"carriercheck/internal/platform/redis"
	"carriercheck/internal/results"
	"carriercheck/internal/results/store"
	"carriercheck/internal/verification"
	"carriercheck/pkg/platform/middleware/metadata"
	"carriercheck/pkg/platform/middleware/requesttime"
)

// main wires dependencies, serves HTTP and keeps the lifecycle small. Business
// logic lives in internal packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	backend, purger, closeBackend := openBackend(ctx, cfg, log)
	defer closeBackend()

	repo := results.New(backend,
		results.WithTTL(cfg.Results.TTL),
		results.WithLogger(log),
		results.WithMetrics(results.NewMetrics(reg)),
	)

	sink, closeSink := openAuditSink(ctx, cfg, log)
	defer closeSink()
	publisher := audit.NewPublisher(sink,
		audit.WithAsyncBuffer(1024),
		audit.WithLogger(log),
		audit.WithMetrics(audit.NewMetrics(reg)),
	)
	defer publisher.Close()

	if cfg.Verification.WebKey == "" {
		log.Warn("FMCSA_WEBKEY not set, carrier verification will report missing_webkey_or_mc")
	}
	verifier := verification.NewClient(verification.Config{
		WebKey:     cfg.Verification.WebKey,
		BaseURL:    cfg.Verification.BaseURL,
		MaxRetries: cfg.Verification.MaxRetries,
		Backoff:    cfg.Verification.Backoff,
		Timeout:    cfg.Verification.Timeout,
	},
		verification.WithLogger(log),
		verification.WithMetrics(verification.NewMetrics(reg)),
	)

	engine := matching.NewEngine(
		matching.WithPolicy(matching.PolicyByName(cfg.Loads.MatchPolicy)),
		matching.WithSourceTag(cfg.Loads.SourceTag),
	)

	svc := service.New(verifier, loads.NewFileSource(cfg.Loads.Path, loads.WithLogger(log)), repo,
		service.WithLogger(log),
		service.WithMetrics(intakemetrics.New(reg)),
		service.WithAuditPublisher(publisher),
		service.WithMatcher(engine),
		service.WithMatchLimit(cfg.Loads.MatchLimit),
	)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recover(log))
	router.Use(requesttime.Middleware)
	router.Use(metadata.ClientMetadata)
	router.Use(middleware.AccessLog(log))
	router.Use(metrics.NewHTTP(reg).Middleware)
	router.Use(middleware.CORS)
	router.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	handler.New(svc, repo, log).Register(router)

	srv := httpserver.New(cfg.Server.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting carriercheck",
			"addr", cfg.Server.Addr,
			"results_backend", cfg.Results.Backend,
			"match_policy", cfg.Loads.MatchPolicy,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	if purger != nil && cfg.Results.PurgeInterval > 0 {
		g.Go(func() error {
			err := store.RunPurger(gctx, purger, cfg.Results.PurgeInterval, log)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// openBackend connects the configured result backend. A backend that cannot be
// reached degrades to no persistence rather than failing startup.
func openBackend(ctx context.Context, cfg config.Config, log *slog.Logger) (results.Backend, store.Purger, func()) {
	noop := func() {}
	connectCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	switch cfg.Results.Backend {
	case config.BackendRedis:
		client, err := redis.New(connectCtx, cfg.Redis)
		if err != nil || client == nil {
			log.Error("redis result backend unavailable, results will not be persisted", "error", err)
			return nil, nil, noop
		}
		return store.NewRedis(client.Client), nil, func() { _ = client.Close() }

	case config.BackendPostgres:
		pool, err := postgres.Connect(connectCtx, cfg.Postgres)
		if err != nil || pool == nil {
			log.Error("postgres result backend unavailable, results will not be persisted", "error", err)
			return nil, nil, noop
		}
		if err := store.Migrate(connectCtx, pool); err != nil {
			log.Error("result schema migration failed, results will not be persisted", "error", err)
			pool.Close()
			return nil, nil, noop
		}
		pg := store.NewPostgres(pool)
		return pg, pg, pool.Close

	case config.BackendMemory:
		mem := store.NewMemory()
		return mem, mem, noop

	default:
		log.Warn("no result store configured, results will not be persisted")
		return nil, nil, noop
	}
}

// openAuditSink prefers Kafka when brokers are configured and falls back to the log.
func openAuditSink(ctx context.Context, cfg config.Config, log *slog.Logger) (audit.Sink, func()) {
	if len(cfg.Kafka.Brokers) == 0 {
		return audit.NewLogSink(log), func() {}
	}
	connectCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	sink, err := audit.NewKafkaSink(connectCtx, cfg.Kafka.Brokers, cfg.Kafka.Topic)
	if err != nil {
		log.Error("kafka audit sink unavailable, falling back to log", "error", err)
		return audit.NewLogSink(log), func() {}
	}
	return sink, func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		sink.Close(flushCtx)
	}
}
