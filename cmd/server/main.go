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
	chimw "github.com/go-chi/chi/v5/middleware"

	"agora/internal/aggregate"
	"agora/internal/loader"
	"agora/internal/platform/config"
	"agora/internal/platform/httpserver"
	"agora/internal/platform/logger"
	"agora/internal/platform/metrics"
	"agora/internal/platform/middleware"
	"agora/internal/platform/redis"
	"agora/internal/portal/handler"
	"agora/internal/portalapi"
	themeMetrics "agora/internal/theme/metrics"
	themeService "agora/internal/theme/service"
	themeStore "agora/internal/theme/store"
	"agora/internal/youth"
	youthStore "agora/internal/youth/store"
	"agora/pkg/platform/circuit"
	"agora/pkg/platform/diagnostics"
	"agora/pkg/platform/diagnostics/kafka"
	"agora/pkg/platform/httputil"
	"agora/pkg/platform/middleware/requestid"
	"agora/pkg/platform/middleware/requesttime"
)

// main wires dependencies, starts the background loader and serves the
// presentation API until SIGINT/SIGTERM.
func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		slog.Error("configuration error", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Log.Level, cfg.Log.Format)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	m := metrics.New()

	portal, err := portalapi.New(cfg.Portal.BaseURL,
		portalapi.WithTimeout(cfg.Portal.Timeout),
		portalapi.WithBreaker(circuit.New("portal",
			circuit.WithFailureThreshold(5),
			circuit.WithSuccessThreshold(2),
			circuit.WithCooldown(30*time.Second),
		)),
		portalapi.WithLogger(log),
		portalapi.WithMetrics(portalapi.NewMetrics(m.Registry)),
	)
	if err != nil {
		return err
	}

	redisClient, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
		log.Info("redis connected")
	}

	themeOpts := []themeService.Option{
		themeService.WithLogger(log),
		themeService.WithMetrics(themeMetrics.New(m.Registry)),
		themeService.WithFetchTimeout(cfg.Portal.Timeout),
	}
	if redisClient != nil {
		themeOpts = append(themeOpts, themeService.WithSharedCache(
			themeStore.NewRedis(redisClient.Client, themeStore.WithTTL(cfg.Portal.ThemeCacheTTL)),
		))
	}
	themes, err := themeService.New(portal, themeStore.NewInMemory(), themeOpts...)
	if err != nil {
		return err
	}

	var ages handler.Ages
	switch {
	case cfg.ProfilePath != "":
		ages = youth.NewAges(youthStore.NewFile(cfg.ProfilePath))
	case redisClient != nil:
		ages = youth.NewAges(youthStore.NewRedis(redisClient.Client))
	}

	sink, closeSink, err := diagnosticsSink(ctx, cfg.Kafka, log)
	if err != nil {
		return err
	}
	defer closeSink()
	events := diagnostics.NewAsync(sink,
		diagnostics.WithLogger(log),
		diagnostics.WithMetrics(diagnostics.NewMetrics(m.Registry)),
	)

	tracker := aggregate.NewTracker()
	load, err := loader.New(portal, tracker,
		loader.WithLogger(log),
		loader.WithMetrics(loader.NewMetrics(m.Registry)),
		loader.WithDiagnostics(events),
	)
	if err != nil {
		return err
	}

	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(requestid.Middleware)
	r.Use(requesttime.Middleware)
	r.Use(middleware.Metrics(m))
	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		status := map[string]string{"status": "ok"}
		if redisClient != nil {
			if err := redisClient.Health(req.Context()); err != nil {
				status["redis"] = "unavailable"
			}
		}
		httputil.WriteJSON(w, http.StatusOK, status)
	})
	r.Method(http.MethodGet, "/metrics", m.Handler())
	handler.New(themes, tracker, ages, cfg.Languages, log).Register(r)

	srv := httpserver.New(cfg.Server.Addr, r)

	bgCtx, cancelBg := context.WithCancel(ctx)
	defer cancelBg()
	go func() { _ = events.Run(bgCtx) }()
	go func() { _ = load.Run(bgCtx, cfg.Portal.RefreshInterval) }()

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting agora portal", "addr", cfg.Server.Addr, "portal", cfg.Portal.BaseURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// diagnosticsSink publishes to Kafka when brokers are configured and
// discards events otherwise.
func diagnosticsSink(ctx context.Context, cfg config.KafkaConfig, log *slog.Logger) (diagnostics.Publisher, func(), error) {
	if len(cfg.Brokers) == 0 {
		return diagnostics.Discard{}, func() {}, nil
	}
	pub, err := kafka.NewPublisher(cfg.Brokers, cfg.Topic)
	if err != nil {
		return nil, nil, err
	}
	ensureCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := pub.EnsureTopic(ensureCtx, 1, 1); err != nil {
		log.Warn("diagnostics topic not ensured", "topic", cfg.Topic, "error", err)
	}
	return pub, pub.Close, nil
}
