package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/multierr"

	"github.com/trustpoints/trustpoints-backend/api/routes"
	"github.com/trustpoints/trustpoints-backend/internal/activity"
	"github.com/trustpoints/trustpoints-backend/internal/auth"
	"github.com/trustpoints/trustpoints-backend/internal/orders"
	"github.com/trustpoints/trustpoints-backend/internal/users"
	"github.com/trustpoints/trustpoints-backend/internal/wallet"
	"github.com/trustpoints/trustpoints-backend/pkg/config"
	"github.com/trustpoints/trustpoints-backend/pkg/db"
	"github.com/trustpoints/trustpoints-backend/pkg/logger"
	"github.com/trustpoints/trustpoints-backend/pkg/metrics"
	"github.com/trustpoints/trustpoints-backend/pkg/migrate"
	"github.com/trustpoints/trustpoints-backend/pkg/pubsub"
	"github.com/trustpoints/trustpoints-backend/pkg/redis"
)

const shutdownGrace = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := multierr.Combine(redisClient.Close(), dbClient.Close()); err != nil {
			logg.Error(context.Background(), "error closing clients", err)
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	httpMetrics := metrics.NewHTTPMetrics(registry)
	orderMetrics := metrics.NewOrderMetrics(registry)

	conn := dbClient.DB()
	txRunner := db.FromGorm(conn)

	activityRepo := activity.NewRepository(conn)
	recorder, err := buildRecorder(ctx, cfg, logg, activityRepo)
	if err != nil {
		logg.Error(ctx, "failed to build activity recorder", err)
		os.Exit(1)
	}
	activitySvc, err := activity.NewService(activityRepo)
	if err != nil {
		logg.Error(ctx, "failed to create activity service", err)
		os.Exit(1)
	}

	walletSvc, err := wallet.NewService(wallet.NewRepository(conn), txRunner, cfg.Points)
	if err != nil {
		logg.Error(ctx, "failed to create wallet service", err)
		os.Exit(1)
	}

	authSvc, err := auth.NewService(auth.ServiceParams{
		TxRunner:       txRunner,
		UserRepo:       users.NewRepository(conn),
		WalletRepo:     wallet.NewRepository(conn),
		Recorder:       recorder,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
		PointsConfig:   cfg.Points,
	})
	if err != nil {
		logg.Error(ctx, "failed to create auth service", err)
		os.Exit(1)
	}

	ordersSvc, err := orders.NewService(orders.ServiceParams{
		Repo:            orders.NewRepository(conn),
		TxRunner:        txRunner,
		Ledger:          walletSvc,
		Recorder:        recorder,
		Metrics:         orderMetrics,
		DefaultRadiusKm: cfg.Nearby.DefaultRadiusKm,
		MaxRadiusKm:     cfg.Nearby.MaxRadiusKm,
	})
	if err != nil {
		logg.Error(ctx, "failed to create orders service", err)
		os.Exit(1)
	}

	handler := routes.NewRouter(routes.RouterParams{
		Config:          cfg,
		Logger:          logg,
		DB:              dbClient,
		Redis:           redisClient,
		HTTPMetrics:     httpMetrics,
		MetricsHandler:  promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		AuthService:     authSvc,
		OrdersService:   ordersSvc,
		WalletService:   walletSvc,
		ActivityService: activitySvc,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	runCtx := logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(runCtx, "starting api server")

	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(runCtx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		logg.Info(runCtx, "shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(runCtx, "graceful shutdown failed", err)
		}
	}
	logg.Info(runCtx, "api server stopped")
}

// buildRecorder publishes activity events to Pub/Sub when a topic is
// configured, and writes them straight to the database otherwise.
func buildRecorder(ctx context.Context, cfg *config.Config, logg *logger.Logger, repo activity.Repository) (activity.Recorder, error) {
	if cfg.GCP.ProjectID != "" && cfg.PubSub.ActivityTopic != "" {
		client, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg)
		if err != nil {
			return nil, err
		}
		return activity.NewPubSubRecorder(client.ActivityPublisher(), logg)
	}
	return activity.NewDBRecorder(repo, logg)
}
