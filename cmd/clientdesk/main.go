package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/clientdesk/clientdesk/internal/app"
	"github.com/clientdesk/clientdesk/internal/auth"
	"github.com/clientdesk/clientdesk/internal/clients"
	"github.com/clientdesk/clientdesk/internal/comms"
	"github.com/clientdesk/clientdesk/internal/dashboard"
	"github.com/clientdesk/clientdesk/internal/observability"
	"github.com/clientdesk/clientdesk/internal/platform/cache"
	"github.com/clientdesk/clientdesk/internal/platform/db"
	"github.com/clientdesk/clientdesk/jobs"
)

// infraHealth adapts the infrastructure handles to the dashboard health probe.
type infraHealth struct {
	pool      interface{ Ping(context.Context) error }
	redisPing func(context.Context) error
	inspector *jobs.Inspector
}

func (h infraHealth) PingDatabase(ctx context.Context) error { return h.pool.Ping(ctx) }
func (h infraHealth) PingCache(ctx context.Context) error    { return h.redisPing(ctx) }
func (h infraHealth) QueueDepth() (int, error)               { return h.inspector.QueueDepth() }

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr, cfg.RedisPassword)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword}
	jobClient := jobs.NewClient(redisOpts)
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()
	mailer := jobs.NewQueueMailer(jobClient)

	issuer, err := auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTTTL)
	if err != nil {
		logger.Error("init token issuer", slog.Any("error", err))
		os.Exit(1)
	}
	hasher := auth.NewHasher(cfg.BcryptCost)
	otps := auth.NewOTPStore(redisClient, cfg.OTPTTL, cfg.ResetTokenTTL, int64(cfg.OTPMaxAttempts))

	authRepo := auth.NewRepository(pool)
	authService := auth.NewService(authRepo, hasher, issuer, otps, mailer, logger, auth.ServiceConfig{
		MinPasswordLength: cfg.PasswordMinLength,
	})
	authMW := auth.Middleware{Issuer: issuer, Repo: authRepo, Logger: logger}
	authHandler := auth.NewHandler(logger, authService, authMW)

	clientsRepo := clients.NewRepository(pool)
	clientsService := clients.NewService(clientsRepo)
	clientsHandler := clients.NewHandler(logger, clientsService, authMW)

	inspector := jobs.NewInspector(redisOpts)
	health := infraHealth{
		pool:      pool,
		redisPing: func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
		inspector: inspector,
	}
	dashCache := dashboard.NewCache(redisClient, cfg.DashboardCacheTTL)
	dashService := dashboard.NewService(clientsRepo, health, dashCache)
	dashHandler := dashboard.NewHandler(logger, dashService, authMW)

	commsRepo := comms.NewRepository(pool)
	commsService := comms.NewService(commsRepo, mailer, logger)
	commsHandler := comms.NewHandler(logger, commsService, authMW)

	metrics := observability.NewMetrics()

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		AuthMiddleware:   authMW,
		AuthHandler:      authHandler,
		ClientsHandler:   clientsHandler,
		DashboardHandler: dashHandler,
		CommsHandler:     commsHandler,
		Metrics:          metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
