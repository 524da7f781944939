package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/acquisitions/internal/api/http"
	"github.com/spec-kit/acquisitions/internal/api/http/handlers"
	"github.com/spec-kit/acquisitions/internal/auth"
	"github.com/spec-kit/acquisitions/internal/config"
	"github.com/spec-kit/acquisitions/internal/events"
	"github.com/spec-kit/acquisitions/internal/observability"
	"github.com/spec-kit/acquisitions/internal/persistence"
	"github.com/spec-kit/acquisitions/internal/repository"
	"github.com/spec-kit/acquisitions/internal/security"
	"github.com/spec-kit/acquisitions/internal/service"
	"github.com/spec-kit/acquisitions/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.App, cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redisConn := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redisConn.Close()

	var userRepo repository.UserRepository
	if pg.Enabled() {
		userRepo = repository.NewUserRepository(pg.PoolHandle())
	} else {
		logger.Warn("using in-memory user repository; data is lost on restart")
		userRepo = repository.NewMemoryUserRepository()
	}

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()
	worker.StartSecurityLogWorker(service.NewSecurityEventLogger(dispatcher, logger))

	hasher := auth.NewPasswordHasher(cfg.Auth.BcryptCost)
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL(), cfg.Auth.JWTIssuer)
	cookies := auth.NewSessionCookies(cfg.Auth.CookieSecure, cfg.Auth.CookieSameSite, cfg.Auth.TokenTTL())
	authMiddleware := auth.NewAuthMiddleware(tokens, cookies, logger)

	authService := service.NewAuthService(service.AuthDependencies{
		UserRepo:   userRepo,
		Hasher:     hasher,
		Tokens:     tokens,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	usersService := service.NewUsersService(userRepo, hasher, dispatcher, logger)

	var sharedRedis redis.UniversalClient
	if redisConn.Enabled() {
		sharedRedis = redisConn.Client
	}
	store, err := security.NewWindowStoreFromConfig(cfg.RateLimit, sharedRedis)
	if err != nil {
		logger.Fatal("failed to build rate window", zap.Error(err))
	}
	governor := security.NewGovernor(security.GovernorOptions{
		Store:      store,
		Classifier: security.NewClassifierFromConfig(cfg.Risk, sharedRedis),
		Limits:     security.LimitsFromConfig(cfg.RateLimit),
		Interval:   cfg.RateLimit.Window(),
		Timeout:    cfg.Risk.Timeout(),
		FailOpen:   cfg.Risk.FailOpen,
		Logger:     logger,
	})

	app := httptransport.NewServer(httptransport.ServerConfig{
		AppName:     cfg.App.Name,
		ProxyHeader: cfg.App.ProxyHeader,
		Middleware: httptransport.MiddlewareConfig{
			Logger:      logger,
			Metrics:     metrics,
			Timeout:     cfg.App.RequestTimeout(),
			CORSOrigins: cfg.App.CORSOrigins,
		},
		Routes: httptransport.RouteConfig{
			Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redisConn, metrics),
			Auth:           handlers.NewAuthHandler(authService, cookies),
			Users:          handlers.NewUsersHandler(usersService),
			AuthMiddleware: authMiddleware,
			Governor:       governor.Middleware(dispatcher, metrics),
		},
	})

	go func() {
		logger.Info("listening", zap.String("addr", cfg.App.Addr()), zap.String("env", cfg.App.Env))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Warn("shutdown", zap.Error(err))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
