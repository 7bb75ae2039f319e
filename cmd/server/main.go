package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/suteetoe/tenant-auth-service/internal/handler"
	"github.com/suteetoe/tenant-auth-service/internal/model"
	"github.com/suteetoe/tenant-auth-service/internal/repository"
	"github.com/suteetoe/tenant-auth-service/internal/service"
	"github.com/suteetoe/tenant-auth-service/internal/tokenstore"
	"github.com/suteetoe/tenant-auth-service/internal/worker"
	"github.com/suteetoe/tenant-auth-service/pkg/cache"
	"github.com/suteetoe/tenant-auth-service/pkg/config"
	"github.com/suteetoe/tenant-auth-service/pkg/database"
	"github.com/suteetoe/tenant-auth-service/pkg/events"
	"github.com/suteetoe/tenant-auth-service/pkg/jwtutil"
	"github.com/suteetoe/tenant-auth-service/pkg/logger"
	"github.com/suteetoe/tenant-auth-service/pkg/metrics"
)

func main() {
	// Load configuration from .env file and environment variables
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	if err := logger.InitLogger(cfg); err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	log := logger.GetLogger()
	defer log.Sync()
	log.Info("Starting tenant auth service...", cfg.LogConfig()...)

	db, err := database.InitDB(&cfg.DB)
	if err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer database.Close(db)
	log.Info("Database connection established")

	if err := database.MigrateModels(db, log, model.AllModels()...); err != nil {
		log.Fatal("Failed to migrate database", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	healthDeps := map[string]handler.Pinger{
		"database": handler.PingFunc(func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		}),
	}

	var redisClient *cache.Client
	if cfg.Redis.URL != "" {
		redisClient, err = cache.NewClient(ctx, cfg.Redis.URL)
		if err != nil {
			log.Fatal("Failed to connect to redis", zap.Error(err))
		}
		defer redisClient.Close()
		healthDeps["redis"] = redisClient
		log.Info("Redis connection established")
	}

	var tenants repository.TenantRepository = repository.NewTenantRepository(db)
	if redisClient != nil {
		tenants = repository.NewCachedTenantRepository(tenants, redisClient, cfg.Redis.CacheTTL, log)
	}
	users := repository.NewUserRepository(db)

	var blacklist tokenstore.Blacklist
	switch cfg.Blacklist.Backend {
	case config.BlacklistBackendRedis:
		blacklist = tokenstore.NewRedisBlacklist(redisClient)
	default:
		dbBlacklist := tokenstore.NewDBBlacklist(db)
		blacklist = dbBlacklist
		go worker.NewBlacklistSweeper(dbBlacklist, cfg.Blacklist.SweepInterval, log).Start(ctx)
	}
	log.Info("Token blacklist initialized", zap.String("backend", cfg.Blacklist.Backend))

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.NATS.URL != "" {
		natsPublisher, err := events.NewNATSPublisher(cfg.NATS.URL, cfg.ServiceName, log)
		if err != nil {
			log.Fatal("Failed to connect to NATS", zap.Error(err))
		}
		publisher = natsPublisher
	}
	defer publisher.Close()

	jwt := jwtutil.NewJWTUtil(&cfg.JWT)
	authService := service.NewAuthService(users, publisher)
	tokenService := service.NewTokenService(jwt, blacklist, users, publisher)
	resolver := service.NewTenantResolver(tenants, cfg.Tenant.MainDomain)

	e := handler.NewRouter(handler.RouterConfig{
		Auth:           handler.NewAuthHandler(authService, tokenService, cfg.Cookie),
		Health:         handler.NewHealthHandler(cfg.ServiceName, healthDeps),
		Resolver:       resolver,
		Tokens:         tokenService,
		AccessCookie:   cfg.Cookie.AccessName,
		Logger:         log,
		HTTPMetrics:    metrics.NewHTTPMetrics(cfg.ServiceName, cfg.Metrics.Prefix, nil),
		MetricsHandler: metrics.Handler(nil),
		CORSOrigins:    cfg.CORS.AllowedOrigins,
	})

	go func() {
		log.Info("Starting server", zap.String("port", cfg.Server.Port))
		if err := e.Start(":" + cfg.Server.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown failed", zap.Error(err))
	}
	log.Info("Server stopped")
}
