package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/estate-service/internal/api/http"
	"github.com/spec-kit/estate-service/internal/api/http/handlers"
	"github.com/spec-kit/estate-service/internal/auth"
	"github.com/spec-kit/estate-service/internal/config"
	"github.com/spec-kit/estate-service/internal/events"
	"github.com/spec-kit/estate-service/internal/observability"
	"github.com/spec-kit/estate-service/internal/persistence"
	"github.com/spec-kit/estate-service/internal/repository"
	"github.com/spec-kit/estate-service/internal/service"
	"github.com/spec-kit/estate-service/internal/storage"
	"github.com/spec-kit/estate-service/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
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

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	imageStore, err := storage.NewS3ImageStore(ctx, cfg.Storage)
	if err != nil {
		logger.Fatal("failed to init image store", zap.Error(err))
	}

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	houseRepo := repository.NewHouseRepository(pool)

	searchCache := persistence.NewSearchCache(redis,
		time.Duration(cfg.Redis.SearchTTLSecs)*time.Second, logger)
	dispatcher := events.NewInMemoryDispatcher()
	worker.StartCacheWorker(dispatcher, searchCache)

	authService := service.NewAuthService(*cfg, userRepo)
	houseService := service.NewHouseService(service.HouseDependencies{
		HouseRepo:  houseRepo,
		ImageStore: imageStore,
		Cache:      searchCache,
		Dispatcher: dispatcher,
		Logger:     logger,
	})

	cookiePolicy := auth.NewCookiePolicy(cfg.App, cfg.Cookie, authService.TokenManager().AccessTTL())
	sessionMiddleware := auth.NewSessionMiddleware(authService.TokenManager(), cookiePolicy)

	metrics := observability.NewMetrics()

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.CORS, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:  handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis, imageStore),
		Auth:    handlers.NewAuthHandler(authService, cookiePolicy),
		Houses:  handlers.NewHousesHandler(houseService),
		Session: sessionMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
