package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	configs "github.com/Payphone-Digital/accounts/config"
	"github.com/Payphone-Digital/accounts/internal/constants"
	"github.com/Payphone-Digital/accounts/internal/handler"
	"github.com/Payphone-Digital/accounts/internal/middleware"
	"github.com/Payphone-Digital/accounts/internal/repository"
	"github.com/Payphone-Digital/accounts/internal/router"
	"github.com/Payphone-Digital/accounts/internal/service"
	"github.com/Payphone-Digital/accounts/pkg/clock"
	"github.com/Payphone-Digital/accounts/pkg/database"
	"github.com/Payphone-Digital/accounts/pkg/logger"
	"github.com/Payphone-Digital/accounts/pkg/redis"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const shutdownTimeout = 15 * time.Second

func main() {
	config, err := configs.LoadConfig()
	if err != nil {
		panic("Failed to load config: " + err.Error())
	}

	if err := logger.InitLogger(config); err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer logger.Sync()

	if config.App.Environment == constants.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	logger.GetLogger().Info("Application starting",
		zap.String("app_name", config.App.Name),
		zap.String("environment", config.App.Environment),
		zap.String("version", constants.AppVersion),
		zap.String("db_driver", config.Database.Driver),
	)

	db, err := database.Open(config)
	if err != nil {
		logger.GetLogger().Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.Close(db)

	migrateCtx, cancelMigrate := context.WithTimeout(context.Background(), time.Minute)
	err = database.Migrate(migrateCtx, db, config.Database.Driver, config.Database.Migrator)
	cancelMigrate()
	if err != nil {
		logger.GetLogger().Fatal("Failed to run database migrations", zap.Error(err))
	}
	logger.GetLogger().Info("Database migrated successfully",
		zap.String("migrator", config.Database.Migrator),
	)

	if config.App.SeedAdmin {
		if err := database.Seed(db); err != nil {
			logger.GetLogger().Error("Failed to seed database", zap.Error(err))
		} else {
			logger.GetLogger().Info("Database seeded successfully")
		}
	}

	// Redis only backs the token cache, so the service runs without it
	redisClient := redis.NewDisabledClient()
	if config.Redis.Enabled {
		if client, err := redis.NewClient(config); err != nil {
			logger.GetLogger().Warn("Redis unavailable, token cache disabled", zap.Error(err))
		} else {
			redisClient = client
		}
	}
	defer redisClient.Close()

	logger.GetLogger().Info("Redis client initialized",
		zap.Bool("enabled", redisClient.IsEnabled()),
	)

	// Repositories
	userRepo := repository.NewUserRepository(db)
	tokenRepo := repository.NewTokenRepository(db)

	// Services
	clk := clock.Real()
	tokenCache := service.NewTokenCache(redisClient, config.Redis.TokenTTL)
	authService := service.NewAuthService(userRepo, tokenRepo, tokenCache, clk, config.Auth)
	userService := service.NewUserService(userRepo, tokenCache)

	// Handlers
	docsHandler, err := handler.NewDocsHandler(config)
	if err != nil {
		logger.GetLogger().Fatal("Failed to prepare documentation page", zap.Error(err))
	}
	userHandler := handler.NewUserHandler(userService)
	authHandler := handler.NewAuthHandler(authService)
	healthHandler := handler.NewHealthHandler(db, redisClient, clk)

	// Middleware
	validationMiddleware := middleware.NewValidationMiddleware()
	authMiddleware := middleware.NewAuthMiddleware(authService)

	r := router.NewRouter(
		userHandler,
		authHandler,
		healthHandler,
		docsHandler,

		validationMiddleware,
		authMiddleware,
		config,
	).SetupRoutes()

	srv := &http.Server{
		Addr:              ":" + config.App.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.GetLogger().Info("Server starting",
			zap.String("port", config.App.Port),
			zap.String("host", "0.0.0.0"),
			zap.String("api_prefix", config.App.APIPrefix),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.GetLogger().Fatal("Failed to start server",
				zap.Error(err),
				zap.String("port", config.App.Port),
			)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.GetLogger().Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.GetLogger().Error("Server forced to shutdown", zap.Error(err))
	}
}
