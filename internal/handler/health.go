package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/Payphone-Digital/accounts/pkg/clock"
	"github.com/Payphone-Digital/accounts/pkg/database"
	"github.com/Payphone-Digital/accounts/pkg/logger"
	"github.com/Payphone-Digital/accounts/pkg/redis"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const healthCheckTimeout = 5 * time.Second

const (
	statusHealthy   = "healthy"
	statusUnhealthy = "unhealthy"
	statusDisabled  = "disabled"
)

type HealthHandler struct {
	db          *gorm.DB
	redisClient redis.Client
	clock       clock.Clock
}

type HealthCheckResponse struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Checks    map[string]HealthCheck `json:"checks"`
}

type HealthCheck struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

func NewHealthHandler(db *gorm.DB, redisClient redis.Client, clk clock.Clock) *HealthHandler {
	if redisClient == nil {
		redisClient = redis.NewDisabledClient()
	}
	if clk == nil {
		clk = clock.Real()
	}
	return &HealthHandler{
		db:          db,
		redisClient: redisClient,
		clock:       clk,
	}
}

// HealthCheck reports the database and cache. Only the database decides the status.
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
	defer cancel()

	response := HealthCheckResponse{
		Status:    statusHealthy,
		Timestamp: h.clock.Now(),
		Checks:    make(map[string]HealthCheck, 2),
	}

	dbStatus := h.checkDatabase(ctx)
	response.Checks["database"] = dbStatus
	if dbStatus.Status != statusHealthy {
		response.Status = statusUnhealthy
	}

	// Redis only backs the token cache, a failure degrades to database lookups
	response.Checks["redis"] = h.checkRedis(ctx)

	statusCode := http.StatusOK
	if response.Status == statusUnhealthy {
		statusCode = http.StatusServiceUnavailable
	}

	logger.GetLogger().Debug("Health check performed",
		zap.String("overall_status", response.Status),
		zap.Int("status_code", statusCode),
	)

	c.JSON(statusCode, response)
}

// BasicHealth answers load balancer probes without touching dependencies
func (h *HealthHandler) BasicHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    statusHealthy,
		"timestamp": h.clock.Now(),
	})
}

func (h *HealthHandler) checkDatabase(ctx context.Context) HealthCheck {
	if h.db == nil {
		return HealthCheck{
			Status:  statusUnhealthy,
			Message: "Database connection not initialized",
		}
	}

	if err := database.Ping(ctx, h.db); err != nil {
		logger.GetLogger().Error("Database ping failed", zap.Error(err))
		return HealthCheck{
			Status:  statusUnhealthy,
			Message: "Database ping failed",
		}
	}

	sqlDB, err := h.db.DB()
	if err != nil {
		return HealthCheck{Status: statusHealthy}
	}
	stats := sqlDB.Stats()
	return HealthCheck{
		Status:  statusHealthy,
		Message: fmt.Sprintf("Database connection is healthy (open: %d, idle: %d)", stats.OpenConnections, stats.Idle),
	}
}

func (h *HealthHandler) checkRedis(ctx context.Context) HealthCheck {
	if !h.redisClient.IsEnabled() {
		return HealthCheck{
			Status:  statusDisabled,
			Message: "Redis cache is disabled",
		}
	}

	if err := h.redisClient.Ping(ctx); err != nil {
		logger.GetLogger().Warn("Redis ping failed", zap.Error(err))
		return HealthCheck{
			Status:  statusUnhealthy,
			Message: "Redis ping failed",
		}
	}

	return HealthCheck{
		Status:  statusHealthy,
		Message: "Redis connection is healthy",
	}
}
