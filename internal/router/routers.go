package router

import (
	"net/http"
	"time"

	"github.com/Payphone-Digital/accounts/config"
	"github.com/Payphone-Digital/accounts/internal/constants"
	"github.com/Payphone-Digital/accounts/internal/handler"
	"github.com/Payphone-Digital/accounts/internal/middleware"
	"github.com/Payphone-Digital/accounts/pkg/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Router struct {
	userHandler   *handler.UserHandler
	authHandler   *handler.AuthHandler
	healthHandler *handler.HealthHandler
	docsHandler   *handler.DocsHandler

	validMw *middleware.ValidationMiddleware
	authMw  *middleware.AuthMiddleware
	Config  *config.Config
}

func NewRouter(
	user *handler.UserHandler,
	auth *handler.AuthHandler,
	health *handler.HealthHandler,
	docs *handler.DocsHandler,

	validMw *middleware.ValidationMiddleware,
	authMw *middleware.AuthMiddleware,
	config *config.Config,
) *Router {
	return &Router{
		userHandler:   user,
		authHandler:   auth,
		healthHandler: health,
		docsHandler:   docs,

		validMw: validMw,
		authMw:  authMw,
		Config:  config,
	}
}

func (r *Router) SetupRoutes() *gin.Engine {
	router := gin.New()
	// ClientIP and forwarded headers are only believed from these peers
	if err := router.SetTrustedProxies(r.Config.App.TrustedProxies); err != nil {
		logger.GetLogger().Error("Invalid trusted proxies, trusting none", zap.Error(err))
		_ = router.SetTrustedProxies(nil)
	}

	prefix := r.Config.App.APIPrefix

	// CORS sits on the engine so preflights reach it even without a matching route
	router.Use(middleware.RecoveryMiddleware())
	router.Use(middleware.LoggingMiddleware())
	router.Use(middleware.ContextMiddleware(r.Config.App.Timeout))
	router.Use(middleware.RequestResponseMiddleware())
	router.Use(middleware.SecurityLoggingMiddleware(prefix + "/auth/login"))
	router.Use(middleware.CORS(prefix, r.Config.CORS.AllowedOrigins))

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, constants.BuildErrorResponse(constants.MsgNotFound))
	})

	router.GET("/up", r.healthHandler.BasicHealth)
	router.GET(handler.DocsPath, r.docsHandler.Page)
	router.GET(handler.DocsSpecPath, r.docsHandler.Spec)

	api := router.Group(prefix)
	{
		api.GET("/health", r.healthHandler.HealthCheck)

		r.authRoutes(api)
		r.userRoutes(api)
	}

	return router
}

func (r *Router) loginRateLimit() gin.HandlerFunc {
	return middleware.RateLimit(r.Config.RateLimit.Request, time.Duration(r.Config.RateLimit.Duration)*time.Second)
}
