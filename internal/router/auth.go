package router

import (
	"github.com/Payphone-Digital/accounts/internal/dto"
	"github.com/gin-gonic/gin"
)

func (r *Router) authRoutes(api *gin.RouterGroup) {
	auth := api.Group("/auth")
	{
		// Public, throttled per client IP
		auth.POST("/login",
			r.loginRateLimit(),
			r.validMw.ValidateRequestBody(func() interface{} { return &dto.LoginRequest{} }),
			r.authHandler.Login,
		)

		protected := auth.Group("")
		protected.Use(r.authMw.RequireAuth())
		{
			protected.POST("/logout", r.authHandler.Logout)
		}
	}

	// Current user, returned without the data envelope
	api.GET("/user", r.authMw.RequireAuth(), r.authHandler.Me)
}
