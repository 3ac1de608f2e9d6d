package router

import (
	"github.com/Payphone-Digital/accounts/internal/dto"
	"github.com/gin-gonic/gin"
)

func (r *Router) userRoutes(api *gin.RouterGroup) {
	createBody := r.validMw.ValidateRequestBody(func() interface{} { return &dto.CreateUserRequest{} })
	updateBody := r.validMw.ValidateRequestBody(func() interface{} { return &dto.UpdateUserRequest{} })

	users := api.Group("/users")
	{
		// All user routes require a bearer token
		users.Use(r.authMw.RequireAuth())
		{
			users.GET("", r.userHandler.List)
			users.POST("", createBody, r.userHandler.CreateUser)
			users.GET("/:id", r.userHandler.GetByID)

			// PUT and PATCH both apply partial updates
			users.PUT("/:id", updateBody, r.userHandler.UpdateUser)
			users.PATCH("/:id", updateBody, r.userHandler.UpdateUser)

			users.DELETE("/:id", r.userHandler.DeleteUser)
		}
	}
}
