package handler

import (
	"net/http"

	"github.com/Payphone-Digital/accounts/internal/constants"
	"github.com/Payphone-Digital/accounts/internal/dto"
	apperrors "github.com/Payphone-Digital/accounts/internal/errors"
	"github.com/Payphone-Digital/accounts/internal/service"
	ctxutil "github.com/Payphone-Digital/accounts/pkg/context"
	"github.com/Payphone-Digital/accounts/pkg/logger"
	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	userService *service.UserService
}

func NewUserHandler(service *service.UserService) *UserHandler {
	return &UserHandler{userService: service}
}

// List returns every user, newest first
func (h *UserHandler) List(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), "handler", "ListUsers")

	users, err := h.userService.List(ctx)
	if err != nil {
		respondError(ctx, c, err)
		return
	}

	logger.DebugWithContext(ctx, "Users fetched successfully").
		Int("returned_count", len(users)).
		Log()

	c.JSON(http.StatusOK, constants.BuildDataResponse(users))
}

// CreateUser creates a new user
func (h *UserHandler) CreateUser(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), "handler", "CreateUser")

	req := c.MustGet(constants.GinKeyRequestBody).(*dto.CreateUserRequest)

	user, err := h.userService.CreateUser(ctx, req)
	if err != nil {
		logger.WarnWithContext(ctx, "Failed to create user").
			Int("http_status", apperrors.ToHTTPStatus(err)).
			Err(err).
			Log()
		respondError(ctx, c, err)
		return
	}

	logger.InfoWithContext(ctx, "User created successfully").
		Uint("user_id", user.ID).
		Log()

	c.JSON(http.StatusCreated, constants.BuildDataResponse(user))
}

func (h *UserHandler) GetByID(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), "handler", "GetUserByID")

	id, ok := userIDParam(c)
	if !ok {
		logger.DebugWithContext(ctx, "Invalid user ID format").
			String("raw_id", c.Param("id")).
			Log()
		respondError(ctx, c, apperrors.ErrUserNotFound)
		return
	}

	user, err := h.userService.GetByID(ctx, id)
	if err != nil {
		respondError(ctx, c, err)
		return
	}

	c.JSON(http.StatusOK, constants.BuildDataResponse(user))
}

// UpdateUser applies a partial update; absent fields are left untouched
func (h *UserHandler) UpdateUser(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), "handler", "UpdateUser")

	id, ok := userIDParam(c)
	if !ok {
		respondError(ctx, c, apperrors.ErrUserNotFound)
		return
	}

	req := c.MustGet(constants.GinKeyRequestBody).(*dto.UpdateUserRequest)

	user, err := h.userService.UpdateUser(ctx, id, req)
	if err != nil {
		logger.WarnWithContext(ctx, "Failed to update user").
			Uint("user_id", id).
			Int("http_status", apperrors.ToHTTPStatus(err)).
			Err(err).
			Log()
		respondError(ctx, c, err)
		return
	}

	logger.InfoWithContext(ctx, "User updated successfully").
		Uint("user_id", id).
		Bool("password_changed", req.Password != nil).
		Log()

	c.JSON(http.StatusOK, constants.BuildDataResponse(user))
}

// DeleteUser removes the user along with its tokens
func (h *UserHandler) DeleteUser(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), "handler", "DeleteUser")

	id, ok := userIDParam(c)
	if !ok {
		respondError(ctx, c, apperrors.ErrUserNotFound)
		return
	}

	if err := h.userService.DeleteUser(ctx, id); err != nil {
		respondError(ctx, c, err)
		return
	}

	logger.InfoWithContext(ctx, "User deleted successfully").
		Uint("user_id", id).
		Log()

	c.Status(http.StatusNoContent)
}
