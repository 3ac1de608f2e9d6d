package handler

import (
	"net/http"

	"github.com/Payphone-Digital/accounts/internal/constants"
	"github.com/Payphone-Digital/accounts/internal/dto"
	apperrors "github.com/Payphone-Digital/accounts/internal/errors"
	"github.com/Payphone-Digital/accounts/internal/middleware"
	"github.com/Payphone-Digital/accounts/internal/service"
	ctxutil "github.com/Payphone-Digital/accounts/pkg/context"
	"github.com/Payphone-Digital/accounts/pkg/logger"
	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	authService *service.AuthService
}

func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// Login exchanges credentials for a bearer token
func (h *AuthHandler) Login(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), "handler", "Login")

	req := c.MustGet(constants.GinKeyRequestBody).(*dto.LoginRequest)

	logger.InfoWithContext(ctx, "User login attempt").
		Bool("remember_me", req.Remember()).
		Log()

	response, err := h.authService.Login(ctx, req)
	if err != nil {
		logger.WarnWithContext(ctx, "Login failed").
			Int("http_status", apperrors.ToHTTPStatus(err)).
			Log()
		respondError(ctx, c, err)
		return
	}

	logger.InfoWithContext(ctx, "User logged in successfully").
		Uint("user_id", response.User.ID).
		String("expires_at", response.ExpiresAt).
		Log()

	c.JSON(http.StatusOK, response)
}

// Logout revokes the token that authenticated the request
func (h *AuthHandler) Logout(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), "handler", "Logout")

	token, ok := middleware.CurrentToken(c)
	if !ok {
		respondError(ctx, c, apperrors.ErrUnauthenticated)
		return
	}

	if err := h.authService.Revoke(ctx, token); err != nil {
		respondError(ctx, c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// Me returns the authenticated user without the data envelope
func (h *AuthHandler) Me(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), "handler", "Me")

	user, ok := middleware.CurrentUser(c)
	if !ok {
		respondError(ctx, c, apperrors.ErrUnauthenticated)
		return
	}

	c.JSON(http.StatusOK, dto.NewUserResponse(user))
}
