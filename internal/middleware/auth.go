package middleware

import (
	"net/http"
	"strings"

	"github.com/Payphone-Digital/accounts/internal/constants"
	apperrors "github.com/Payphone-Digital/accounts/internal/errors"
	"github.com/Payphone-Digital/accounts/internal/model"
	"github.com/Payphone-Digital/accounts/internal/service"
	ctxutil "github.com/Payphone-Digital/accounts/pkg/context"
	"github.com/Payphone-Digital/accounts/pkg/logger"
	"github.com/gin-gonic/gin"
)

type AuthMiddleware struct {
	authService *service.AuthService
}

func NewAuthMiddleware(authService *service.AuthService) *AuthMiddleware {
	return &AuthMiddleware{authService: authService}
}

// RequireAuth resolves the bearer token to a user. Any failure is a 401
// with the same body.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := ctxutil.WithFunction(c.Request.Context(), "middleware", "RequireAuth")

		bearer, ok := bearerToken(c.GetHeader(constants.HeaderAuthorization))
		if !ok {
			logger.DebugWithContext(ctx, "Missing or malformed Authorization header").
				String("path", c.Request.URL.Path).
				Log()
			abortUnauthenticated(c)
			return
		}

		user, token, err := m.authService.Authenticate(ctx, bearer)
		if err != nil {
			status := apperrors.ToHTTPStatus(err)
			if status == http.StatusUnauthorized {
				logger.InfoWithContext(ctx, "Rejected bearer token").
					String("path", c.Request.URL.Path).
					Log()
				abortUnauthenticated(c)
				return
			}
			logger.ErrorWithContext(ctx, "Failed to authenticate request").
				Err(err).
				Log()
			c.AbortWithStatusJSON(status, constants.BuildErrorResponse(apperrors.GetErrorMessage(err)))
			return
		}

		c.Set(constants.GinKeyUser, user)
		c.Set(constants.GinKeyToken, token)
		c.Request = c.Request.WithContext(ctxutil.WithUserID(c.Request.Context(), user.ID))

		c.Next()
	}
}

// CurrentUser returns the user set by RequireAuth.
func CurrentUser(c *gin.Context) (*model.User, bool) {
	v, ok := c.Get(constants.GinKeyUser)
	if !ok {
		return nil, false
	}
	user, ok := v.(*model.User)
	return user, ok
}

// CurrentToken returns the token that authenticated the request.
func CurrentToken(c *gin.Context) (*model.PersonalAccessToken, bool) {
	v, ok := c.Get(constants.GinKeyToken)
	if !ok {
		return nil, false
	}
	token, ok := v.(*model.PersonalAccessToken)
	return token, ok
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, constants.BearerScheme) {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func abortUnauthenticated(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, constants.BuildErrorResponse(constants.MsgUnauthenticated))
}
