package middleware

import (
	"bytes"
	"io"
	"net/http"

	"github.com/Payphone-Digital/accounts/internal/constants"
	apperrors "github.com/Payphone-Digital/accounts/internal/errors"
	"github.com/Payphone-Digital/accounts/pkg/logger"
	"github.com/Payphone-Digital/accounts/pkg/validation"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

type ValidationMiddleware struct{}

func NewValidationMiddleware() *ValidationMiddleware {
	validation.Register()
	return &ValidationMiddleware{}
}

// ValidateRequestBody binds the JSON body into a fresh value from factory and
// validates it. Rule failures answer 422 with a field error bag, unparsable
// JSON answers 400. On success the value is stored under GinKeyRequestBody.
// An empty body binds as {} so required rules report on every field.
func (m *ValidationMiddleware) ValidateRequestBody(factory func() interface{}) gin.HandlerFunc {
	return func(c *gin.Context) {
		clientIP := c.ClientIP()

		var bodyBytes []byte
		if c.Request.Body != nil {
			var err error
			bodyBytes, err = io.ReadAll(io.LimitReader(c.Request.Body, maxBodyBytes+1))
			if err != nil || len(bodyBytes) > maxBodyBytes {
				logger.GetLogger().Warn("Middleware: Failed to read request body",
					zap.String("client_ip", clientIP),
					zap.String("path", c.Request.URL.Path),
					zap.Error(err),
				)
				c.AbortWithStatusJSON(http.StatusBadRequest, constants.BuildErrorResponse(constants.MsgBadRequest))
				return
			}
		}
		c.Request.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))

		if len(bytes.TrimSpace(bodyBytes)) == 0 {
			bodyBytes = []byte("{}")
		}

		request := factory()
		if err := binding.JSON.BindBody(bodyBytes, request); err != nil {
			fields, isValidation := validation.Translate(err)
			if !isValidation {
				logger.GetLogger().Warn("Middleware: JSON unmarshaling failed",
					zap.String("client_ip", clientIP),
					zap.String("path", c.Request.URL.Path),
					zap.Int("body_size", len(bodyBytes)),
					zap.Error(err),
				)
				c.AbortWithStatusJSON(http.StatusBadRequest, constants.BuildErrorResponse(constants.MsgBadRequest))
				return
			}

			verr := apperrors.NewValidationErrors(fields)
			logger.GetLogger().Debug("Middleware: Request validation failed",
				zap.String("client_ip", clientIP),
				zap.String("path", c.Request.URL.Path),
				zap.Int("error_count", len(fields)),
			)
			c.AbortWithStatusJSON(http.StatusUnprocessableEntity, constants.BuildValidationErrorResponse(verr.Message, verr.Fields))
			return
		}

		c.Set(constants.GinKeyRequestBody, request)
		c.Next()
	}
}
