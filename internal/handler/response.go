package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/Payphone-Digital/accounts/internal/constants"
	apperrors "github.com/Payphone-Digital/accounts/internal/errors"
	"github.com/Payphone-Digital/accounts/pkg/logger"
	"github.com/gin-gonic/gin"
)

// respondError renders a service error. Validation failures carry their field bag.
func respondError(ctx context.Context, c *gin.Context, err error) {
	status := apperrors.ToHTTPStatus(err)
	message := apperrors.GetErrorMessage(err)

	if status >= http.StatusInternalServerError {
		logger.ErrorWithContext(ctx, "Request failed").
			Int("http_status", status).
			Err(err).
			Log()
	}

	if fields := apperrors.GetErrorFields(err); len(fields) > 0 {
		c.JSON(status, constants.BuildValidationErrorResponse(message, fields))
		return
	}
	c.JSON(status, constants.BuildErrorResponse(message))
}

// userIDParam reads the :id path parameter. Anything that is not a positive
// integer cannot name a user.
func userIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}
