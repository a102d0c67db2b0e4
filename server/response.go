package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/kbukum/todoapi/errors"
	"github.com/kbukum/todoapi/logger"
)

// RespondWithError renders err. AppErrors keep their status and body; any
// other error becomes a generic 500. Causes are logged, never sent.
func RespondWithError(c *gin.Context, err error) {
	appErr := apperrors.Wrap(err)
	if appErr.HTTPStatus >= http.StatusInternalServerError {
		fields := map[string]interface{}{
			logger.FieldMethod: c.Request.Method,
			logger.FieldPath:   c.Request.URL.Path,
			logger.FieldStatus: appErr.HTTPStatus,
		}
		if appErr.Cause != nil {
			fields[logger.FieldError] = appErr.Cause.Error()
		}
		logger.WithContext(c.Request.Context()).Error(appErr.Message, fields)
	}
	c.AbortWithStatusJSON(appErr.HTTPStatus, appErr.ToResponse())
}

// RespondOK sends a 200 response with data as the raw JSON body.
func RespondOK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, data)
}

// BindJSON decodes the request body into dst. Decode failures, including
// oversized bodies, become a 400.
func BindJSON(c *gin.Context, dst any) error {
	if err := c.ShouldBindJSON(dst); err != nil {
		return apperrors.Validation("Request body must be a valid JSON object.").WithCause(err)
	}
	return nil
}
