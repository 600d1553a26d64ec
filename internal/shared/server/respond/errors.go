package respond

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"briefly-backend/internal/shared/apperr"
	"briefly-backend/internal/shared/telemetry"
)

// ErrorBody defines the standardized error object.
type ErrorBody struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// ErrorResponse wraps the error body.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// Error sends a standardized error response.
func Error(c *gin.Context, status int, code, message string, details interface{}) {
	fields := map[string]any{
		"status":     status,
		"code":       code,
		"message":    message,
		"path":       c.Request.URL.Path,
		"method":     c.Request.Method,
		"request_id": c.GetString("requestId"),
	}
	if userID := c.GetString("userId"); userID != "" {
		fields["user_id"] = userID
	}
	if status >= http.StatusInternalServerError {
		telemetry.Error("http.error", fields)
	} else {
		telemetry.Warn("http.error", fields)
	}

	c.AbortWithStatusJSON(status, ErrorResponse{
		Error: ErrorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

// FromError maps a domain error onto its status code. Errors without a known
// kind are logged and reported as a generic failure.
func FromError(c *gin.Context, err error) {
	var se *apperr.ServiceError
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		Error(c, http.StatusNotFound, "not_found", apperr.Message(err, "not found"), nil)
	case errors.Is(err, apperr.ErrValidation):
		Error(c, http.StatusBadRequest, "validation_error", apperr.Message(err, "invalid request"), nil)
	case errors.Is(err, apperr.ErrUnsupportedEncoding):
		Error(c, http.StatusUnprocessableEntity, "unsupported_encoding", apperr.Message(err, "unsupported file encoding"), nil)
	case errors.Is(err, apperr.ErrConflict):
		Error(c, http.StatusConflict, "conflict", apperr.Message(err, "conflict"), nil)
	case errors.Is(err, apperr.ErrForbidden):
		Error(c, http.StatusForbidden, "forbidden", apperr.Message(err, "forbidden"), nil)
	case errors.As(err, &se):
		telemetry.Error("service.error", map[string]any{"request_id": c.GetString("requestId"), "err": err})
		Error(c, http.StatusBadGateway, "service_error", se.Detail, nil)
	default:
		telemetry.Error("internal.error", map[string]any{"request_id": c.GetString("requestId"), "err": err})
		Error(c, http.StatusInternalServerError, "internal", "internal error", nil)
	}
}
