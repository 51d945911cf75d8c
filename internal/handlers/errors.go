package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SscSPs/fx_quote_engine/internal/apperrors"
	"github.com/SscSPs/fx_quote_engine/internal/middleware"
)

// statusFor maps a service error to an HTTP status and a client-safe message.
func statusFor(err error, action string) (int, string) {
	switch {
	case errors.Is(err, apperrors.ErrValidation):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, apperrors.ErrNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, apperrors.ErrAlreadyConsumedOrExpired),
		errors.Is(err, apperrors.ErrAlreadyTerminal),
		errors.Is(err, apperrors.ErrDuplicate):
		return http.StatusConflict, err.Error()
	case errors.Is(err, apperrors.ErrExpired):
		return http.StatusGone, err.Error()
	case errors.Is(err, apperrors.ErrInvalidTransition):
		return http.StatusUnprocessableEntity, err.Error()
	case errors.Is(err, apperrors.ErrRateUnavailable):
		return http.StatusServiceUnavailable, err.Error()
	case errors.Is(err, apperrors.ErrTimeout):
		return http.StatusGatewayTimeout, "Timed out, please retry"
	default:
		return http.StatusInternalServerError, "Failed to " + action
	}
}

// respondWithError writes the mapped status and logs server-side failures at error level.
func respondWithError(c *gin.Context, err error, action string) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	status, msg := statusFor(err, action)

	switch {
	case status == http.StatusInternalServerError:
		logger.Error("Failed to "+action, slog.String("error", err.Error()))
	default:
		logger.Warn("Request rejected", slog.String("action", action), slog.Int("status", status), slog.String("error", err.Error()))
	}

	if apperrors.IsRetryable(err) || status == http.StatusServiceUnavailable {
		c.Header("Retry-After", "1")
	}
	c.JSON(status, gin.H{"error": msg})
}

// respondWithBindError rejects a malformed request body or query.
func respondWithBindError(c *gin.Context, err error, what string) {
	middleware.GetLoggerFromCtx(c.Request.Context()).Warn("Failed to bind "+what, slog.String("error", err.Error()))
	c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
}
