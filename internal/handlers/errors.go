package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/SscSPs/school_workflow_app/internal/apperrors"
	"github.com/SscSPs/school_workflow_app/internal/core/domain"
	"github.com/SscSPs/school_workflow_app/internal/middleware"
	"github.com/gin-gonic/gin"
)

// statusForError maps service errors to HTTP status codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, apperrors.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, apperrors.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, apperrors.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, apperrors.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperrors.ErrInvalidTransition),
		errors.Is(err, apperrors.ErrConflict),
		errors.Is(err, apperrors.ErrDuplicate):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// respondWithError writes the error response for err. Internal errors are logged
// and replaced by fallbackMsg so that no detail leaks to the client.
func respondWithError(c *gin.Context, err error, fallbackMsg string) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	status := statusForError(err)
	if status == http.StatusInternalServerError {
		logger.Error(fallbackMsg, slog.String("error", err.Error()))
		c.JSON(status, gin.H{"error": fallbackMsg})
		return
	}
	logger.Warn("Request failed", slog.Int("status", status), slog.String("error", err.Error()))
	c.JSON(status, gin.H{"error": err.Error()})
}

// principalFromContext returns the authenticated principal or aborts with 401.
func principalFromContext(c *gin.Context) (domain.Principal, bool) {
	p, ok := middleware.GetPrincipalFromContext(c)
	if !ok {
		middleware.GetLoggerFromCtx(c.Request.Context()).Error("Principal not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return domain.Principal{}, false
	}
	return p, true
}
