package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/satushop/kaspisync/pkg/errors"
)

// respondError maps domain errors onto HTTP statuses. Anything
// unrecognized is a 500 and gets logged; domain rejections are the
// caller's problem and stay out of the error log.
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	switch e := err.(type) {
	case *errors.ErrNotFound:
		c.JSON(http.StatusNotFound, gin.H{"error": e.Error()})
	case *errors.ErrInvalidStateTransition:
		c.JSON(http.StatusConflict, gin.H{"error": e.Error()})
	case *errors.ErrTokenMissing, *errors.ErrTokenInvalid:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case *errors.ErrCooldownActive:
		c.JSON(http.StatusTooManyRequests, gin.H{
			"error":        e.Error(),
			"retryAfterMs": e.Remaining.Milliseconds(),
		})
	case *errors.ErrCodeExpired:
		c.JSON(http.StatusGone, gin.H{"error": e.Error()})
	case *errors.ErrCodeInvalid:
		c.JSON(http.StatusBadRequest, gin.H{
			"error":             e.Error(),
			"attemptsRemaining": e.AttemptsRemaining,
		})
	case *errors.ErrAttemptsExhausted:
		c.JSON(http.StatusLocked, gin.H{"error": e.Error()})
	case *errors.ErrRateLimited:
		c.JSON(http.StatusTooManyRequests, gin.H{"error": e.Error()})
	default:
		logger.Error("Request failed", zap.String("path", c.Request.URL.Path), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
