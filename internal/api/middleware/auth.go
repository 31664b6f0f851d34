package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// AdminAuth checks the Authorization bearer key against the configured
// bcrypt hash. There is a single operator key; per-seller credentials
// live on the seller documents and never reach this surface.
func AdminAuth(adminKeyHash string, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing API key"})
			return
		}
		key := strings.TrimPrefix(header, "Bearer ")

		if err := bcrypt.CompareHashAndPassword([]byte(adminKeyHash), []byte(key)); err != nil {
			logger.Warn("Rejected API key", zap.String("path", c.Request.URL.Path))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid API key"})
			return
		}

		c.Next()
	}
}
