package middleware

import (
	"github.com/gin-gonic/gin"

	appErrors "github.com/noah-isme/lesson-engine/pkg/errors"
	"github.com/noah-isme/lesson-engine/pkg/response"
)

// RequireFeature rejects requests with 404 while a feature flag is off.
func RequireFeature(enabled bool, name string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !enabled {
			response.Error(c, appErrors.Clone(appErrors.ErrNotFound, name+" is disabled"))
			c.Abort()
			return
		}
		c.Next()
	}
}
