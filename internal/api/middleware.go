package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"voiceguard/internal/utils"
)

// RequireAPIKey rejects requests whose X-API-Key header does not match
// the configured key. The key is resolved per request so tests can swap
// configuration without rebuilding the router.
func RequireAPIKey(key func() string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("X-API-Key") != key() {
			utils.Error(c, http.StatusUnauthorized, "Invalid or missing API key")
			c.Abort()
			return
		}
		c.Next()
	}
}
