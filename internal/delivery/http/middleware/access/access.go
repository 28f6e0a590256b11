package http_access_middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// BrowserAccessMiddleware opens the API to the browser client. The game
// runs on shared links, so any origin may call in.
func BrowserAccessMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, X-user-token")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
