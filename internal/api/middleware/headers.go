package middleware

import "github.com/gin-gonic/gin"

// NoStore marks the response uncacheable. Each hit on a minting route must
// reach the server, or a shared cache would hand two visitors the same
// tierlist.
func NoStore() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Cache-Control", "no-store")
		c.Next()
	}
}
