package auth

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// DevUser assigns an owner identity from the X-User-Id header without
// verifying anything, falling back to "demo-user". It is wired only when no
// Firebase Auth client is configured (memory store, local development).
func DevUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := strings.TrimSpace(c.GetHeader("X-User-Id"))
		if uid == "" {
			uid = "demo-user"
		}
		c.Set(CtxUserUID, uid)
		c.Next()
	}
}
