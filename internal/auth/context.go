package auth

import (
	"strings"

	"github.com/gin-gonic/gin"
)

const CtxUserUID = "user_uid"

// UserUID extracts the authenticated user's Firebase UID from the Gin
// context. Set by RequireUser; empty if the request is unauthenticated.
func UserUID(c *gin.Context) string {
	return strings.TrimSpace(c.GetString(CtxUserUID))
}
