package auth

import (
	"strings"

	fbauth "firebase.google.com/go/v4/auth"
	"github.com/gin-gonic/gin"

	httpapi "github.com/pgm-labs/pgm-backend/internal/api/http"
	"github.com/pgm-labs/pgm-backend/internal/apierr"
)

// RequireUser validates the Bearer Firebase ID token and stores the user's
// UID in the request context. The lifecycle service trusts the identity it
// is handed here; all ownership scoping happens via this UID.
func RequireUser(client *fbauth.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractBearerToken(c)
		if token == "" {
			httpapi.RespondError(c, apierr.Unauthorized("UNAUTHORIZED", "Missing or invalid Authorization header"))
			return
		}

		decoded, err := client.VerifyIDToken(c.Request.Context(), token)
		if err != nil {
			if fbauth.IsIDTokenExpired(err) {
				httpapi.RespondError(c, apierr.Unauthorized("TOKEN_EXPIRED", "Token expired. Please sign in again."))
				return
			}
			httpapi.RespondError(c, apierr.Unauthorized("INVALID_TOKEN", "Invalid authentication token"))
			return
		}

		c.Set(CtxUserUID, decoded.UID)
		c.Next()
	}
}

func extractBearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}
