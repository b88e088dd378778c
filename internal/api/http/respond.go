package http

import (
	"log"

	"github.com/gin-gonic/gin"

	"github.com/pgm-labs/pgm-backend/internal/apierr"
)

// RespondError writes the error envelope for a typed error. Internal errors
// keep their detail in the server log only; the caller sees a generic
// message.
func RespondError(c *gin.Context, err error) {
	ae := apierr.From(err)

	message := ae.Message
	if !ae.Expose() {
		log.Printf("[error] method=%s path=%s code=%s error=%v",
			c.Request.Method, c.Request.URL.Path, ae.Code, err)
		message = "Internal server error"
	}

	body := gin.H{
		"message": message,
		"code":    ae.Code,
	}
	if len(ae.Details) > 0 && ae.Expose() {
		body["details"] = ae.Details
	}

	c.AbortWithStatusJSON(ae.HTTPStatus(), gin.H{"error": body})
}
