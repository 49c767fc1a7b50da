package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// MsgBodyTooLarge is returned for bodies over the configured limit
const MsgBodyTooLarge = "Request body exceeds maximum allowed size."

// BodyLimit returns a middleware that limits request body size
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			abort(c, http.StatusRequestEntityTooLarge, MsgBodyTooLarge)
			return
		}

		// Chunked bodies carry no length; cap the reader instead
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
