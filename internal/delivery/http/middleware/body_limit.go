package middleware

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// BodySizeLimit caps job and camera payloads at maxBytes. A declared oversize body is
// refused before the handler runs; a body without a length is cut off while it is read
// and the handler reports it through PayloadTooLarge.
func BodySizeLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			PayloadTooLarge(c, maxBytes)
			return
		}

		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// PayloadTooLarge aborts with 413 naming the limit.
func PayloadTooLarge(c *gin.Context, limit int64) {
	c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{
		"error": "Request body exceeds " + strconv.FormatInt(limit, 10) + " bytes",
		"code":  "payload_too_large",
	})
}
