package middlewares

import (
	"github.com/gin-gonic/gin"
)

// The gateway only serves JSON view models and data; nothing it returns may
// load resources or be framed.
const defaultCSP = "default-src 'none'; frame-ancestors 'none'"

// SecurityHeaders stamps every response. Responses carry session state, so
// they are not stored by default; ETagged lists relax this per response.
func SecurityHeaders(prod bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "no-referrer")
		c.Header("X-XSS-Protection", "0")
		c.Header("Content-Security-Policy", defaultCSP)
		c.Header("Cross-Origin-Resource-Policy", "same-site")
		c.Header("Cache-Control", "no-store")
		if prod {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}
		c.Next()
	}
}
