package middleware

import (
	"github.com/gin-gonic/gin"
)

// SessionCookies returns middleware that captures the caller's raw Cookie
// header into the request context. Upstream client adapters configured with
// ForwardCookies read it back when making credentialed calls, so the user
// service sees the same session the browser holds.
//
// The gateway never parses or validates the cookies itself; session
// resolution is the user service's job.
func SessionCookies() gin.HandlerFunc {
	return func(c *gin.Context) {
		if cookies := c.GetHeader("Cookie"); cookies != "" {
			ctx := ContextWithCookies(c.Request.Context(), cookies)
			c.Request = c.Request.WithContext(ctx)
		}

		c.Next()
	}
}
