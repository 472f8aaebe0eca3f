package middleware

import (
	"log/slog"
	"regexp"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/simp-lee/logger"

	"github.com/simp-lee/vendorpay/internal/pkg"
)

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Request-ID"

// upstreamIDPattern bounds ids accepted from a trusted proxy so they are safe
// to echo into headers, logs and error bodies.
var upstreamIDPattern = regexp.MustCompile(`^[A-Za-z0-9-]{1,64}$`)

// RequestIDConfig controls request-id reuse behavior.
type RequestIDConfig struct {
	// TrustUpstream reuses a well-formed incoming X-Request-ID, for
	// deployments behind a proxy that already assigns one.
	TrustUpstream bool
}

// RequestID tags every request with a fresh UUID.
func RequestID() gin.HandlerFunc {
	return RequestIDWithConfig(RequestIDConfig{})
}

// RequestIDWithConfig tags every request with an id. The id is echoed in the
// response header, attached to the request's log attributes and quoted in
// internal error bodies (see pkg.Error).
func RequestIDWithConfig(cfg RequestIDConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		var id string
		if upstream := c.GetHeader(RequestIDHeader); cfg.TrustUpstream && upstreamIDPattern.MatchString(upstream) {
			id = upstream
		} else {
			id = uuid.NewString()
		}

		pkg.SetRequestID(c, id)
		c.Header(RequestIDHeader, id)
		c.Request = c.Request.WithContext(
			logger.WithContextAttrs(c.Request.Context(), slog.String("request_id", id)),
		)

		c.Next()
	}
}
