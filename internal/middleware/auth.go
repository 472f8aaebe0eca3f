package middleware

import (
	"context"
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/simp-lee/logger"

	"github.com/simp-lee/vendorpay/internal/auth"
	"github.com/simp-lee/vendorpay/internal/domain"
	"github.com/simp-lee/vendorpay/internal/pkg"
)

const principalContextKey = "principal"

// Authenticator resolves an Authorization header value to a live principal.
type Authenticator interface {
	Authenticate(ctx context.Context, header string) (*domain.User, error)
}

// Authenticate returns a gin middleware that requires a valid bearer
// credential. The resolved principal is stored in the gin context and its id
// is attached to the request's log attributes. Failures abort the chain with
// the rendered error.
func Authenticate(gate Authenticator) gin.HandlerFunc {
	if gate == nil {
		panic("middleware.Authenticate: gate must not be nil")
	}

	return func(c *gin.Context) {
		user, err := gate.Authenticate(c.Request.Context(), c.GetHeader("Authorization"))
		if err != nil {
			if r := auth.ReasonOf(err); r != 0 {
				slog.DebugContext(c.Request.Context(), "authentication failed",
					slog.String("reason", r.String()),
					slog.String("path", c.Request.URL.Path),
				)
			}
			pkg.Abort(c, err)
			return
		}

		SetPrincipal(c, user)
		ctx := logger.WithContextAttrs(c.Request.Context(), slog.String("user_id", user.ID))
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// RequireRole returns a gin middleware that allows the request only when the
// authenticated principal holds one of the accepted roles. It must run after
// Authenticate.
func RequireRole(accepted ...domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := auth.Authorize(Principal(c), accepted...); err != nil {
			pkg.Abort(c, err)
			return
		}
		c.Next()
	}
}

// RequireAdmin is RequireRole(domain.RoleAdmin).
func RequireAdmin() gin.HandlerFunc {
	return RequireRole(domain.RoleAdmin)
}

// SetPrincipal records u as the authenticated principal of the request.
func SetPrincipal(c *gin.Context, u *domain.User) {
	c.Set(principalContextKey, u)
}

// Principal returns the authenticated principal, or nil when the request has
// not passed Authenticate.
func Principal(c *gin.Context) *domain.User {
	if v, ok := c.Get(principalContextKey); ok {
		if u, ok := v.(*domain.User); ok {
			return u
		}
	}
	return nil
}
