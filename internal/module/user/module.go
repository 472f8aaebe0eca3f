package user

import (
	"github.com/gin-gonic/gin"

	"github.com/simp-lee/vendorpay/internal/middleware"
)

// UserModule implements the app.Module interface for user administration.
type UserModule struct {
	handler *UserHandler
}

// NewModule creates a new UserModule with the given handler.
// Panics if h is nil.
func NewModule(h *UserHandler) *UserModule {
	if h == nil {
		panic("user.NewModule: handler must not be nil")
	}
	return &UserModule{handler: h}
}

// RegisterRoutes registers the administrator-only user API.
func (m *UserModule) RegisterRoutes(_, protected *gin.RouterGroup) {
	users := protected.Group("/users", middleware.RequireAdmin())
	users.GET("", m.handler.List)
	users.GET("/:id", m.handler.Get)
	users.PUT("/:id/role", m.handler.ChangeRole)
	users.DELETE("/:id", m.handler.Delete)
}
