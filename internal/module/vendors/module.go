package vendors

import (
	"github.com/gin-gonic/gin"

	"github.com/simp-lee/vendorpay/internal/middleware"
)

// Module registers the vendor routes.
type Module struct {
	handler *Handler
}

// NewModule creates a Module. Panics if h is nil.
func NewModule(h *Handler) *Module {
	if h == nil {
		panic("vendors.NewModule: handler must not be nil")
	}
	return &Module{handler: h}
}

// RegisterRoutes mounts the vendor API on the authenticated group. Deletion
// is restricted to administrators.
func (m *Module) RegisterRoutes(_, protected *gin.RouterGroup) {
	g := protected.Group("/vendors")
	g.GET("", m.handler.List)
	g.POST("", m.handler.Create)
	g.GET("/:id", m.handler.Get)
	g.PUT("/:id", m.handler.Update)
	g.DELETE("/:id", middleware.RequireAdmin(), m.handler.Delete)
}
