package payment

import (
	"github.com/gin-gonic/gin"

	"github.com/simp-lee/vendorpay/internal/middleware"
)

// Module registers the payment routes.
type Module struct {
	handler *Handler
}

// NewModule creates a Module. Panics if h is nil.
func NewModule(h *Handler) *Module {
	if h == nil {
		panic("payment.NewModule: handler must not be nil")
	}
	return &Module{handler: h}
}

// RegisterRoutes mounts the payment API on the authenticated group.
func (m *Module) RegisterRoutes(_, protected *gin.RouterGroup) {
	g := protected.Group("/payments")
	g.GET("", m.handler.List)
	g.POST("", m.handler.Create)
	g.GET("/stats/overview", m.handler.Overview)
	g.GET("/vendor/:vendorId", m.handler.ListByVendor)
	g.GET("/:id", m.handler.Get)
	g.PUT("/:id", m.handler.Update)
	g.DELETE("/:id", middleware.RequireAdmin(), m.handler.Delete)
}
