package vendors

import (
	"github.com/gin-gonic/gin"

	"github.com/simp-lee/vendorpay/internal/pkg"
)

// Handler serves the vendor REST API.
type Handler struct {
	svc Service
}

// NewHandler creates a Handler backed by svc.
func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

// List handles GET /api/v1/vendors.
func (h *Handler) List(c *gin.Context) {
	res, err := h.svc.List(c.Request.Context(), c.Request.URL.Query())
	if err != nil {
		pkg.Error(c, err)
		return
	}
	pkg.List(c, "Vendors retrieved successfully", &res.Page, nil)
}

// Create handles POST /api/v1/vendors.
func (h *Handler) Create(c *gin.Context) {
	var req CreateVendorRequest
	if !pkg.BindAndValidate(c, &req) {
		return
	}

	v, err := h.svc.Create(c.Request.Context(), req)
	if err != nil {
		pkg.Error(c, err)
		return
	}
	pkg.Created(c, "Vendor created successfully", v)
}

// Get handles GET /api/v1/vendors/:id.
func (h *Handler) Get(c *gin.Context) {
	id, err := pkg.PathID(c, "id")
	if err != nil {
		pkg.Error(c, err)
		return
	}

	detail, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		pkg.Error(c, err)
		return
	}
	pkg.Success(c, "Vendor details retrieved successfully", detail)
}

// Update handles PUT /api/v1/vendors/:id.
func (h *Handler) Update(c *gin.Context) {
	id, err := pkg.PathID(c, "id")
	if err != nil {
		pkg.Error(c, err)
		return
	}

	var req UpdateVendorRequest
	if !pkg.BindAndValidate(c, &req) {
		return
	}

	v, err := h.svc.Update(c.Request.Context(), id, req)
	if err != nil {
		pkg.Error(c, err)
		return
	}
	pkg.Success(c, "Vendor updated successfully", v)
}

// Delete handles DELETE /api/v1/vendors/:id.
func (h *Handler) Delete(c *gin.Context) {
	id, err := pkg.PathID(c, "id")
	if err != nil {
		pkg.Error(c, err)
		return
	}

	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		pkg.Error(c, err)
		return
	}
	pkg.Success(c, "Vendor deleted successfully", nil)
}
