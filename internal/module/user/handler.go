package user

import (
	"github.com/gin-gonic/gin"

	"github.com/simp-lee/vendorpay/internal/middleware"
	"github.com/simp-lee/vendorpay/internal/pkg"
)

// UserHandler handles REST API requests for user administration.
type UserHandler struct {
	svc Service
}

// NewUserHandler creates a new UserHandler with the given service.
func NewUserHandler(svc Service) *UserHandler {
	return &UserHandler{svc: svc}
}

// List handles GET /api/v1/users.
func (h *UserHandler) List(c *gin.Context) {
	page, err := h.svc.ListUsers(c.Request.Context(), c.Request.URL.Query())
	if err != nil {
		pkg.Error(c, err)
		return
	}

	pkg.List(c, "Users retrieved successfully", page, nil)
}

// Get handles GET /api/v1/users/:id.
func (h *UserHandler) Get(c *gin.Context) {
	id, err := pkg.PathID(c, "id")
	if err != nil {
		pkg.Error(c, err)
		return
	}

	user, err := h.svc.GetUser(c.Request.Context(), id)
	if err != nil {
		pkg.Error(c, err)
		return
	}

	pkg.Success(c, "User retrieved successfully", user)
}

// ChangeRole handles PUT /api/v1/users/:id/role.
func (h *UserHandler) ChangeRole(c *gin.Context) {
	id, err := pkg.PathID(c, "id")
	if err != nil {
		pkg.Error(c, err)
		return
	}

	var req ChangeRoleRequest
	if !pkg.BindAndValidate(c, &req) {
		return
	}

	user, err := h.svc.ChangeRole(c.Request.Context(), id, req.Role)
	if err != nil {
		pkg.Error(c, err)
		return
	}

	pkg.Success(c, "User role updated successfully", user)
}

// Delete handles DELETE /api/v1/users/:id.
func (h *UserHandler) Delete(c *gin.Context) {
	id, err := pkg.PathID(c, "id")
	if err != nil {
		pkg.Error(c, err)
		return
	}

	if err := h.svc.DeleteUser(c.Request.Context(), middleware.Principal(c), id); err != nil {
		pkg.Error(c, err)
		return
	}

	pkg.Success(c, "User deleted successfully", nil)
}
