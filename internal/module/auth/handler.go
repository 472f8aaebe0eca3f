package auth

import (
	"github.com/gin-gonic/gin"

	"github.com/simp-lee/vendorpay/internal/middleware"
	"github.com/simp-lee/vendorpay/internal/pkg"
)

// AuthHandler handles REST API requests for authentication.
type AuthHandler struct {
	svc Service
}

// NewHandler creates a new AuthHandler with the given service.
func NewHandler(svc Service) *AuthHandler {
	return &AuthHandler{svc: svc}
}

// Login handles POST /api/v1/auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if !pkg.BindAndValidate(c, &req) {
		return
	}

	resp, err := h.svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		pkg.Error(c, err)
		return
	}

	pkg.Success(c, "Login successful", resp)
}

// Register handles POST /api/v1/auth/register.
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if !pkg.BindAndValidate(c, &req) {
		return
	}

	resp, err := h.svc.Register(c.Request.Context(), req)
	if err != nil {
		pkg.Error(c, err)
		return
	}

	pkg.Created(c, "User registered successfully", resp)
}

// Me handles GET /api/v1/auth/me. It reports the principal as resolved for
// this request, so role changes show up immediately.
func (h *AuthHandler) Me(c *gin.Context) {
	pkg.Success(c, "User profile retrieved successfully", middleware.Principal(c))
}
