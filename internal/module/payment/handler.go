package payment

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/simp-lee/vendorpay/internal/domain"
	"github.com/simp-lee/vendorpay/internal/pkg"
	"github.com/simp-lee/vendorpay/internal/query"
)

// Handler serves the payment REST API.
type Handler struct {
	svc Service
}

// NewHandler creates a Handler backed by svc.
func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

// vendorPaymentsResponse is the list envelope with the owning vendor attached.
type vendorPaymentsResponse struct {
	Vendor *domain.VendorRef `json:"vendor"`
	pkg.ListResponse
}

func summaryOf(res *query.Result[domain.Payment]) Summary {
	if res.Summary == nil {
		return Summary{TotalPayments: res.Pagination.TotalCount}
	}
	return Summary{TotalPayments: res.Summary.Count, TotalAmount: domain.RoundAmount(res.Summary.Sum)}
}

// List handles GET /api/v1/payments.
func (h *Handler) List(c *gin.Context) {
	res, err := h.svc.List(c.Request.Context(), c.Request.URL.Query())
	if err != nil {
		pkg.Error(c, err)
		return
	}
	pkg.List(c, "Payments retrieved successfully", &res.Page, summaryOf(res))
}

// ListByVendor handles GET /api/v1/payments/vendor/:vendorId.
func (h *Handler) ListByVendor(c *gin.Context) {
	vendorID, err := pkg.PathID(c, "vendorId")
	if err != nil {
		pkg.Error(c, err)
		return
	}

	v, res, err := h.svc.ListByVendor(c.Request.Context(), vendorID, c.Request.URL.Query())
	if err != nil {
		pkg.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, vendorPaymentsResponse{
		Vendor:       v.Ref(),
		ListResponse: pkg.NewListResponse("Vendor payments retrieved successfully", &res.Page, summaryOf(res)),
	})
}

// Create handles POST /api/v1/payments.
func (h *Handler) Create(c *gin.Context) {
	var req CreatePaymentRequest
	if !pkg.BindAndValidate(c, &req) {
		return
	}

	p, err := h.svc.Create(c.Request.Context(), req)
	if err != nil {
		pkg.Error(c, err)
		return
	}
	pkg.Created(c, "Payment created successfully", p)
}

// Get handles GET /api/v1/payments/:id.
func (h *Handler) Get(c *gin.Context) {
	id, err := pkg.PathID(c, "id")
	if err != nil {
		pkg.Error(c, err)
		return
	}

	p, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		pkg.Error(c, err)
		return
	}
	pkg.Success(c, "Payment details retrieved successfully", p)
}

// Update handles PUT /api/v1/payments/:id.
func (h *Handler) Update(c *gin.Context) {
	id, err := pkg.PathID(c, "id")
	if err != nil {
		pkg.Error(c, err)
		return
	}

	var req UpdatePaymentRequest
	if !pkg.BindAndValidate(c, &req) {
		return
	}

	p, err := h.svc.Update(c.Request.Context(), id, req)
	if err != nil {
		pkg.Error(c, err)
		return
	}
	pkg.Success(c, "Payment updated successfully", p)
}

// Delete handles DELETE /api/v1/payments/:id.
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
	pkg.Success(c, "Payment deleted successfully", nil)
}

// Overview handles GET /api/v1/payments/stats/overview.
func (h *Handler) Overview(c *gin.Context) {
	o, err := h.svc.Overview(c.Request.Context())
	if err != nil {
		pkg.Error(c, err)
		return
	}
	pkg.Success(c, "Payment statistics retrieved successfully", o)
}
