package vendors

import "github.com/simp-lee/vendorpay/internal/domain"

// CreateVendorRequest is the input for creating a vendor. Status defaults to
// ACTIVE and is matched case-insensitively.
type CreateVendorRequest struct {
	Name        string  `json:"name" binding:"required,min=2,max=100"`
	Email       string  `json:"email" binding:"required,email,max=255"`
	Phone       *string `json:"phone" binding:"omitempty,phone"`
	Address     *string `json:"address" binding:"omitempty,max=500"`
	ContactName *string `json:"contactName" binding:"omitempty,min=2,max=100"`
	Status      string  `json:"status"`
}

// UpdateVendorRequest is a partial update; nil fields are left unchanged.
type UpdateVendorRequest struct {
	Name        *string `json:"name" binding:"omitempty,min=2,max=100"`
	Email       *string `json:"email" binding:"omitempty,email,max=255"`
	Phone       *string `json:"phone" binding:"omitempty,phone"`
	Address     *string `json:"address" binding:"omitempty,max=500"`
	ContactName *string `json:"contactName" binding:"omitempty,min=2,max=100"`
	Status      *string `json:"status"`
}

// Statistics summarizes the payments owed to one vendor.
type Statistics struct {
	TotalPayments   int64   `json:"totalPayments"`
	TotalAmount     float64 `json:"totalAmount"`
	PaidPayments    int64   `json:"paidPayments"`
	PaidAmount      float64 `json:"paidAmount"`
	PendingPayments int64   `json:"pendingPayments"`
	PendingAmount   float64 `json:"pendingAmount"`
}

// Detail is a vendor with its latest payments and payment statistics.
type Detail struct {
	*domain.Vendor
	Statistics Statistics `json:"statistics"`
}
