package payment

import "github.com/simp-lee/vendorpay/internal/domain"

// CreatePaymentRequest is the input for recording a payment. Dates accept
// RFC 3339 timestamps or YYYY-MM-DD; status defaults to PENDING.
type CreatePaymentRequest struct {
	Amount      float64 `json:"amount" binding:"required,gte=0.01"`
	Description *string `json:"description" binding:"omitempty,max=500"`
	VendorID    string  `json:"vendorId" binding:"required,uuid"`
	DueDate     *string `json:"dueDate"`
	PaymentDate *string `json:"paymentDate"`
	Status      string  `json:"status"`
}

// UpdatePaymentRequest is a partial update; nil fields are left unchanged.
type UpdatePaymentRequest struct {
	Amount      *float64 `json:"amount" binding:"omitempty,gte=0.01"`
	Description *string  `json:"description" binding:"omitempty,max=500"`
	DueDate     *string  `json:"dueDate"`
	PaymentDate *string  `json:"paymentDate"`
	Status      *string  `json:"status"`
}

// Summary describes the whole filtered set behind a payment list.
type Summary struct {
	TotalPayments int64   `json:"totalPayments"`
	TotalAmount   float64 `json:"totalAmount"`
}

// Bucket is a count and total amount for one slice of payments.
type Bucket struct {
	Count  int64   `json:"count"`
	Amount float64 `json:"amount"`
}

// Overview is the payment statistics dashboard.
type Overview struct {
	Total          Bucket           `json:"total"`
	Paid           Bucket           `json:"paid"`
	Pending        Bucket           `json:"pending"`
	Overdue        Bucket           `json:"overdue"`
	RecentPayments []domain.Payment `json:"recentPayments"`
}
