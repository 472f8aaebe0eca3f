package domain

import (
	"encoding/json"
	"math"
	"slices"
	"strings"
	"time"
)

// PaymentStatus is the settlement state of a payment.
type PaymentStatus string

// Payment statuses.
const (
	PaymentPending   PaymentStatus = "PENDING"
	PaymentPaid      PaymentStatus = "PAID"
	PaymentOverdue   PaymentStatus = "OVERDUE"
	PaymentCancelled PaymentStatus = "CANCELLED"
)

// PaymentStatuses lists every valid payment status.
var PaymentStatuses = []string{string(PaymentPending), string(PaymentPaid), string(PaymentOverdue), string(PaymentCancelled)}

// ErrPaymentNotFound is returned when a referenced payment does not exist.
var ErrPaymentNotFound = &AppError{Code: CodeNotFound, Label: "Payment not found", Message: "The requested payment does not exist"}

// ParsePaymentStatus normalizes s and reports whether it names a known status.
func ParsePaymentStatus(s string) (PaymentStatus, bool) {
	st := PaymentStatus(strings.ToUpper(strings.TrimSpace(s)))
	return st, slices.Contains(PaymentStatuses, string(st))
}

// RoundAmount rounds v to whole cents.
func RoundAmount(v float64) float64 {
	return math.Round(v*100) / 100
}

// Payment is an amount owed to a vendor.
type Payment struct {
	BaseModel
	Amount      float64       `gorm:"type:decimal(12,2);not null" json:"amount"`
	Description *string       `gorm:"size:500" json:"description"`
	VendorID    string        `gorm:"size:36;not null;index" json:"vendorId"`
	Vendor      *Vendor       `json:"-"`
	DueDate     *time.Time    `gorm:"index" json:"dueDate"`
	PaymentDate *time.Time    `json:"paymentDate"`
	Status      PaymentStatus `gorm:"size:20;not null;default:PENDING;index" json:"status"`
}

// MarshalJSON renders the associated vendor in its compact form.
func (p Payment) MarshalJSON() ([]byte, error) {
	type plain Payment
	return json.Marshal(struct {
		plain
		Vendor *VendorRef `json:"vendor,omitempty"`
	}{
		plain:  plain(p),
		Vendor: p.Vendor.Ref(),
	})
}
