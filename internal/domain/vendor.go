package domain

import (
	"slices"
	"strings"
)

// VendorStatus is the lifecycle state of a vendor.
type VendorStatus string

// Vendor statuses.
const (
	VendorActive    VendorStatus = "ACTIVE"
	VendorInactive  VendorStatus = "INACTIVE"
	VendorSuspended VendorStatus = "SUSPENDED"
)

// VendorStatuses lists every valid vendor status.
var VendorStatuses = []string{string(VendorActive), string(VendorInactive), string(VendorSuspended)}

// ErrVendorNotFound is returned when a referenced vendor does not exist.
var ErrVendorNotFound = &AppError{Code: CodeNotFound, Label: "Vendor not found", Message: "The requested vendor does not exist"}

// ParseVendorStatus normalizes s and reports whether it names a known status.
func ParseVendorStatus(s string) (VendorStatus, bool) {
	st := VendorStatus(strings.ToUpper(strings.TrimSpace(s)))
	return st, slices.Contains(VendorStatuses, string(st))
}

// Vendor is a supplier that payments are owed to.
type Vendor struct {
	BaseModel
	Name        string       `gorm:"size:100;not null;index" json:"name"`
	Email       string       `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Phone       *string      `gorm:"size:20" json:"phone"`
	Address     *string      `gorm:"size:500" json:"address"`
	ContactName *string      `gorm:"size:100" json:"contactName"`
	Status      VendorStatus `gorm:"size:20;not null;default:ACTIVE;index" json:"status"`
	Payments    []Payment    `gorm:"constraint:OnDelete:RESTRICT" json:"payments,omitempty"`
}

// VendorRef is the compact vendor representation embedded in payment responses.
type VendorRef struct {
	ID     string       `json:"id"`
	Name   string       `json:"name"`
	Email  string       `json:"email"`
	Status VendorStatus `json:"status"`
}

// Ref returns the compact representation of v.
func (v *Vendor) Ref() *VendorRef {
	if v == nil || v.ID == "" {
		return nil
	}
	return &VendorRef{ID: v.ID, Name: v.Name, Email: v.Email, Status: v.Status}
}
