package app

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/simp-lee/vendorpay/internal/domain"
	"github.com/simp-lee/vendorpay/internal/pkg"
)

// Migrate creates or updates the schema for every persisted model.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&domain.User{}, &domain.Vendor{}, &domain.Payment{}); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

// SeedReport counts the records inserted by Seed.
type SeedReport struct {
	Users    int
	Vendors  int
	Payments int
}

// Seed credentials for the bootstrap administrator.
const (
	SeedAdminEmail    = "isaacjohn@gmail.com"
	SeedAdminPassword = "admin123"
)

type seedVendor struct {
	vendor   domain.Vendor
	payments []domain.Payment
}

func seedData() []seedVendor {
	day := func(y int, m time.Month, d int) *time.Time {
		t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
		return &t
	}
	str := func(s string) *string { return &s }

	return []seedVendor{
		{
			vendor: domain.Vendor{
				Name:        "Tech Solutions Ltd",
				Email:       "supplier1@example.com",
				Phone:       str("+1-555-0123"),
				Address:     str("123 Tech Street, Silicon Valley, CA 94000"),
				ContactName: str("John Smith"),
				Status:      domain.VendorActive,
			},
			payments: []domain.Payment{{
				Amount:      1500,
				Description: str("Software licensing fees"),
				Status:      domain.PaymentPaid,
				PaymentDate: day(2024, time.December, 15),
				DueDate:     day(2024, time.December, 20),
			}},
		},
		{
			vendor: domain.Vendor{
				Name:        "Office Supplies Co",
				Email:       "supplier2@example.com",
				Phone:       str("+1-555-0456"),
				Address:     str("456 Business Ave, New York, NY 10001"),
				ContactName: str("Jane Doe"),
				Status:      domain.VendorActive,
			},
			payments: []domain.Payment{{
				Amount:      250.75,
				Description: str("Office supplies order #12345"),
				Status:      domain.PaymentPending,
				DueDate:     day(2025, time.January, 15),
			}},
		},
	}
}

// Seed inserts the bootstrap administrator and sample vendors with their
// payments in one transaction. Records that already exist, matched by email,
// are left untouched, so running Seed twice inserts nothing the second time.
func Seed(ctx context.Context, db *gorm.DB, bcryptCost int) (SeedReport, error) {
	var report SeedReport

	err := pkg.WithTx(ctx, db, func(tx *gorm.DB) error {
		var admins int64
		if err := tx.Model(&domain.User{}).Where("email = ?", SeedAdminEmail).Count(&admins).Error; err != nil {
			return fmt.Errorf("lookup admin: %w", err)
		}
		if admins == 0 {
			hash, err := bcrypt.GenerateFromPassword([]byte(SeedAdminPassword), bcryptCost)
			if err != nil {
				return fmt.Errorf("hash admin password: %w", err)
			}
			admin := domain.User{
				Name:         "Admin User",
				Email:        SeedAdminEmail,
				PasswordHash: string(hash),
				Role:         domain.RoleAdmin,
			}
			if err := tx.Create(&admin).Error; err != nil {
				return fmt.Errorf("create admin: %w", err)
			}
			report.Users++
		}

		for _, sv := range seedData() {
			var existing int64
			if err := tx.Model(&domain.Vendor{}).Where("email = ?", sv.vendor.Email).Count(&existing).Error; err != nil {
				return fmt.Errorf("lookup vendor %s: %w", sv.vendor.Email, err)
			}
			if existing > 0 {
				continue
			}

			v := sv.vendor
			if err := tx.Create(&v).Error; err != nil {
				return fmt.Errorf("create vendor %s: %w", v.Email, err)
			}
			report.Vendors++

			for _, p := range sv.payments {
				p.VendorID = v.ID
				if err := tx.Omit("Vendor").Create(&p).Error; err != nil {
					return fmt.Errorf("create payment for %s: %w", v.Email, err)
				}
				report.Payments++
			}
		}
		return nil
	})
	if err != nil {
		return SeedReport{}, err
	}
	return report, nil
}
