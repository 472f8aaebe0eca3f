package vendors

import (
	"context"

	"gorm.io/gorm"

	"github.com/simp-lee/vendorpay/internal/domain"
	"github.com/simp-lee/vendorpay/internal/pkg"
)

// Repository persists vendors.
type Repository interface {
	Create(ctx context.Context, v *domain.Vendor) error
	GetByID(ctx context.Context, id string) (*domain.Vendor, error)
	Update(ctx context.Context, v *domain.Vendor) error
	// Delete removes the vendor unless payments reference it, in which case
	// nothing is deleted and the number of referencing payments is returned.
	Delete(ctx context.Context, id string) (int64, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a Repository backed by db.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) Create(ctx context.Context, v *domain.Vendor) error {
	return pkg.MapError(r.db.WithContext(ctx).Create(v).Error, nil)
}

func (r *gormRepository) GetByID(ctx context.Context, id string) (*domain.Vendor, error) {
	var v domain.Vendor
	if err := r.db.WithContext(ctx).First(&v, "id = ?", id).Error; err != nil {
		return nil, pkg.MapError(err, domain.ErrVendorNotFound)
	}
	return &v, nil
}

func (r *gormRepository) Update(ctx context.Context, v *domain.Vendor) error {
	return pkg.MapError(r.db.WithContext(ctx).Omit("Payments").Save(v).Error, nil)
}

func (r *gormRepository) Delete(ctx context.Context, id string) (int64, error) {
	var payments int64
	err := pkg.WithTx(ctx, r.db, func(tx *gorm.DB) error {
		if err := tx.Model(&domain.Payment{}).Where("vendor_id = ?", id).Count(&payments).Error; err != nil {
			return err
		}
		if payments > 0 {
			return nil
		}
		res := tx.Delete(&domain.Vendor{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrVendorNotFound
		}
		return nil
	})
	return payments, pkg.MapError(err, domain.ErrVendorNotFound)
}
