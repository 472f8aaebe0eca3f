package payment

import (
	"context"

	"gorm.io/gorm"

	"github.com/simp-lee/vendorpay/internal/domain"
	"github.com/simp-lee/vendorpay/internal/pkg"
)

// Repository persists payments.
type Repository interface {
	Create(ctx context.Context, p *domain.Payment) error
	GetByID(ctx context.Context, id string) (*domain.Payment, error)
	Update(ctx context.Context, p *domain.Payment) error
	Delete(ctx context.Context, id string) error
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a Repository backed by db.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) Create(ctx context.Context, p *domain.Payment) error {
	return pkg.MapError(r.db.WithContext(ctx).Omit("Vendor").Create(p).Error, nil)
}

// GetByID loads the payment together with its vendor.
func (r *gormRepository) GetByID(ctx context.Context, id string) (*domain.Payment, error) {
	var p domain.Payment
	if err := r.db.WithContext(ctx).Preload("Vendor").First(&p, "id = ?", id).Error; err != nil {
		return nil, pkg.MapError(err, domain.ErrPaymentNotFound)
	}
	return &p, nil
}

func (r *gormRepository) Update(ctx context.Context, p *domain.Payment) error {
	return pkg.MapError(r.db.WithContext(ctx).Omit("Vendor").Save(p).Error, nil)
}

func (r *gormRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&domain.Payment{}, "id = ?", id)
	if res.Error != nil {
		return pkg.MapError(res.Error, domain.ErrPaymentNotFound)
	}
	if res.RowsAffected == 0 {
		return domain.ErrPaymentNotFound
	}
	return nil
}
