package user

import (
	"context"

	"gorm.io/gorm"

	"github.com/simp-lee/vendorpay/internal/domain"
	"github.com/simp-lee/vendorpay/internal/pkg"
)

// Repository persists users. It also serves as the principal store behind
// request authentication.
type Repository interface {
	domain.PrincipalStore
	Create(ctx context.Context, u *domain.User) error
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Update(ctx context.Context, u *domain.User) error
	Delete(ctx context.Context, id string) error
}

// userRepository implements Repository using GORM.
type userRepository struct {
	db *gorm.DB
}

// NewRepository creates a new Repository backed by the given GORM database.
func NewRepository(db *gorm.DB) Repository {
	return &userRepository{db: db}
}

// Create inserts a new user into the database.
func (r *userRepository) Create(ctx context.Context, u *domain.User) error {
	return pkg.MapError(r.db.WithContext(ctx).Create(u).Error, nil)
}

// GetByID retrieves a user by its primary key.
func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	var u domain.User
	if err := r.db.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		return nil, pkg.MapError(err, domain.ErrUserNotFound)
	}
	return &u, nil
}

// GetByEmail retrieves a user by email address. Emails are stored lowercased.
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	var u domain.User
	if err := r.db.WithContext(ctx).First(&u, "email = ?", email).Error; err != nil {
		return nil, pkg.MapError(err, domain.ErrUserNotFound)
	}
	return &u, nil
}

// Update saves changes to an existing user.
func (r *userRepository) Update(ctx context.Context, u *domain.User) error {
	return pkg.MapError(r.db.WithContext(ctx).Save(u).Error, nil)
}

// Delete removes a user by ID.
func (r *userRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Delete(&domain.User{}, "id = ?", id)
	if result.Error != nil {
		return pkg.MapError(result.Error, domain.ErrUserNotFound)
	}
	if result.RowsAffected == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}
