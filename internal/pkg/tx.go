package pkg

import (
	"context"

	"gorm.io/gorm"

	"github.com/simp-lee/vendorpay/internal/domain"
)

// WithTx executes fn within a database transaction bound to ctx.
// It commits on success, rolls back on error or panic. A failure to begin or
// commit is reported as an internal error; errors returned by fn pass through.
func WithTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	tx := db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return domain.NewAppError(domain.CodeInternal, "failed to begin transaction", tx.Error)
	}

	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit().Error; err != nil {
		return domain.NewAppError(domain.CodeInternal, "failed to commit transaction", err)
	}
	return nil
}
