package pkg

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/simp-lee/vendorpay/internal/domain"
)

// MapError converts GORM errors to domain errors. notFound is returned for a
// missing record; nil selects domain.ErrNotFound.
func MapError(err error, notFound *domain.AppError) error {
	if err == nil {
		return nil
	}
	var appErr *domain.AppError
	if errors.As(err, &appErr) {
		return err
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		if notFound == nil {
			return domain.ErrNotFound
		}
		return notFound
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) || isDuplicateKeyError(err) {
		return domain.NewAppError(domain.CodeAlreadyExists, domain.ErrAlreadyExists.Message, err)
	}
	if errors.Is(err, gorm.ErrForeignKeyViolated) || isForeignKeyError(err) {
		return domain.NewAppError(domain.CodeConflict, "The record is referenced by other records", err)
	}
	return domain.NewAppError(domain.CodeInternal, "database error", err)
}

// isDuplicateKeyError detects unique constraint violations by examining the
// error message. Not every dialector translates driver errors to
// gorm.ErrDuplicatedKey (e.g. the pure-Go SQLite driver).
func isDuplicateKeyError(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "duplicate entry")
}

func isForeignKeyError(err error) bool {
	return strings.Contains(strings.ToLower(err.Error()), "foreign key constraint")
}

// PathID returns the named path parameter when it is a well-formed record
// identifier, or a validation error naming the parameter.
func PathID(c *gin.Context, name string) (string, error) {
	id := strings.TrimSpace(c.Param(name))
	if !domain.IsValidID(id) {
		return "", domain.NewValidationError([]domain.FieldError{{
			Field:   name,
			Value:   id,
			Message: "must be a valid identifier",
		}})
	}
	return id, nil
}
