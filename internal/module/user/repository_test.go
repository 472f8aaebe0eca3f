package user

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/simp-lee/vendorpay/internal/domain"
)

// setupTestDB creates an in-memory SQLite database with the User table.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := db.AutoMigrate(&domain.User{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func TestCreateAndGet(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	ctx := context.Background()

	user := &domain.User{Name: "Alice", Email: "alice@example.com", Role: domain.RoleStandard}
	if err := repo.Create(ctx, user); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if !domain.IsValidID(user.ID) {
		t.Fatalf("expected generated ID after Create, got %q", user.ID)
	}

	got, err := repo.GetByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Name != "Alice" || got.Role != domain.RoleStandard {
		t.Errorf("got %+v", got)
	}

	got, err = repo.GetByEmail(ctx, "alice@example.com")
	if err != nil || got.ID != user.ID {
		t.Errorf("GetByEmail = %+v, %v", got, err)
	}
}

func TestGet_NotFound(t *testing.T) {
	repo := NewRepository(setupTestDB(t))

	if _, err := repo.GetByID(context.Background(), "0b8f4a9e-2c1d-4c7e-9a51-3f7d2e6b8c10"); err != domain.ErrUserNotFound {
		t.Errorf("GetByID err = %v; want ErrUserNotFound", err)
	}
	if _, err := repo.GetByEmail(context.Background(), "ghost@example.com"); !domain.IsNotFound(err) {
		t.Errorf("GetByEmail err = %v; want not found", err)
	}
}

func TestCreate_DuplicateEmail(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	ctx := context.Background()

	if err := repo.Create(ctx, &domain.User{Name: "A", Email: "dup@example.com", Role: domain.RoleStandard}); err != nil {
		t.Fatalf("first Create: %v", err)
	}
	err := repo.Create(ctx, &domain.User{Name: "B", Email: "dup@example.com", Role: domain.RoleStandard})
	if !domain.IsAlreadyExists(err) {
		t.Errorf("expected already exists, got %v", err)
	}
}

func TestUpdateAndDelete(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	ctx := context.Background()

	user := &domain.User{Name: "Bob", Email: "bob@example.com", Role: domain.RoleStandard}
	if err := repo.Create(ctx, user); err != nil {
		t.Fatalf("Create: %v", err)
	}

	user.Role = domain.RoleAdmin
	if err := repo.Update(ctx, user); err != nil {
		t.Fatalf("Update: %v", err)
	}
	got, _ := repo.GetByID(ctx, user.ID)
	if got.Role != domain.RoleAdmin {
		t.Errorf("role = %s; want ADMIN", got.Role)
	}

	if err := repo.Delete(ctx, user.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := repo.Delete(ctx, user.ID); err != domain.ErrUserNotFound {
		t.Errorf("second Delete err = %v; want ErrUserNotFound", err)
	}
}
