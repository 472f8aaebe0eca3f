package user

import (
	"context"
	"net/url"
	"sync"
	"testing"

	"github.com/simp-lee/vendorpay/internal/domain"
	"github.com/simp-lee/vendorpay/internal/query"
)

// mockUserRepo is an in-memory Repository.
type mockUserRepo struct {
	mu      sync.Mutex
	users   map[string]*domain.User
	updates int
}

func newMockRepo(users ...*domain.User) *mockUserRepo {
	m := &mockUserRepo{users: make(map[string]*domain.User)}
	for _, u := range users {
		m.users[u.ID] = u
	}
	return m
}

func (m *mockUserRepo) Create(_ context.Context, u *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.ID] = u
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (m *mockUserRepo) Update(_ context.Context, u *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updates++
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *mockUserRepo) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return domain.ErrUserNotFound
	}
	delete(m.users, id)
	return nil
}

const (
	aliceID = "0b8f4a9e-2c1d-4c7e-9a51-3f7d2e6b8c10"
	bobID   = "5d6e7f80-1a2b-4c3d-8e9f-0a1b2c3d4e5f"
)

func testUsers() (*domain.User, *domain.User) {
	alice := &domain.User{BaseModel: domain.BaseModel{ID: aliceID}, Name: "Alice", Email: "alice@example.com", Role: domain.RoleAdmin}
	bob := &domain.User{BaseModel: domain.BaseModel{ID: bobID}, Name: "Bob", Email: "bob@example.com", Role: domain.RoleStandard}
	return alice, bob
}

func TestChangeRole(t *testing.T) {
	alice, bob := testUsers()
	repo := newMockRepo(alice, bob)
	svc := NewService(repo, nil)
	ctx := context.Background()

	got, err := svc.ChangeRole(ctx, bobID, "admin")
	if err != nil {
		t.Fatalf("ChangeRole: %v", err)
	}
	if got.Role != domain.RoleAdmin {
		t.Errorf("role = %s; want ADMIN", got.Role)
	}
	if stored, _ := repo.GetByID(ctx, bobID); stored.Role != domain.RoleAdmin {
		t.Errorf("stored role = %s", stored.Role)
	}

	if _, err := svc.ChangeRole(ctx, bobID, "ADMIN"); err != nil || repo.updates != 1 {
		t.Errorf("unchanged role should not write: err %v, updates %d", err, repo.updates)
	}

	if _, err := svc.ChangeRole(ctx, bobID, "superuser"); !domain.IsValidation(err) {
		t.Errorf("err = %v; want validation", err)
	}
	if _, err := svc.ChangeRole(ctx, "5d6e7f80-0000-4c3d-8e9f-0a1b2c3d4e5f", "STANDARD"); err != domain.ErrUserNotFound {
		t.Errorf("err = %v; want ErrUserNotFound", err)
	}
}

func TestDeleteUser(t *testing.T) {
	alice, bob := testUsers()
	repo := newMockRepo(alice, bob)
	svc := NewService(repo, nil)
	ctx := context.Background()

	if err := svc.DeleteUser(ctx, alice, aliceID); err != ErrSelfDelete {
		t.Errorf("self delete err = %v; want ErrSelfDelete", err)
	}
	if err := svc.DeleteUser(ctx, alice, bobID); err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}
	if _, err := repo.GetByID(ctx, bobID); !domain.IsNotFound(err) {
		t.Errorf("bob still present: %v", err)
	}
	if err := svc.DeleteUser(ctx, alice, bobID); !domain.IsNotFound(err) {
		t.Errorf("err = %v; want not found", err)
	}
}

func TestListUsers(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	for _, u := range []*domain.User{
		{Name: "Admin User", Email: "isaacjohn@gmail.com", Role: domain.RoleAdmin},
		{Name: "Alice", Email: "alice@example.com", Role: domain.RoleStandard},
		{Name: "Bob", Email: "bob@example.com", Role: domain.RoleStandard},
	} {
		if err := repo.Create(ctx, u); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}
	svc := NewService(repo, query.NewEngine[domain.User](query.NewGormStore[domain.User](db), Schema()))

	page, err := svc.ListUsers(ctx, url.Values{"role": {"standard"}, "sortBy": {"name"}, "sortOrder": {"asc"}})
	if err != nil {
		t.Fatalf("ListUsers: %v", err)
	}
	if len(page.Items) != 2 || page.Items[0].Name != "Alice" || page.Pagination.TotalCount != 2 {
		t.Errorf("page = %+v", page)
	}

	page, err = svc.ListUsers(ctx, url.Values{"search": {"GMAIL"}})
	if err != nil || len(page.Items) != 1 || page.Items[0].Role != domain.RoleAdmin {
		t.Errorf("search = %+v, %v", page, err)
	}

	if _, err := svc.ListUsers(ctx, url.Values{"sortBy": {"password_hash"}}); !domain.IsValidation(err) {
		t.Errorf("err = %v; want validation", err)
	}
}
