package user

import (
	"context"
	"net/url"
	"strings"

	"github.com/simp-lee/vendorpay/internal/domain"
	"github.com/simp-lee/vendorpay/internal/query"
)

// ErrSelfDelete is returned when an administrator tries to delete their own
// account.
var ErrSelfDelete = domain.NewLabeledError(domain.CodeBadRequest, "Cannot delete user",
	"You cannot delete your own account")

// Schema declares the list options for users.
func Schema() *query.Schema {
	return &query.Schema{
		Resource: "users",
		Filters: map[string]query.FilterField{
			"role":   {Column: "role", Kind: query.KindEnum, Enum: domain.RoleNames},
			"search": {Kind: query.KindSearch, Columns: []string{"name", "email"}},
		},
		Sorts: map[string]string{
			"createdAt": "created_at",
			"name":      "name",
			"email":     "email",
		},
		DefaultSort:     "createdAt",
		DefaultDesc:     true,
		DefaultPageSize: 10,
		MaxPageSize:     100,
	}
}

// Service defines user administration.
type Service interface {
	ListUsers(ctx context.Context, raw url.Values) (*query.Page[domain.User], error)
	GetUser(ctx context.Context, id string) (*domain.User, error)
	ChangeRole(ctx context.Context, id, role string) (*domain.User, error)
	DeleteUser(ctx context.Context, actor *domain.User, id string) error
}

// userService implements Service.
type userService struct {
	repo   Repository
	engine *query.Engine[domain.User]
}

// NewService creates a new Service with the given repository and list engine.
func NewService(repo Repository, engine *query.Engine[domain.User]) Service {
	return &userService{repo: repo, engine: engine}
}

// ListUsers returns a filtered, sorted page of users.
func (s *userService) ListUsers(ctx context.Context, raw url.Values) (*query.Page[domain.User], error) {
	spec, err := s.engine.Build(raw)
	if err != nil {
		return nil, err
	}
	page, err := s.engine.Execute(ctx, spec)
	if err != nil {
		return nil, domain.NewAppError(domain.CodeInternal, "failed to list users", err)
	}
	return page, nil
}

// GetUser retrieves a user by ID.
func (s *userService) GetUser(ctx context.Context, id string) (*domain.User, error) {
	return s.repo.GetByID(ctx, id)
}

// ChangeRole assigns a new role. Requests authenticated as the user pick up
// the role on their next call.
func (s *userService) ChangeRole(ctx context.Context, id, role string) (*domain.User, error) {
	r, ok := domain.ParseRole(role)
	if !ok {
		return nil, domain.NewValidationError([]domain.FieldError{{
			Field:   "role",
			Value:   role,
			Message: "must be one of: " + strings.Join(domain.RoleNames, ", "),
		}})
	}

	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u.Role == r {
		return u, nil
	}
	u.Role = r
	if err := s.repo.Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// DeleteUser removes a user by ID. Credentials already issued to the user
// stop working immediately.
func (s *userService) DeleteUser(ctx context.Context, actor *domain.User, id string) error {
	if actor != nil && actor.ID == id {
		return ErrSelfDelete
	}
	return s.repo.Delete(ctx, id)
}
