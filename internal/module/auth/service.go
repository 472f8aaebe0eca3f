package auth

import (
	"context"
	"strings"

	"golang.org/x/crypto/bcrypt"

	authn "github.com/simp-lee/vendorpay/internal/auth"
	"github.com/simp-lee/vendorpay/internal/domain"
)

// Service defines the authentication operations.
type Service interface {
	Login(ctx context.Context, email, password string) (*TokenResponse, error)
	Register(ctx context.Context, req RegisterRequest) (*TokenResponse, error)
}

// Users is the account storage the service needs.
type Users interface {
	Create(ctx context.Context, u *domain.User) error
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

// Issuer mints credentials for authenticated users.
type Issuer interface {
	Issue(u *domain.User) (authn.Issued, error)
}

// authService implements Service.
type authService struct {
	users      Users
	issuer     Issuer
	bcryptCost int
	// dummyHash is compared against when the email is unknown so that both
	// failure paths cost one bcrypt comparison.
	dummyHash []byte
}

// NewService creates a new auth Service. bcryptCost is the work factor for
// new password hashes.
func NewService(users Users, issuer Issuer, bcryptCost int) Service {
	dummy, err := bcrypt.GenerateFromPassword([]byte("vendorpay-dummy-password"), bcryptCost)
	if err != nil {
		panic("auth.NewService: " + err.Error())
	}
	return &authService{users: users, issuer: issuer, bcryptCost: bcryptCost, dummyHash: dummy}
}

// Login authenticates a user by email and password and returns a credential.
func (s *authService) Login(ctx context.Context, email, password string) (*TokenResponse, error) {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		// Unknown emails look exactly like wrong passwords.
		if domain.IsNotFound(err) {
			_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
			return nil, domain.ErrUnauthorized
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, domain.ErrUnauthorized
	}
	return s.issue(user)
}

// Register creates a STANDARD account and signs it in.
func (s *authService) Register(ctx context.Context, req RegisterRequest) (*TokenResponse, error) {
	email := normalizeEmail(req.Email)
	name := strings.TrimSpace(req.Name)
	if name == "" {
		name, _, _ = strings.Cut(email, "@")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return nil, domain.NewAppError(domain.CodeInternal, "failed to hash password", err)
	}

	user := &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Role:         domain.RoleStandard,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if domain.IsAlreadyExists(err) {
			return nil, domain.NewLabeledError(domain.CodeAlreadyExists, "User already exists",
				"An account with this email already exists")
		}
		return nil, err
	}
	return s.issue(user)
}

func (s *authService) issue(user *domain.User) (*TokenResponse, error) {
	issued, err := s.issuer.Issue(user)
	if err != nil {
		return nil, domain.NewAppError(domain.CodeInternal, "failed to generate token", err)
	}
	return &TokenResponse{Token: issued.Token, ExpiresAt: issued.ExpiresAt, User: user}, nil
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
