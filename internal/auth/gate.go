package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/simp-lee/vendorpay/internal/domain"
)

// Reason identifies why authentication failed.
type Reason int

// Authentication failure reasons.
const (
	ReasonMissingCredential Reason = iota + 1
	ReasonInvalidCredential
	ReasonExpiredCredential
	ReasonUnknownPrincipal
)

func (r Reason) String() string {
	switch r {
	case ReasonMissingCredential:
		return "missing credential"
	case ReasonInvalidCredential:
		return "invalid credential"
	case ReasonExpiredCredential:
		return "expired credential"
	case ReasonUnknownPrincipal:
		return "unknown principal"
	default:
		return "unknown reason"
	}
}

// ReasonError carries the failure reason inside the rendered AppError. Its
// message for an unknown principal is the same as for an invalid credential.
type ReasonError struct {
	Reason Reason
}

func (e *ReasonError) Error() string {
	if e.Reason == ReasonUnknownPrincipal {
		return ReasonInvalidCredential.String()
	}
	return e.Reason.String()
}

// ReasonOf extracts the authentication failure reason from err, or 0 when err
// is not an authentication failure.
func ReasonOf(err error) Reason {
	var re *ReasonError
	if errors.As(err, &re) {
		return re.Reason
	}
	return 0
}

// Response labels for authentication failures. Invalid credentials and
// unknown principals share one body.
const (
	LabelMissing = "Access token required"
	LabelExpired = "Token expired"
	LabelInvalid = "Invalid token"
)

func failure(r Reason) *domain.AppError {
	var label, msg string
	switch r {
	case ReasonMissingCredential:
		label, msg = LabelMissing, "Please provide a valid Bearer token in the Authorization header"
	case ReasonExpiredCredential:
		label, msg = LabelExpired, "Please login again"
	default:
		label, msg = LabelInvalid, "Token verification failed"
	}
	return &domain.AppError{
		Code:    domain.CodeUnauthorized,
		Label:   label,
		Message: msg,
		Err:     &ReasonError{Reason: r},
	}
}

// Verifier checks a raw credential and returns its claims.
type Verifier interface {
	Verify(token string) (*Claims, error)
}

// Gate authenticates bearer credentials against live principal state.
type Gate struct {
	verifier   Verifier
	principals domain.PrincipalStore
}

// NewGate creates a Gate. Panics if either collaborator is nil.
func NewGate(verifier Verifier, principals domain.PrincipalStore) *Gate {
	if verifier == nil {
		panic("auth.NewGate: verifier must not be nil")
	}
	if principals == nil {
		panic("auth.NewGate: principal store must not be nil")
	}
	return &Gate{verifier: verifier, principals: principals}
}

// BearerToken extracts the token from an Authorization header value. The
// scheme is matched case-insensitively.
func BearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// Authenticate resolves the Authorization header value to the principal it
// names. The returned user is read from the store on every call, so role
// changes and deletions apply to credentials issued earlier. Store failures
// other than not-found are returned unchanged.
func (g *Gate) Authenticate(ctx context.Context, header string) (*domain.User, error) {
	token, ok := BearerToken(header)
	if !ok {
		return nil, failure(ReasonMissingCredential)
	}

	claims, err := g.verifier.Verify(token)
	if err != nil {
		if errors.Is(err, errTokenExpired) {
			return nil, failure(ReasonExpiredCredential)
		}
		return nil, failure(ReasonInvalidCredential)
	}

	user, err := g.principals.GetByID(ctx, claims.Subject)
	if err != nil {
		if domain.IsNotFound(err) {
			return nil, failure(ReasonUnknownPrincipal)
		}
		return nil, err
	}
	return user, nil
}

// Authorize reports whether principal holds one of the accepted roles. It
// performs no I/O.
func (g *Gate) Authorize(principal *domain.User, accepted ...domain.Role) error {
	return Authorize(principal, accepted...)
}

// Authorize returns nil when principal's role is in accepted and
// domain.ErrForbidden otherwise.
func Authorize(principal *domain.User, accepted ...domain.Role) error {
	if principal != nil && principal.Role.In(accepted...) {
		return nil
	}
	if len(accepted) == 1 && accepted[0] == domain.RoleAdmin {
		return domain.ErrForbidden
	}
	return domain.NewLabeledError(domain.CodeForbidden, "Insufficient permissions",
		"Your role does not permit this operation")
}
