// Package auth verifies bearer credentials, resolves them to live principals
// and authorizes role-gated operations.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/simp-lee/jwt"

	"github.com/simp-lee/vendorpay/internal/domain"
)

var (
	errTokenInvalid = errors.New("credential is malformed or its signature does not verify")
	errTokenExpired = errors.New("credential has expired")
)

// Claims is the verified payload of a credential. Role records the role at
// issuance and is informational only.
type Claims struct {
	Subject   string
	Role      domain.Role
	TokenID   string
	Issuer    string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Issued is a freshly signed credential.
type Issued struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// clockFunc adapts a time source to jwt.Clock.
type clockFunc func() time.Time

func (f clockFunc) Now() time.Time { return f() }

// Tokens signs and verifies HS256 credentials through a jwt.Service.
type Tokens struct {
	svc jwt.Service
	ttl time.Duration
	now func() time.Time
}

// NewTokens creates a signer/verifier. ttl must be positive and the secret
// at least jwt.MinSecretLength characters. Call Close to stop the service's
// background cleanup.
func NewTokens(secret, issuer string, ttl time.Duration) (*Tokens, error) {
	if ttl <= 0 {
		return nil, fmt.Errorf("auth: token lifetime must be positive, got %s", ttl)
	}

	t := &Tokens{ttl: ttl, now: time.Now}
	svc, err := jwt.New(secret,
		jwt.WithIssuer(issuer),
		jwt.WithMaxTokenLifetime(ttl),
		jwt.WithUserRevocationTTL(max(ttl, jwt.DefaultUserRevocationTTL)),
		jwt.WithClock(clockFunc(func() time.Time { return t.now() })),
	)
	if err != nil {
		return nil, fmt.Errorf("auth: %w", err)
	}
	t.svc = svc
	return t, nil
}

// Issue signs a credential for user valid for the configured lifetime.
func (t *Tokens) Issue(user *domain.User) (Issued, error) {
	if user == nil || user.ID == "" {
		return Issued{}, errors.New("auth: cannot issue a credential without a principal id")
	}

	signed, err := t.svc.GenerateToken(user.ID, []string{string(user.Role)}, t.ttl)
	if err != nil {
		return Issued{}, fmt.Errorf("auth: sign credential: %w", err)
	}
	parsed, err := t.svc.ParseToken(signed)
	if err != nil {
		return Issued{}, fmt.Errorf("auth: parse issued credential: %w", err)
	}
	return Issued{Token: signed, ExpiresAt: parsed.ExpiresAt}, nil
}

// Verify checks the signature, structure, issuer and expiry of token. The
// signature is checked before expiry, so a forged expired token is reported
// as invalid rather than expired.
func (t *Tokens) Verify(token string) (*Claims, error) {
	tok, err := t.svc.ValidateToken(token)
	switch {
	case errors.Is(err, jwt.ErrExpiredToken):
		return nil, errTokenExpired
	case err != nil:
		return nil, fmt.Errorf("%w: %w", errTokenInvalid, err)
	case tok.UserID == "" || tok.Subject != tok.UserID:
		return nil, errTokenInvalid
	}

	claims := &Claims{
		Subject:   tok.UserID,
		TokenID:   tok.TokenID,
		Issuer:    tok.Issuer,
		IssuedAt:  tok.IssuedAt,
		ExpiresAt: tok.ExpiresAt,
	}
	if len(tok.Roles) > 0 {
		claims.Role = domain.Role(tok.Roles[0])
	}
	return claims, nil
}

// Close stops the underlying service. Tokens must not be used afterwards.
func (t *Tokens) Close() {
	t.svc.Close()
}
