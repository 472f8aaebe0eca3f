package auth

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/simp-lee/vendorpay/internal/domain"
)

// memPrincipals is an in-memory principal store that counts lookups.
type memPrincipals struct {
	mu      sync.Mutex
	users   map[string]*domain.User
	err     error
	lookups int
}

func newMemPrincipals(users ...*domain.User) *memPrincipals {
	m := &memPrincipals{users: make(map[string]*domain.User)}
	for _, u := range users {
		m.users[u.ID] = u
	}
	return m
}

func (m *memPrincipals) GetByID(_ context.Context, id string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lookups++
	if m.err != nil {
		return nil, m.err
	}
	u, ok := m.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memPrincipals) setRole(id string, role domain.Role) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[id].Role = role
}

func (m *memPrincipals) remove(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.users, id)
}

func testUser(id string, role domain.Role) *domain.User {
	return &domain.User{BaseModel: domain.BaseModel{ID: id}, Name: "Test", Email: id + "@example.com", Role: role}
}

func bearer(t *testing.T, tk *Tokens, u *domain.User) string {
	t.Helper()
	issued, err := tk.Issue(u)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	return "Bearer " + issued.Token
}

func requireReason(t *testing.T, err error, want Reason) *domain.AppError {
	t.Helper()
	if got := ReasonOf(err); got != want {
		t.Fatalf("reason = %v; want %v (err %v)", got, want, err)
	}
	var appErr *domain.AppError
	if !errors.As(err, &appErr) || appErr.Code != domain.CodeUnauthorized {
		t.Fatalf("expected unauthorized AppError, got %v", err)
	}
	if domain.HTTPStatusCode(err) != 401 {
		t.Errorf("status = %d; want 401", domain.HTTPStatusCode(err))
	}
	return appErr
}

func TestNewGate_PanicsOnNil(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	NewGate(nil, newMemPrincipals())
}

func TestAuthenticate_Success(t *testing.T) {
	tk := newTestTokens(t, time.Now())
	alice := testUser("alice", domain.RoleStandard)
	store := newMemPrincipals(alice)
	gate := NewGate(tk, store)

	got, err := gate.Authenticate(context.Background(), bearer(t, tk, alice))
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if got.ID != "alice" || got.Role != domain.RoleStandard {
		t.Errorf("principal = %+v", got)
	}
	if store.lookups != 1 {
		t.Errorf("lookups = %d; want exactly one store read", store.lookups)
	}
}

func TestAuthenticate_MissingCredential(t *testing.T) {
	tk := newTestTokens(t, time.Now())
	store := newMemPrincipals()
	gate := NewGate(tk, store)

	for _, header := range []string{"", "   ", "Bearer", "Bearer    ", "Basic dXNlcjpwYXNz", "Token abc"} {
		_, err := gate.Authenticate(context.Background(), header)
		appErr := requireReason(t, err, ReasonMissingCredential)
		if appErr.Label != LabelMissing {
			t.Errorf("header %q: label = %q; want %q", header, appErr.Label, LabelMissing)
		}
	}
	if store.lookups != 0 {
		t.Errorf("store consulted %d times for missing credentials", store.lookups)
	}
}

func TestAuthenticate_SchemeIsCaseInsensitive(t *testing.T) {
	tk := newTestTokens(t, time.Now())
	alice := testUser("alice", domain.RoleAdmin)
	gate := NewGate(tk, newMemPrincipals(alice))

	issued, _ := tk.Issue(alice)
	if _, err := gate.Authenticate(context.Background(), "bearer "+issued.Token); err != nil {
		t.Errorf("lowercase scheme rejected: %v", err)
	}
}

func TestAuthenticate_Expired(t *testing.T) {
	now := time.Now()
	tk := newTestTokens(t, now)
	alice := testUser("alice", domain.RoleStandard)
	store := newMemPrincipals(alice)
	header := bearer(t, tk, alice)

	tk.now = func() time.Time { return now.Add(2 * time.Hour) }
	_, err := NewGate(tk, store).Authenticate(context.Background(), header)

	appErr := requireReason(t, err, ReasonExpiredCredential)
	if appErr.Label != LabelExpired {
		t.Errorf("label = %q; want %q", appErr.Label, LabelExpired)
	}
	if store.lookups != 0 {
		t.Error("expired credentials must not reach the store")
	}
}

func TestAuthenticate_RoleChangeAppliesImmediately(t *testing.T) {
	tk := newTestTokens(t, time.Now())
	bob := testUser("bob", domain.RoleAdmin)
	store := newMemPrincipals(bob)
	gate := NewGate(tk, store)
	header := bearer(t, tk, bob) // claims ADMIN

	store.setRole("bob", domain.RoleStandard)

	got, err := gate.Authenticate(context.Background(), header)
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if got.Role != domain.RoleStandard {
		t.Errorf("role = %s; want live role STANDARD", got.Role)
	}
	if err := gate.Authorize(got, domain.RoleAdmin); !domain.IsForbidden(err) {
		t.Errorf("Authorize = %v; want forbidden after demotion", err)
	}
}

func TestAuthenticate_DeletedPrincipalLooksLikeForgery(t *testing.T) {
	tk := newTestTokens(t, time.Now())
	carol := testUser("carol", domain.RoleStandard)
	store := newMemPrincipals(carol)
	gate := NewGate(tk, store)
	header := bearer(t, tk, carol)

	store.remove("carol")
	_, deletedErr := gate.Authenticate(context.Background(), header)
	deleted := requireReason(t, deletedErr, ReasonUnknownPrincipal)

	forger, _ := NewTokens("a-completely-different-secret-0123456789", "vendorpay", time.Hour)
	_, forgedErr := gate.Authenticate(context.Background(), bearer(t, forger, carol))
	forged := requireReason(t, forgedErr, ReasonInvalidCredential)

	if deleted.Label != forged.Label || deleted.Message != forged.Message {
		t.Errorf("deleted %q/%q differs from forged %q/%q", deleted.Label, deleted.Message, forged.Label, forged.Message)
	}
	if deleted.Error() != forged.Error() {
		t.Errorf("error text differs: %q vs %q", deleted.Error(), forged.Error())
	}
	if deleted.Label != LabelInvalid {
		t.Errorf("label = %q; want %q", deleted.Label, LabelInvalid)
	}
}

func TestAuthenticate_StoreFailurePropagates(t *testing.T) {
	tk := newTestTokens(t, time.Now())
	dave := testUser("dave", domain.RoleStandard)
	store := newMemPrincipals(dave)
	store.err = domain.NewAppError(domain.CodeInternal, "database error", errors.New("connection refused"))
	gate := NewGate(tk, store)

	_, err := gate.Authenticate(context.Background(), bearer(t, tk, dave))
	if ReasonOf(err) != 0 {
		t.Errorf("store failure reported as auth failure: %v", err)
	}
	if !domain.IsInternal(err) {
		t.Errorf("err = %v; want internal error", err)
	}
}

func TestAuthorize(t *testing.T) {
	admin := testUser("a", domain.RoleAdmin)
	standard := testUser("s", domain.RoleStandard)

	tests := []struct {
		name      string
		principal *domain.User
		accepted  []domain.Role
		wantErr   bool
		wantLabel string
	}{
		{"admin on admin op", admin, []domain.Role{domain.RoleAdmin}, false, ""},
		{"standard on admin op", standard, []domain.Role{domain.RoleAdmin}, true, "Admin access required"},
		{"standard on shared op", standard, []domain.Role{domain.RoleAdmin, domain.RoleStandard}, false, ""},
		{"nil principal", nil, []domain.Role{domain.RoleStandard}, true, "Insufficient permissions"},
		{"no accepted roles", admin, nil, true, "Insufficient permissions"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Authorize(tt.principal, tt.accepted...)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Authorize = %v; wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr {
				return
			}
			var appErr *domain.AppError
			if !errors.As(err, &appErr) || appErr.Label != tt.wantLabel {
				t.Errorf("err = %+v; want label %q", err, tt.wantLabel)
			}
			if domain.HTTPStatusCode(err) != 403 {
				t.Errorf("status = %d; want 403", domain.HTTPStatusCode(err))
			}
		})
	}
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
		ok     bool
	}{
		{"Bearer abc.def.ghi", "abc.def.ghi", true},
		{"  Bearer   abc  ", "abc", true},
		{"BEARER abc", "abc", true},
		{"Bearerabc", "", false},
		{"Basic abc", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := BearerToken(tt.header)
		if got != tt.want || ok != tt.ok {
			t.Errorf("BearerToken(%q) = %q, %v; want %q, %v", tt.header, got, ok, tt.want, tt.ok)
		}
	}
}
