package user

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/simp-lee/vendorpay/internal/domain"
	"github.com/simp-lee/vendorpay/internal/middleware"
	"github.com/simp-lee/vendorpay/internal/pkg"
	"github.com/simp-lee/vendorpay/internal/query"
)

// mockService implements Service for handler testing.
type mockService struct {
	page      *query.Page[domain.User]
	user      *domain.User
	err       error
	gotRole   string
	gotActor  *domain.User
	gotDelete string
}

func (m *mockService) ListUsers(context.Context, url.Values) (*query.Page[domain.User], error) {
	return m.page, m.err
}

func (m *mockService) GetUser(context.Context, string) (*domain.User, error) {
	return m.user, m.err
}

func (m *mockService) ChangeRole(_ context.Context, _, role string) (*domain.User, error) {
	m.gotRole = role
	return m.user, m.err
}

func (m *mockService) DeleteUser(_ context.Context, actor *domain.User, id string) error {
	m.gotActor, m.gotDelete = actor, id
	return m.err
}

func setupAPIRouter(h *UserHandler, principal *domain.User) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	protected := r.Group("/api/v1", func(c *gin.Context) {
		middleware.SetPrincipal(c, principal)
		c.Next()
	})
	NewModule(h).RegisterRoutes(r.Group("/api/v1"), protected)
	return r
}

func serve(r *gin.Engine, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestUserHandler_RequiresAdmin(t *testing.T) {
	_, bob := testUsers()
	svc := &mockService{}
	r := setupAPIRouter(NewUserHandler(svc), bob)

	for _, tc := range []struct{ method, path, body string }{
		{http.MethodGet, "/api/v1/users", ""},
		{http.MethodGet, "/api/v1/users/" + aliceID, ""},
		{http.MethodPut, "/api/v1/users/" + aliceID + "/role", `{"role":"STANDARD"}`},
		{http.MethodDelete, "/api/v1/users/" + aliceID, ""},
	} {
		w := serve(r, tc.method, tc.path, tc.body)
		if w.Code != http.StatusForbidden {
			t.Errorf("%s %s: status = %d; want 403", tc.method, tc.path, w.Code)
		}
	}
	if svc.gotRole != "" || svc.gotDelete != "" {
		t.Error("service reached by a non-admin")
	}
}

func TestUserHandler_List(t *testing.T) {
	alice, bob := testUsers()
	svc := &mockService{page: &query.Page[domain.User]{
		Items:      []domain.User{*alice, *bob},
		Pagination: query.Pagination{CurrentPage: 1, PageSize: 10, TotalPages: 1, TotalCount: 2},
	}}
	r := setupAPIRouter(NewUserHandler(svc), alice)

	w := serve(r, http.MethodGet, "/api/v1/users", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp struct {
		Message string        `json:"message"`
		Data    []domain.User `json:"data"`
		Summary pkg.Summary   `json:"summary"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Message != "Users retrieved successfully" || len(resp.Data) != 2 || resp.Summary.TotalCount != 2 {
		t.Errorf("resp = %+v", resp)
	}
	if strings.Contains(w.Body.String(), "password") {
		t.Errorf("password hash leaked: %s", w.Body.String())
	}
}

func TestUserHandler_Get(t *testing.T) {
	alice, bob := testUsers()
	r := setupAPIRouter(NewUserHandler(&mockService{user: bob}), alice)

	w := serve(r, http.MethodGet, "/api/v1/users/"+bobID, "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"email":"bob@example.com"`) {
		t.Errorf("status %d body %s", w.Code, w.Body.String())
	}

	w = serve(r, http.MethodGet, "/api/v1/users/42", "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("invalid id status = %d; want 400", w.Code)
	}

	r = setupAPIRouter(NewUserHandler(&mockService{err: domain.ErrUserNotFound}), alice)
	w = serve(r, http.MethodGet, "/api/v1/users/"+bobID, "")
	if w.Code != http.StatusNotFound {
		t.Errorf("not found status = %d", w.Code)
	}
}

func TestUserHandler_ChangeRole(t *testing.T) {
	alice, bob := testUsers()
	svc := &mockService{user: bob}
	r := setupAPIRouter(NewUserHandler(svc), alice)

	w := serve(r, http.MethodPut, "/api/v1/users/"+bobID+"/role", `{"role":"admin"}`)
	if w.Code != http.StatusOK || svc.gotRole != "admin" {
		t.Errorf("status %d role %q", w.Code, svc.gotRole)
	}

	w = serve(r, http.MethodPut, "/api/v1/users/"+bobID+"/role", `{}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing role status = %d", w.Code)
	}
}

func TestUserHandler_Delete(t *testing.T) {
	alice, _ := testUsers()
	svc := &mockService{}
	r := setupAPIRouter(NewUserHandler(svc), alice)

	w := serve(r, http.MethodDelete, "/api/v1/users/"+bobID, "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if svc.gotDelete != bobID || svc.gotActor == nil || svc.gotActor.ID != aliceID {
		t.Errorf("delete %q by %+v", svc.gotDelete, svc.gotActor)
	}

	svc.err = ErrSelfDelete
	w = serve(r, http.MethodDelete, "/api/v1/users/"+aliceID, "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("self delete status = %d", w.Code)
	}
}
