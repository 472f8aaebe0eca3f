package app

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/simp-lee/vendorpay/internal/domain"
	"github.com/simp-lee/vendorpay/internal/middleware"
)

// stubModule mounts one public and one protected route.
type stubModule struct{}

func (stubModule) RegisterRoutes(public, protected *gin.RouterGroup) {
	public.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	protected.GET("/whoami", func(c *gin.Context) {
		c.String(http.StatusOK, middleware.Principal(c).ID)
	})
}

// stubGate accepts the single header "Bearer good".
type stubGate struct{}

func (stubGate) Authenticate(_ context.Context, header string) (*domain.User, error) {
	if header != "Bearer good" {
		return nil, domain.ErrUnauthorized
	}
	return &domain.User{BaseModel: domain.BaseModel{ID: "u-1"}, Role: domain.RoleStandard}, nil
}

func TestRegisterRoutes_Validation(t *testing.T) {
	tests := []struct {
		name string
		r    *gin.Engine
		deps *RouteDeps
		want string
	}{
		{"nil router", nil, &RouteDeps{}, "router is nil"},
		{"nil deps", gin.New(), nil, "route dependencies are nil"},
		{"no modules", gin.New(), &RouteDeps{Gate: stubGate{}}, "at least one module"},
		{"no gate", gin.New(), &RouteDeps{Modules: []Module{stubModule{}}}, "gate is required"},
		{"nil module", gin.New(), &RouteDeps{Modules: []Module{stubModule{}, nil}, Gate: stubGate{}}, "index 1 is nil"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := RegisterRoutes(tt.r, tt.deps)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("RegisterRoutes() error = %v, want %q", err, tt.want)
			}
		})
	}
}

func TestRegisterRoutes_PublicAndProtectedGroups(t *testing.T) {
	r := gin.New()
	if err := RegisterRoutes(r, &RouteDeps{Modules: []Module{stubModule{}}, Gate: stubGate{}, DB: openTestSQLiteDB(t)}); err != nil {
		t.Fatalf("RegisterRoutes() error = %v", err)
	}

	serve := func(path, header string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	if w := serve("/api/v1/ping", ""); w.Code != http.StatusOK || w.Body.String() != "pong" {
		t.Errorf("public route = %d %q", w.Code, w.Body.String())
	}
	if w := serve("/api/v1/whoami", ""); w.Code != http.StatusUnauthorized {
		t.Errorf("protected route without credential = %d, want 401", w.Code)
	}
	if w := serve("/api/v1/whoami", "Bearer good"); w.Code != http.StatusOK || w.Body.String() != "u-1" {
		t.Errorf("protected route = %d %q", w.Code, w.Body.String())
	}
}

// --- Health check tests ---

func TestHealthHandler_OK(t *testing.T) {
	r := gin.New()
	r.GET("/health", healthHandler(openTestSQLiteDB(t)))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("expected status ok, got %v", body["status"])
	}
	if _, err := time.Parse(time.RFC3339, body["timestamp"].(string)); err != nil {
		t.Errorf("timestamp %v: %v", body["timestamp"], err)
	}
	comps, ok := body["components"].(map[string]any)
	if !ok {
		t.Fatal("missing components")
	}
	if comps["database"] != "ok" {
		t.Errorf("expected database ok, got %v", comps["database"])
	}
}

func TestHealthHandler_DBDown(t *testing.T) {
	db := openTestSQLiteDB(t)
	sqlDB, _ := db.DB()
	sqlDB.Close()

	for name, db := range map[string]*gorm.DB{"closed": db, "missing": nil} {
		t.Run(name, func(t *testing.T) {
			r := gin.New()
			r.GET("/health", healthHandler(db))

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

			if w.Code != http.StatusServiceUnavailable {
				t.Fatalf("expected 503, got %d", w.Code)
			}
			var body map[string]any
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if body["status"] != "degraded" {
				t.Errorf("expected status degraded, got %v", body["status"])
			}
			if comps := body["components"].(map[string]any); comps["database"] != "error" {
				t.Errorf("expected database error, got %v", comps["database"])
			}
		})
	}
}

func TestHealthHandler_UsesRequestContextTimeout(t *testing.T) {
	registerBlockingPingDriver()

	sqlDB, err := sql.Open(blockingPingDriverName, "")
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{DisableAutomaticPing: true})
	if err != nil {
		t.Fatalf("gorm.Open: %v", err)
	}

	r := gin.New()
	r.GET("/health", healthHandler(db))

	reqCtx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	t.Cleanup(cancel)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil).WithContext(reqCtx)

	start := time.Now()
	r.ServeHTTP(w, req)
	elapsed := time.Since(start)

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", w.Code)
	}
	if elapsed > 300*time.Millisecond {
		t.Fatalf("expected health response to honor request context timeout, elapsed=%v", elapsed)
	}
}

// --- NoRoute handler tests ---

func TestNoRouteHandler_JSON(t *testing.T) {
	r := gin.New()
	if err := RegisterRoutes(r, &RouteDeps{Modules: []Module{stubModule{}}, Gate: stubGate{}}); err != nil {
		t.Fatalf("RegisterRoutes() error = %v", err)
	}

	for _, path := range []string{"/api/v1/invoices?page=2", "/nowhere"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))

		if w.Code != http.StatusNotFound {
			t.Fatalf("%s: expected 404, got %d", path, w.Code)
		}
		var body struct {
			Error           string            `json:"error"`
			Message         string            `json:"message"`
			AvailableRoutes map[string]string `json:"availableRoutes"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if body.Error != "Not found" || body.Message != "Route "+path+" not found" {
			t.Errorf("%s: body = %+v", path, body)
		}
		if body.AvailableRoutes["vendors"] != "/api/v1/vendors" || body.AvailableRoutes["health"] != "/health" {
			t.Errorf("%s: availableRoutes = %v", path, body.AvailableRoutes)
		}
	}
}

// --- openTestSQLiteDB helper ---

func openTestSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("gorm.Open: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

const blockingPingDriverName = "vendorpay_blocking_ping"

var registerBlockingPingDriverOnce sync.Once

func registerBlockingPingDriver() {
	registerBlockingPingDriverOnce.Do(func() {
		sql.Register(blockingPingDriverName, blockingPingDriver{})
	})
}

type blockingPingDriver struct{}

func (blockingPingDriver) Open(string) (driver.Conn, error) {
	return blockingPingConn{}, nil
}

type blockingPingConn struct{}

func (blockingPingConn) Prepare(string) (driver.Stmt, error) { return nil, driver.ErrSkip }
func (blockingPingConn) Close() error                        { return nil }
func (blockingPingConn) Begin() (driver.Tx, error)           { return blockingPingTx{}, nil }

func (blockingPingConn) Ping(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}

type blockingPingTx struct{}

func (blockingPingTx) Commit() error   { return nil }
func (blockingPingTx) Rollback() error { return nil }
