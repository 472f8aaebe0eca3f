package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/simp-lee/logger"
	"gorm.io/gorm"

	"github.com/simp-lee/vendorpay/internal/auth"
	"github.com/simp-lee/vendorpay/internal/config"
	"github.com/simp-lee/vendorpay/internal/domain"
	"github.com/simp-lee/vendorpay/internal/middleware"
	authmod "github.com/simp-lee/vendorpay/internal/module/auth"
	"github.com/simp-lee/vendorpay/internal/module/payment"
	"github.com/simp-lee/vendorpay/internal/module/user"
	"github.com/simp-lee/vendorpay/internal/module/vendors"
	"github.com/simp-lee/vendorpay/internal/pkg"
	"github.com/simp-lee/vendorpay/internal/query"
)

// App holds the core application dependencies and the HTTP server.
type App struct {
	engine *gin.Engine
	db     *gorm.DB
	logger *logger.Logger
	cfg    *config.Config
	// stop releases background workers started for the engine.
	stop context.CancelFunc
}

type httpServer interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

var newHTTPServer = func(addr string, handler http.Handler, timeout time.Duration) httpServer {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       timeout,
		WriteTimeout:      timeout,
		IdleTimeout:       120 * time.Second,
	}
}

var notifyContext = func(parent context.Context, signals ...os.Signal) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, signals...)
}

// New creates and wires a fully configured App from the given Config.
//
// It sets up logging, the database, the credential gate, every module and
// the middleware chain.
func New(cfg *config.Config) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if err := validateGinMode(cfg.Server.Mode); err != nil {
		return nil, err
	}

	success := false

	log, err := config.SetupLogger(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("setup logger: %w", err)
	}

	if cfg.Server.Mode == gin.DebugMode && cfg.Server.Host == "0.0.0.0" {
		log.Warn("insecure server config: debug mode on 0.0.0.0 may expose internal error detail and permissive CORS")
	}
	defer func() {
		if success {
			return
		}
		if err := log.Close(); err != nil {
			slog.Error("logger close error", slog.Any("error", err))
		}
	}()

	db, err := config.SetupDatabase(&cfg.Database, log.Logger)
	if err != nil {
		return nil, fmt.Errorf("setup database: %w", err)
	}
	defer func() {
		if success {
			return
		}
		closeDatabase(db, nil)
	}()

	// Release deployments migrate explicitly through the CLI.
	if cfg.Server.Mode == gin.DebugMode {
		if err := Migrate(db); err != nil {
			return nil, err
		}
		log.Info("auto migration completed")
	}

	ctx, stop := context.WithCancel(context.Background())
	defer func() {
		if !success {
			stop()
		}
	}()

	gin.SetMode(cfg.Server.Mode)
	engine, err := NewEngine(ctx, cfg, db, log.Logger)
	if err != nil {
		return nil, err
	}

	success = true
	return &App{
		engine: engine,
		db:     db,
		logger: log,
		cfg:    cfg,
		stop:   stop,
	}, nil
}

// NewEngine builds the gin engine over db: middleware, modules and routes.
// Background workers it starts run until ctx is done.
func NewEngine(ctx context.Context, cfg *config.Config, db *gorm.DB, log *slog.Logger) (*gin.Engine, error) {
	if cfg == nil || db == nil || log == nil {
		return nil, errors.New("config, database and logger are required")
	}
	if err := pkg.RegisterValidators(); err != nil {
		return nil, fmt.Errorf("register validators: %w", err)
	}

	modules, gate, err := buildModules(ctx, cfg, db)
	if err != nil {
		return nil, err
	}

	corsConfig, err := resolveCORSConfig(cfg.Server.Mode, cfg.Server.CORS)
	if err != nil {
		return nil, err
	}

	engine := gin.New()
	engine.Use(
		middleware.Recovery(log),
		middleware.RequestIDWithConfig(middleware.RequestIDConfig{
			TrustUpstream: false,
		}),
		middleware.Logger(log),
		middleware.CORSWithConfig(corsConfig),
	)
	if rl := cfg.Server.RateLimit; rl.Enabled {
		limiter := middleware.NewRateLimiter(ctx, middleware.RateLimitConfig{
			RequestsPerSecond: rl.RPS,
			Burst:             rl.Burst,
		})
		engine.Use(limiter.Handler())
	}

	if err := RegisterRoutes(engine, &RouteDeps{
		Modules: modules,
		Gate:    gate,
		DB:      db,
	}); err != nil {
		return nil, fmt.Errorf("register routes: %w", err)
	}
	return engine, nil
}

// buildModules wires repository → service → handler for every module. All
// of them share db; the gate resolves principals through the user repository.
// The token service is closed once ctx is done.
func buildModules(ctx context.Context, cfg *config.Config, db *gorm.DB) ([]Module, *auth.Gate, error) {
	tokens, err := auth.NewTokens(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.TokenTTL())
	if err != nil {
		return nil, nil, fmt.Errorf("setup tokens: %w", err)
	}
	go func() {
		<-ctx.Done()
		tokens.Close()
	}()

	users := user.NewRepository(db)
	gate := auth.NewGate(tokens, users)

	def, maxSize := cfg.Query.DefaultPageSize, cfg.Query.MaxPageSize

	vendorRepo := vendors.NewRepository(db)
	vendorEngine := query.NewEngine[domain.Vendor](query.NewGormStore[domain.Vendor](db), vendors.Schema().WithPageSizes(def, maxSize))
	vendorSvc := vendors.NewService(vendorRepo, vendorEngine, query.NewGormStore[domain.Payment](db))

	paymentStore := query.NewGormStore[domain.Payment](db, query.WithPreload("Vendor"))
	paymentEngine := query.NewEngine[domain.Payment](paymentStore, payment.Schema().WithPageSizes(def, maxSize))
	paymentSvc := payment.NewService(payment.NewRepository(db), vendorRepo, paymentEngine, paymentStore)

	userEngine := query.NewEngine[domain.User](query.NewGormStore[domain.User](db), user.Schema().WithPageSizes(def, maxSize))
	userSvc := user.NewService(users, userEngine)

	authSvc := authmod.NewService(users, tokens, cfg.Auth.BcryptCost)

	return []Module{
		authmod.NewModule(authmod.NewHandler(authSvc)),
		vendors.NewModule(vendors.NewHandler(vendorSvc)),
		payment.NewModule(payment.NewHandler(paymentSvc)),
		user.NewModule(user.NewUserHandler(userSvc)),
	}, gate, nil
}

// resolveCORSConfig builds the middleware settings from configuration.
// In release mode, when no allowlist is configured, cross-origin requests
// are denied.
func resolveCORSConfig(mode string, cfg config.CORSConfig) (middleware.CORSConfig, error) {
	corsConfig := middleware.DefaultCORSConfig()

	if len(cfg.AllowMethods) > 0 {
		corsConfig.AllowMethods = cfg.AllowMethods
	}
	if len(cfg.AllowHeaders) > 0 {
		corsConfig.AllowHeaders = cfg.AllowHeaders
	}
	corsConfig.AllowCredentials = cfg.AllowCredentials
	if cfg.MaxAge != "" {
		d, err := time.ParseDuration(cfg.MaxAge)
		if err != nil {
			return middleware.CORSConfig{}, fmt.Errorf("invalid server.cors.max_age %q: %w", cfg.MaxAge, err)
		}
		corsConfig.MaxAge = d
	}

	switch {
	case len(cfg.AllowOrigins) > 0:
		corsConfig.AllowOrigins = cfg.AllowOrigins
	case mode == gin.ReleaseMode:
		corsConfig.AllowOrigins = []string{}
	}

	return corsConfig, nil
}

func validateGinMode(mode string) error {
	switch mode {
	case gin.DebugMode, gin.ReleaseMode, gin.TestMode:
		return nil
	default:
		return fmt.Errorf("invalid server.mode %q: must be one of %q, %q, %q", mode, gin.DebugMode, gin.ReleaseMode, gin.TestMode)
	}
}

// serverTimeout returns the configured request timeout, falling back to 30s.
func serverTimeout(cfg *config.Config) time.Duration {
	if d, err := time.ParseDuration(cfg.Server.Timeout); err == nil && d > 0 {
		return d
	}
	return 30 * time.Second
}

// Run starts the HTTP server and blocks until a shutdown signal is received.
// It performs graceful shutdown with a 5-second timeout and closes the
// database connection.
func (a *App) Run() error {
	if a == nil {
		return errors.New("app is nil")
	}
	if a.cfg == nil {
		return errors.New("app config is nil")
	}
	if a.engine == nil {
		return errors.New("app engine is nil")
	}

	log := slog.Default()
	if a.logger != nil {
		log = a.logger.Logger
	}

	addr := fmt.Sprintf("%s:%d", a.cfg.Server.Host, a.cfg.Server.Port)
	srv := newHTTPServer(addr, a.engine, serverTimeout(a.cfg))

	ctx, stop := notifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("server started", slog.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	var runErr error

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-errCh:
		runErr = fmt.Errorf("server error: %w", err)
	}

	if runErr == nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("server shutdown error", slog.Any("error", err))
		}
	}

	if a.stop != nil {
		a.stop()
	}
	closeDatabase(a.db, log)

	log.Info("server stopped")
	if a.logger != nil {
		if err := a.logger.Close(); err != nil {
			slog.Error("logger close error", slog.Any("error", err))
		}
	}

	return runErr
}

func closeDatabase(db *gorm.DB, log *slog.Logger) {
	if db == nil {
		return
	}
	if log == nil {
		log = slog.Default()
	}
	sqlDB, err := db.DB()
	if err != nil {
		return
	}
	if err := sqlDB.Close(); err != nil {
		log.Error("database close error", slog.Any("error", err))
		return
	}
	log.Info("database connection closed")
}
