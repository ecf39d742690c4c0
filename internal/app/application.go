// Package app wires configuration, logging, i18n, storage and the
// middleware pipeline into a runnable application.
package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/openfieldhq/webcore/internal/app/httpapi"
	"github.com/openfieldhq/webcore/internal/app/system"
	"github.com/openfieldhq/webcore/internal/config"
	"github.com/openfieldhq/webcore/internal/database"
	"github.com/openfieldhq/webcore/internal/i18n"
	"github.com/openfieldhq/webcore/internal/logging"
	"github.com/openfieldhq/webcore/internal/metrics"
	"github.com/openfieldhq/webcore/internal/middleware"
	"github.com/openfieldhq/webcore/internal/validation"
)

// redisWindow is the fixed window used by the shared rate limit store; the
// configured limit is interpreted per second in both stores.
const redisWindow = time.Second

// Application ties the kernel together and manages its lifecycle.
type Application struct {
	cfg     *config.Config
	log     *logging.Logger
	metrics *metrics.Metrics
	catalog *i18n.Catalog
	stack   *middleware.Stack
	manager *system.Manager

	db          *database.Database
	redisClient *redis.Client
	server      *http.Server
}

// New builds an application from cfg. The configuration stays mutable until
// Start freezes it, so callers may restructure the middleware stack between
// New and Start.
func New(cfg *config.Config) (*Application, error) {
	if cfg == nil {
		cfg = config.Default()
	}

	log := logging.New(cfg.App.Name, logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})

	catalog := i18n.NewCatalog(cfg.I18n.DefaultLocale)
	validation.RegisterDefaultMessages(catalog)
	if info, err := os.Stat(cfg.Paths.Locales); err == nil && info.IsDir() {
		if err := catalog.LoadDir(cfg.Paths.Locales); err != nil {
			return nil, fmt.Errorf("load locales: %w", err)
		}
	} else {
		log.WithField("dir", cfg.Paths.Locales).Debug("no locale directory; using built-in messages")
	}

	a := &Application{
		cfg:     cfg,
		log:     log,
		metrics: metrics.New("webcore"),
		catalog: catalog,
		manager: system.NewManager(),
	}

	if cfg.Middleware.RateLimit.Enabled && cfg.Middleware.RateLimit.Store == "redis" {
		a.redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}

	a.stack = a.defaultStack()

	if cfg.Database.Enabled {
		if err := a.manager.Register(&databaseService{app: a}); err != nil {
			return nil, err
		}
	}

	return a, nil
}

// Logger exposes the application logger.
func (a *Application) Logger() *logging.Logger { return a.log }

// Catalog exposes the translation catalog, e.g. for registering messages
// during boot.
func (a *Application) Catalog() *i18n.Catalog { return a.catalog }

// Stack exposes the declared middleware stack for inspection.
func (a *Application) Stack() *middleware.Stack { return a.stack }

// defaultStack declares the middleware pipeline. Conditions and providers
// are evaluated at build time, so toggles and secrets set late in boot are
// honored.
func (a *Application) defaultStack() *middleware.Stack {
	s := middleware.NewStack()
	cfg := a.cfg

	s.Use("recovery", middleware.Recovery(a.log))
	s.Use("tracing", middleware.Tracing(a.log))

	s.UseProvided("metrics",
		func() bool { return cfg.Middleware.Metrics.Enabled },
		func() middleware.Middleware {
			return middleware.Metrics(cfg.App.Name, a.metrics)
		})

	s.UseProvided("cors",
		func() bool { return cfg.Middleware.CORS.Enabled },
		func() middleware.Middleware {
			return middleware.CORS(middleware.CORSConfig{AllowedOrigins: cfg.Middleware.CORS.AllowedOrigins})
		})

	s.UseProvided("auth",
		func() bool { return cfg.Middleware.Auth.Enabled },
		func() middleware.Middleware {
			skip := append([]string{"/healthz", "/metrics"}, cfg.Middleware.Auth.SkipPaths...)
			return middleware.Auth(middleware.AuthConfig{
				Secret:    []byte(cfg.Middleware.Auth.Secret),
				SkipPaths: skip,
			}, a.log)
		})

	s.UseProvided("rate_limit",
		func() bool { return cfg.Middleware.RateLimit.Enabled },
		func() middleware.Middleware {
			return middleware.RateLimit(middleware.RateLimitConfig{
				RequestsPerSecond: cfg.Middleware.RateLimit.RequestsPerSecond,
				FailOpen:          cfg.Middleware.RateLimit.FailOpen,
			}, a.limiterStore(), a.log)
		})

	return s
}

func (a *Application) limiterStore() middleware.LimiterStore {
	rl := a.cfg.Middleware.RateLimit
	if rl.Store == "redis" && a.redisClient != nil {
		return middleware.NewRedisLimiterStore(a.redisClient, rl.RequestsPerSecond, redisWindow)
	}
	burst := rl.Burst
	if burst <= 0 {
		burst = rl.RequestsPerSecond
	}
	return middleware.NewLocalLimiterStore(rl.RequestsPerSecond, burst)
}

// Use appends a stage to the middleware stack. Allowed only before the
// configuration is frozen.
func (a *Application) Use(name string, mw middleware.Middleware) error {
	if err := a.cfg.CheckMutable(); err != nil {
		return err
	}
	a.stack.Use(name, mw)
	return nil
}

// InsertBefore places a stage before the named one. Allowed only before the
// configuration is frozen.
func (a *Application) InsertBefore(target, name string, mw middleware.Middleware) error {
	if err := a.cfg.CheckMutable(); err != nil {
		return err
	}
	return a.stack.InsertBefore(target, name, mw)
}

// InsertAfter places a stage after the named one. Allowed only before the
// configuration is frozen.
func (a *Application) InsertAfter(target, name string, mw middleware.Middleware) error {
	if err := a.cfg.CheckMutable(); err != nil {
		return err
	}
	return a.stack.InsertAfter(target, name, mw)
}

// RemoveMiddleware deletes a declared stage. Allowed only before the
// configuration is frozen.
func (a *Application) RemoveMiddleware(name string) error {
	if err := a.cfg.CheckMutable(); err != nil {
		return err
	}
	a.stack.Remove(name)
	return nil
}

// Handler realizes the middleware pipeline around the HTTP API.
func (a *Application) Handler() http.Handler {
	inner := httpapi.NewHandler(httpapi.Deps{
		Log:           a.log,
		Resolver:      validation.NewMessageResolver(a.catalog),
		DefaultLocale: a.cfg.I18n.DefaultLocale,
		Metrics:       a.metrics.Handler(),
		DBHealth:      a.dbHealth,
	})
	return a.stack.Build(inner)
}

func (a *Application) dbHealth(ctx context.Context) error {
	if a.db == nil {
		return nil
	}
	return a.db.Health(ctx)
}

// Start brings lifecycle services up, freezes the configuration and
// realizes the HTTP server. It does not listen; call Run.
func (a *Application) Start(ctx context.Context) error {
	if err := a.manager.Start(ctx); err != nil {
		return err
	}

	a.cfg.Freeze()
	a.log.WithField("stages", a.stack.ActiveNames()).Info("middleware pipeline realized")

	a.server = &http.Server{
		Addr:         a.cfg.Server.Addr,
		Handler:      a.Handler(),
		ReadTimeout:  a.cfg.Server.ReadTimeout.Std(),
		WriteTimeout: a.cfg.Server.WriteTimeout.Std(),
	}
	return nil
}

// Run listens until ctx is cancelled or the server fails.
func (a *Application) Run(ctx context.Context) error {
	if a.server == nil {
		return fmt.Errorf("application not started")
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Infof("HTTP server listening on %s", a.cfg.Server.Addr)
		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		return err
	}
}

// Shutdown stops the HTTP server, then lifecycle services in reverse order.
func (a *Application) Shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout.Std())
	defer cancel()

	var firstErr error
	if a.server != nil {
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			firstErr = err
		}
	}
	if err := a.manager.Stop(shutdownCtx); err != nil && firstErr == nil {
		firstErr = err
	}
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// databaseService adapts the database bootstrap to the lifecycle manager.
type databaseService struct {
	app *Application
}

func (s *databaseService) Name() string { return "database" }

func (s *databaseService) Start(ctx context.Context) error {
	db, err := database.Connect(ctx, s.app.cfg.Database, s.app.log)
	if err != nil {
		return err
	}
	s.app.db = db

	if s.app.cfg.Database.Migrate {
		if err := db.Migrate(s.app.cfg.Paths.Migrations); err != nil {
			_ = db.Close()
			s.app.db = nil
			return err
		}
	}
	return nil
}

func (s *databaseService) Stop(context.Context) error {
	if s.app.db == nil {
		return nil
	}
	err := s.app.db.Close()
	s.app.db = nil
	return err
}
