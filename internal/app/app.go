// Package app provides application initialization and lifecycle management.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/bissquit/statuspage/api/openapi"
	"github.com/bissquit/statuspage/internal/catalog"
	catalogpostgres "github.com/bissquit/statuspage/internal/catalog/postgres"
	"github.com/bissquit/statuspage/internal/config"
	"github.com/bissquit/statuspage/internal/identity"
	"github.com/bissquit/statuspage/internal/incidents"
	incidentspostgres "github.com/bissquit/statuspage/internal/incidents/postgres"
	"github.com/bissquit/statuspage/internal/organizations"
	organizationspostgres "github.com/bissquit/statuspage/internal/organizations/postgres"
	"github.com/bissquit/statuspage/internal/pkg/ctxlog"
	"github.com/bissquit/statuspage/internal/pkg/httputil"
	"github.com/bissquit/statuspage/internal/pkg/metrics"
	"github.com/bissquit/statuspage/internal/pkg/postgres"
	"github.com/bissquit/statuspage/internal/statuspage"
	"github.com/bissquit/statuspage/internal/store/memory"
	"github.com/bissquit/statuspage/internal/version"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"
)

const poolStatsInterval = 15 * time.Second

// repositories groups the storage ports of every module.
type repositories struct {
	organizations organizations.Repository
	catalog       catalog.Repository
	incidents     incidents.Repository
}

// store is the storage handle owned by the application.
type store interface {
	Ping(ctx context.Context) error
	Close()
}

// App represents the application instance.
type App struct {
	config        *config.Config
	logger        *slog.Logger
	store         store
	server        *http.Server
	metricsServer *http.Server
	metricsCancel context.CancelFunc
}

// New creates a new application instance. The storage handle is opened
// here and released by Shutdown.
func New(cfg *config.Config) (*App, error) {
	logger := initLogger(cfg.Log)
	slog.SetDefault(logger)

	metricsCtx, metricsCancel := context.WithCancel(context.Background())

	st, repos, err := openStore(metricsCtx, cfg)
	if err != nil {
		metricsCancel()
		return nil, err
	}

	app := &App{
		config:        cfg,
		logger:        logger,
		store:         st,
		metricsCancel: metricsCancel,
	}

	app.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:           app.setupRouter(repos),
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	metricsRouter := chi.NewRouter()
	metricsRouter.Handle("/metrics", promhttp.Handler())

	app.metricsServer = &http.Server{
		Addr:              fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.MetricsPort),
		Handler:           metricsRouter,
		ReadTimeout:       5 * time.Second,
		ReadHeaderTimeout: 2 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return app, nil
}

func openStore(ctx context.Context, cfg *config.Config) (store, repositories, error) {
	switch cfg.Storage.Driver {
	case config.StorageDriverMemory:
		slog.Warn("using in-memory storage, data is lost on restart")
		st := memory.New()
		return st, repositories{
			organizations: st,
			catalog:       st,
			incidents:     st,
		}, nil

	case config.StorageDriverPostgres:
		connectCtx, cancel := context.WithTimeout(ctx, cfg.Database.ConnectTimeout)
		defer cancel()

		db, err := postgres.Connect(connectCtx, postgres.Config{
			URL:             cfg.Database.URL,
			MaxOpenConns:    cfg.Database.MaxOpenConns,
			MaxIdleConns:    cfg.Database.MaxIdleConns,
			ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
			ConnectAttempts: cfg.Database.ConnectAttempts,
		})
		if err != nil {
			return nil, repositories{}, fmt.Errorf("connect to database: %w", err)
		}

		// migrations run only once the database answers
		if cfg.Database.AutoMigrate {
			if err := postgres.Migrate(cfg.Database.URL); err != nil {
				db.Close()
				return nil, repositories{}, fmt.Errorf("migrate database: %w", err)
			}
		}

		go metrics.CollectPoolStats(ctx, db, poolStatsInterval)

		return db, postgresRepositories(db), nil
	}

	return nil, repositories{}, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
}

func postgresRepositories(db *pgxpool.Pool) repositories {
	return repositories{
		organizations: organizationspostgres.NewRepository(db),
		catalog:       catalogpostgres.NewRepository(db),
		incidents:     incidentspostgres.NewRepository(db),
	}
}

// Run starts the HTTP servers.
func (a *App) Run() error {
	go func() {
		a.logger.Info("starting metrics server",
			"host", a.config.Server.Host,
			"port", a.config.Server.MetricsPort,
		)
		if err := a.metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("metrics server error", "error", err)
		}
	}()

	a.logger.Info("starting server",
		"host", a.config.Server.Host,
		"port", a.config.Server.Port,
		"storage", a.config.Storage.Driver,
		"version", version.Version,
	)

	if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// Shutdown stops both servers in parallel and then closes the store.
func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("shutting down servers")

	a.metricsCancel()

	var wg sync.WaitGroup
	var mu sync.Mutex
	var errs []error

	for name, srv := range map[string]*http.Server{"server": a.server, "metrics server": a.metricsServer} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := srv.Shutdown(ctx); err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("shutdown %s: %w", name, err))
				mu.Unlock()
			}
		}()
	}

	wg.Wait()

	a.store.Close()

	return errors.Join(errs...)
}

// Router returns the HTTP handler for testing.
func (a *App) Router() http.Handler {
	return a.server.Handler
}

func (a *App) setupRouter(repos repositories) *chi.Mux {
	r := chi.NewRouter()

	// first, to measure the full request time
	r.Use(httputil.MetricsMiddleware)

	// before anything that could reject a preflight request
	r.Use(httputil.CORSMiddleware(a.config.CORS.AllowedOrigins))
	r.Use(middleware.RequestID)
	r.Use(httputil.RequestLoggerMiddleware(a.logger, "/healthz", "/readyz"))
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if a.config.Server.RequestTimeout > 0 {
		r.Use(middleware.Timeout(a.config.Server.RequestTimeout))
	}

	r.Get("/healthz", a.healthzHandler)
	r.Get("/readyz", a.readyzHandler)
	r.Get("/version", a.versionHandler)
	r.Get("/api/openapi.yaml", openAPIHandler)
	r.Get("/docs", docsHandler)

	organizationsService := organizations.NewService(repos.organizations)
	catalogService := catalog.NewService(repos.catalog)
	incidentsService := incidents.NewService(repos.incidents)
	statusService := statuspage.NewService(organizationsService, catalogService, incidentsService)

	verifier := identity.NewVerifier(identity.Config{
		SigningKey: a.config.Identity.SigningKey,
		OrgClaim:   a.config.Identity.OrgClaim,
		Issuer:     a.config.Identity.Issuer,
	})

	r.Route("/api/v1", func(r chi.Router) {
		organizations.NewHandler(organizationsService).RegisterRoutes(r, identity.Middleware(verifier))
		catalog.NewHandler(catalogService).RegisterRoutes(r)
		incidents.NewHandler(incidentsService).RegisterRoutes(r)
		statuspage.NewHandler(statusService).RegisterRoutes(r, httputil.RateLimitMiddleware(a.publicLimiter()))
	})

	return r
}

// publicLimiter returns nil, which disables limiting, when no rate is set.
func (a *App) publicLimiter() *rate.Limiter {
	if a.config.Public.RateLimit <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(a.config.Public.RateLimit), a.config.Public.RateBurst)
}

func (a *App) healthzHandler(w http.ResponseWriter, _ *http.Request) {
	httputil.Text(w, http.StatusOK, "OK")
}

func (a *App) readyzHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := a.store.Ping(ctx); err != nil {
		ctxlog.FromContext(r.Context()).Error("readiness check failed", "error", err)
		httputil.Text(w, http.StatusServiceUnavailable, "Storage unavailable")
		return
	}

	httputil.Text(w, http.StatusOK, "OK")
}

func (a *App) versionHandler(w http.ResponseWriter, _ *http.Request) {
	httputil.JSON(w, http.StatusOK, map[string]string{
		"version":    version.Version,
		"commit":     version.GitCommit,
		"build_date": version.BuildDate,
	})
}

func openAPIHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/x-yaml")
	if _, err := w.Write(openapi.Spec); err != nil {
		slog.Error("failed to write openapi spec", "error", err)
	}
}

func docsHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	_, _ = w.Write([]byte(`<!DOCTYPE html>
<html>
<head>
    <title>StatusPage API</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css">
</head>
<body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
    <script>
        SwaggerUIBundle({
            url: "/api/openapi.yaml",
            dom_id: '#swagger-ui',
            presets: [SwaggerUIBundle.presets.apis, SwaggerUIBundle.SwaggerUIStandalonePreset],
            layout: "BaseLayout"
        });
    </script>
</body>
</html>`))
}

func initLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler).With("service", "statuspage")
}
