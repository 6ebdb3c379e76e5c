package server

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	v1 "github.com/gosuda/folio/internal/api/v1"
	"github.com/gosuda/folio/internal/config"
	"github.com/gosuda/folio/internal/domain"
	"github.com/gosuda/folio/internal/server/middleware"
	"github.com/gosuda/folio/internal/session"
	"github.com/gosuda/folio/internal/tenant"
)

// Server is the HTTP server that wires all application routes and middleware.
type Server struct {
	router     chi.Router
	httpServer *http.Server
	store      v1.ProfileStore
	fetcher    domain.ProfileFetcher
	cache      domain.ProfileCache // nil disables the resolver's cache step
	resolver   *tenant.Resolver
	clear      *tenant.ClearResolver
	sessions   *session.Registry
	webAssets  fs.FS
	cfg        *config.Config
}

// New creates a Server with all routes wired. webAssets must contain
// index.html; ctx bounds the background limiter sweeps.
func New(ctx context.Context, cfg *config.Config, store v1.ProfileStore, fetcher domain.ProfileFetcher, cache domain.ProfileCache, sessions *session.Registry, webAssets fs.FS) *Server {
	router := chi.NewRouter()

	// Global middleware stack.
	router.Use(chimw.RequestID)
	router.Use(chimw.RealIP)
	router.Use(chimw.Logger)
	router.Use(chimw.Recoverer)
	router.Use(cors.New(cors.Options{
		AllowedOrigins:   cfg.Server.CORSOrigins,
		AllowedMethods:   []string{"GET", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID", middleware.HeaderTenantSlug, middleware.HeaderTenantID},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler)

	s := &Server{
		router:    router,
		store:     store,
		fetcher:   fetcher,
		cache:     cache,
		resolver:  tenant.NewResolver(fetcher, cache, tenant.WithFetchTimeout(cfg.Resolver.FetchTimeout)),
		clear:     tenant.NewClearResolver(middleware.OwnerRefresher()),
		sessions:  sessions,
		webAssets: webAssets,
		cfg:       cfg,
		httpServer: &http.Server{
			Addr:         cfg.Server.Addr,
			Handler:      router,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		},
	}

	// Health check and bundle files carry no session.
	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	router.Handle("/assets/*", assetServer(webAssets))

	// Unmatched paths never start a session.
	router.NotFound(middleware.Wildcard())

	// Mount API routes on /api/v1 with three sub-groups:
	// 1. Public profile lookup, rate limited per client IP.
	// 2. Session-scoped endpoints (tenant snapshot, links, owner editor).
	// 3. Endpoints that need a tenant in scope.
	// API calls only read the session a page navigation started.
	router.Group(func(r chi.Router) {
		r.Use(middleware.LoadSession(sessions))
		r.Use(middleware.Authenticate(cfg.JWT.Secret))

		r.Route("/api/v1", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(middleware.RateLimitByIP(ctx, cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst))
				registerPublicAPIRoutes(humachi.New(r, apiConfig("Folio Public API", false)), store)
			})

			r.Group(func(r chi.Router) {
				s.registerSessionAPIRoutes(humachi.New(r, apiConfig("Folio API", true)))
			})

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireTenant())
				s.registerTenantAPIRoutes(humachi.New(r, apiConfig("Folio Tenant API", false)))
			})

			r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
				http.Error(w, `{"title":"Not Found","status":404,"detail":"no such endpoint"}`, http.StatusNotFound)
			})
		})
	})

	router.Group(func(r chi.Router) {
		r.Use(middleware.Sessions(sessions, cfg.Server.SecureCookie))
		r.Use(middleware.Authenticate(cfg.JWT.Secret))
		s.registerPageRoutes(r)
	})

	return s
}

// apiConfig builds a huma config served under /api/v1. Only one API per
// router publishes the OpenAPI document and docs page.
func apiConfig(title string, docs bool) huma.Config {
	cfg := huma.DefaultConfig(title, "1.0.0")
	cfg.Servers = []*huma.Server{
		{URL: "/api/v1"},
	}
	if !docs {
		cfg.OpenAPIPath = ""
		cfg.DocsPath = ""
		cfg.SchemasPath = ""
	}
	return cfg
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start begins listening for HTTP requests.
func (s *Server) Start(_ context.Context) error {
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server.Start: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}
