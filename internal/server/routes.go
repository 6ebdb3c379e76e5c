package server

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"

	v1 "github.com/gosuda/folio/internal/api/v1"
	"github.com/gosuda/folio/internal/server/middleware"
	"github.com/gosuda/folio/internal/tenant"
)

// contentPages are served both for the site owner (/about) and for a visited
// tenant (/{slug}/about).
var contentPages = []string{
	tenant.PageHome,
	tenant.PageAbout,
	tenant.PageCurriculum,
	tenant.PageProjects,
	tenant.PageProjects + "/{id}",
	tenant.PageCertificates,
	tenant.PageContacts,
}

// slugFreePages never carry a tenant.
var slugFreePages = []string{
	tenant.PageLogin,
	tenant.PageRegister,
	tenant.PageNotFound,
	tenant.PageProfileNotFound,
}

// privatePages form the owner's job tracker.
var privatePages = []string{
	tenant.PageJobOffers,
	tenant.PageApplications,
	tenant.PageEmail,
	tenant.PageStats,
	tenant.PageSettings,
}

func registerPublicAPIRoutes(api huma.API, store v1.ProfileStore) {
	v1.RegisterProfileRoutes(api, store)
}

func (s *Server) registerSessionAPIRoutes(api huma.API) {
	v1.RegisterSessionRoutes(api)
	v1.RegisterOwnerRoutes(api, s.store, s.cache)
}

func (s *Server) registerTenantAPIRoutes(api huma.API) {
	v1.RegisterLoaderRoutes(api, s.fetcher, s.cache)
}

func (s *Server) registerPageRoutes(r chi.Router) {
	page := spaPage(s.webAssets)
	clear := middleware.ClearTenant(s.clear)

	// Unprefixed pages go through the resolver too: a reserved first
	// segment clears the tenant scope.
	r.Group(func(r chi.Router) {
		r.Use(middleware.ResolveTenant(s.resolver))
		r.Get("/", page)
		for _, p := range contentPages {
			r.Get("/"+p, page)
		}
	})

	r.Group(func(r chi.Router) {
		r.Use(clear)
		for _, p := range slugFreePages {
			r.Get("/"+p, page)
		}
		r.Get("/"+tenant.PageLogout, s.logout)
	})

	r.Group(func(r chi.Router) {
		r.Use(clear, middleware.RequireOwner())
		for _, p := range privatePages {
			r.Get("/"+p, page)
		}
	})

	// The wildcard must not see the resolver: an unknown page under an
	// unknown slug lands on /{slug}/about before any lookup happens.
	r.Route("/{slug}", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.ResolvePrefixedTenant(s.resolver))
			r.Get("/", s.tenantIndex)
			for _, p := range contentPages {
				r.Get("/"+p, page)
			}
		})
		r.NotFound(middleware.Wildcard())
	})
}

// tenantIndex sends /{slug} to the tenant's about page. The resolver has
// already bound the slug, so the facade prefixes it.
func (s *Server) tenantIndex(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		http.Error(w, `{"title":"Internal Server Error","status":500,"detail":"session unavailable"}`, http.StatusInternalServerError)
		return
	}

	facade := tenant.NewRouterFacade(sess.State, redirectNavigator(w, r))
	facade.Navigate([]string{tenant.PageAbout}, tenant.NavigateOptions{Replace: true})
}

// logout drops the owner credential and lands on the login page.
func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.TokenCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.cfg.Server.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	if sess, ok := middleware.SessionFromContext(r.Context()); ok {
		sess.SetOwner(false)
	}
	middleware.WriteOutcome(w, r, tenant.Redirect("/"+tenant.PageLogin, true))
}

// redirectNavigator answers the current request with a redirect to whatever
// path the facade navigates to.
func redirectNavigator(w http.ResponseWriter, r *http.Request) tenant.Navigator {
	return tenant.NavigatorFunc(func(path string, replace bool) {
		middleware.WriteOutcome(w, r, tenant.Redirect(path, replace))
	})
}
