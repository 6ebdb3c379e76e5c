package v1

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/folio/internal/domain"
	"github.com/gosuda/folio/internal/server/middleware"
	"github.com/gosuda/folio/internal/tenant"
)

type GetProfileOutput struct {
	Body *domain.Profile
}

type UpdateProfileInput struct {
	Body struct {
		DisplayName string `json:"displayName" minLength:"1" maxLength:"255" doc:"Name shown on the portfolio"`
		Headline    string `json:"headline,omitempty" maxLength:"255" doc:"One-line summary"`
		Bio         string `json:"bio,omitempty" maxLength:"8192" doc:"About text"`
		AvatarURL   string `json:"avatarUrl,omitempty" format:"uri" doc:"Avatar image URL"`
	}
}

type UpdateProfileOutput struct {
	Body *domain.Profile
}

// RegisterLoaderRoutes mounts the profile loader for the tenant in scope. A
// successful load populates cache, which the resolver consults before it
// calls the backend. cache may be nil.
func RegisterLoaderRoutes(api huma.API, fetcher domain.ProfileFetcher, cache domain.ProfileCache) {
	huma.Register(api, huma.Operation{
		OperationID: "get-profile",
		Method:      http.MethodGet,
		Path:        "/profile",
		Summary:     "Load the profile of the tenant in scope",
		Tags:        []string{"Profiles"},
	}, func(ctx context.Context, _ *struct{}) (*GetProfileOutput, error) {
		snap, ok := middleware.TenantFromContext(ctx)
		if !ok || !snap.Bound() {
			return nil, huma.Error404NotFound("no tenant in scope")
		}

		p, err := fetcher.FetchProfile(ctx, snap.Slug)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("profile not found")
			}
			return nil, huma.Error502BadGateway("failed to load profile", err)
		}

		if cache != nil {
			if err := cache.Store(ctx, p); err != nil {
				log.Warn().Err(err).Str("slug", p.Slug).Msg("v1: profile cache store failed")
			}
		}

		return &GetProfileOutput{Body: p}, nil
	})
}

// RegisterOwnerRoutes mounts the owner's profile editor. The profile id and
// slug come from the credential, never from the request.
func RegisterOwnerRoutes(api huma.API, store ProfileStore, cache domain.ProfileCache) {
	huma.Register(api, huma.Operation{
		OperationID: "update-profile",
		Method:      http.MethodPut,
		Path:        "/profile",
		Summary:     "Create or update the owner's public profile",
		Tags:        []string{"Profiles"},
	}, func(ctx context.Context, input *UpdateProfileInput) (*UpdateProfileOutput, error) {
		claims, ok := middleware.ClaimsFromContext(ctx)
		if !ok {
			return nil, huma.Error401Unauthorized("owner credential required")
		}

		if claims.UserID <= 0 {
			return nil, huma.Error400BadRequest("credential carries no user id")
		}
		slug := domain.NormalizeSlug(claims.Slug)
		if slug == "" {
			return nil, huma.Error400BadRequest("credential carries no slug")
		}
		if tenant.IsReserved(slug) {
			return nil, huma.Error400BadRequest("slug collides with an application route")
		}

		p := &domain.Profile{
			ID:          claims.UserID,
			Slug:        slug,
			DisplayName: input.Body.DisplayName,
			Headline:    input.Body.Headline,
			Bio:         input.Body.Bio,
			AvatarURL:   input.Body.AvatarURL,
		}
		if err := store.Profiles().Upsert(ctx, p); err != nil {
			if errors.Is(err, domain.ErrConflict) {
				return nil, huma.Error409Conflict("slug already taken")
			}
			return nil, huma.Error500InternalServerError("failed to save profile", err)
		}

		if cache != nil {
			if err := cache.Evict(ctx, slug); err != nil {
				log.Warn().Err(err).Str("slug", slug).Msg("v1: profile cache evict failed")
			}
		}

		return &UpdateProfileOutput{Body: p}, nil
	})
}
