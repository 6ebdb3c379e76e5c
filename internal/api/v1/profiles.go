package v1

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/gosuda/folio/internal/domain"
)

type GetPublicProfileInput struct {
	Slug string `path:"slug" minLength:"1" maxLength:"64" doc:"Tenant slug, matched case-insensitively"`
}

type GetPublicProfileOutput struct {
	Body *domain.Profile
}

// RegisterProfileRoutes mounts the backend endpoint the slug resolver calls.
func RegisterProfileRoutes(api huma.API, store ProfileStore) {
	huma.Register(api, huma.Operation{
		OperationID: "get-public-profile",
		Method:      http.MethodGet,
		Path:        "/{slug}/public-profile",
		Summary:     "Get the public profile owned by a slug",
		Tags:        []string{"Profiles"},
	}, func(ctx context.Context, input *GetPublicProfileInput) (*GetPublicProfileOutput, error) {
		p, err := store.Profiles().GetBySlug(ctx, domain.NormalizeSlug(input.Slug))
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("profile not found")
			}
			return nil, huma.Error500InternalServerError("failed to get profile", err)
		}

		return &GetPublicProfileOutput{Body: p}, nil
	})
}
