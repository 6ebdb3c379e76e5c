package v1

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/gosuda/folio/internal/server/middleware"
	"github.com/gosuda/folio/internal/tenant"
)

type SessionTenantBody struct {
	Slug   string `json:"slug,omitempty" doc:"Tenant slug in scope, empty on the main site"`
	UserID int64  `json:"userId,omitempty" doc:"Backend id of the tenant in scope"`
	Owner  bool   `json:"owner" doc:"Whether the visitor was last seen with an owner credential"`
}

type GetSessionTenantOutput struct {
	Body SessionTenantBody
}

type GetLinkInput struct {
	Path string `query:"path" maxLength:"512" doc:"Slash-separated internal path, e.g. progetti/3"`
}

type GetLinkOutput struct {
	Body struct {
		Href string `json:"href" doc:"Tenant-aware absolute path"`
	}
}

// RegisterSessionRoutes exposes the visitor's tenant scope and the link
// builder to the SPA.
func RegisterSessionRoutes(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "get-session-tenant",
		Method:      http.MethodGet,
		Path:        "/session/tenant",
		Summary:     "Get the tenant currently in scope for this session",
		Tags:        []string{"Session"},
	}, func(ctx context.Context, _ *struct{}) (*GetSessionTenantOutput, error) {
		snap, owner := sessionScope(ctx)
		out := &GetSessionTenantOutput{}
		out.Body = SessionTenantBody{Slug: snap.Slug, UserID: snap.UserID, Owner: owner}
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-link",
		Method:      http.MethodGet,
		Path:        "/links",
		Summary:     "Build an internal link relative to the tenant in scope",
		Tags:        []string{"Session"},
	}, func(ctx context.Context, input *GetLinkInput) (*GetLinkOutput, error) {
		snap, _ := sessionScope(ctx)
		out := &GetLinkOutput{}
		out.Body.Href = tenant.Link(snap, tenant.Segments(input.Path)...)
		return out, nil
	})
}

// sessionScope reads the tenant in scope and the owner flag. A request that
// has not navigated to any page yet carries no session and sees the main site.
func sessionScope(ctx context.Context) (tenant.Snapshot, bool) {
	sess, ok := middleware.SessionFromContext(ctx)
	if !ok {
		_, owner := middleware.ClaimsFromContext(ctx)
		return tenant.Snapshot{}, owner
	}
	return sess.State.Snapshot(), sess.Owner()
}
