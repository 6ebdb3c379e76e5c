package tenant

import "context"

// OwnerRefresher re-derives whether the current viewer owns the site after
// the tenant scope was reset.
type OwnerRefresher interface {
	RefreshOwner(ctx context.Context)
}

// OwnerRefresherFunc adapts a plain function to OwnerRefresher.
type OwnerRefresherFunc func(ctx context.Context)

func (f OwnerRefresherFunc) RefreshOwner(ctx context.Context) { f(ctx) }

// ClearResolver resets the tenant scope for routes that never carry a slug.
type ClearResolver struct {
	refreshers []OwnerRefresher
}

func NewClearResolver(refreshers ...OwnerRefresher) *ClearResolver {
	return &ClearResolver{refreshers: refreshers}
}

func (c *ClearResolver) Resolve(ctx context.Context, st *State) Outcome {
	st.Clear()
	for _, r := range c.refreshers {
		r.RefreshOwner(ctx)
	}
	return Accept()
}
