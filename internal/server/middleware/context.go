package middleware

import (
	"context"

	"github.com/gosuda/folio/internal/auth"
	"github.com/gosuda/folio/internal/session"
	"github.com/gosuda/folio/internal/tenant"
)

type contextKey string

const (
	ContextKeySession contextKey = "session"
	ContextKeyTenant  contextKey = "tenant"
	ContextKeyClaims  contextKey = "claims"
)

func SessionFromContext(ctx context.Context) (*session.Session, bool) {
	v, ok := ctx.Value(ContextKeySession).(*session.Session)
	return v, ok && v != nil
}

// TenantFromContext returns the tenant snapshot taken when this request's
// navigation was resolved.
func TenantFromContext(ctx context.Context) (tenant.Snapshot, bool) {
	v, ok := ctx.Value(ContextKeyTenant).(tenant.Snapshot)
	return v, ok
}

func ClaimsFromContext(ctx context.Context) (*auth.Claims, bool) {
	v, ok := ctx.Value(ContextKeyClaims).(*auth.Claims)
	return v, ok && v != nil
}
