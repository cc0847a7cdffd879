// pkg/middleware/tenant.go
package middleware

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"mwmcp/pkg/problems"
	"mwmcp/pkg/tenants"
)

type ctxTenantKey struct{}

// WithTenant resolves the tenant from the routing context: the {tenant} URL
// segment, or the X-Wiki-ID header for callers that can't use path routing.
// The token's own claims never pick the tenant. Unknown or malformed ids get
// the same 401 a bad signature would, so tenant ids cannot be probed.
func WithTenant(reg *tenants.Registry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := chi.URLParam(r, "tenant")
			if id == "" {
				id = r.Header.Get("X-Wiki-ID")
			}
			if !tenants.ValidID(id) {
				problems.WriteSlug(w, "invalid_token", http.StatusUnauthorized, "token rejected")
				return
			}
			cred, ok := reg.Lookup(id)
			if !ok {
				problems.WriteSlug(w, "invalid_token", http.StatusUnauthorized, "token rejected")
				return
			}
			ctx := context.WithValue(r.Context(), ctxTenantKey{}, cred)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// CredentialFrom returns the resolved tenant credential for this request.
func CredentialFrom(ctx context.Context) tenants.Credential {
	if v := ctx.Value(ctxTenantKey{}); v != nil {
		return v.(tenants.Credential)
	}
	return tenants.Credential{}
}

// EffectiveLimit picks the tenant override or the process-wide default.
func EffectiveLimit(cred tenants.Credential, def int64) int64 {
	if cred.DailyTokenLimit > 0 {
		return cred.DailyTokenLimit
	}
	return def
}
