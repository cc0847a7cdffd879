// pkg/middleware/auth.go
package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"mwmcp/pkg/auth"
	"mwmcp/pkg/metrics"
	"mwmcp/pkg/problems"
)

type ctxPrincipalKey struct{}

// Auth validates the Bearer token against the tenant resolved upstream and
// populates the request principal. Every failure kind is logged and counted
// but the response body stays identical across kinds, so callers cannot probe
// which check failed.
func Auth(v *auth.Verifier, log *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cred := CredentialFrom(r.Context())

			authz := r.Header.Get("Authorization")
			if !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
				metrics.AuthFailures.WithLabelValues(auth.KindMalformed.String()).Inc()
				problems.WriteSlug(w, "invalid_token", http.StatusUnauthorized, "token rejected")
				return
			}
			raw := strings.TrimSpace(authz[len("Bearer "):])

			p, err := v.Authenticate(cred.TenantID, raw, time.Now())
			if err != nil {
				kind := auth.KindOf(err)
				log.Infow("auth rejected", "tenant", cred.TenantID, "kind", kind.String())
				metrics.AuthFailures.WithLabelValues(kind.String()).Inc()
				problems.WriteSlug(w, "invalid_token", http.StatusUnauthorized, "token rejected")
				return
			}

			ctx := context.WithValue(r.Context(), ctxPrincipalKey{}, p)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// PrincipalFrom extracts the authenticated principal. Zero value when the
// auth middleware did not run (public routes).
func PrincipalFrom(ctx context.Context) auth.Principal {
	if v := ctx.Value(ctxPrincipalKey{}); v != nil {
		return v.(auth.Principal)
	}
	return auth.Principal{}
}
