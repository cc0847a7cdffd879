// pkg/middleware/scope.go
package middleware

import (
	"net/http"

	"mwmcp/pkg/auth"
	"mwmcp/pkg/metrics"
	"mwmcp/pkg/problems"
)

// RequireScope enforces the static endpoint→scope table. The principal is
// authenticated by now; lacking the scope is a 403, never silent downgrade.
func RequireScope(endpoint auth.Endpoint) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p := PrincipalFrom(r.Context())
			if err := auth.Authorize(p, endpoint); err != nil {
				metrics.AuthFailures.WithLabelValues(auth.KindMissingScope.String()).Inc()
				problems.WriteSlug(w, "insufficient_scope", http.StatusForbidden, "missing required scope")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
