// pkg/middleware/quota.go
package middleware

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"mwmcp/pkg/metrics"
	"mwmcp/pkg/problems"
	"mwmcp/pkg/usage"
)

// Quota blocks a request before any work happens once the caller's daily
// token budget is spent (reject-before-execution policy). Handlers record
// actual consumption to the ledger after the work completes; this gate only
// reads. A ledger error fails closed; storage trouble never means free
// usage.
func Quota(led usage.Ledger, defaultLimit int64, log *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p := PrincipalFrom(r.Context())
			limit := EffectiveLimit(CredentialFrom(r.Context()), defaultLimit)

			st, err := led.Status(r.Context(), p.TenantID, p.User, limit)
			if err != nil {
				log.Errorw("ledger status", "tenant", p.TenantID, "err", err)
				problems.WriteSlug(w, "ledger_unavailable", http.StatusInternalServerError, "usage ledger unavailable")
				return
			}
			if !st.Allowed {
				metrics.QuotaRejections.WithLabelValues(p.TenantID).Inc()
				writeQuotaExceeded(w, st)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeQuotaExceeded(w http.ResponseWriter, st usage.Result) {
	reset := st.ResetAt.UTC().Format(time.RFC3339)
	w.Header().Set("X-RateLimit-Reset", reset)
	problems.Write(w, problems.Problem{
		Type:   problems.Type("quota_exceeded"),
		Title:  "quota_exceeded",
		Status: http.StatusTooManyRequests,
		Detail: "daily token limit reached",
		Extra:  map[string]any{"reset_at": reset},
	})
}
