// internal/api/stats.go
package api

import (
	"net/http"
	"strconv"
	"time"

	"mwmcp/pkg/middleware"
	"mwmcp/pkg/problems"
)

// handleUsage reports the caller's quota position today plus recent daily
// history, straight from the ledger.
func (d Deps) handleUsage(w http.ResponseWriter, r *http.Request) {
	p := middleware.PrincipalFrom(r.Context())
	cred := middleware.CredentialFrom(r.Context())
	limit := middleware.EffectiveLimit(cred, d.Cfg.DailyTokenLimit)

	days := 7
	if v := r.URL.Query().Get("days"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 90 {
			days = n
		}
	}

	st, err := d.Ledger.Status(r.Context(), p.TenantID, p.User, limit)
	if err != nil {
		d.Log.Errorw("ledger status", "tenant", p.TenantID, "err", err)
		problems.WriteSlug(w, "ledger_unavailable", http.StatusInternalServerError, "usage ledger unavailable")
		return
	}
	history, err := d.Ledger.History(r.Context(), p.TenantID, p.User, days)
	if err != nil {
		d.Log.Errorw("ledger history", "tenant", p.TenantID, "err", err)
		problems.WriteSlug(w, "ledger_unavailable", http.StatusInternalServerError, "usage ledger unavailable")
		return
	}

	writeJSON(w, http.StatusOK, UsageResponse{
		TokensUsed:      st.TotalTokens,
		TokensRemaining: st.Remaining,
		Limit:           limit,
		RequestsToday:   st.RequestCount,
		ResetAt:         st.ResetAt.UTC().Format(time.RFC3339),
		History:         history,
	})
}
