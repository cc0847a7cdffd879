// internal/api/chat.go
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"mwmcp/pkg/metrics"
	"mwmcp/pkg/middleware"
	"mwmcp/pkg/problems"
)

// handleChat runs one completion and settles the ledger afterwards. The
// quota gate upstream rejected callers who were already over budget; a
// request that crosses the limit mid-flight still gets its response (the
// tokens were genuinely spent and are recorded), and the next request is
// blocked at the gate.
func (d Deps) handleChat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Messages) == 0 {
		problems.WriteSlug(w, "invalid_request", http.StatusBadRequest, "messages must be a non-empty list")
		return
	}

	p := middleware.PrincipalFrom(r.Context())
	cred := middleware.CredentialFrom(r.Context())

	reply, u, err := d.LLM.ChatCompletion(r.Context(), req.Messages)
	if err != nil {
		d.Log.Errorw("chat completion", "tenant", p.TenantID, "err", err)
		problems.WriteSlug(w, "llm_unavailable", http.StatusBadGateway, "completion failed")
		return
	}

	limit := middleware.EffectiveLimit(cred, d.Cfg.DailyTokenLimit)
	res, err := d.Ledger.Record(r.Context(), p.TenantID, p.User, u.TotalTokens, limit)
	if err != nil {
		d.Log.Errorw("ledger record", "tenant", p.TenantID, "err", err)
		problems.WriteSlug(w, "ledger_unavailable", http.StatusInternalServerError, "usage ledger unavailable")
		return
	}
	metrics.TokensConsumed.WithLabelValues(p.TenantID).Add(float64(u.TotalTokens))

	w.Header().Set("X-RateLimit-Reset", res.ResetAt.UTC().Format(time.RFC3339))
	writeJSON(w, http.StatusOK, ChatResponse{
		Reply:           reply,
		Usage:           u,
		TokensRemaining: res.Remaining,
		QuotaExhausted:  !res.Allowed,
	})
}
