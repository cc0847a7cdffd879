// internal/api/search.go
package api

import (
	"net/http"
	"strconv"

	"mwmcp/pkg/metrics"
	"mwmcp/pkg/middleware"
	"mwmcp/pkg/problems"
)

// handleSearch embeds the query and ranks tenant pages by cosine distance.
// Embedding tokens count against the daily quota like completion tokens.
func (d Deps) handleSearch(w http.ResponseWriter, r *http.Request) {
	if d.Search == nil {
		problems.WriteSlug(w, "search_unavailable", http.StatusServiceUnavailable, "vector store not configured")
		return
	}
	query := r.URL.Query().Get("q")
	if query == "" {
		problems.WriteSlug(w, "invalid_request", http.StatusBadRequest, "q is required")
		return
	}
	limit := 10
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 50 {
			limit = n
		}
	}

	p := middleware.PrincipalFrom(r.Context())
	cred := middleware.CredentialFrom(r.Context())

	embedding, u, err := d.LLM.Embed(r.Context(), query)
	if err != nil {
		d.Log.Errorw("embed query", "tenant", p.TenantID, "err", err)
		problems.WriteSlug(w, "llm_unavailable", http.StatusBadGateway, "embedding failed")
		return
	}

	results, err := d.Search.Similar(r.Context(), p.TenantID, embedding, limit)
	if err != nil {
		d.Log.Errorw("similarity search", "tenant", p.TenantID, "err", err)
		problems.WriteSlug(w, "search_failed", http.StatusInternalServerError, "search failed")
		return
	}

	dayLimit := middleware.EffectiveLimit(cred, d.Cfg.DailyTokenLimit)
	if _, err := d.Ledger.Record(r.Context(), p.TenantID, p.User, u.TotalTokens, dayLimit); err != nil {
		d.Log.Errorw("ledger record", "tenant", p.TenantID, "err", err)
		problems.WriteSlug(w, "ledger_unavailable", http.StatusInternalServerError, "usage ledger unavailable")
		return
	}
	metrics.TokensConsumed.WithLabelValues(p.TenantID).Add(float64(u.TotalTokens))

	writeJSON(w, http.StatusOK, SearchResponse{Query: query, Results: results})
}
