// internal/api/embeddings.go
package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"mwmcp/pkg/metrics"
	"mwmcp/pkg/middleware"
	"mwmcp/pkg/problems"
)

// minEmbedLen is the shortest page text worth embedding; anything under it
// is treated as an empty page and its row is removed instead.
const minEmbedLen = 10

// handleUpsertEmbedding (re)indexes one wiki page. The MWAssistant extension
// calls this on page save so the vector store the search endpoint reads
// stays in sync with the wiki. Embedding tokens are billed to the ledger
// like any other LLM spend.
func (d Deps) handleUpsertEmbedding(w http.ResponseWriter, r *http.Request) {
	var req UpsertEmbeddingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Title == "" || req.Content == "" {
		problems.WriteSlug(w, "invalid_request", http.StatusBadRequest, "title and content are required")
		return
	}
	if d.Search == nil {
		problems.WriteSlug(w, "search_unavailable", http.StatusServiceUnavailable, "vector store not configured")
		return
	}

	p := middleware.PrincipalFrom(r.Context())
	cred := middleware.CredentialFrom(r.Context())

	// A page shrunk below the embeddable minimum is dropped from the index.
	content := strings.TrimSpace(req.Content)
	if len(content) < minEmbedLen {
		count, err := d.Search.Delete(r.Context(), p.TenantID, req.Title)
		if err != nil {
			d.Log.Errorw("embedding delete", "tenant", p.TenantID, "title", req.Title, "err", err)
			problems.WriteSlug(w, "search_failed", http.StatusInternalServerError, "index update failed")
			return
		}
		writeJSON(w, http.StatusOK, OperationResult{Status: "deleted", Count: count})
		return
	}

	embedding, u, err := d.LLM.Embed(r.Context(), content)
	if err != nil {
		d.Log.Errorw("embed page", "tenant", p.TenantID, "title", req.Title, "err", err)
		problems.WriteSlug(w, "llm_unavailable", http.StatusBadGateway, "embedding failed")
		return
	}

	if err := d.Search.Upsert(r.Context(), p.TenantID, req.Title, req.Namespace, content, embedding); err != nil {
		d.Log.Errorw("embedding upsert", "tenant", p.TenantID, "title", req.Title, "err", err)
		problems.WriteSlug(w, "search_failed", http.StatusInternalServerError, "index update failed")
		return
	}

	dayLimit := middleware.EffectiveLimit(cred, d.Cfg.DailyTokenLimit)
	if _, err := d.Ledger.Record(r.Context(), p.TenantID, p.User, u.TotalTokens, dayLimit); err != nil {
		d.Log.Errorw("ledger record", "tenant", p.TenantID, "err", err)
		problems.WriteSlug(w, "ledger_unavailable", http.StatusInternalServerError, "usage ledger unavailable")
		return
	}
	metrics.TokensConsumed.WithLabelValues(p.TenantID).Add(float64(u.TotalTokens))

	writeJSON(w, http.StatusOK, OperationResult{Status: "updated", Count: 1})
}

// handleDeleteEmbedding removes a page from the index, called on page delete.
func (d Deps) handleDeleteEmbedding(w http.ResponseWriter, r *http.Request) {
	var req DeleteEmbeddingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Title == "" {
		problems.WriteSlug(w, "invalid_request", http.StatusBadRequest, "title is required")
		return
	}
	if d.Search == nil {
		problems.WriteSlug(w, "search_unavailable", http.StatusServiceUnavailable, "vector store not configured")
		return
	}

	p := middleware.PrincipalFrom(r.Context())
	count, err := d.Search.Delete(r.Context(), p.TenantID, req.Title)
	if err != nil {
		d.Log.Errorw("embedding delete", "tenant", p.TenantID, "title", req.Title, "err", err)
		problems.WriteSlug(w, "search_failed", http.StatusInternalServerError, "index update failed")
		return
	}
	writeJSON(w, http.StatusOK, OperationResult{Status: "deleted", Count: count})
}

// handleEmbeddingStats reports how much of the tenant's wiki is indexed.
func (d Deps) handleEmbeddingStats(w http.ResponseWriter, r *http.Request) {
	if d.Search == nil {
		problems.WriteSlug(w, "search_unavailable", http.StatusServiceUnavailable, "vector store not configured")
		return
	}
	p := middleware.PrincipalFrom(r.Context())
	st, err := d.Search.Stats(r.Context(), p.TenantID)
	if err != nil {
		d.Log.Errorw("embedding stats", "tenant", p.TenantID, "err", err)
		problems.WriteSlug(w, "search_failed", http.StatusInternalServerError, "stats failed")
		return
	}
	writeJSON(w, http.StatusOK, st)
}
