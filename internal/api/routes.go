// internal/api/routes.go
package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"mwmcp/internal/llm"
	"mwmcp/internal/search"
	"mwmcp/internal/wiki"
	"mwmcp/pkg/auth"
	"mwmcp/pkg/config"
	"mwmcp/pkg/middleware"
	"mwmcp/pkg/tenants"
	"mwmcp/pkg/usage"
)

// Deps bundles what the handlers need. Search may be nil when no database
// is configured; the handler reports that instead of panicking.
type Deps struct {
	Cfg    config.Config
	Log    *zap.SugaredLogger
	Ledger usage.Ledger
	LLM    *llm.Client
	Wiki   *wiki.Client
	Search *search.Store
}

// RegisterRoutes mounts the tenant-scoped API. Per-route groups pin the
// required scope from the static table; quota gating only wraps the
// LLM-consuming endpoints since only those spend tokens.
func RegisterRoutes(r chi.Router, d Deps, reg *tenants.Registry, verifier *auth.Verifier) {
	r.Get("/healthz", handleHealth)

	r.Route("/t/{tenant}/v1", func(tr chi.Router) {
		tr.Use(middleware.WithTenant(reg))
		tr.Use(middleware.Auth(verifier, d.Log))

		tr.Group(func(g chi.Router) {
			g.Use(middleware.RequireScope(auth.EndpointChatCompletion))
			g.Use(middleware.Quota(d.Ledger, d.Cfg.DailyTokenLimit, d.Log))
			g.Post("/chat", d.handleChat)
		})
		tr.Group(func(g chi.Router) {
			g.Use(middleware.RequireScope(auth.EndpointSearch))
			g.Use(middleware.Quota(d.Ledger, d.Cfg.DailyTokenLimit, d.Log))
			g.Get("/search", d.handleSearch)
		})
		tr.Group(func(g chi.Router) {
			g.Use(middleware.RequireScope(auth.EndpointSMWQuery))
			g.Post("/smw/query", d.handleSMWQuery)
		})
		tr.Group(func(g chi.Router) {
			g.Use(middleware.RequireScope(auth.EndpointEditPage))
			g.Post("/pages/edit", d.handleEditPage)
		})
		tr.Group(func(g chi.Router) {
			g.Use(middleware.RequireScope(auth.EndpointUsageStats))
			g.Get("/usage", d.handleUsage)
		})
		// Embedding sync, called by the extension on page save/delete.
		// Only the upsert spends LLM tokens, so only it sits behind the
		// quota gate.
		tr.Group(func(g chi.Router) {
			g.Use(middleware.RequireScope(auth.EndpointEmbeddings))
			g.With(middleware.Quota(d.Ledger, d.Cfg.DailyTokenLimit, d.Log)).Post("/embeddings/page", d.handleUpsertEmbedding)
			g.Delete("/embeddings/page", d.handleDeleteEmbedding)
			g.Get("/embeddings/stats", d.handleEmbeddingStats)
		})
	})
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"ok":true}`))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
