// internal/api/edit.go
package api

import (
	"encoding/json"
	"net/http"

	"mwmcp/pkg/middleware"
	"mwmcp/pkg/problems"
)

// handleEditPage forwards a page edit to the tenant's wiki. The write is
// authenticated on the wiki side by a fresh outbound token carrying
// page_write.
func (d Deps) handleEditPage(w http.ResponseWriter, r *http.Request) {
	var req EditPageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Title == "" || req.Content == "" {
		problems.WriteSlug(w, "invalid_request", http.StatusBadRequest, "title and content are required")
		return
	}

	p := middleware.PrincipalFrom(r.Context())
	cred := middleware.CredentialFrom(r.Context())

	result, err := d.Wiki.EditPage(r.Context(), cred, req.Title, req.Content, req.Summary)
	if err != nil {
		d.Log.Errorw("edit page", "tenant", p.TenantID, "title", req.Title, "err", err)
		problems.WriteSlug(w, "wiki_unavailable", http.StatusBadGateway, "edit failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"result": result})
}
