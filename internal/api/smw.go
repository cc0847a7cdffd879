// internal/api/smw.go
package api

import (
	"encoding/json"
	"net/http"

	"github.com/jmespath/go-jmespath"

	"mwmcp/pkg/middleware"
	"mwmcp/pkg/problems"
)

// handleSMWQuery proxies a Semantic MediaWiki ask query through the
// outbound-token channel. An optional JMESPath expression trims the SMW
// response down to what the caller actually wants.
func (d Deps) handleSMWQuery(w http.ResponseWriter, r *http.Request) {
	var req SMWQueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Query == "" {
		problems.WriteSlug(w, "invalid_request", http.StatusBadRequest, "query is required")
		return
	}

	p := middleware.PrincipalFrom(r.Context())
	cred := middleware.CredentialFrom(r.Context())

	raw, err := d.Wiki.SMWQuery(r.Context(), cred, req.Query)
	if err != nil {
		d.Log.Errorw("smw query", "tenant", p.TenantID, "err", err)
		problems.WriteSlug(w, "wiki_unavailable", http.StatusBadGateway, "smw query failed")
		return
	}

	var result any = raw
	if req.Extract != "" {
		result, err = jmespath.Search(req.Extract, raw)
		if err != nil {
			problems.WriteSlug(w, "invalid_extract", http.StatusBadRequest, "extract expression did not compile")
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{"result": result})
}
