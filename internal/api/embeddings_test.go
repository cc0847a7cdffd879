package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"mwmcp/pkg/auth"
	"mwmcp/pkg/config"
	"mwmcp/pkg/tenants"
	"mwmcp/pkg/usage"
)

var (
	testInbound  = []byte("0123456789abcdef0123456789abcdef")
	testOutbound = []byte("fedcba9876543210fedcba9876543210")
)

// testServer mounts the full route tree with an in-memory ledger and no
// vector store, the dev configuration the handlers must tolerate.
func testServer(t *testing.T) http.Handler {
	t.Helper()
	reg, err := tenants.NewRegistry([]tenants.Credential{
		{TenantID: "wiki-a", InboundSecret: testInbound, OutboundSecret: testOutbound},
	})
	require.NoError(t, err)
	verifier := auth.NewVerifier(reg, "MWAssistant", "mw-mcp-server", 30*time.Second, 5*time.Second)

	d := Deps{
		Cfg:    config.Config{DailyTokenLimit: 1000},
		Log:    zap.NewNop().Sugar(),
		Ledger: usage.NewMemory(),
	}
	r := chi.NewRouter()
	RegisterRoutes(r, d, reg, verifier)
	return r
}

func syncToken(t *testing.T, scopes []string) string {
	t.Helper()
	now := time.Now().Unix()
	tok, err := auth.Sign(auth.Claims{
		Issuer:    "MWAssistant",
		Audience:  "mw-mcp-server",
		IssuedAt:  now,
		ExpiresAt: now + 30,
		User:      "PageSyncBot",
		Roles:     []string{"bot"},
		Scopes:    scopes,
	}, testInbound)
	require.NoError(t, err)
	return tok
}

func syncRequest(h http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestEmbeddingRoutesRequireScope(t *testing.T) {
	h := testServer(t)
	tok := syncToken(t, []string{"search"}) // wrong scope

	for _, c := range []struct{ method, path string }{
		{http.MethodPost, "/t/wiki-a/v1/embeddings/page"},
		{http.MethodDelete, "/t/wiki-a/v1/embeddings/page"},
		{http.MethodGet, "/t/wiki-a/v1/embeddings/stats"},
	} {
		rec := syncRequest(h, c.method, c.path, tok, `{"title":"Main Page","content":"hello world text"}`)
		assert.Equal(t, http.StatusForbidden, rec.Code, "%s %s", c.method, c.path)
	}
}

func TestUpsertEmbeddingValidation(t *testing.T) {
	h := testServer(t)
	tok := syncToken(t, []string{"embeddings"})

	for _, body := range []string{"", "{not json", `{"title":"","content":"x"}`, `{"title":"Main Page"}`} {
		rec := syncRequest(h, http.MethodPost, "/t/wiki-a/v1/embeddings/page", tok, body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "body=%q", body)
	}
}

func TestEmbeddingRoutesWithoutStore(t *testing.T) {
	// No DATABASE_URL means no vector store; sync calls must report that
	// instead of panicking.
	h := testServer(t)
	tok := syncToken(t, []string{"embeddings"})

	rec := syncRequest(h, http.MethodGet, "/t/wiki-a/v1/embeddings/stats", tok, "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "search_unavailable")

	rec = syncRequest(h, http.MethodDelete, "/t/wiki-a/v1/embeddings/page", tok, `{"title":"Main Page"}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = syncRequest(h, http.MethodPost, "/t/wiki-a/v1/embeddings/page", tok, `{"title":"Main Page","content":"hello world text"}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestEmbeddingsScopeMapping(t *testing.T) {
	s, ok := auth.RequiredScope(auth.EndpointEmbeddings)
	require.True(t, ok)
	assert.Equal(t, auth.ScopeEmbeddings, s)

	p := auth.Principal{TenantID: "wiki-a", User: "PageSyncBot", Scopes: []string{"embeddings"}}
	assert.NoError(t, auth.Authorize(p, auth.EndpointEmbeddings))
	assert.Error(t, auth.Authorize(p, auth.EndpointSearch))
}
