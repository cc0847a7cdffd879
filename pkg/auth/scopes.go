// pkg/auth/scopes.go
package auth

// Endpoint names a protected operation class.
type Endpoint string

const (
	EndpointChatCompletion Endpoint = "chat_completion"
	EndpointSearch         Endpoint = "search"
	EndpointSMWQuery       Endpoint = "smw_query"
	EndpointEditPage       Endpoint = "edit_page"
	EndpointUsageStats     Endpoint = "usage_stats"
	EndpointEmbeddings     Endpoint = "embeddings"
)

// Scopes granted by the MWAssistant extension and required per endpoint.
const (
	ScopeChatCompletion = "chat_completion"
	ScopeSearch         = "search"
	ScopeSMWQuery       = "smw_query"
	ScopeEditPage       = "edit_page"
	ScopeUsageStats     = "usage_stats"
	ScopeEmbeddings     = "embeddings"

	// Outbound scopes consumed by the extension's own verifier.
	ScopePageRead  = "page_read"
	ScopePageWrite = "page_write"
)

var scopeByEndpoint = map[Endpoint]string{
	EndpointChatCompletion: ScopeChatCompletion,
	EndpointSearch:         ScopeSearch,
	EndpointSMWQuery:       ScopeSMWQuery,
	EndpointEditPage:       ScopeEditPage,
	EndpointUsageStats:     ScopeUsageStats,
	EndpointEmbeddings:     ScopeEmbeddings,
}

// RequiredScope looks up the static endpoint→scope table.
func RequiredScope(e Endpoint) (string, bool) {
	s, ok := scopeByEndpoint[e]
	return s, ok
}

// Authorize checks that the principal's granted scopes contain the
// endpoint's required scope. Unknown endpoints fail closed.
func Authorize(p Principal, e Endpoint) error {
	required, ok := scopeByEndpoint[e]
	if !ok || !p.HasScope(required) {
		return errOf(KindMissingScope, string(e))
	}
	return nil
}
