// internal/api/models.go
package api

import (
	"mwmcp/internal/llm"
	"mwmcp/internal/search"
	"mwmcp/pkg/usage"
)

type ChatRequest struct {
	Messages []llm.Message `json:"messages"`
}

type ChatResponse struct {
	Reply           llm.Message `json:"reply"`
	Usage           llm.Usage   `json:"usage"`
	TokensRemaining int64       `json:"tokens_remaining"`
	QuotaExhausted  bool        `json:"quota_exhausted"`
}

type SearchResponse struct {
	Query   string          `json:"query"`
	Results []search.Result `json:"results"`
}

type SMWQueryRequest struct {
	Query string `json:"query"`
	// Extract is an optional JMESPath expression applied to the SMW API
	// response before it is returned.
	Extract string `json:"extract,omitempty"`
}

type EditPageRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Summary string `json:"summary,omitempty"`
}

type UpsertEmbeddingRequest struct {
	Title     string `json:"title"`
	Content   string `json:"content"`
	Namespace int    `json:"namespace,omitempty"`
}

type DeleteEmbeddingRequest struct {
	Title string `json:"title"`
}

// OperationResult reports the outcome of an embedding sync call.
type OperationResult struct {
	Status string `json:"status"` // "updated" or "deleted"
	Count  int64  `json:"count"`
}

type UsageResponse struct {
	TokensUsed      int64            `json:"tokens_used"`
	TokensRemaining int64            `json:"tokens_remaining"`
	Limit           int64            `json:"limit"`
	RequestsToday   int64            `json:"requests_today"`
	ResetAt         string           `json:"reset_at"`
	History         []usage.DayUsage `json:"history"`
}
