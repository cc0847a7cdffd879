// internal/llm/client.go
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"mwmcp/pkg/config"
)

// Usage mirrors the provider's token accounting; totals feed the ledger.
type Usage struct {
	PromptTokens     int64 `json:"prompt_tokens"`
	CompletionTokens int64 `json:"completion_tokens"`
	TotalTokens      int64 `json:"total_tokens"`
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Client talks to an OpenAI-compatible API for chat completions and
// embeddings.
type Client struct {
	httpc          *http.Client
	baseURL        string
	apiKey         string
	model          string
	embeddingModel string
}

func New(cfg config.Config) *Client {
	return &Client{
		httpc:          &http.Client{Timeout: 60 * time.Second},
		baseURL:        cfg.OpenAIBaseURL,
		apiKey:         cfg.OpenAIAPIKey,
		model:          cfg.OpenAIModel,
		embeddingModel: cfg.EmbeddingModel,
	}
}

func (c *Client) post(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("llm: marshal: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("llm: request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("llm: %s: %w", path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("llm: %s: status %d: %s", path, resp.StatusCode, snippet)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("llm: %s: decode: %w", path, err)
	}
	return nil
}

// ChatCompletion runs one completion round and returns the assistant
// message plus provider-reported token usage.
func (c *Client) ChatCompletion(ctx context.Context, messages []Message) (Message, Usage, error) {
	var out struct {
		Choices []struct {
			Message Message `json:"message"`
		} `json:"choices"`
		Usage Usage `json:"usage"`
	}
	payload := map[string]any{"model": c.model, "messages": messages}
	if err := c.post(ctx, "/chat/completions", payload, &out); err != nil {
		return Message{}, Usage{}, err
	}
	if len(out.Choices) == 0 {
		return Message{}, Usage{}, fmt.Errorf("llm: empty choices")
	}
	return out.Choices[0].Message, out.Usage, nil
}

// Embed returns the embedding vector for one input string.
func (c *Client) Embed(ctx context.Context, input string) ([]float32, Usage, error) {
	var out struct {
		Data []struct {
			Embedding []float32 `json:"embedding"`
		} `json:"data"`
		Usage Usage `json:"usage"`
	}
	payload := map[string]any{"model": c.embeddingModel, "input": input}
	if err := c.post(ctx, "/embeddings", payload, &out); err != nil {
		return nil, Usage{}, err
	}
	if len(out.Data) == 0 {
		return nil, Usage{}, fmt.Errorf("llm: empty embedding data")
	}
	return out.Data[0].Embedding, out.Usage, nil
}
