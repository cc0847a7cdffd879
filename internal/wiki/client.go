// internal/wiki/client.go
package wiki

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"mwmcp/pkg/auth"
	"mwmcp/pkg/tenants"
)

// Client proxies calls to a tenant's MediaWiki action API. Every call mints
// a fresh outbound token via the issuer; the MWAssistant extension verifies
// it with the tenant's mcp_to_mw secret.
type Client struct {
	httpc       *http.Client
	issuer      *auth.Issuer
	defaultBase string
}

func New(issuer *auth.Issuer, defaultBase string) *Client {
	return &Client{
		httpc:       &http.Client{Timeout: 30 * time.Second},
		issuer:      issuer,
		defaultBase: defaultBase,
	}
}

func (c *Client) apiURL(cred tenants.Credential) (string, error) {
	base := cred.APIURL
	if base == "" {
		base = c.defaultBase
	}
	if base == "" {
		return "", fmt.Errorf("wiki: no api url configured for tenant %q", cred.TenantID)
	}
	return base, nil
}

func (c *Client) call(ctx context.Context, cred tenants.Credential, scopes []string, form url.Values) (map[string]any, error) {
	api, err := c.apiURL(cred)
	if err != nil {
		return nil, err
	}
	token, err := c.issuer.Issue(cred.TenantID, scopes, time.Now())
	if err != nil {
		return nil, fmt.Errorf("wiki: issue token: %w", err)
	}
	form.Set("format", "json")
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, api, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("wiki: request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("wiki: call: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("wiki: status %d: %s", resp.StatusCode, snippet)
	}
	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("wiki: decode: %w", err)
	}
	return out, nil
}

// EditPage writes page content through the action API.
func (c *Client) EditPage(ctx context.Context, cred tenants.Credential, title, content, summary string) (map[string]any, error) {
	form := url.Values{}
	form.Set("action", "edit")
	form.Set("title", title)
	form.Set("text", content)
	form.Set("summary", summary)
	return c.call(ctx, cred, []string{auth.ScopePageWrite}, form)
}

// SMWQuery runs a Semantic MediaWiki ask query.
func (c *Client) SMWQuery(ctx context.Context, cred tenants.Credential, query string) (map[string]any, error) {
	form := url.Values{}
	form.Set("action", "ask")
	form.Set("query", query)
	return c.call(ctx, cred, []string{auth.ScopeSMWQuery, auth.ScopePageRead}, form)
}
