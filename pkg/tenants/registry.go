// pkg/tenants/registry.go
package tenants

import (
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Registry is the process-wide tenant credential map. It is built once at
// startup and never mutated, so lookups need no synchronization. An unknown
// tenant id matches nothing regardless of what a presented token claims.
type Registry struct {
	byID map[string]Credential
}

// NewRegistry validates and freezes the given credentials.
func NewRegistry(creds []Credential) (*Registry, error) {
	byID := make(map[string]Credential, len(creds))
	for _, c := range creds {
		if !ValidID(c.TenantID) {
			return nil, fmt.Errorf("tenants: invalid tenant id %q", c.TenantID)
		}
		if len(c.InboundSecret) < MinSecretLen || len(c.OutboundSecret) < MinSecretLen {
			return nil, fmt.Errorf("tenants: tenant %q: secrets must be at least %d bytes", c.TenantID, MinSecretLen)
		}
		if _, dup := byID[c.TenantID]; dup {
			return nil, fmt.Errorf("tenants: duplicate tenant id %q", c.TenantID)
		}
		byID[c.TenantID] = c
	}
	return &Registry{byID: byID}, nil
}

// Lookup returns the credential for id. Fails closed: ok=false for any id
// not present at startup.
func (r *Registry) Lookup(id string) (Credential, bool) {
	c, ok := r.byID[id]
	return c, ok
}

// Len reports how many tenants were registered.
func (r *Registry) Len() int { return len(r.byID) }

// seedEntry is the external configuration shape, shared by the env JSON
// seed and the YAML tenants file. Secret names match the MWAssistant
// extension's LocalSettings keys.
type seedEntry struct {
	TenantID        string `json:"tenant_id" yaml:"tenant_id"`
	MWToMCPSecret   string `json:"mw_to_mcp_secret" yaml:"mw_to_mcp_secret"`
	MCPToMWSecret   string `json:"mcp_to_mw_secret" yaml:"mcp_to_mw_secret"`
	DailyTokenLimit int64  `json:"daily_token_limit,omitempty" yaml:"daily_token_limit,omitempty"`
	APIURL          string `json:"api_url,omitempty" yaml:"api_url,omitempty"`
}

func credentialsFromSeed(entries []seedEntry) []Credential {
	creds := make([]Credential, 0, len(entries))
	for _, e := range entries {
		creds = append(creds, Credential{
			TenantID:        e.TenantID,
			InboundSecret:   []byte(e.MWToMCPSecret),
			OutboundSecret:  []byte(e.MCPToMWSecret),
			DailyTokenLimit: e.DailyTokenLimit,
			APIURL:          e.APIURL,
		})
	}
	return creds
}

// FromJSON builds a registry from the TENANT_SEED_JSON payload.
func FromJSON(seed string) (*Registry, error) {
	var entries []seedEntry
	if err := json.Unmarshal([]byte(seed), &entries); err != nil {
		return nil, fmt.Errorf("tenants: parse seed json: %w", err)
	}
	return NewRegistry(credentialsFromSeed(entries))
}

// FromYAMLFile builds a registry from a TENANTS_FILE document of the form:
//
//	tenants:
//	  - tenant_id: wiki-a
//	    mw_to_mcp_secret: "..."
//	    mcp_to_mw_secret: "..."
func FromYAMLFile(path string) (*Registry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("tenants: read %s: %w", path, err)
	}
	var doc struct {
		Tenants []seedEntry `yaml:"tenants"`
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("tenants: parse %s: %w", path, err)
	}
	return NewRegistry(credentialsFromSeed(doc.Tenants))
}
