// pkg/auth/issuer.go
package auth

import (
	"time"

	"mwmcp/pkg/tenants"
)

// Issuer mints short-lived tokens for calls this server makes back to the
// tenant's wiki. These are server-to-server credentials, not user tokens.
type Issuer struct {
	reg      *tenants.Registry
	identity string // our iss ("mw-mcp-server")
	audience string // the extension's identity ("MWAssistant")
	lifetime time.Duration
}

func NewIssuer(reg *tenants.Registry, identity, audience string, lifetime time.Duration) *Issuer {
	return &Issuer{reg: reg, identity: identity, audience: audience, lifetime: lifetime}
}

// Issue signs a fresh token with the tenant's outbound secret. Every call
// mints a new token; none is reused even within the 30-second window.
func (i *Issuer) Issue(tenantID string, scopes []string, now time.Time) (string, error) {
	cred, ok := i.reg.Lookup(tenantID)
	if !ok {
		return "", errOf(KindUnknownTenant, "")
	}
	c := Claims{
		Issuer:    i.identity,
		Audience:  i.audience,
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(i.lifetime).Unix(),
		Scopes:    scopes,
	}
	return Sign(c, cred.OutboundSecret)
}
