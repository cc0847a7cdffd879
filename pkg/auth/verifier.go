// pkg/auth/verifier.go
package auth

import (
	"time"

	"mwmcp/pkg/tenants"
)

// Principal is the authenticated identity for exactly one request. It is
// threaded through the request context and never cached or shared.
type Principal struct {
	TenantID string
	User     string
	Roles    []string
	Scopes   []string
	ClientID string
}

func (p Principal) HasScope(s string) bool {
	for _, g := range p.Scopes {
		if g == s {
			return true
		}
	}
	return false
}

// Verifier validates inbound tokens minted by the MWAssistant extension.
type Verifier struct {
	reg      *tenants.Registry
	issuer   string // expected iss
	audience string // expected aud
	lifetime time.Duration
	skew     time.Duration
}

func NewVerifier(reg *tenants.Registry, issuer, audience string, lifetime, skew time.Duration) *Verifier {
	return &Verifier{reg: reg, issuer: issuer, audience: audience, lifetime: lifetime, skew: skew}
}

// Authenticate runs the ordered check sequence. tenantID comes from the
// routing context (URL path or header), never from the token itself: a
// token must not be able to self-select another tenant's secret. Claim
// content is only trusted after the signature check passes.
func (v *Verifier) Authenticate(tenantID, raw string, now time.Time) (Principal, error) {
	tok, err := parseUnverified(raw)
	if err != nil {
		return Principal{}, errOf(KindMalformed, "compact serialization")
	}

	cred, ok := v.reg.Lookup(tenantID)
	if !ok {
		return Principal{}, errOf(KindUnknownTenant, "")
	}

	if err := verifySignature(raw, cred.InboundSecret); err != nil {
		return Principal{}, errOf(KindBadSignature, "")
	}

	c, err := claimsFromToken(tok)
	if err != nil {
		return Principal{}, err
	}

	// Exact string equality, no wildcards.
	if c.Issuer != v.issuer {
		return Principal{}, errOf(KindBadIssuer, "")
	}
	if c.Audience != v.audience {
		return Principal{}, errOf(KindBadAudience, "")
	}

	iat := time.Unix(c.IssuedAt, 0)
	exp := time.Unix(c.ExpiresAt, 0)
	if now.Before(iat.Add(-v.skew)) || now.After(exp.Add(v.skew)) {
		return Principal{}, errOf(KindExpired, "")
	}

	// Tokens minted with a lifetime other than policy (30s) are rejected
	// even when otherwise valid and currently within their window.
	if c.Lifetime() != v.lifetime {
		return Principal{}, errOf(KindInvalidLifetime, "")
	}

	return Principal{
		TenantID: tenantID,
		User:     c.User,
		Roles:    c.Roles,
		Scopes:   c.Scopes,
		ClientID: c.ClientID,
	}, nil
}
