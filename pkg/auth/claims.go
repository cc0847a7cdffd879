// pkg/auth/claims.go
package auth

import (
	"fmt"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jws"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

// DefaultClientID is assumed when an inbound token omits client_id.
const DefaultClientID = "MWAssistant"

// Claims is the strongly-typed claim set exchanged in both directions.
// Tokens are created fresh per request and consumed exactly once; nothing
// here is ever persisted.
type Claims struct {
	Issuer    string
	Audience  string
	IssuedAt  int64
	ExpiresAt int64
	User      string
	Roles     []string
	Scopes    []string
	ClientID  string
}

// Lifetime returns exp-iat.
func (c Claims) Lifetime() time.Duration {
	return time.Duration(c.ExpiresAt-c.IssuedAt) * time.Second
}

// Sign produces the compact HS256 serialization (header.payload.signature),
// wire-compatible with conventional JWT consumers such as the MWAssistant
// PHP extension.
func Sign(c Claims, secret []byte) (string, error) {
	b := jwt.NewBuilder().
		Issuer(c.Issuer).
		Audience([]string{c.Audience}).
		IssuedAt(time.Unix(c.IssuedAt, 0).UTC()).
		Expiration(time.Unix(c.ExpiresAt, 0).UTC()).
		Claim("scope", c.Scopes)
	if c.User != "" {
		b = b.Claim("user", c.User)
	}
	if c.Roles != nil {
		b = b.Claim("roles", c.Roles)
	}
	if c.ClientID != "" {
		b = b.Claim("client_id", c.ClientID)
	}
	tok, err := b.Build()
	if err != nil {
		return "", fmt.Errorf("auth: build claims: %w", err)
	}
	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.HS256, secret))
	if err != nil {
		return "", fmt.Errorf("auth: sign: %w", err)
	}
	return string(signed), nil
}

// parseUnverified decodes the compact serialization without trusting it.
// Nothing extracted here may feed an authorization decision before
// verifySignature has succeeded.
func parseUnverified(raw string) (jwt.Token, error) {
	return jwt.ParseInsecure([]byte(raw))
}

// verifySignature recomputes the HMAC over header+payload. The expected
// algorithm is pinned to HS256 here; the token header's alg field is never
// consulted for trust decisions, so algorithm confusion is impossible. The
// comparison inside jws is constant time.
func verifySignature(raw string, secret []byte) error {
	_, err := jws.Verify([]byte(raw), jws.WithKey(jwa.HS256, secret))
	return err
}

// claimsFromToken converts a verified token into typed Claims, rejecting
// wrong-shaped payloads instead of coercing them.
func claimsFromToken(tok jwt.Token) (Claims, error) {
	var c Claims
	c.Issuer = tok.Issuer()
	if aud := tok.Audience(); len(aud) == 1 {
		c.Audience = aud[0]
	} else {
		return Claims{}, errOf(KindMalformed, "aud must be a single value")
	}
	if _, ok := tok.Get(jwt.IssuedAtKey); !ok {
		return Claims{}, errOf(KindMalformed, "missing iat")
	}
	if _, ok := tok.Get(jwt.ExpirationKey); !ok {
		return Claims{}, errOf(KindMalformed, "missing exp")
	}
	c.IssuedAt = tok.IssuedAt().Unix()
	c.ExpiresAt = tok.Expiration().Unix()

	user, ok := stringClaim(tok, "user")
	if !ok || user == "" {
		return Claims{}, errOf(KindMalformed, "missing user claim")
	}
	c.User = user

	roles, ok := stringSliceClaim(tok, "roles")
	if !ok {
		return Claims{}, errOf(KindMalformed, "roles claim must be a string list")
	}
	c.Roles = roles

	scopes, ok := stringSliceClaim(tok, "scope")
	if !ok {
		return Claims{}, errOf(KindMalformed, "scope claim must be a string list")
	}
	c.Scopes = scopes

	if cid, ok := stringClaim(tok, "client_id"); ok && cid != "" {
		c.ClientID = cid
	} else {
		c.ClientID = DefaultClientID
	}
	return c, nil
}

func stringClaim(tok jwt.Token, name string) (string, bool) {
	v, ok := tok.Get(name)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func stringSliceClaim(tok jwt.Token, name string) ([]string, bool) {
	v, ok := tok.Get(name)
	if !ok {
		return nil, false
	}
	switch vv := v.(type) {
	case []string:
		return vv, true
	case []interface{}:
		out := make([]string, 0, len(vv))
		for _, e := range vv {
			s, ok := e.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	}
	return nil, false
}
