package auth

import "net/http"

// Kind discriminates authentication and authorization failures. Handlers
// log the kind but the HTTP layer collapses every authentication kind to a
// single 401 body so callers cannot probe which check failed.
type Kind int

const (
	KindMalformed Kind = iota + 1
	KindUnknownTenant
	KindBadSignature
	KindBadIssuer
	KindBadAudience
	KindExpired
	KindInvalidLifetime
	KindMissingScope
)

func (k Kind) String() string {
	switch k {
	case KindMalformed:
		return "malformed"
	case KindUnknownTenant:
		return "unknown_tenant"
	case KindBadSignature:
		return "bad_signature"
	case KindBadIssuer:
		return "bad_issuer"
	case KindBadAudience:
		return "bad_audience"
	case KindExpired:
		return "expired"
	case KindInvalidLifetime:
		return "invalid_lifetime"
	case KindMissingScope:
		return "missing_scope"
	}
	return "unknown"
}

// HTTPStatus maps a failure kind to the external status contract.
func (k Kind) HTTPStatus() int {
	if k == KindMissingScope {
		return http.StatusForbidden
	}
	return http.StatusUnauthorized
}

// Error is a terminal authentication/authorization failure.
type Error struct {
	Kind Kind
	msg  string
}

func (e *Error) Error() string {
	if e.msg == "" {
		return "auth: " + e.Kind.String()
	}
	return "auth: " + e.Kind.String() + ": " + e.msg
}

func errOf(k Kind, msg string) *Error { return &Error{Kind: k, msg: msg} }

// KindOf extracts the failure kind, or 0 for non-auth errors.
func KindOf(err error) Kind {
	if ae, ok := err.(*Error); ok {
		return ae.Kind
	}
	return 0
}
