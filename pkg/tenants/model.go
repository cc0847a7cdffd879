package tenants

import "regexp"

// MinSecretLen is the minimum accepted length for either signing secret.
const MinSecretLen = 32

// Credential holds one wiki tenant's pair of independent HMAC secrets.
// InboundSecret verifies tokens minted by the MWAssistant extension;
// OutboundSecret signs tokens this server mints for calls back to the wiki.
type Credential struct {
	TenantID        string
	InboundSecret   []byte
	OutboundSecret  []byte
	DailyTokenLimit int64  // 0 means the process-wide default applies
	APIURL          string // tenant's api.php endpoint, optional
}

// Tenant ids travel in URLs and storage keys, so keep them to a safe
// alphabet (no path traversal, no separator injection).
var idPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)

func ValidID(id string) bool { return idPattern.MatchString(id) }
