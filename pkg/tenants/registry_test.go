package tenants

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	in32  = []byte("aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	out32 = []byte("bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")
)

func TestRegistryLookup(t *testing.T) {
	reg, err := NewRegistry([]Credential{
		{TenantID: "wiki-a", InboundSecret: in32, OutboundSecret: out32, DailyTokenLimit: 5000},
	})
	require.NoError(t, err)
	require.Equal(t, 1, reg.Len())

	c, ok := reg.Lookup("wiki-a")
	require.True(t, ok)
	assert.Equal(t, int64(5000), c.DailyTokenLimit)

	_, ok = reg.Lookup("wiki-b")
	assert.False(t, ok, "unknown tenant must not match")
}

func TestRegistryValidation(t *testing.T) {
	t.Run("short secret", func(t *testing.T) {
		_, err := NewRegistry([]Credential{
			{TenantID: "wiki-a", InboundSecret: []byte("short"), OutboundSecret: out32},
		})
		assert.Error(t, err)
	})
	t.Run("invalid id", func(t *testing.T) {
		for _, id := range []string{"", "../etc", "a/b", "x y", "héllo"} {
			_, err := NewRegistry([]Credential{
				{TenantID: id, InboundSecret: in32, OutboundSecret: out32},
			})
			assert.Error(t, err, "id=%q", id)
		}
	})
	t.Run("duplicate id", func(t *testing.T) {
		_, err := NewRegistry([]Credential{
			{TenantID: "wiki-a", InboundSecret: in32, OutboundSecret: out32},
			{TenantID: "wiki-a", InboundSecret: in32, OutboundSecret: out32},
		})
		assert.Error(t, err)
	})
}

func TestFromJSON(t *testing.T) {
	seed := `[{"tenant_id":"wiki-a","mw_to_mcp_secret":"aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa","mcp_to_mw_secret":"bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb","daily_token_limit":1234,"api_url":"https://a.example/api.php"}]`
	reg, err := FromJSON(seed)
	require.NoError(t, err)
	c, ok := reg.Lookup("wiki-a")
	require.True(t, ok)
	assert.Equal(t, int64(1234), c.DailyTokenLimit)
	assert.Equal(t, "https://a.example/api.php", c.APIURL)

	_, err = FromJSON("{not json")
	assert.Error(t, err)
}

func TestFromYAMLFile(t *testing.T) {
	doc := `tenants:
  - tenant_id: wiki-a
    mw_to_mcp_secret: aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa
    mcp_to_mw_secret: bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb
  - tenant_id: wiki-b
    mw_to_mcp_secret: cccccccccccccccccccccccccccccccc
    mcp_to_mw_secret: dddddddddddddddddddddddddddddddd
    daily_token_limit: 777
`
	path := filepath.Join(t.TempDir(), "tenants.yaml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	reg, err := FromYAMLFile(path)
	require.NoError(t, err)
	assert.Equal(t, 2, reg.Len())
	c, ok := reg.Lookup("wiki-b")
	require.True(t, ok)
	assert.Equal(t, int64(777), c.DailyTokenLimit)

	_, err = FromYAMLFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidID(t *testing.T) {
	assert.True(t, ValidID("wiki-a"))
	assert.True(t, ValidID("Wiki_01"))
	assert.False(t, ValidID(".."))
	assert.False(t, ValidID("a/../b"))
	assert.False(t, ValidID(string(make([]byte, 80))))
}
