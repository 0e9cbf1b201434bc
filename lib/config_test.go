package lib

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestConfig(t *testing.T, contents string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	t.Setenv("AZURE_REDIS_CONFIG", path)
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("AZURE_REDIS_CONFIG", filepath.Join(t.TempDir(), "missing"))

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, DefaultProfile, cfg.Profile)
	assert.Equal(t, "https://login.microsoftonline.com/common", cfg.Authority())
	assert.Equal(t, "azure-redis://azure/oauth/callback", cfg.RedirectURI())
	assert.Empty(t, cfg.ClientID)
}

func TestLoadConfigProfileOverridesDefault(t *testing.T) {
	writeTestConfig(t, `
[default]
client_id = default-client
tenant_id = default-tenant
store_endpoint = http://localhost:5540

[profile work]
client_id = work-client
redirect_scheme = myapp
`)

	cfg, err := LoadConfig("work")
	require.NoError(t, err)

	assert.Equal(t, "work-client", cfg.ClientID)
	// Keys the profile does not set fall back to the default section.
	assert.Equal(t, "default-tenant", cfg.TenantID)
	assert.Equal(t, "http://localhost:5540", cfg.StoreEndpoint)
	assert.Equal(t, "myapp://azure/oauth/callback", cfg.RedirectURI())
	assert.Equal(t, "https://login.microsoftonline.com/default-tenant", cfg.Authority())
}
