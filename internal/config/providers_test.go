package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadProvidersBuiltins(t *testing.T) {
	r, err := LoadProviders("")
	require.NoError(t, err)

	wolt, ok := r.Get("wolt")
	require.True(t, ok)
	assert.Equal(t, "wolt.com", wolt.Domain)
	assert.Contains(t, wolt.URLTemplate, "%s")

	_, ok = r.Get("nosuch")
	assert.False(t, ok)
}

func TestLoadProvidersYAMLMerge(t *testing.T) {
	path := filepath.Join(t.TempDir(), "providers.yaml")
	yaml := `
providers:
  - key: wolt
    domain: wolt.example
    url_template: "https://wolt.example/r/%s"
  - key: ubereats
    domain: ubereats.com
    url_template: "https://www.ubereats.com/store/%s"
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	r, err := LoadProviders(path)
	require.NoError(t, err)

	// File entries override built-ins of the same key.
	wolt, ok := r.Get("wolt")
	require.True(t, ok)
	assert.Equal(t, "wolt.example", wolt.Domain)

	// And add new providers next to the remaining built-ins.
	_, ok = r.Get("ubereats")
	assert.True(t, ok)
	_, ok = r.Get("tenbis")
	assert.True(t, ok)
}

func TestLoadProvidersRejectsMissingKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "providers.yaml")
	require.NoError(t, os.WriteFile(path, []byte("providers:\n  - domain: x.com\n"), 0o600))

	_, err := LoadProviders(path)
	assert.Error(t, err)
}

func TestLoadProvidersMissingFile(t *testing.T) {
	_, err := LoadProviders(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
