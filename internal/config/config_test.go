package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "wolt", cfg.DefaultProvider)
	assert.True(t, cfg.EnrichEnabled)
	assert.Equal(t, 2, cfg.MaxRetries)
	assert.Equal(t, 500*time.Millisecond, cfg.RetryBaseDelay)
	assert.Equal(t, 30*time.Second, cfg.JobTimeout)
	assert.Equal(t, 20*time.Second, cfg.SearchTimeout)
}

func TestLoadTTLOrdering(t *testing.T) {
	cfg := Load()

	assert.Equal(t, 1209600*time.Second, cfg.FoundTTL)
	assert.Equal(t, 86400*time.Second, cfg.NotFoundTTL)
	assert.Equal(t, 60*time.Second, cfg.LockTTL)

	assert.Greater(t, cfg.FoundTTL, cfg.NotFoundTTL)
	assert.Greater(t, cfg.NotFoundTTL, cfg.LockTTL)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("MAX_RETRIES", "5")
	t.Setenv("ENRICH_ENABLED", "false")
	t.Setenv("SEARCH_RPS", "2.5")

	cfg := Load()
	assert.Equal(t, 5, cfg.MaxRetries)
	assert.False(t, cfg.EnrichEnabled)
	assert.Equal(t, 2.5, cfg.SearchRPS)
}

func TestLoadRejectsBadTTLOrdering(t *testing.T) {
	t.Setenv("FOUND_TTL_SECONDS", "10")
	t.Setenv("NOT_FOUND_TTL_SECONDS", "100")

	require.Panics(t, func() { Load() })
}
