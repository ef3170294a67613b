package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/picogrid/mu-attack/pkg/config"
)

func saveTestBackends(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	require.NoError(t, config.SaveBackends(&config.Backends{
		Backends: []config.Backend{
			{Name: "local", URL: config.DefaultBackendURL},
			{Name: "gpu", URL: "http://gpu:7860", APIKeyEnv: "GPU_KEY"},
		},
		Selected: "local",
	}))
}

func TestSelectBackendByName(t *testing.T) {
	saveTestBackends(t)

	require.NoError(t, selectBackend(envSelectCmd, []string{"gpu"}))

	cfg, err := config.LoadBackends()
	require.NoError(t, err)
	assert.Equal(t, "gpu", cfg.Selected)
	assert.Len(t, cfg.Backends, 2)
}

func TestSelectUnknownBackend(t *testing.T) {
	saveTestBackends(t)

	err := selectBackend(envSelectCmd, []string{"missing"})
	assert.ErrorContains(t, err, "backend missing not found")

	cfg, err := config.LoadBackends()
	require.NoError(t, err)
	assert.Equal(t, "local", cfg.Selected)
}

func TestDropBackend(t *testing.T) {
	cfg := &config.Backends{
		Backends: []config.Backend{{Name: "local"}, {Name: "gpu"}},
		Selected: "gpu",
	}

	dropBackend(cfg, "local")
	assert.Equal(t, "gpu", cfg.Selected)
	require.Len(t, cfg.Backends, 1)

	dropBackend(cfg, "gpu")
	assert.Empty(t, cfg.Selected)
	assert.Empty(t, cfg.Backends)
}
