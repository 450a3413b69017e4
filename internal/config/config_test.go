package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.json"), "")
	require.NoError(t, err)
	assert.Equal(t, Defaults().ListenAddress, cfg.ListenAddress)
}

func TestLoadOverlaysFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"listen_address":"0.0.0.0:7000","aol_policy":"always"}`), 0o644))

	cfg, err := Load(path, "")
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:7000", cfg.ListenAddress)
	assert.Equal(t, "always", cfg.AOLPolicy)
	assert.Equal(t, Defaults().AdminAddress, cfg.AdminAddress)
}

func TestLoadRejectsInvalidSchema(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"aol_policy":"sometimes"}`), 0o644))

	_, err := Load(path, "")
	assert.Error(t, err)
}

func TestEnvOverridesWinOverFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"listen_address":"0.0.0.0:7000"}`), 0o644))

	t.Setenv("KVSTORED_LISTEN_ADDRESS", "0.0.0.0:9999")
	cfg, err := Load(path, "")
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:9999", cfg.ListenAddress)
}
