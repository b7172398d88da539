package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func analyzerNames(cfg ConfigData) map[string]bool {
	names := make(map[string]bool)
	for _, a := range analyzers(cfg) {
		names[a.Name] = true
	}
	return names
}

func TestAnalyzers(t *testing.T) {
	names := analyzerNames(ConfigData{Staticcheck: []string{"SA4006", "NOPE"}})

	assert.True(t, names["noosexit"])
	assert.True(t, names["ineffassign"])
	assert.True(t, names["nilerr"])
	assert.True(t, names["SA4006"])
	assert.False(t, names["SA1000"])
	assert.False(t, names["NOPE"])
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"staticcheck": ["SA1000"]}`), 0o600))
	t.Setenv("STATICLINT_CONFIG", path)

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, []string{"SA1000"}, cfg.Staticcheck)
}

func TestLoadConfigMissingFile(t *testing.T) {
	t.Setenv("STATICLINT_CONFIG", filepath.Join(t.TempDir(), "absent.json"))

	_, err := loadConfig()
	assert.Error(t, err)
}
