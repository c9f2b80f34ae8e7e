package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "repos.txt", cfg.ReposFile)
	assert.Equal(t, "scan_results", cfg.OutputDir)
	assert.Equal(t, "temp_repos", cfg.TempDir)
	assert.Equal(t, 10, cfg.Registry.TimeoutSeconds)
	assert.True(t, cfg.Summarizer.Enabled)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().ReposFile, cfg.ReposFile)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
reposFile: projects.txt
outputDir: /var/reports
registry:
  baseURL: http://registry.local/p2
  timeoutSeconds: 3
summarizer:
  enabled: false
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "projects.txt", cfg.ReposFile)
	assert.Equal(t, "/var/reports", cfg.OutputDir)
	assert.Equal(t, "http://registry.local/p2", cfg.Registry.BaseURL)
	assert.Equal(t, 3, cfg.Registry.TimeoutSeconds)
	assert.False(t, cfg.Summarizer.Enabled)
	assert.Equal(t, "temp_repos", cfg.TempDir, "unset fields keep defaults")
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("reposFile: [broken"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("REPOAUDIT_REPOS_FILE", "env-repos.txt")
	t.Setenv("SCAN_TEMP_DIR", "/tmp/audit")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("OPENAI_MODEL", "local-model")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "env-repos.txt", cfg.ReposFile)
	assert.Equal(t, "/tmp/audit", cfg.TempDir)
	assert.Equal(t, "sk-test", cfg.Summarizer.APIKey)
	assert.Equal(t, "local-model", cfg.Summarizer.Model)
}
