package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir()) // no config.yaml present

	cfg, err := Load("test")
	require.NoError(t, err)

	assert.Equal(t, "8090", cfg.Port)
	assert.Equal(t, "local", cfg.Env)
	assert.Equal(t, "test", cfg.Version)
	assert.Equal(t, ",", cfg.Data.DefaultSeparator)
	assert.Equal(t, 2, cfg.Jobs.MaxDataJobs)
	assert.False(t, cfg.AI.Enabled())
	assert.False(t, cfg.Database.Enabled)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("PORT", "9000")
	t.Setenv("DATA_ROOT", "/tmp/autoprep")
	t.Setenv("AI_PROVIDER", "anthropic")
	t.Setenv("AI_MODEL", "claude-sonnet-4-20250514")
	t.Setenv("AI_API_KEY", "secret")

	cfg, err := Load("test")
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, filepath.Join("/tmp/autoprep", "uploads"), cfg.Data.UploadsDir())
	assert.True(t, cfg.AI.Enabled())
	assert.Equal(t, "secret", cfg.AI.APIKey)
}

func TestValidateRejectsUnknownProvider(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("AI_PROVIDER", "gemini")

	_, err := Load("test")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ai.provider")
}

func TestDatabaseURL(t *testing.T) {
	d := DatabaseConfig{
		Host: "db", Port: 5432, User: "u", Password: "p",
		Database: "jobs", SSLMode: "disable",
	}
	assert.Equal(t, "postgres://u:p@db:5432/jobs?sslmode=disable", d.URL())
}

func TestEnsureDirsCreatesTree(t *testing.T) {
	d := DataConfig{Root: filepath.Join(t.TempDir(), "data")}
	require.NoError(t, d.EnsureDirs())
	assert.DirExists(t, d.UploadsDir())
	assert.DirExists(t, d.ProcessedDir())
	assert.DirExists(t, d.ArtifactsDir())
	assert.DirExists(t, d.ModelsDir())
}
