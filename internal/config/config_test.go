package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, "server: {}\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, "mysql", cfg.Database.Driver)
	assert.Equal(t, "uploads", cfg.Uploads.Dir)
	assert.Equal(t, 10, cfg.Uploads.MaxPortfolioFiles)
	assert.Equal(t, 120*time.Second, cfg.AnalysisTimeout())
	assert.Equal(t, 1, cfg.Analysis.MaxAttempts)
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL())
	assert.Equal(t, 30*time.Minute, cfg.SweepInterval())
}

func TestLoadReadsValues(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9100
database:
  driver: postgres
  host: db.internal
  port: 5432
  user: talent
  password: secret
  name: talentlens
openai:
  apiKey: file-key
  model: gpt-4o
analysis:
  timeoutSeconds: 60
  maxAttempts: 3
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, 60*time.Second, cfg.AnalysisTimeout())
	assert.Equal(t, 3, cfg.Analysis.MaxAttempts)
	assert.Contains(t, cfg.PostgresDSN(), "host=db.internal")
	assert.Contains(t, cfg.PostgresDSN(), "sslmode=disable")
}

func TestEnvOverridesAPIKey(t *testing.T) {
	path := writeConfig(t, "openai:\n  apiKey: file-key\n")
	t.Setenv("OPENAI_API_KEY", "env-key")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "env-key", cfg.OpenAI.APIKey)
}

func TestMySQLDSN(t *testing.T) {
	path := writeConfig(t, `
database:
  host: localhost
  port: 3306
  user: root
  password: pw
  name: talentlens
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "root:pw@tcp(localhost:3306)/talentlens?parseTime=true&charset=utf8mb4&loc=UTC", cfg.MySQLDSN())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
