package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "no-existe.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 8000, cfg.API.Port)
	assert.Equal(t, []string{"*"}, cfg.API.AllowedOrigins)
	assert.Equal(t, 3306, cfg.Database.Port)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gestiondash.yaml")
	yml := `
api:
  port: 9090
  allowed_origins: ["https://dash.example.com"]
database:
  host: db.interna
  username: lector
  database: callcenter
kpi:
  efectivas: [1, 2]
  exitosas: [1]
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o600))

	t.Setenv("DB_HOST", "10.0.0.5")
	t.Setenv("DB_PORT", "3307")
	t.Setenv("DB_PASSWORD", "secreto")
	t.Setenv("GESTIONDASH_ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.API.Port)
	assert.Equal(t, "10.0.0.5", cfg.Database.Host)
	assert.Equal(t, 3307, cfg.Database.Port)
	assert.Equal(t, "lector", cfg.Database.Username)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.API.AllowedOrigins)
	assert.Equal(t, []int{1, 2}, cfg.KPI.Efectivas)
	assert.Equal(t, "lector:secreto@tcp(10.0.0.5:3307)/callcenter?parseTime=true&charset=utf8mb4", cfg.Database.DSN())
	assert.NoError(t, cfg.Validate())
}

func TestLoad_InvalidPort(t *testing.T) {
	t.Setenv("DB_PORT", "abc")
	_, err := Load(filepath.Join(t.TempDir(), "x.yaml"))
	assert.ErrorContains(t, err, "DB_PORT inválido")
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api: [\n"), 0o600))
	_, err := Load(path)
	assert.ErrorContains(t, err, "error parseando YAML")
}

func TestValidate_Missing(t *testing.T) {
	err := Default().Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DB_HOST")
	assert.Contains(t, err.Error(), "DB_USER")
	assert.Contains(t, err.Error(), "DB_NAME")
}

func TestInitLogger(t *testing.T) {
	assert.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
	assert.Error(t, InitLogger(LogConfig{Level: "ruidoso"}))
}
