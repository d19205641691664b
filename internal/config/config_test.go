package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) }) //nolint:errcheck
	return dir
}

func TestLoadDefaults(t *testing.T) {
	// No config.yaml in the temp dir
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Empty(t, cfg.Store.DatabaseURL)
	assert.Empty(t, cfg.FIAS.LoadersPath)
	assert.Equal(t, 5000, cfg.FIAS.BatchSize)
	assert.Equal(t, "utf-8", cfg.FIAS.Encoding)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Empty(t, cfg.Server.CORSOrigins)
	assert.Zero(t, cfg.Server.RateLimit)
	assert.Equal(t, 20, cfg.Server.RateBurst)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
store:
  driver: sqlite
  database_url: /var/lib/fias/records.db
fias:
  loaders_path: acme.loaders
  encoding: cp866
server:
  port: 9090
  cors_origins:
    - https://maps.example.com
log:
  level: debug
  format: console
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "/var/lib/fias/records.db", cfg.Store.DatabaseURL)
	assert.Equal(t, "acme.loaders", cfg.FIAS.LoadersPath)
	assert.Equal(t, "cp866", cfg.FIAS.Encoding)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, []string{"https://maps.example.com"}, cfg.Server.CORSOrigins)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	// Defaults still apply for unset values
	assert.Equal(t, 5000, cfg.FIAS.BatchSize)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
fias:
  loaders_path: from.file
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("FIAS_FIAS_LOADERS_PATH", "from.env")
	t.Setenv("FIAS_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "from.env", cfg.FIAS.LoadersPath)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	chdirTemp(t)

	t.Setenv("FIAS_FIAS_BATCH_SIZE", "250")
	t.Setenv("FIAS_STORE_DATABASE_URL", "postgres://localhost/fias")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 250, cfg.FIAS.BatchSize)
	assert.Equal(t, "postgres://localhost/fias", cfg.Store.DatabaseURL)
}

func TestLoadMalformedFile(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("fias: [unclosed"), 0644))

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config: read file")
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}

func validDefaults() *Config {
	cfg := &Config{}
	cfg.Store.Driver = "postgres"
	cfg.Store.DatabaseURL = "postgres://localhost/fias"
	cfg.FIAS.BatchSize = 5000
	cfg.FIAS.Encoding = "utf-8"
	return cfg
}

func TestValidateImport_OK(t *testing.T) {
	assert.NoError(t, validDefaults().Validate("import"))
}

func TestValidateImport_RequiresPostgres(t *testing.T) {
	cfg := validDefaults()
	cfg.Store.Driver = "sqlite"

	err := cfg.Validate("import")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "import requires store.driver=postgres")
}

func TestValidateImport_BadSettings(t *testing.T) {
	cfg := validDefaults()
	cfg.Store.DatabaseURL = ""
	cfg.FIAS.BatchSize = 0
	cfg.FIAS.Encoding = "koi8-r"

	err := cfg.Validate("import")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store.database_url is required")
	assert.Contains(t, err.Error(), "fias.batch_size must be positive")
	assert.Contains(t, err.Error(), "fias.encoding")
}

func TestValidateStore_SQLite(t *testing.T) {
	cfg := validDefaults()
	cfg.Store.Driver = "sqlite"
	assert.NoError(t, cfg.Validate("store"))
}

func TestValidateStore_UnknownDriver(t *testing.T) {
	cfg := validDefaults()
	cfg.Store.Driver = "mysql"

	err := cfg.Validate("store")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store.driver must be postgres or sqlite")
}

func TestValidate_UnknownMode(t *testing.T) {
	assert.Error(t, validDefaults().Validate("serve"))
}
