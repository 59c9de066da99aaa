package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
server:
  host: 0.0.0.0
  port: 9000
database:
  mysql:
    host: db.internal
    port: 3307
    username: zengo
    password: secret
    database: zengo
  redis:
    host: cache.internal
cooldown:
  backend: redis
  window: 5s
logging:
  level: info
`

func TestLoadReadsYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleYAML), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "db.internal", cfg.Database.MySQL.Host)
	assert.Equal(t, 3307, cfg.Database.MySQL.Port)
	assert.Equal(t, BackendRedis, cfg.Cooldown.Backend)
	assert.Equal(t, 5*time.Second, cfg.Cooldown.Window)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestParseAppliesDefaults(t *testing.T) {
	cfg, err := Parse([]byte("{}"))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 3306, cfg.Database.MySQL.Port)
	assert.Equal(t, 6379, cfg.Database.Redis.Port)
	assert.Equal(t, BackendMemory, cfg.Cooldown.Backend)
	assert.Equal(t, 3*time.Second, cfg.Cooldown.Window)
	assert.Equal(t, time.Minute, cfg.Cooldown.SweepInterval)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestParseEnvOverrides(t *testing.T) {
	t.Setenv("ZENGO_MYSQL_PASSWORD", "from-env")
	t.Setenv("ZENGO_COOLDOWN_WINDOW", "750ms")

	cfg, err := Parse([]byte(sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Database.MySQL.Password)
	assert.Equal(t, 750*time.Millisecond, cfg.Cooldown.Window)
	// untouched by env
	assert.Equal(t, "zengo", cfg.Database.MySQL.Username)
}

func TestParseRejectsUnknownBackend(t *testing.T) {
	_, err := Parse([]byte("cooldown:\n  backend: etcd\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported cooldown backend")
}

func TestParseRejectsNegativeSweepInterval(t *testing.T) {
	_, err := Parse([]byte("cooldown:\n  sweep_interval: -1s\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sweep interval must be positive")

	cfg := &Config{}
	cfg.ApplyDefaults()
	cfg.Cooldown.SweepInterval = 0
	assert.Error(t, cfg.Validate())
}

func TestParseBadYAML(t *testing.T) {
	_, err := Parse([]byte("server: ["))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config")
}

func TestMySQLDSN(t *testing.T) {
	m := MySQLConfig{Host: "h", Port: 1, Username: "u", Password: "p", Database: "d"}
	assert.Equal(t, "u:p@tcp(h:1)/d?charset=utf8mb4&parseTime=True&loc=Local", m.DSN())

	m.DataSource = "raw-dsn"
	assert.Equal(t, "raw-dsn", m.DSN())
}
