package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testConfigYAML = `
log_folder: %s
log_max_size: 1
server:
  host: 127.0.0.1
  port: "8080"
database:
  driver: sqlite3
  dsn: file:%s/catalog.db
cache:
  backend: memory
queue:
  backend: memory
auth:
  enabled: true
  signing_key: ""
`

func writeTestConfig(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	configFile := filepath.Join(dir, "config.yml")
	content := strings.ReplaceAll(testConfigYAML, "%s", dir)
	require.NoError(t, os.WriteFile(configFile, []byte(content), 0o600))
	return dir, configFile
}

func TestLoadAndInitConfigs(t *testing.T) {
	dir, configFile := writeTestConfig(t)

	t.Run("signing key is required when auth is enabled", func(t *testing.T) {
		_, err := LoadAndInitConfigs(configFile, filepath.Join(dir, "missing.env"), "", "", "")
		assert.Error(t, err)
	})

	t.Run("environment overrides the file", func(t *testing.T) {
		envFile := filepath.Join(dir, "config.env")
		require.NoError(t, os.WriteFile(envFile, []byte("LCAT_AUTH_SIGNING_KEY=0123456789abcdef0123456789abcdef\n"), 0o600))
		t.Setenv("LCAT_SERVER_PORT", "9090")
		t.Setenv("LCAT_CACHE_TTL", "90s")
		// godotenv only sets missing variables. Setenv restores the previous state on cleanup.
		t.Setenv("LCAT_AUTH_SIGNING_KEY", "")
		os.Unsetenv("LCAT_AUTH_SIGNING_KEY")

		config, err := LoadAndInitConfigs(configFile, envFile, "abc123", "v1.0.0", "today")
		require.NoError(t, err)
		assert.Equal(t, "9090", config.Server.Port)
		assert.Equal(t, 90*time.Second, config.Cache.TTL)
		assert.Equal(t, "0123456789abcdef0123456789abcdef", config.Auth.SigningKey)
		assert.Equal(t, "v1.0.0", config.GitTag)
		assert.Equal(t, "abc123", config.GitCommit)

		// defaults
		assert.Equal(t, 10*time.Second, config.Server.ShutdownTimeout)
		assert.Equal(t, 1024, config.Queue.BufferSize)
		assert.Equal(t, "cache", config.BoltDB.BucketName)
		assert.False(t, config.UsesRedis())
	})
}

func TestInitConfig_Rejects(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server:   ServerConfig{Host: "localhost", Port: "8080"},
			Database: DatabaseConfig{Driver: DriverSQLite, DSN: "file::memory:"},
			Cache:    CacheConfig{Backend: BackendMemory},
			Queue:    QueueConfig{Backend: BackendMemory},
		}
	}
	require.NoError(t, InitConfig(valid(), "", "", ""))

	testCases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing port", func(c *Config) { c.Server.Port = "" }},
		{"unknown driver", func(c *Config) { c.Database.Driver = "oracle" }},
		{"missing dsn", func(c *Config) { c.Database.DSN = "" }},
		{"unknown cache backend", func(c *Config) { c.Cache.Backend = "memcached" }},
		{"unknown queue backend", func(c *Config) { c.Queue.Backend = BackendBolt }},
		{"redis without address", func(c *Config) { c.Cache.Backend = BackendRedis }},
		{"short signing key", func(c *Config) { c.Auth = AuthConfig{Enabled: true, SigningKey: "short"} }},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c := valid()
			tc.mutate(c)
			assert.Error(t, InitConfig(c, "", "", ""))
		})
	}
}

func TestRSyncWrite_Rotation(t *testing.T) {
	dir := t.TempDir()
	w := NewRSyncWriter(&Config{LogFolder: dir, LogMaxSize: 1}, NewMockClocker())
	defer w.Close()

	chunk := []byte(strings.Repeat("x", 600*1024))
	for i := 0; i < 3; i++ {
		n, err := w.Write(chunk)
		require.NoError(t, err)
		assert.Equal(t, len(chunk), n)
	}
	require.NoError(t, w.Sync())

	files, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, files, 3)
	assert.Equal(t, "catalog.20230702.000000.dev.0.log", files[0].Name())

	_, err = w.Write(make([]byte, 2<<20))
	assert.Error(t, err)
}

func TestSetupLogging(t *testing.T) {
	dir := t.TempDir()
	config := &Config{LogFolder: dir, LogMaxSize: 1, IsProduction: true, GitTag: "v1.0.0"}
	w := NewRSyncWriter(config, NewMockClocker())
	defer w.Close()

	logger, flush := SetupLogging(config, w, NewTickClock(NewMockClocker()))
	logger.Info("hello", zap.String("request.id", "r:1"))
	require.NoError(t, flush())

	data, err := os.ReadFile(CreateLogFilePath(dir, "prod", NewMockClocker().Now(), 0))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"hello"`)
	assert.Contains(t, string(data), `"app.tag":"v1.0.0"`)
	assert.Contains(t, string(data), `"ts":"2023-07-02T00:00:00.000Z"`)
}
