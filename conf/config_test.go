package conf

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigExample(t *testing.T) {
	Path = ".."

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert := assert.New(t)
	assert.Equal("userdash", cfg.Name)
	assert.Equal("https://jsonplaceholder.typicode.com", cfg.Remote.BaseURL)
	assert.Equal(10*time.Second, cfg.Remote.Timeout)
	assert.Equal(BadgerDB, cfg.Persistence.Driver)
	assert.Equal("root", cfg.Persistence.Key)
	assert.Equal("..", cfg.Persistence.Host)
	assert.False(cfg.Notify.Enabled)
}

func TestLoadConfigExpandsEnv(t *testing.T) {
	dir := t.TempDir()
	Path = dir

	t.Setenv("USERDASH_TEST_REMOTE", "http://localhost:3000")
	t.Setenv("USERDASH_TEST_REDIS", "cache.internal")

	raw := `
name: userdash
remote:
  baseURL: ${USERDASH_TEST_REMOTE}
  timeout: 2s
persistence:
  driver: redis
  host: ${USERDASH_TEST_REDIS}
  port: 6379
  db: 2
`
	err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(raw), 0o600)
	require.NoError(t, err)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert := assert.New(t)
	assert.Equal("http://localhost:3000", cfg.Remote.BaseURL)
	assert.Equal(2*time.Second, cfg.Remote.Timeout)
	assert.Equal(Redis, cfg.Persistence.Driver)
	assert.Equal("cache.internal", cfg.Persistence.Host)
	assert.Equal(6379, cfg.Persistence.Port)
	assert.Equal(2, cfg.Persistence.DB)
	assert.Equal(DefaultPersistenceKey, cfg.Persistence.Key)
}

func TestLoadConfigUnknownDriver(t *testing.T) {
	dir := t.TempDir()
	Path = dir

	raw := "persistence:\n  driver: mongo\n"
	err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(raw), 0o600)
	require.NoError(t, err)

	_, err = LoadConfig()
	assert.Error(t, err)
}

func TestParsePersistenceDriver(t *testing.T) {
	for _, name := range []string{"sqlite", "badger", "redis", "inmem"} {
		driver, err := ParsePersistenceDriver(name)
		require.NoError(t, err)
		assert.Equal(t, name, driver.String())
	}
}
