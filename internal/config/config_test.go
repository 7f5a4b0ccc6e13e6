package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zjx20/seabattlehub/internal/config"
)

func env(values map[string]string) func(string) string {
	return func(key string) string { return values[key] }
}

func TestDefault(t *testing.T) {
	c := config.Default()

	assert.Equal(t, 4000, c.Server.Port)
	assert.Equal(t, ":4000", c.Addr())
	assert.Equal(t, "", c.Server.StaticDir)
	assert.Equal(t, 54*time.Second, c.WebSocket.PingPeriod)
	assert.Equal(t, 60*time.Second, c.WebSocket.PongWait)
	assert.Equal(t, "info", c.Log.Level)
	assert.Equal(t, "text", c.Log.Format)
	assert.NoError(t, c.Validate())
}

func TestLoad(t *testing.T) {
	t.Run("empty path returns defaults", func(t *testing.T) {
		c, err := config.Load("")
		require.NoError(t, err)
		assert.Equal(t, config.Default(), c)
	})

	t.Run("file overrides defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		data := `
server:
  port: 9090
  static_dir: ./dist
websocket:
  send_queue: 16
  pong_wait: 30s
  ping_period: 20s
log:
  level: debug
  format: json
`
		require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

		c, err := config.Load(path)
		require.NoError(t, err)
		assert.Equal(t, 9090, c.Server.Port)
		assert.Equal(t, "./dist", c.Server.StaticDir)
		assert.Equal(t, 16, c.WebSocket.SendQueue)
		assert.Equal(t, 30*time.Second, c.WebSocket.PongWait)
		assert.Equal(t, 20*time.Second, c.WebSocket.PingPeriod)
		assert.Equal(t, "debug", c.Log.Level)
		assert.Equal(t, "json", c.Log.Format)
		// untouched keys keep their defaults
		assert.Equal(t, 1024, c.WebSocket.ReadBufferSize)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})

	t.Run("invalid yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("server: [1, 2"), 0o600))
		_, err := config.Load(path)
		assert.Error(t, err)
	})

	t.Run("ping period must be below pong wait", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("websocket:\n  ping_period: 90s\n"), 0o600))
		_, err := config.Load(path)
		assert.ErrorContains(t, err, "ping_period")
	})
}

func TestApplyEnv(t *testing.T) {
	t.Run("overrides", func(t *testing.T) {
		c := config.Default()
		err := c.ApplyEnv(env(map[string]string{
			"PORT":       "10000",
			"STATIC_DIR": "/srv/dist",
			"LOG_LEVEL":  "warn",
			"LOG_FORMAT": "json",
		}))
		require.NoError(t, err)
		assert.Equal(t, 10000, c.Server.Port)
		assert.Equal(t, "/srv/dist", c.Server.StaticDir)
		assert.Equal(t, "warn", c.Log.Level)
		assert.Equal(t, "json", c.Log.Format)
	})

	t.Run("unset keeps values", func(t *testing.T) {
		c := config.Default()
		require.NoError(t, c.ApplyEnv(env(nil)))
		assert.Equal(t, config.Default(), c)
	})

	t.Run("bad port", func(t *testing.T) {
		c := config.Default()
		assert.Error(t, c.ApplyEnv(env(map[string]string{"PORT": "eighty"})))
		assert.Error(t, c.ApplyEnv(env(map[string]string{"PORT": "70000"})))
	})
}

func TestPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 5000\n  static_dir: /srv/yaml\nlog:\n  level: warn\n"), 0o600))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.ApplyEnv(env(map[string]string{"PORT": "6000", "LOG_LEVEL": "debug"})))
	require.NoError(t, cfg.ApplyFlags(7000, ""))

	assert.Equal(t, 7000, cfg.Server.Port)
	assert.Equal(t, "/srv/yaml", cfg.Server.StaticDir)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
}
