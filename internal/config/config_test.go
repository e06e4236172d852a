package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	t.Run("Full config", func(t *testing.T) {
		content := `
server:
  host: "0.0.0.0"
  port: "9090"
auth:
  webhook_key: "secret"
queue:
  name: "trade-commands"
  group_id: "trades"
  stale_after_ms: 10000
  dedup_window_seconds: 300
  max_polls: 64
redis:
  host: "redis.local"
  port: 6380
tickets:
  enabled: true
database:
  driver: "sqlite"
  dsn: "relay.db"
`
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))

		cfg, err := LoadConfig(path)
		require.NoError(t, err)
		assert.Equal(t, "9090", cfg.Server.Port)
		assert.Equal(t, "secret", cfg.Auth.WebhookKey)
		assert.Equal(t, 10*time.Second, cfg.Queue.StaleAfter())
		assert.Equal(t, 5*time.Minute, cfg.Queue.DedupWindow())
		assert.Equal(t, 64, cfg.Queue.PollLimit())
		assert.Equal(t, "redis.local:6380", cfg.Redis.Addr())
		assert.True(t, cfg.Tickets.Enabled)
	})

	t.Run("Missing file", func(t *testing.T) {
		_, err := LoadConfig("does-not-exist.yaml")
		assert.Error(t, err)
	})

	t.Run("Zero queue values fall back to defaults", func(t *testing.T) {
		var q QueueConfig
		assert.Equal(t, 10*time.Second, q.StaleAfter())
		assert.Equal(t, 5*time.Minute, q.DedupWindow())
		assert.Equal(t, 128, q.PollLimit())
	})
}
