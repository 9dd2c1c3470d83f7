package configs

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	req := require.New(t)

	cfg, err := Load("")
	req.NoError(err)

	req.Equal("0.0.0.0", cfg.HTTP.Host)
	req.Equal(uint16(8080), cfg.HTTP.Port)
	req.Equal("memory", cfg.Storage.Driver)
	req.Equal(int64(0), cfg.Timeline.SnapshotLimit)
	req.Equal(512, cfg.Timeline.DedupWindow)
	req.Equal(7*24*time.Hour, cfg.Identity.TokenTTL)
	req.False(cfg.AMQP.Enabled)
}

func TestLoad_FromFile(t *testing.T) {
	req := require.New(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte(`
http:
  port: 9090
storage:
  driver: mongo
  mongo_database: tabshare_test
timeline:
  snapshot_limit: 200
  dedup_window: 64
`)
	req.NoError(os.WriteFile(path, content, 0o600))

	cfg, err := Load(path)
	req.NoError(err)

	req.Equal(uint16(9090), cfg.HTTP.Port)
	req.Equal("mongo", cfg.Storage.Driver)
	req.Equal("tabshare_test", cfg.Storage.MongoDatabase)
	req.Equal(int64(200), cfg.Timeline.SnapshotLimit)
	req.Equal(64, cfg.Timeline.DedupWindow)

	// Untouched sections keep their defaults.
	req.Equal("0.0.0.0", cfg.HTTP.Host)
	req.Equal(20, cfg.RateLimiter.MaxBurst)
}

func TestLoad_EnvOverrides(t *testing.T) {
	req := require.New(t)

	t.Setenv("HTTP_PORT", "7070")
	t.Setenv("STORAGE_DRIVER", "mongo")
	t.Setenv("TIMELINE_DEDUP_WINDOW", "128")
	t.Setenv("IDENTITY_SECRET", "env-secret")

	cfg, err := Load("")
	req.NoError(err)

	req.Equal(uint16(7070), cfg.HTTP.Port)
	req.Equal("mongo", cfg.Storage.Driver)
	req.Equal(128, cfg.Timeline.DedupWindow)
	req.Equal("env-secret", cfg.Identity.Secret)
}

func TestLoad_MissingFileFails(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	require.Error(t, err)
}
