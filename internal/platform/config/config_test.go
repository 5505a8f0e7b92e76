package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg := FromEnv()
		assert.Equal(t, ":8080", cfg.Server.Addr)
		assert.Equal(t, StoreBolt, cfg.Store.Backend)
		assert.Equal(t, DefaultSourceURL, cfg.Source.URL)
		assert.GreaterOrEqual(t, cfg.Ingest.Workers, 1)
		require.NoError(t, cfg.Validate())
	})

	t.Run("environment overrides", func(t *testing.T) {
		t.Setenv("HTTP_ADDR", ":9090")
		t.Setenv("STORE_BACKEND", "postgres")
		t.Setenv("DATABASE_URL", "postgres://localhost/sdn?sslmode=disable")
		t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092")
		t.Setenv("SCREEN_TIMEOUT", "250ms")
		t.Setenv("INGEST_WORKERS", "not-a-number")

		cfg := FromEnv()
		assert.Equal(t, ":9090", cfg.Server.Addr)
		assert.Equal(t, StorePostgres, cfg.Store.Backend)
		assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
		assert.Equal(t, 250*time.Millisecond, cfg.Screening.QueryTimeout)
		assert.Equal(t, Defaults().Ingest.Workers, cfg.Ingest.Workers)
		require.NoError(t, cfg.Validate())
	})
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sdn.yaml")
	yamlBody := `
server:
  addr: ":7070"
store:
  backend: memory
redis:
  entry_ttl: 30s
ingest:
  workers: 3
`
	require.NoError(t, os.WriteFile(path, []byte(yamlBody), 0o600))

	t.Run("file overlays defaults", func(t *testing.T) {
		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, ":7070", cfg.Server.Addr)
		assert.Equal(t, StoreMemory, cfg.Store.Backend)
		assert.Equal(t, 30*time.Second, cfg.Redis.EntryTTL)
		assert.Equal(t, 3, cfg.Ingest.Workers)
		assert.Equal(t, "json", cfg.Log.Format)
	})

	t.Run("environment wins over file", func(t *testing.T) {
		t.Setenv("HTTP_ADDR", ":6060")
		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, ":6060", cfg.Server.Addr)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(dir, "absent.yaml"))
		require.Error(t, err)
	})
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "unknown backend", mutate: func(c *Config) { c.Store.Backend = "s3" }},
		{name: "postgres without url", mutate: func(c *Config) { c.Store.Backend = StorePostgres }},
		{name: "bolt without path", mutate: func(c *Config) { c.Store.BoltPath = "" }},
		{name: "zero workers", mutate: func(c *Config) { c.Ingest.Workers = 0 }},
		{name: "brokers without topic", mutate: func(c *Config) {
			c.Kafka.Brokers = []string{"k:9092"}
			c.Kafka.Topic = ""
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Defaults()
			tc.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
