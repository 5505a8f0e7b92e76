package config

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Store backends.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreBolt     = "bolt"
)

// DefaultSourceURL is the published SDN list in the advanced XML layout.
const DefaultSourceURL = "https://sanctionslistservice.ofac.treas.gov/api/PublicationPreview/exports/SDN_ADVANCED.XML"

// Config is the full runtime configuration shared by the server and the CLI.
type Config struct {
	Server    Server          `yaml:"server"`
	Log       LogConfig       `yaml:"log"`
	Store     StoreConfig     `yaml:"store"`
	Redis     RedisConfig     `yaml:"redis"`
	Kafka     KafkaConfig     `yaml:"kafka"`
	Source    SourceConfig    `yaml:"source"`
	Ingest    IngestConfig    `yaml:"ingest"`
	Screening ScreeningConfig `yaml:"screening"`
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr               string   `yaml:"addr"`
	CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// StoreConfig selects where published snapshots live.
type StoreConfig struct {
	Backend     string `yaml:"backend"`
	DatabaseURL string `yaml:"database_url"`
	BoltPath    string `yaml:"bolt_path"`
}

// RedisConfig configures the optional entry cache. An empty URL disables it.
type RedisConfig struct {
	URL          string        `yaml:"url"`
	PoolSize     int           `yaml:"pool_size"`
	MinIdleConns int           `yaml:"min_idle_conns"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	EntryTTL     time.Duration `yaml:"entry_ttl"`
}

// KafkaConfig configures snapshot-published notifications. No brokers disables them.
type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

type SourceConfig struct {
	URL          string        `yaml:"url"`
	FetchTimeout time.Duration `yaml:"fetch_timeout"`
	FetchRetries int           `yaml:"fetch_retries"`
}

type IngestConfig struct {
	Workers int `yaml:"workers"`
}

type ScreeningConfig struct {
	QueryTimeout    time.Duration `yaml:"query_timeout"`
	RefreshInterval time.Duration `yaml:"refresh_interval"`
}

// Defaults returns the configuration used when nothing is overridden.
func Defaults() Config {
	return Config{
		Server: Server{
			Addr:               ":8080",
			CORSAllowedOrigins: []string{"*"},
		},
		Log: LogConfig{Level: "info", Format: "json"},
		Store: StoreConfig{
			Backend:  StoreBolt,
			BoltPath: "./data/sdn.db",
		},
		Redis: RedisConfig{
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
			EntryTTL:     10 * time.Minute,
		},
		Kafka: KafkaConfig{Topic: "sdn.snapshots"},
		Source: SourceConfig{
			URL:          DefaultSourceURL,
			FetchTimeout: 2 * time.Minute,
			FetchRetries: 3,
		},
		Ingest: IngestConfig{Workers: runtime.GOMAXPROCS(0)},
		Screening: ScreeningConfig{
			QueryTimeout:    10 * time.Second,
			RefreshInterval: time.Minute,
		},
	}
}

// FromEnv builds a Config from defaults and environment variables so main stays lean.
func FromEnv() Config {
	cfg := Defaults()
	applyEnv(&cfg)
	return cfg
}

// Load reads defaults, overlays the YAML file at path when non-empty, then
// applies environment overrides. The result is validated.
func Load(path string) (Config, error) {
	cfg := Defaults()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}
	applyEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects configurations that cannot start.
func (c Config) Validate() error {
	switch c.Store.Backend {
	case StoreMemory, StoreBolt:
	case StorePostgres:
		if c.Store.DatabaseURL == "" {
			return fmt.Errorf("store backend %q requires DATABASE_URL", c.Store.Backend)
		}
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}
	if c.Store.Backend == StoreBolt && c.Store.BoltPath == "" {
		return fmt.Errorf("store backend %q requires BOLT_PATH", c.Store.Backend)
	}
	if c.Ingest.Workers < 1 {
		return fmt.Errorf("ingest workers must be at least 1, got %d", c.Ingest.Workers)
	}
	if len(c.Kafka.Brokers) > 0 && c.Kafka.Topic == "" {
		return fmt.Errorf("kafka topic is required when brokers are set")
	}
	return nil
}

func applyEnv(cfg *Config) {
	setString(&cfg.Server.Addr, "HTTP_ADDR")
	setList(&cfg.Server.CORSAllowedOrigins, "CORS_ALLOWED_ORIGINS")
	setString(&cfg.Log.Level, "LOG_LEVEL")
	setString(&cfg.Log.Format, "LOG_FORMAT")
	setString(&cfg.Store.Backend, "STORE_BACKEND")
	setString(&cfg.Store.DatabaseURL, "DATABASE_URL")
	setString(&cfg.Store.BoltPath, "BOLT_PATH")
	setString(&cfg.Redis.URL, "REDIS_URL")
	setInt(&cfg.Redis.PoolSize, "REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MinIdleConns, "REDIS_MIN_IDLE_CONNS")
	setDuration(&cfg.Redis.DialTimeout, "REDIS_DIAL_TIMEOUT")
	setDuration(&cfg.Redis.ReadTimeout, "REDIS_READ_TIMEOUT")
	setDuration(&cfg.Redis.WriteTimeout, "REDIS_WRITE_TIMEOUT")
	setDuration(&cfg.Redis.EntryTTL, "ENTRY_CACHE_TTL")
	setList(&cfg.Kafka.Brokers, "KAFKA_BROKERS")
	setString(&cfg.Kafka.Topic, "KAFKA_TOPIC")
	setString(&cfg.Source.URL, "SOURCE_URL")
	setDuration(&cfg.Source.FetchTimeout, "FETCH_TIMEOUT")
	setInt(&cfg.Source.FetchRetries, "FETCH_RETRIES")
	setInt(&cfg.Ingest.Workers, "INGEST_WORKERS")
	setDuration(&cfg.Screening.QueryTimeout, "SCREEN_TIMEOUT")
	setDuration(&cfg.Screening.RefreshInterval, "SNAPSHOT_REFRESH_INTERVAL")
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func setList(dst *[]string, key string) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	*dst = out
}

// Malformed numeric values keep the previous setting.
func setInt(dst *int, key string) {
	if n, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key))); err == nil {
		*dst = n
	}
}

func setDuration(dst *time.Duration, key string) {
	if d, err := time.ParseDuration(strings.TrimSpace(os.Getenv(key))); err == nil {
		*dst = d
	}
}
