// Package config resolves run settings from defaults, an optional YAML file
// and environment variables, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dunamismax/photocompress/internal/domain"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Compress CompressConfig `yaml:"compress"`
	Log      LogConfig      `yaml:"log"`
	Cache    CacheConfig    `yaml:"cache"`
	Storage  StorageConfig  `yaml:"storage"`
	Database DatabaseConfig `yaml:"database"`
	Webhook  WebhookConfig  `yaml:"webhook"`
	Tracing  TracingConfig  `yaml:"tracing"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

type CompressConfig struct {
	// Quality is the 1-100 slider value.
	Quality     int    `yaml:"quality"`
	MaxWidth    int    `yaml:"max_width"`
	Format      string `yaml:"format"`
	OutputDir   string `yaml:"output_dir"`
	ArchiveName string `yaml:"archive_name"`
}

func (c CompressConfig) EncodeOptions() domain.EncodeOptions {
	return domain.EncodeOptionsFromPercent(float64(c.Quality), c.MaxWidth)
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // json or console
}

type CacheConfig struct {
	Driver     string        `yaml:"driver"` // none, memory or redis
	TTL        time.Duration `yaml:"ttl"`
	MaxEntries int           `yaml:"max_entries"`
	Redis      RedisConfig   `yaml:"redis"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type StorageConfig struct {
	Enabled    bool          `yaml:"enabled"`
	Endpoint   string        `yaml:"endpoint"`
	AccessKey  string        `yaml:"access_key"`
	SecretKey  string        `yaml:"secret_key"`
	Bucket     string        `yaml:"bucket"`
	Region     string        `yaml:"region"`
	UseSSL     bool          `yaml:"use_ssl"`
	Prefix     string        `yaml:"prefix"`
	PresignTTL time.Duration `yaml:"presign_ttl"`
}

type DatabaseConfig struct {
	// DSN enables the Postgres usage ledger when set.
	DSN string `yaml:"dsn"`
}

type WebhookConfig struct {
	URL         string        `yaml:"url"`
	Secret      string        `yaml:"secret"`
	MaxAttempts int           `yaml:"max_attempts"`
	Timeout     time.Duration `yaml:"timeout"`
}

type TracingConfig struct {
	Exporter     string `yaml:"exporter"` // none, stdout or otlp
	OTLPEndpoint string `yaml:"otlp_endpoint"`
	OTLPInsecure bool   `yaml:"otlp_insecure"`
}

type MetricsConfig struct {
	Textfile string `yaml:"textfile"`
}

func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file: %w", err)
		}
	}

	applyEnvOverrides(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

func Default() Config {
	return Config{
		Compress: CompressConfig{
			Quality:     domain.DefaultQualityPercent,
			MaxWidth:    domain.DefaultMaxWidth,
			Format:      string(domain.FormatWebP),
			OutputDir:   ".",
			ArchiveName: domain.DefaultArchiveName,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Cache: CacheConfig{
			Driver:     "memory",
			TTL:        24 * time.Hour,
			MaxEntries: 256,
			Redis: RedisConfig{
				Addr: "localhost:6379",
			},
		},
		Storage: StorageConfig{
			Endpoint:   "localhost:9000",
			AccessKey:  "minioadmin",
			SecretKey:  "minioadmin",
			Bucket:     "photocompress",
			Prefix:     "archives",
			PresignTTL: 24 * time.Hour,
		},
		Webhook: WebhookConfig{
			MaxAttempts: 3,
			Timeout:     10 * time.Second,
		},
		Tracing: TracingConfig{
			Exporter: "none",
		},
	}
}

func (c Config) Validate() error {
	var errs []error

	if c.Compress.Quality < 1 || c.Compress.Quality > 100 {
		errs = append(errs, fmt.Errorf("compress.quality must be between 1 and 100, got %d", c.Compress.Quality))
	}
	if c.Compress.MaxWidth <= 0 {
		errs = append(errs, fmt.Errorf("compress.max_width must be positive, got %d", c.Compress.MaxWidth))
	}
	if _, ok := domain.ParseFormat(c.Compress.Format); !ok {
		errs = append(errs, fmt.Errorf("compress.format must be webp or jpeg, got %q", c.Compress.Format))
	}

	switch c.Cache.Driver {
	case "none", "memory", "redis":
	default:
		errs = append(errs, fmt.Errorf("cache.driver must be none, memory or redis, got %q", c.Cache.Driver))
	}

	if c.Storage.Enabled && strings.TrimSpace(c.Storage.Bucket) == "" {
		errs = append(errs, errors.New("storage.bucket is required when storage is enabled"))
	}

	return errors.Join(errs...)
}

func applyEnvOverrides(cfg *Config) {
	cfg.Compress.Quality = envInt("PHOTOCOMPRESS_QUALITY", cfg.Compress.Quality)
	cfg.Compress.MaxWidth = envInt("PHOTOCOMPRESS_MAX_WIDTH", cfg.Compress.MaxWidth)
	cfg.Compress.Format = env("PHOTOCOMPRESS_FORMAT", cfg.Compress.Format)
	cfg.Compress.OutputDir = env("PHOTOCOMPRESS_OUTPUT_DIR", cfg.Compress.OutputDir)
	cfg.Compress.ArchiveName = env("PHOTOCOMPRESS_ARCHIVE_NAME", cfg.Compress.ArchiveName)

	cfg.Log.Level = env("LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Format = env("LOG_FORMAT", cfg.Log.Format)

	cfg.Cache.Driver = strings.ToLower(env("CACHE_DRIVER", cfg.Cache.Driver))
	cfg.Cache.TTL = time.Duration(envInt("CACHE_TTL_SECONDS", int(cfg.Cache.TTL/time.Second))) * time.Second
	cfg.Cache.Redis.Addr = env("REDIS_ADDR", cfg.Cache.Redis.Addr)
	cfg.Cache.Redis.Password = env("REDIS_PASSWORD", cfg.Cache.Redis.Password)
	cfg.Cache.Redis.DB = envInt("REDIS_DB", cfg.Cache.Redis.DB)

	cfg.Storage.Enabled = envBool("MINIO_ENABLED", cfg.Storage.Enabled)
	cfg.Storage.Endpoint = env("MINIO_ENDPOINT", cfg.Storage.Endpoint)
	cfg.Storage.AccessKey = env("MINIO_ACCESS_KEY", cfg.Storage.AccessKey)
	cfg.Storage.SecretKey = env("MINIO_SECRET_KEY", cfg.Storage.SecretKey)
	cfg.Storage.Bucket = env("MINIO_BUCKET", cfg.Storage.Bucket)
	cfg.Storage.UseSSL = envBool("MINIO_USE_SSL", cfg.Storage.UseSSL)

	cfg.Database.DSN = env("POSTGRES_DSN", cfg.Database.DSN)

	cfg.Webhook.URL = env("WEBHOOK_URL", cfg.Webhook.URL)
	cfg.Webhook.Secret = env("WEBHOOK_SECRET", cfg.Webhook.Secret)

	cfg.Tracing.Exporter = env("TRACE_EXPORTER", cfg.Tracing.Exporter)
	cfg.Tracing.OTLPEndpoint = env("OTLP_ENDPOINT", cfg.Tracing.OTLPEndpoint)
	cfg.Tracing.OTLPInsecure = envBool("OTLP_INSECURE", cfg.Tracing.OTLPInsecure)

	cfg.Metrics.Textfile = env("METRICS_TEXTFILE", cfg.Metrics.Textfile)
}

func env(key, fallback string) string {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback
	}
	return value
}

func envInt(key string, fallback int) int {
	value := env(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func envBool(key string, fallback bool) bool {
	value := env(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}
