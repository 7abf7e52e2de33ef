package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App        AppConfig
	DB         DBConfig
	Redis      RedisConfig
	Storage    StorageConfig
	PostBridge PostBridgeConfig
	Vizard     VizardConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Storage.validate(cfg.DB); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"CLIPDECK_APP_ENV" required:"true"`
	Port         string `envconfig:"CLIPDECK_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"CLIPDECK_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"CLIPDECK_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"CLIPDECK_DB_DSN"`
	Driver string `envconfig:"CLIPDECK_DB_DRIVER" default:"postgres"`

	MaxOpenConns    int           `envconfig:"CLIPDECK_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"CLIPDECK_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"CLIPDECK_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"CLIPDECK_DB_CONN_MAX_IDLE_TIME" default:"10m"`

	AutoMigrate bool `envconfig:"CLIPDECK_AUTO_MIGRATE" default:"false"`
}

type RedisConfig struct {
	URL          string        `envconfig:"CLIPDECK_REDIS_URL" required:"true"`
	Address      string        `envconfig:"CLIPDECK_REDIS_ADDR"`
	Password     string        `envconfig:"CLIPDECK_REDIS_PASSWORD"`
	DB           int           `envconfig:"CLIPDECK_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"CLIPDECK_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"CLIPDECK_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"CLIPDECK_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"CLIPDECK_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"CLIPDECK_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// StorageConfig selects which clip store backend the service runs on.
type StorageConfig struct {
	Backend      string        `envconfig:"CLIPDECK_STORAGE_BACKEND" default:"postgres"`
	BlobBaseURL  string        `envconfig:"CLIPDECK_BLOB_BASE_URL"`
	BlobToken    string        `envconfig:"CLIPDECK_BLOB_TOKEN"`
	BlobDocument string        `envconfig:"CLIPDECK_BLOB_DOCUMENT" default:"data/clips.json"`
	BlobTimeout  time.Duration `envconfig:"CLIPDECK_BLOB_TIMEOUT" default:"15s"`
}

func (s StorageConfig) IsBlob() bool {
	return strings.EqualFold(s.Backend, StorageBackendBlob)
}

func (s StorageConfig) IsPostgres() bool {
	return strings.EqualFold(s.Backend, StorageBackendPostgres)
}

func (s StorageConfig) validate(db DBConfig) error {
	switch {
	case s.IsBlob():
		if s.BlobBaseURL == "" {
			return fmt.Errorf("%s is required for the blob backend", EnvBlobBaseURL)
		}
		return nil
	case s.IsPostgres():
		if db.DSN == "" {
			return fmt.Errorf("%s is required for the postgres backend", EnvDBDSN)
		}
		return nil
	default:
		return fmt.Errorf("unknown storage backend %q (expected %q or %q)",
			s.Backend, StorageBackendBlob, StorageBackendPostgres)
	}
}

type PostBridgeConfig struct {
	APIKey  string        `envconfig:"CLIPDECK_POSTBRIDGE_API_KEY"`
	BaseURL string        `envconfig:"CLIPDECK_POSTBRIDGE_BASE_URL" default:"https://api.post-bridge.com/v1"`
	Timeout time.Duration `envconfig:"CLIPDECK_POSTBRIDGE_TIMEOUT" default:"15s"`
}

type VizardConfig struct {
	APIKey      string        `envconfig:"CLIPDECK_VIZARD_API_KEY"`
	BaseURL     string        `envconfig:"CLIPDECK_VIZARD_BASE_URL" default:"https://elb-api.vizard.ai/hvizard-server-front"`
	PollTimeout time.Duration `envconfig:"CLIPDECK_VIZARD_POLL_TIMEOUT" default:"3s"`
	CacheTTL    time.Duration `envconfig:"CLIPDECK_VIZARD_CACHE_TTL" default:"30s"`
}
