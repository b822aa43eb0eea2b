package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

var singleConfig *Config = nil

type Config struct {
	Service *svcConfig
	Minio   *minioConfig
}

type svcConfig struct {
	ServerURL    string        `envconfig:"RADAR_SERVER_URL" default:"http://localhost:8000"`
	PollInterval time.Duration `envconfig:"RADAR_POLL_INTERVAL" default:"3s"`
	PollJitter   time.Duration `envconfig:"RADAR_POLL_JITTER" default:"0s"`
	GraceDelay   time.Duration `envconfig:"RADAR_GRACE_DELAY" default:"2s"`
	LogLevel     string        `envconfig:"RADAR_LOG_LEVEL" default:"info"`
}

type minioConfig struct {
	Endpoint  string `envconfig:"RADAR_MINIO_ENDPOINT" default:""`
	AccessKey string `envconfig:"RADAR_MINIO_ACCESS_KEY" default:""`
	SecretKey string `envconfig:"RADAR_MINIO_SECRET_KEY" default:""`
	Bucket    string `envconfig:"RADAR_MINIO_BUCKET" default:"radar-reports"`
	Region    string `envconfig:"RADAR_MINIO_REGION" default:"us-east-1"`
	UseSSL    bool   `envconfig:"RADAR_MINIO_USE_SSL" default:"true"`
}

// New reads the configuration from the environment once and returns the cached value afterwards.
func New() (*Config, error) {
	if singleConfig == nil {
		cfg, err := Load()
		if err != nil {
			return nil, err
		}
		singleConfig = cfg
	}
	return singleConfig, nil
}

// Load reads the configuration from the environment without caching it.
func Load() (*Config, error) {
	cfg := new(Config)
	if err := envconfig.Process("", cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// MinioEnabled reports whether a MinIO endpoint is configured.
func (c *Config) MinioEnabled() bool {
	return c.Minio != nil && c.Minio.Endpoint != ""
}
