package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. POSTBOARD_SERVER_ADDR.
const EnvPrefix = "POSTBOARD"

// Config is the root configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Log      LogConfig      `mapstructure:"log"`
	Client   ClientConfig   `mapstructure:"client"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Path       string `mapstructure:"path"`
	GCSchedule string `mapstructure:"gc_schedule"`
}

// StorageConfig selects and configures the picture blob store.
type StorageConfig struct {
	Driver         string      `mapstructure:"driver"`
	Dir            string      `mapstructure:"dir"`
	PublicPrefix   string      `mapstructure:"public_prefix"`
	Naming         string      `mapstructure:"naming"`
	MaxUploadBytes int64       `mapstructure:"max_upload_bytes"`
	MinIO          MinIOConfig `mapstructure:"minio"`
}

type MinIOConfig struct {
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Bucket    string `mapstructure:"bucket"`
	UseSSL    bool   `mapstructure:"use_ssl"`
	// PublicURL is the externally reachable base, e.g. https://cdn.example.com.
	// Defaults to the endpoint.
	PublicURL string `mapstructure:"public_url"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type ClientConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// SetDefaults registers every default on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("database.path", "data/badger")
	v.SetDefault("database.gc_schedule", "@every 10m")

	v.SetDefault("storage.driver", "disk")
	v.SetDefault("storage.dir", "data/uploads")
	v.SetDefault("storage.public_prefix", "/storage/uploads")
	v.SetDefault("storage.naming", "timestamp")
	v.SetDefault("storage.max_upload_bytes", 2<<20)
	v.SetDefault("storage.minio.bucket", "postboard")
	v.SetDefault("storage.minio.use_ssl", false)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("client.base_url", "http://localhost:8080")
	v.SetDefault("client.timeout", 30*time.Second)
}

// Load reads configuration from path, or from config.yaml in . or ./configs
// when path is empty. A missing config file is not an error; defaults and
// environment variables still apply.
func Load(path string) (*Config, error) {
	v := viper.New()
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration with no file and no environment.
func Default() *Config {
	v := viper.New()
	SetDefaults(v)
	var cfg Config
	// Defaults always decode.
	_ = v.Unmarshal(&cfg)
	return &cfg
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case "disk":
		if c.Storage.Dir == "" {
			return errors.New("storage.dir is required for the disk driver")
		}
	case "minio":
		if c.Storage.MinIO.Endpoint == "" || c.Storage.MinIO.Bucket == "" {
			return errors.New("storage.minio.endpoint and storage.minio.bucket are required for the minio driver")
		}
	default:
		return fmt.Errorf("unknown storage.driver %q", c.Storage.Driver)
	}
	if c.Storage.MaxUploadBytes <= 0 {
		return errors.New("storage.max_upload_bytes must be positive")
	}
	if !strings.HasPrefix(c.Storage.PublicPrefix, "/") {
		return fmt.Errorf("storage.public_prefix %q must start with /", c.Storage.PublicPrefix)
	}
	return nil
}
