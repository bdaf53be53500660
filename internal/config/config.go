// Package config provides configuration management for the ingestion
// pipeline: viper-backed, mapstructure-tagged, validated on load.
package config

import (
	"errors"
	"fmt"

	"github.com/spf13/viper"
)

// Common configuration errors.
var (
	ErrConfigNotFound = errors.New("configuration file not found")
	ErrInvalidConfig  = errors.New("invalid configuration")
)

// ServiceConfig holds common configuration for an external HTTP service
// client (the LLM and tokenizer endpoints).
type ServiceConfig struct {
	BaseURL string `mapstructure:"base_url" validate:"required,url"`
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model" validate:"required"`
}

// PipelineConfig defines the ingestion pipeline's own tunables.
type PipelineConfig struct {
	// MaxTokensPerChunk is the TokenSplitter budget passed to every
	// document; the embedding endpoint's own context window minus a
	// safety margin is a typical value.
	MaxTokensPerChunk int `mapstructure:"max_tokens_per_chunk" validate:"min=1"`

	// Overlap is passed to TokenSplitter purely as a boolean gate (see the
	// design notes): any nonzero value reseeds the next pack with the
	// previous pack's last sentence.
	Overlap int `mapstructure:"overlap"`

	// HeavyPageThreshold is the page count at or above which a document is
	// scheduled in the heavy batch.
	HeavyPageThreshold int `mapstructure:"heavy_page_threshold" validate:"min=1"`

	// LightBatchLimit / HeavyBatchLimit size each stage's worker pool for
	// their respective batch.
	LightBatchLimit int `mapstructure:"light_batch_limit" validate:"min=1"`
	HeavyBatchLimit int `mapstructure:"heavy_batch_limit" validate:"min=1"`

	// CacheRoot is the directory sidecars are written under; derived from
	// the vector store's index name when empty.
	CacheRoot string `mapstructure:"cache_root"`
}

// Validate fills in defaults and rejects impossible combinations.
func (c *PipelineConfig) Validate() error {
	if c.MaxTokensPerChunk == 0 {
		c.MaxTokensPerChunk = 512
	}
	if c.Overlap == 0 {
		c.Overlap = 50
	}
	if c.HeavyPageThreshold == 0 {
		c.HeavyPageThreshold = 500
	}
	if c.LightBatchLimit == 0 {
		c.LightBatchLimit = 4
	}
	if c.HeavyBatchLimit == 0 {
		c.HeavyBatchLimit = 2
	}
	if c.LightBatchLimit < c.HeavyBatchLimit {
		return fmt.Errorf("%w: light batch limit must be >= heavy batch limit", ErrInvalidConfig)
	}
	return nil
}

// Config is the complete application configuration.
type Config struct {
	Server struct {
		Host string `mapstructure:"host" validate:"required"`
		Port string `mapstructure:"port" validate:"required,numeric"`
	} `mapstructure:"server"`

	Database struct {
		Host       string `mapstructure:"host" validate:"required,hostname"`
		Port       int    `mapstructure:"port" validate:"required,min=1,max=65535"`
		User       string `mapstructure:"user" validate:"required"`
		Password   string `mapstructure:"password"`
		DBName     string `mapstructure:"dbname" validate:"required"`
		IndexName  string `mapstructure:"index_name" validate:"required"`
		Dimensions int    `mapstructure:"dimensions" validate:"required,min=1"`
	} `mapstructure:"database"`

	Redis struct {
		Host     string `mapstructure:"host" validate:"required,hostname"`
		Port     int    `mapstructure:"port" validate:"required,min=1,max=65535"`
		Password string `mapstructure:"password"`
		DB       int    `mapstructure:"db" validate:"min=0,max=15"`
	} `mapstructure:"redis"`

	MinIO struct {
		Endpoint        string `mapstructure:"endpoint"`
		AccessKeyID     string `mapstructure:"access_key_id"`
		SecretAccessKey string `mapstructure:"secret_access_key"`
		BucketName      string `mapstructure:"bucket_name"`
		UseSSL          bool   `mapstructure:"use_ssl"`
		Enabled         bool   `mapstructure:"enabled"`
	} `mapstructure:"minio"`

	Pipeline PipelineConfig `mapstructure:"pipeline"`

	Services struct {
		LLM       ServiceConfig `mapstructure:"llm"`
		Embedding ServiceConfig `mapstructure:"embedding"`
	} `mapstructure:"services"`
}

// Validate performs configuration validation and sets defaults.
func (c *Config) Validate() error {
	if err := c.Pipeline.Validate(); err != nil {
		return fmt.Errorf("pipeline config: %w", err)
	}
	return nil
}

// LoadConfig loads configuration from file and environment variables.
func LoadConfig(configPath string) (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configPath)
	viper.AutomaticEnv()
	// PORT is the literal env var the HTTP façade honors, not the
	// SERVER_PORT AutomaticEnv would otherwise derive from the key name.
	_ = viper.BindEnv("server.port", "PORT")

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil, fmt.Errorf("%w: %v", ErrConfigNotFound, err)
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func setDefaults() {
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", "4000")

	viper.SetDefault("pipeline.max_tokens_per_chunk", 512)
	viper.SetDefault("pipeline.overlap", 50)
	viper.SetDefault("pipeline.heavy_page_threshold", 500)
	viper.SetDefault("pipeline.light_batch_limit", 4)
	viper.SetDefault("pipeline.heavy_batch_limit", 2)

	viper.SetDefault("database.dimensions", 1536)

	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.db", 0)

	viper.SetDefault("minio.use_ssl", false)
	viper.SetDefault("minio.enabled", false)
}

// MustLoadConfig loads configuration and panics on failure. Use this only
// in main() where failure should be fatal.
func MustLoadConfig(configPath string) *Config {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}
	return cfg
}
