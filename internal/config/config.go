// Package config provides Viper-based hierarchical configuration management:
// defaults, then an optional config.yaml, then BANKMOV_ environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"fjacquet/bank-movements/internal/localeparse"
)

// EnvPrefix prefixes every environment variable the application reads.
const EnvPrefix = "BANKMOV"

// Store drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// DefaultMaxFileSize is the per-file upload ceiling.
const DefaultMaxFileSize int64 = 5 * 1024 * 1024

// LogConfig controls the logrus adapter.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// StoreConfig selects the persistence backend.
type StoreConfig struct {
	Driver string `mapstructure:"driver" yaml:"driver"`
	DSN    string `mapstructure:"dsn" yaml:"-"`
}

// IngestConfig bounds the batch ingestion pipeline.
type IngestConfig struct {
	MaxFileSize      int64    `mapstructure:"max_file_size" yaml:"max_file_size"`
	AllowedMIMETypes []string `mapstructure:"allowed_mime_types" yaml:"allowed_mime_types"`
	MaxParallelFiles int      `mapstructure:"max_parallel_files" yaml:"max_parallel_files"`
	ParsePolicy      string   `mapstructure:"parse_policy" yaml:"parse_policy"`
}

// ServerConfig configures the HTTP transport.
type ServerConfig struct {
	Addr           string `mapstructure:"addr" yaml:"addr"`
	MaxRequestSize int64  `mapstructure:"max_request_size" yaml:"max_request_size"`
}

// ReviewConfig bounds concurrent review commits.
type ReviewConfig struct {
	MaxParallelCommits int `mapstructure:"max_parallel_commits" yaml:"max_parallel_commits"`
}

// Config represents the complete application configuration
type Config struct {
	Log        LogConfig    `mapstructure:"log" yaml:"log"`
	Store      StoreConfig  `mapstructure:"store" yaml:"store"`
	Ingest     IngestConfig `mapstructure:"ingest" yaml:"ingest"`
	Server     ServerConfig `mapstructure:"server" yaml:"server"`
	Review     ReviewConfig `mapstructure:"review" yaml:"review"`
	Classifier struct {
		RulesFile string `mapstructure:"rules_file" yaml:"rules_file"`
	} `mapstructure:"classifier" yaml:"classifier"`
	Concepts struct {
		File string `mapstructure:"file" yaml:"file"`
	} `mapstructure:"concepts" yaml:"concepts"`
}

// InitializeConfig loads configuration from the default locations.
func InitializeConfig() (*Config, error) {
	return InitializeConfigFrom("")
}

// InitializeConfigFrom loads configuration. A non-empty configFile replaces
// the search of $HOME/.bank-movements, .bank-movements and the working
// directory, and must exist.
func InitializeConfigFrom(configFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("$HOME/.bank-movements")
		v.AddConfigPath(".bank-movements")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || configFile != "" {
			return nil, fmt.Errorf("failed to read config file %s: %w", v.ConfigFileUsed(), err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("store.driver", DriverSQLite)
	v.SetDefault("store.dsn", filepath.Join("data", "movements.db"))

	v.SetDefault("ingest.max_file_size", DefaultMaxFileSize)
	v.SetDefault("ingest.allowed_mime_types", []string{
		"application/vnd.ms-excel",
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		"application/octet-stream",
	})
	v.SetDefault("ingest.max_parallel_files", 4)
	v.SetDefault("ingest.parse_policy", string(localeparse.PolicyStrict))

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.max_request_size", 64*1024*1024)

	v.SetDefault("review.max_parallel_commits", 4)

	v.SetDefault("classifier.rules_file", "")
	v.SetDefault("concepts.file", "")
}

// Validate re-checks a configuration after callers override fields.
func (c *Config) Validate() error {
	return validateConfig(c)
}

func validateConfig(config *Config) error {
	if _, err := logrus.ParseLevel(config.Log.Level); err != nil {
		return fmt.Errorf("invalid log level: %s", config.Log.Level)
	}

	if config.Log.Format != "text" && config.Log.Format != "json" {
		return fmt.Errorf("invalid log format: %s (must be 'text' or 'json')", config.Log.Format)
	}

	switch config.Store.Driver {
	case DriverSQLite, DriverPostgres:
		if config.Store.DSN == "" {
			return fmt.Errorf("store.dsn required for driver %s", config.Store.Driver)
		}
	case DriverMemory:
	default:
		return fmt.Errorf("invalid store driver: %s (must be 'sqlite', 'postgres' or 'memory')", config.Store.Driver)
	}

	if _, err := localeparse.ParsePolicy(config.Ingest.ParsePolicy); err != nil {
		return fmt.Errorf("invalid ingest.parse_policy: %w", err)
	}

	if config.Ingest.MaxFileSize < 1 {
		return fmt.Errorf("ingest.max_file_size must be positive, got: %d", config.Ingest.MaxFileSize)
	}

	if len(config.Ingest.AllowedMIMETypes) == 0 {
		return fmt.Errorf("ingest.allowed_mime_types must not be empty")
	}

	if config.Ingest.MaxParallelFiles < 1 || config.Ingest.MaxParallelFiles > 64 {
		return fmt.Errorf("ingest.max_parallel_files must be between 1 and 64, got: %d", config.Ingest.MaxParallelFiles)
	}

	if config.Review.MaxParallelCommits < 1 || config.Review.MaxParallelCommits > 64 {
		return fmt.Errorf("review.max_parallel_commits must be between 1 and 64, got: %d", config.Review.MaxParallelCommits)
	}

	return nil
}

// LoadEnv loads a .env file from the working directory or its parent into
// the process environment. A missing file is not an error.
func LoadEnv() error {
	for _, envFile := range []string{".env", filepath.Join("..", ".env")} {
		if _, err := os.Stat(envFile); err != nil {
			continue
		}
		if err := godotenv.Load(envFile); err != nil {
			return fmt.Errorf("error loading %s: %w", envFile, err)
		}
		return nil
	}
	return nil
}
