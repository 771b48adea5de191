package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Processor ProcessorConfig `yaml:"processor" mapstructure:"processor"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Deep      DeepConfig      `yaml:"deep" mapstructure:"deep"`
	Batch     BatchConfig     `yaml:"batch" mapstructure:"batch"`
	Retry     RetryConfig     `yaml:"retry" mapstructure:"retry"`
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// ProcessorConfig holds CV-processor API settings.
type ProcessorConfig struct {
	BaseURL      string  `yaml:"base_url" mapstructure:"base_url"`
	APIKey       string  `yaml:"api_key" mapstructure:"api_key"`
	TimeoutSecs  int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RateLimitRPS float64 `yaml:"rate_limit_rps" mapstructure:"rate_limit_rps"`
}

// AnthropicConfig holds Anthropic API settings for the direct
// deep-analysis provider.
type AnthropicConfig struct {
	Key         string `yaml:"key" mapstructure:"key"`
	HaikuModel  string `yaml:"haiku_model" mapstructure:"haiku_model"`
	SonnetModel string `yaml:"sonnet_model" mapstructure:"sonnet_model"`
}

// DeepConfig configures the second-pass deep analysis.
type DeepConfig struct {
	Provider string `yaml:"provider" mapstructure:"provider"`
	Model    string `yaml:"model" mapstructure:"model"`
}

// BatchConfig configures batch admission and scheduling.
type BatchConfig struct {
	Concurrency   int `yaml:"concurrency" mapstructure:"concurrency"`
	MaxFiles      int `yaml:"max_files" mapstructure:"max_files"`
	MaxFileSizeMB int `yaml:"max_file_size_mb" mapstructure:"max_file_size_mb"`
}

// RetryConfig configures retries around external pipeline calls.
type RetryConfig struct {
	MaxAttempts      int `yaml:"max_attempts" mapstructure:"max_attempts"`
	InitialBackoffMS int `yaml:"initial_backoff_ms" mapstructure:"initial_backoff_ms"`
}

// StoreConfig configures the candidate store backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// ServerConfig configures the session API server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("RECLUTA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("processor.base_url", "http://localhost:8001")
	v.SetDefault("processor.timeout_secs", 120)
	v.SetDefault("processor.rate_limit_rps", 0)
	v.SetDefault("anthropic.haiku_model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.sonnet_model", "claude-sonnet-4-5-20250929")
	v.SetDefault("deep.provider", "processor")
	v.SetDefault("deep.model", "haiku")
	v.SetDefault("batch.concurrency", 3)
	v.SetDefault("batch.max_files", 20)
	v.SetDefault("batch.max_file_size_mb", 5)
	v.SetDefault("retry.max_attempts", 3)
	v.SetDefault("retry.initial_backoff_ms", 1000)
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "recluta.db")
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
