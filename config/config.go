package config

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"converteasy/tasks"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	ServerPort      int           `mapstructure:"port" validate:"gte=1,lte=65535"`
	LogLevel        string        `mapstructure:"log_level" validate:"oneof=DEBUG INFO WARN ERROR FATAL"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0,lte=5m"`
	Version         string        `mapstructure:"version" validate:"required"`

	// Workers
	WorkerCount int `mapstructure:"worker_count" validate:"gte=1,lte=256"`
	QueueSize   int `mapstructure:"queue_size" validate:"gte=1"`

	// Task lifetime
	TaskTTL      time.Duration `mapstructure:"task_ttl" validate:"gt=0"`
	ReapInterval time.Duration `mapstructure:"reap_interval" validate:"gt=0"`

	// Conversion. A zero BackendTimeout lets a backend run as long as the
	// request lives.
	BackendTimeout time.Duration       `mapstructure:"backend_timeout" validate:"gte=0"`
	ChunkMaxLen    int                 `mapstructure:"chunk_max_len" validate:"gte=1"`
	ChunkThreshold int                 `mapstructure:"chunk_threshold" validate:"gtefield=ChunkMaxLen"`
	InputDir       string              `mapstructure:"input_dir"`
	OutputDir      string              `mapstructure:"output_dir"`
	Chains         map[string][]string `mapstructure:"chains" validate:"dive,keys,oneof=doc2html pdf2doc pdf2ppt,endkeys,dive,required"`

	// Optional listeners, disabled when empty
	RedisURL     string        `mapstructure:"redis_url" validate:"omitempty,url"`
	StatusTTL    time.Duration `mapstructure:"status_ttl" validate:"gt=0"`
	KafkaBrokers []string      `mapstructure:"kafka_brokers" validate:"dive,hostname_port"`
	KafkaTopic   string        `mapstructure:"kafka_topic" validate:"required_with=KafkaBrokers"`
}

var defaults = map[string]any{
	"port":             8080,
	"log_level":        "INFO",
	"shutdown_timeout": 15 * time.Second,
	"version":          "1.0.0",
	"worker_count":     3,
	"queue_size":       100,
	"task_ttl":         time.Hour,
	"reap_interval":    time.Minute,
	"backend_timeout":  2 * time.Minute,
	"chunk_max_len":    800,
	"chunk_threshold":  1000,
	"input_dir":        "",
	"output_dir":       "",
	"redis_url":        "",
	"status_ttl":       10 * time.Minute,
	"kafka_brokers":    []string{},
	"kafka_topic":      "conversion-events",
}

var validate = validator.New()

// Load reads the configuration from defaults, an optional config file and
// environment variables, in increasing order of precedence. Environment
// variables use the upper-cased key (PORT, LOG_LEVEL, TASK_TTL, ...).
//
// When path is empty a converteasy.{yaml,json,toml} in the working directory
// is used if present.
func Load(path string) (*Config, error) {
	v := viper.New()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("converteasy")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !stderrors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Address returns the server address in host:port format
func (c *Config) Address() string {
	return fmt.Sprintf(":%d", c.ServerPort)
}

// DirectionChains converts the configured chains to typed directions.
func (c *Config) DirectionChains() map[tasks.Direction][]string {
	chains := make(map[tasks.Direction][]string, len(c.Chains))
	for name, backends := range c.Chains {
		chains[tasks.Direction(name)] = backends
	}
	return chains
}

// validate normalizes the free-form fields and checks the struct tags.
func (c *Config) validate() error {
	c.LogLevel = strings.ToUpper(strings.TrimSpace(c.LogLevel))
	c.Version = strings.TrimSpace(c.Version)
	c.RedisURL = strings.TrimSpace(c.RedisURL)

	if err := validate.Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if stderrors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return fmt.Errorf("invalid %s %v: failed %q check", fe.Field(), fe.Value(), fe.Tag())
		}
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	return nil
}
