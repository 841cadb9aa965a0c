// Package config provides configuration for the server and consumer
// binaries. Values come from defaults, an optional YAML file, then
// environment variables, in increasing precedence. A .env file is honored
// when present.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/nathe444/Homez-AI-Search/internal/embedding"
	"github.com/nathe444/Homez-AI-Search/internal/queue"
)

// Config holds all settings for both binaries.
type Config struct {
	Port               string `yaml:"port"`
	DatabaseURL        string `yaml:"database_url"`
	MigrationsPath     string `yaml:"migrations_path"`
	SearchDefaultLimit int    `yaml:"search_default_limit"`

	Embedding embedding.Config `yaml:"embedding"`
	Queue     queue.Config     `yaml:"queue"`
}

// Load builds the configuration. path selects the YAML file; when empty,
// CONFIG_PATH and then ./config.yaml are tried, and a missing file is fine.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := defaults()

	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path == "" {
		path = "config.yaml"
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	case !errors.Is(err, os.ErrNotExist):
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	applyEnv(cfg)
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Port:               "8080",
		MigrationsPath:     "./migrations",
		SearchDefaultLimit: 20,
		Embedding: embedding.Config{
			Model:       "text-embedding-3-small",
			TimeoutSecs: 30,
			Dimension:   1536,
		},
		Queue: queue.Config{
			Host:         "localhost",
			Port:         5672,
			Username:     "guest",
			Password:     "guest",
			VirtualHost:  "/",
			ProductQueue: "product_queue",
			ServiceQueue: "service_queue",
			MaxAttempts:  5,
		},
	}
}

func applyEnv(cfg *Config) {
	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.DatabaseURL = getEnv("DATABASE_URL", cfg.DatabaseURL)
	cfg.MigrationsPath = getEnv("MIGRATIONS_PATH", cfg.MigrationsPath)
	cfg.SearchDefaultLimit = getEnvInt("SEARCH_DEFAULT_LIMIT", cfg.SearchDefaultLimit)

	cfg.Embedding.BaseURL = getEnv("OPENAI_BASE_URL", cfg.Embedding.BaseURL)
	cfg.Embedding.APIKey = getEnv("OPENAI_API_KEY", cfg.Embedding.APIKey)
	cfg.Embedding.Model = getEnv("EMBEDDING_MODEL", cfg.Embedding.Model)
	cfg.Embedding.Dimension = getEnvInt("EMBED_DIM", cfg.Embedding.Dimension)
	cfg.Embedding.TimeoutSecs = getEnvInt("EMBEDDING_TIMEOUT_SECS", cfg.Embedding.TimeoutSecs)
	cfg.Embedding.Provider = getEnv("EMBEDDING_PROVIDER", cfg.Embedding.Provider)
	if cfg.Embedding.Provider == "" {
		if cfg.Embedding.APIKey != "" {
			cfg.Embedding.Provider = "openai"
		} else {
			cfg.Embedding.Provider = "local"
		}
	}

	cfg.Queue.Host = getEnv("RABBITMQ_HOST", cfg.Queue.Host)
	cfg.Queue.Port = getEnvInt("RABBITMQ_PORT", cfg.Queue.Port)
	cfg.Queue.Username = getEnv("RABBITMQ_USERNAME", cfg.Queue.Username)
	cfg.Queue.Password = getEnv("RABBITMQ_PASSWORD", cfg.Queue.Password)
	cfg.Queue.VirtualHost = getEnv("RABBITMQ_VIRTUAL_HOST", cfg.Queue.VirtualHost)
	cfg.Queue.TLS = getEnvBool("RABBITMQ_TLS", cfg.Queue.TLS)
	cfg.Queue.ProductQueue = getEnv("PRODUCT_QUEUE", cfg.Queue.ProductQueue)
	cfg.Queue.ServiceQueue = getEnv("SERVICE_QUEUE", cfg.Queue.ServiceQueue)
	cfg.Queue.MaxAttempts = getEnvInt("CONSUMER_MAX_ATTEMPTS", cfg.Queue.MaxAttempts)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
