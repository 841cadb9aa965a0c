// Package embedding provides the text embedding client used for both
// ingestion and query embedding.
package embedding

import (
	"context"
	"fmt"
	"strings"
)

// Embedder converts free text into a fixed-length numeric vector.
type Embedder interface {
	// Embed returns the embedding vector for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)
	// Dimension returns the output dimensionality, 0 if not yet known.
	Dimension() int
	// ModelName identifies the active model for logging.
	ModelName() string
}

// Config selects and configures the embedder implementation.
type Config struct {
	Provider    string `yaml:"provider"`
	BaseURL     string `yaml:"base_url"`
	APIKey      string `yaml:"-"`
	Model       string `yaml:"model"`
	TimeoutSecs int    `yaml:"timeout_secs"`
	Dimension   int    `yaml:"dimension"`
}

// New builds an embedder from config. Provider "openai" talks to an
// OpenAI-compatible embeddings endpoint; "local" produces deterministic
// hashed vectors without any external service.
func New(cfg Config) (Embedder, error) {
	switch strings.ToLower(cfg.Provider) {
	case "openai":
		return NewClient(cfg)
	case "local", "":
		return NewLocal(cfg.Dimension), nil
	}
	return nil, fmt.Errorf("unknown embedding provider %q", cfg.Provider)
}
