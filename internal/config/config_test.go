package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.SearchDefaultLimit != 20 {
		t.Errorf("SearchDefaultLimit = %d, want 20", cfg.SearchDefaultLimit)
	}
	if cfg.Queue.ProductQueue != "product_queue" || cfg.Queue.ServiceQueue != "service_queue" {
		t.Errorf("queue names = %q, %q", cfg.Queue.ProductQueue, cfg.Queue.ServiceQueue)
	}
	if cfg.Queue.MaxAttempts != 5 {
		t.Errorf("MaxAttempts = %d, want 5", cfg.Queue.MaxAttempts)
	}
	if cfg.Embedding.Dimension != 1536 {
		t.Errorf("Dimension = %d, want 1536", cfg.Embedding.Dimension)
	}
}

func TestLoadProviderSelection(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.yaml")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Embedding.Provider != "local" {
		t.Errorf("Provider without key = %q, want local", cfg.Embedding.Provider)
	}

	t.Setenv("OPENAI_API_KEY", "sk-test")
	cfg, err = Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Embedding.Provider != "openai" {
		t.Errorf("Provider with key = %q, want openai", cfg.Embedding.Provider)
	}

	t.Setenv("EMBEDDING_PROVIDER", "local")
	cfg, err = Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Embedding.Provider != "local" {
		t.Errorf("explicit Provider = %q, want local", cfg.Embedding.Provider)
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := []byte("port: \"9090\"\nsearch_default_limit: 7\nqueue:\n  host: file-host\n  max_attempts: 2\n")
	if err := os.WriteFile(path, body, 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("RABBITMQ_HOST", "env-host")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "9090" {
		t.Errorf("Port = %q, want file value 9090", cfg.Port)
	}
	if cfg.SearchDefaultLimit != 7 {
		t.Errorf("SearchDefaultLimit = %d, want file value 7", cfg.SearchDefaultLimit)
	}
	if cfg.Queue.MaxAttempts != 2 {
		t.Errorf("MaxAttempts = %d, want file value 2", cfg.Queue.MaxAttempts)
	}
	if cfg.Queue.Host != "env-host" {
		t.Errorf("Host = %q, env must win over the file", cfg.Queue.Host)
	}
}

func TestLoadBadYAMLFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("port: [unclosed"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected a parse error for malformed YAML")
	}
}
