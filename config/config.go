package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// EmbeddingConfig configures the OpenAI-compatible embedding endpoint.
type EmbeddingConfig struct {
	Host      string `yaml:"host"`
	Model     string `yaml:"model"`
	APIKeyEnv string `yaml:"api_key_env"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	ChunkSize        int             `yaml:"chunk_size"`
	ChunkOverlap     int             `yaml:"chunk_overlap"`
	TopKResults      int             `yaml:"top_k_results"`
	BatchSize        int             `yaml:"batch_size"`
	KnowledgeBaseDir string          `yaml:"knowledge_base_dir"`
	IndexDir         string          `yaml:"index_dir"`
	KeywordRules     string          `yaml:"keyword_rules"`
	Embedding        EmbeddingConfig `yaml:"embedding"`
}

// Load reads a config from the specified path. If the file does not exist,
// returns defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, err
	}

	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	// Zero is a legal overlap, so chunk_overlap needs a presence check
	// instead of the usual zero-means-unset defaulting.
	var overlap struct {
		Value *int `yaml:"chunk_overlap"`
	}
	if err := yaml.Unmarshal(data, &overlap); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)
	if overlap.Value != nil {
		cfg.ChunkOverlap = *overlap.Value
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Default returns the configuration used when no config file exists.
func Default() *AppConfig {
	cfg := &AppConfig{}
	applyDefaults(cfg)
	return cfg
}

// Validate checks invariants that would make the pipeline misbehave.
func (c *AppConfig) Validate() error {
	if c.ChunkSize < 1 {
		return fmt.Errorf("%w: chunk_size must be positive, got %d", ErrInvalidConfig, c.ChunkSize)
	}
	if c.ChunkOverlap < 0 {
		return fmt.Errorf("%w: chunk_overlap must not be negative, got %d", ErrInvalidConfig, c.ChunkOverlap)
	}
	if c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("%w: chunk_overlap (%d) must be smaller than chunk_size (%d)",
			ErrInvalidConfig, c.ChunkOverlap, c.ChunkSize)
	}
	if c.TopKResults < 1 {
		return fmt.Errorf("%w: top_k_results must be positive, got %d", ErrInvalidConfig, c.TopKResults)
	}
	if c.BatchSize < 1 {
		return fmt.Errorf("%w: batch_size must be positive, got %d", ErrInvalidConfig, c.BatchSize)
	}
	return nil
}

// APIKey resolves the embedding API key from the configured environment
// variable. Returns an empty string when unset; the embedder substitutes a
// placeholder for keyless local endpoints.
func (c *AppConfig) APIKey() string {
	if c.Embedding.APIKeyEnv == "" {
		return ""
	}
	return os.Getenv(c.Embedding.APIKeyEnv)
}

func applyDefaults(cfg *AppConfig) {
	if cfg.ChunkSize == 0 {
		cfg.ChunkSize = 500
	}
	if cfg.ChunkOverlap == 0 {
		cfg.ChunkOverlap = 100
	}
	if cfg.TopKResults == 0 {
		cfg.TopKResults = 3
	}
	if cfg.BatchSize == 0 {
		cfg.BatchSize = 100
	}
	if cfg.KnowledgeBaseDir == "" {
		cfg.KnowledgeBaseDir = "knowledge_base"
	}
	if cfg.IndexDir == "" {
		cfg.IndexDir = "index_db"
	}
	if cfg.Embedding.Host == "" {
		cfg.Embedding.Host = "http://localhost:11434/v1"
	}
	if cfg.Embedding.Model == "" {
		cfg.Embedding.Model = "embeddinggemma"
	}
	if cfg.Embedding.APIKeyEnv == "" {
		cfg.Embedding.APIKeyEnv = "EMBEDDING_API_KEY"
	}
}
