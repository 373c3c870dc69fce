// Package config loads coursemind configuration from YAML with environment
// variable overrides for secrets.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all coursemind configuration.
type Config struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	LLM       LLMConfig       `yaml:"llm"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Storage   StorageConfig   `yaml:"storage"`
	Session   SessionConfig   `yaml:"session"`
	Ingest    IngestConfig    `yaml:"ingest"`
	Server    ServerConfig    `yaml:"server"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LLMConfig configures the answer-generating model.
type LLMConfig struct {
	Provider      string  `yaml:"provider"` // anthropic
	APIKey        string  `yaml:"api_key"`
	Model         string  `yaml:"model"`
	BaseURL       string  `yaml:"base_url"`
	Timeout       string  `yaml:"timeout"`
	MaxTokens     int     `yaml:"max_tokens"`
	Temperature   float64 `yaml:"temperature"`
	MaxToolRounds int     `yaml:"max_tool_rounds"`
}

// EmbeddingConfig configures the embedding engine.
type EmbeddingConfig struct {
	Provider string `yaml:"provider"` // genai or ollama

	GenAIAPIKey string `yaml:"genai_api_key"`
	GenAIModel  string `yaml:"genai_model"`

	OllamaEndpoint string `yaml:"ollama_endpoint"`
	OllamaModel    string `yaml:"ollama_model"`
}

// StorageConfig configures the vector store.
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
	MaxResults   int    `yaml:"max_results"`
}

// SessionConfig configures conversational memory.
type SessionConfig struct {
	MaxHistory int `yaml:"max_history"` // exchanges kept per session
}

// IngestConfig configures document ingestion.
type IngestConfig struct {
	DocsPath     string `yaml:"docs_path"`
	ChunkSize    int    `yaml:"chunk_size"`
	ChunkOverlap int    `yaml:"chunk_overlap"`
	Watch        bool   `yaml:"watch"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// LoggingConfig configures the categorized file logger.
type LoggingConfig struct {
	Debug bool   `yaml:"debug"`
	Level string `yaml:"level"` // debug, info, warn, error
	Dir   string `yaml:"dir"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Name:    "coursemind",
		Version: "0.3.0",

		LLM: LLMConfig{
			Provider:      "anthropic",
			Model:         "claude-sonnet-4-20250514",
			BaseURL:       "https://api.anthropic.com/v1",
			Timeout:       "120s",
			MaxTokens:     800,
			Temperature:   0,
			MaxToolRounds: 2,
		},

		Embedding: EmbeddingConfig{
			Provider:       "genai",
			GenAIModel:     "gemini-embedding-001",
			OllamaEndpoint: "http://localhost:11434",
			OllamaModel:    "embeddinggemma",
		},

		Storage: StorageConfig{
			DatabasePath: "data/coursemind.db",
			MaxResults:   5,
		},

		Session: SessionConfig{
			MaxHistory: 2,
		},

		Ingest: IngestConfig{
			DocsPath:     "docs",
			ChunkSize:    800,
			ChunkOverlap: 100,
			Watch:        false,
		},

		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8000,
		},

		Logging: LoggingConfig{
			Level: "info",
			Dir:   "data",
		},
	}
}

// Load loads configuration from a YAML file. A missing file is not an error;
// defaults plus environment overrides apply.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides. Secrets always
// come from the environment when present, so config files stay committable.
func (c *Config) applyEnvOverrides() {
	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		c.LLM.APIKey = key
	}
	if model := os.Getenv("ANTHROPIC_MODEL"); model != "" {
		c.LLM.Model = model
	}
	if url := os.Getenv("ANTHROPIC_BASE_URL"); url != "" {
		c.LLM.BaseURL = url
	}

	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		c.Embedding.GenAIAPIKey = key
		if c.Embedding.Provider == "" {
			c.Embedding.Provider = "genai"
		}
	}
	if ep := os.Getenv("OLLAMA_ENDPOINT"); ep != "" {
		c.Embedding.OllamaEndpoint = ep
		c.Embedding.Provider = "ollama"
	}

	if path := os.Getenv("COURSEMIND_DB"); path != "" {
		c.Storage.DatabasePath = path
	}
	if docs := os.Getenv("COURSEMIND_DOCS"); docs != "" {
		c.Ingest.DocsPath = docs
	}
}

// GetLLMTimeout returns the LLM timeout as a duration.
func (c *Config) GetLLMTimeout() time.Duration {
	d, err := time.ParseDuration(c.LLM.Timeout)
	if err != nil {
		return 120 * time.Second
	}
	return d
}

// Validate checks the configuration for fatal problems.
func (c *Config) Validate() error {
	if c.LLM.APIKey == "" {
		return fmt.Errorf("llm.api_key is required (set ANTHROPIC_API_KEY)")
	}
	if c.LLM.MaxToolRounds < 0 {
		return fmt.Errorf("llm.max_tool_rounds must be non-negative")
	}
	if c.Session.MaxHistory <= 0 {
		return fmt.Errorf("session.max_history must be positive")
	}
	if c.Ingest.ChunkOverlap >= c.Ingest.ChunkSize {
		return fmt.Errorf("ingest.chunk_overlap must be smaller than chunk_size")
	}
	return nil
}
