package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "coursemind", cfg.Name)
	assert.Equal(t, 2, cfg.LLM.MaxToolRounds)
	assert.Equal(t, 5, cfg.Storage.MaxResults)
	assert.Equal(t, 800, cfg.Ingest.ChunkSize)
}

func TestLoadParsesYAML(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
llm:
  model: claude-3-5-haiku-20241022
  max_tool_rounds: 3
session:
  max_history: 10
server:
  port: 9000
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "claude-3-5-haiku-20241022", cfg.LLM.Model)
	assert.Equal(t, 3, cfg.LLM.MaxToolRounds)
	assert.Equal(t, 10, cfg.Session.MaxHistory)
	assert.Equal(t, 9000, cfg.Server.Port)
	// Untouched fields keep defaults.
	assert.Equal(t, "https://api.anthropic.com/v1", cfg.LLM.BaseURL)
}

func TestEnvOverrides(t *testing.T) {
	t.Run("ANTHROPIC_API_KEY sets llm key", func(t *testing.T) {
		t.Setenv("ANTHROPIC_API_KEY", "ant-key")

		cfg := DefaultConfig()
		cfg.applyEnvOverrides()

		assert.Equal(t, "ant-key", cfg.LLM.APIKey)
	})

	t.Run("OLLAMA_ENDPOINT switches embedding provider", func(t *testing.T) {
		t.Setenv("OLLAMA_ENDPOINT", "http://box:11434")

		cfg := DefaultConfig()
		cfg.applyEnvOverrides()

		assert.Equal(t, "ollama", cfg.Embedding.Provider)
		assert.Equal(t, "http://box:11434", cfg.Embedding.OllamaEndpoint)
	})

	t.Run("COURSEMIND_DB overrides database path", func(t *testing.T) {
		t.Setenv("COURSEMIND_DB", "/tmp/alt.db")

		cfg := DefaultConfig()
		cfg.applyEnvOverrides()

		assert.Equal(t, "/tmp/alt.db", cfg.Storage.DatabasePath)
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "missing api key",
			mutate:  func(c *Config) { c.LLM.APIKey = "" },
			wantErr: "api_key",
		},
		{
			name:    "negative rounds",
			mutate:  func(c *Config) { c.LLM.MaxToolRounds = -1 },
			wantErr: "max_tool_rounds",
		},
		{
			name:    "zero history",
			mutate:  func(c *Config) { c.Session.MaxHistory = 0 },
			wantErr: "max_history",
		},
		{
			name:    "overlap too large",
			mutate:  func(c *Config) { c.Ingest.ChunkOverlap = c.Ingest.ChunkSize },
			wantErr: "chunk_overlap",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.LLM.APIKey = "key"
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("OLLAMA_ENDPOINT", "")
	t.Setenv("COURSEMIND_DB", "")

	path := filepath.Join(t.TempDir(), "sub", "config.yaml")

	cfg := DefaultConfig()
	cfg.Server.Port = 8123
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 8123, loaded.Server.Port)
}
