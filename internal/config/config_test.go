// ABOUTME: Tests for centralized configuration system
// ABOUTME: Verifies defaults, YAML overlay, environment variable parsing and validation
package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	// Clear environment to test defaults
	os.Clearenv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Provider != ProviderOpenAI {
		t.Errorf("Provider = %s, want openai", cfg.Provider)
	}
	if cfg.ChatModel != "gpt-4o-mini" {
		t.Errorf("ChatModel = %s, want gpt-4o-mini", cfg.ChatModel)
	}
	if cfg.EmbeddingModel != "text-embedding-3-small" {
		t.Errorf("EmbeddingModel = %s, want text-embedding-3-small", cfg.EmbeddingModel)
	}
	if cfg.Timeout != 120*time.Second {
		t.Errorf("Timeout = %v, want 120s", cfg.Timeout)
	}
	if cfg.MaxRetries != 3 {
		t.Errorf("MaxRetries = %d, want 3", cfg.MaxRetries)
	}
	if cfg.InDir != "./data/youtube" {
		t.Errorf("InDir = %s, want ./data/youtube", cfg.InDir)
	}
	if cfg.OutDir != "./results/youtube" {
		t.Errorf("OutDir = %s, want ./results/youtube", cfg.OutDir)
	}
	if cfg.ChunkSize != 1024 || cfg.ChunkOverlap != 200 {
		t.Errorf("chunking = %d/%d, want 1024/200", cfg.ChunkSize, cfg.ChunkOverlap)
	}
	if cfg.SimilarityTopK != 2 || cfg.ToolTopK != 2 {
		t.Errorf("top-k = %d/%d, want 2/2", cfg.SimilarityTopK, cfg.ToolTopK)
	}
	if cfg.MaxIterations != 10 {
		t.Errorf("MaxIterations = %d, want 10", cfg.MaxIterations)
	}
	if cfg.BuildConcurrency != 4 {
		t.Errorf("BuildConcurrency = %d, want 4", cfg.BuildConcurrency)
	}
	if len(cfg.DocumentKeywords) != 0 {
		t.Errorf("DocumentKeywords = %v, want none", cfg.DocumentKeywords)
	}
}

func TestLoad_CustomValues(t *testing.T) {
	os.Clearenv()
	os.Setenv("OPENAI_API_KEY", "test-key")
	os.Setenv("ORPHEO_CHAT_MODEL", "gpt-4o")
	os.Setenv("ORPHEO_TIMEOUT", "60s")
	os.Setenv("ORPHEO_MAX_RETRIES", "5")
	os.Setenv("ORPHEO_IN_DIR", "/tmp/in")
	os.Setenv("ORPHEO_TOOL_TOP_K", "3")
	os.Setenv("ORPHEO_DOCUMENT_KEYWORDS", "speaker, topic ,,date")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.OpenAIKey != "test-key" {
		t.Errorf("OpenAIKey = %s, want test-key", cfg.OpenAIKey)
	}
	if cfg.ChatModel != "gpt-4o" {
		t.Errorf("ChatModel = %s, want gpt-4o", cfg.ChatModel)
	}
	if cfg.Timeout != 60*time.Second {
		t.Errorf("Timeout = %v, want 60s", cfg.Timeout)
	}
	if cfg.MaxRetries != 5 {
		t.Errorf("MaxRetries = %d, want 5", cfg.MaxRetries)
	}
	if cfg.InDir != "/tmp/in" {
		t.Errorf("InDir = %s, want /tmp/in", cfg.InDir)
	}
	if cfg.ToolTopK != 3 {
		t.Errorf("ToolTopK = %d, want 3", cfg.ToolTopK)
	}
	want := []string{"speaker", "topic", "date"}
	if len(cfg.DocumentKeywords) != len(want) {
		t.Fatalf("DocumentKeywords = %v, want %v", cfg.DocumentKeywords, want)
	}
	for i := range want {
		if cfg.DocumentKeywords[i] != want[i] {
			t.Errorf("DocumentKeywords[%d] = %s, want %s", i, cfg.DocumentKeywords[i], want[i])
		}
	}
}

func TestLoad_OllamaDefaults(t *testing.T) {
	os.Clearenv()
	os.Setenv("ORPHEO_PROVIDER", "Ollama")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Provider != ProviderOllama {
		t.Errorf("Provider = %s, want ollama", cfg.Provider)
	}
	if cfg.ChatModel != "llama3.2" {
		t.Errorf("ChatModel = %s, want llama3.2", cfg.ChatModel)
	}
	if cfg.BaseURL != "http://localhost:11434/v1" {
		t.Errorf("BaseURL = %s, want ollama default", cfg.BaseURL)
	}
	if cfg.RequiresAPIKey() {
		t.Error("ollama should not require an API key")
	}
}

func TestLoadFile_YAMLOverlay(t *testing.T) {
	os.Clearenv()
	path := filepath.Join(t.TempDir(), "orpheo.yaml")
	content := `
chat_model: gpt-4.1-mini
timeout: 45s
in_dir: ./corpus
document_keywords:
  - speaker
  - venue
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	os.Setenv("ORPHEO_IN_DIR", "./from-env")

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() failed: %v", err)
	}
	if cfg.ChatModel != "gpt-4.1-mini" {
		t.Errorf("ChatModel = %s, want gpt-4.1-mini", cfg.ChatModel)
	}
	if cfg.Timeout != 45*time.Second {
		t.Errorf("Timeout = %v, want 45s", cfg.Timeout)
	}
	if cfg.InDir != "./from-env" {
		t.Errorf("InDir = %s, env should win over file", cfg.InDir)
	}
	if len(cfg.DocumentKeywords) != 2 {
		t.Errorf("DocumentKeywords = %v, want 2 entries", cfg.DocumentKeywords)
	}
}

func TestLoadFile_Missing(t *testing.T) {
	os.Clearenv()
	if _, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"unknown provider", func(c *Config) { c.Provider = "bard" }, true},
		{"azure without endpoint", func(c *Config) { c.Provider = ProviderAzure }, true},
		{"azure with endpoint", func(c *Config) { c.Provider = ProviderAzure; c.BaseURL = "https://x.openai.azure.com" }, false},
		{"negative retries", func(c *Config) { c.MaxRetries = -1 }, true},
		{"too many retries", func(c *Config) { c.MaxRetries = 11 }, true},
		{"zero retry delay", func(c *Config) { c.RetryDelay = 0 }, false},
		{"negative retry delay", func(c *Config) { c.RetryDelay = -time.Second }, true},
		{"zero chunk size", func(c *Config) { c.ChunkSize = 0 }, true},
		{"overlap equals size", func(c *Config) { c.ChunkOverlap = c.ChunkSize }, true},
		{"zero similarity top-k", func(c *Config) { c.SimilarityTopK = 0 }, true},
		{"zero tool top-k", func(c *Config) { c.ToolTopK = 0 }, true},
		{"zero iterations", func(c *Config) { c.MaxIterations = 0 }, true},
		{"zero concurrency", func(c *Config) { c.BuildConcurrency = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestGetEnvInt_InvalidFallsBack(t *testing.T) {
	os.Clearenv()
	os.Setenv("ORPHEO_CHUNK_SIZE", "lots")
	if got := getEnvInt("ORPHEO_CHUNK_SIZE", 7); got != 7 {
		t.Errorf("getEnvInt() = %d, want fallback 7", got)
	}
}
