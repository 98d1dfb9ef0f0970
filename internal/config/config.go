// ABOUTME: Centralized configuration for the document agents
// ABOUTME: Loads defaults, an optional YAML file, then environment variables, with validation
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Supported LLM providers
const (
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
	ProviderAzure  = "azure"
)

const (
	defaultOllamaBaseURL        = "http://localhost:11434/v1"
	defaultOllamaChatModel      = "llama3.2"
	defaultOllamaEmbeddingModel = "nomic-embed-text"
	defaultOpenAIChatModel      = "gpt-4o-mini"
	defaultOpenAIEmbeddingModel = "text-embedding-3-small"
)

// Config holds all configuration for the document agents
type Config struct {
	// LLM settings
	Provider        string        `yaml:"provider"`
	OpenAIKey       string        `yaml:"-"`
	BaseURL         string        `yaml:"base_url"`
	AzureAPIVersion string        `yaml:"azure_api_version"`
	ChatModel       string        `yaml:"chat_model"`
	EmbeddingModel  string        `yaml:"embedding_model"`
	Timeout         time.Duration `yaml:"timeout"`
	MaxRetries      int           `yaml:"max_retries"`
	RetryDelay      time.Duration `yaml:"retry_delay"`
	EmbedCacheSize  int           `yaml:"embed_cache_size"`

	// Corpus settings
	InDir        string `yaml:"in_dir"`
	OutDir       string `yaml:"out_dir"`
	ChunkSize    int    `yaml:"chunk_size"`
	ChunkOverlap int    `yaml:"chunk_overlap"`

	// Agent settings
	SimilarityTopK   int      `yaml:"similarity_top_k"`
	ToolTopK         int      `yaml:"tool_top_k"`
	MaxIterations    int      `yaml:"max_iterations"`
	BuildConcurrency int      `yaml:"build_concurrency"`
	DocumentKeywords []string `yaml:"document_keywords"`
	SystemPrompt     string   `yaml:"system_prompt"`

	LogLevel string `yaml:"log_level"`
}

// Default returns the configuration used when nothing is set
func Default() *Config {
	return &Config{
		Provider:         ProviderOpenAI,
		AzureAPIVersion:  "2024-06-01",
		Timeout:          120 * time.Second,
		MaxRetries:       3,
		RetryDelay:       2 * time.Second,
		EmbedCacheSize:   1000,
		InDir:            "./data/youtube",
		OutDir:           "./results/youtube",
		ChunkSize:        1024,
		ChunkOverlap:     200,
		SimilarityTopK:   2,
		ToolTopK:         2,
		MaxIterations:    10,
		BuildConcurrency: 4,
		LogLevel:         "info",
	}
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile reads configuration from an optional YAML file, then environment variables.
// Environment variables win over the file.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	cfg.applyProviderDefaults()

	return cfg, cfg.Validate()
}

func (c *Config) applyEnv() {
	c.Provider = strings.ToLower(getEnv("ORPHEO_PROVIDER", c.Provider))
	c.OpenAIKey = getEnv("OPENAI_API_KEY", c.OpenAIKey)
	c.BaseURL = getEnv("ORPHEO_BASE_URL", c.BaseURL)
	c.AzureAPIVersion = getEnv("ORPHEO_AZURE_API_VERSION", c.AzureAPIVersion)
	c.ChatModel = getEnv("ORPHEO_CHAT_MODEL", c.ChatModel)
	c.EmbeddingModel = getEnv("ORPHEO_EMBEDDING_MODEL", c.EmbeddingModel)
	c.Timeout = getEnvDuration("ORPHEO_TIMEOUT", c.Timeout)
	c.MaxRetries = getEnvInt("ORPHEO_MAX_RETRIES", c.MaxRetries)
	c.RetryDelay = getEnvDuration("ORPHEO_RETRY_DELAY", c.RetryDelay)
	c.EmbedCacheSize = getEnvInt("ORPHEO_EMBED_CACHE_SIZE", c.EmbedCacheSize)
	c.InDir = getEnv("ORPHEO_IN_DIR", c.InDir)
	c.OutDir = getEnv("ORPHEO_OUT_DIR", c.OutDir)
	c.ChunkSize = getEnvInt("ORPHEO_CHUNK_SIZE", c.ChunkSize)
	c.ChunkOverlap = getEnvInt("ORPHEO_CHUNK_OVERLAP", c.ChunkOverlap)
	c.SimilarityTopK = getEnvInt("ORPHEO_SIMILARITY_TOP_K", c.SimilarityTopK)
	c.ToolTopK = getEnvInt("ORPHEO_TOOL_TOP_K", c.ToolTopK)
	c.MaxIterations = getEnvInt("ORPHEO_MAX_ITERATIONS", c.MaxIterations)
	c.BuildConcurrency = getEnvInt("ORPHEO_BUILD_CONCURRENCY", c.BuildConcurrency)
	c.DocumentKeywords = getEnvList("ORPHEO_DOCUMENT_KEYWORDS", c.DocumentKeywords)
	c.SystemPrompt = getEnv("ORPHEO_SYSTEM_PROMPT", c.SystemPrompt)
	c.LogLevel = getEnv("ORPHEO_LOG_LEVEL", c.LogLevel)
}

// applyProviderDefaults fills model names and endpoints left unset
func (c *Config) applyProviderDefaults() {
	switch c.Provider {
	case ProviderOllama:
		if c.BaseURL == "" {
			c.BaseURL = defaultOllamaBaseURL
		}
		if c.ChatModel == "" {
			c.ChatModel = defaultOllamaChatModel
		}
		if c.EmbeddingModel == "" {
			c.EmbeddingModel = defaultOllamaEmbeddingModel
		}
	default:
		if c.ChatModel == "" {
			c.ChatModel = defaultOpenAIChatModel
		}
		if c.EmbeddingModel == "" {
			c.EmbeddingModel = defaultOpenAIEmbeddingModel
		}
	}
}

// Validate checks provider settings and numeric bounds, returning the first problem found
func (c *Config) Validate() error {
	switch c.Provider {
	case ProviderOpenAI, ProviderOllama:
	case ProviderAzure:
		if c.BaseURL == "" {
			return fmt.Errorf("ORPHEO_BASE_URL is required for the azure provider")
		}
	default:
		return fmt.Errorf("ORPHEO_PROVIDER must be openai, ollama or azure, got %q", c.Provider)
	}
	if c.MaxRetries < 0 || c.MaxRetries > 10 {
		return fmt.Errorf("ORPHEO_MAX_RETRIES must be 0-10, got %d", c.MaxRetries)
	}
	if c.RetryDelay < 0 {
		return fmt.Errorf("ORPHEO_RETRY_DELAY cannot be negative, got %s", c.RetryDelay)
	}
	if c.ChunkSize <= 0 {
		return fmt.Errorf("ORPHEO_CHUNK_SIZE must be positive, got %d", c.ChunkSize)
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("ORPHEO_CHUNK_OVERLAP must be 0 to chunk size-1, got %d", c.ChunkOverlap)
	}
	if c.SimilarityTopK < 1 {
		return fmt.Errorf("ORPHEO_SIMILARITY_TOP_K must be at least 1, got %d", c.SimilarityTopK)
	}
	if c.ToolTopK < 1 {
		return fmt.Errorf("ORPHEO_TOOL_TOP_K must be at least 1, got %d", c.ToolTopK)
	}
	if c.MaxIterations < 1 {
		return fmt.Errorf("ORPHEO_MAX_ITERATIONS must be at least 1, got %d", c.MaxIterations)
	}
	if c.BuildConcurrency < 1 {
		return fmt.Errorf("ORPHEO_BUILD_CONCURRENCY must be at least 1, got %d", c.BuildConcurrency)
	}
	if c.EmbedCacheSize < 0 {
		return fmt.Errorf("ORPHEO_EMBED_CACHE_SIZE cannot be negative, got %d", c.EmbedCacheSize)
	}
	return nil
}

// RequiresAPIKey reports whether the provider needs OPENAI_API_KEY
func (c *Config) RequiresAPIKey() bool {
	return c.Provider != ProviderOllama
}

// Helper functions
func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}

func getEnvList(key string, defaultVal []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
