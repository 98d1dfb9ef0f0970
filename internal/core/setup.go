// ABOUTME: Wires configuration into a ready-to-build document agent graph
// ABOUTME: Shared by the CLI commands and the MCP server entry point
package core

import (
	"fmt"
	"log/slog"

	"github.com/harper/orpheo/internal/config"
	"github.com/harper/orpheo/internal/llm"
	"github.com/harper/orpheo/internal/logging"
)

// NewFromConfig creates the LLM client, the embedding cache and the graph owner.
// Each configure func may adjust the options derived from cfg.
func NewFromConfig(cfg *config.Config, logger *slog.Logger, configure ...func(*Options)) (*MultiDocumentAgents, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	client, err := llm.NewOpenAIClientWithConfig(llm.ConfigFrom(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}
	embedder := llm.NewCachedEmbedder(client, cfg.EmbedCacheSize)
	logging.OrDefault(logger).Debug("llm client ready",
		"provider", cfg.Provider,
		"chat_model", client.ChatModelName(),
		"embedding_model", client.ModelName())

	opts := OptionsFrom(cfg, logger)
	for _, fn := range configure {
		fn(&opts)
	}
	return NewMultiDocumentAgents(client, embedder, opts), nil
}
