// ABOUTME: Main entry point for the Orpheo MCP server with stdio transport
// ABOUTME: Loads configuration, builds the document agent graph and serves the MCP tools
package main

import (
	"context"
	"log"
	"os"

	"github.com/joho/godotenv"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/harper/orpheo/internal/config"
	"github.com/harper/orpheo/internal/core"
	"github.com/harper/orpheo/internal/logging"
	"github.com/harper/orpheo/internal/mcp"
)

func main() {
	// Load .env file if it exists (for API keys)
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found (this is okay for production): %v", err)
	}

	cfg, err := config.LoadFile(os.Getenv("ORPHEO_CONFIG"))
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// stdout carries the protocol
	logger := logging.New(os.Stderr, logging.Options{Level: cfg.LogLevel})
	if cfg.RequiresAPIKey() && cfg.OpenAIKey == "" {
		logger.Warn("OPENAI_API_KEY not set - embeddings and LLM calls will fail")
	}

	agents, err := core.NewFromConfig(cfg, logger)
	if err != nil {
		log.Fatalf("Failed to initialize document agents: %v", err)
	}
	if err := agents.UpdateFiles(context.Background()); err != nil {
		logger.Warn("initial build failed; call rebuild_index once documents exist", "error", err)
	}

	server := mcpserver.NewMCPServer("Orpheo Document Agents", "0.1.0")
	mcp.RegisterTools(server, agents, logger)

	logger.Info("MCP server starting on stdio", "in_dir", cfg.InDir)
	if err := mcpserver.ServeStdio(server); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
