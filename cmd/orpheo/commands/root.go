// ABOUTME: Root command, global flags and shared setup for every subcommand
// ABOUTME: Loads .env and configuration, builds the logger and the document agent graph
package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/harper/orpheo/internal/config"
	"github.com/harper/orpheo/internal/core"
	"github.com/harper/orpheo/internal/logging"
)

var (
	verbose      bool
	quiet        bool
	outputFormat string
	configPath   string
	inDirFlag    string
	outDirFlag   string
)

const banner = `
 ██████  ██████  ██████  ██   ██ ███████  ██████
██    ██ ██   ██ ██   ██ ██   ██ ██      ██    ██
██    ██ ██████  ██████  ███████ █████   ██    ██
██    ██ ██   ██ ██      ██   ██ ██      ██    ██
 ██████  ██   ██ ██      ██   ██ ███████  ██████
`

// NewRootCmd creates the root command with all subcommands attached
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "orpheo",
		Short: "Ask questions across a folder of documents",
		Long: banner + `
Orpheo builds one agent per document (a vector search tool and a summary
tool over its content) and a top-level agent that picks the right
document agents for each question.

Point it at a folder of transcripts, notes or exports with --in-dir.
Indexes are cached under --out-dir and reused while the content is unchanged.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	cmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Only log errors")
	cmd.PersistentFlags().StringVar(&outputFormat, "format", "auto", "Output format (auto, table, json, yaml)")
	cmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a YAML configuration file")
	cmd.PersistentFlags().StringVar(&inDirFlag, "in-dir", "", "Directory of documents (overrides ORPHEO_IN_DIR)")
	cmd.PersistentFlags().StringVar(&outDirFlag, "out-dir", "", "Directory for cached indexes (overrides ORPHEO_OUT_DIR)")
	cmd.MarkFlagsMutuallyExclusive("verbose", "quiet")

	cmd.AddCommand(
		NewAskCmd(),
		NewIndexCmd(),
		NewChatCmd(),
		NewServeCmd(),
		NewMCPCmd(),
		NewFilesCmd(),
		NewDownloadCmd(),
		NewVersionCmd(),
	)

	return cmd
}

// Execute runs the root command
func Execute() error {
	return NewRootCmd().Execute()
}

// loadConfig reads .env, the optional config file and the environment, then applies flag overrides
func loadConfig() (*config.Config, error) {
	_ = godotenv.Load()

	cfg, err := config.LoadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	if inDirFlag != "" {
		cfg.InDir = inDirFlag
	}
	if outDirFlag != "" {
		cfg.OutDir = outDirFlag
	}
	switch {
	case verbose:
		cfg.LogLevel = "debug"
	case quiet:
		cfg.LogLevel = "error"
	}
	return cfg, nil
}

// newLogger writes to stderr so stdout stays free for answers and protocol traffic
func newLogger(cmd *cobra.Command, cfg *config.Config) *slog.Logger {
	return logging.New(cmd.ErrOrStderr(), logging.Options{
		Level: cfg.LogLevel,
		JSON:  outputFormat == "json",
	})
}

// buildGraph loads configuration and builds the document agent graph for the input directory
func buildGraph(ctx context.Context, cmd *cobra.Command, configure ...func(*core.Options)) (*core.MultiDocumentAgents, *config.Config, *slog.Logger, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, nil, err
	}
	logger := newLogger(cmd, cfg)
	warnMissingKey(cfg, logger)

	agents, err := core.NewFromConfig(cfg, logger, configure...)
	if err != nil {
		return nil, nil, nil, err
	}

	logger.Info("building document agents", "in_dir", cfg.InDir, "out_dir", cfg.OutDir)
	if err := agents.UpdateFiles(ctx); err != nil {
		return agents, cfg, logger, fmt.Errorf("building document agents: %w", err)
	}
	return agents, cfg, logger, nil
}

func warnMissingKey(cfg *config.Config, logger *slog.Logger) {
	if cfg.RequiresAPIKey() && cfg.OpenAIKey == "" {
		logger.Warn("OPENAI_API_KEY not set - embeddings and LLM calls will fail")
	}
}
