// ABOUTME: CLI command for an interactive terminal chat with the document agents
// ABOUTME: Builds the graph, then hands the top agent to the bubbletea chat UI
package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harper/orpheo/internal/tui"
)

// NewChatCmd creates the chat command
func NewChatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat with the documents in the terminal",
		Long: `Open an interactive terminal chat with the top-level document agent.

The conversation is kept between messages; type /reset to start over.
Press Esc or Ctrl+C to quit.

Examples:
  orpheo chat
  orpheo chat --in-dir ./notes`,
		RunE: runChat,
	}

	return cmd
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext()
	defer stop()

	agents, cfg, _, err := buildGraph(ctx, cmd)
	if err != nil {
		return err
	}

	top, err := agents.TopAgent()
	if err != nil {
		return err
	}

	summary := fmt.Sprintf("%d document(s) from %s", len(agents.Documents()), cfg.InDir)
	return tui.Run(top, summary, cfg.Timeout)
}
