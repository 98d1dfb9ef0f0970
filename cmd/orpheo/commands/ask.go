// ABOUTME: CLI command to ask the document agents a single question
// ABOUTME: Builds or refreshes the graph, then prints the top agent's answer
package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// DefaultQuestion is asked when no question is given
const DefaultQuestion = "Summarize the content of the documents"

// NewAskCmd creates the ask command
func NewAskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Ask a question across all documents",
		Long: `Ask a question across all documents in --in-dir.

The top-level agent picks the relevant document agents, which answer with
their vector search and summary tools. Without a question the documents
are summarized.

Examples:
  orpheo ask
  orpheo ask "What do the videos say about sleep?"
  orpheo ask --in-dir ./notes "Which meeting mentioned the budget?"`,
		RunE: runAsk,
	}

	return cmd
}

func runAsk(cmd *cobra.Command, args []string) error {
	question := strings.TrimSpace(strings.Join(args, " "))
	if question == "" {
		question = DefaultQuestion
	}

	ctx, stop := signalContext()
	defer stop()

	agents, _, logger, err := buildGraph(ctx, cmd)
	if err != nil {
		return err
	}

	logger.Debug("asking", "question", question)
	answer, err := agents.Ask(ctx, question)
	if err != nil {
		return fmt.Errorf("asking %q: %w", truncate(question, 40), err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), answer)
	return nil
}
