// ABOUTME: CLI command to build or refresh every per-document index
// ABOUTME: Prints each document's cache directory, chunk count and cache reuse
package commands

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/harper/orpheo/internal/models"
)

// NewIndexCmd creates the index command
func NewIndexCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Build or refresh the document indexes",
		Long: `Build or refresh the vector and summary index of every document in --in-dir.

Documents whose content is unchanged reuse their cached index under --out-dir.

Examples:
  orpheo index
  orpheo index --format json
  orpheo index --in-dir ./data/youtube --out-dir ./results/youtube`,
		RunE: runIndex,
	}

	return cmd
}

func runIndex(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext()
	defer stop()

	agents, _, _, err := buildGraph(ctx, cmd)
	if err != nil {
		return err
	}

	return printDocuments(cmd, agents.Documents())
}

// printDocuments renders document statuses in the selected --format
func printDocuments(cmd *cobra.Command, docs []models.DocumentStatus) error {
	out := cmd.OutOrStdout()

	switch outputFormat {
	case "json":
		jsonData, err := json.MarshalIndent(docs, "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling JSON: %w", err)
		}
		fmt.Fprintf(out, "%s\n", jsonData)
		return nil
	case "yaml":
		yamlData, err := yaml.Marshal(docs)
		if err != nil {
			return fmt.Errorf("marshaling YAML: %w", err)
		}
		fmt.Fprintf(out, "%s", yamlData)
		return nil
	case "auto", "table", "":
	default:
		return fmt.Errorf("unknown format %q (want auto, table, json or yaml)", outputFormat)
	}

	if len(docs) == 0 {
		if !quiet {
			fmt.Fprintf(out, "No documents found\n")
		}
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "TITLE\tCHUNKS\tCACHE\tPATH\n")
	fmt.Fprintf(w, "-----\t------\t-----\t----\n")
	for _, doc := range docs {
		cache := "built"
		if doc.CacheReused {
			cache = "reused"
		}
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", truncate(doc.Title, 40), doc.Chunks, cache, doc.Path)
	}
	w.Flush()

	if !quiet {
		fmt.Fprintf(out, "\nTotal: %d document(s)\n", len(docs))
	}
	return nil
}
