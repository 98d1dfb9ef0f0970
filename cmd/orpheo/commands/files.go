// ABOUTME: CLI commands for preparing a document folder
// ABOUTME: Lists files, merges them into one, and removes spaces from names
package commands

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/harper/orpheo/internal/files"
	"github.com/harper/orpheo/internal/logging"
)

var mergeOutput string

// NewFilesCmd creates the files command group
func NewFilesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "files",
		Short: "Prepare a folder of documents",
		Long: `Helpers for preparing a folder of documents before indexing.

Examples:
  orpheo files list ./data/youtube
  orpheo files merge ./data/youtube --output merged.txt
  orpheo files rename ./data/youtube`,
	}

	cmd.AddCommand(newFilesListCmd(), newFilesMergeCmd(), newFilesRenameCmd())
	return cmd
}

func newFilesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list <dir>",
		Short: "List every file under a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			paths, err := files.ListAllFiles(args[0])
			if err != nil {
				return err
			}
			for _, p := range paths {
				fmt.Fprintln(cmd.OutOrStdout(), p)
			}
			if !quiet {
				fmt.Fprintf(cmd.ErrOrStderr(), "Total: %d file(s)\n", len(paths))
			}
			return nil
		},
	}
}

func newFilesMergeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "merge <dir>",
		Short: "Merge every file under a directory into one file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if mergeOutput == "" {
				return fmt.Errorf("--output is required")
			}
			n, err := files.MergeFiles(args[0], mergeOutput, cliLogger(cmd))
			if err != nil {
				return err
			}
			if !quiet {
				fmt.Fprintf(cmd.OutOrStdout(), "Merged %d file(s) into %s\n", n, mergeOutput)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&mergeOutput, "output", "o", "", "File to write the merged content to")
	return cmd
}

func newFilesRenameCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rename <dir>",
		Short: "Replace spaces with underscores in file and directory names",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := files.RenameRemoveSpaces(args[0], cliLogger(cmd))
			if err != nil {
				return err
			}
			if !quiet {
				fmt.Fprintf(cmd.OutOrStdout(), "Renamed %d path(s)\n", n)
			}
			return nil
		},
	}
}

// cliLogger builds a stderr logger from the global flags without loading configuration
func cliLogger(cmd *cobra.Command) *slog.Logger {
	level := "info"
	switch {
	case verbose:
		level = "debug"
	case quiet:
		level = "error"
	}
	return logging.New(cmd.ErrOrStderr(), logging.Options{Level: level, JSON: outputFormat == "json"})
}
