// ABOUTME: Version command to display build information
// ABOUTME: Prints version, commit and build date as text, JSON or YAML
package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var versionInfo = VersionInfo{
	Version: "dev",
	Commit:  "none",
	Date:    "unknown",
}

// VersionInfo contains build information
type VersionInfo struct {
	Version string `json:"version" yaml:"version"`
	Commit  string `json:"commit" yaml:"commit"`
	Date    string `json:"date" yaml:"date"`
}

// SetVersion records build information (called from main)
func SetVersion(version, commit, date string) {
	versionInfo = VersionInfo{Version: version, Commit: commit, Date: date}
}

// NewVersionCmd creates the version command
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display version, commit hash, and build date for the Orpheo CLI.`,
		RunE:  runVersion,
	}
}

func runVersion(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	switch outputFormat {
	case "json":
		data, err := json.MarshalIndent(versionInfo, "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling JSON: %w", err)
		}
		fmt.Fprintf(out, "%s\n", data)
	case "yaml":
		data, err := yaml.Marshal(versionInfo)
		if err != nil {
			return fmt.Errorf("marshaling YAML: %w", err)
		}
		fmt.Fprintf(out, "%s", data)
	default:
		fmt.Fprintf(out, "Orpheo %s\n", versionInfo.Version)
		fmt.Fprintf(out, "Commit: %s\n", versionInfo.Commit)
		fmt.Fprintf(out, "Built:  %s\n", versionInfo.Date)
	}
	return nil
}
