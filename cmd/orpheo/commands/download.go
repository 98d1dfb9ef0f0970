// ABOUTME: CLI commands that download source documents for indexing
// ABOUTME: Fetches a YouTube channel's video metadata and transcripts into a folder
package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harper/orpheo/internal/download/youtube"
)

var (
	ytSecretsFile string
	ytTokenFile   string
	ytOutDir      string
	ytMaxVideos   int
	ytRate        float64
)

// NewDownloadCmd creates the download command group
func NewDownloadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "download",
		Short: "Download documents to index",
		Long: `Download documents from external sources into a folder that
orpheo can index.`,
	}

	cmd.AddCommand(newDownloadYouTubeCmd())
	return cmd
}

func newDownloadYouTubeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "youtube",
		Short: "Download your channel's video metadata and transcripts",
		Long: `Download the authenticated user's YouTube channel.

Each video is written as <title>.info.json (metadata) and <title>.srt
(transcript, where captions are available). The first run opens the
OAuth consent flow and caches the token; later runs refresh it.

Requires an OAuth client secrets file for a desktop application from
the Google Cloud console.`,
		Example: `  orpheo download youtube --secrets client_secrets.json
  orpheo download youtube --out ./data/youtube --max 20`,
		RunE: runDownloadYouTube,
	}

	cmd.Flags().StringVar(&ytSecretsFile, "secrets", "client_secrets.json", "OAuth client secrets file")
	cmd.Flags().StringVar(&ytTokenFile, "token", youtube.DefaultTokenFile, "Where the OAuth token is cached")
	cmd.Flags().StringVar(&ytOutDir, "out", "", "Output directory (defaults to the configured input directory)")
	cmd.Flags().IntVar(&ytMaxVideos, "max", 0, "Maximum number of videos (0 for all)")
	cmd.Flags().Float64Var(&ytRate, "rate", 5, "API requests per second")

	return cmd
}

func runDownloadYouTube(cmd *cobra.Command, args []string) error {
	if ytMaxVideos < 0 {
		return fmt.Errorf("max must not be negative, got %d", ytMaxVideos)
	}
	if err := validatePositiveFloat(ytRate, "rate"); err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cmd, cfg)

	outDir := ytOutDir
	if outDir == "" {
		outDir = cfg.InDir
	}

	auth := &youtube.Authenticator{
		SecretsFile: ytSecretsFile,
		TokenFile:   ytTokenFile,
		Prompt:      cmd.ErrOrStderr(),
		Logger:      logger,
	}
	ts, err := auth.TokenSource(ctx)
	if err != nil {
		return err
	}

	downloader, err := youtube.NewDownloader(ctx, ts, youtube.Options{
		RequestsPerSecond: ytRate,
		Logger:            logger,
	})
	if err != nil {
		return err
	}

	result, err := downloader.DownloadChannel(ctx, outDir, ytMaxVideos)
	if err != nil {
		return err
	}

	if !quiet {
		fmt.Fprintf(cmd.OutOrStdout(), "Channel %s: %d video(s), %d downloaded, %d failed -> %s\n",
			result.ChannelID, result.Videos, result.Succeeded, result.Failed, outDir)
	}
	return nil
}
