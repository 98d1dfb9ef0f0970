// ABOUTME: Downloads channel and video metadata plus caption transcripts from YouTube
// ABOUTME: Output files are named so the corpus loader can index each video
package youtube

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
	"google.golang.org/api/option"
	yt "google.golang.org/api/youtube/v3"

	"github.com/harper/orpheo/internal/loader"
	"github.com/harper/orpheo/internal/logging"
)

// ChannelInfoFile holds the channel metadata inside the output directory
const ChannelInfoFile = "channel_info.json"

const searchPageSize = 50

// Options configures a Downloader
type Options struct {
	// RequestsPerSecond limits API calls; zero means 5
	RequestsPerSecond float64
	Burst             int
	Logger            *slog.Logger
}

// Downloader fetches channel data through the YouTube Data API
type Downloader struct {
	svc     *yt.Service
	limiter *rate.Limiter
	logger  *slog.Logger
}

// Result summarizes a channel download
type Result struct {
	ChannelID string
	Videos    int
	Succeeded int
	Failed    int
}

// NewDownloader creates a downloader authenticated with ts
func NewDownloader(ctx context.Context, ts oauth2.TokenSource, opts Options) (*Downloader, error) {
	return NewDownloaderWithOptions(ctx, opts, option.WithTokenSource(ts))
}

// NewDownloaderWithOptions creates a downloader with explicit client options
func NewDownloaderWithOptions(ctx context.Context, opts Options, clientOpts ...option.ClientOption) (*Downloader, error) {
	svc, err := yt.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create youtube service: %w", err)
	}
	if opts.RequestsPerSecond <= 0 {
		opts.RequestsPerSecond = 5
	}
	if opts.Burst <= 0 {
		opts.Burst = 5
	}
	return &Downloader{
		svc:     svc,
		limiter: rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), opts.Burst),
		logger:  logging.OrDefault(opts.Logger),
	}, nil
}

// ChannelInfo returns the authenticated user's channel
func (d *Downloader) ChannelInfo(ctx context.Context) (*yt.Channel, error) {
	if err := d.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	resp, err := d.svc.Channels.List([]string{"snippet", "contentDetails", "statistics"}).
		Mine(true).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get channel: %w", err)
	}
	if len(resp.Items) == 0 {
		return nil, fmt.Errorf("no channel found for the authenticated user")
	}
	return resp.Items[0], nil
}

// AllVideos lists the channel's videos newest first. limit <= 0 means all.
func (d *Downloader) AllVideos(ctx context.Context, channelID string, limit int) ([]*yt.SearchResult, error) {
	var videos []*yt.SearchResult
	pageToken := ""
	for {
		if err := d.limiter.Wait(ctx); err != nil {
			return videos, err
		}
		call := d.svc.Search.List([]string{"snippet"}).
			ChannelId(channelID).
			MaxResults(searchPageSize).
			Type("video").
			Order("date").
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		resp, err := call.Do()
		if err != nil {
			return videos, fmt.Errorf("failed to list videos: %w", err)
		}
		videos = append(videos, resp.Items...)

		if limit > 0 && len(videos) >= limit {
			return videos[:limit], nil
		}
		if resp.NextPageToken == "" {
			return videos, nil
		}
		pageToken = resp.NextPageToken
	}
}

// VideoDetails returns full metadata for one video
func (d *Downloader) VideoDetails(ctx context.Context, videoID string) (*yt.Video, error) {
	if err := d.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	resp, err := d.svc.Videos.List([]string{"snippet", "contentDetails", "statistics"}).
		Id(videoID).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get video %s: %w", videoID, err)
	}
	if len(resp.Items) == 0 {
		return nil, fmt.Errorf("video %s not found", videoID)
	}
	return resp.Items[0], nil
}

// Transcript downloads the video's best caption track as SRT.
// Returns "" without error when the video has no captions.
func (d *Downloader) Transcript(ctx context.Context, videoID string) (string, error) {
	if err := d.limiter.Wait(ctx); err != nil {
		return "", err
	}
	list, err := d.svc.Captions.List([]string{"snippet"}, videoID).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to list captions for %s: %w", videoID, err)
	}
	track := pickCaption(list.Items)
	if track == nil {
		return "", nil
	}

	if err := d.limiter.Wait(ctx); err != nil {
		return "", err
	}
	resp, err := d.svc.Captions.Download(track.Id).Tfmt("srt").Context(ctx).Download()
	if err != nil {
		return "", fmt.Errorf("failed to download captions for %s: %w", videoID, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read captions for %s: %w", videoID, err)
	}
	return string(data), nil
}

// pickCaption prefers human-made tracks over automatic ones
func pickCaption(tracks []*yt.Caption) *yt.Caption {
	var fallback *yt.Caption
	for _, t := range tracks {
		if t.Snippet == nil {
			continue
		}
		if !strings.EqualFold(t.Snippet.TrackKind, "asr") {
			return t
		}
		if fallback == nil {
			fallback = t
		}
	}
	return fallback
}

// DownloadVideo writes <title>.info.json and, when captions exist, <title>.srt.
// A title already taken by another video gets the video ID appended.
// Failures are logged and reported as false.
func (d *Downloader) DownloadVideo(ctx context.Context, videoID, outDir string) bool {
	video, err := d.VideoDetails(ctx, videoID)
	if err != nil {
		d.logger.Error("failed to download video metadata", "video", videoID, "error", err)
		return false
	}

	base := fileStem(outDir, videoID, video)

	if err := writeJSON(filepath.Join(outDir, base+".info.json"), video); err != nil {
		d.logger.Error("failed to write video metadata", "video", videoID, "error", err)
		return false
	}

	transcript, err := d.Transcript(ctx, videoID)
	if err != nil {
		// captions are often not downloadable for videos the user doesn't own
		d.logger.Warn("no transcript", "video", videoID, "error", err)
		return true
	}
	if transcript == "" {
		d.logger.Info("video has no captions", "video", videoID)
		return true
	}
	if err := os.WriteFile(filepath.Join(outDir, base+".srt"), []byte(transcript), 0644); err != nil {
		d.logger.Error("failed to write transcript", "video", videoID, "error", err)
		return false
	}
	return true
}

// DownloadChannel saves channel info and every video (up to limit) into outDir
func (d *Downloader) DownloadChannel(ctx context.Context, outDir string, limit int) (*Result, error) {
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", outDir, err)
	}

	channel, err := d.ChannelInfo(ctx)
	if err != nil {
		return nil, err
	}
	if err := writeJSON(filepath.Join(outDir, ChannelInfoFile), channel); err != nil {
		return nil, err
	}

	videos, err := d.AllVideos(ctx, channel.Id, limit)
	if err != nil {
		return nil, err
	}

	result := &Result{ChannelID: channel.Id, Videos: len(videos)}
	for _, v := range videos {
		if v.Id == nil || v.Id.VideoId == "" {
			continue
		}
		if d.DownloadVideo(ctx, v.Id.VideoId, outDir) {
			result.Succeeded++
		} else {
			result.Failed++
		}
		if ctx.Err() != nil {
			return result, ctx.Err()
		}
	}

	d.logger.Info("channel downloaded", "channel", channel.Id, "videos", result.Videos, "failed", result.Failed)
	return result, nil
}

// fileStem picks the output name for video. Reruns reuse the name a video
// already owns; a different video with the same title gets <title>_<id>.
func fileStem(outDir, videoID string, video *yt.Video) string {
	if video.Snippet == nil {
		return videoID
	}
	stem := strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || r == 0 {
			return '_'
		}
		return r
	}, loader.SanitizeTitle(video.Snippet.Title))
	if strings.Trim(stem, "_.") == "" {
		return videoID
	}
	if owner, exists := infoOwner(filepath.Join(outDir, stem+".info.json")); exists && owner != videoID {
		return stem + "_" + videoID
	}
	return stem
}

// infoOwner returns the video ID recorded in an existing .info.json
func infoOwner(path string) (string, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", !errors.Is(err, fs.ErrNotExist)
	}
	var info struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(data, &info); err != nil {
		return "", true
	}
	return info.ID, true
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
