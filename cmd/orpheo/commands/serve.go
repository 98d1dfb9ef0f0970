// ABOUTME: CLI command that serves the web chat front end
// ABOUTME: Optionally watches the input directory and rebuilds the graph on changes
package commands

import (
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/harper/orpheo/internal/core"
	"github.com/harper/orpheo/internal/watcher"
	"github.com/harper/orpheo/internal/web"
)

var (
	serveAddr     string
	serveWatch    bool
	serveDebounce time.Duration
)

// NewServeCmd creates the serve command
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the web chat",
		Long: `Serve a web chat over the document agents.

Routes:
  GET  /               chat page
  POST /api/chat       {"message": "..."} -> {"id": "...", "response": "..."}
  GET  /api/starters   suggested first messages
  GET  /api/documents  indexed documents
  POST /api/reindex    rebuild the graph
  GET  /healthz        liveness
  GET  /metrics        Prometheus metrics

With --watch the graph is rebuilt when files in --in-dir change.`,
		Example: `  orpheo serve
  orpheo serve --addr :9000 --watch`,
		RunE: runServe,
	}

	cmd.Flags().StringVar(&serveAddr, "addr", ":8000", "Address to listen on")
	cmd.Flags().BoolVar(&serveWatch, "watch", false, "Rebuild when files in --in-dir change")
	cmd.Flags().DurationVar(&serveDebounce, "debounce", watcher.DefaultDebounce, "Quiet period before a watched rebuild")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext()
	defer stop()

	metrics := web.NewMetrics()
	agents, cfg, logger, err := buildGraph(ctx, cmd, func(o *core.Options) {
		o.OnToolCall = metrics.ObserveToolCall
	})
	if agents == nil {
		return err
	}
	metrics.ObserveRebuild(err, len(agents.Documents()))
	if err != nil {
		// the watcher or /api/reindex can recover once documents appear
		logger.Error("initial build failed", "error", err)
	}

	server := web.New(agents, web.Options{
		RequestTimeout: cfg.Timeout,
		Metrics:        metrics,
		Logger:         logger,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.Start(gctx, serveAddr)
	})
	if serveWatch {
		w := watcher.New(cfg.InDir, server.Rebuild, watcher.Options{
			Debounce: serveDebounce,
			Logger:   logger,
			Exclude:  []string{cfg.OutDir},
		})
		g.Go(func() error {
			return w.Run(gctx)
		})
	}

	return g.Wait()
}
