// ABOUTME: Web chat front end: a static page plus a small JSON API over the document agents
// ABOUTME: Built on echo with recover and request logging middleware
package web

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/harper/orpheo/internal/logging"
	"github.com/harper/orpheo/internal/models"
)

//go:embed static
var staticFiles embed.FS

// Graph is the part of the document agent graph the server needs
type Graph interface {
	Ask(ctx context.Context, question string) (string, error)
	Documents() []models.DocumentStatus
	UpdateFiles(ctx context.Context) error
}

// Starter is a suggested first message shown on the chat page
type Starter struct {
	Label   string `json:"label"`
	Message string `json:"message"`
}

// DefaultStarters are shown when none are configured
var DefaultStarters = []Starter{
	{Label: "Summarize the videos", Message: "Summarize the content of the documents."},
	{Label: "Morning routine ideation", Message: "Can you help me create a personalized morning routine that would help increase my productivity throughout the day? Start by asking me about my current habits and what activities energize me in the morning."},
	{Label: "Explain superconductors", Message: "Explain superconductors like I'm five years old."},
	{Label: "Text inviting friend to wedding", Message: "Write a text asking a friend to be my plus-one at a wedding next month. I want to keep it super short and casual, and offer an out."},
}

// Options configures the server
type Options struct {
	Starters       []Starter
	RequestTimeout time.Duration
	Metrics        *Metrics
	Logger         *slog.Logger
}

// Server is the web chat front end
type Server struct {
	echo    *echo.Echo
	graph   Graph
	opts    Options
	metrics *Metrics
	logger  *slog.Logger
}

// ChatRequest is the body of POST /api/chat
type ChatRequest struct {
	Message string `json:"message"`
}

// ChatResponse is the reply to POST /api/chat
type ChatResponse struct {
	ID       string `json:"id"`
	Response string `json:"response"`
}

// New creates a server with all routes registered
func New(graph Graph, opts Options) *Server {
	if opts.Starters == nil {
		opts.Starters = DefaultStarters
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 5 * time.Minute
	}
	if opts.Metrics == nil {
		opts.Metrics = NewMetrics()
	}

	s := &Server{
		echo:    echo.New(),
		graph:   graph,
		opts:    opts,
		metrics: opts.Metrics,
		logger:  logging.OrDefault(opts.Logger),
	}
	s.echo.HideBanner = true
	s.echo.HidePort = true
	s.echo.HTTPErrorHandler = s.handleError
	s.echo.Use(middleware.Recover())
	s.echo.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			s.logger.Debug("http request", "method", v.Method, "uri", v.URI, "status", v.Status, "latency", v.Latency)
			return nil
		},
	}))

	s.routes()
	return s
}

func (s *Server) routes() {
	static, _ := fs.Sub(staticFiles, "static")
	s.echo.GET("/", func(c echo.Context) error {
		page, err := fs.ReadFile(static, "index.html")
		if err != nil {
			return err
		}
		return c.HTMLBlob(http.StatusOK, page)
	})
	s.echo.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	s.echo.GET("/metrics", echo.WrapHandler(s.metrics.Handler()))

	api := s.echo.Group("/api")
	api.POST("/chat", s.handleChat)
	api.GET("/starters", s.handleStarters)
	api.GET("/documents", s.handleDocuments)
	api.POST("/reindex", s.handleReindex)
}

// ServeHTTP lets the server be used as an http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

// Start listens on addr until ctx is done, then shuts down gracefully
func (s *Server) Start(ctx context.Context, addr string) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("web chat listening", "addr", addr)
		if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.echo.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func (s *Server) handleChat(c echo.Context) error {
	var req ChatRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	message := strings.TrimSpace(req.Message)
	if message == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "message is required")
	}

	id := uuid.New().String()
	ctx, cancel := context.WithTimeout(c.Request().Context(), s.opts.RequestTimeout)
	defer cancel()

	start := time.Now()
	answer, err := s.graph.Ask(ctx, message)
	s.metrics.observeChat(err, time.Since(start))
	if err != nil {
		s.logger.Error("chat failed", "id", id, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to answer: "+err.Error())
	}

	s.logger.Info("chat answered", "id", id, "duration", time.Since(start).Round(time.Millisecond))
	return c.JSON(http.StatusOK, ChatResponse{ID: id, Response: answer})
}

func (s *Server) handleStarters(c echo.Context) error {
	return c.JSON(http.StatusOK, s.opts.Starters)
}

func (s *Server) handleDocuments(c echo.Context) error {
	docs := s.graph.Documents()
	if docs == nil {
		docs = []models.DocumentStatus{}
	}
	return c.JSON(http.StatusOK, docs)
}

func (s *Server) handleReindex(c echo.Context) error {
	err := s.Rebuild(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "rebuild failed: "+err.Error())
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success":   true,
		"documents": len(s.graph.Documents()),
	})
}

// Rebuild refreshes the graph and records the outcome; also used by the directory watcher
func (s *Server) Rebuild(ctx context.Context) error {
	err := s.graph.UpdateFiles(ctx)
	s.metrics.ObserveRebuild(err, len(s.graph.Documents()))
	if err != nil {
		s.logger.Error("rebuild failed", "error", err)
	}
	return err
}

func (s *Server) handleError(err error, c echo.Context) {
	code := http.StatusInternalServerError
	msg := err.Error()
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		if he.Message != nil {
			msg = fmt.Sprint(he.Message)
		}
	}
	if code >= http.StatusInternalServerError {
		req := c.Request()
		s.logger.Warn("request failed", "status", code, "method", req.Method, "path", req.URL.Path, "error", err)
	}
	if !c.Response().Committed {
		_ = c.JSON(code, map[string]interface{}{"error": msg})
	}
}
