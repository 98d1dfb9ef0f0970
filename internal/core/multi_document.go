// ABOUTME: MultiDocumentAgents builds one agent per document and a top-level router over them
// ABOUTME: Rebuilt graphs are swapped in atomically; the previous graph serves until then
package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/harper/orpheo/internal/agent"
	"github.com/harper/orpheo/internal/config"
	"github.com/harper/orpheo/internal/files"
	"github.com/harper/orpheo/internal/index"
	"github.com/harper/orpheo/internal/llm"
	"github.com/harper/orpheo/internal/loader"
	"github.com/harper/orpheo/internal/logging"
	"github.com/harper/orpheo/internal/models"
	"github.com/harper/orpheo/internal/tools"
)

var (
	// ErrNoTools is returned when no document produced a tool
	ErrNoTools = errors.New("no tools are available")
	// ErrDuplicateTitle is returned when two files sanitize to the same title
	ErrDuplicateTitle = errors.New("duplicate document title")
	// ErrNotBuilt is returned before the first successful build
	ErrNotBuilt = errors.New("document agents have not been built")
)

// DefaultBuildConcurrency bounds parallel document builds
const DefaultBuildConcurrency = 4

// Options configures the document agent graph
type Options struct {
	InDir            string
	OutDir           string
	ChunkSize        int
	ChunkOverlap     int
	SimilarityTopK   int
	ToolTopK         int
	MaxIterations    int
	BuildConcurrency int
	ContextTokens    int
	DocumentKeywords []string
	SystemPrompt     string
	Logger           *slog.Logger
	OnToolCall       func(agent.ToolEvent)
}

// OptionsFrom maps configuration onto graph options
func OptionsFrom(cfg *config.Config, logger *slog.Logger) Options {
	return Options{
		InDir:            cfg.InDir,
		OutDir:           cfg.OutDir,
		ChunkSize:        cfg.ChunkSize,
		ChunkOverlap:     cfg.ChunkOverlap,
		SimilarityTopK:   cfg.SimilarityTopK,
		ToolTopK:         cfg.ToolTopK,
		MaxIterations:    cfg.MaxIterations,
		BuildConcurrency: cfg.BuildConcurrency,
		DocumentKeywords: cfg.DocumentKeywords,
		SystemPrompt:     cfg.SystemPrompt,
		Logger:           logger,
	}
}

// Graph is one complete build: per-document agents and the router above them
type Graph struct {
	Top       *agent.Agent
	Index     *ObjectIndex
	Agents    map[string]*agent.Agent
	Documents []models.DocumentStatus
	BuiltAt   time.Time
}

// MultiDocumentAgents owns the current graph and rebuilds it on demand
type MultiDocumentAgents struct {
	model    llm.ChatModel
	embedder llm.Embedder
	opts     Options
	logger   *slog.Logger
	builder  *index.Builder
	chunker  *ChunkEngine

	// serializes rebuilds
	buildMu sync.Mutex

	mu    sync.RWMutex
	graph *Graph
	paths []string
}

// NewMultiDocumentAgents creates an empty graph owner; call UpdateFiles to build
func NewMultiDocumentAgents(model llm.ChatModel, embedder llm.Embedder, opts Options) *MultiDocumentAgents {
	if opts.BuildConcurrency <= 0 {
		opts.BuildConcurrency = DefaultBuildConcurrency
	}
	if opts.SystemPrompt == "" {
		opts.SystemPrompt = DefaultSystemPrompt
	}
	logger := logging.OrDefault(opts.Logger)

	return &MultiDocumentAgents{
		model:    model,
		embedder: embedder,
		opts:     opts,
		logger:   logger,
		builder:  index.NewBuilder(embedder, logger),
		chunker:  NewChunkEngine(opts.ChunkSize, opts.ChunkOverlap),
	}
}

// UpdateFiles rebuilds the graph from every file under the input directory
func (m *MultiDocumentAgents) UpdateFiles(ctx context.Context) error {
	all, err := files.ListAllFiles(m.opts.InDir)
	if err != nil {
		return err
	}
	paths := make([]string, 0, len(all))
	for _, p := range all {
		if strings.HasPrefix(filepath.Base(p), ".") {
			continue
		}
		// the cache directory may live inside the corpus
		if files.Within(p, m.opts.OutDir) {
			continue
		}
		paths = append(paths, p)
	}
	return m.UpdatePaths(ctx, paths)
}

// UpdatePaths rebuilds the graph from the given files.
// On failure the previous graph, if any, keeps serving.
func (m *MultiDocumentAgents) UpdatePaths(ctx context.Context, paths []string) error {
	m.buildMu.Lock()
	defer m.buildMu.Unlock()

	start := time.Now()
	graph, err := m.build(ctx, paths)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.graph = graph
	m.paths = append([]string(nil), paths...)
	m.mu.Unlock()

	m.logger.Info("document agents ready",
		"documents", len(graph.Documents),
		"duration", time.Since(start).Round(time.Millisecond))
	return nil
}

// Reset drops the current graph and all agent state
func (m *MultiDocumentAgents) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.graph = nil
	m.paths = nil
}

// TopAgent returns the router agent of the current graph
func (m *MultiDocumentAgents) TopAgent() (*agent.Agent, error) {
	g, err := m.Graph()
	if err != nil {
		return nil, err
	}
	return g.Top, nil
}

// Graph returns the current graph
func (m *MultiDocumentAgents) Graph() (*Graph, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.graph == nil {
		return nil, ErrNotBuilt
	}
	return m.graph, nil
}

// Documents returns the build status of every document in the current graph
func (m *MultiDocumentAgents) Documents() []models.DocumentStatus {
	g, err := m.Graph()
	if err != nil {
		return nil
	}
	return append([]models.DocumentStatus(nil), g.Documents...)
}

// Paths returns the files the current graph was built from
func (m *MultiDocumentAgents) Paths() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.paths...)
}

// Ask answers a one-off question with the top-level agent
func (m *MultiDocumentAgents) Ask(ctx context.Context, question string) (string, error) {
	top, err := m.TopAgent()
	if err != nil {
		return "", err
	}
	return top.Query(ctx, question)
}

// documentBuild is one document's contribution to a graph
type documentBuild struct {
	status models.DocumentStatus
	agent  *agent.Agent
	tool   tools.Tool
}

func (m *MultiDocumentAgents) build(ctx context.Context, paths []string) (*Graph, error) {
	if err := checkTitles(paths); err != nil {
		return nil, err
	}

	results := make([]*documentBuild, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.opts.BuildConcurrency)
	for i, path := range paths {
		g.Go(func() error {
			res, err := m.buildDocument(gctx, path)
			if err != nil {
				if errors.Is(err, loader.ErrBinaryContent) || errors.Is(err, loader.ErrEmptyDocument) {
					m.logger.Warn("skipping document", "path", path, "error", err)
					return nil
				}
				return fmt.Errorf("failed to build %s: %w", path, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	graph := &Graph{Agents: make(map[string]*agent.Agent), BuiltAt: time.Now()}
	var toolset []tools.Tool
	for _, res := range results {
		if res == nil {
			continue
		}
		toolset = append(toolset, res.tool)
		graph.Agents[res.status.Title] = res.agent
		graph.Documents = append(graph.Documents, res.status)
	}
	if len(toolset) == 0 {
		return nil, ErrNoTools
	}

	objects, err := NewObjectIndex(ctx, m.embedder, toolset, m.opts.ToolTopK)
	if err != nil {
		return nil, err
	}
	top, err := agent.New(m.model, objects, agent.Options{
		Name:          "top_agent",
		SystemPrompt:  m.opts.SystemPrompt,
		MaxIterations: m.opts.MaxIterations,
		Logger:        m.logger,
		OnToolCall:    m.opts.OnToolCall,
	})
	if err != nil {
		return nil, err
	}

	graph.Index = objects
	graph.Top = top
	return graph, nil
}

func (m *MultiDocumentAgents) buildDocument(ctx context.Context, path string) (*documentBuild, error) {
	doc, err := loader.Load(path)
	if err != nil {
		return nil, err
	}
	if !loader.Supported(path) {
		m.logger.Debug("no dedicated parser, read as plain text", "path", path)
	}
	if doc.Title == "" {
		return nil, fmt.Errorf("%s: %w", path, loader.ErrEmptyDocument)
	}

	chunks, err := m.chunker.ChunkDocument(doc.Title, doc.Content)
	if err != nil {
		return nil, err
	}
	doc.Chunks = chunks

	dir := filepath.Join(m.opts.OutDir, doc.Title)
	fingerprint := index.Fingerprint(doc.Content, m.chunker.ChunkSize(), m.chunker.Overlap())
	built, err := m.builder.BuildOrLoad(ctx, doc, fingerprint, dir)
	if err != nil {
		return nil, err
	}
	m.logger.Debug("vector index ready", "document", doc.Title, "reused", built.Reused, "chunks", built.Index.Len())

	synth := index.NewSynthesizer(m.model, m.opts.ContextTokens)
	vectorEngine := index.NewVectorQueryEngine(built.Index, synth, m.opts.SimilarityTopK)
	summaryEngine := index.NewSummaryQueryEngine(index.NewSummaryIndex(doc.Title, built.Index.Chunks()), synth)

	vectorTool, err := tools.NewQueryEngineTool(VectorToolName(doc.Title), vectorToolDescription(doc.Title), vectorEngine)
	if err != nil {
		return nil, err
	}
	summaryTool, err := tools.NewQueryEngineTool(SummaryToolName(doc.Title), summaryToolDescription(doc.Title), summaryEngine)
	if err != nil {
		return nil, err
	}

	description := m.describe(ctx, doc.Title, summaryEngine)

	docAgent, err := agent.New(m.model, agent.StaticTools{vectorTool, summaryTool}, agent.Options{
		Name:          doc.Title,
		SystemPrompt:  documentAgentPrompt(doc.Title, description),
		MaxIterations: m.opts.MaxIterations,
		Logger:        m.logger,
		OnToolCall:    m.opts.OnToolCall,
	})
	if err != nil {
		return nil, err
	}
	agentTool, err := agent.AsTool(docAgent, AgentToolName(doc.Title), agentToolDescription(doc.Title, description))
	if err != nil {
		return nil, err
	}

	return &documentBuild{
		status: models.DocumentStatus{
			Title:       doc.Title,
			Path:        path,
			CacheDir:    dir,
			Chunks:      built.Index.Len(),
			CacheReused: built.Reused,
		},
		agent: docAgent,
		tool:  agentTool,
	}, nil
}

// describe runs keyword extraction when document keywords are configured
func (m *MultiDocumentAgents) describe(ctx context.Context, title string, engine index.QueryEngine) string {
	if len(m.opts.DocumentKeywords) == 0 {
		return ""
	}
	metadata, err := engine.Query(ctx, keywordQuery(m.opts.DocumentKeywords))
	if err != nil {
		m.logger.Warn("keyword extraction failed", "document", title, "error", err)
		return ""
	}
	return keywordDescription(metadata)
}

// checkTitles rejects file sets where two paths map to the same cache directory
func checkTitles(paths []string) error {
	seen := make(map[string]string, len(paths))
	for _, p := range paths {
		title := loader.TitleFromPath(p)
		if prev, ok := seen[title]; ok {
			return fmt.Errorf("%w: %q and %q both map to %s", ErrDuplicateTitle, prev, p, title)
		}
		seen[title] = p
	}
	return nil
}
