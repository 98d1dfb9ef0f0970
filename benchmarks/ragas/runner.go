// ABOUTME: Test runner for RAGAS benchmarks - executes scenarios and collects results
// ABOUTME: Builds a fresh document agent graph per scenario and records every tool call

package ragas

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/harper/orpheo/internal/agent"
	"github.com/harper/orpheo/internal/config"
	"github.com/harper/orpheo/internal/core"
	"github.com/harper/orpheo/internal/logging"
)

// GraphFactory builds the document agents for one scenario
type GraphFactory func(cfg *config.Config, logger *slog.Logger, configure ...func(*core.Options)) (*core.MultiDocumentAgents, error)

// BenchmarkRunner executes RAGAS benchmark tests
type BenchmarkRunner struct {
	cfg      *config.Config
	logger   *slog.Logger
	newGraph GraphFactory
	metrics  *MetricsCalculator
	out      io.Writer
	verbose  bool
}

// NewBenchmarkRunner creates a runner that builds graphs with core.NewFromConfig
func NewBenchmarkRunner(cfg *config.Config, logger *slog.Logger, verbose bool) *BenchmarkRunner {
	return NewBenchmarkRunnerWithFactory(cfg, logger, verbose, core.NewFromConfig)
}

// NewBenchmarkRunnerWithFactory creates a runner with a custom graph factory
func NewBenchmarkRunnerWithFactory(cfg *config.Config, logger *slog.Logger, verbose bool, factory GraphFactory) *BenchmarkRunner {
	return &BenchmarkRunner{
		cfg:      cfg,
		logger:   logging.OrDefault(logger),
		newGraph: factory,
		metrics:  NewMetricsCalculator(),
		out:      os.Stdout,
		verbose:  verbose,
	}
}

// SetOutput redirects progress output
func (r *BenchmarkRunner) SetOutput(w io.Writer) {
	r.out = w
}

// toolLog collects tool names from agent events across concurrent sub-agents
type toolLog struct {
	mu    sync.Mutex
	names []string
}

func (l *toolLog) record(e agent.ToolEvent) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.names = append(l.names, e.Tool)
}

func (l *toolLog) snapshot() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.names...)
}

// RunTest executes a single benchmark test
func (r *BenchmarkRunner) RunTest(ctx context.Context, scenario TestScenario) (TestResult, error) {
	if r.verbose {
		fmt.Fprintf(r.out, "\n========================================\n")
		fmt.Fprintf(r.out, "RUNNING: %s\n", scenario.Name)
		fmt.Fprintf(r.out, "========================================\n")
		fmt.Fprintf(r.out, "Description: %s\n\n", scenario.Description)
	}

	tmpDir, err := os.MkdirTemp("", "orpheo_bench_"+scenario.ID+"_")
	if err != nil {
		return TestResult{}, fmt.Errorf("failed to create scenario dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	cfg := *r.cfg
	cfg.InDir = filepath.Join(tmpDir, "in")
	cfg.OutDir = filepath.Join(tmpDir, "out")
	if err := writeDocuments(cfg.InDir, scenario.Documents); err != nil {
		return TestResult{}, fmt.Errorf("setup failed: %w", err)
	}

	tools := &toolLog{}
	agents, err := r.newGraph(&cfg, r.logger, func(o *core.Options) {
		o.OnToolCall = tools.record
	})
	if err != nil {
		return TestResult{}, fmt.Errorf("failed to create document agents: %w", err)
	}

	if err := agents.UpdateFiles(ctx); err != nil {
		return TestResult{}, fmt.Errorf("failed to build document agents: %w", err)
	}

	start := time.Now()
	response, err := agents.Ask(ctx, scenario.Question)
	if err != nil {
		return TestResult{}, fmt.Errorf("question failed: %w", err)
	}

	if r.verbose {
		fmt.Fprintf(r.out, "Question: %s\n", scenario.Question)
		fmt.Fprintf(r.out, "Answer (%s): %s\n", time.Since(start).Round(time.Millisecond), preview(response, 150))
	}

	called := tools.snapshot()
	result := r.metrics.EvaluateTest(scenario, response, called)
	result.Details["duration_ms"] = time.Since(start).Milliseconds()

	if r.verbose {
		fmt.Fprintf(r.out, "\nFaithfulness: %.2f\n", result.FaithfulnessScore)
		fmt.Fprintf(r.out, "Context Recall: %.2f\n", result.ContextRecallScore)
		fmt.Fprintf(r.out, "Overall Score: %.2f\n", result.OverallScore)
		fmt.Fprintf(r.out, "Status: %s\n", result.Status)
	}

	return result, nil
}

// writeDocuments materializes a scenario's documents as files
func writeDocuments(dir string, docs map[string]string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	for name, content := range docs {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			return err
		}
	}
	return nil
}

// RunAllTests executes the given scenarios. A scenario error is recorded as a FAIL result.
func (r *BenchmarkRunner) RunAllTests(ctx context.Context, scenarios []TestScenario) []TestResult {
	results := make([]TestResult, 0, len(scenarios))

	for _, scenario := range scenarios {
		result, err := r.RunTest(ctx, scenario)
		if err != nil {
			r.logger.Error("scenario failed", "scenario", scenario.ID, "error", err)
			result = TestResult{
				TestID:       scenario.ID,
				TestName:     scenario.Name,
				Status:       "FAIL",
				ErrorMessage: err.Error(),
			}
		}
		results = append(results, result)
	}

	return results
}

// Summary is the exported results file
type Summary struct {
	Timestamp  string       `json:"timestamp"`
	TotalTests int          `json:"total_tests"`
	Passed     int          `json:"passed"`
	Failed     int          `json:"failed"`
	Results    []TestResult `json:"results"`
}

// Summarize counts passes and failures
func Summarize(results []TestResult) Summary {
	summary := Summary{
		Timestamp:  time.Now().Format(time.RFC3339),
		TotalTests: len(results),
		Results:    results,
	}
	for _, result := range results {
		if result.Status == "PASS" {
			summary.Passed++
		} else {
			summary.Failed++
		}
	}
	return summary
}

// ExportResults exports test results to JSON
func (r *BenchmarkRunner) ExportResults(results []TestResult, outputPath string) error {
	jsonData, err := json.MarshalIndent(Summarize(results), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}

	if err := os.WriteFile(outputPath, jsonData, 0o644); err != nil {
		return fmt.Errorf("failed to write results file: %w", err)
	}

	fmt.Fprintf(r.out, "Results exported to: %s\n", outputPath)
	return nil
}
