// ABOUTME: Command-line benchmark runner for RAGAS tests
// ABOUTME: Runs document agent scenarios against the configured LLM and outputs JSON results

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/harper/orpheo/benchmarks/ragas"
	"github.com/harper/orpheo/internal/config"
	"github.com/harper/orpheo/internal/logging"
)

func main() {
	testID := flag.String("test", "", "Run specific test (summary, lookup, routing). If empty, runs all tests.")
	outputPath := flag.String("output", "benchmark_results.json", "Output path for JSON results")
	configPath := flag.String("config", "", "Path to a YAML configuration file")
	verbose := flag.Bool("verbose", false, "Enable verbose output")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found (continuing anyway): %v", err)
	}

	cfg, err := config.LoadFile(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.RequiresAPIKey() && cfg.OpenAIKey == "" {
		log.Fatal("OPENAI_API_KEY environment variable is required for benchmarks")
	}

	level := "warn"
	if *verbose {
		level = "debug"
	}
	logger := logging.New(os.Stderr, logging.Options{Level: level})

	fmt.Println("========================================")
	fmt.Println("Orpheo RAGAS Benchmarks")
	fmt.Println("========================================")
	fmt.Println()

	scenarios := ragas.AllScenarios()
	if *testID != "" {
		scenario, ok := ragas.ScenarioByID(*testID)
		if !ok {
			var ids []string
			for _, s := range scenarios {
				ids = append(ids, s.ID)
			}
			log.Fatalf("Unknown test ID: %s (valid options: %s)", *testID, strings.Join(ids, ", "))
		}
		scenarios = []ragas.TestScenario{scenario}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner := ragas.NewBenchmarkRunner(cfg, logger, *verbose)
	results := runner.RunAllTests(ctx, scenarios)

	fmt.Println("\n========================================")
	fmt.Println("BENCHMARK SUMMARY")
	fmt.Println("========================================")

	for _, result := range results {
		fmt.Printf("\n%s: %s\n", result.TestID, result.TestName)
		fmt.Printf("  Faithfulness: %.2f\n", result.FaithfulnessScore)
		fmt.Printf("  Context Recall: %.2f\n", result.ContextRecallScore)
		fmt.Printf("  Overall: %.2f\n", result.OverallScore)
		fmt.Printf("  Status: %s\n", result.Status)
		if result.ErrorMessage != "" {
			fmt.Printf("  Error: %s\n", result.ErrorMessage)
		}
	}

	summary := ragas.Summarize(results)
	fmt.Println("\n========================================")
	fmt.Printf("Total Tests: %d\n", summary.TotalTests)
	fmt.Printf("Passed: %d\n", summary.Passed)
	fmt.Printf("Failed: %d\n", summary.Failed)
	fmt.Println("========================================")

	if err := runner.ExportResults(results, *outputPath); err != nil {
		log.Fatalf("Failed to export results: %v", err)
	}

	if summary.Failed > 0 {
		os.Exit(1)
	}
}
