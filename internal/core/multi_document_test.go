// ABOUTME: Tests for building the per-document agents and the top-level router
// ABOUTME: A rule-based fake model calls tools so the whole graph can be exercised offline
package core

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/harper/orpheo/internal/agent"
	"github.com/harper/orpheo/internal/llm/llmtest"
	"github.com/harper/orpheo/internal/logging"
	"github.com/harper/orpheo/internal/models"
)

// routingModel calls every offered agent tool, picks summary or vector tools
// inside document agents and answers synthesis prompts directly
func routingModel() *llmtest.FakeModel {
	return &llmtest.FakeModel{Respond: func(ctx context.Context, msgs []models.Message, offered []models.ToolMetadata) (models.Message, error) {
		question := llmtest.LastUser(msgs)

		if len(offered) == 0 {
			if strings.Contains(question, "Extract metadata") {
				return models.AssistantMessage("{speaker: Ann}"), nil
			}
			return models.AssistantMessage("synthesized"), nil
		}

		if llmtest.HasToolResults(msgs) {
			var parts []string
			for i := len(msgs) - 1; i >= 0 && msgs[i].Role == models.RoleTool; i-- {
				parts = append(parts, msgs[i].Content)
			}
			return models.AssistantMessage(strings.Join(parts, " | ")), nil
		}

		args := `{"input": "` + question + `"}`
		var calls []models.ToolCall
		for _, tool := range offered {
			switch {
			case strings.HasPrefix(tool.Name, "agent_expert_in_document_"):
				calls = append(calls, models.ToolCall{ID: "call_" + tool.Name, Name: tool.Name, Arguments: args})
			case strings.HasPrefix(tool.Name, "summary_tool_") && strings.Contains(question, "summar"):
				calls = append(calls, models.ToolCall{ID: "call_" + tool.Name, Name: tool.Name, Arguments: args})
			case strings.HasPrefix(tool.Name, "vector_tool_") && !strings.Contains(question, "summar"):
				calls = append(calls, models.ToolCall{ID: "call_" + tool.Name, Name: tool.Name, Arguments: args})
			}
		}
		return models.Message{Role: models.RoleAssistant, ToolCalls: calls}, nil
	}}
}

type toolRecorder struct {
	mu    sync.Mutex
	names []string
}

func (r *toolRecorder) record(e agent.ToolEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.names = append(r.names, e.Tool)
}

func (r *toolRecorder) called(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range r.names {
		if n == name {
			return true
		}
	}
	return false
}

func writeCorpus(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func testOptions(inDir, outDir string) Options {
	return Options{
		InDir:        inDir,
		OutDir:       outDir,
		ChunkSize:    120,
		ChunkOverlap: 20,
		Logger:       logging.Discard(),
	}
}

var scenarioCorpus = map[string]string{
	"a.txt":        "Alpha rivers carry water to the sea. The valleys are green in spring.",
	"b report.txt": "Bravo report about mountain snow. Glaciers grow during long winters.",
}

func TestUpdateFiles_Scenario(t *testing.T) {
	inDir := writeCorpus(t, scenarioCorpus)
	outDir := t.TempDir()
	rec := &toolRecorder{}

	opts := testOptions(inDir, outDir)
	opts.OnToolCall = rec.record
	m := NewMultiDocumentAgents(routingModel(), &llmtest.FakeEmbedder{}, opts)

	if err := m.UpdateFiles(context.Background()); err != nil {
		t.Fatalf("UpdateFiles() error = %v", err)
	}

	for _, title := range []string{"a", "b_report"} {
		if _, err := os.Stat(filepath.Join(outDir, title, "docstore.db")); err != nil {
			t.Errorf("expected cache directory %s: %v", title, err)
		}
	}

	top, err := m.TopAgent()
	if err != nil {
		t.Fatalf("TopAgent() error = %v", err)
	}
	answer, err := top.Query(context.Background(), "summarize everything")
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if answer == "" {
		t.Error("expected a non-empty answer")
	}

	for _, name := range []string{"summary_tool_a", "summary_tool_b_report", "agent_expert_in_document_a", "agent_expert_in_document_b_report"} {
		if !rec.called(name) {
			t.Errorf("expected %s to be called, got %v", name, rec.names)
		}
	}
	if rec.called("vector_tool_a") {
		t.Error("summary question should not reach vector tools")
	}
}

func TestUpdateFiles_ToolCountMatchesDocuments(t *testing.T) {
	inDir := writeCorpus(t, map[string]string{
		"one.txt":   "First document about rivers.",
		"two.md":    "Second document about mountains.",
		"three.srt": "1\n00:00:01,000 --> 00:00:02,000\nThird document about deserts.\n",
	})
	m := NewMultiDocumentAgents(routingModel(), &llmtest.FakeEmbedder{}, testOptions(inDir, t.TempDir()))

	if err := m.UpdateFiles(context.Background()); err != nil {
		t.Fatalf("UpdateFiles() error = %v", err)
	}
	g, err := m.Graph()
	if err != nil {
		t.Fatalf("Graph() error = %v", err)
	}
	if g.Index.Len() != 3 {
		t.Errorf("object index holds %d tools, want 3", g.Index.Len())
	}
	if len(g.Agents) != 3 || len(m.Documents()) != 3 {
		t.Errorf("agents = %d, documents = %d, want 3", len(g.Agents), len(m.Documents()))
	}
	if len(m.Paths()) != 3 {
		t.Errorf("Paths() = %v", m.Paths())
	}
}

func TestUpdateFiles_Empty(t *testing.T) {
	m := NewMultiDocumentAgents(routingModel(), &llmtest.FakeEmbedder{}, testOptions(t.TempDir(), t.TempDir()))

	if err := m.UpdateFiles(context.Background()); !errors.Is(err, ErrNoTools) {
		t.Fatalf("UpdateFiles() error = %v, want ErrNoTools", err)
	}
	if _, err := m.TopAgent(); !errors.Is(err, ErrNotBuilt) {
		t.Errorf("TopAgent() error = %v, want ErrNotBuilt", err)
	}
}

func TestUpdateFiles_DuplicateTitles(t *testing.T) {
	inDir := writeCorpus(t, map[string]string{
		"a b.txt": "spaced",
		"a-b.txt": "hyphenated",
	})
	m := NewMultiDocumentAgents(routingModel(), &llmtest.FakeEmbedder{}, testOptions(inDir, t.TempDir()))

	if err := m.UpdateFiles(context.Background()); !errors.Is(err, ErrDuplicateTitle) {
		t.Errorf("UpdateFiles() error = %v, want ErrDuplicateTitle", err)
	}
}

func TestUpdateFiles_NonLatinTitles(t *testing.T) {
	inDir := writeCorpus(t, map[string]string{
		"日本.txt": "Notes about rivers in the north.",
		"中国.txt": "Notes about mountains in the west.",
	})
	outDir := t.TempDir()
	m := NewMultiDocumentAgents(routingModel(), &llmtest.FakeEmbedder{}, testOptions(inDir, outDir))

	if err := m.UpdateFiles(context.Background()); err != nil {
		t.Fatalf("UpdateFiles() error = %v", err)
	}
	g, err := m.Graph()
	if err != nil {
		t.Fatalf("Graph() error = %v", err)
	}
	if len(g.Agents) != 2 || g.Index.Len() != 2 {
		t.Errorf("agents = %d, indexed tools = %d, want 2", len(g.Agents), g.Index.Len())
	}

	names := map[string]bool{}
	for _, tool := range g.Index.All() {
		names[tool.Metadata().Name] = true
	}
	if len(names) != 2 {
		t.Errorf("tool names should be distinct, got %v", names)
	}
	for _, title := range []string{"日本", "中国"} {
		if _, err := os.Stat(filepath.Join(outDir, title, "docstore.db")); err != nil {
			t.Errorf("expected cache directory %s: %v", title, err)
		}
	}
}

func TestUpdateFiles_SkipsNestedOutDir(t *testing.T) {
	inDir := writeCorpus(t, scenarioCorpus)
	outDir := filepath.Join(inDir, "results")
	m := NewMultiDocumentAgents(routingModel(), &llmtest.FakeEmbedder{}, testOptions(inDir, outDir))

	for round := 0; round < 2; round++ {
		if err := m.UpdateFiles(context.Background()); err != nil {
			t.Fatalf("UpdateFiles() round %d error = %v", round, err)
		}
		if got := len(m.Documents()); got != 2 {
			t.Errorf("round %d indexed %d documents, want 2: %v", round, got, m.Paths())
		}
	}
}

func TestUpdateFiles_UnsupportedExtensionReadAsText(t *testing.T) {
	inDir := writeCorpus(t, map[string]string{
		"notes.log": "Plain log lines about river levels.",
		"a.txt":     "Alpha rivers carry water to the sea.",
	})
	m := NewMultiDocumentAgents(routingModel(), &llmtest.FakeEmbedder{}, testOptions(inDir, t.TempDir()))

	if err := m.UpdateFiles(context.Background()); err != nil {
		t.Fatalf("UpdateFiles() error = %v", err)
	}
	g, err := m.Graph()
	if err != nil {
		t.Fatalf("Graph() error = %v", err)
	}
	if _, ok := g.Agents["notes"]; !ok {
		t.Errorf("expected an agent for notes.log, got %d agents", len(g.Agents))
	}
}

func TestUpdateFiles_ReusesCache(t *testing.T) {
	inDir := writeCorpus(t, scenarioCorpus)
	outDir := t.TempDir()
	embedder := &llmtest.FakeEmbedder{}
	m := NewMultiDocumentAgents(routingModel(), embedder, testOptions(inDir, outDir))

	if err := m.UpdateFiles(context.Background()); err != nil {
		t.Fatalf("first UpdateFiles() error = %v", err)
	}
	for _, d := range m.Documents() {
		if d.CacheReused {
			t.Errorf("%s should be freshly built", d.Title)
		}
	}

	embedder.Reset()
	if err := m.UpdateFiles(context.Background()); err != nil {
		t.Fatalf("second UpdateFiles() error = %v", err)
	}
	for _, d := range m.Documents() {
		if !d.CacheReused {
			t.Errorf("%s should reuse its cache", d.Title)
		}
	}
	// only the two agent tool descriptions are embedded again
	if n := len(embedder.Embedded()); n != 2 {
		t.Errorf("embedded %d texts on rebuild, want 2", n)
	}

	if err := os.WriteFile(filepath.Join(inDir, "a.txt"), []byte("Alpha changed completely. New sentences here."), 0644); err != nil {
		t.Fatal(err)
	}
	if err := m.UpdateFiles(context.Background()); err != nil {
		t.Fatalf("third UpdateFiles() error = %v", err)
	}
	for _, d := range m.Documents() {
		if want := d.Title != "a"; d.CacheReused != want {
			t.Errorf("%s CacheReused = %v, want %v", d.Title, d.CacheReused, want)
		}
	}
}

func TestUpdatePaths_FailureKeepsPreviousGraph(t *testing.T) {
	inDir := writeCorpus(t, scenarioCorpus)
	m := NewMultiDocumentAgents(routingModel(), &llmtest.FakeEmbedder{}, testOptions(inDir, t.TempDir()))

	if err := m.UpdateFiles(context.Background()); err != nil {
		t.Fatalf("UpdateFiles() error = %v", err)
	}
	before, _ := m.Graph()

	if err := m.UpdatePaths(context.Background(), nil); !errors.Is(err, ErrNoTools) {
		t.Fatalf("UpdatePaths(nil) error = %v, want ErrNoTools", err)
	}
	after, err := m.Graph()
	if err != nil || after != before {
		t.Error("failed rebuild should keep the previous graph")
	}

	m.Reset()
	if _, err := m.Graph(); !errors.Is(err, ErrNotBuilt) {
		t.Errorf("Graph() after Reset error = %v, want ErrNotBuilt", err)
	}
}

func TestUpdateFiles_KeywordEnrichment(t *testing.T) {
	inDir := writeCorpus(t, map[string]string{"a.txt": "Ann speaks about rivers."})

	opts := testOptions(inDir, t.TempDir())
	opts.DocumentKeywords = []string{"speaker", "topic"}
	m := NewMultiDocumentAgents(routingModel(), &llmtest.FakeEmbedder{}, opts)
	if err := m.UpdateFiles(context.Background()); err != nil {
		t.Fatalf("UpdateFiles() error = %v", err)
	}
	g, _ := m.Graph()
	prompt := g.Agents["a"].SystemPrompt()
	if !strings.Contains(prompt, "Some of the information in this document include {speaker: Ann}.") {
		t.Errorf("document prompt missing keyword description: %q", prompt)
	}
	desc := g.Index.All()[0].Metadata().Description
	if !strings.Contains(desc, "{speaker: Ann}") {
		t.Errorf("agent tool description missing keywords: %q", desc)
	}

	plain := NewMultiDocumentAgents(routingModel(), &llmtest.FakeEmbedder{}, testOptions(inDir, t.TempDir()))
	if err := plain.UpdateFiles(context.Background()); err != nil {
		t.Fatalf("UpdateFiles() error = %v", err)
	}
	g, _ = plain.Graph()
	if strings.Contains(g.Agents["a"].SystemPrompt(), "Some of the information") {
		t.Error("no enrichment expected without keywords")
	}
}

func TestUpdateFiles_SkipsBinaryAndHidden(t *testing.T) {
	inDir := writeCorpus(t, map[string]string{
		"a.txt":     "Readable text.",
		"blob.bin":  "bin\x00ary",
		".DS_Store": "hidden",
	})
	m := NewMultiDocumentAgents(routingModel(), &llmtest.FakeEmbedder{}, testOptions(inDir, t.TempDir()))

	if err := m.UpdateFiles(context.Background()); err != nil {
		t.Fatalf("UpdateFiles() error = %v", err)
	}
	docs := m.Documents()
	if len(docs) != 1 || docs[0].Title != "a" {
		t.Errorf("Documents() = %+v, want only a", docs)
	}
}

func TestAsk(t *testing.T) {
	m := NewMultiDocumentAgents(routingModel(), &llmtest.FakeEmbedder{}, testOptions(t.TempDir(), t.TempDir()))
	if _, err := m.Ask(context.Background(), "anything"); !errors.Is(err, ErrNotBuilt) {
		t.Errorf("Ask() before build error = %v, want ErrNotBuilt", err)
	}

	inDir := writeCorpus(t, scenarioCorpus)
	m = NewMultiDocumentAgents(routingModel(), &llmtest.FakeEmbedder{}, testOptions(inDir, t.TempDir()))
	if err := m.UpdateFiles(context.Background()); err != nil {
		t.Fatalf("UpdateFiles() error = %v", err)
	}
	answer, err := m.Ask(context.Background(), "where does the water go")
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}
	if !strings.Contains(answer, "synthesized") {
		t.Errorf("Ask() = %q, want synthesized content", answer)
	}
}
