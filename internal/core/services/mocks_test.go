package services

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/custodia-labs/taxonomist/internal/core/domain"
	"github.com/custodia-labs/taxonomist/internal/core/ports/driven"
)

// --- Mock implementations ---

// mockLLM implements driven.LLMService. Calls are routed by MaxTokens so a
// single mock can answer summary, taxonomy and label prompts.
type mockLLM struct {
	mu sync.Mutex

	summarize func(prompt string) (string, error)
	taxonomy  func(call int, prompt string) (string, error)
	label     func(prompt string) (string, error)

	taxonomyPrompts []string
	summaryCalls    int
	labelCalls      int
}

func (m *mockLLM) Generate(_ context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch opts.MaxTokens {
	case taxonomyMaxTokens:
		m.taxonomyPrompts = append(m.taxonomyPrompts, prompt)
		if m.taxonomy == nil {
			return "", fmt.Errorf("unexpected taxonomy call")
		}
		return m.taxonomy(len(m.taxonomyPrompts), prompt)
	case summaryMaxTokens:
		m.summaryCalls++
		if m.summarize == nil {
			return "<summary>a summary</summary>", nil
		}
		return m.summarize(prompt)
	case labelMaxTokens:
		m.labelCalls++
		if m.label == nil {
			return "<category_id>1</category_id>", nil
		}
		return m.label(prompt)
	}
	return "", fmt.Errorf("unexpected max tokens %d", opts.MaxTokens)
}

func (m *mockLLM) ModelName() string { return "mock" }

func (m *mockLLM) Ping(_ context.Context) error { return nil }

func (m *mockLLM) Close() error { return nil }

func (m *mockLLM) taxonomyCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.taxonomyPrompts)
}

// mockEmbedding implements driven.EmbeddingService. Texts containing a
// key of vectors get that vector; anything else gets fallback.
type mockEmbedding struct {
	vectors  map[string][]float32
	fallback []float32
	err      error
	calls    int
	mu       sync.Mutex
}

func (m *mockEmbedding) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = m.fallback
		for key, v := range m.vectors {
			if strings.Contains(text, key) {
				out[i] = v
				break
			}
		}
	}
	return out, nil
}

func (m *mockEmbedding) Dimensions() int { return 2 }

func (m *mockEmbedding) ModelName() string { return "mock-embed" }

func (m *mockEmbedding) Ping(_ context.Context) error { return nil }

func (m *mockEmbedding) Close() error { return nil }

// mockModels implements driven.ModelProvider.
type mockModels struct {
	mu        sync.Mutex
	llms      map[string]driven.LLMService
	embedder  driven.EmbeddingService
	requested []string
}

func (m *mockModels) LLM(ref string) (driven.LLMService, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requested = append(m.requested, ref)
	if llm, ok := m.llms[ref]; ok {
		return llm, nil
	}
	return nil, fmt.Errorf("%w: %s", domain.ErrLLMUnavailable, ref)
}

func (m *mockModels) Embedding(ref string) (driven.EmbeddingService, error) {
	if m.embedder == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrEmbeddingUnavailable, ref)
	}
	return m.embedder, nil
}

// modelsFor serves llm for both configured models of cfg.
func modelsFor(cfg domain.RunConfig, llm driven.LLMService) *mockModels {
	return &mockModels{llms: map[string]driven.LLMService{
		cfg.Model:     llm,
		cfg.FastModel: llm,
	}}
}

// recordingObserver implements driving.Observer.
type recordingObserver struct {
	mu       sync.Mutex
	stages   []domain.Stage
	statuses []string
	done     map[domain.Stage]int
}

func (o *recordingObserver) OnStage(stage domain.Stage) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.stages = append(o.stages, stage)
}

func (o *recordingObserver) OnStatus(message string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.statuses = append(o.statuses, message)
}

func (o *recordingObserver) OnDocument(stage domain.Stage, done, _ int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.done == nil {
		o.done = make(map[domain.Stage]int)
	}
	o.done[stage] = max(o.done[stage], done)
}

// --- Helpers ---

// clusterTable renders name/description pairs as model output.
func clusterTable(pairs ...string) string {
	var b strings.Builder
	b.WriteString("Here is the table.\n<cluster_table>\n")
	for i := 0; i+1 < len(pairs); i += 2 {
		fmt.Fprintf(&b, "<cluster><id>%d</id><name>%s</name><description>%s</description></cluster>\n",
			i/2+1, pairs[i], pairs[i+1])
	}
	b.WriteString("</cluster_table>\n<explanation>grouped by topic</explanation>")
	return b.String()
}

// labelByKeyword answers label prompts with the ID mapped to the first
// keyword found in the document section of the prompt.
func labelByKeyword(ids map[string]string) func(string) (string, error) {
	return func(prompt string) (string, error) {
		doc := prompt
		if _, after, ok := strings.Cut(prompt, "<document>"); ok {
			doc = after
		}
		for keyword, id := range ids {
			if strings.Contains(doc, keyword) {
				return "<category_id>" + id + "</category_id><explanation>mentions " + keyword + "</explanation>", nil
			}
		}
		return "I am not sure.", nil
	}
}

func testConfig() domain.RunConfig {
	cfg := domain.DefaultRunConfig()
	cfg.Model = "openai/big"
	cfg.FastModel = "openai/small"
	cfg.UseCase = "support tickets"
	cfg.RequestsPerSecond = 0
	cfg.Seed = 7
	return cfg
}

func docs(contents ...string) []domain.Document {
	out := make([]domain.Document, len(contents))
	for i, c := range contents {
		out[i] = domain.Document{ID: fmt.Sprintf("d%d", i+1), Content: c}
	}
	return out
}
