// Package brief generates LLM news briefs over the semantic index.
package brief

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/addispulse/addispulse/internal/logger"
	"github.com/addispulse/addispulse/internal/metrics"
	"github.com/addispulse/addispulse/internal/vectorstore"
)

// FailureSentinel is returned instead of an error when the completion
// service misbehaves; brief generation is best-effort by contract.
const FailureSentinel = "Failed to generate brief."

// Completer is the completion-service boundary.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Searcher is the slice of the vector store the composer needs.
type Searcher interface {
	Search(ctx context.Context, query string, topK int) ([]vectorstore.Record, error)
}

// GeminiCompleter talks to the Gemini API.
type GeminiCompleter struct {
	client *genai.Client
	model  string
}

func NewGeminiCompleter(ctx context.Context, apiKey, model string) (*GeminiCompleter, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &GeminiCompleter{client: client, model: model}, nil
}

func (g *GeminiCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	model := g.client.GenerativeModel(g.model)
	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("no response from Gemini")
	}
	return fmt.Sprintf("%v", resp.Candidates[0].Content.Parts[0]), nil
}

func (g *GeminiCompleter) Close() {
	if g.client != nil {
		g.client.Close()
	}
}

// Composer retrieves the top-K matches for a query and asks the completion
// service to summarize them.
type Composer struct {
	store Searcher
	llm   Completer
}

func NewComposer(store Searcher, llm Completer) *Composer {
	return &Composer{store: store, llm: llm}
}

// Compose returns the generated brief, or the failure sentinel on any
// search/completion failure.
func (c *Composer) Compose(ctx context.Context, query string, topK int) string {
	records, err := c.store.Search(ctx, query, topK)
	if err != nil {
		logger.Error("brief search failed", "query", query, "error", err)
		return FailureSentinel
	}
	if len(records) == 0 {
		logger.Warn("no stored articles match brief query", "query", query)
		return FailureSentinel
	}

	var b strings.Builder
	b.WriteString("Summarize the following news articles into a concise brief:\n")
	for _, rec := range records {
		b.WriteString(rec.Title)
		b.WriteString(": ")
		b.WriteString(rec.Text)
		b.WriteString("\n")
	}

	text, err := c.llm.Complete(ctx, b.String())
	if err != nil {
		logger.Error("brief generation failed", "query", query, "error", err)
		return FailureSentinel
	}
	metrics.Global.IncrementBriefsGenerated()
	return text
}
