// Package analysis turns an aggregated article set into a structured OSINT
// report via chunked LLM calls with a model fallback chain.
package analysis

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"

	"github.com/ShabalalaWATP/UkraineOSINT/internal/sources"
	"github.com/ShabalalaWATP/UkraineOSINT/internal/telemetry"
)

// DefaultFallbackModels is consulted in order after the requested model.
var DefaultFallbackModels = []string{
	"gemini-2.5-pro",
	"gemini-2.5-flash",
	"gemini-2.0-pro",
	"gemini-2.0-flash",
	"gemini-1.5-pro",
	"gemini-1.5-flash",
}

const DefaultMaxDocs = 60

// Request describes one analysis run.
type Request struct {
	Articles     []sources.Article
	Start        string
	End          string
	Q            string
	Focus        string
	Model        string
	PromptPreset string
	MaxDocs      int
}

// Result is the report plus run metadata.
type Result struct {
	ID           string `json:"id"`
	Model        string `json:"model"`
	Start        string `json:"start"`
	End          string `json:"end"`
	Q            string `json:"q"`
	Focus        string `json:"focus,omitempty"`
	PromptPreset string `json:"promptPreset"`
	Chunks       int    `json:"chunks"`
	Report       string `json:"report"`
	Fallback     string `json:"fallback,omitempty"`
}

type Analyzer struct {
	gen       Generator
	fallbacks []string
	maxChars  int
	metrics   *telemetry.Metrics
	logger    *log.Logger
}

func NewAnalyzer(gen Generator, fallbacks []string, maxChars int, metrics *telemetry.Metrics, logger *log.Logger) *Analyzer {
	if logger == nil {
		logger = log.New(log.Writer(), "[LLM] ", log.LstdFlags)
	}
	if len(fallbacks) == 0 {
		fallbacks = DefaultFallbackModels
	}
	if maxChars <= 0 {
		maxChars = DefaultMaxCharsPerChunk
	}
	return &Analyzer{gen: gen, fallbacks: fallbacks, maxChars: maxChars, metrics: metrics, logger: logger}
}

// modelChain returns the requested model followed by the fallback list, with
// duplicates removed and order preserved.
func (a *Analyzer) modelChain(requested string) []string {
	chain := make([]string, 0, len(a.fallbacks)+1)
	seen := map[string]bool{}
	add := func(m string) {
		m = strings.TrimSpace(m)
		if m == "" || seen[m] {
			return
		}
		seen[m] = true
		chain = append(chain, m)
	}
	add(requested)
	for _, m := range a.fallbacks {
		add(m)
	}
	return chain
}

// Analyze runs the chunked map/reduce pipeline, trying each model in the chain
// until one completes every call in the run.
func (a *Analyzer) Analyze(ctx context.Context, req Request) (*Result, error) {
	if len(req.Articles) == 0 {
		return nil, fmt.Errorf("analysis: no articles to analyze")
	}
	preset := req.PromptPreset
	if preset == "" {
		preset = PresetOSINTStructured
	}
	maxDocs := req.MaxDocs
	if maxDocs <= 0 {
		maxDocs = DefaultMaxDocs
	}
	chunks := Chunk(req.Articles, maxDocs, a.maxChars)
	system := SystemPrompt(preset, req.Start, req.End, req.Q, req.Focus)

	var tried []string
	var lastErr error
	for _, model := range a.modelChain(req.Model) {
		report, err := a.runModel(ctx, model, system, chunks, req.Focus)
		if err != nil {
			a.logger.Printf("model %s failed: %v", model, err)
			a.metrics.ObserveAnalyze(model, len(chunks), true)
			tried = append(tried, model)
			lastErr = err
			if ctx.Err() != nil {
				break
			}
			continue
		}
		a.metrics.ObserveAnalyze(model, len(chunks), false)
		res := &Result{
			ID:           uuid.NewString(),
			Model:        model,
			Start:        req.Start,
			End:          req.End,
			Q:            req.Q,
			Focus:        req.Focus,
			PromptPreset: preset,
			Chunks:       len(chunks),
			Report:       report,
		}
		if len(tried) > 0 {
			res.Fallback = strings.Join(append(tried, model), " -> ")
		}
		return res, nil
	}
	return nil, fmt.Errorf("analysis: all models failed: %w", lastErr)
}

// runModel executes the full run on a single model. Any failed call fails the
// whole model so the chain can move on; an empty part is tolerated.
func (a *Analyzer) runModel(ctx context.Context, model, system string, chunks []string, focus string) (string, error) {
	parts := make([]string, 0, len(chunks))
	for i, chunk := range chunks {
		out, err := a.gen.Generate(ctx, model, []string{system, mapInstruction(i+1, len(chunks), focus), chunk})
		if err != nil {
			return "", fmt.Errorf("chunk %d/%d: %w", i+1, len(chunks), err)
		}
		parts = append(parts, out)
	}
	if len(parts) == 1 {
		return parts[0], nil
	}
	merged, err := a.gen.Generate(ctx, model, []string{system, reduceInstruction(focus), strings.Join(parts, "\n\n---\n\n")})
	if err != nil || strings.TrimSpace(merged) == "" {
		if err != nil {
			a.logger.Printf("model %s: reduce failed, concatenating parts: %v", model, err)
		}
		return strings.Join(parts, "\n\n"), nil
	}
	return merged, nil
}
