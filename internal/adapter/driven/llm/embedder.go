// Package llm implements the Embedder port using the OpenAI embeddings API.
package llm

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sashabaranov/go-openai"

	"github.com/cfarleigh/releasegate/internal/domain/port/driven"
)

// embedderAgent labels embedding usage in the metrics sink.
const embedderAgent = "embedder"

// Compile-time interface satisfaction check.
var _ driven.Embedder = (*Embedder)(nil)

// Embedder computes text embeddings through the OpenAI API. It reports
// token cost to the metrics sink on every call.
type Embedder struct {
	client        *openai.Client
	model         openai.EmbeddingModel
	metrics       driven.MetricsSink
	costPerKToken float64 // USD per 1000 prompt tokens
}

// NewEmbedder creates an Embedder for the given model. costPerKToken is the
// USD price per 1000 tokens used for the cost metric; zero disables cost
// reporting.
func NewEmbedder(apiKey, model string, costPerKToken float64, metrics driven.MetricsSink) *Embedder {
	return &Embedder{
		client:        openai.NewClient(apiKey),
		model:         openai.EmbeddingModel(model),
		metrics:       metrics,
		costPerKToken: costPerKToken,
	}
}

// NewEmbedderWithBaseURL creates an Embedder that talks to a custom endpoint.
// Intended for testing against an httptest server and for API-compatible
// local embedding services.
func NewEmbedderWithBaseURL(apiKey, model, baseURL string, costPerKToken float64, metrics driven.MetricsSink) *Embedder {
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = baseURL

	return &Embedder{
		client:        openai.NewClientWithConfig(cfg),
		model:         openai.EmbeddingModel(model),
		metrics:       metrics,
		costPerKToken: costPerKToken,
	}
}

// EmbedTexts returns one embedding vector per input text, in input order.
func (e *Embedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: texts,
		Model: e.model,
	})
	if err != nil {
		return nil, fmt.Errorf("creating embeddings for %d texts: %w", len(texts), err)
	}

	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("embedding API returned %d vectors for %d texts", len(resp.Data), len(texts))
	}

	vectors := make([][]float32, len(resp.Data))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(vectors) {
			return nil, fmt.Errorf("embedding API returned out-of-range index %d", d.Index)
		}
		vectors[d.Index] = d.Embedding
	}

	if e.costPerKToken > 0 {
		cost := float64(resp.Usage.PromptTokens) / 1000 * e.costPerKToken
		e.metrics.AddLLMUsage(embedderAgent, string(e.model), cost)
	}

	slog.Debug("embeddings created",
		"model", string(e.model),
		"texts", len(texts),
		"prompt_tokens", resp.Usage.PromptTokens,
	)

	return vectors, nil
}
