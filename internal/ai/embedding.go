package ai

import "context"

// Embedder turns text into l2-normalized vectors. Two implementations exist:
// an OpenAI-compatible HTTP client and a local deterministic feature-hashing
// embedder used when no API key is configured.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}
