package driven

import "context"

// Embedder defines the driven port for the embedding capability used by the
// evidence index. The index computes vectors through this interface so the
// embedding backend can be swapped without touching storage or retrieval.
type Embedder interface {
	// EmbedTexts returns one embedding vector per input text, in input order.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}
