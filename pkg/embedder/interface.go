package embedder

import "context"

// Embedder turns text into a vector. Implementations are expected to
// be safe for concurrent use.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}
