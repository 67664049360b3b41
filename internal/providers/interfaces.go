package providers

import "context"

// Embedder converts text into fixed-dimension vectors. Implementations are
// deterministic for a fixed model version, preserve input order in EmbedMany,
// and never retry internally; retry policy belongs to the caller.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedMany(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
}

// Generator produces answer text from a fully assembled prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}
