package providers

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"math"
	"strings"
)

// Mock is a deterministic in-process provider used by tests and keyless local
// runs: embeddings are derived from the input text, generation echoes a fixed
// answer.
type Mock struct {
	dim int
}

func NewMock(dim int) *Mock {
	if dim <= 0 {
		dim = 768
	}
	return &Mock{dim: dim}
}

func (m *Mock) Dimension() int { return m.dim }

func (m *Mock) Embed(ctx context.Context, text string) ([]float32, error) {
	_ = ctx
	return deterministicVector(text, m.dim), nil
}

func (m *Mock) EmbedMany(ctx context.Context, texts []string) ([][]float32, error) {
	_ = ctx
	out := make([][]float32, 0, len(texts))
	for _, t := range texts {
		out = append(out, deterministicVector(t, m.dim))
	}
	return out, nil
}

func (m *Mock) Generate(ctx context.Context, prompt string) (string, error) {
	_ = ctx
	if strings.TrimSpace(prompt) == "" {
		return "Mock answer.", nil
	}
	return "Mock answer grounded in the provided context.", nil
}

func deterministicVector(input string, dim int) []float32 {
	vec := make([]float32, dim)
	seed := []byte(input)
	if len(seed) == 0 {
		seed = []byte("empty")
	}
	for i := 0; i < dim; i++ {
		h := sha256.Sum256(append(seed, byte(i%251)))
		u := binary.BigEndian.Uint32(h[:4])
		vec[i] = float32(u%2000)/1000.0 - 1.0
	}
	return normalize(vec)
}

func normalize(v []float32) []float32 {
	var sum float32
	for _, x := range v {
		sum += x * x
	}
	if sum == 0 {
		return v
	}
	inv := float32(1.0 / math.Sqrt(float64(sum)))
	for i := range v {
		v[i] *= inv
	}
	return v
}
