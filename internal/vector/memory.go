package vector

import (
	"context"
	"math"
	"sort"
	"sync"
)

// Memory is an in-process Store used by tests and keyless local runs. Cosine
// similarity over a map keyed by entry id, so upserts are idempotent the same
// way the hosted index is.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]Entry
	dim     int
}

func NewMemory(dim int) *Memory {
	return &Memory{entries: make(map[string]Entry), dim: dim}
}

func (m *Memory) Upsert(ctx context.Context, entries []Entry) error {
	_ = ctx
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range entries {
		m.entries[e.ID] = e
	}
	return nil
}

func (m *Memory) Query(ctx context.Context, vector []float32, topK int) ([]Match, error) {
	_ = ctx
	if topK <= 0 {
		topK = 6
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	matches := make([]Match, 0, len(m.entries))
	for _, e := range m.entries {
		matches = append(matches, Match{
			ID:       e.ID,
			Score:    cosine(vector, e.Values),
			Metadata: e.Metadata,
		})
	}
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Score == matches[j].Score {
			return matches[i].ID < matches[j].ID
		}
		return matches[i].Score > matches[j].Score
	})
	if len(matches) > topK {
		matches = matches[:topK]
	}
	return matches, nil
}

func (m *Memory) Stats(ctx context.Context) (Stats, error) {
	_ = ctx
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Stats{TotalVectorCount: len(m.entries), Dimension: m.dim}, nil
}

func cosine(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
