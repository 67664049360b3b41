package vector

import "context"

// Metadata is the payload stored beside each vector: the chunk body and the
// uploading filename, which doubles as the citation label.
type Metadata struct {
	Text   string `json:"text"`
	Source string `json:"source"`
}

type Entry struct {
	ID       string    `json:"id"`
	Values   []float32 `json:"values"`
	Metadata Metadata  `json:"metadata"`
}

type Match struct {
	ID       string   `json:"id"`
	Score    float64  `json:"score"`
	Metadata Metadata `json:"metadata"`
}

// Stats mirrors the index-level counters the store exposes. Capacity is nil
// when the backend does not report one.
type Stats struct {
	TotalVectorCount int     `json:"total_vector_count"`
	Dimension        int     `json:"dimension"`
	IndexFullness    float64 `json:"index_fullness"`
	Capacity         *int    `json:"capacity"`
}

// Store is the similarity-search backend. Upsert is idempotent by id
// (re-upserting an id overwrites prior content); Query returns at most topK
// matches in descending score order.
type Store interface {
	Upsert(ctx context.Context, entries []Entry) error
	Query(ctx context.Context, vector []float32, topK int) ([]Match, error)
	Stats(ctx context.Context) (Stats, error)
}
