package models

import "time"

// Chunk is the unit of embedding and retrieval: a bounded window of a
// document's extracted text plus the metadata stored next to its vector.
type Chunk struct {
	ChunkID string `json:"chunk_id"`
	DocID   string `json:"doc_id"`
	Source  string `json:"source"`
	Index   int    `json:"index"`
	Text    string `json:"text"`
}

// Source is one citation attached to an answer, ordered by descending
// similarity of the chunk it was drawn from.
type Source struct {
	Source  string  `json:"source"`
	Snippet string  `json:"snippet,omitempty"`
	Score   float64 `json:"score"`
}

// Answer is the generated response plus its citations. Transient, returned
// to the caller and optionally logged to history.
type Answer struct {
	Text    string   `json:"answer"`
	Sources []Source `json:"sources"`
}

// FileResult reports the outcome of ingesting one uploaded file.
type FileResult struct {
	Filename    string `json:"filename"`
	DocID       string `json:"doc_id,omitempty"`
	ChunksAdded int    `json:"chunks_added"`
	Error       string `json:"error,omitempty"`
}

type DocumentRecord struct {
	DocID      string    `json:"doc_id"`
	Filename   string    `json:"filename"`
	ChunkCount int       `json:"chunk_count"`
	Status     string    `json:"status"`
	FailReason string    `json:"fail_reason,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type QuestionRecord struct {
	QuestionID string    `json:"question_id"`
	Question   string    `json:"question"`
	Answer     string    `json:"answer"`
	Sources    []Source  `json:"sources"`
	CreatedAt  time.Time `json:"created_at"`
}
