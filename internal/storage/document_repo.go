package storage

import (
	"context"
	"fmt"

	"studybot/internal/models"
)

type DocumentRepo struct {
	db *DB
}

func NewDocumentRepo(db *DB) *DocumentRepo {
	return &DocumentRepo{db: db}
}

func (r *DocumentRepo) UpsertDocument(ctx context.Context, d models.DocumentRecord) error {
	_, err := r.db.Pool.Exec(ctx, `
INSERT INTO documents (doc_id, filename, chunk_count, status, fail_reason)
VALUES ($1, $2, $3, $4, NULLIF($5,''))
ON CONFLICT (doc_id)
DO UPDATE SET
  filename = EXCLUDED.filename,
  chunk_count = EXCLUDED.chunk_count,
  status = EXCLUDED.status,
  fail_reason = EXCLUDED.fail_reason,
  updated_at = NOW()`,
		d.DocID, d.Filename, d.ChunkCount, d.Status, d.FailReason,
	)
	if err != nil {
		return fmt.Errorf("upsert document: %w", err)
	}
	return nil
}

func (r *DocumentRepo) ListDocuments(ctx context.Context) ([]models.DocumentRecord, error) {
	rows, err := r.db.Pool.Query(ctx, `
SELECT doc_id, filename, chunk_count, status, COALESCE(fail_reason,''), created_at, updated_at
FROM documents
ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	out := make([]models.DocumentRecord, 0)
	for rows.Next() {
		var d models.DocumentRecord
		if err := rows.Scan(&d.DocID, &d.Filename, &d.ChunkCount, &d.Status, &d.FailReason, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return out, nil
}

func (r *DocumentRepo) CountDocuments(ctx context.Context) (int, error) {
	var n int
	if err := r.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM documents WHERE status='ingested'`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count documents: %w", err)
	}
	return n, nil
}
