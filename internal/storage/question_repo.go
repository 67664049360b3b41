package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"studybot/internal/models"
)

type QuestionRepo struct {
	db *DB
}

func NewQuestionRepo(db *DB) *QuestionRepo {
	return &QuestionRepo{db: db}
}

// InsertQuestion records one asked question with its answer and citations.
// Sources are stored as a jsonb column, they are read back whole and never
// queried by field.
func (r *QuestionRepo) InsertQuestion(ctx context.Context, question string, ans models.Answer) (string, error) {
	id := uuid.NewString()
	sources, err := json.Marshal(ans.Sources)
	if err != nil {
		return "", fmt.Errorf("marshal sources: %w", err)
	}
	_, err = r.db.Pool.Exec(ctx, `
INSERT INTO questions (question_id, question, answer, sources)
VALUES ($1, $2, $3, $4)`,
		id, question, ans.Text, sources,
	)
	if err != nil {
		return "", fmt.Errorf("insert question: %w", err)
	}
	return id, nil
}

func (r *QuestionRepo) ListQuestions(ctx context.Context, limit int) ([]models.QuestionRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.Pool.Query(ctx, `
SELECT question_id, question, answer, sources, created_at
FROM questions
ORDER BY created_at DESC
LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	defer rows.Close()

	out := make([]models.QuestionRecord, 0)
	for rows.Next() {
		var q models.QuestionRecord
		var sources []byte
		if err := rows.Scan(&q.QuestionID, &q.Question, &q.Answer, &sources, &q.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		if len(sources) > 0 {
			if err := json.Unmarshal(sources, &q.Sources); err != nil {
				return nil, fmt.Errorf("decode sources: %w", err)
			}
		}
		out = append(out, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate questions: %w", err)
	}
	return out, nil
}
