package mysql

import (
	"context"
	"database/sql"
	"strings"
	"time"

	domain "github.com/gembaops/fives-audit/internal/domain/evalerrors"
)

type EvalErrorRepository struct {
	db *sql.DB
}

func NewEvalErrorRepository(db *sql.DB) *EvalErrorRepository {
	return &EvalErrorRepository{db: db}
}

// Save inserts an evaluation error entry
func (r *EvalErrorRepository) Save(ctx context.Context, e *domain.EvalError) error {
	const q = `
INSERT INTO evaluation_errors
  (analysis_id, phase, message, raw_reply, created_at)
VALUES (?,?,?,?,?);
`
	phase := e.Phase
	if strings.TrimSpace(phase) == "" {
		phase = "-"
	}
	createdAt := e.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err := r.db.ExecContext(ctx, q, e.AnalysisID, phase, e.Message, e.RawReply, createdAt)
	return err
}

// Latest returns the most recent error entries
func (r *EvalErrorRepository) Latest(ctx context.Context, limit int) ([]*domain.EvalError, error) {
	if limit <= 0 {
		limit = 50
	}
	const q = `
SELECT id, analysis_id, phase, message, raw_reply, created_at
FROM evaluation_errors
ORDER BY created_at DESC, id DESC
LIMIT ?;
`
	rows, err := r.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.EvalError
	for rows.Next() {
		var e domain.EvalError
		if err := rows.Scan(&e.ID, &e.AnalysisID, &e.Phase, &e.Message, &e.RawReply, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}
