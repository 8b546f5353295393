package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"time"

	domain "github.com/gembaops/fives-audit/internal/domain/assessment"
)

type AnalysisRepository struct {
	db *sql.DB
}

func NewAnalysisRepository(db *sql.DB) *AnalysisRepository {
	return &AnalysisRepository{db: db}
}

// Insert creates the analysis row with an empty image list and returns the
// auto-assigned id. Filenames derive from this id, so the insert must
// complete before any image write.
func (r *AnalysisRepository) Insert(ctx context.Context, a *domain.Analysis) (domain.AnalysisID, error) {
	const q = `
INSERT INTO analyses (created_at, scores, image_urls)
VALUES (?,?,?);
`
	scores, err := json.Marshal(a.Scores)
	if err != nil {
		return 0, fmt.Errorf("marshal scores: %w", err)
	}
	created := a.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}

	res, err := r.db.ExecContext(ctx, q, created, scores, "[]")
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	a.ID = domain.AnalysisID(id)
	return a.ID, nil
}

// UpdateImageURLs binds the resolved URLs to an existing record.
func (r *AnalysisRepository) UpdateImageURLs(ctx context.Context, id domain.AnalysisID, urls []string) error {
	const q = `
UPDATE analyses
SET image_urls = ?
WHERE id = ?;
`
	if urls == nil {
		urls = []string{}
	}
	encoded, err := json.Marshal(urls)
	if err != nil {
		return fmt.Errorf("marshal image urls: %w", err)
	}
	_, err = r.db.ExecContext(ctx, q, encoded, id)
	return err
}

// Get by ID
func (r *AnalysisRepository) Get(ctx context.Context, id domain.AnalysisID) (*domain.Analysis, error) {
	const q = `
SELECT id, created_at, scores, image_urls
FROM analyses
WHERE id = ? LIMIT 1;
`
	return scanAnalysis(r.db.QueryRowContext(ctx, q, id))
}

// Latest analyses, newest first
func (r *AnalysisRepository) Latest(ctx context.Context, limit int) ([]*domain.Analysis, error) {
	if limit <= 0 {
		limit = 20
	}
	const q = `
SELECT id, created_at, scores, image_urls
FROM analyses
ORDER BY created_at DESC, id DESC LIMIT ?;
`
	rows, err := r.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectAnalyses(rows)
}

// Paginate with offset + limit (classic pagination)
func (r *AnalysisRepository) Paginate(ctx context.Context, page, pageSize int) (domain.PaginatedResult, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	const q = `
SELECT id, created_at, scores, image_urls
FROM analyses
ORDER BY created_at DESC, id DESC
LIMIT ? OFFSET ?;
`
	rows, err := r.db.QueryContext(ctx, q, pageSize, offset)
	if err != nil {
		return domain.PaginatedResult{}, fmt.Errorf("querying analyses: %w", err)
	}
	defer rows.Close()

	list, err := collectAnalyses(rows)
	if err != nil {
		return domain.PaginatedResult{}, err
	}

	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM analyses;`).Scan(&total); err != nil {
		return domain.PaginatedResult{}, fmt.Errorf("getting total count: %w", err)
	}

	return domain.PaginatedResult{
		Data:       list,
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: int(math.Ceil(float64(total) / float64(pageSize))),
	}, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAnalysis(row rowScanner) (*domain.Analysis, error) {
	var (
		a      domain.Analysis
		scores []byte
		urls   []byte
	)
	if err := row.Scan(&a.ID, &a.CreatedAt, &scores, &urls); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(scores, &a.Scores); err != nil {
		return nil, fmt.Errorf("decode scores column: %w", err)
	}
	if err := json.Unmarshal(urls, &a.ImageURLs); err != nil {
		return nil, fmt.Errorf("decode image_urls column: %w", err)
	}
	return &a, nil
}

func collectAnalyses(rows *sql.Rows) ([]*domain.Analysis, error) {
	var out []*domain.Analysis
	for rows.Next() {
		a, err := scanAnalysis(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
