package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/gembaops/fives-audit/internal/domain/assessment"
)

func newMockRepo(t *testing.T) (*AnalysisRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewAnalysisRepository(db), mock
}

func sampleAssessment() domain.Assessment {
	return domain.Assessment{
		OverallScore: 77,
		Scores: domain.CategoryScores{
			Sort: 80, SetInOrder: 75, Shine: 70, Standardize: 80, Sustain: 80,
		},
		Categories: map[domain.Category]domain.CategoryDetail{
			domain.CategoryShine: {
				Findings: []string{"dust on the bench"},
				Recommendations: []domain.Recommendation{
					{Description: "wipe down daily", Priority: domain.PriorityHigh},
				},
			},
		},
		Suggestions: "Start with the bench.",
	}
}

func TestInsert_ReturnsAssignedID(t *testing.T) {
	repo, mock := newMockRepo(t)

	created := time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)
	a := &domain.Analysis{CreatedAt: created, Scores: sampleAssessment()}
	scores, err := json.Marshal(a.Scores)
	require.NoError(t, err)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO analyses (created_at, scores, image_urls)`)).
		WithArgs(created, scores, "[]").
		WillReturnResult(sqlmock.NewResult(42, 1))

	id, err := repo.Insert(context.Background(), a)
	require.NoError(t, err)
	assert.Equal(t, domain.AnalysisID(42), id)
	assert.Equal(t, domain.AnalysisID(42), a.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateImageURLs(t *testing.T) {
	repo, mock := newMockRepo(t)

	urls := []string{"https://store/1.jpg", "https://store/2.jpg"}
	encoded, err := json.Marshal(urls)
	require.NoError(t, err)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE analyses`)).
		WithArgs(encoded, domain.AnalysisID(42)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateImageURLs(context.Background(), 42, urls))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateImageURLs_NilBecomesEmptyList(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE analyses`)).
		WithArgs([]byte("[]"), domain.AnalysisID(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateImageURLs(context.Background(), 7, nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGet_DecodesJSONColumns(t *testing.T) {
	repo, mock := newMockRepo(t)

	want := sampleAssessment()
	scores, err := json.Marshal(want)
	require.NoError(t, err)
	created := time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows([]string{"id", "created_at", "scores", "image_urls"}).
		AddRow(42, created, scores, []byte(`["https://store/42-0.jpg"]`))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, created_at, scores, image_urls`)).
		WithArgs(domain.AnalysisID(42)).
		WillReturnRows(rows)

	got, err := repo.Get(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, domain.AnalysisID(42), got.ID)
	assert.Equal(t, want, got.Scores)
	assert.Equal(t, []string{"https://store/42-0.jpg"}, got.ImageURLs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGet_NotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, created_at, scores, image_urls`)).
		WithArgs(domain.AnalysisID(99)).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.Get(context.Background(), 99)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLatest_DefaultLimit(t *testing.T) {
	repo, mock := newMockRepo(t)

	scores, err := json.Marshal(sampleAssessment())
	require.NoError(t, err)
	rows := sqlmock.NewRows([]string{"id", "created_at", "scores", "image_urls"}).
		AddRow(2, time.Now(), scores, []byte(`[]`)).
		AddRow(1, time.Now().Add(-time.Hour), scores, []byte(`[]`))
	mock.ExpectQuery(regexp.QuoteMeta(`ORDER BY created_at DESC, id DESC LIMIT ?`)).
		WithArgs(20).
		WillReturnRows(rows)

	got, err := repo.Latest(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, domain.AnalysisID(2), got[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaginate(t *testing.T) {
	repo, mock := newMockRepo(t)

	scores, err := json.Marshal(sampleAssessment())
	require.NoError(t, err)
	rows := sqlmock.NewRows([]string{"id", "created_at", "scores", "image_urls"}).
		AddRow(5, time.Now(), scores, []byte(`[]`))
	mock.ExpectQuery(regexp.QuoteMeta(`LIMIT ? OFFSET ?`)).
		WithArgs(10, 10).
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM analyses`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(21))

	res, err := repo.Paginate(context.Background(), 2, 10)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Page)
	assert.EqualValues(t, 21, res.Total)
	assert.Equal(t, 3, res.TotalPages)
	require.Len(t, res.Data, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}
