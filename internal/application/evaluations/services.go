package evaluations

import (
	"context"
	"fmt"
	"log"

	"github.com/gembaops/fives-audit/internal/application"
	domain "github.com/gembaops/fives-audit/internal/domain/assessment"
	"github.com/gembaops/fives-audit/internal/domain/evalerrors"
	"github.com/gembaops/fives-audit/internal/domain/imaging"
)

// Service implements the evaluation pipeline use-cases.
// Service is designed to be used concurrently and is thread-safe: each
// Evaluate call is one independent unit of work with no shared mutable
// state between requests.
type Service struct {
	Normalizer *imaging.Normalizer
	Assessor   domain.Assessor
	Repo       domain.Repository
	Artifacts  domain.ArtifactStore
	Failures   evalerrors.Repository // optional, nil disables diagnostics
	Clock      application.Clock
}

//
// ==== USE CASES ====
//

// EvaluateCommand carries one submission: the raw image blobs plus the
// caller's free-text location metadata. The pipeline passes the metadata
// through without re-validating its content.
type EvaluateCommand struct {
	Location    string
	Department  string
	WorkStation string
	Images      []imaging.Upload
}

// EvaluateResult is the value returned to the caller. Constructed fresh
// per request, never retained.
type EvaluateResult struct {
	ID           domain.AnalysisID                         `json:"id"`
	CreatedAt    string                                    `json:"createdAt"`
	Location     string                                    `json:"location"`
	Department   string                                    `json:"department"`
	WorkStation  string                                    `json:"workStation"`
	OverallScore float64                                   `json:"overallScore"`
	Scores       domain.CategoryScores                     `json:"scores"`
	Categories   map[domain.Category]domain.CategoryDetail `json:"categories"`
	Suggestions  string                                    `json:"suggestions"`
	ImageURLs    []string                                  `json:"imageUrls"`
}

// Evaluate runs the pipeline: normalize → assess → validate → persist →
// assemble. Every stage either passes a typed value forward or fails with
// a typed error that aborts the whole evaluation.
func (s *Service) Evaluate(ctx context.Context, cmd EvaluateCommand) (*EvaluateResult, error) {
	normalized, err := s.Normalizer.NormalizeBatch(cmd.Images)
	if err != nil {
		return nil, err
	}

	buffers := make([][]byte, len(normalized))
	for i, img := range normalized {
		buffers[i] = img.Data
	}

	raw, err := s.Assessor.Assess(ctx, buffers)
	if err != nil {
		s.recordFailure(0, evalerrors.PhaseAssess, err, "")
		return nil, err
	}

	validated, err := domain.Parse(raw)
	if err != nil {
		// schema failures are never retried; keep the offending reply
		s.recordFailure(0, evalerrors.PhaseValidate, err, raw)
		return nil, err
	}

	analysis := &domain.Analysis{
		CreatedAt: s.Clock.Now(),
		Scores:    *validated,
		ImageURLs: []string{},
	}

	// Step 1: the insert must complete first, filenames embed the id.
	id, err := s.Repo.Insert(ctx, analysis)
	if err != nil {
		s.recordFailure(0, evalerrors.PhasePersist, err, "")
		return nil, fmt.Errorf("%w: insert analysis: %v", domain.ErrPersistence, err)
	}
	analysis.ID = id

	// Step 2: image writes. A failure past this point leaves the record
	// with an empty or partial URL list; no compensating delete is done.
	ts := s.Clock.Now().UnixMilli()
	urls := make([]string, 0, len(normalized))
	for i, img := range normalized {
		key := fmt.Sprintf("%d-%d-%d.jpg", id, ts, i)
		url, err := s.Artifacts.Put(ctx, key, img.Data, "image/jpeg")
		if err != nil {
			s.recordFailure(int64(id), evalerrors.PhasePersist, err, "")
			return nil, fmt.Errorf("%w: store image %d: %v", domain.ErrPersistence, i, err)
		}
		urls = append(urls, url)
	}

	// Step 3: bind the resolved URLs back to the record.
	if err := s.Repo.UpdateImageURLs(ctx, id, urls); err != nil {
		s.recordFailure(int64(id), evalerrors.PhasePersist, err, "")
		return nil, fmt.Errorf("%w: update image urls: %v", domain.ErrPersistence, err)
	}
	analysis.ImageURLs = urls

	return assembleResult(analysis, cmd), nil
}

// Get fetches one stored analysis by id
func (s *Service) Get(ctx context.Context, id domain.AnalysisID) (*domain.Analysis, error) {
	return s.Repo.Get(ctx, id)
}

// Latest fetches the N most recent analyses
func (s *Service) Latest(ctx context.Context, limit int) ([]*domain.Analysis, error) {
	return s.Repo.Latest(ctx, limit)
}

// Paginate returns a page of analyses
func (s *Service) Paginate(ctx context.Context, page, pageSize int) (domain.PaginatedResult, error) {
	return s.Repo.Paginate(ctx, page, pageSize)
}

// RecentFailures lists persisted evaluation failures for diagnostics.
func (s *Service) RecentFailures(ctx context.Context, limit int) ([]*evalerrors.EvalError, error) {
	if s.Failures == nil {
		return nil, nil
	}
	return s.Failures.Latest(ctx, limit)
}

// recordFailure persists a diagnostics entry on a best-effort basis. It
// uses a background context so a disconnected caller cannot lose the
// entry, and never masks the pipeline error.
func (s *Service) recordFailure(analysisID int64, phase string, cause error, rawReply string) {
	if s.Failures == nil {
		return
	}
	e := &evalerrors.EvalError{
		AnalysisID: analysisID,
		Phase:      phase,
		Message:    cause.Error(),
		RawReply:   rawReply,
		CreatedAt:  s.Clock.Now(),
	}
	if err := s.Failures.Save(context.Background(), e); err != nil {
		log.Printf("record evaluation failure: %v", err)
	}
}

// assembleResult is the pure merge of the validated assessment, the
// caller-supplied metadata and the resolved image URLs.
func assembleResult(a *domain.Analysis, cmd EvaluateCommand) *EvaluateResult {
	return &EvaluateResult{
		ID:           a.ID,
		CreatedAt:    a.CreatedAt.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
		Location:     cmd.Location,
		Department:   cmd.Department,
		WorkStation:  cmd.WorkStation,
		OverallScore: a.Scores.OverallScore,
		Scores:       a.Scores.Scores,
		Categories:   a.Scores.Categories,
		Suggestions:  a.Scores.Suggestions,
		ImageURLs:    a.ImageURLs,
	}
}
