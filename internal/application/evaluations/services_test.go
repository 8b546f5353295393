package evaluations

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/gembaops/fives-audit/internal/domain/assessment"
	"github.com/gembaops/fives-audit/internal/domain/evalerrors"
	"github.com/gembaops/fives-audit/internal/domain/imaging"
)

//
// ==== FAKES ====
//

type fakeAssessor struct {
	calls  int
	images int
	reply  string
	err    error
}

func (f *fakeAssessor) Assess(_ context.Context, images [][]byte) (string, error) {
	f.calls++
	f.images = len(images)
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

type fakeRepo struct {
	nextID    domain.AnalysisID
	inserted  *domain.Analysis
	insertErr error

	updatedID   domain.AnalysisID
	updatedURLs []string
	updateErr   error
}

func (f *fakeRepo) Insert(_ context.Context, a *domain.Analysis) (domain.AnalysisID, error) {
	if f.insertErr != nil {
		return 0, f.insertErr
	}
	f.inserted = a
	return f.nextID, nil
}

func (f *fakeRepo) UpdateImageURLs(_ context.Context, id domain.AnalysisID, urls []string) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.updatedID = id
	f.updatedURLs = urls
	return nil
}

func (f *fakeRepo) Get(context.Context, domain.AnalysisID) (*domain.Analysis, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeRepo) Latest(context.Context, int) ([]*domain.Analysis, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeRepo) Paginate(context.Context, int, int) (domain.PaginatedResult, error) {
	return domain.PaginatedResult{}, errors.New("not implemented")
}

type fakeStore struct {
	keys []string
	err  error
}

func (f *fakeStore) Put(_ context.Context, key string, _ []byte, _ string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.keys = append(f.keys, key)
	return "https://artifacts.local/photos/" + key, nil
}

type fakeFailures struct {
	saved []*evalerrors.EvalError
}

func (f *fakeFailures) Save(_ context.Context, e *evalerrors.EvalError) error {
	f.saved = append(f.saved, e)
	return nil
}

func (f *fakeFailures) Latest(context.Context, int) ([]*evalerrors.EvalError, error) {
	return f.saved, nil
}

type fixedClock struct{ at time.Time }

func (c fixedClock) Now() time.Time { return c.at }

//
// ==== HELPERS ====
//

func jpegUpload(t *testing.T) imaging.Upload {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return imaging.Upload{Data: buf.Bytes(), ContentType: "image/jpeg"}
}

func validReplyJSON(t *testing.T) string {
	t.Helper()
	reply := map[string]any{
		"overallScore": 81,
		"scores": map[string]any{
			"sort": 85, "setInOrder": 80, "shine": 78, "standardize": 82, "sustain": 80,
		},
		"categories": map[string]any{},
		"suggestions": "Label the shelf rows.\n\nSchedule a weekly wipe-down.",
	}
	for _, cat := range domain.Categories {
		reply["categories"].(map[string]any)[string(cat)] = map[string]any{
			"findings": []string{"observation for " + string(cat)},
			"recommendations": []map[string]any{
				{"description": "fix " + string(cat), "timeframe": "1 week", "priority": "medium"},
			},
		}
	}
	b, err := json.Marshal(reply)
	require.NoError(t, err)
	return string(b)
}

func newService(assessor *fakeAssessor, repo *fakeRepo, store *fakeStore, failures *fakeFailures, at time.Time) *Service {
	svc := &Service{
		Normalizer: imaging.NewNormalizer(2048),
		Assessor:   assessor,
		Repo:       repo,
		Artifacts:  store,
		Clock:      fixedClock{at: at},
	}
	if failures != nil {
		svc.Failures = failures
	}
	return svc
}

//
// ==== TESTS ====
//

func TestEvaluate_FullPipeline(t *testing.T) {
	at := time.Date(2025, 3, 14, 9, 26, 53, 589_000_000, time.UTC)
	assessor := &fakeAssessor{reply: validReplyJSON(t)}
	repo := &fakeRepo{nextID: 42}
	store := &fakeStore{}
	svc := newService(assessor, repo, store, nil, at)

	cmd := EvaluateCommand{
		Location:    "plant-2",
		Department:  "assembly",
		WorkStation: "line-4",
		Images:      []imaging.Upload{jpegUpload(t), jpegUpload(t)},
	}
	res, err := svc.Evaluate(context.Background(), cmd)
	require.NoError(t, err)

	assert.Equal(t, domain.AnalysisID(42), res.ID)
	assert.Equal(t, "2025-03-14T09:26:53.589Z", res.CreatedAt)
	assert.Equal(t, "plant-2", res.Location)
	assert.Equal(t, "line-4", res.WorkStation)

	// scores flow through untouched from the validated reply
	assert.Equal(t, 81.0, res.OverallScore)
	assert.Equal(t, 85.0, res.Scores.Sort)
	assert.Equal(t, 80.0, res.Scores.Sustain)
	require.Len(t, res.Categories, 5)
	assert.Equal(t, "Label the shelf rows.\n\nSchedule a weekly wipe-down.", res.Suggestions)

	assert.Equal(t, 1, assessor.calls)
	assert.Equal(t, 2, assessor.images)

	require.Len(t, res.ImageURLs, 2)
	assert.Equal(t, repo.updatedURLs, res.ImageURLs)
	assert.Equal(t, domain.AnalysisID(42), repo.updatedID)
}

func TestEvaluate_ImageKeyFormat(t *testing.T) {
	at := time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)
	assessor := &fakeAssessor{reply: validReplyJSON(t)}
	repo := &fakeRepo{nextID: 7}
	store := &fakeStore{}
	svc := newService(assessor, repo, store, nil, at)

	cmd := EvaluateCommand{Images: []imaging.Upload{jpegUpload(t), jpegUpload(t), jpegUpload(t)}}
	_, err := svc.Evaluate(context.Background(), cmd)
	require.NoError(t, err)

	ts := at.UnixMilli()
	require.Len(t, store.keys, 3)
	for i, key := range store.keys {
		assert.Equal(t, fmt.Sprintf("7-%d-%d.jpg", ts, i), key)
	}
}

func TestEvaluate_RejectsBatchBeforeAssessing(t *testing.T) {
	assessor := &fakeAssessor{reply: validReplyJSON(t)}
	repo := &fakeRepo{nextID: 1}
	svc := newService(assessor, repo, &fakeStore{}, nil, time.Now())

	uploads := make([]imaging.Upload, imaging.MaxImages+1)
	for i := range uploads {
		uploads[i] = jpegUpload(t)
	}
	_, err := svc.Evaluate(context.Background(), EvaluateCommand{Images: uploads})
	assert.ErrorIs(t, err, imaging.ErrTooManyImages)
	assert.Zero(t, assessor.calls)
	assert.Nil(t, repo.inserted)
}

func TestEvaluate_AssessorFailureRecorded(t *testing.T) {
	assessor := &fakeAssessor{err: fmt.Errorf("%w: after 3 attempts", domain.ErrServiceUnavailable)}
	failures := &fakeFailures{}
	svc := newService(assessor, &fakeRepo{}, &fakeStore{}, failures, time.Now())

	_, err := svc.Evaluate(context.Background(), EvaluateCommand{Images: []imaging.Upload{jpegUpload(t)}})
	assert.ErrorIs(t, err, domain.ErrServiceUnavailable)

	require.Len(t, failures.saved, 1)
	assert.Equal(t, evalerrors.PhaseAssess, failures.saved[0].Phase)
	assert.Empty(t, failures.saved[0].RawReply)
}

func TestEvaluate_SchemaFailureKeepsRawReply(t *testing.T) {
	assessor := &fakeAssessor{reply: `{"overallScore":"eighty"}`}
	failures := &fakeFailures{}
	repo := &fakeRepo{nextID: 1}
	svc := newService(assessor, repo, &fakeStore{}, failures, time.Now())

	_, err := svc.Evaluate(context.Background(), EvaluateCommand{Images: []imaging.Upload{jpegUpload(t)}})
	assert.ErrorIs(t, err, domain.ErrMissingOverallScore)
	assert.Nil(t, repo.inserted)

	require.Len(t, failures.saved, 1)
	assert.Equal(t, evalerrors.PhaseValidate, failures.saved[0].Phase)
	assert.Equal(t, `{"overallScore":"eighty"}`, failures.saved[0].RawReply)
}

func TestEvaluate_InsertFailure(t *testing.T) {
	assessor := &fakeAssessor{reply: validReplyJSON(t)}
	store := &fakeStore{}
	svc := newService(assessor, &fakeRepo{insertErr: errors.New("connection refused")}, store, nil, time.Now())

	_, err := svc.Evaluate(context.Background(), EvaluateCommand{Images: []imaging.Upload{jpegUpload(t)}})
	assert.ErrorIs(t, err, domain.ErrPersistence)
	assert.Empty(t, store.keys)
}

func TestEvaluate_StoreFailureLeavesOrphanRecord(t *testing.T) {
	assessor := &fakeAssessor{reply: validReplyJSON(t)}
	repo := &fakeRepo{nextID: 9}
	failures := &fakeFailures{}
	svc := newService(assessor, repo, &fakeStore{err: errors.New("bucket unreachable")}, failures, time.Now())

	_, err := svc.Evaluate(context.Background(), EvaluateCommand{Images: []imaging.Upload{jpegUpload(t)}})
	assert.ErrorIs(t, err, domain.ErrPersistence)

	// the record was inserted and is left behind without URLs
	require.NotNil(t, repo.inserted)
	assert.Empty(t, repo.updatedURLs)

	require.Len(t, failures.saved, 1)
	assert.Equal(t, evalerrors.PhasePersist, failures.saved[0].Phase)
	assert.EqualValues(t, 9, failures.saved[0].AnalysisID)
}

func TestRecentFailures_NilRepositoryDisabled(t *testing.T) {
	svc := newService(&fakeAssessor{}, &fakeRepo{}, &fakeStore{}, nil, time.Now())
	got, err := svc.RecentFailures(context.Background(), 10)
	require.NoError(t, err)
	assert.Nil(t, got)
}
