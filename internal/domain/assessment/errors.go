package assessment

import (
	"errors"
	"fmt"
)

// ErrServiceUnavailable indicates every delivery attempt to the vision
// service failed at the transport level.
var ErrServiceUnavailable = errors.New("assessment service unavailable")

// ErrMalformedResponse indicates the reply was not parseable JSON.
// Never retried.
var ErrMalformedResponse = errors.New("malformed assessment response")

// ErrMissingOverallScore indicates overallScore is absent, non-numeric or
// outside 0-100.
var ErrMissingOverallScore = errors.New("missing or invalid overallScore")

// ErrMissingSuggestions indicates suggestions is absent or not a string.
var ErrMissingSuggestions = errors.New("missing or invalid suggestions")

// ErrPersistence wraps storage failures in the persistence phase.
var ErrPersistence = errors.New("persistence failure")

// ScoreError names the category whose score is missing, non-numeric or out
// of range.
type ScoreError struct {
	Category Category
}

func (e *ScoreError) Error() string {
	return fmt.Sprintf("missing or invalid score: %s", e.Category)
}

// CategoryDetailError names the category whose findings/recommendations
// block is missing or malformed.
type CategoryDetailError struct {
	Category Category
	Reason   string
}

func (e *CategoryDetailError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("missing or invalid category detail: %s", e.Category)
	}
	return fmt.Sprintf("invalid category detail for %s: %s", e.Category, e.Reason)
}
