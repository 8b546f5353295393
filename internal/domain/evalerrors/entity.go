package evalerrors

import "time"

// Pipeline phases recorded for failed evaluations.
const (
	PhaseNormalize = "normalize"
	PhaseAssess    = "assess"
	PhaseValidate  = "validate"
	PhasePersist   = "persist"
)

// EvalError represents a persisted evaluation failure entry. RawReply keeps
// the offending service reply for diagnostics when the failure happened
// after the external call.
type EvalError struct {
	ID         int64     `json:"id"`
	AnalysisID int64     `json:"analysis_id,omitempty"`
	Phase      string    `json:"phase"`
	Message    string    `json:"message"`
	RawReply   string    `json:"raw_reply,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}
