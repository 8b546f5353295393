package assessment

import (
	"time"
)

// AnalysisID type for persisted analyses (assigned by storage on insert)
type AnalysisID int64

// Category enum
type Category string

const (
	CategorySort        Category = "sort"
	CategorySetInOrder  Category = "setInOrder"
	CategoryShine       Category = "shine"
	CategoryStandardize Category = "standardize"
	CategorySustain     Category = "sustain"
)

// Categories lists every 5S category key, in audit order. All five must be
// present in both scores and category details or the reply is rejected.
var Categories = []Category{
	CategorySort,
	CategorySetInOrder,
	CategoryShine,
	CategoryStandardize,
	CategorySustain,
}

// Priority enum for recommendations
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// CategoryScores value object, all five keys mandatory, each 0-100
type CategoryScores struct {
	Sort        float64 `json:"sort"`
	SetInOrder  float64 `json:"setInOrder"`
	Shine       float64 `json:"shine"`
	Standardize float64 `json:"standardize"`
	Sustain     float64 `json:"sustain"`
}

// Score returns the score for a category key.
func (c CategoryScores) Score(cat Category) float64 {
	switch cat {
	case CategorySort:
		return c.Sort
	case CategorySetInOrder:
		return c.SetInOrder
	case CategoryShine:
		return c.Shine
	case CategoryStandardize:
		return c.Standardize
	case CategorySustain:
		return c.Sustain
	}
	return 0
}

// Recommendation is one prioritized improvement for a category.
type Recommendation struct {
	Description string   `json:"description"`
	Timeframe   string   `json:"timeframe,omitempty"`
	Priority    Priority `json:"priority"`
}

// CategoryDetail carries findings and recommendations for one category.
// Both sequences are mandatory per key but may be empty.
type CategoryDetail struct {
	Findings        []string         `json:"findings"`
	Recommendations []Recommendation `json:"recommendations"`
}

// Assessment is the validated reply from the vision service. Immutable once
// validated; the pipeline never recomputes or coerces any of its values.
type Assessment struct {
	OverallScore float64                     `json:"overallScore"`
	Scores       CategoryScores              `json:"scores"`
	Categories   map[Category]CategoryDetail `json:"categories"`
	Suggestions  string                      `json:"suggestions"`
}

// Aggregate Root: Analysis correlates one evaluation's scores with its
// stored image evidence. Created with an empty URL list, updated once.
type Analysis struct {
	ID        AnalysisID `json:"id"`
	CreatedAt time.Time  `json:"created_at"`
	Scores    Assessment `json:"scores"`
	ImageURLs []string   `json:"image_urls"`
}
