package assessment

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// Vision models occasionally wrap the JSON in a markdown code fence even
// when told not to; strip it before parsing.
var fenceRe = regexp.MustCompile("```json\n?|\n?```")

// Parse turns the raw service reply into a validated Assessment or fails
// with one of the schema errors. Checks run in a fixed order so the first
// unmet requirement is the one reported. Wrong types are rejected outright,
// never auto-converted.
func Parse(raw string) (*Assessment, error) {
	jsonStr := strings.TrimSpace(fenceRe.ReplaceAllString(raw, ""))

	var doc map[string]any
	if err := json.Unmarshal([]byte(jsonStr), &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	overall, ok := numberInRange(doc["overallScore"])
	if !ok {
		return nil, ErrMissingOverallScore
	}

	scoresObj, ok := doc["scores"].(map[string]any)
	if !ok {
		return nil, &ScoreError{Category: CategorySort}
	}
	var scores CategoryScores
	for _, cat := range Categories {
		v, ok := numberInRange(scoresObj[string(cat)])
		if !ok {
			return nil, &ScoreError{Category: cat}
		}
		scores.set(cat, v)
	}

	catsObj, ok := doc["categories"].(map[string]any)
	if !ok {
		return nil, &CategoryDetailError{Category: CategorySort, Reason: "categories object missing"}
	}
	details := make(map[Category]CategoryDetail, len(Categories))
	for _, cat := range Categories {
		detail, err := parseCategoryDetail(cat, catsObj[string(cat)])
		if err != nil {
			return nil, err
		}
		details[cat] = detail
	}

	suggestions, ok := doc["suggestions"].(string)
	if !ok {
		return nil, ErrMissingSuggestions
	}

	return &Assessment{
		OverallScore: overall,
		Scores:       scores,
		Categories:   details,
		Suggestions:  suggestions,
	}, nil
}

func parseCategoryDetail(cat Category, v any) (CategoryDetail, error) {
	obj, ok := v.(map[string]any)
	if !ok {
		return CategoryDetail{}, &CategoryDetailError{Category: cat}
	}

	rawFindings, ok := obj["findings"].([]any)
	if !ok {
		return CategoryDetail{}, &CategoryDetailError{Category: cat, Reason: "findings must be an array"}
	}
	findings := make([]string, 0, len(rawFindings))
	for _, f := range rawFindings {
		s, ok := f.(string)
		if !ok {
			return CategoryDetail{}, &CategoryDetailError{Category: cat, Reason: "findings must contain strings"}
		}
		findings = append(findings, s)
	}

	rawRecs, ok := obj["recommendations"].([]any)
	if !ok {
		return CategoryDetail{}, &CategoryDetailError{Category: cat, Reason: "recommendations must be an array"}
	}
	recs := make([]Recommendation, 0, len(rawRecs))
	for _, r := range rawRecs {
		recObj, ok := r.(map[string]any)
		if !ok {
			return CategoryDetail{}, &CategoryDetailError{Category: cat, Reason: "recommendations must contain objects"}
		}
		desc, ok := recObj["description"].(string)
		if !ok {
			return CategoryDetail{}, &CategoryDetailError{Category: cat, Reason: "recommendation description must be a string"}
		}
		prio, ok := recObj["priority"].(string)
		if !ok || !validPriority(Priority(prio)) {
			return CategoryDetail{}, &CategoryDetailError{Category: cat, Reason: "recommendation priority must be high, medium or low"}
		}
		// timeframe is advisory; pass through when present as a string
		timeframe, _ := recObj["timeframe"].(string)
		recs = append(recs, Recommendation{
			Description: desc,
			Timeframe:   timeframe,
			Priority:    Priority(prio),
		})
	}

	return CategoryDetail{Findings: findings, Recommendations: recs}, nil
}

func validPriority(p Priority) bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

// numberInRange reports whether v is a JSON number within 0-100.
func numberInRange(v any) (float64, bool) {
	f, ok := v.(float64)
	if !ok {
		return 0, false
	}
	if f < 0 || f > 100 {
		return 0, false
	}
	return f, true
}

func (c *CategoryScores) set(cat Category, v float64) {
	switch cat {
	case CategorySort:
		c.Sort = v
	case CategorySetInOrder:
		c.SetInOrder = v
	case CategoryShine:
		c.Shine = v
	case CategoryStandardize:
		c.Standardize = v
	case CategorySustain:
		c.Sustain = v
	}
}
