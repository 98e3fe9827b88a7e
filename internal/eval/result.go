package eval

import (
	"time"

	"github.com/ladi-press/manuscript-eval/constants"
)

// CategoryResult is one category's outcome for one method. Immutable after
// creation except for the score field, which the aggregator rewrites when a
// later method contributes to the same category.
type CategoryResult struct {
	Score               int                      `json:"score"`
	Summary             string                   `json:"summary"`
	Strengths           []string                 `json:"strengths"`
	AreasForImprovement []string                 `json:"areas_for_improvement"`
	Status              constants.CategoryStatus `json:"status"`
}

// MethodResult is the raw, unmerged outcome of a single method run. Kept in
// EvaluationResult.AllResults for audit alongside the combined view.
type MethodResult struct {
	Categories     map[constants.Category]CategoryResult `json:"categories"`
	Scores         map[constants.Category]int            `json:"scores,omitempty"`
	OverallScore   int                                   `json:"overall_score"`
	EvaluationDate time.Time                             `json:"evaluation_date"`
	TextLength     int                                   `json:"text_length,omitempty"`
	TemplateUsed   bool                                  `json:"template_used,omitempty"`
	Synthetic      bool                                  `json:"synthetic,omitempty"`
}

// EvaluationResult is the combined outcome of one job. Produced once by the
// orchestrator and never mutated afterward.
type EvaluationResult struct {
	Categories     map[constants.Category]CategoryResult `json:"categories"`
	OverallScore   int                                   `json:"overall_score"`
	EvaluationDate time.Time                             `json:"evaluation_date"`
	MethodsUsed    []constants.Method                    `json:"methods_used"`
	TemplatesUsed  []string                              `json:"templates_used"`
	AllResults     map[string]MethodResult               `json:"all_results"`
}

// Job describes one evaluation request. Template ids arrive already filtered
// to the requesting user's scope; the orchestrator re-verifies ownership via
// the template source but performs no broader authorization.
type Job struct {
	Methods     []constants.Method
	TemplateIDs []string
	UserScope   string
}
