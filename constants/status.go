package constants

// EvaluationStatus is the canonical status for rows in evaluations.
type EvaluationStatus string

// Stable values (store these exact strings in DB).
const (
	EvaluationPending    EvaluationStatus = "PENDING"    // accepted, not yet started
	EvaluationProcessing EvaluationStatus = "PROCESSING" // extraction or scoring in progress
	EvaluationCompleted  EvaluationStatus = "COMPLETED"  // terminal success
	EvaluationFailed     EvaluationStatus = "FAILED"     // terminal failure
)

// IsTerminal reports whether the status admits no further transitions.
func (s EvaluationStatus) IsTerminal() bool {
	return s == EvaluationCompleted || s == EvaluationFailed
}

// CategoryStatus is the per-category outcome inside a result payload.
// Lowercase values are part of the stored JSON shape.
type CategoryStatus string

const (
	CategoryCompleted CategoryStatus = "completed"
	CategoryFailed    CategoryStatus = "failed"
)

// Method is an evaluation strategy.
type Method string

const (
	MethodBasic    Method = "basic"    // the six default prompts
	MethodTemplate Method = "template" // prompts resolved from uploaded templates
)

// CanonicalizeMethod maps free-form input onto a known method.
func CanonicalizeMethod(input string) (Method, bool) {
	switch Method(input) {
	case MethodBasic:
		return MethodBasic, true
	case MethodTemplate:
		return MethodTemplate, true
	}
	return "", false
}
