package analysis

import "fmt"

// FailureKind classifies why an analysis could not produce records.
type FailureKind string

const (
	// FailureExtraction means the completion call itself failed.
	FailureExtraction FailureKind = "extraction"
	// FailureParse means no JSON array could be recovered from the completion.
	FailureParse FailureKind = "parse"
	// FailureValidation means the parsed records violated the schema.
	FailureValidation FailureKind = "validation"
)

// AnalysisError is the hard-failure result of an analysis. It always names
// the role pair so callers and logs can tie the failure to its transition.
type AnalysisError struct {
	CurrentRole string
	TargetRole  string
	Kind        FailureKind
	Cause       error
}

func (e *AnalysisError) Error() string {
	msg := fmt.Sprintf("skill-gap analysis failed (%s) for transition %q -> %q",
		e.Kind, e.CurrentRole, e.TargetRole)
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *AnalysisError) Unwrap() error {
	return e.Cause
}

// AugmentationError reports a failed augmentation search. It is recorded
// and logged but never aborts an analysis.
type AugmentationError struct {
	Query string
	Cause error
}

func (e *AugmentationError) Error() string {
	return fmt.Sprintf("augmentation search failed for query %q: %v", e.Query, e.Cause)
}

func (e *AugmentationError) Unwrap() error {
	return e.Cause
}
