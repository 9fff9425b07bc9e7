// Package schema enforces the shape of skill-gap result sets produced by the
// extraction service. Validation is all-or-nothing: a single malformed record
// rejects the whole batch.
package schema

import (
	"encoding/json"
	"fmt"
	"strings"

	"skillscope/internal/types"

	"github.com/xeipuuv/gojsonschema"
)

// skillGapSchema is the JSON Schema for a SkillGapAnalysis array. The gapLevel
// enum is matched case-sensitively and numbers must be JSON numbers: a numeric
// string for confidenceScore is a failure, not a coercion.
const skillGapSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "array",
  "items": {
    "type": "object",
    "required": ["skillName", "gapLevel", "confidenceScore", "mentionCount", "contextSummary"],
    "properties": {
      "skillName":       {"type": "string"},
      "gapLevel":        {"type": "string", "enum": ["Low", "Medium", "High"]},
      "confidenceScore": {"type": "number", "minimum": 0, "maximum": 100},
      "mentionCount":    {"type": "integer", "minimum": 0},
      "contextSummary":  {"type": "string"}
    }
  }
}`

var schemaLoader = gojsonschema.NewStringLoader(skillGapSchema)

// FieldError represents a single validation error at a specific field
type FieldError struct {
	Field   string
	Message string
}

// ValidationError reports every rule the candidate document broke.
type ValidationError struct {
	Errors []FieldError
}

func (ve *ValidationError) Error() string {
	var sb strings.Builder
	sb.WriteString("skill gap validation failed:\n")
	for i, err := range ve.Errors {
		sb.WriteString(fmt.Sprintf("  %d. %s: %s\n", i+1, err.Field, err.Message))
	}
	return sb.String()
}

// Validate checks a raw JSON document against the skill-gap schema and, on
// success, returns the decoded result set unchanged (no reordering, no
// deduplication). An empty array is a valid result and is returned as such;
// it is distinct from a validation failure.
func Validate(raw []byte) ([]types.SkillGapAnalysis, error) {
	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return nil, &ValidationError{Errors: []FieldError{
			{Field: "(root)", Message: fmt.Sprintf("document is not valid JSON: %v", err)},
		}}
	}

	if !result.Valid() {
		ve := &ValidationError{Errors: make([]FieldError, 0, len(result.Errors()))}
		for _, desc := range result.Errors() {
			field := desc.Field()
			if field == "" {
				field = "(root)"
			}
			ve.Errors = append(ve.Errors, FieldError{Field: field, Message: desc.Description()})
		}
		return nil, ve
	}

	var gaps []types.SkillGapAnalysis
	if err := json.Unmarshal(raw, &gaps); err != nil {
		return nil, &ValidationError{Errors: []FieldError{
			{Field: "(root)", Message: fmt.Sprintf("decode failed after schema check: %v", err)},
		}}
	}
	if gaps == nil {
		gaps = []types.SkillGapAnalysis{}
	}

	// JSON Schema cannot express "non-empty after trimming", so the text
	// fields get a second pass here.
	var fieldErrs []FieldError
	for i, g := range gaps {
		if strings.TrimSpace(g.SkillName) == "" {
			fieldErrs = append(fieldErrs, FieldError{
				Field:   fmt.Sprintf("%d.skillName", i),
				Message: "must not be empty",
			})
		}
		if strings.TrimSpace(g.ContextSummary) == "" {
			fieldErrs = append(fieldErrs, FieldError{
				Field:   fmt.Sprintf("%d.contextSummary", i),
				Message: "must not be empty",
			})
		}
	}
	if len(fieldErrs) > 0 {
		return nil, &ValidationError{Errors: fieldErrs}
	}

	return gaps, nil
}
