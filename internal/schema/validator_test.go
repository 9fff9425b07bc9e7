package schema

import (
	"encoding/json"
	"reflect"
	"testing"

	"skillscope/internal/types"
)

func validSet() []types.SkillGapAnalysis {
	return []types.SkillGapAnalysis{
		{
			SkillName:       "Deep Learning",
			GapLevel:        types.GapLevelHigh,
			ConfidenceScore: 92,
			MentionCount:    7,
			ContextSummary:  "Model architecture work dominates the target role's day to day.",
		},
		{
			SkillName:       "MLOps",
			GapLevel:        types.GapLevelMedium,
			ConfidenceScore: 74.5,
			MentionCount:    3,
			ContextSummary:  "Deployment pipelines appear in most postings for the role.",
		},
	}
}

func TestValidateRoundTrip(t *testing.T) {
	want := validSet()
	raw, err := json.Marshal(want)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	got, err := Validate(raw)
	if err != nil {
		t.Fatalf("Validate returned error for valid set: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("round trip changed the result set:\ngot  %+v\nwant %+v", got, want)
	}
}

func TestValidateAcceptsEmptyArray(t *testing.T) {
	got, err := Validate([]byte(`[]`))
	if err != nil {
		t.Fatalf("empty array must be valid, got error: %v", err)
	}
	if got == nil {
		t.Fatal("expected non-nil empty slice")
	}
	if len(got) != 0 {
		t.Errorf("expected 0 records, got %d", len(got))
	}
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{
			name: "confidence above range",
			doc:  `[{"skillName":"Go","gapLevel":"Low","confidenceScore":101,"mentionCount":1,"contextSummary":"x"}]`,
		},
		{
			name: "confidence below range",
			doc:  `[{"skillName":"Go","gapLevel":"Low","confidenceScore":-1,"mentionCount":1,"contextSummary":"x"}]`,
		},
		{
			name: "lowercase gap level",
			doc:  `[{"skillName":"Go","gapLevel":"medium","confidenceScore":50,"mentionCount":1,"contextSummary":"x"}]`,
		},
		{
			name: "unknown gap level",
			doc:  `[{"skillName":"Go","gapLevel":"Critical","confidenceScore":50,"mentionCount":1,"contextSummary":"x"}]`,
		},
		{
			name: "negative mention count",
			doc:  `[{"skillName":"Go","gapLevel":"Low","confidenceScore":50,"mentionCount":-2,"contextSummary":"x"}]`,
		},
		{
			name: "fractional mention count",
			doc:  `[{"skillName":"Go","gapLevel":"Low","confidenceScore":50,"mentionCount":1.5,"contextSummary":"x"}]`,
		},
		{
			name: "numeric string confidence",
			doc:  `[{"skillName":"Go","gapLevel":"Low","confidenceScore":"88","mentionCount":1,"contextSummary":"x"}]`,
		},
		{
			name: "missing field",
			doc:  `[{"skillName":"Go","gapLevel":"Low","confidenceScore":50,"contextSummary":"x"}]`,
		},
		{
			name: "root is object not array",
			doc:  `{"skillName":"Go"}`,
		},
		{
			name: "blank skill name",
			doc:  `[{"skillName":"   ","gapLevel":"Low","confidenceScore":50,"mentionCount":1,"contextSummary":"x"}]`,
		},
		{
			name: "blank context summary",
			doc:  `[{"skillName":"Go","gapLevel":"Low","confidenceScore":50,"mentionCount":1,"contextSummary":""}]`,
		},
		{
			name: "not json at all",
			doc:  `the model felt chatty today`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Validate([]byte(tt.doc))
			if err == nil {
				t.Fatalf("expected validation failure, got %+v", got)
			}
			if _, ok := err.(*ValidationError); !ok {
				t.Errorf("expected *ValidationError, got %T", err)
			}
		})
	}
}

func TestValidateBatchIsAllOrNothing(t *testing.T) {
	// One valid record plus one malformed record: the whole batch fails,
	// the valid record is not silently returned alone.
	doc := `[
		{"skillName":"Kubernetes","gapLevel":"High","confidenceScore":80,"mentionCount":4,"contextSummary":"ok"},
		{"skillName":"Terraform","gapLevel":"severe","confidenceScore":70,"mentionCount":2,"contextSummary":"ok"}
	]`
	got, err := Validate([]byte(doc))
	if err == nil {
		t.Fatalf("expected batch rejection, got %d records", len(got))
	}
}
