package types

// Gap severity levels. Values are case sensitive on the wire.
const (
	GapLevelLow    = "Low"
	GapLevelMedium = "Medium"
	GapLevelHigh   = "High"
)

// Passage is one piece of evidence about a target role, labeled with where
// it came from.
type Passage struct {
	Source  string `json:"source"`
	Content string `json:"content"`
	URL     string `json:"url,omitempty"`
}

// TransitionContext describes one career transition to analyze.
type TransitionContext struct {
	CurrentRole    string    `json:"currentRole"`
	TargetRole     string    `json:"targetRole"`
	ExistingSkills []string  `json:"existingSkills,omitempty"`
	Passages       []Passage `json:"passages,omitempty"`
}

// SkillGapAnalysis is one extracted skill-gap record.
type SkillGapAnalysis struct {
	SkillName       string  `json:"skillName"`
	GapLevel        string  `json:"gapLevel"`
	ConfidenceScore float64 `json:"confidenceScore"`
	MentionCount    int     `json:"mentionCount"`
	ContextSummary  string  `json:"contextSummary"`
}

// AnalysisReport wraps the records of one analysis for output and APIs.
type AnalysisReport struct {
	AnalysisID  string             `json:"analysisId"`
	CurrentRole string             `json:"currentRole"`
	TargetRole  string             `json:"targetRole"`
	SkillGaps   []SkillGapAnalysis `json:"skillGaps"`
}
