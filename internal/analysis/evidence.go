package analysis

import (
	"fmt"
	"strings"

	"skillscope/internal/types"
)

// passageDelimiter separates passages in the evidence body. The model is
// told passages are delimited, so the delimiter must not appear in normal
// prose.
const passageDelimiter = "\n\n---\n\n"

// buildEvidenceBody concatenates passages into the extraction input. Each
// passage is prefixed with its source label so the model can weigh
// provenance; passages with blank content are skipped.
func buildEvidenceBody(passages []types.Passage) string {
	parts := make([]string, 0, len(passages))
	for _, p := range passages {
		content := strings.TrimSpace(p.Content)
		if content == "" {
			continue
		}
		source := strings.TrimSpace(p.Source)
		if source == "" {
			source = "unknown"
		}
		parts = append(parts, fmt.Sprintf("[source: %s]\n%s", source, content))
	}
	return strings.Join(parts, passageDelimiter)
}

// augmentationQuery builds the single escalation query for a target role.
func augmentationQuery(targetRole string) string {
	return targetRole + " required skills and qualifications"
}
