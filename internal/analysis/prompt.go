package analysis

import (
	"fmt"
	"strings"

	"skillscope/internal/types"
)

const systemPromptTemplate = `You are an expert career-transition analyst specializing in technical roles.

The candidate is moving from the role of "%s" to the role of "%s".
The candidate already has these skills: %s.

You will receive evidence passages about the target role, separated by "---" delimiters and each tagged with its source. Using only that evidence:

1. Identify the skills the target role requires that the candidate's existing skills do not cover.
2. For each gap, rate its severity as exactly one of "Low", "Medium", or "High".
3. Assign a confidence score between 0 and 100 reflecting how strongly the evidence supports the gap.
4. Count how many distinct passages mention each skill (mentionCount, a non-negative integer).
5. Summarize in one or two sentences how the evidence describes the skill's role in the position (contextSummary).

Respond with ONLY a JSON array. Each element must have exactly these fields: "skillName" (string), "gapLevel" (string), "confidenceScore" (number), "mentionCount" (integer), "contextSummary" (string). If the evidence reveals no gaps, respond with an empty JSON array []. Do not wrap the array in an object, markdown fences, or commentary.`

// buildPrompts renders the system and user prompts for one extraction call.
// Existing skills are passed through verbatim so the model sees the
// candidate's own vocabulary.
func buildPrompts(tc types.TransitionContext, evidenceBody string) (systemPrompt, userPrompt string) {
	skills := "none listed"
	if len(tc.ExistingSkills) > 0 {
		skills = strings.Join(tc.ExistingSkills, ", ")
	}

	systemPrompt = fmt.Sprintf(systemPromptTemplate, tc.CurrentRole, tc.TargetRole, skills)
	userPrompt = evidenceBody
	return systemPrompt, userPrompt
}
