package analysis

import (
	"encoding/json"
	"fmt"
	"strings"
)

// decodeCompletion recovers a JSON array from raw model output. Stage one
// accepts output that is already valid JSON; stage two scans for a balanced
// top-level array, which salvages completions wrapped in prose or markdown
// fences.
func decodeCompletion(raw string) ([]byte, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, fmt.Errorf("completion is empty")
	}

	if json.Valid([]byte(trimmed)) {
		return []byte(trimmed), nil
	}

	candidate, ok := extractJSONArray(trimmed)
	if !ok {
		return nil, fmt.Errorf("no JSON array found in completion")
	}
	return []byte(candidate), nil
}

// extractJSONArray returns the first balanced span in s that parses as a
// JSON array of object literals (or an empty array). Prose before the real
// payload can itself contain bracketed spans, so a candidate that is not
// valid JSON does not end the scan: it resumes at the next '['. A span that
// is valid JSON but holds non-object elements is remembered as a fallback so
// schema validation gets to reject it by content.
func extractJSONArray(s string) (string, bool) {
	fallback := ""

	for from := 0; from < len(s); {
		offset := strings.IndexByte(s[from:], '[')
		if offset < 0 {
			break
		}
		start := from + offset

		end := closeOfArray(s, start)
		if end < 0 {
			// Never closes; the payload may still open inside this span.
			from = start + 1
			continue
		}

		span := s[start : end+1]
		if !json.Valid([]byte(span)) {
			from = start + 1
			continue
		}

		if isObjectArray(span) {
			return span, true
		}
		if fallback == "" {
			fallback = span
		}
		from = end + 1
	}

	if fallback != "" {
		return fallback, true
	}
	return "", false
}

// closeOfArray returns the index of the ']' closing the array opened at
// start, or -1 when it never closes. Bracket depth is tracked outside string
// literals only, so brackets inside quoted values do not confuse the scan.
func closeOfArray(s string, start int) int {
	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(s); i++ {
		c := s[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return i
			}
		}
	}

	return -1
}

// isObjectArray reports whether the span is an empty array or an array whose
// first element is an object literal.
func isObjectArray(span string) bool {
	inner := strings.TrimSpace(span[1 : len(span)-1])
	return inner == "" || inner[0] == '{'
}
