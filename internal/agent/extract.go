package agent

import (
	"encoding/json"

	"aios/internal/action"
)

// ExtractAction finds the first balanced {...} span in assistant text and
// parses it as an action descriptor. A reply with no braces, an
// unbalanced span, or a span that does not parse as a descriptor means no
// action is present. Matching the first balanced span (rather than
// first-{ to last-}) keeps unrelated trailing braces in longer replies
// from corrupting the candidate.
func ExtractAction(text string) (action.Descriptor, bool) {
	span, ok := firstBalancedSpan(text)
	if !ok {
		return action.Descriptor{}, false
	}

	var desc action.Descriptor
	if err := json.Unmarshal([]byte(span), &desc); err != nil {
		return action.Descriptor{}, false
	}
	return desc, true
}

// firstBalancedSpan returns the first brace-balanced substring, tracking
// JSON string literals so braces inside quoted values don't count.
func firstBalancedSpan(text string) (string, bool) {
	start := -1
	depth := 0
	inString := false
	escaped := false

	for i := 0; i < len(text); i++ {
		ch := text[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}

		switch ch {
		case '"':
			if depth > 0 {
				inString = true
			}
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth > 0 {
				depth--
				if depth == 0 {
					return text[start : i+1], true
				}
			}
		}
	}
	return "", false
}
