package analysis

import (
	"encoding/json"
	"errors"
	"strings"
)

var (
	errNoJSONObject  = errors.New("no JSON object found in model response")
	errAmbiguousJSON = errors.New("model response contains more than one JSON object")
)

// extractJSONObject returns the single top-level JSON object embedded in text.
// Surrounding prose and code fences are ignored. Text holding several
// independent objects is rejected rather than guessed at.
func extractJSONObject(text string) (string, error) {
	objects := jsonObjects(text)
	switch len(objects) {
	case 0:
		return "", errNoJSONObject
	case 1:
		return objects[0], nil
	default:
		return "", errAmbiguousJSON
	}
}

// jsonObjects scans text for balanced {...} regions that parse as JSON.
// Regions nested inside an accepted object are part of it and not reported.
func jsonObjects(text string) []string {
	var out []string
	for i := 0; i < len(text); i++ {
		if text[i] != '{' {
			continue
		}
		end := matchingBrace(text, i)
		if end < 0 {
			continue
		}
		candidate := text[i : end+1]
		if !json.Valid([]byte(candidate)) {
			continue
		}
		out = append(out, strings.TrimSpace(candidate))
		i = end
	}
	return out
}

// matchingBrace returns the index of the brace closing the one at start,
// skipping braces inside string literals, or -1 when it is never closed.
func matchingBrace(text string, start int) int {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
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
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// summarizeSnippet flattens and truncates model output for log lines.
func summarizeSnippet(content string) string {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return "<empty>"
	}
	clean := strings.Join(strings.Fields(trimmed), " ")
	const limit = 160
	runes := []rune(clean)
	if len(runes) > limit {
		clean = string(runes[:limit]) + "..."
	}
	return clean
}
