package llm

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// Reasoning models may prefix output with a <think> block; strip it
// before hunting for JSON.
var thinkPrefix = regexp.MustCompile(`(?s)^\s*<think>.*?</think>\s*`)

// ExtractJSON pulls the first complete JSON object or array out of a
// completion that may wrap it in prose, think tags or a markdown fence.
func ExtractJSON(response string) (string, error) {
	cleaned := thinkPrefix.ReplaceAllString(response, "")

	objStart := strings.IndexByte(cleaned, '{')
	arrStart := strings.IndexByte(cleaned, '[')

	if objStart >= 0 && (arrStart < 0 || objStart < arrStart) {
		if s, ok := balancedFrom(cleaned, '{', '}'); ok && json.Valid([]byte(s)) {
			return s, nil
		}
	}
	if arrStart >= 0 {
		if s, ok := balancedFrom(cleaned, '[', ']'); ok && json.Valid([]byte(s)) {
			return s, nil
		}
	}

	trimmed := strings.TrimSpace(cleaned)
	if json.Valid([]byte(trimmed)) {
		return trimmed, nil
	}
	return "", NewError(ErrorTypeResponse, "no valid JSON in completion", false, nil)
}

// balancedFrom returns the first bracket-balanced span starting at the
// first open byte, string-literal and escape aware.
func balancedFrom(s string, open, close byte) (string, bool) {
	start := strings.IndexByte(s, open)
	if start < 0 {
		return "", false
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		switch {
		case escaped:
			escaped = false
		case c == '\\' && inString:
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == open:
			depth++
		case c == close:
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}

// ParseJSONResponse extracts and unmarshals the completion's JSON.
func ParseJSONResponse[T any](response string) (T, error) {
	var result T
	s, err := ExtractJSON(response)
	if err != nil {
		return result, err
	}
	if err := json.Unmarshal([]byte(s), &result); err != nil {
		return result, fmt.Errorf("unmarshal completion JSON: %w", err)
	}
	return result, nil
}
