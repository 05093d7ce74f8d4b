package enrich

import (
	"encoding/json"
	"fmt"
	"strings"
)

// unmarshalPayload decodes a structured payload from endpoint response text.
// The payload may arrive as raw JSON or embedded in a fenced code block
// (labeled json or bare), possibly surrounded by prose; both are accepted.
func unmarshalPayload(text string, v any) error {
	candidate := extractFenced(text)
	if candidate == "" {
		candidate = stripFences(text)
	}
	if candidate == "" {
		return fmt.Errorf("empty payload")
	}
	if err := json.Unmarshal([]byte(candidate), v); err != nil {
		return fmt.Errorf("parse json: %w (payload: %.120s)", err, candidate)
	}
	return nil
}

// extractFenced returns the body of the first fenced code block in text,
// or "" if there is none.
func extractFenced(text string) string {
	start := strings.Index(text, "```")
	if start == -1 {
		return ""
	}
	rest := text[start+3:]
	// Drop an optional language tag on the fence line
	if nl := strings.IndexByte(rest, '\n'); nl != -1 {
		rest = rest[nl+1:]
	}
	end := strings.Index(rest, "```")
	if end == -1 {
		return strings.TrimSpace(rest)
	}
	return strings.TrimSpace(rest[:end])
}

// stripFences removes a leading/trailing code fence pair wrapping the whole
// response, tolerating any language tag on the opening fence.
func stripFences(text string) string {
	s := strings.TrimSpace(text)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	if nl := strings.IndexByte(s, '\n'); nl != -1 {
		s = s[nl+1:]
	} else {
		s = strings.TrimPrefix(s, "```")
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
