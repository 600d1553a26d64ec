// Package parse turns raw model output into a title and summary. It never
// fails: output that is not a JSON object degrades to a text summary.
package parse

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"briefly-backend/internal/llm/examples"
)

// Result is the canonical shape of every summarization call.
type Result struct {
	Title   string
	Summary string
}

// Outcome names the branch that produced a Result.
type Outcome string

const (
	OutcomeJSON Outcome = "json"
	OutcomeText Outcome = "text"
)

const summaryMarker = "Summary"

// Parse decodes raw as a JSON object with Title and Summary keys, falling
// back to a text summary when that fails.
func Parse(raw string) (Result, Outcome) {
	if res, ok := parseJSON(raw); ok {
		return res, OutcomeJSON
	}
	return parseText(raw), OutcomeText
}

func parseJSON(raw string) (Result, bool) {
	candidate := stripFences(strings.TrimSpace(raw))
	if res, ok := decodeObject(candidate); ok {
		return res, true
	}
	// Models sometimes wrap the object in prose.
	start := strings.IndexByte(candidate, '{')
	end := strings.LastIndexByte(candidate, '}')
	if start > 0 && end > start {
		return decodeObject(candidate[start : end+1])
	}
	return Result{}, false
}

func decodeObject(s string) (Result, bool) {
	if !strings.HasPrefix(s, "{") {
		return Result{}, false
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(escapeControlInStrings(s), &fields); err != nil {
		return Result{}, false
	}
	return Result{
		Title:   textValue(fields["Title"]),
		Summary: textValue(fields["Summary"]),
	}, true
}

// textValue renders a JSON value as text: strings as-is, null or missing as
// empty, anything else as compact JSON.
func textValue(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return ""
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw)
	}
	return buf.String()
}

func parseText(raw string) Result {
	parts := strings.Split(raw, summaryMarker)
	if len(parts) > 1 {
		return Result{Summary: examples.Clean(parts[1])}
	}
	return Result{Summary: examples.Clean(raw)}
}

// stripFences removes a surrounding markdown code fence.
func stripFences(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// escapeControlInStrings escapes raw control characters that appear inside
// JSON string literals so that multi-line values decode.
func escapeControlInStrings(s string) []byte {
	out := make([]byte, 0, len(s)+16)
	inString := false
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !inString {
			if c == '"' {
				inString = true
			}
			out = append(out, c)
			continue
		}
		switch {
		case escaped:
			escaped = false
			out = append(out, c)
		case c == '\\':
			escaped = true
			out = append(out, c)
		case c == '"':
			inString = false
			out = append(out, c)
		case c == '\n':
			out = append(out, '\\', 'n')
		case c == '\r':
			out = append(out, '\\', 'r')
		case c == '\t':
			out = append(out, '\\', 't')
		case c < 0x20:
			out = append(out, []byte(fmt.Sprintf(`\u%04x`, c))...)
		default:
			out = append(out, c)
		}
	}
	return out
}
