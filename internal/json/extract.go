// Package json provides JSON extraction utilities for parsing LLM responses.
//
// LLMs often return JSON embedded in text, wrapped in markdown fences, or
// followed by commentary. This package recovers JSON objects from such
// responses without ever panicking: malformed or truncated input yields
// "no object found".
package json

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrNoObject is returned when no complete JSON object can be located.
var ErrNoObject = errors.New("no JSON object found")

var fenceRe = regexp.MustCompile("(?s)```[ \\t]*([A-Za-z0-9_-]*)[ \\t]*\\r?\\n(.*?)```")

// Fence is one fenced markdown block.
type Fence struct {
	Tag  string
	Body string
}

// Fences returns every fenced block in text, in order of appearance.
func Fences(text string) []Fence {
	matches := fenceRe.FindAllStringSubmatch(text, -1)
	fences := make([]Fence, 0, len(matches))
	for _, m := range matches {
		fences = append(fences, Fence{Tag: strings.ToLower(m[1]), Body: strings.TrimSpace(m[2])})
	}
	return fences
}

// FencedBlocks returns the bodies of fenced blocks whose tag equals tag
// (case-insensitive). An empty tag selects untagged fences.
func FencedBlocks(text, tag string) []string {
	tag = strings.ToLower(tag)
	var bodies []string
	for _, f := range Fences(text) {
		if f.Tag == tag {
			bodies = append(bodies, f.Body)
		}
	}
	return bodies
}

// FirstObject scans text for the first '{' and returns the substring up to
// its matching '}'. Braces inside string literals are ignored. Returns false
// when the first object is never closed.
func FirstObject(text string) (string, bool) {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return "", false
	}
	end, ok := matchBrace(text, start)
	if !ok {
		return "", false
	}
	return text[start : end+1], true
}

// Objects returns every top-level balanced object in text together with its
// byte offset. An unterminated '{' is skipped and scanning resumes just
// after it, so stray braces in prose do not hide later objects.
func Objects(text string) []Span {
	var spans []Span
	pos := 0
	for pos < len(text) {
		rel := strings.IndexByte(text[pos:], '{')
		if rel < 0 {
			break
		}
		start := pos + rel
		end, ok := matchBrace(text, start)
		if !ok {
			pos = start + 1
			continue
		}
		spans = append(spans, Span{Start: start, End: end + 1, Text: text[start : end+1]})
		pos = end + 1
	}
	return spans
}

// Span is a located substring.
type Span struct {
	Start int
	End   int
	Text  string
}

// matchBrace returns the index of the '}' closing the '{' at start.
func matchBrace(text string, start int) (int, bool) {
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
				return i, true
			}
		}
	}
	return 0, false
}

// extractJSON finds and returns the JSON object portion of a response string.
// Order of preference:
// 1. Whole response is valid JSON
// 2. A ```json fenced block, then any other fenced block
// 3. The first balanced brace-delimited object that parses
func extractJSON(response string) (string, error) {
	trimmed := strings.TrimSpace(response)
	if isObject(trimmed) {
		return trimmed, nil
	}

	fences := Fences(response)
	for _, pass := range []func(Fence) bool{
		func(f Fence) bool { return f.Tag == "json" },
		func(f Fence) bool { return f.Tag != "json" },
	} {
		for _, f := range fences {
			if !pass(f) {
				continue
			}
			if isObject(f.Body) {
				return f.Body, nil
			}
			if obj, ok := FirstObject(f.Body); ok && isObject(obj) {
				return obj, nil
			}
		}
	}

	for _, span := range Objects(response) {
		if isObject(span.Text) {
			return span.Text, nil
		}
	}

	preview := trimmed
	if len(preview) > 100 {
		preview = preview[:100] + "..."
	}
	return "", fmt.Errorf("failed to extract valid JSON from response: %q: %w", preview, ErrNoObject)
}

func isObject(s string) bool {
	if !strings.HasPrefix(s, "{") {
		return false
	}
	var probe map[string]json.RawMessage
	return json.Unmarshal([]byte(s), &probe) == nil
}

// ExtractJSONFromResponse extracts and parses a JSON object from an LLM response.
func ExtractJSONFromResponse[T any](response string) (T, error) {
	var result T
	jsonStr, err := extractJSON(response)
	if err != nil {
		return result, err
	}
	if err := json.Unmarshal([]byte(jsonStr), &result); err != nil {
		return result, fmt.Errorf("failed to unmarshal JSON: %w", err)
	}
	return result, nil
}

// ExtractJSONFromResponseWithType extracts JSON from a response into a provided pointer.
// This is the non-generic version for cases where generics aren't suitable.
func ExtractJSONFromResponseWithType(response string, result interface{}) error {
	jsonStr, err := extractJSON(response)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(jsonStr), result); err != nil {
		return fmt.Errorf("failed to unmarshal JSON: %w", err)
	}
	return nil
}

// ExtractJSON extracts the JSON portion from a response string.
// Returns the raw JSON string suitable for further processing.
func ExtractJSON(response string) (string, error) {
	return extractJSON(response)
}
