// Parameter normalization.
//
// Information Hiding:
// - Alias lookup and key-style folding hidden
// - Coercion between strings, numbers, lists and objects hidden

package tools

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode"
)

// Params is a loosely-typed parameter object as emitted by the model.
type Params map[string]any

// ParseParams decodes a raw JSON object. Empty input yields empty params.
func ParseParams(raw json.RawMessage) (Params, error) {
	if len(strings.TrimSpace(string(raw))) == 0 {
		return Params{}, nil
	}
	var p Params
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("invalid parameters: %w", err)
	}
	if p == nil {
		p = Params{}
	}
	return p, nil
}

// Lookup returns the first present, non-empty value among keys. Keys match
// exactly first, then ignoring case, underscores and dashes, so
// "project_description" resolves "projectDescription".
func (p Params) Lookup(keys ...string) (any, bool) {
	for _, k := range keys {
		if v, ok := p[k]; ok && !isEmpty(v) {
			return v, true
		}
	}
	if len(p) == 0 {
		return nil, false
	}
	folded := make(map[string]any, len(p))
	for k, v := range p {
		fk := foldKey(k)
		if _, dup := folded[fk]; !dup {
			folded[fk] = v
		}
	}
	for _, k := range keys {
		if v, ok := folded[foldKey(k)]; ok && !isEmpty(v) {
			return v, true
		}
	}
	return nil, false
}

// String returns the first alias present as text. Numbers are formatted,
// lists are joined with ", " and objects are flattened into labeled sections.
func (p Params) String(keys ...string) string {
	v, ok := p.Lookup(keys...)
	if !ok {
		return ""
	}
	return strings.TrimSpace(toText(v))
}

// StringList returns the first alias as a list of non-empty trimmed strings.
// A string value is split on commas, semicolons and newlines.
func (p Params) StringList(keys ...string) []string {
	v, ok := p.Lookup(keys...)
	if !ok {
		return nil
	}
	var out []string
	switch val := v.(type) {
	case []any:
		for _, item := range val {
			if s := strings.TrimSpace(toText(item)); s != "" {
				out = append(out, s)
			}
		}
	case []string:
		for _, s := range val {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	default:
		for _, s := range strings.FieldsFunc(toText(val), func(r rune) bool {
			return r == ',' || r == ';' || r == '\n'
		}) {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

// Bool returns the first alias as a boolean and whether it was set.
// Accepts booleans, numbers, and yes/no style strings.
func (p Params) Bool(keys ...string) (value, set bool) {
	for _, k := range keys {
		v, ok := p.lookupRaw(k)
		if !ok {
			continue
		}
		if b, ok := toBool(v); ok {
			return b, true
		}
	}
	return false, false
}

// Int returns the first alias as an integer.
func (p Params) Int(keys ...string) (int, bool) {
	v, ok := p.Lookup(keys...)
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return int(n), true
	case int:
		return n, true
	case json.Number:
		i, err := n.Int64()
		return int(i), err == nil
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		return i, err == nil
	}
	return 0, false
}

// Object returns the first alias that is an object.
func (p Params) Object(keys ...string) Params {
	v, ok := p.Lookup(keys...)
	if !ok {
		return nil
	}
	if m, ok := v.(map[string]any); ok {
		return Params(m)
	}
	if m, ok := v.(Params); ok {
		return m
	}
	return nil
}

// Objects returns the first alias as a list of objects. Non-object items are
// wrapped as {"description": item}.
func (p Params) Objects(keys ...string) []Params {
	v, ok := p.Lookup(keys...)
	if !ok {
		return nil
	}
	items, ok := v.([]any)
	if !ok {
		items = []any{v}
	}
	out := make([]Params, 0, len(items))
	for _, item := range items {
		switch val := item.(type) {
		case map[string]any:
			out = append(out, Params(val))
		default:
			if s := strings.TrimSpace(toText(val)); s != "" {
				out = append(out, Params{"description": s})
			}
		}
	}
	return out
}

// Contents returns every content item found under the aliases: plain text,
// base64 payloads, data URIs, and {name, mimeType, data} objects.
func (p Params) Contents(keys ...string) []Content {
	v, ok := p.Lookup(keys...)
	if !ok {
		return nil
	}
	return toContents(v)
}

// Map returns p as a plain map, for telemetry.
func (p Params) Map() map[string]any {
	if p == nil {
		return map[string]any{}
	}
	return map[string]any(p)
}

func (p Params) lookupRaw(key string) (any, bool) {
	if v, ok := p[key]; ok && v != nil {
		return v, true
	}
	fk := foldKey(key)
	for k, v := range p {
		if foldKey(k) == fk && v != nil {
			return v, true
		}
	}
	return nil, false
}

func toContents(v any) []Content {
	switch val := v.(type) {
	case []any:
		var out []Content
		for _, item := range val {
			out = append(out, toContents(item)...)
		}
		return out
	case map[string]any:
		obj := Params(val)
		data := obj.String("data", "base64", "content", "inlineData")
		if data == "" {
			if text := FlattenObject(val); text != "" {
				return []Content{{Text: text}}
			}
			return nil
		}
		c := DetectContent(data)
		c.Name = obj.String("name", "fileName", "filename")
		if mime := obj.String("mimeType", "mime_type", "type"); mime != "" && c.IsBinary() {
			c.MIMEType = mime
		}
		return []Content{c}
	default:
		s := strings.TrimSpace(toText(val))
		if s == "" {
			return nil
		}
		return []Content{DetectContent(s)}
	}
}

func toText(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	case []any:
		parts := make([]string, 0, len(val))
		for _, item := range val {
			if s := strings.TrimSpace(toText(item)); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	case map[string]any:
		return FlattenObject(val)
	case Params:
		return FlattenObject(val)
	default:
		return fmt.Sprint(val)
	}
}

func toBool(v any) (bool, bool) {
	switch val := v.(type) {
	case bool:
		return val, true
	case float64:
		return val != 0, true
	case string:
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "true", "yes", "y", "1", "si", "sí":
			return true, true
		case "false", "no", "n", "0":
			return false, true
		}
	}
	return false, false
}

func isEmpty(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(val) == ""
	case []any:
		return len(val) == 0
	case map[string]any:
		return len(val) == 0
	}
	return false
}

func foldKey(k string) string {
	var b strings.Builder
	for _, r := range k {
		if r == '_' || r == '-' || r == ' ' {
			continue
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

// FlattenObject renders an object as labeled text sections, keys sorted.
// Nested objects are indented under their label; lists become bullets.
func FlattenObject(m map[string]any) string {
	var b strings.Builder
	flattenInto(&b, m, 0)
	return strings.TrimSpace(b.String())
}

func flattenInto(b *strings.Builder, m map[string]any, depth int) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	indent := strings.Repeat("  ", depth)
	for _, k := range keys {
		v := m[k]
		if isEmpty(v) {
			continue
		}
		label := humanizeKey(k)
		switch val := v.(type) {
		case map[string]any:
			fmt.Fprintf(b, "%s%s:\n", indent, label)
			flattenInto(b, val, depth+1)
		case []any:
			fmt.Fprintf(b, "%s%s:\n", indent, label)
			for _, item := range val {
				if obj, ok := item.(map[string]any); ok {
					fmt.Fprintf(b, "%s  -\n", indent)
					flattenInto(b, obj, depth+2)
					continue
				}
				if s := strings.TrimSpace(toText(item)); s != "" {
					fmt.Fprintf(b, "%s  - %s\n", indent, s)
				}
			}
		default:
			fmt.Fprintf(b, "%s%s: %s\n", indent, label, strings.TrimSpace(toText(val)))
		}
	}
}

// humanizeKey turns "applicantProfile" or "applicant_profile" into "Applicant Profile".
func humanizeKey(k string) string {
	var words []string
	var cur []rune
	flush := func() {
		if len(cur) > 0 {
			words = append(words, string(cur))
			cur = cur[:0]
		}
	}
	runes := []rune(k)
	for i, r := range runes {
		switch {
		case r == '_' || r == '-' || r == ' ':
			flush()
		case unicode.IsUpper(r) && i > 0 && !unicode.IsUpper(runes[i-1]):
			flush()
			cur = append(cur, r)
		default:
			cur = append(cur, r)
		}
	}
	flush()
	for i, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}
