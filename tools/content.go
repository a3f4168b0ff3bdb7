// Content detection.
//
// Information Hiding:
// - Binary heuristics (data URI, magic prefixes, base64 runs) hidden
// - Mapping to gateway content parts hidden

package tools

import (
	"strings"

	"github.com/richinex/drwin/llm"
)

// minBase64Run is the shortest unbroken base64 run treated as a binary payload.
const minBase64Run = 200

// defaultBinaryMIME is assumed for base64 payloads with no recognizable signature.
const defaultBinaryMIME = "application/pdf"

// magicPrefixes maps base64-encoded file signatures to MIME types.
var magicPrefixes = []struct {
	prefix string
	mime   string
}{
	{"JVBERi0", "application/pdf"},
	{"iVBORw0KGgo", "image/png"},
	{"/9j/", "image/jpeg"},
	{"R0lGOD", "image/gif"},
	{"UklGR", "image/webp"},
	{"UEsDB", "application/vnd.openxmlformats-officedocument.wordprocessingml.document"},
}

// Content is either inline text or a base64 binary payload with a MIME type.
type Content struct {
	Name     string
	Text     string
	MIMEType string
	Data     string
}

// IsBinary reports whether c carries a binary payload.
func (c Content) IsBinary() bool {
	return c.Data != ""
}

// Part converts c to a gateway content part.
func (c Content) Part() llm.Part {
	if c.IsBinary() {
		return llm.BlobPart(c.MIMEType, c.Data)
	}
	return llm.TextPart(c.Text)
}

// Label describes c for prompts: the file name for binaries, else "text".
func (c Content) Label() string {
	if c.Name != "" {
		return c.Name
	}
	if c.IsBinary() {
		return c.MIMEType + " document"
	}
	return "text"
}

// DetectContent classifies s as text or binary. Binary indicators are a
// data-URI prefix, a known file signature, or a long run of base64 characters.
func DetectContent(s string) Content {
	trimmed := strings.TrimSpace(s)

	if strings.HasPrefix(trimmed, "data:") {
		if comma := strings.IndexByte(trimmed, ','); comma > 0 {
			header := trimmed[len("data:"):comma]
			if strings.HasSuffix(header, ";base64") {
				mime := strings.TrimSuffix(header, ";base64")
				if mime == "" {
					mime = defaultBinaryMIME
				}
				return Content{MIMEType: mime, Data: compact(trimmed[comma+1:])}
			}
		}
	}

	for _, m := range magicPrefixes {
		if strings.HasPrefix(trimmed, m.prefix) && isBase64Run(trimmed, len(m.prefix)) {
			return Content{MIMEType: m.mime, Data: compact(trimmed)}
		}
	}

	if isBase64Run(trimmed, minBase64Run) {
		return Content{MIMEType: defaultBinaryMIME, Data: compact(trimmed)}
	}
	return Content{Text: s}
}

// Parts converts contents to gateway parts, preceding each binary with a
// text label so the model can refer to it by name.
func Parts(contents []Content) []llm.Part {
	parts := make([]llm.Part, 0, len(contents)*2)
	for _, c := range contents {
		if c.IsBinary() {
			parts = append(parts, llm.TextPart("Attached file: "+c.Label()))
		}
		parts = append(parts, c.Part())
	}
	return parts
}

// isBase64Run reports whether s is at least minLen characters of base64
// alphabet, allowing line breaks.
func isBase64Run(s string, minLen int) bool {
	n := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9',
			c == '+', c == '/', c == '=':
			n++
		case c == '\n' || c == '\r':
		default:
			return false
		}
	}
	return n >= minLen
}

func compact(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\r' || r == ' ' || r == '\t' {
			return -1
		}
		return r
	}, s)
}
