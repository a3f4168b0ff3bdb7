package fetch

import (
	"bytes"
	"context"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	readability "codeberg.org/readeck/go-readability/v2"
	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
)

const (
	readabilityMinWords = 30
	maxArticleChars     = 40000
)

// Article is the readable content of a web page.
type Article struct {
	URL     string
	Title   string
	Content string // markdown
}

// FetchArticle downloads pageURL and extracts its main content as markdown.
func (c *Client) FetchArticle(ctx context.Context, pageURL string) (Article, error) {
	data, err := c.Get(ctx, pageURL, map[string]string{"Accept": "text/html,application/xhtml+xml,text/plain"})
	if err != nil {
		return Article{}, err
	}
	title, content := ExtractArticle(data, pageURL)
	return Article{URL: pageURL, Title: title, Content: content}, nil
}

// ExtractArticle runs readability over an HTML document and converts the
// article to markdown, falling back to rendered plain text and finally to
// tag-stripped text. Output is truncated to a bounded length.
func ExtractArticle(data []byte, pageURL string) (title, content string) {
	parsedURL, _ := url.Parse(pageURL)
	article, err := readability.FromReader(bytes.NewReader(data), parsedURL)
	if err == nil && article.Node != nil {
		title = article.Title()
		if md, mdErr := htmltomarkdown.ConvertNode(article.Node); mdErr == nil {
			text := normalizeContent(string(md))
			if len(strings.Fields(text)) >= readabilityMinWords {
				return title, truncate(text)
			}
		}
		var buf bytes.Buffer
		if article.RenderText(&buf) == nil {
			text := normalizeContent(buf.String())
			if len(strings.Fields(text)) >= readabilityMinWords {
				return title, truncate(text)
			}
		}
	}
	return title, truncate(normalizeContent(stripTags(string(data))))
}

var (
	scriptRe    = regexp.MustCompile(`(?is)<(script|style|noscript)[^>]*>.*?</(script|style|noscript)>`)
	tagRe       = regexp.MustCompile(`(?s)<[^>]+>`)
	blankLineRe = regexp.MustCompile(`\n{3,}`)
	spaceRe     = regexp.MustCompile(`[ \t]+`)
)

func stripTags(s string) string {
	s = scriptRe.ReplaceAllString(s, " ")
	return tagRe.ReplaceAllString(s, " ")
}

func normalizeContent(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = spaceRe.ReplaceAllString(s, " ")
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	s = strings.Join(lines, "\n")
	return strings.TrimSpace(blankLineRe.ReplaceAllString(s, "\n\n"))
}

func truncate(s string) string {
	if len(s) <= maxArticleChars {
		return s
	}
	cut := s[:maxArticleChars]
	for len(cut) > 0 && !utf8.ValidString(cut) {
		cut = cut[:len(cut)-1]
	}
	return cut + "…"
}
