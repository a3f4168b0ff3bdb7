// Shared collaborators for the grant-writing tools.
//
// Information Hiding:
// - Gateway call plus JSON recovery hidden behind generateJSON
// - Language and clock defaults hidden

package tools

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/richinex/drwin/fetch"
	"github.com/richinex/drwin/funding"
	jsonutil "github.com/richinex/drwin/internal/json"
	"github.com/richinex/drwin/llm"
)

// Specialists for the four tool groups.
var (
	ScoutSpecialist     = Specialist{Name: "Scout", Module: "Discovery"}
	AuditorSpecialist   = Specialist{Name: "Auditor", Module: "Validation"}
	ArchitectSpecialist = Specialist{Name: "Architect", Module: "Creation"}
	TailorSpecialist    = Specialist{Name: "Tailor", Module: "Adaptation"}
)

// ArticleFetcher retrieves a readable article from a URL.
type ArticleFetcher interface {
	FetchArticle(ctx context.Context, url string) (fetch.Article, error)
}

// FundingSearcher runs a discovery search across funding sources.
type FundingSearcher interface {
	Search(ctx context.Context, req funding.SearchRequest) funding.SearchResult
}

// Deps are the collaborators tool implementations share.
type Deps struct {
	Gateway  llm.Gateway
	Articles ArticleFetcher
	Searcher FundingSearcher
	Language string
	Now      func() time.Time
	Logger   *slog.Logger
}

func (d Deps) withDefaults() Deps {
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Language == "" {
		d.Language = "en"
	}
	return d
}

// languageInstruction tells the model which language to answer in.
func (d Deps) languageInstruction() string {
	if strings.HasPrefix(strings.ToLower(d.Language), "es") {
		return "Write every human-readable field in Spanish."
	}
	return "Write every human-readable field in English."
}

// generateJSON calls the gateway and recovers a T from the reply. Replies are
// always scanned for an embedded object, since grounded calls cannot
// enforce a schema and other providers occasionally wrap output in prose.
func generateJSON[T any](ctx context.Context, gw llm.Gateway, req llm.Request) (T, error) {
	var zero T
	text, err := gw.Generate(ctx, req)
	if err != nil {
		return zero, fmt.Errorf("generation failed: %w", err)
	}
	out, err := jsonutil.ExtractJSONFromResponse[T](text)
	if err != nil {
		return zero, fmt.Errorf("unparseable model response: %w", err)
	}
	return out, nil
}

// generateText calls the gateway for free narrative text.
func generateText(ctx context.Context, gw llm.Gateway, req llm.Request) (string, error) {
	text, err := gw.Generate(ctx, req)
	if err != nil {
		return "", fmt.Errorf("generation failed: %w", err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("model returned an empty response")
	}
	return text, nil
}

// section renders a labeled prompt section, or a labeled default when body is empty.
func section(title, body, fallback string) string {
	body = strings.TrimSpace(body)
	if body == "" {
		body = fallback
	}
	return fmt.Sprintf("## %s\n%s\n", title, body)
}

// truncateRunes cuts s to at most n runes.
func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
