// Package funding queries public grant and tender databases and ranks the
// results against project keywords.
//
// Information Hiding:
// - Upstream API request and response shapes hidden in each Source
// - Mapping to the common Opportunity shape hidden
// - Date parsing and ranking heuristics hidden
package funding

import (
	"context"
	"time"
)

// Kind classifies a source along scope (national/international) and
// instrument (subsidy/tender).
type Kind int

const (
	NationalSubsidy Kind = iota
	NationalTender
	InternationalSubsidy
	InternationalTender
)

// String returns the flag-style name of the kind.
func (k Kind) String() string {
	switch k {
	case NationalSubsidy:
		return "nationalSubsidies"
	case NationalTender:
		return "nationalTenders"
	case InternationalSubsidy:
		return "internationalSubsidies"
	case InternationalTender:
		return "internationalTenders"
	default:
		return "unknown"
	}
}

// International reports whether the kind queries an international index.
func (k Kind) International() bool {
	return k == InternationalSubsidy || k == InternationalTender
}

// Flags select which kinds of source to query.
type Flags struct {
	NationalSubsidies      bool `json:"nationalSubsidies"`
	NationalTenders        bool `json:"nationalTenders"`
	InternationalSubsidies bool `json:"internationalSubsidies"`
	InternationalTenders   bool `json:"internationalTenders"`
}

// Enabled reports whether k is selected.
func (f Flags) Enabled(k Kind) bool {
	switch k {
	case NationalSubsidy:
		return f.NationalSubsidies
	case NationalTender:
		return f.NationalTenders
	case InternationalSubsidy:
		return f.InternationalSubsidies
	case InternationalTender:
		return f.InternationalTenders
	default:
		return false
	}
}

// Any reports whether at least one kind is selected.
func (f Flags) Any() bool {
	return f.NationalSubsidies || f.NationalTenders || f.InternationalSubsidies || f.InternationalTenders
}

// International reports whether any international kind is selected.
func (f Flags) International() bool {
	return f.InternationalSubsidies || f.InternationalTenders
}

// Opportunity is the common shape every source maps its results into.
type Opportunity struct {
	Source          string  `json:"source"`
	Title           string  `json:"title"`
	URL             string  `json:"url"`
	PublicationDate string  `json:"publicationDate"`
	DeadlineDate    string  `json:"deadlineDate"`
	Description     string  `json:"description"`
	Budget          string  `json:"budget"`
	Kind            Kind    `json:"-"`
	Relevance       float64 `json:"relevance"`
}

// Query is what a Source receives. Keywords are primary terms; Expanded
// terms broaden recall on sources that support it.
type Query struct {
	Keywords []string
	Expanded []string
	From     time.Time
	To       time.Time
	Limit    int
}

// Source is one external funding database.
type Source interface {
	Name() string
	Kind() Kind
	Search(ctx context.Context, q Query) ([]Opportunity, error)
}

// Fetcher is the HTTP capability sources need.
type Fetcher interface {
	GetJSON(ctx context.Context, url string, out any) error
	PostJSON(ctx context.Context, url string, body, out any) error
}
