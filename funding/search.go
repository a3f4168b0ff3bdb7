package funding

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

// DefaultMaxResults caps the merged result list.
const DefaultMaxResults = 15

// SearchRequest is one discovery run.
type SearchRequest struct {
	Keywords   []string // as the user gave them
	Translated []string // English renderings for international sources
	Related    []string // related terms, scored lower
	Flags      Flags
	From       time.Time
	To         time.Time
}

// SearchResult carries the merged ranking plus per-source bookkeeping.
type SearchResult struct {
	Opportunities   []Opportunity `json:"opportunities"`
	TotalFound      int           `json:"totalFound"`
	SearchedSources []string      `json:"searchedSources"`
	FailedSources   []string      `json:"failedSources"`
}

// Searcher fans a request out to every enabled source and merges results.
type Searcher struct {
	sources    []Source
	maxResults int
	now        func() time.Time
	logger     *slog.Logger
}

// NewSearcher creates a searcher over sources.
func NewSearcher(sources ...Source) *Searcher {
	return &Searcher{
		sources:    sources,
		maxResults: DefaultMaxResults,
		now:        time.Now,
		logger:     slog.Default(),
	}
}

// WithMaxResults sets the merged result cap.
func (s *Searcher) WithMaxResults(n int) *Searcher {
	if n > 0 {
		s.maxResults = n
	}
	return s
}

// WithClock sets the clock used for deadline filtering.
func (s *Searcher) WithClock(now func() time.Time) *Searcher {
	s.now = now
	return s
}

// WithLogger sets the logger.
func (s *Searcher) WithLogger(logger *slog.Logger) *Searcher {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// Sources returns the configured sources.
func (s *Searcher) Sources() []Source {
	return s.sources
}

// Search queries enabled sources concurrently. A failing source is recorded
// in FailedSources and never fails the whole search.
func (s *Searcher) Search(ctx context.Context, req SearchRequest) SearchResult {
	type outcome struct {
		source Source
		opps   []Opportunity
		err    error
	}

	var enabled []Source
	for _, src := range s.sources {
		if req.Flags.Enabled(src.Kind()) {
			enabled = append(enabled, src)
		}
	}

	outcomes := make([]outcome, len(enabled))
	var g errgroup.Group
	for i, src := range enabled {
		g.Go(func() error {
			q := s.queryFor(src.Kind(), req)
			opps, err := src.Search(ctx, q)
			outcomes[i] = outcome{source: src, opps: opps, err: err}
			return nil
		})
	}
	_ = g.Wait()

	result := SearchResult{SearchedSources: []string{}, FailedSources: []string{}}
	var merged []Opportunity
	for _, o := range outcomes {
		result.SearchedSources = append(result.SearchedSources, o.source.Name())
		if o.err != nil {
			s.logger.Warn("funding source failed", "source", o.source.Name(), "error", o.err)
			result.FailedSources = append(result.FailedSources, o.source.Name())
			continue
		}
		q := s.queryFor(o.source.Kind(), req)
		opts := RankOptions{Primary: q.Keywords, Expanded: q.Expanded}
		if o.source.Kind().International() {
			opts.Groups = KeywordGroups(req.Keywords, req.Translated)
			opts.MinScore = InclusionThreshold(req.Keywords)
		}
		ranked := Rank(o.opps, opts)
		s.logger.Debug("funding source searched", "source", o.source.Name(), "raw", len(o.opps), "kept", len(ranked))
		merged = append(merged, ranked...)
	}

	merged = FilterOpen(merged, s.now())
	result.TotalFound = len(merged)
	SortByRelevance(merged)
	if len(merged) > s.maxResults {
		merged = merged[:s.maxResults]
	}
	if merged == nil {
		merged = []Opportunity{}
	}
	result.Opportunities = merged
	return result
}

// queryFor builds the per-kind query. National sources use the keywords
// as given; international sources add translations and related terms.
func (s *Searcher) queryFor(kind Kind, req SearchRequest) Query {
	q := Query{From: req.From, To: req.To, Limit: s.maxResults}
	if !kind.International() {
		q.Keywords = req.Keywords
		return q
	}
	q.Keywords = dedupe(append(append([]string(nil), req.Keywords...), req.Translated...))
	q.Expanded = dedupe(req.Related)
	return q
}

func dedupe(terms []string) []string {
	seen := make(map[string]bool, len(terms))
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		k := fold(t)
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, t)
	}
	return out
}
