package funding

import (
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Relevance weights.
const (
	primaryTitleWeight       = 10.0
	primaryDescriptionWeight = 3.0
	expandedTitleWeight      = 4.0
	expandedDescWeight       = 1.0
	allKeywordsBonus         = 20.0

	// Inclusion thresholds for sources ranked locally.
	defaultInclusionThreshold = 3.0
	shortListThreshold        = 1.0
	shortListSize             = 3
)

// RankOptions control Rank.
type RankOptions struct {
	Primary  []string
	Expanded []string
	// Groups lists the keywords that must all match for the bonus. A
	// group matches when any of its terms does, so a keyword and its
	// translation share one group. Nil means one group per primary term.
	Groups   [][]string
	MinScore float64
	Limit    int
}

// Relevance scores o against primary and expanded keywords. A primary
// phrase in the title scores highest, description matches score lower,
// expanded terms score below primary ones, and matching every primary
// keyword earns a bonus.
func Relevance(o Opportunity, primary, expanded []string) float64 {
	return RankOptions{Primary: primary, Expanded: expanded}.relevance(o)
}

func (opts RankOptions) relevance(o Opportunity) float64 {
	title := fold(o.Title)
	desc := fold(o.Description)

	var score float64
	for _, kw := range opts.Primary {
		k := fold(kw)
		if k == "" {
			continue
		}
		if strings.Contains(title, k) {
			score += primaryTitleWeight
		}
		if strings.Contains(desc, k) {
			score += primaryDescriptionWeight
		}
	}

	groups := opts.Groups
	if groups == nil {
		groups = make([][]string, len(opts.Primary))
		for i, kw := range opts.Primary {
			groups[i] = []string{kw}
		}
	}
	if matchesAllGroups(title, desc, groups) {
		score += allKeywordsBonus
	}

	for _, kw := range opts.Expanded {
		k := fold(kw)
		if k == "" {
			continue
		}
		if strings.Contains(title, k) {
			score += expandedTitleWeight
		}
		if strings.Contains(desc, k) {
			score += expandedDescWeight
		}
	}
	return score
}

// matchesAllGroups reports whether every non-blank group has a term in the
// folded title or description. It is false when no group has a term.
func matchesAllGroups(title, desc string, groups [][]string) bool {
	tested := false
	for _, group := range groups {
		blank, matched := true, false
		for _, term := range group {
			k := fold(term)
			if k == "" {
				continue
			}
			blank = false
			if strings.Contains(title, k) || strings.Contains(desc, k) {
				matched = true
				break
			}
		}
		if blank {
			continue
		}
		tested = true
		if !matched {
			return false
		}
	}
	return tested
}

// KeywordGroups pairs each keyword with its translation for the
// all-keywords bonus. Translations align by position when the lists have
// equal length; otherwise each keyword stands alone.
func KeywordGroups(keywords, translated []string) [][]string {
	groups := make([][]string, len(keywords))
	aligned := len(translated) == len(keywords)
	for i, kw := range keywords {
		groups[i] = []string{kw}
		if aligned {
			groups[i] = append(groups[i], translated[i])
		}
	}
	return groups
}

// InclusionThreshold returns the minimum relevance for locally ranked
// sources. Short keyword lists get a more permissive threshold.
func InclusionThreshold(keywords []string) float64 {
	if len(keywords) <= shortListSize {
		return shortListThreshold
	}
	return defaultInclusionThreshold
}

// Rank scores, filters by MinScore, sorts by descending relevance (stable)
// and truncates to Limit when positive.
func Rank(opps []Opportunity, opts RankOptions) []Opportunity {
	ranked := make([]Opportunity, 0, len(opps))
	for _, o := range opps {
		o.Relevance = opts.relevance(o)
		if o.Relevance < opts.MinScore {
			continue
		}
		ranked = append(ranked, o)
	}
	SortByRelevance(ranked)
	if opts.Limit > 0 && len(ranked) > opts.Limit {
		ranked = ranked[:opts.Limit]
	}
	return ranked
}

// SortByRelevance orders opportunities by descending relevance, keeping
// source order for ties.
func SortByRelevance(opps []Opportunity) {
	sort.SliceStable(opps, func(i, j int) bool {
		return opps[i].Relevance > opps[j].Relevance
	})
}

// fold trims, lowercases and strips diacritics so "innovación" matches
// "innovacion".
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(strings.TrimSpace(out))
}
