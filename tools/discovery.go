// Discovery tools: funding search and comparison.
//
// Information Hiding:
// - Keyword, date and funding-type alias resolution hidden
// - International keyword expansion hidden
// - Source fan-out delegated to the funding searcher

package tools

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/richinex/drwin/funding"
	"github.com/richinex/drwin/llm"
)

const (
	SearchToolName  = "search_funding_opportunities"
	CompareToolName = "compare_funding_opportunities"

	maxRelatedKeywords = 10
)

// SearchTool finds open funding opportunities across public databases.
type SearchTool struct {
	deps Deps
}

// NewSearchTool creates the discovery search tool.
func NewSearchTool(deps Deps) *SearchTool {
	return &SearchTool{deps: deps.withDefaults()}
}

// Metadata returns the tool metadata.
func (t *SearchTool) Metadata() ToolMetadata {
	return ToolMetadata{
		Name: SearchToolName,
		Description: "Search public funding databases (national and international subsidies and tenders) for OPEN opportunities matching the project. " +
			"Infer 3-6 specific keywords from the conversation. Set fundingTypes explicitly: if the user asks for international only, set only the international flags to true and the national flags to false; " +
			"if the user asks for national only, do the opposite. When the user expresses no preference, leave fundingTypes out. Results include a source link for every opportunity.",
		Parameters: []ToolParameter{
			{Name: "keywords", ParamType: "array", Description: "Keywords describing the project (list or comma-separated string)", Required: true},
			{Name: "dateFrom", ParamType: "string", Description: "Earliest publication date, YYYY-MM-DD", Required: false},
			{Name: "dateTo", ParamType: "string", Description: "Latest publication date, YYYY-MM-DD", Required: false},
			{Name: "fundingTypes", ParamType: "object", Description: "{nationalSubsidies, nationalTenders, internationalSubsidies, internationalTenders} booleans", Required: false},
		},
		Group:      GroupDiscovery,
		Specialist: ScoutSpecialist,
	}
}

// SearchPayload is the search tool's result.
type SearchPayload struct {
	Keywords           []string              `json:"keywords"`
	TranslatedKeywords []string              `json:"translatedKeywords,omitempty"`
	RelatedKeywords    []string              `json:"relatedKeywords,omitempty"`
	FundingTypes       funding.Flags         `json:"fundingTypes"`
	Opportunities      []funding.Opportunity `json:"opportunities"`
	TotalFound         int                   `json:"totalFound"`
	SearchedSources    []string              `json:"searchedSources"`
	FailedSources      []string              `json:"failedSources"`
}

// searchParams is the normalized search input.
type searchParams struct {
	Keywords []string
	From     time.Time
	To       time.Time
	Flags    funding.Flags
}

var (
	keywordAliases  = []string{"keywords", "keyword", "query", "terms", "searchTerms", "topics", "palabrasClave"}
	dateFromAliases = []string{"dateFrom", "startDate", "fromDate", "from", "since"}
	dateToAliases   = []string{"dateTo", "endDate", "toDate", "to", "until"}
	flagSetAliases  = []string{"fundingTypes", "fundingType", "types", "filters", "sources"}

	nationalSubsidyAliases      = []string{"nationalSubsidies", "nationalSubsidy", "nationalGrants", "subsidiesNational"}
	nationalTenderAliases       = []string{"nationalTenders", "nationalTender", "nationalProcurement", "tendersNational"}
	internationalSubsidyAliases = []string{"internationalSubsidies", "internationalSubsidy", "internationalGrants", "euSubsidies", "europeanSubsidies", "subsidiesInternational"}
	internationalTenderAliases  = []string{"internationalTenders", "internationalTender", "euTenders", "internationalProcurement", "tendersInternational"}

	internationalWords = map[string]bool{"international": true, "internacional": true, "eu": true, "ue": true, "europe": true, "european": true, "europa": true, "europeo": true, "europea": true, "europeos": true, "europeas": true, "horizon": true}
	nationalWords      = map[string]bool{"national": true, "nacional": true, "spain": true, "spanish": true, "españa": true, "estatal": true, "domestic": true}
	tenderWords        = map[string]bool{"tender": true, "tenders": true, "procurement": true, "licitacion": true, "licitación": true, "licitaciones": true, "contract": true, "contracts": true}
)

// normalizeSearchParams resolves aliases and funding-type intent.
//
// Funding types: when any flag is set explicitly only the flags set to true
// apply, so "international only" never falls back to both. Without flags, a
// scope hint ("international", "national only") selects subsidies of that
// scope. The default is national and international subsidies.
func normalizeSearchParams(p Params) searchParams {
	sp := searchParams{Keywords: dedupeFold(p.StringList(keywordAliases...))}

	sp.From = parseParamDate(p.String(dateFromAliases...))
	sp.To = parseParamDate(p.String(dateToAliases...))
	if r := p.Object("dateRange", "dates", "period"); r != nil {
		if sp.From.IsZero() {
			sp.From = parseParamDate(r.String(dateFromAliases...))
		}
		if sp.To.IsZero() {
			sp.To = parseParamDate(r.String(dateToAliases...))
		}
	}

	sp.Flags = resolveFlags(p)
	return sp
}

func resolveFlags(p Params) funding.Flags {
	if flags, ok := explicitFlags(p); ok {
		return flags
	}

	intl, intlSet := p.Bool("international", "internationalOnly", "onlyInternational")
	nat, natSet := p.Bool("national", "nationalOnly", "onlyNational")
	if intlSet || natSet {
		f := funding.Flags{NationalSubsidies: nat, InternationalSubsidies: intl}
		if f.Any() {
			return f
		}
	}

	if scope := p.String("scope", "region", "coverage", "fundingScope", "geography"); scope != "" {
		if f, ok := flagsFromScope(scope); ok {
			return f
		}
	}
	return funding.Flags{NationalSubsidies: true, InternationalSubsidies: true}
}

// explicitFlags reads the four flags from a nested object, a list of flag
// names, or top-level keys.
func explicitFlags(p Params) (funding.Flags, bool) {
	if v, ok := p.Lookup(flagSetAliases...); ok {
		if names, isList := v.([]any); isList {
			var f funding.Flags
			for _, n := range names {
				s, _ := n.(string)
				one := Params{s: true}
				f.NationalSubsidies = f.NationalSubsidies || flagValue(one, nationalSubsidyAliases)
				f.NationalTenders = f.NationalTenders || flagValue(one, nationalTenderAliases)
				f.InternationalSubsidies = f.InternationalSubsidies || flagValue(one, internationalSubsidyAliases)
				f.InternationalTenders = f.InternationalTenders || flagValue(one, internationalTenderAliases)
			}
			return f, f.Any()
		}
	}

	for _, src := range []Params{p.Object(flagSetAliases...), p} {
		if src == nil {
			continue
		}
		var f funding.Flags
		explicit := false
		set := func(dst *bool, aliases []string) {
			if v, ok := src.Bool(aliases...); ok {
				*dst = v
				explicit = true
			}
		}
		set(&f.NationalSubsidies, nationalSubsidyAliases)
		set(&f.NationalTenders, nationalTenderAliases)
		set(&f.InternationalSubsidies, internationalSubsidyAliases)
		set(&f.InternationalTenders, internationalTenderAliases)
		if explicit && f.Any() {
			return f, true
		}
	}
	return funding.Flags{}, false
}

func flagValue(p Params, aliases []string) bool {
	v, _ := p.Bool(aliases...)
	return v
}

func flagsFromScope(scope string) (funding.Flags, bool) {
	words := strings.FieldsFunc(strings.ToLower(scope), func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	var intl, nat, tenders bool
	for _, w := range words {
		intl = intl || internationalWords[w]
		nat = nat || nationalWords[w]
		tenders = tenders || tenderWords[w]
	}
	switch {
	case intl && !nat:
		return funding.Flags{InternationalSubsidies: true, InternationalTenders: tenders}, true
	case nat && !intl:
		return funding.Flags{NationalSubsidies: true, NationalTenders: tenders}, true
	case tenders:
		return funding.Flags{NationalSubsidies: true, InternationalSubsidies: true, NationalTenders: true, InternationalTenders: true}, true
	}
	return funding.Flags{}, false
}

func parseParamDate(s string) time.Time {
	t, _ := funding.ParseDate(s)
	return t
}

func dedupeFold(terms []string) []string {
	seen := make(map[string]bool, len(terms))
	var out []string
	for _, t := range terms {
		k := strings.ToLower(t)
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, t)
	}
	return out
}

// Execute runs the search.
func (t *SearchTool) Execute(ctx context.Context, params Params) (ToolResult, error) {
	sp := normalizeSearchParams(params)
	if len(sp.Keywords) == 0 {
		return FailureResultf("keywords are required: provide a list of keywords or a comma-separated string describing the project"), nil
	}
	if t.deps.Searcher == nil {
		return ToolResult{}, fmt.Errorf("no funding searcher configured")
	}

	req := funding.SearchRequest{
		Keywords: sp.Keywords,
		Flags:    sp.Flags,
		From:     sp.From,
		To:       sp.To,
	}
	if sp.Flags.International() {
		exp := t.expand(ctx, sp.Keywords)
		req.Translated = exp.Translated
		req.Related = exp.Related
	}

	res := t.deps.Searcher.Search(ctx, req)
	t.deps.Logger.Info("funding search completed",
		"keywords", sp.Keywords,
		"found", res.TotalFound,
		"returned", len(res.Opportunities),
		"failed_sources", res.FailedSources)

	return SuccessResult(SearchPayload{
		Keywords:           sp.Keywords,
		TranslatedKeywords: req.Translated,
		RelatedKeywords:    req.Related,
		FundingTypes:       sp.Flags,
		Opportunities:      res.Opportunities,
		TotalFound:         res.TotalFound,
		SearchedSources:    res.SearchedSources,
		FailedSources:      res.FailedSources,
	}), nil
}

type keywordExpansion struct {
	Translated []string `json:"translated"`
	Related    []string `json:"related"`
}

// expand translates keywords to English and adds related terms. Failures
// fall back to the original keywords.
func (t *SearchTool) expand(ctx context.Context, keywords []string) keywordExpansion {
	if t.deps.Gateway == nil {
		return keywordExpansion{Translated: keywords}
	}
	prompt := "Keywords: " + strings.Join(keywords, ", ") + "\n\n" +
		"1. Translate each keyword to English (keep it unchanged if it already is English).\n" +
		fmt.Sprintf("2. List up to %d related English terms used in EU funding calls: synonyms, broader and narrower concepts.\n", maxRelatedKeywords) +
		"Return JSON with fields translated and related."
	exp, err := generateJSON[keywordExpansion](ctx, t.deps.Gateway, llm.Request{
		System: "You are a multilingual research-funding terminology expert.",
		Parts:  []llm.Part{llm.TextPart(prompt)},
		Format: llm.NewJSONSchemaFormat("keyword_expansion", keywordExpansionSchema),
		Label:  "tool:" + SearchToolName + ":expand",
	})
	if err != nil {
		t.deps.Logger.Warn("keyword expansion failed, using original keywords", "error", err)
		return keywordExpansion{Translated: keywords}
	}
	exp.Translated = dedupeFold(trimAll(exp.Translated))
	if len(exp.Translated) == 0 {
		exp.Translated = keywords
	}
	exp.Related = dedupeFold(trimAll(exp.Related))
	if len(exp.Related) > maxRelatedKeywords {
		exp.Related = exp.Related[:maxRelatedKeywords]
	}
	return exp
}

func trimAll(items []string) []string {
	out := items[:0:0]
	for _, s := range items {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// CompareTool ranks several opportunities against a project.
type CompareTool struct {
	deps Deps
}

// NewCompareTool creates the comparison tool.
func NewCompareTool(deps Deps) *CompareTool {
	return &CompareTool{deps: deps.withDefaults()}
}

// Metadata returns the tool metadata.
func (t *CompareTool) Metadata() ToolMetadata {
	return ToolMetadata{
		Name:        CompareToolName,
		Description: "Compare and rank two or more funding opportunities (for example from a previous search) against the user's project, explaining fit and risks of each.",
		Parameters: []ToolParameter{
			{Name: "opportunities", ParamType: "array", Description: "Opportunities to compare: objects with title/description/deadline/budget, or plain descriptions", Required: true},
			{Name: "project", ParamType: "string", Description: "Project description", Required: false},
			{Name: "applicantProfile", ParamType: "string", Description: "Applicant organization profile", Required: false},
		},
		Group:      GroupDiscovery,
		Specialist: ScoutSpecialist,
	}
}

// ComparedOpportunity is one ranked entry.
type ComparedOpportunity struct {
	Title string  `json:"title"`
	Score float64 `json:"score"`
	Fit   string  `json:"fit"`
	Risks string  `json:"risks,omitempty"`
}

// ComparePayload is the comparison tool's result.
type ComparePayload struct {
	Ranking        []ComparedOpportunity `json:"ranking"`
	Recommendation string                `json:"recommendation"`
}

// Execute runs the comparison.
func (t *CompareTool) Execute(ctx context.Context, params Params) (ToolResult, error) {
	opps := params.Objects("opportunities", "calls", "options", "results", "fundingCalls", "candidates")
	if len(opps) == 0 {
		return FailureResultf("at least one opportunity is required: pass a list of opportunities (objects or descriptions) to compare"), nil
	}

	var b strings.Builder
	for i, o := range opps {
		fmt.Fprintf(&b, "### Opportunity %d\n%s\n\n", i+1, FlattenObject(o))
	}
	prompt := section("Opportunities", b.String(), "") +
		section("Project", params.String("project", "projectDescription", "idea", "projectIdea"),
			"(generic default) No project description supplied; compare on budget, deadline, competitiveness and breadth of eligibility.") +
		section("Applicant profile", params.String("applicantProfile", "profile", "company", "organization"),
			"(generic default) No applicant profile supplied; assume an SME.") +
		"\nScore each opportunity 0-100 for fit and rank them. " + t.deps.languageInstruction()

	out, err := generateJSON[ComparePayload](ctx, t.deps.Gateway, llm.Request{
		System: "You are a funding strategist comparing grant opportunities.",
		Parts:  []llm.Part{llm.TextPart(prompt)},
		Format: llm.NewJSONSchemaFormat("opportunity_comparison", comparisonSchema),
		Label:  "tool:" + CompareToolName,
	})
	if err != nil {
		return ToolResult{}, err
	}
	for i := range out.Ranking {
		out.Ranking[i].Score = clampScore(out.Ranking[i].Score)
	}
	sort.SliceStable(out.Ranking, func(i, j int) bool {
		return out.Ranking[i].Score > out.Ranking[j].Score
	})
	return SuccessResult(out), nil
}

func clampScore(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 100:
		return 100
	}
	return v
}
