package tools

import (
	"context"
	"testing"

	"github.com/richinex/drwin/funding"
	"github.com/richinex/drwin/llm"
)

func TestNormalizeSearchParamsFlags(t *testing.T) {
	bothSubsidies := funding.Flags{NationalSubsidies: true, InternationalSubsidies: true}
	tests := []struct {
		name   string
		params Params
		want   funding.Flags
	}{
		{"default", Params{"keywords": "x"}, bothSubsidies},
		{
			"explicit international only",
			Params{"fundingTypes": map[string]any{"internationalSubsidies": true}},
			funding.Flags{InternationalSubsidies: true},
		},
		{
			"explicit false suppresses national",
			Params{"fundingTypes": map[string]any{"nationalSubsidies": false, "internationalSubsidies": true, "internationalTenders": "yes"}},
			funding.Flags{InternationalSubsidies: true, InternationalTenders: true},
		},
		{
			"top-level snake case flags",
			Params{"national_tenders": true},
			funding.Flags{NationalTenders: true},
		},
		{
			"list of flag names",
			Params{"fundingTypes": []any{"nationalSubsidies", "nationalTenders"}},
			funding.Flags{NationalSubsidies: true, NationalTenders: true},
		},
		{"all false falls back to default", Params{"fundingTypes": map[string]any{"nationalSubsidies": false}}, bothSubsidies},
		{"international shorthand", Params{"international": true}, funding.Flags{InternationalSubsidies: true}},
		{"scope international only", Params{"scope": "international only"}, funding.Flags{InternationalSubsidies: true}},
		{"scope national tenders", Params{"scope": "national tenders"}, funding.Flags{NationalSubsidies: true, NationalTenders: true}},
		{"scope Spanish", Params{"scope": "solo convocatorias europeas"}, funding.Flags{InternationalSubsidies: true}},
		{"unrecognized scope", Params{"scope": "anything goes"}, bothSubsidies},
		{"scope europa", Params{"scope": "Europa"}, funding.Flags{InternationalSubsidies: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := normalizeSearchParams(tt.params).Flags; got != tt.want {
				t.Errorf("Flags = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestNormalizeSearchParamsKeywordsAndDates(t *testing.T) {
	sp := normalizeSearchParams(Params{
		"query":     "Blockchain, fintech, blockchain",
		"dateRange": map[string]any{"from": "2026-01-01"},
		"endDate":   "31/12/2026",
	})
	if len(sp.Keywords) != 2 || sp.Keywords[0] != "Blockchain" || sp.Keywords[1] != "fintech" {
		t.Errorf("Keywords = %v", sp.Keywords)
	}
	if sp.From.Format("2006-01-02") != "2026-01-01" || sp.To.Format("2006-01-02") != "2026-12-31" {
		t.Errorf("dates = %v .. %v", sp.From, sp.To)
	}
}

func TestSearchToolRequiresKeywords(t *testing.T) {
	gw := replyWith("{}")
	tool := NewSearchTool(Deps{Gateway: gw, Searcher: &fakeSearcher{}})
	res, err := tool.Execute(context.Background(), Params{})
	if err != nil {
		t.Fatal(err)
	}
	if res.Success() {
		t.Fatal("expected failure without keywords")
	}
	if len(gw.requests()) != 0 {
		t.Error("gateway should not be called")
	}
}

func TestSearchToolExpandsInternationalKeywords(t *testing.T) {
	gw := replyWith("```json\n{\"translated\": [\"blockchain\", \"digital payments\"], \"related\": [\"fintech\", \"distributed ledger\", \"\"]}\n```")
	searcher := &fakeSearcher{result: funding.SearchResult{
		Opportunities:   []funding.Opportunity{{Source: "TED", Title: "DLT payments", URL: "https://ted.europa.eu/x"}},
		TotalFound:      1,
		SearchedSources: []string{"EU Funding & Tenders"},
		FailedSources:   []string{},
	}}
	tool := NewSearchTool(Deps{Gateway: gw, Searcher: searcher})

	res, err := tool.Execute(context.Background(), Params{
		"keywords":     []any{"blockchain", "pagos digitales"},
		"fundingTypes": map[string]any{"internationalSubsidies": true, "nationalSubsidies": false},
	})
	if err != nil || !res.Success() {
		t.Fatalf("Execute() = %+v, %v", res, err)
	}

	calls := gw.requests()
	if len(calls) != 1 || calls[0].Format == nil || calls[0].Format.Type != llm.ResponseFormatJSONSchema {
		t.Fatalf("expected one schema-constrained expansion call, got %+v", calls)
	}
	if searcher.got.Flags != (funding.Flags{InternationalSubsidies: true}) {
		t.Errorf("searcher flags = %+v", searcher.got.Flags)
	}
	if len(searcher.got.Translated) != 2 || len(searcher.got.Related) != 2 {
		t.Errorf("expansion not forwarded: %+v", searcher.got)
	}

	payload := res.Payload.(SearchPayload)
	if len(payload.Opportunities) != 1 || payload.Opportunities[0].URL == "" {
		t.Errorf("payload = %+v", payload)
	}
}

func TestSearchToolSkipsExpansionForNationalOnly(t *testing.T) {
	gw := replyWith("{}")
	searcher := &fakeSearcher{}
	tool := NewSearchTool(Deps{Gateway: gw, Searcher: searcher})
	if _, err := tool.Execute(context.Background(), Params{"keywords": "energía", "scope": "nacional"}); err != nil {
		t.Fatal(err)
	}
	if len(gw.requests()) != 0 {
		t.Error("national-only search should not expand keywords")
	}
	if searcher.got.Flags.International() {
		t.Errorf("flags = %+v", searcher.got.Flags)
	}
}

func TestSearchToolExpansionFailureFallsBack(t *testing.T) {
	gw := replyWith("not json at all")
	searcher := &fakeSearcher{}
	tool := NewSearchTool(Deps{Gateway: gw, Searcher: searcher})
	res, err := tool.Execute(context.Background(), Params{"keywords": "hydrogen", "international": true})
	if err != nil || !res.Success() {
		t.Fatalf("Execute() = %+v, %v", res, err)
	}
	if len(searcher.got.Translated) != 1 || searcher.got.Translated[0] != "hydrogen" {
		t.Errorf("Translated = %v, want original keywords", searcher.got.Translated)
	}
}

func TestCompareToolRanksByScore(t *testing.T) {
	gw := replyWith(`{"ranking":[{"title":"A","score":55,"fit":"ok"},{"title":"B","score":8.5e1,"fit":"great"},{"title":"C","score":140,"fit":"?"}],"recommendation":"Apply to B"}`)
	tool := NewCompareTool(Deps{Gateway: gw})
	res, err := tool.Execute(context.Background(), Params{"calls": []any{"Call A", "Call B", "Call C"}})
	if err != nil || !res.Success() {
		t.Fatalf("Execute() = %+v, %v", res, err)
	}
	out := res.Payload.(ComparePayload)
	if out.Ranking[0].Title != "C" || out.Ranking[0].Score != 100 || out.Ranking[1].Title != "B" {
		t.Errorf("Ranking = %+v", out.Ranking)
	}

	res, _ = tool.Execute(context.Background(), Params{})
	if res.Success() {
		t.Error("expected failure without opportunities")
	}
}
