package agent

import (
	"testing"

	"github.com/richinex/drwin/tools"
)

var catalog = []string{
	tools.SearchToolName,
	tools.ValidateToolName,
	tools.ConceptToolName,
}

func TestParseDirectivesStrategies(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		strategy Strategy
		tool     string
		param    string
	}{
		{
			name:     "tool fence",
			text:     "Searching now.\n```tool\n{\"tool\": \"search_funding_opportunities\", \"params\": {\"keywords\": [\"fintech\"]}}\n```",
			strategy: StrategyToolFence,
			tool:     tools.SearchToolName,
			param:    "keywords",
		},
		{
			name:     "json fence",
			text:     "```json\n{\"tool\": \"validate_eligibility\", \"params\": {\"callUrl\": \"https://x\"}}\n```",
			strategy: StrategyJSONFence,
			tool:     tools.ValidateToolName,
			param:    "callUrl",
		},
		{
			name:     "inline json",
			text:     `I will run {"tool": "search_funding_opportunities", "params": {"keywords": "ai"}} right away.`,
			strategy: StrategyInlineJSON,
			tool:     tools.SearchToolName,
			param:    "keywords",
		},
		{
			name:     "inline json after stray brace",
			text:     `I will search now (budget range {approx). {"tool": "search_funding_opportunities", "params": {"keywords": ["x"]}}`,
			strategy: StrategyInlineJSON,
			tool:     tools.SearchToolName,
			param:    "keywords",
		},
		{
			name:     "verb heuristic",
			text:     "Let me call `validate_eligibility` with these details: {\"callDescription\": \"Horizon call on water reuse\"}",
			strategy: StrategyVerbHeuristic,
			tool:     tools.ValidateToolName,
			param:    "callDescription",
		},
		{
			name:     "concept heuristic",
			text:     "Perfect, I'm generating the project concept now.",
			strategy: StrategyConceptHeuristic,
			tool:     tools.ConceptToolName,
		},
		{
			name:     "spanish concept heuristic",
			text:     "Genial, voy a generar el concepto del proyecto.",
			strategy: StrategyConceptHeuristic,
			tool:     tools.ConceptToolName,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds, strategy := ParseDirectives(tt.text, catalog)
			if strategy != tt.strategy {
				t.Fatalf("strategy = %s, want %s", strategy, tt.strategy)
			}
			if len(ds) != 1 || ds[0].Tool != tt.tool {
				t.Fatalf("directives = %+v", ds)
			}
			if tt.param != "" {
				if _, ok := ds[0].Params[tt.param]; !ok {
					t.Errorf("params = %v, missing %q", ds[0].Params, tt.param)
				}
			}
		})
	}
}

func TestParseDirectivesShortCircuits(t *testing.T) {
	text := "```tool\n{\"tool\": \"search_funding_opportunities\", \"params\": {}}\n```\n" +
		`Also {"tool": "validate_eligibility", "params": {}} and I am generating the concept.`
	ds, strategy := ParseDirectives(text, catalog)
	if strategy != StrategyToolFence {
		t.Fatalf("strategy = %s", strategy)
	}
	if len(ds) != 1 || ds[0].Tool != tools.SearchToolName {
		t.Errorf("later strategies leaked into result: %+v", ds)
	}
}

func TestParseDirectivesMultipleFences(t *testing.T) {
	text := "```tool\n{\"tool\": \"search_funding_opportunities\", \"params\": {\"keywords\": \"a\"}}\n```\n" +
		"```tool\n{\"tool\": \"validate_eligibility\", \"params\": {\"callUrl\": \"u\"}}\n```"
	ds, _ := ParseDirectives(text, catalog)
	if len(ds) != 2 || ds[0].Tool != tools.SearchToolName || ds[1].Tool != tools.ValidateToolName {
		t.Errorf("directives = %+v", ds)
	}
}

func TestParseDirectivesKeepsUnknownTools(t *testing.T) {
	ds, strategy := ParseDirectives("```tool\n{\"tool\": \"book_flight\", \"params\": {}}\n```", catalog)
	if strategy != StrategyToolFence || len(ds) != 1 || ds[0].Tool != "book_flight" {
		t.Errorf("got %+v via %s", ds, strategy)
	}
}

func TestParseDirectivesPlainAnswer(t *testing.T) {
	for _, text := range []string{
		"Horizon Europe is the EU's research programme.",
		`A config looks like {"name": "x"} in JSON.`,
		"```tool\n{not json}\n```",
		"",
	} {
		if ds, strategy := ParseDirectives(text, catalog); len(ds) != 0 || strategy != StrategyNone {
			t.Errorf("ParseDirectives(%q) = %+v, %s", text, ds, strategy)
		}
	}
}

func TestParseDirectivesAcceptsParameterVariants(t *testing.T) {
	ds, _ := ParseDirectives("```tool\n{\"tool\": \"x\", \"arguments\": {\"a\": 1}}\n```", nil)
	if len(ds) != 1 || ds[0].Params["a"] != float64(1) {
		t.Errorf("directives = %+v", ds)
	}
	ds, _ = ParseDirectives("```tool\n{\"tool\": \"x\"}\n```", nil)
	if len(ds) != 1 || ds[0].Params == nil {
		t.Errorf("missing params should decode as empty: %+v", ds)
	}
}

func TestInlineJSONRequiresParams(t *testing.T) {
	if ds := parseInlineJSON(`{"tool": "search_funding_opportunities"}`, catalog); len(ds) != 0 {
		t.Errorf("inline object without params accepted: %+v", ds)
	}
}

func TestVerbHeuristicWithoutObject(t *testing.T) {
	ds := parseVerbHeuristic("I'm going to use the search_funding_opportunities tool.", catalog)
	if len(ds) != 1 || len(ds[0].Params) != 0 {
		t.Errorf("directives = %+v", ds)
	}
	if ds := parseVerbHeuristic("search_funding_opportunities is available.", catalog); len(ds) != 0 {
		t.Errorf("name without a verb matched: %+v", ds)
	}
}

func TestConceptHeuristicNeedsCatalogEntry(t *testing.T) {
	if ds := parseConceptHeuristic("Generating the concept now.", []string{tools.SearchToolName}); len(ds) != 0 {
		t.Errorf("directives = %+v", ds)
	}
}

func TestHarvestParams(t *testing.T) {
	text := `I'll call validate_eligibility: {"tool": "validate_eligibility", "parameters": {"a": 1}, "callUrl": "u"}`
	ds := parseVerbHeuristic(text, catalog)
	if len(ds) != 1 {
		t.Fatalf("directives = %+v", ds)
	}
	if _, ok := ds[0].Params["tool"]; ok {
		t.Errorf("tool key leaked into params: %v", ds[0].Params)
	}
	if ds[0].Params["callUrl"] != "u" {
		t.Errorf("params = %v", ds[0].Params)
	}

	text = `Calling validate_eligibility {"params": {"callUrl": "v"}} and ignoring {"x": 1} later on.`
	ds = parseVerbHeuristic(text, catalog)
	if len(ds) != 1 || ds[0].Params["callUrl"] != "v" {
		t.Errorf("params member not unwrapped: %+v", ds)
	}
}
