// Tool directive parsing.
//
// Replies are parsed by an ordered ladder of strategies, strictest first.
// A strategy runs only when every earlier one found nothing.
//
// Information Hiding:
// - Fence and inline JSON decoding hidden
// - Verb and concept heuristics hidden

package agent

import (
	"encoding/json"
	"regexp"
	"sort"
	"strings"

	jsonutil "github.com/richinex/drwin/internal/json"
	"github.com/richinex/drwin/tools"
)

// ParseFunc extracts directives from a reply. toolNames lists the
// registered tools for strategies that need them.
type ParseFunc func(text string, toolNames []string) []Directive

type rung struct {
	strategy Strategy
	parse    ParseFunc
}

// ladder is the precision-over-recall order.
var ladder = []rung{
	{StrategyToolFence, parseToolFence},
	{StrategyJSONFence, parseJSONFence},
	{StrategyInlineJSON, parseInlineJSON},
	{StrategyVerbHeuristic, parseVerbHeuristic},
	{StrategyConceptHeuristic, parseConceptHeuristic},
}

// ParseDirectives returns the directives found by the first strategy that
// yields any, together with that strategy. StrategyNone means the reply is a
// plain answer.
func ParseDirectives(text string, toolNames []string) ([]Directive, Strategy) {
	for _, r := range ladder {
		if ds := r.parse(text, toolNames); len(ds) > 0 {
			return ds, r.strategy
		}
	}
	return nil, StrategyNone
}

func parseToolFence(text string, _ []string) []Directive {
	var out []Directive
	for _, body := range jsonutil.FencedBlocks(text, "tool") {
		out = append(out, decodeDirectives(body, false)...)
	}
	return out
}

func parseJSONFence(text string, _ []string) []Directive {
	var out []Directive
	for _, f := range jsonutil.Fences(text) {
		if f.Tag == "json" || f.Tag == "" {
			out = append(out, decodeDirectives(f.Body, false)...)
		}
	}
	return out
}

// parseInlineJSON requires both keys, since unfenced prose braces are
// common.
func parseInlineJSON(text string, _ []string) []Directive {
	return decodeDirectives(text, true)
}

// rawDirective accepts the canonical keys and the variants models drift to.
type rawDirective struct {
	Tool       string         `json:"tool"`
	Name       string         `json:"name"`
	Params     map[string]any `json:"params"`
	Parameters map[string]any `json:"parameters"`
	Arguments  map[string]any `json:"arguments"`
}

func decodeDirectives(text string, requireParams bool) []Directive {
	var out []Directive
	for _, span := range jsonutil.Objects(text) {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal([]byte(span.Text), &fields); err != nil {
			continue
		}
		if _, ok := fields["tool"]; !ok {
			continue
		}
		if _, ok := fields["params"]; requireParams && !ok {
			continue
		}
		var raw rawDirective
		if err := json.Unmarshal([]byte(span.Text), &raw); err != nil {
			continue
		}
		if d, ok := raw.directive(); ok {
			out = append(out, d)
		}
	}
	return out
}

func (r rawDirective) directive() (Directive, bool) {
	name := strings.TrimSpace(r.Tool)
	if name == "" {
		name = strings.TrimSpace(r.Name)
	}
	if name == "" {
		return Directive{}, false
	}
	params := r.Params
	if params == nil {
		params = r.Parameters
	}
	if params == nil {
		params = r.Arguments
	}
	if params == nil {
		params = map[string]any{}
	}
	return Directive{Tool: name, Params: tools.Params(params)}, true
}

const actionVerbs = `call|calling|calls|use|using|invoke|invoking|run|running|execute|executing|trigger|triggering|` +
	`llamar|llamando|llamo|usar|usando|uso|utilizar|utilizando|invocar|invocando|ejecutar|ejecutando|ejecuto`

// verbRe builds the pattern for an action verb followed, within a few
// filler words, by the tool name.
func verbRe(name string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)\b(?:` + actionVerbs + `)\b(?:\s+(?:the|a|an|el|la|los|tool|herramienta|de|function|función)){0,3}\s+` +
		"[`'\"*]*" + regexp.QuoteMeta(name) + `\b`)
}

// parseVerbHeuristic looks for "<verb> <tool name>" and harvests the
// nearest inline object as parameters.
func parseVerbHeuristic(text string, toolNames []string) []Directive {
	type hit struct {
		pos  int
		name string
	}
	var hits []hit
	for _, name := range toolNames {
		if loc := verbRe(name).FindStringIndex(text); loc != nil {
			hits = append(hits, hit{pos: loc[1], name: name})
		}
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].pos < hits[j].pos })

	spans := jsonutil.Objects(text)
	out := make([]Directive, 0, len(hits))
	for _, h := range hits {
		out = append(out, Directive{Tool: h.name, Params: harvestParams(spans, h.pos)})
	}
	return out
}

var conceptRe = regexp.MustCompile(`(?i)\b(?:gener\w*|creat\w*|crea\w*|start\w*|begin\w*|initiat\w*|inici\w*|elabor\w*|comenz\w*|empez\w*|prepar\w*|design\w*|diseñ\w*)\b[^.\n]{0,40}?\bconcep\w*`)

// parseConceptHeuristic catches replies that announce concept generation
// without emitting a directive.
func parseConceptHeuristic(text string, toolNames []string) []Directive {
	if !containsName(toolNames, tools.ConceptToolName) {
		return nil
	}
	loc := conceptRe.FindStringIndex(text)
	if loc == nil {
		return nil
	}
	return []Directive{{Tool: tools.ConceptToolName, Params: harvestParams(jsonutil.Objects(text), loc[1])}}
}

// harvestParams returns the params of the object closest to pos, preferring
// objects that follow it. An object wrapping a "params" member yields that
// member.
func harvestParams(spans []jsonutil.Span, pos int) tools.Params {
	best, bestDist := -1, 0
	for i, s := range spans {
		dist := s.Start - pos
		if dist < 0 {
			// Objects before the mention count double.
			dist = 2 * (pos - s.End)
		}
		if best < 0 || dist < bestDist {
			best, bestDist = i, dist
		}
	}
	if best < 0 {
		return tools.Params{}
	}
	var obj map[string]any
	if err := json.Unmarshal([]byte(spans[best].Text), &obj); err != nil {
		return tools.Params{}
	}
	if inner, ok := obj["params"].(map[string]any); ok {
		return tools.Params(inner)
	}
	delete(obj, "tool")
	return tools.Params(obj)
}

func containsName(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}
