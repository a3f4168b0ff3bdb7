package agent

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/richinex/drwin/funding"
	"github.com/richinex/drwin/llm"
	"github.com/richinex/drwin/model"
	"github.com/richinex/drwin/tools"
)

func TestProcessTurnPlainAnswer(t *testing.T) {
	gw := newScriptedGateway().on("agent:selection", "Horizon Europe runs until 2027.")
	a := buildAgent(t, gw, okTool("generate_project_concept", map[string]any{}))

	var events int
	resp := a.ProcessTurn(context.Background(), "How long does Horizon Europe run?", nil, nil, func(ProgressEvent) { events++ })

	if !resp.IsSuccess() || resp.Text != "Horizon Europe runs until 2027." {
		t.Fatalf("resp = %+v", resp)
	}
	if gw.count() != 1 || events != 0 || len(resp.ToolInvocations) != 0 {
		t.Errorf("calls = %d, events = %d, invocations = %v", gw.count(), events, resp.ToolInvocations)
	}
	if resp.Metadata.Strategy != StrategyNone || resp.Metadata.LLMCalls != 1 {
		t.Errorf("metadata = %+v", resp.Metadata)
	}
}

func TestProcessTurnSystemInstruction(t *testing.T) {
	gw := newScriptedGateway().on("agent:selection", "ok")
	a := buildAgent(t, gw, okTool("generate_project_concept", map[string]any{}))
	a.ProcessTurn(context.Background(), "hi", nil, nil, nil)

	req, _ := gw.request("agent:selection")
	for _, want := range []string{DefaultPersona, "Tool: generate_project_concept", "```tool", `"params"`, "ready"} {
		if !strings.Contains(req.System, want) {
			t.Errorf("system instruction missing %q", want)
		}
	}
}

func TestProcessTurnToolsAndSynthesis(t *testing.T) {
	gw := newScriptedGateway().
		on("agent:selection", "Drafting now.\n```tool\n{\"tool\": \"draft\", \"params\": {\"section\": \"Impact\"}}\n```").
		on("agent:synthesis", "Here is your Impact section.")
	var mu sync.Mutex
	var events []ProgressEvent
	a := buildAgent(t, gw, okTool("draft", map[string]any{"content": "Impact text"}))

	resp := a.ProcessTurn(context.Background(), "Draft impact", nil, nil, func(e ProgressEvent) {
		mu.Lock()
		events = append(events, e)
		mu.Unlock()
	})

	if !resp.IsSuccess() || resp.Text != "Here is your Impact section." {
		t.Fatalf("resp = %+v", resp)
	}
	if len(events) != 1 || events[0].Tool != "draft" || events[0].Specialist != tools.ArchitectSpecialist || events[0].Total != 1 {
		t.Errorf("events = %+v", events)
	}
	if len(resp.ToolInvocations) != 1 || resp.ToolInvocations[0].Name != "draft" || resp.ToolInvocations[0].Arguments["section"] != "Impact" {
		t.Errorf("invocations = %+v", resp.ToolInvocations)
	}
	if resp.Metadata.Strategy != StrategyToolFence || resp.Metadata.LLMCalls != 2 {
		t.Errorf("metadata = %+v", resp.Metadata)
	}

	synth, ok := gw.request("agent:synthesis")
	if !ok {
		t.Fatal("no synthesis call")
	}
	prompt := promptText(synth)
	for _, want := range []string{"Drafting now.", "Architect (Creation)", `"content": "Impact text"`} {
		if !strings.Contains(prompt, want) {
			t.Errorf("synthesis prompt missing %q:\n%s", want, prompt)
		}
	}
	if !strings.Contains(synth.System, "scores section first") {
		t.Error("synthesis instruction missing validation ordering rule")
	}
}

func TestProcessTurnIsolatesToolFailures(t *testing.T) {
	gw := newScriptedGateway().
		on("agent:selection", "```tool\n{\"tool\": \"boom\", \"params\": {}}\n```\n```tool\n{\"tool\": \"fine\", \"params\": {}}\n```\n```tool\n{\"tool\": \"nope\", \"params\": {}}\n```").
		on("agent:synthesis", "done")
	boom := stubTool{name: "boom", run: func(context.Context, tools.Params) (tools.ToolResult, error) {
		panic("kaboom")
	}}
	a := buildAgent(t, gw, boom, okTool("fine", map[string]any{"ok": true}))

	resp := a.ProcessTurn(context.Background(), "go", nil, nil, nil)
	if !resp.IsSuccess() {
		t.Fatalf("resp = %+v", resp)
	}
	if len(resp.Results) != 3 {
		t.Fatalf("results = %d", len(resp.Results))
	}
	if resp.Results[0].Success() || !resp.Results[1].Success() || resp.Results[2].Success() {
		t.Errorf("successes = %v %v %v", resp.Results[0].Success(), resp.Results[1].Success(), resp.Results[2].Success())
	}
	synth, _ := gw.request("agent:synthesis")
	prompt := promptText(synth)
	if !strings.Contains(prompt, "unknown tool") || !strings.Contains(prompt, "boom, fine") {
		t.Errorf("unknown tool failure should list valid tools:\n%s", prompt)
	}
}

func TestProcessTurnRunsToolsConcurrently(t *testing.T) {
	var running, peak int32
	slow := func(name string) stubTool {
		return stubTool{name: name, run: func(ctx context.Context, _ tools.Params) (tools.ToolResult, error) {
			n := atomic.AddInt32(&running, 1)
			for {
				p := atomic.LoadInt32(&peak)
				if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
					break
				}
			}
			time.Sleep(30 * time.Millisecond)
			atomic.AddInt32(&running, -1)
			return tools.SuccessResult(nil), nil
		}}
	}
	var reply strings.Builder
	for _, n := range []string{"a", "b", "c"} {
		reply.WriteString("```tool\n{\"tool\": \"" + n + "\", \"params\": {}}\n```\n")
	}
	gw := newScriptedGateway().on("agent:selection", reply.String()).on("agent:synthesis", "done")
	a, err := NewBuilder(gw).Tools([]tools.Tool{slow("a"), slow("b"), slow("c")}).
		Config(Config{MaxParallelTools: 2}).Build()
	if err != nil {
		t.Fatal(err)
	}

	resp := a.ProcessTurn(context.Background(), "go", nil, nil, nil)
	if !resp.IsSuccess() || len(resp.Results) != 3 {
		t.Fatalf("resp = %+v", resp)
	}
	if p := atomic.LoadInt32(&peak); p != 2 {
		t.Errorf("peak concurrency = %d, want 2", p)
	}
}

func TestProcessTurnGatewayFailures(t *testing.T) {
	t.Run("selection", func(t *testing.T) {
		gw := newScriptedGateway().onFunc("agent:selection", func(llm.Request) (string, error) {
			return "", errors.New("googleapi: Error 429: RESOURCE_EXHAUSTED quota")
		})
		a := buildAgent(t, gw)
		resp := a.ProcessTurn(context.Background(), "hi", nil, nil, nil)
		if resp.IsSuccess() {
			t.Fatal("expected failure")
		}
		if strings.Contains(resp.Text, "429") || !strings.Contains(resp.Text, "too many requests") {
			t.Errorf("Text = %q", resp.Text)
		}
		if !strings.Contains(resp.Error, "429") || resp.Metadata.FailedState != StateAwaitingToolSelection {
			t.Errorf("Error = %q, state = %s", resp.Error, resp.Metadata.FailedState)
		}
	})

	t.Run("synthesis", func(t *testing.T) {
		gw := newScriptedGateway().
			on("agent:selection", "```tool\n{\"tool\": \"fine\", \"params\": {}}\n```").
			onFunc("agent:synthesis", func(llm.Request) (string, error) { return "", context.DeadlineExceeded })
		a := buildAgent(t, gw, okTool("fine", nil))
		a.config.Language = "es"
		resp := a.ProcessTurn(context.Background(), "hola", nil, nil, nil)
		if resp.IsSuccess() || resp.Metadata.FailedState != StateAwaitingSynthesis {
			t.Fatalf("resp = %+v", resp)
		}
		if !strings.HasPrefix(resp.Text, "Lo siento") || !strings.Contains(resp.Text, "tardó demasiado") {
			t.Errorf("Text = %q", resp.Text)
		}
		if len(resp.ToolInvocations) != 1 {
			t.Errorf("executed tools should still be reported: %+v", resp.ToolInvocations)
		}
	})
}

func TestProcessTurnSelectionTimeout(t *testing.T) {
	blocking := llm.GatewayFunc(func(ctx context.Context, req llm.Request) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	})
	a, err := NewBuilder(blocking).Config(Config{SelectionTimeout: 20 * time.Millisecond}).Build()
	if err != nil {
		t.Fatal(err)
	}
	resp := a.ProcessTurn(context.Background(), "hi", nil, nil, nil)
	if resp.IsSuccess() || !strings.Contains(resp.Text, "too long") {
		t.Errorf("resp = %+v", resp)
	}
}

func TestProcessTurnHistoryWindow(t *testing.T) {
	gw := newScriptedGateway().on("agent:selection", "ok")
	a, err := NewBuilder(gw).Config(Config{HistoryWindow: 2}).Build()
	if err != nil {
		t.Fatal(err)
	}
	history := []model.ConversationMessage{
		model.NewUserMessage("first question"),
		model.NewModelMessage("first answer", nil),
		model.NewUserMessage("second question", model.Attachment{Name: "call.pdf", MIMEType: "application/pdf", Data: "JVBERi0x"}),
	}
	a.ProcessTurn(context.Background(), "third question", nil, history, nil)

	req, _ := gw.request("agent:selection")
	prompt := promptText(req)
	if strings.Contains(prompt, "first question") {
		t.Errorf("history outside the window was sent:\n%s", prompt)
	}
	for _, want := range []string{"Dr. Win: first answer", "User: second question", "[attached: call.pdf]", "User: third question"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, prompt)
		}
	}
}

func TestProcessTurnForwardsAttachments(t *testing.T) {
	var got tools.Params
	capture := stubTool{name: "validate", run: func(_ context.Context, p tools.Params) (tools.ToolResult, error) {
		got = p
		return tools.SuccessResult(nil), nil
	}}
	gw := newScriptedGateway().
		on("agent:selection", "```tool\n{\"tool\": \"validate\", \"params\": {\"projectDescription\": \"drones\"}}\n```").
		on("agent:synthesis", "done")
	a := buildAgent(t, gw, capture)
	att := model.Attachment{Name: "call.pdf", MIMEType: "application/pdf", Data: "JVBERi0xLjcK"}

	resp := a.ProcessTurn(context.Background(), "check this", []model.Attachment{att}, nil, nil)
	if !resp.IsSuccess() {
		t.Fatalf("resp = %+v", resp)
	}
	files := got.Contents("files")
	if len(files) != 1 || files[0].MIMEType != "application/pdf" {
		t.Errorf("files = %+v", files)
	}
	if _, leaked := resp.ToolInvocations[0].Arguments["files"]; leaked {
		t.Error("forwarded files must not be recorded as model arguments")
	}

	sel, _ := gw.request("agent:selection")
	var binary int
	for _, p := range sel.Parts {
		if p.IsBinary() {
			binary++
		}
	}
	if binary != 1 {
		t.Errorf("attachment not inlined in the selection call")
	}
}

func TestProcessTurnInternationalSearchScenario(t *testing.T) {
	searcher := &recordingSearcher{result: funding.SearchResult{
		Opportunities: []funding.Opportunity{
			{Source: "EU Funding & Tenders", Title: "Blockchain for payments", URL: "https://ec.europa.eu/info/funding-tenders/opportunities/portal/screen/opportunities/topic-details/x"},
			{Source: "TED", Title: "DLT pilot", URL: "https://ted.europa.eu/en/notice/-/detail/1-2024"},
		},
		TotalFound:      2,
		SearchedSources: []string{"EU Funding & Tenders"},
		FailedSources:   []string{},
	}}
	gw := newScriptedGateway().
		on("agent:selection", "Searching international calls.\n```tool\n"+
			`{"tool": "search_funding_opportunities", "params": {"keywords": ["blockchain", "digital payments", "fintech"], "fundingTypes": {"internationalSubsidies": true, "nationalSubsidies": false}}}`+
			"\n```").
		on("tool:search_funding_opportunities:expand", `{"translated": ["blockchain", "digital payments", "fintech"], "related": ["distributed ledger"]}`).
		onFunc("agent:synthesis", func(req llm.Request) (string, error) { return promptText(req), nil })

	reg, err := tools.NewRegistry(tools.NewSearchTool(tools.Deps{Gateway: gw, Searcher: searcher}))
	if err != nil {
		t.Fatal(err)
	}
	a := New(DefaultConfig(), gw, tools.NewExecutor(reg, time.Second))

	resp := a.ProcessTurn(context.Background(), "find funding for a blockchain payments project, international only", nil, nil, nil)
	if !resp.IsSuccess() {
		t.Fatalf("resp = %+v", resp)
	}
	flags := searcher.got().Flags
	if !flags.InternationalSubsidies || flags.NationalSubsidies || flags.NationalTenders {
		t.Errorf("flags = %+v", flags)
	}

	rows := tableRows(resp.Text)
	if len(rows) != 4 {
		t.Fatalf("table rows = %d:\n%s", len(rows), resp.Text)
	}
	for _, row := range rows[2:] {
		cells := strings.Split(strings.Trim(row, "| "), " | ")
		if url := cells[len(cells)-1]; !strings.Contains(url, "https://") {
			t.Errorf("row %q has no URL", row)
		}
	}
}

type recordingSearcher struct {
	mu     sync.Mutex
	req    funding.SearchRequest
	result funding.SearchResult
}

func (s *recordingSearcher) Search(_ context.Context, req funding.SearchRequest) funding.SearchResult {
	s.mu.Lock()
	s.req = req
	s.mu.Unlock()
	return s.result
}

func (s *recordingSearcher) got() funding.SearchRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.req
}

func TestApologyClassification(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{context.DeadlineExceeded, "took too long"},
		{context.Canceled, "cancelled"},
		{errors.New("status 401: invalid api key"), "credentials"},
		{errors.New("connection refused"), "unavailable"},
	}
	for _, tt := range tests {
		if got := Apology(tt.err, false); !strings.Contains(got, tt.want) || !strings.HasPrefix(got, "Sorry") {
			t.Errorf("Apology(%v) = %q", tt.err, got)
		}
	}
}

func TestBuilderRejectsDuplicates(t *testing.T) {
	_, err := NewBuilder(newScriptedGateway()).Tool(okTool("x", nil)).Tool(okTool("x", nil)).Build()
	if err == nil {
		t.Fatal("expected duplicate tool error")
	}
	if _, err := NewBuilder(nil).Build(); err == nil {
		t.Fatal("expected missing gateway error")
	}
}
