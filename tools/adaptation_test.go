package tools

import (
	"context"
	"strings"
	"testing"
)

const adaptationReply = `{"actionPlan":"Refocus on impact","keyChanges":["New KPIs"],"adaptedSections":[{"section":"Impact","text":"..."}],"comparisonReport":[{"section":"Impact","original":"a | b","adapted":"c","reason":"call asks for KPIs"}]}`

func TestAdaptToolValidation(t *testing.T) {
	tool := NewAdaptTool(Deps{Gateway: replyWith(adaptationReply)})
	tests := []struct {
		name   string
		params Params
		want   string
	}{
		{"no proposal", Params{"newCall": "Call text"}, "original proposal is required"},
		{"no call or feedback", Params{"proposal": "Our proposal"}, "new call material or the evaluation feedback"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := tool.Execute(context.Background(), tt.params)
			if err != nil || res.Success() {
				t.Fatalf("expected failure result, got %+v, %v", res, err)
			}
			if !strings.Contains(res.Error.Error(), tt.want) {
				t.Errorf("error = %q", res.Error)
			}
		})
	}
}

func TestAdaptToolModes(t *testing.T) {
	tests := []struct {
		params Params
		want   AdaptationMode
	}{
		{Params{"originalProposal": "p", "newCallInfo": "c"}, ModeNewCall},
		{Params{"proposal_text": "p", "evaluatorComments": "weak impact"}, ModeResubmission},
		{Params{"proposal": "p", "targetCall": "c", "feedback": "f"}, ModeBoth},
	}
	for _, tt := range tests {
		gw := replyWith(adaptationReply)
		res, err := NewAdaptTool(Deps{Gateway: gw}).Execute(context.Background(), tt.params)
		if err != nil || !res.Success() {
			t.Fatalf("Execute(%v) = %+v, %v", tt.params, res, err)
		}
		out := res.Payload.(AdaptationPayload)
		if out.Mode != tt.want {
			t.Errorf("Mode = %s, want %s", out.Mode, tt.want)
		}
		if len(out.ComparisonReport) != 1 {
			t.Errorf("ComparisonReport = %+v", out.ComparisonReport)
		}
	}
}

func TestExtractToolDropsFeedbackSummaryWithoutFeedback(t *testing.T) {
	gw := replyWith(`{"title":"AGRI","budget":"2 MEUR","objectives":["o"],"summary":"s","feedbackSummary":"hallucinated"}`)
	res, err := NewExtractTool(Deps{Gateway: gw}).Execute(context.Background(), Params{"document": "JVBERi0xLjcKJeLjz9MK"})
	if err != nil || !res.Success() {
		t.Fatalf("Execute() = %+v, %v", res, err)
	}
	if out := res.Payload.(ExtractionPayload); out.FeedbackSummary != "" || out.Title != "AGRI" {
		t.Errorf("payload = %+v", out)
	}
}

func TestReapplicationToolNormalizesRate(t *testing.T) {
	tool := NewReapplicationTool(Deps{Gateway: replyWith(`{"improvementPlan":"plan","priorities":["impact"],"estimatedSuccessRate":7.5}`)})

	res, _ := tool.Execute(context.Background(), Params{"proposal": "p"})
	if res.Success() {
		t.Fatal("expected failure without feedback")
	}

	res, err := tool.Execute(context.Background(), Params{"proposal": "p", "feedback": "f"})
	if err != nil || !res.Success() {
		t.Fatalf("Execute() = %+v, %v", res, err)
	}
	if got := res.Payload.(ReapplicationPayload).EstimatedSuccessRate; got != 75 {
		t.Errorf("EstimatedSuccessRate = %v, want 75", got)
	}

	tool = NewReapplicationTool(Deps{Gateway: replyWith(`{"improvementPlan":"plan","priorities":[],"estimatedSuccessRate":180}`)})
	res, _ = tool.Execute(context.Background(), Params{"proposal": "p", "feedback": "f"})
	if got := res.Payload.(ReapplicationPayload).EstimatedSuccessRate; got != 100 {
		t.Errorf("EstimatedSuccessRate = %v, want clamped to 100", got)
	}
}

func TestDefaultRegistryCatalog(t *testing.T) {
	r, err := NewDefaultRegistry(Deps{}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if r.Len() != 11 {
		t.Errorf("Len() = %d, want 11", r.Len())
	}
	groups := map[Group]int{}
	for _, m := range r.List() {
		groups[m.Group]++
		if m.Specialist.Name == "" || m.Description == "" {
			t.Errorf("%s: missing attribution or description", m.Name)
		}
	}
	if len(groups) != 4 {
		t.Errorf("groups = %v, want four", groups)
	}
}
