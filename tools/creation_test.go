package tools

import (
	"context"
	"strings"
	"testing"
)

func TestPadWorkPackages(t *testing.T) {
	wps := padWorkPackages(normalizeWorkPackages([]WorkPackage{
		{Title: "Core platform development", StartMonth: 3, EndMonth: 24},
		{Title: "Project Management", StartMonth: 0, EndMonth: 0},
		{Title: " "},
	}))
	if len(wps) != MinWorkPackages {
		t.Fatalf("len = %d, want %d", len(wps), MinWorkPackages)
	}
	if wps[1].StartMonth != 1 || wps[1].EndMonth != 1 {
		t.Errorf("month range not repaired: %+v", wps[1])
	}
	for _, wp := range wps[2:] {
		if strings.Contains(strings.ToLower(wp.Title), "management") {
			t.Errorf("duplicate management package appended: %q", wp.Title)
		}
		if wp.StartMonth != 1 || wp.EndMonth != 24 {
			t.Errorf("appended package should span the project: %+v", wp)
		}
	}
}

func TestPadWorkPackagesKeepsLongLists(t *testing.T) {
	in := make([]WorkPackage, 8)
	for i := range in {
		in[i] = WorkPackage{Title: "WP", StartMonth: 1, EndMonth: 12}
	}
	if got := padWorkPackages(in); len(got) != 8 {
		t.Errorf("len = %d, want 8", len(got))
	}
}

func TestConceptToolWithoutConditionsDocument(t *testing.T) {
	gw := replyWith(`{"idea":"Agri drones","objectives":["O1"],"mandatoryConditions":["Invented condition"],"partners":[{"role":"RTO","profile":"Research"}],"workPackages":[{"title":"Drone design","objective":"x","leader":"SME","startMonth":1,"endMonth":30}]}`)
	tool := NewConceptTool(Deps{Gateway: gw})
	res, err := tool.Execute(context.Background(), Params{"call": map[string]any{"title": "Digital farming"}})
	if err != nil || !res.Success() {
		t.Fatalf("Execute() = %+v, %v", res, err)
	}
	out := res.Payload.(ConceptPayload)
	if len(out.MandatoryConditions) != 0 || out.MandatoryConditions == nil {
		t.Errorf("mandatoryConditions = %#v, want empty list", out.MandatoryConditions)
	}
	if len(out.WorkPackages) < MinWorkPackages {
		t.Errorf("work packages = %d", len(out.WorkPackages))
	}

	prompt := promptText(gw.requests()[0])
	if !strings.Contains(prompt, "Title: Digital farming") {
		t.Errorf("object call context not flattened:\n%s", prompt)
	}
	if !strings.Contains(prompt, "(generic default) No applicant profile supplied") {
		t.Errorf("missing profile should get a labeled default:\n%s", prompt)
	}
}

func TestConceptToolKeepsConditionsFromDocument(t *testing.T) {
	gw := replyWith(`{"idea":"x","objectives":[],"mandatoryConditions":["3 partners from 3 countries"],"partners":[],"workPackages":[]}`)
	tool := NewConceptTool(Deps{Gateway: gw})
	res, err := tool.Execute(context.Background(), Params{"conditionsDocument": "JVBERi0xLjcKJeLjz9MK"})
	if err != nil || !res.Success() {
		t.Fatalf("Execute() = %+v, %v", res, err)
	}
	out := res.Payload.(ConceptPayload)
	if len(out.MandatoryConditions) != 1 {
		t.Errorf("mandatoryConditions = %v", out.MandatoryConditions)
	}
	var binary int
	for _, p := range gw.requests()[0].Parts {
		if p.IsBinary() {
			binary++
		}
	}
	if binary != 1 {
		t.Errorf("conditions document not sent as a binary part")
	}
}

func TestPublicationToolRequiresConcept(t *testing.T) {
	res, err := NewPublicationTool(Deps{Gateway: replyWith("{}")}).Execute(context.Background(), Params{})
	if err != nil || res.Success() {
		t.Fatalf("expected failure result, got %+v, %v", res, err)
	}
}

func TestPublicationToolNormalizesAcronym(t *testing.T) {
	gw := replyWith(`{"acronym":"agri-Drone 5!","title":"t","pitch":"p","abstract":"a"}`)
	res, err := NewPublicationTool(Deps{Gateway: gw}).Execute(context.Background(), Params{"projectConcept": map[string]any{"idea": "drones"}})
	if err != nil || !res.Success() {
		t.Fatalf("Execute() = %+v, %v", res, err)
	}
	if got := res.Payload.(PublicationPayload).Acronym; got != "AGRI-DRONE5" {
		t.Errorf("Acronym = %q", got)
	}
}

func TestDraftToolDefaults(t *testing.T) {
	gw := replyWith("  The project builds on three pillars.  ")
	res, err := NewDraftTool(Deps{Gateway: gw}).Execute(context.Background(), Params{"wordLimit": "300"})
	if err != nil || !res.Success() {
		t.Fatalf("Execute() = %+v, %v", res, err)
	}
	out := res.Payload.(DraftPayload)
	if out.Section != "Excellence" || out.Content != "The project builds on three pillars." || out.WordCount != 6 {
		t.Errorf("payload = %+v", out)
	}
	if !strings.Contains(promptText(gw.requests()[0]), "about 300 words") {
		t.Error("word limit not forwarded")
	}
}

func TestReviewToolRequiresText(t *testing.T) {
	res, err := NewReviewTool(Deps{Gateway: replyWith("{}")}).Execute(context.Background(), Params{"sectionName": "Impact"})
	if err != nil || res.Success() {
		t.Fatalf("expected failure result, got %+v, %v", res, err)
	}

	gw := replyWith(`{"strengths":["clear"],"weaknesses":[],"inconsistencies":[],"suggestions":["add KPIs"]}`)
	res, err = NewReviewTool(Deps{Gateway: gw}).Execute(context.Background(), Params{"sectionName": "Impact", "content": "We will reach 1M users."})
	if err != nil || !res.Success() {
		t.Fatalf("Execute() = %+v, %v", res, err)
	}
	if out := res.Payload.(ReviewPayload); out.Section != "Impact" || len(out.Suggestions) != 1 {
		t.Errorf("payload = %+v", out)
	}
}
