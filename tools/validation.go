// Validation tools: eligibility scoring and evaluation simulation.
//
// Information Hiding:
// - Call reference resolution (URL, files, description) hidden
// - Rubric selection hidden
// - JSON recovery from grounded replies and score correction hidden

package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/richinex/drwin/llm"
	"github.com/richinex/drwin/scoring"
)

const (
	ValidateToolName = "validate_eligibility"
	SimulateToolName = "simulate_evaluation"

	// minCallDescription is the shortest free-text call description accepted
	// without a URL or files.
	minCallDescription = 50
)

// CorrectionObserver is notified for every score correction that fires.
type CorrectionObserver interface {
	ObserveScoreCorrection(rule string)
}

// RubricKind names the rubric applied to a validation.
type RubricKind string

const (
	RubricFull RubricKind = "full"
	RubricIdea RubricKind = "idea"
)

type rubricLine struct {
	Name   string
	Weight int
	Hint   string
}

// fullRubric applies when an applicant profile is supplied.
var fullRubric = []rubricLine{
	{"Domain/sector alignment", 30, "Does the project's application domain match the call's target sector? Shared technology keywords (AI, sensors, blockchain) do NOT count as alignment when the domains differ."},
	{"Applicant eligibility", 20, "Legal form, country, size and track record against the call's eligibility rules."},
	{"Technical fit", 15, "Match between the project's technology and the call's technical scope and TRL."},
	{"Budget fit", 10, "Whether the expected budget fits the call's funding range and co-financing rate."},
	{"Consortium", 10, "Whether the applicant can meet the consortium requirements."},
	{"Innovation", 10, "Novelty beyond the state of the art."},
	{"Expected impact", 5, "Contribution to the call's expected outcomes."},
}

// ideaRubric applies when only a bare project idea is given.
var ideaRubric = []rubricLine{
	{"Domain/sector alignment", 40, "Does the idea's application domain match the call's target sector? Shared technology keywords do NOT count as alignment when the domains differ."},
	{"Innovation", 20, "Novelty beyond the state of the art."},
	{"Expected impact", 15, "Contribution to the call's expected outcomes."},
	{"Feasibility", 15, "Whether the idea can realistically be delivered within the call's scope."},
	{"Budget fit", 10, "Whether a plausible budget fits the call's funding range."},
}

func rubricFor(kind RubricKind) []rubricLine {
	if kind == RubricFull {
		return fullRubric
	}
	return ideaRubric
}

// validateParams is the normalized validation input.
type validateParams struct {
	URL         string
	Files       []Content
	Description string
	Profile     string
	Project     string
}

var (
	callURLAliases         = []string{"url", "callUrl", "fundingCallUrl", "link", "callLink"}
	callFileAliases        = []string{"files", "callFiles", "documents", "attachments", "callDocuments"}
	callDescriptionAliases = []string{"callDescription", "description", "callText", "fundingCall", "call", "callInfo", "callContext"}
	profileAliases         = []string{"applicantProfile", "profile", "company", "organization", "companyProfile", "entity"}
	projectAliases         = []string{"projectDescription", "project", "projectIdea", "idea"}
)

func normalizeValidateParams(p Params) validateParams {
	vp := validateParams{
		URL:     p.String(callURLAliases...),
		Files:   p.Contents(callFileAliases...),
		Profile: p.String(profileAliases...),
		Project: p.String(projectAliases...),
	}
	// A description that is really a base64 document counts as a file.
	for _, c := range p.Contents(callDescriptionAliases...) {
		if c.IsBinary() {
			vp.Files = append(vp.Files, c)
		} else {
			vp.Description = strings.TrimSpace(vp.Description + "\n" + c.Text)
		}
	}
	return vp
}

// missingCallReference reports whether no usable call reference was given.
func (vp validateParams) missingCallReference() bool {
	return vp.URL == "" && len(vp.Files) == 0 && len([]rune(vp.Description)) < minCallDescription
}

func (vp validateParams) rubric() RubricKind {
	if vp.Profile != "" {
		return RubricFull
	}
	return RubricIdea
}

// ValidatePayload is the validation tool's result: the corrected analysis
// plus the corrections that fired.
type ValidatePayload struct {
	scoring.Analysis
	Rubric      RubricKind           `json:"rubric"`
	CallURL     string               `json:"callUrl,omitempty"`
	CallTitle   string               `json:"callTitle,omitempty"`
	Corrections []scoring.Correction `json:"corrections,omitempty"`
}

// ValidateTool scores a project's eligibility for a funding call.
type ValidateTool struct {
	deps     Deps
	observer CorrectionObserver
}

// NewValidateTool creates the eligibility validation tool.
func NewValidateTool(deps Deps) *ValidateTool {
	return &ValidateTool{deps: deps.withDefaults()}
}

// WithCorrectionObserver sets an observer for score corrections.
func (t *ValidateTool) WithCorrectionObserver(o CorrectionObserver) *ValidateTool {
	t.observer = o
	return t
}

// Metadata returns the tool metadata.
func (t *ValidateTool) Metadata() ToolMetadata {
	return ToolMetadata{
		Name: ValidateToolName,
		Description: "Validate whether a project or organization is eligible for, and aligned with, a specific funding call, returning weighted criterion scores (0-100), an overall score and a suggested role. " +
			"Requires a funding call reference: its URL, attached call documents, or a description of at least 50 characters. Do not call this without one.",
		Parameters: []ToolParameter{
			{Name: "url", ParamType: "string", Description: "Funding call URL", Required: false},
			{Name: "files", ParamType: "array", Description: "Call documents (base64)", Required: false},
			{Name: "callDescription", ParamType: "string", Description: "Funding call description (at least 50 characters)", Required: false},
			{Name: "applicantProfile", ParamType: "string", Description: "Applicant organization profile", Required: false},
			{Name: "projectDescription", ParamType: "string", Description: "Project description", Required: false},
		},
		Group:      GroupValidation,
		Specialist: AuditorSpecialist,
	}
}

// Execute validates eligibility.
func (t *ValidateTool) Execute(ctx context.Context, params Params) (ToolResult, error) {
	vp := normalizeValidateParams(params)
	if vp.missingCallReference() {
		return FailureResultf("a funding call reference is required: provide a URL, files, or a description of at least %d characters", minCallDescription).
			WithDetail("descriptionLength", len([]rune(vp.Description))), nil
	}

	payload := ValidatePayload{Rubric: vp.rubric(), CallURL: vp.URL}
	var callText []string
	if vp.URL != "" {
		callText = append(callText, "Call URL: "+vp.URL)
		if t.deps.Articles != nil {
			article, err := t.deps.Articles.FetchArticle(ctx, vp.URL)
			if err != nil {
				t.deps.Logger.Warn("call page fetch failed, relying on grounding", "url", vp.URL, "error", err)
			} else {
				payload.CallTitle = article.Title
				callText = append(callText, "Call page content:\n"+article.Content)
			}
		}
	}
	if vp.Description != "" {
		callText = append(callText, vp.Description)
	}

	parts := []llm.Part{llm.TextPart(section("Funding call", strings.Join(callText, "\n\n"), "See attached call documents."))}
	parts = append(parts, Parts(vp.Files)...)
	parts = append(parts, llm.TextPart(t.instructions(vp)))

	analysis, err := generateJSON[scoring.Analysis](ctx, t.deps.Gateway, llm.Request{
		System: "You are a strict funding-call auditor. You verify facts about the call with search when needed and you never inflate scores.",
		Parts:  parts,
		Format: llm.NewGroundedFormat(),
		Label:  "tool:" + ValidateToolName,
	})
	if err != nil {
		return ToolResult{}, err
	}
	if len(analysis.Criteria) == 0 {
		return ToolResult{}, fmt.Errorf("model response has no scoring criteria")
	}

	corrected, corrections := scoring.Correct(analysis)
	for _, c := range corrections {
		t.deps.Logger.Info("score corrected", "rule", c.Rule, "before", c.Before, "after", c.After)
		if t.observer != nil {
			t.observer.ObserveScoreCorrection(c.Rule)
		}
	}
	payload.Analysis = corrected
	payload.Corrections = corrections
	return SuccessResult(payload), nil
}

func (t *ValidateTool) instructions(vp validateParams) string {
	var b strings.Builder
	b.WriteString(section("Applicant profile", vp.Profile, "(not supplied) Evaluate the project idea only."))
	b.WriteString(section("Project", vp.Project, "(not supplied) Evaluate the applicant's general fit."))
	b.WriteString("## Task\n")
	b.WriteString("1. Summarize the call's key technical facts (scope, budget, deadline, eligibility) in callSummary.\n")
	b.WriteString("2. Score domain/sector alignment FIRST. It is the gate: a project from a different application domain scores below 30 even when it shares technologies with the call.\n")
	b.WriteString("3. Score every criterion of this rubric 0-100 using exactly these names and weights:\n")
	for _, line := range rubricFor(vp.rubric()) {
		fmt.Fprintf(&b, "   - %s (weight %d): %s\n", line.Name, line.Weight, line.Hint)
	}
	b.WriteString("4. overallScore is the weighted average of the criterion scores.\n")
	if vp.Project != "" {
		b.WriteString("5. Propose an improvementPlan with concrete steps and a projectedScore.\n")
	}
	b.WriteString("\nReturn ONLY a JSON object in a ```json fenced block with this shape:\n")
	b.WriteString(validationSchemaText)
	b.WriteString("\n")
	b.WriteString(t.deps.languageInstruction())
	return b.String()
}

// SimulateTool runs an evaluator simulation of a proposal.
type SimulateTool struct {
	deps Deps
}

// NewSimulateTool creates the evaluation simulation tool.
func NewSimulateTool(deps Deps) *SimulateTool {
	return &SimulateTool{deps: deps.withDefaults()}
}

// Metadata returns the tool metadata.
func (t *SimulateTool) Metadata() ToolMetadata {
	return ToolMetadata{
		Name:        SimulateToolName,
		Description: "Simulate an expert evaluator panel scoring a written proposal against the call's evaluation criteria, with per-criterion comments, strengths, weaknesses and a verdict. Requires the proposal text or file.",
		Parameters: []ToolParameter{
			{Name: "proposal", ParamType: "string", Description: "Proposal text or base64 file", Required: true},
			{Name: "evaluationCriteria", ParamType: "string", Description: "Call evaluation criteria and thresholds", Required: false},
			{Name: "callDescription", ParamType: "string", Description: "Funding call description", Required: false},
		},
		Group:      GroupValidation,
		Specialist: AuditorSpecialist,
	}
}

// CriterionEvaluation is one simulated evaluator score.
type CriterionEvaluation struct {
	Criterion string  `json:"criterion"`
	Score     float64 `json:"score"`
	MaxScore  float64 `json:"maxScore"`
	Comments  string  `json:"comments"`
}

// EvaluationPayload is the simulation tool's result.
type EvaluationPayload struct {
	Scores        []CriterionEvaluation `json:"scores"`
	TotalScore    float64               `json:"totalScore"`
	MaxTotalScore float64               `json:"maxTotalScore"`
	Verdict       string                `json:"verdict"`
	Strengths     []string              `json:"strengths,omitempty"`
	Weaknesses    []string              `json:"weaknesses,omitempty"`
}

var proposalAliases = []string{"proposal", "proposalText", "originalProposal", "document", "draft", "proposalFile", "files"}

const defaultEvaluationCriteria = "(generic default) Horizon Europe criteria: Excellence (0-5), Impact (0-5), Quality and efficiency of implementation (0-5); threshold 3 per criterion, 10 overall."

// Execute runs the simulation.
func (t *SimulateTool) Execute(ctx context.Context, params Params) (ToolResult, error) {
	proposal := params.Contents(proposalAliases...)
	if len(proposal) == 0 {
		return FailureResultf("a proposal is required: provide the proposal text or attach the proposal file"), nil
	}

	parts := []llm.Part{llm.TextPart("## Proposal")}
	parts = append(parts, Parts(proposal)...)
	parts = append(parts, llm.TextPart(
		section("Evaluation criteria", params.String("evaluationCriteria", "criteria", "evaluation"), defaultEvaluationCriteria)+
			section("Funding call", params.String(callDescriptionAliases...), "(not supplied)")+
			"\nScore every criterion as an independent expert evaluator would, then sum totalScore. "+t.deps.languageInstruction()))

	out, err := generateJSON[EvaluationPayload](ctx, t.deps.Gateway, llm.Request{
		System: "You are a panel of experienced grant evaluators. You are critical, specific and consistent.",
		Parts:  parts,
		Format: llm.NewJSONSchemaFormat("evaluation_simulation", evaluationSchema),
		Label:  "tool:" + SimulateToolName,
	})
	if err != nil {
		return ToolResult{}, err
	}

	var total, maxTotal float64
	for _, s := range out.Scores {
		total += s.Score
		maxTotal += s.MaxScore
	}
	if len(out.Scores) > 0 {
		out.TotalScore = total
		out.MaxTotalScore = maxTotal
	}
	return SuccessResult(out), nil
}
