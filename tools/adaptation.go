// Adaptation tools: proposal adaptation, proposal extraction and
// reapplication planning.
//
// Information Hiding:
// - Proposal, call and feedback alias resolution hidden
// - Adaptation mode selection hidden
// - Success-rate normalization hidden

package tools

import (
	"context"
	"strings"

	"github.com/richinex/drwin/llm"
	"github.com/richinex/drwin/scoring"
)

const (
	AdaptToolName         = "adapt_proposal"
	ExtractToolName       = "extract_proposal_data"
	ReapplicationToolName = "plan_reapplication"
)

var (
	newCallAliases  = []string{"newCall", "newCallInfo", "targetCall", "newCallDocument", "callDescription", "call"}
	feedbackAliases = []string{"evaluationFeedback", "feedback", "evaluatorComments", "evaluation", "evaluationReport", "feedbackDocument", "esr"}
)

// AdaptationMode says what an adaptation is driven by.
type AdaptationMode string

const (
	ModeNewCall      AdaptationMode = "new_call"
	ModeResubmission AdaptationMode = "resubmission"
	ModeBoth         AdaptationMode = "new_call_and_feedback"
)

// adaptParams is the normalized adaptation input.
type adaptParams struct {
	Proposal []Content
	NewCall  []Content
	Feedback []Content
}

func normalizeAdaptParams(p Params) adaptParams {
	return adaptParams{
		Proposal: p.Contents(proposalAliases...),
		NewCall:  p.Contents(newCallAliases...),
		Feedback: p.Contents(feedbackAliases...),
	}
}

func (ap adaptParams) mode() AdaptationMode {
	switch {
	case len(ap.NewCall) > 0 && len(ap.Feedback) > 0:
		return ModeBoth
	case len(ap.Feedback) > 0:
		return ModeResubmission
	default:
		return ModeNewCall
	}
}

// AdaptTool adapts an existing proposal to a new call or to evaluator feedback.
type AdaptTool struct {
	deps Deps
}

// NewAdaptTool creates the adaptation tool.
func NewAdaptTool(deps Deps) *AdaptTool {
	return &AdaptTool{deps: deps.withDefaults()}
}

// Metadata returns the tool metadata.
func (t *AdaptTool) Metadata() ToolMetadata {
	return ToolMetadata{
		Name: AdaptToolName,
		Description: "Adapt an existing proposal either to a new funding call or to evaluator feedback for resubmission. " +
			"Requires the original proposal plus the new call material, the evaluation feedback, or both. Returns an action plan, key changes, adapted sections and a before/after comparison table.",
		Parameters: []ToolParameter{
			{Name: "originalProposal", ParamType: "string", Description: "Original proposal text or base64 file", Required: true},
			{Name: "newCall", ParamType: "string", Description: "New call text or base64 file", Required: false},
			{Name: "evaluationFeedback", ParamType: "string", Description: "Evaluator feedback text or base64 file", Required: false},
		},
		Group:      GroupAdaptation,
		Specialist: TailorSpecialist,
	}
}

// AdaptedSection is one rewritten section.
type AdaptedSection struct {
	Section string `json:"section"`
	Text    string `json:"text"`
}

// ComparisonRow is one before/after line of the comparative report.
type ComparisonRow struct {
	Section  string `json:"section"`
	Original string `json:"original"`
	Adapted  string `json:"adapted"`
	Reason   string `json:"reason"`
}

// AdaptationPayload is the adaptation result.
type AdaptationPayload struct {
	Mode             AdaptationMode   `json:"mode"`
	ActionPlan       string           `json:"actionPlan"`
	KeyChanges       []string         `json:"keyChanges"`
	AdaptedSections  []AdaptedSection `json:"adaptedSections"`
	ComparisonReport []ComparisonRow  `json:"comparisonReport"`
}

// Execute adapts the proposal.
func (t *AdaptTool) Execute(ctx context.Context, params Params) (ToolResult, error) {
	ap := normalizeAdaptParams(params)
	if len(ap.Proposal) == 0 {
		return FailureResultf("the original proposal is required: provide its text or attach the proposal file"), nil
	}
	if len(ap.NewCall) == 0 && len(ap.Feedback) == 0 {
		return FailureResultf("provide the new call material or the evaluation feedback (or both) to adapt the proposal against"), nil
	}

	parts := []llm.Part{llm.TextPart("## Original proposal")}
	parts = append(parts, Parts(ap.Proposal)...)
	if len(ap.NewCall) > 0 {
		parts = append(parts, llm.TextPart("## New funding call"))
		parts = append(parts, Parts(ap.NewCall)...)
	}
	if len(ap.Feedback) > 0 {
		parts = append(parts, llm.TextPart("## Evaluator feedback"))
		parts = append(parts, Parts(ap.Feedback)...)
	}

	var task strings.Builder
	task.WriteString("## Task\n")
	switch ap.mode() {
	case ModeNewCall:
		task.WriteString("Re-purpose the proposal for the new call: align objectives, impact and terminology with the call's expected outcomes.\n")
	case ModeResubmission:
		task.WriteString("Prepare a resubmission: address every weakness raised by the evaluators.\n")
	case ModeBoth:
		task.WriteString("Re-purpose the proposal for the new call and address every weakness raised by the evaluators.\n")
	}
	task.WriteString("For comparisonReport quote a short excerpt of the original and of the adapted text per section, with the reason for the change. ")
	task.WriteString(t.deps.languageInstruction())
	parts = append(parts, llm.TextPart(task.String()))

	out, err := generateJSON[AdaptationPayload](ctx, t.deps.Gateway, llm.Request{
		System: "You are an expert at adapting grant proposals.",
		Parts:  parts,
		Format: llm.NewJSONSchemaFormat("proposal_adaptation", adaptationSchema),
		Label:  "tool:" + AdaptToolName,
	})
	if err != nil {
		return ToolResult{}, err
	}
	out.Mode = ap.mode()
	return SuccessResult(out), nil
}

// ExtractTool parses an uploaded proposal into a structured summary.
type ExtractTool struct {
	deps Deps
}

// NewExtractTool creates the extraction tool.
func NewExtractTool(deps Deps) *ExtractTool {
	return &ExtractTool{deps: deps.withDefaults()}
}

// Metadata returns the tool metadata.
func (t *ExtractTool) Metadata() ToolMetadata {
	return ToolMetadata{
		Name:        ExtractToolName,
		Description: "Extract structured data (title, acronym, budget, duration, objectives, summary) from an uploaded proposal document, plus a summary of evaluator feedback when a feedback document is supplied.",
		Parameters: []ToolParameter{
			{Name: "proposal", ParamType: "string", Description: "Proposal text or base64 file", Required: true},
			{Name: "evaluationFeedback", ParamType: "string", Description: "Evaluator feedback text or base64 file", Required: false},
		},
		Group:      GroupAdaptation,
		Specialist: TailorSpecialist,
	}
}

// ExtractionPayload is the extraction result.
type ExtractionPayload struct {
	Title           string   `json:"title"`
	Acronym         string   `json:"acronym,omitempty"`
	Budget          string   `json:"budget"`
	DurationMonths  int      `json:"durationMonths,omitempty"`
	Objectives      []string `json:"objectives"`
	Summary         string   `json:"summary"`
	FeedbackSummary string   `json:"feedbackSummary,omitempty"`
}

// Execute extracts the proposal data.
func (t *ExtractTool) Execute(ctx context.Context, params Params) (ToolResult, error) {
	proposal := params.Contents(proposalAliases...)
	if len(proposal) == 0 {
		return FailureResultf("a proposal document is required: attach the proposal file or paste its text"), nil
	}
	feedback := params.Contents(feedbackAliases...)

	parts := []llm.Part{llm.TextPart("## Proposal")}
	parts = append(parts, Parts(proposal)...)
	instruction := "Extract the fields exactly as stated in the document; use \"not stated\" for missing values."
	if len(feedback) > 0 {
		parts = append(parts, llm.TextPart("## Evaluator feedback"))
		parts = append(parts, Parts(feedback)...)
		instruction += " Summarize the evaluator feedback in feedbackSummary."
	}
	parts = append(parts, llm.TextPart(instruction+" "+t.deps.languageInstruction()))

	out, err := generateJSON[ExtractionPayload](ctx, t.deps.Gateway, llm.Request{
		System: "You extract structured data from grant proposals.",
		Parts:  parts,
		Format: llm.NewJSONSchemaFormat("proposal_extraction", extractionSchema),
		Label:  "tool:" + ExtractToolName,
	})
	if err != nil {
		return ToolResult{}, err
	}
	if len(feedback) == 0 {
		out.FeedbackSummary = ""
	}
	return SuccessResult(out), nil
}

// ReapplicationTool plans a resubmission from a proposal and its feedback.
type ReapplicationTool struct {
	deps Deps
}

// NewReapplicationTool creates the reapplication planning tool.
func NewReapplicationTool(deps Deps) *ReapplicationTool {
	return &ReapplicationTool{deps: deps.withDefaults()}
}

// Metadata returns the tool metadata.
func (t *ReapplicationTool) Metadata() ToolMetadata {
	return ToolMetadata{
		Name:        ReapplicationToolName,
		Description: "Plan a reapplication: combine a rejected proposal and its evaluator feedback into an improvement plan with priorities and an estimated success rate (0-100).",
		Parameters: []ToolParameter{
			{Name: "proposal", ParamType: "string", Description: "Proposal text or base64 file", Required: true},
			{Name: "evaluationFeedback", ParamType: "string", Description: "Evaluator feedback text or base64 file", Required: true},
		},
		Group:      GroupAdaptation,
		Specialist: TailorSpecialist,
	}
}

// ReapplicationPayload is the reapplication plan.
type ReapplicationPayload struct {
	ImprovementPlan      string   `json:"improvementPlan"`
	Priorities           []string `json:"priorities"`
	AddressedWeaknesses  []string `json:"addressedWeaknesses,omitempty"`
	EstimatedSuccessRate float64  `json:"estimatedSuccessRate"`
}

// Execute plans the reapplication.
func (t *ReapplicationTool) Execute(ctx context.Context, params Params) (ToolResult, error) {
	proposal := params.Contents(proposalAliases...)
	feedback := params.Contents(feedbackAliases...)
	if len(proposal) == 0 || len(feedback) == 0 {
		return FailureResultf("both the proposal and the evaluator feedback are required: provide each as text or as an attached file"), nil
	}

	parts := []llm.Part{llm.TextPart("## Proposal")}
	parts = append(parts, Parts(proposal)...)
	parts = append(parts, llm.TextPart("## Evaluator feedback"))
	parts = append(parts, Parts(feedback)...)
	parts = append(parts, llm.TextPart("Write an improvement plan narrative, ordered priorities and an honest estimatedSuccessRate from 0 to 100 for the improved resubmission. "+t.deps.languageInstruction()))

	out, err := generateJSON[ReapplicationPayload](ctx, t.deps.Gateway, llm.Request{
		System: "You are a grant resubmission strategist.",
		Parts:  parts,
		Format: llm.NewJSONSchemaFormat("reapplication_plan", reapplicationSchema),
		Label:  "tool:" + ReapplicationToolName,
	})
	if err != nil {
		return ToolResult{}, err
	}
	out.EstimatedSuccessRate = clampScore(scoring.NormalizeScale(out.EstimatedSuccessRate))
	return SuccessResult(out), nil
}
