// Creation tools: project concept, publication metadata, section drafting
// and section review.
//
// Information Hiding:
// - Call context flattening and labeled defaults hidden
// - Work package padding and mandatory-condition policy hidden

package tools

import (
	"context"
	"strconv"
	"strings"
	"unicode"

	"github.com/richinex/drwin/llm"
)

const (
	ConceptToolName     = "generate_project_concept"
	PublicationToolName = "generate_publication_metadata"
	DraftToolName       = "draft_proposal_section"
	ReviewToolName      = "review_proposal_section"

	// MinWorkPackages is the minimum number of work packages in a concept.
	MinWorkPackages = 6

	defaultProjectMonths = 36
)

var (
	callContextAliases = []string{"callContext", "call", "fundingCall", "callDescription", "callInfo", "opportunity"}
	conditionAliases   = []string{"conditionsDocument", "conditions", "conditionsFiles", "files", "documents", "attachments"}
	conceptAliases     = []string{"concept", "projectConcept", "project", "projectSummary"}
)

const (
	defaultCallContext = "(generic default) No funding call supplied; assume a collaborative European research and innovation action of about 36 months."
	defaultProfile     = "(generic default) No applicant profile supplied; assume a technology SME acting as coordinator."
)

// ConceptTool generates a structured project concept.
type ConceptTool struct {
	deps Deps
}

// NewConceptTool creates the concept generation tool.
func NewConceptTool(deps Deps) *ConceptTool {
	return &ConceptTool{deps: deps.withDefaults()}
}

// Metadata returns the tool metadata.
func (t *ConceptTool) Metadata() ToolMetadata {
	return ToolMetadata{
		Name: ConceptToolName,
		Description: "Generate a complete project concept for a funding call: idea, objectives, mandatory conditions, partner profiles and at least six work packages. " +
			"When the user confirms they are ready, call this immediately using the call and applicant details already in the conversation instead of asking again.",
		Parameters: []ToolParameter{
			{Name: "callContext", ParamType: "string|object", Description: "Funding call details", Required: false},
			{Name: "applicantProfile", ParamType: "string|object", Description: "Applicant organization profile", Required: false},
			{Name: "projectIdea", ParamType: "string", Description: "Initial idea, if any", Required: false},
			{Name: "conditionsDocument", ParamType: "array", Description: "Attached call conditions document(s), base64", Required: false},
		},
		Group:      GroupCreation,
		Specialist: ArchitectSpecialist,
	}
}

// Partner is a potential consortium partner profile.
type Partner struct {
	Role    string `json:"role"`
	Profile string `json:"profile"`
	Country string `json:"country,omitempty"`
}

// WorkPackage is one work package of a concept.
type WorkPackage struct {
	Title      string `json:"title"`
	Objective  string `json:"objective"`
	Leader     string `json:"leader"`
	StartMonth int    `json:"startMonth"`
	EndMonth   int    `json:"endMonth"`
}

// ConceptPayload is the concept tool's result.
type ConceptPayload struct {
	Idea                string        `json:"idea"`
	Objectives          []string      `json:"objectives"`
	MandatoryConditions []string      `json:"mandatoryConditions"`
	Partners            []Partner     `json:"partners"`
	WorkPackages        []WorkPackage `json:"workPackages"`
}

// Execute generates the concept.
func (t *ConceptTool) Execute(ctx context.Context, params Params) (ToolResult, error) {
	conditions := params.Contents(conditionAliases...)

	prompt := section("Funding call", params.String(callContextAliases...), defaultCallContext) +
		section("Applicant profile", params.String(profileAliases...), defaultProfile) +
		section("Initial idea", params.String("projectIdea", "idea", "project"), "(not supplied) Propose the strongest idea for this applicant and call.")
	parts := []llm.Part{llm.TextPart(prompt)}
	if len(conditions) > 0 {
		parts = append(parts, llm.TextPart("## Call conditions document"))
		parts = append(parts, Parts(conditions)...)
		parts = append(parts, llm.TextPart("Extract mandatoryConditions strictly from the conditions document above. Do not invent conditions."))
	} else {
		parts = append(parts, llm.TextPart("No conditions document is attached: return mandatoryConditions as an empty list."))
	}
	parts = append(parts, llm.TextPart("Define at least six work packages with leader, startMonth and endMonth. "+t.deps.languageInstruction()))

	concept, err := generateJSON[ConceptPayload](ctx, t.deps.Gateway, llm.Request{
		System: "You are a senior grant architect who designs fundable project concepts.",
		Parts:  parts,
		Format: llm.NewJSONSchemaFormat("project_concept", conceptSchema),
		Label:  "tool:" + ConceptToolName,
	})
	if err != nil {
		return ToolResult{}, err
	}

	if len(conditions) == 0 {
		concept.MandatoryConditions = []string{}
	}
	concept.WorkPackages = padWorkPackages(normalizeWorkPackages(concept.WorkPackages))
	return SuccessResult(concept), nil
}

// standardWorkPackages are appended, in order, when a concept has too few.
// A standard package is skipped when an existing title contains its key.
var standardWorkPackages = []struct {
	key string
	wp  WorkPackage
}{
	{"management", WorkPackage{Title: "Project management and coordination", Objective: "Ensure efficient administrative, financial and technical coordination.", Leader: "Coordinator"}},
	{"requirement", WorkPackage{Title: "Requirements and specification", Objective: "Define user requirements and the system specification.", Leader: "Coordinator"}},
	{"validation", WorkPackage{Title: "Validation and pilots", Objective: "Validate the results in relevant operational environments.", Leader: "End-user partner"}},
	{"dissemination", WorkPackage{Title: "Dissemination and communication", Objective: "Communicate and disseminate results to target audiences.", Leader: "Dissemination partner"}},
	{"exploitation", WorkPackage{Title: "Exploitation and sustainability", Objective: "Prepare the exploitation plan and post-project sustainability.", Leader: "Industrial partner"}},
	{"ethic", WorkPackage{Title: "Ethics and data management", Objective: "Ensure ethics compliance and FAIR data management.", Leader: "Coordinator"}},
}

// normalizeWorkPackages repairs month ranges.
func normalizeWorkPackages(wps []WorkPackage) []WorkPackage {
	out := make([]WorkPackage, 0, len(wps))
	for _, wp := range wps {
		if strings.TrimSpace(wp.Title) == "" {
			continue
		}
		if wp.StartMonth < 1 {
			wp.StartMonth = 1
		}
		if wp.EndMonth < wp.StartMonth {
			wp.EndMonth = wp.StartMonth
		}
		out = append(out, wp)
	}
	return out
}

// padWorkPackages appends standard packages not already present until there
// are MinWorkPackages. Appended packages span the project duration.
func padWorkPackages(wps []WorkPackage) []WorkPackage {
	if len(wps) >= MinWorkPackages {
		return wps
	}
	duration := 0
	for _, wp := range wps {
		if wp.EndMonth > duration {
			duration = wp.EndMonth
		}
	}
	if duration == 0 {
		duration = defaultProjectMonths
	}
	for _, std := range standardWorkPackages {
		if len(wps) >= MinWorkPackages {
			break
		}
		if hasTitleContaining(wps, std.key) {
			continue
		}
		wp := std.wp
		wp.StartMonth = 1
		wp.EndMonth = duration
		wps = append(wps, wp)
	}
	for len(wps) < MinWorkPackages {
		wps = append(wps, WorkPackage{
			Title:      "Work package " + strconv.Itoa(len(wps)+1),
			Objective:  "To be defined with the consortium.",
			Leader:     "Coordinator",
			StartMonth: 1,
			EndMonth:   duration,
		})
	}
	return wps
}

func hasTitleContaining(wps []WorkPackage, key string) bool {
	for _, wp := range wps {
		if strings.Contains(strings.ToLower(wp.Title), key) {
			return true
		}
	}
	return false
}

// PublicationTool generates acronym, pitch, and abstract from a concept.
type PublicationTool struct {
	deps Deps
}

// NewPublicationTool creates the publication metadata tool.
func NewPublicationTool(deps Deps) *PublicationTool {
	return &PublicationTool{deps: deps.withDefaults()}
}

// Metadata returns the tool metadata.
func (t *PublicationTool) Metadata() ToolMetadata {
	return ToolMetadata{
		Name:        PublicationToolName,
		Description: "Generate publication metadata for a previously generated project concept: acronym, title, short pitch, abstract and keywords.",
		Parameters: []ToolParameter{
			{Name: "concept", ParamType: "string|object", Description: "The project concept", Required: true},
			{Name: "maxAbstractWords", ParamType: "integer", Description: "Abstract word limit (default 200)", Required: false},
		},
		Group:      GroupCreation,
		Specialist: ArchitectSpecialist,
	}
}

// PublicationPayload is the publication metadata result.
type PublicationPayload struct {
	Acronym  string   `json:"acronym"`
	Title    string   `json:"title"`
	Pitch    string   `json:"pitch"`
	Abstract string   `json:"abstract"`
	Keywords []string `json:"keywords,omitempty"`
}

// Execute generates the metadata.
func (t *PublicationTool) Execute(ctx context.Context, params Params) (ToolResult, error) {
	concept := params.String(conceptAliases...)
	if concept == "" {
		return FailureResultf("a project concept is required: generate a concept first or pass the concept text or object"), nil
	}
	words, ok := params.Int("maxAbstractWords", "abstractWords", "wordLimit")
	if !ok || words <= 0 {
		words = 200
	}

	prompt := section("Project concept", concept, "") +
		"\nCreate a memorable acronym (letters only), a title, a one-sentence pitch, an abstract of at most " +
		strconv.Itoa(words) + " words and 5 keywords. " + t.deps.languageInstruction()
	out, err := generateJSON[PublicationPayload](ctx, t.deps.Gateway, llm.Request{
		System: "You are a science communicator who writes concise project summaries.",
		Parts:  []llm.Part{llm.TextPart(prompt)},
		Format: llm.NewJSONSchemaFormat("publication_metadata", publicationSchema),
		Label:  "tool:" + PublicationToolName,
	})
	if err != nil {
		return ToolResult{}, err
	}
	out.Acronym = normalizeAcronym(out.Acronym)
	return SuccessResult(out), nil
}

func normalizeAcronym(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' {
			return unicode.ToUpper(r)
		}
		return -1
	}, s)
}

// DraftTool drafts one named proposal section.
type DraftTool struct {
	deps Deps
}

// NewDraftTool creates the section drafting tool.
func NewDraftTool(deps Deps) *DraftTool {
	return &DraftTool{deps: deps.withDefaults()}
}

// Metadata returns the tool metadata.
func (t *DraftTool) Metadata() ToolMetadata {
	return ToolMetadata{
		Name:        DraftToolName,
		Description: "Draft one named proposal section (for example Excellence, Impact, Implementation, State of the art) following the grant requirements and the project concept.",
		Parameters: []ToolParameter{
			{Name: "sectionName", ParamType: "string", Description: "Section to draft", Required: true},
			{Name: "requirements", ParamType: "string", Description: "Grant requirements for the section", Required: false},
			{Name: "concept", ParamType: "string|object", Description: "Project concept or context", Required: false},
			{Name: "wordLimit", ParamType: "integer", Description: "Approximate word limit", Required: false},
		},
		Group:      GroupCreation,
		Specialist: ArchitectSpecialist,
	}
}

// DraftPayload is the drafting result.
type DraftPayload struct {
	Section   string `json:"section"`
	Content   string `json:"content"`
	WordCount int    `json:"wordCount"`
}

var (
	sectionNameAliases  = []string{"sectionName", "section", "sectionTitle", "name", "title"}
	requirementsAliases = []string{"requirements", "grantRequirements", "guidelines", "instructions", "callRequirements"}
)

// Execute drafts the section.
func (t *DraftTool) Execute(ctx context.Context, params Params) (ToolResult, error) {
	name := params.String(sectionNameAliases...)
	if name == "" {
		name = "Excellence"
	}
	limit := ""
	if words, ok := params.Int("wordLimit", "maxWords", "length"); ok && words > 0 {
		limit = " Stay within about " + strconv.Itoa(words) + " words."
	}

	prompt := section("Section", name, "") +
		section("Grant requirements", params.String(requirementsAliases...), "(generic default) Follow standard Horizon Europe guidance for this section.") +
		section("Project concept", params.String("concept", "projectConcept", "project", "projectSummary", "projectContext", "context"), "(generic default) No concept supplied; write a well-structured template with clearly marked placeholders.") +
		"\nWrite the section as final proposal prose in markdown." + limit + " " + t.deps.languageInstruction()

	text, err := generateText(ctx, t.deps.Gateway, llm.Request{
		System: "You are an experienced proposal writer.",
		Parts:  []llm.Part{llm.TextPart(prompt)},
		Label:  "tool:" + DraftToolName,
	})
	if err != nil {
		return ToolResult{}, err
	}
	return SuccessResult(DraftPayload{Section: name, Content: text, WordCount: len(strings.Fields(text))}), nil
}

// ReviewTool reviews one proposal section.
type ReviewTool struct {
	deps Deps
}

// NewReviewTool creates the section review tool.
func NewReviewTool(deps Deps) *ReviewTool {
	return &ReviewTool{deps: deps.withDefaults()}
}

// Metadata returns the tool metadata.
func (t *ReviewTool) Metadata() ToolMetadata {
	return ToolMetadata{
		Name:        ReviewToolName,
		Description: "Review a written proposal section against the grant requirements, listing strengths, weaknesses, inconsistencies and concrete suggestions. Requires the section text.",
		Parameters: []ToolParameter{
			{Name: "sectionText", ParamType: "string", Description: "The section text to review", Required: true},
			{Name: "sectionName", ParamType: "string", Description: "Section name", Required: false},
			{Name: "requirements", ParamType: "string", Description: "Grant requirements", Required: false},
		},
		Group:      GroupCreation,
		Specialist: ArchitectSpecialist,
	}
}

// ReviewPayload is the structured review.
type ReviewPayload struct {
	Section         string   `json:"section"`
	Strengths       []string `json:"strengths"`
	Weaknesses      []string `json:"weaknesses"`
	Inconsistencies []string `json:"inconsistencies"`
	Suggestions     []string `json:"suggestions"`
}

// Execute reviews the section.
func (t *ReviewTool) Execute(ctx context.Context, params Params) (ToolResult, error) {
	content := params.Contents("sectionText", "content", "text", "draft", "sectionContent")
	if len(content) == 0 {
		return FailureResultf("the section text is required: pass the text to review in sectionText or attach it as a file"), nil
	}
	name := params.String("sectionName", "section", "sectionTitle")

	parts := []llm.Part{llm.TextPart(section("Section", name, "(unnamed section)") + "## Section text")}
	parts = append(parts, Parts(content)...)
	parts = append(parts, llm.TextPart(
		section("Grant requirements", params.String(requirementsAliases...), "(generic default) Standard Horizon Europe evaluation criteria.")+
			"\nReview critically. "+t.deps.languageInstruction()))

	out, err := generateJSON[ReviewPayload](ctx, t.deps.Gateway, llm.Request{
		System: "You are a demanding grant reviewer.",
		Parts:  parts,
		Format: llm.NewJSONSchemaFormat("section_review", reviewSchema),
		Label:  "tool:" + ReviewToolName,
	})
	if err != nil {
		return ToolResult{}, err
	}
	out.Section = name
	return SuccessResult(out), nil
}
