// Prompt construction for both phases of a turn.
//
// Information Hiding:
// - System instruction wording hidden
// - History windowing and rendering hidden
// - Attachment part encoding hidden

package agent

import (
	"fmt"
	"strings"

	"github.com/richinex/drwin/llm"
	"github.com/richinex/drwin/model"
	"github.com/richinex/drwin/tools"
)

const directiveFormat = "To use a tool, reply with exactly one fenced block tagged `tool` per call, containing a single JSON object:\n\n" +
	"```tool\n{\"tool\": \"<tool name>\", \"params\": { ... }}\n```\n\n" +
	"Use only the tool names listed above. You may emit several blocks when independent tools are needed. " +
	"Outside the blocks, write at most one short sentence announcing what you are doing."

var behaviourRules = []string{
	"If the user confirms they are ready (\"yes\", \"go ahead\", \"adelante\"), call " + tools.ConceptToolName + " immediately with the information already present in the conversation instead of asking again.",
	"When the user asks for only international or only national funding, set fundingTypes so the other category is false.",
	"Infer search keywords from the user's project, including close synonyms of its domain.",
	"Files the user attaches are forwarded to the tool automatically; do not copy their content into params.",
	"Never invent funding calls, deadlines or URLs.",
	"Answer plainly, without any tool block, when no tool is needed.",
}

// systemInstruction renders the turn-1 instruction from the registry.
func (a *Agent) systemInstruction() string {
	var b strings.Builder
	b.WriteString(a.config.Persona)
	b.WriteString("\n\nAvailable tools:\n\n")
	b.WriteString(a.executor.Registry().Description())
	b.WriteString("\n")
	b.WriteString(directiveFormat)
	b.WriteString("\n\nRules:\n")
	for _, r := range behaviourRules {
		fmt.Fprintf(&b, "- %s\n", r)
	}
	b.WriteString("- " + a.languageRule())
	return b.String()
}

func (a *Agent) languageRule() string {
	if a.config.spanish() {
		return "Reply in Spanish."
	}
	return "Reply in the user's language; default to English."
}

// window returns the most recent n messages.
func window(history []model.ConversationMessage, n int) []model.ConversationMessage {
	if n <= 0 {
		return nil
	}
	if len(history) > n {
		return history[len(history)-n:]
	}
	return history
}

// renderHistory renders messages as role-labeled plain text.
func renderHistory(history []model.ConversationMessage) string {
	var b strings.Builder
	for _, m := range history {
		label := "User"
		if m.Role == model.RoleModel {
			label = "Dr. Win"
		}
		fmt.Fprintf(&b, "%s: %s\n", label, strings.TrimSpace(m.Text))
		for _, att := range m.Attachments {
			fmt.Fprintf(&b, "  [attached: %s]\n", attachmentName(att))
		}
	}
	return b.String()
}

// turnParts builds the turn-1 content: history, user text, attachments.
func turnParts(history []model.ConversationMessage, text string, attachments []model.Attachment) []llm.Part {
	parts := make([]llm.Part, 0, 2+2*len(attachments))
	if h := renderHistory(history); h != "" {
		parts = append(parts, llm.TextPart("Conversation so far:\n"+h))
	}
	parts = append(parts, llm.TextPart("User: "+text))
	for _, att := range attachments {
		if att.Data == "" {
			continue
		}
		parts = append(parts, llm.TextPart("Attached file: "+attachmentName(att)))
		parts = append(parts, llm.BlobPart(attachmentMIME(att), att.Data))
	}
	return parts
}

func attachmentName(att model.Attachment) string {
	if att.Name != "" {
		return att.Name
	}
	return "unnamed file"
}

func attachmentMIME(att model.Attachment) string {
	if att.MIMEType != "" {
		return att.MIMEType
	}
	return "application/octet-stream"
}

const synthesisInstruction = `You are writing the final answer of this turn from your specialists' results.
- Present every pre-formatted table exactly as given, including every URL. Never summarize links away.
- For eligibility validation, show the scores section first and only then the narrative explanation.
- If a tool failed, explain in plain words what went wrong and what the user can provide to fix it.
- Do not emit tool blocks.`

// synthesisRequest builds the turn-2 request.
func (a *Agent) synthesisRequest(firstReply string, results []tools.ToolResult) llm.Request {
	var b strings.Builder
	b.WriteString("## Your previous reply\n")
	b.WriteString(strings.TrimSpace(firstReply))
	b.WriteString("\n\n## Specialists consulted\n")
	b.WriteString(attribution(results, a.config.spanish()))
	b.WriteString("\n\n## Tool results\n\n")
	for _, r := range results {
		b.WriteString(formatResult(r))
		b.WriteString("\n")
	}
	return llm.Request{
		System: a.config.Persona + "\n\n" + synthesisInstruction + "\n- " + a.languageRule(),
		Parts:  []llm.Part{llm.TextPart(b.String())},
		Label:  "agent:synthesis",
	}
}

// attribution renders the specialist narrative, one specialist per line.
func attribution(results []tools.ToolResult, spanish bool) string {
	var lines []string
	seen := make(map[string]bool)
	for _, r := range results {
		who := r.Specialist.String()
		if who == "" || seen[who+r.Tool] {
			continue
		}
		seen[who+r.Tool] = true
		if spanish {
			lines = append(lines, fmt.Sprintf("Me comuniqué con el especialista %s para ejecutar %s.", who, r.Tool))
		} else {
			lines = append(lines, fmt.Sprintf("I communicated with specialist %s to run %s.", who, r.Tool))
		}
	}
	return strings.Join(lines, "\n")
}
