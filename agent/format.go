// Tool result pre-formatting.
//
// Search, validation and adaptation results are rendered to markdown here
// so the synthesis call only has to repeat them. Every other result is
// passed through as JSON.
//
// Information Hiding:
// - Table layout and cell sanitizing hidden
// - Score scale normalization for display hidden

package agent

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/richinex/drwin/scoring"
	"github.com/richinex/drwin/tools"
)

// MaxCellRunes bounds adaptation table cells.
const MaxCellRunes = 160

// formatResult renders one result block for the synthesis prompt.
func formatResult(r tools.ToolResult) string {
	header := "### " + r.Tool
	if s := r.Specialist.String(); s != "" {
		header += " (" + s + ")"
	}
	header += "\n"

	if !r.Success() {
		return header + "Status: failed\n" + jsonBlock(r)
	}
	switch p := r.Payload.(type) {
	case tools.SearchPayload:
		return header + "Pre-formatted, present verbatim:\n\n" + FormatSearch(p)
	case tools.ValidatePayload:
		return header + "Pre-formatted, scores first, present verbatim:\n\n" + FormatValidation(p)
	case tools.AdaptationPayload:
		return header + "Pre-formatted, present the table verbatim:\n\n" + FormatAdaptation(p)
	default:
		return header + jsonBlock(r)
	}
}

func jsonBlock(v any) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("(unrenderable result: %v)\n", err)
	}
	return "```json\n" + string(data) + "\n```\n"
}

// FormatSearch renders discovery results as a table. Every row carries a
// link.
func FormatSearch(p tools.SearchPayload) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Keywords: %s\n", strings.Join(p.Keywords, ", "))
	if len(p.TranslatedKeywords) > 0 || len(p.RelatedKeywords) > 0 {
		fmt.Fprintf(&b, "Expanded keywords: %s\n", strings.Join(append(append([]string(nil), p.TranslatedKeywords...), p.RelatedKeywords...), ", "))
	}
	fmt.Fprintf(&b, "Sources searched: %s\n", joinOrNone(p.SearchedSources))
	if len(p.FailedSources) > 0 {
		fmt.Fprintf(&b, "Sources unavailable: %s\n", strings.Join(p.FailedSources, ", "))
	}
	b.WriteString("\n")

	if len(p.Opportunities) == 0 {
		b.WriteString("No open opportunities matched these keywords.\n")
		return b.String()
	}
	fmt.Fprintf(&b, "Showing %d of %d open opportunities.\n\n", len(p.Opportunities), p.TotalFound)
	b.WriteString("| # | Title | Source | Deadline | Budget | URL |\n")
	b.WriteString("|---|---|---|---|---|---|\n")
	for i, o := range p.Opportunities {
		link := "-"
		if u := strings.ReplaceAll(strings.TrimSpace(o.URL), "|", "%7C"); u != "" {
			link = "[" + u + "](" + u + ")"
		}
		fmt.Fprintf(&b, "| %d | %s | %s | %s | %s | %s |\n", i+1,
			cell(o.Title, MaxCellRunes), cell(o.Source, 40), cellOr(o.DeadlineDate, "not stated"),
			cellOr(o.Budget, "not stated"), link)
	}
	return b.String()
}

// FormatValidation renders the scores block ahead of the narrative. Scores
// on a 0-10 scale are shown on 0-100.
func FormatValidation(p tools.ValidatePayload) string {
	var b strings.Builder
	fmt.Fprintf(&b, "**Overall eligibility score: %s/100**\n\n", scoreText(scoring.NormalizeScale(p.OverallScore)))
	if len(p.Criteria) > 0 {
		b.WriteString("| Criterion | Weight | Score |\n|---|---|---|\n")
		for _, c := range p.Criteria {
			fmt.Fprintf(&b, "| %s | %s | %s/100 |\n", cell(c.Name, 60), scoreText(c.Weight), scoreText(scoring.NormalizeScale(c.Score)))
		}
		b.WriteString("\n")
	}
	if p.ImprovementPlan != nil && p.ImprovementPlan.ProjectedScore > 0 {
		fmt.Fprintf(&b, "**Projected score after improvements: %s/100**\n\n", scoreText(scoring.NormalizeScale(p.ImprovementPlan.ProjectedScore)))
	}
	if p.CallTitle != "" || p.CallURL != "" {
		fmt.Fprintf(&b, "Call: %s %s\n\n", p.CallTitle, p.CallURL)
	}
	if p.SuggestedRole != "" {
		fmt.Fprintf(&b, "Suggested role: %s\n\n", p.SuggestedRole)
	}
	if p.CallSummary != "" {
		fmt.Fprintf(&b, "Call summary: %s\n\n", strings.TrimSpace(p.CallSummary))
	}
	fmt.Fprintf(&b, "Justification: %s\n", strings.TrimSpace(p.Justification))
	for _, c := range p.Criteria {
		if c.Reasoning != "" {
			fmt.Fprintf(&b, "- %s: %s\n", c.Name, strings.TrimSpace(c.Reasoning))
		}
	}
	if p.ImprovementPlan != nil && len(p.ImprovementPlan.Steps) > 0 {
		b.WriteString("\nImprovement plan:\n")
		for i, s := range p.ImprovementPlan.Steps {
			fmt.Fprintf(&b, "%d. %s\n", i+1, strings.TrimSpace(s))
		}
	}
	return b.String()
}

// FormatAdaptation renders the action plan and the before/after table.
func FormatAdaptation(p tools.AdaptationPayload) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Mode: %s\n\n", p.Mode)
	if p.ActionPlan != "" {
		fmt.Fprintf(&b, "Action plan: %s\n\n", strings.TrimSpace(p.ActionPlan))
	}
	if len(p.KeyChanges) > 0 {
		b.WriteString("Key changes:\n")
		for i, c := range p.KeyChanges {
			fmt.Fprintf(&b, "%d. %s\n", i+1, strings.TrimSpace(c))
		}
		b.WriteString("\n")
	}
	if len(p.ComparisonReport) > 0 {
		b.WriteString("| Section | Original | Adapted | Reason |\n|---|---|---|---|\n")
		for _, r := range p.ComparisonReport {
			fmt.Fprintf(&b, "| %s | %s | %s | %s |\n",
				cell(r.Section, MaxCellRunes), cell(r.Original, MaxCellRunes),
				cell(r.Adapted, MaxCellRunes), cell(r.Reason, MaxCellRunes))
		}
	}
	return b.String()
}

// cell sanitizes text for a markdown table cell: whitespace runs collapse
// to one space, backslashes and pipes are escaped, and text longer than
// limit runes is cut with an ellipsis.
func cell(s string, limit int) string {
	s = strings.Join(strings.Fields(s), " ")
	if r := []rune(s); len(r) > limit {
		s = strings.TrimSpace(string(r[:limit-1])) + "…"
	}
	return cellEscaper.Replace(s)
}

var cellEscaper = strings.NewReplacer(`\`, `\\`, "|", `\|`)

func cellOr(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return cell(s, 40)
}

func joinOrNone(s []string) string {
	if len(s) == 0 {
		return "none"
	}
	return strings.Join(s, ", ")
}

func scoreText(v float64) string {
	return strconv.FormatFloat(math.Round(v*10)/10, 'f', -1, 64)
}
