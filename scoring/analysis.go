// Package scoring holds the eligibility analysis model and the deterministic
// correction pass applied to model-produced scores.
package scoring

// Criterion is one weighted rubric line of an eligibility analysis.
type Criterion struct {
	Name      string  `json:"criterion"`
	Weight    float64 `json:"weight"`
	Score     float64 `json:"score"`
	Reasoning string  `json:"reasoning"`
}

// ImprovementPlan is an optional set of steps with a projected score.
type ImprovementPlan struct {
	Steps          []string `json:"steps"`
	ProjectedScore float64  `json:"projectedScore"`
}

// Analysis is the payload of the eligibility validation tool.
type Analysis struct {
	CallSummary     string           `json:"callSummary,omitempty"`
	OverallScore    float64          `json:"overallScore"`
	Justification   string           `json:"justification"`
	SuggestedRole   string           `json:"suggestedRole"`
	Criteria        []Criterion      `json:"criteria"`
	ImprovementPlan *ImprovementPlan `json:"improvementPlan,omitempty"`
}

// Clone returns a deep copy so corrections never alias the input.
func (a Analysis) Clone() Analysis {
	out := a
	out.Criteria = append([]Criterion(nil), a.Criteria...)
	if a.ImprovementPlan != nil {
		plan := *a.ImprovementPlan
		plan.Steps = append([]string(nil), a.ImprovementPlan.Steps...)
		out.ImprovementPlan = &plan
	}
	return out
}

// NormalizeScale maps scores in (0, 10] onto the 0-100 range. Values above 10
// and non-positive values are returned unchanged. A genuine 10/100 is
// indistinguishable from 10/10 and is scaled to 100.
func NormalizeScale(score float64) float64 {
	if score > 0 && score <= 10 {
		return score * 10
	}
	return score
}
