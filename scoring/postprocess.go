package scoring

import (
	"fmt"
	"math"
	"strings"
)

const (
	domainCeiling       = 30.0
	domainOverallCap    = 25.0
	domainMidThreshold  = 40.0
	overallMidThreshold = 40.0
	domainMargin        = 15.0
	highOverall         = 80.0
	mismatchOverallCap  = 40.0
	recomputeTolerance  = 5.0
)

// Rule identifiers reported in Correction.Rule.
const (
	RuleDomainCeiling   = "domain_ceiling"
	RuleRecompute       = "weighted_recompute"
	RuleDomainGate      = "domain_gate"
	RuleDomainMargin    = "domain_margin"
	RuleMismatchOverall = "mismatch_overall"
)

// mismatchPhrases indicate the model itself saw a domain mismatch.
var mismatchPhrases = []string{
	"domain mismatch",
	"sector mismatch",
	"different domain",
	"different sector",
	"different field",
	"unrelated domain",
	"unrelated sector",
	"not aligned",
	"misaligned",
	"no alignment",
	"lack of alignment",
	"superficial",
	"keyword overlap",
	"outside the scope",
	"out of scope",
	"does not match the call",
	"no coincide",
	"desalineado",
	"no está alineado",
	"no esta alineado",
	"sector diferente",
	"dominio diferente",
	"fuera del ámbito",
	"fuera del ambito",
	"coincidencia superficial",
}

// domainKeywords identify the domain/sector alignment criterion by name.
var domainKeywords = []string{"domain", "sector", "alignment", "dominio", "alineación", "alineacion"}

// Correction records one rule that fired.
type Correction struct {
	Rule   string  `json:"rule"`
	Before float64 `json:"before"`
	After  float64 `json:"after"`
	Note   string  `json:"note"`
}

// Correct applies the score consistency rules in order and returns the
// corrected analysis plus the corrections that fired. Every correction
// appends an audit note to the justification. Correct is a fixed point:
// running it on its own output changes nothing.
func Correct(in Analysis) (Analysis, []Correction) {
	a := in.Clone()
	var fired []Correction
	record := func(c Correction) {
		fired = append(fired, c)
		a.Justification = appendAudit(a.Justification, c.Note)
	}

	domain := domainCriterion(a.Criteria)

	// 1. Domain criterion ceiling when a mismatch is acknowledged.
	if domain >= 0 {
		d := &a.Criteria[domain]
		if d.Score > domainCeiling && (containsMismatch(d.Reasoning) || containsMismatch(a.Justification)) {
			c := Correction{
				Rule:   RuleDomainCeiling,
				Before: d.Score,
				After:  domainCeiling,
				Note: fmt.Sprintf("%s score lowered from %s to %s because a domain mismatch was identified",
					d.Name, formatScore(d.Score), formatScore(domainCeiling)),
			}
			d.Score = domainCeiling
			record(c)
		}
	}

	// 2. Weighted recompute. Skipped when the reported score is one the
	// caps could have produced from a value within tolerance of the
	// recomputed score, so a capped score does not climb back up.
	if recomputed, ok := weightedScore(a.Criteria); ok && !consistentOverall(a.OverallScore, recomputed, a.Criteria, domain) {
		c := Correction{
			Rule:   RuleRecompute,
			Before: a.OverallScore,
			After:  recomputed,
			Note: fmt.Sprintf("overall score recalculated from %s to %s to match the weighted criteria",
				formatScore(a.OverallScore), formatScore(recomputed)),
		}
		a.OverallScore = recomputed
		record(c)
	}

	if domain < 0 {
		applyMismatchCap(&a, record)
		return a, fired
	}
	d := a.Criteria[domain].Score

	// 3. Low domain score gates the overall score.
	if d <= domainCeiling && a.OverallScore > domainOverallCap {
		record(Correction{
			Rule:   RuleDomainGate,
			Before: a.OverallScore,
			After:  domainOverallCap,
			Note: fmt.Sprintf("overall score capped at %s because domain alignment is %s",
				formatScore(domainOverallCap), formatScore(d)),
		})
		a.OverallScore = domainOverallCap
	}

	// 4. Overall may not exceed a weak domain score by more than the margin.
	if d < domainMidThreshold && a.OverallScore > overallMidThreshold && a.OverallScore > d+domainMargin {
		limit := d + domainMargin
		record(Correction{
			Rule:   RuleDomainMargin,
			Before: a.OverallScore,
			After:  limit,
			Note: fmt.Sprintf("overall score capped at %s because domain alignment is only %s",
				formatScore(limit), formatScore(d)),
		})
		a.OverallScore = limit
	}

	// 5. High overall score contradicted by criterion reasoning.
	applyMismatchCap(&a, record)
	return a, fired
}

func applyMismatchCap(a *Analysis, record func(Correction)) {
	if a.OverallScore > highOverall && anyCriterionMismatch(a.Criteria) {
		record(Correction{
			Rule:   RuleMismatchOverall,
			Before: a.OverallScore,
			After:  mismatchOverallCap,
			Note: fmt.Sprintf("overall score capped at %s because criterion reasoning reports a mismatch",
				formatScore(mismatchOverallCap)),
		})
		a.OverallScore = mismatchOverallCap
	}
}

// consistentOverall reports whether reported agrees with the weighted
// score. Each cap replaces every value above its threshold with one
// constant, so the capped image of [recomputed-tol, recomputed+tol] is
// either a value within tolerance or applyCaps of the upper bound.
func consistentOverall(reported, recomputed float64, criteria []Criterion, domain int) bool {
	if math.Abs(recomputed-reported) <= recomputeTolerance {
		return true
	}
	return applyCaps(recomputed+recomputeTolerance, criteria, domain) == reported
}

// applyCaps returns score after rules 3-5 without recording anything.
func applyCaps(score float64, criteria []Criterion, domain int) float64 {
	if domain >= 0 {
		d := criteria[domain].Score
		if d <= domainCeiling && score > domainOverallCap {
			score = domainOverallCap
		}
		if d < domainMidThreshold && score > overallMidThreshold && score > d+domainMargin {
			score = d + domainMargin
		}
	}
	if score > highOverall && anyCriterionMismatch(criteria) {
		score = mismatchOverallCap
	}
	return score
}

// weightedScore returns the weight-normalized criteria score rounded to an
// integer. Returns false when there are no positive weights.
func weightedScore(criteria []Criterion) (float64, bool) {
	var total, sum float64
	for _, c := range criteria {
		if c.Weight <= 0 {
			continue
		}
		total += c.Weight
		sum += c.Weight * c.Score
	}
	if total == 0 {
		return 0, false
	}
	return math.Round(sum / total), true
}

// domainCriterion returns the index of the domain/sector alignment criterion, or -1.
func domainCriterion(criteria []Criterion) int {
	for i, c := range criteria {
		name := strings.ToLower(c.Name)
		for _, kw := range domainKeywords {
			if strings.Contains(name, kw) {
				return i
			}
		}
	}
	return -1
}

func anyCriterionMismatch(criteria []Criterion) bool {
	for _, c := range criteria {
		if containsMismatch(c.Reasoning) {
			return true
		}
	}
	return false
}

func containsMismatch(text string) bool {
	lower := strings.ToLower(text)
	for _, p := range mismatchPhrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

func appendAudit(justification, note string) string {
	audit := "[Score audit: " + note + "]"
	if justification == "" {
		return audit
	}
	return justification + " " + audit
}

func formatScore(v float64) string {
	if v == math.Trunc(v) {
		return fmt.Sprintf("%.0f", v)
	}
	return fmt.Sprintf("%.1f", v)
}
