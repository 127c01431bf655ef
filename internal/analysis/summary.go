package analysis

import (
	"fmt"
	"strings"

	"github.com/sprite-ai/claimassess/internal/model"
)

// BySeverity groups details by their severity, preserving order.
func BySeverity(details []model.DamageDetail) map[model.Severity][]model.DamageDetail {
	m := make(map[model.Severity][]model.DamageDetail)
	for _, d := range details {
		m[d.Severity] = append(m[d.Severity], d)
	}
	return m
}

// MaxSeverity returns the worst severity among the details.
func MaxSeverity(details []model.DamageDetail) model.Severity {
	max := model.SeverityUnknown
	for _, d := range details {
		if d.Severity > max {
			max = d.Severity
		}
	}
	return max
}

// Summary returns a one-line description of an assessment.
func Summary(res *model.AnalysisResult) string {
	if res == nil {
		return "No analysis available"
	}
	if !res.DamageDetected || len(res.DamageDetails) == 0 {
		return "No damage detected"
	}

	groups := BySeverity(res.DamageDetails)
	var parts []string
	for _, sev := range []model.Severity{model.SeveritySevere, model.SeverityModerate, model.SeverityMinor} {
		if n := len(groups[sev]); n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, sev))
		}
	}

	return fmt.Sprintf("%s overall, %s, %s over %d days",
		res.DamageSeverity, strings.Join(parts, ", "),
		model.FormatCost(res.RepairEstimate), res.EstimatedRepairTime)
}
