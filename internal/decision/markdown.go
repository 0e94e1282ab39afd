package decision

import (
	"fmt"
	"strings"
)

// RenderMarkdown renders a gate Report as Markdown string.
func RenderMarkdown(report *Report) string {
	var sb strings.Builder

	sb.WriteString("# Discount Decision Report\n\n")
	sb.WriteString(fmt.Sprintf("Product: %s\n\n", report.ProductID))

	// Overview
	sb.WriteString("## Candidates\n\n")
	sb.WriteString("| Discount | Units | Revenue | Uplift | Lower-scenario uplift | Decision |\n")
	sb.WriteString("|----------|-------|---------|--------|-----------------------|----------|\n")
	for _, r := range report.Results {
		in := r.Input
		sb.WriteString(fmt.Sprintf("| %+g%% | %.1f | %.2f | %+.2f%% | %+.2f%% | %s |\n",
			in.DiscountPct, in.ActualUnits, in.ActualRevenue,
			in.RevenueUpliftPct(), in.LowerRevenueUpliftPct(), r.Decision))
	}
	sb.WriteString("\n")

	for _, r := range report.Results {
		renderResult(&sb, r)
	}

	// Summary
	sb.WriteString("## Summary\n\n")
	if rec := report.Recommended; rec != nil {
		sb.WriteString(fmt.Sprintf("Recommended discount: %+g%% (revenue uplift %+.2f%%, comparison %s).\n",
			rec.Input.DiscountPct, rec.Input.RevenueUpliftPct(), rec.Input.ComparisonID))
	} else {
		sb.WriteString("No discount passed the gate; keep the base price.\n")
	}

	return sb.String()
}

func renderResult(sb *strings.Builder, result *DecisionResult) {
	sb.WriteString(fmt.Sprintf("## Discount %+g%%: %s\n\n", result.Input.DiscountPct, result.Decision))

	// GO Criteria table
	sb.WriteString("### GO Criteria\n\n")
	sb.WriteString("| # | Criterion | Threshold | Actual | Pass |\n")
	sb.WriteString("|---|-----------|-----------|--------|------|\n")
	goPassed := 0
	for i, c := range result.GOCriteria {
		passStr := "PASS"
		if c.Pass {
			goPassed++
		} else {
			passStr = "FAIL"
		}
		sb.WriteString(fmt.Sprintf("| %d | %s | %s | %s | %s |\n",
			i+1, c.Name, c.Threshold, c.Actual, passStr))
	}
	sb.WriteString(fmt.Sprintf("\nGO Criteria: %d/%d passed\n\n", goPassed, len(result.GOCriteria)))

	// NO-GO Triggers table
	sb.WriteString("### NO-GO Triggers\n\n")
	sb.WriteString("| # | Trigger | Condition | Actual | Status |\n")
	sb.WriteString("|---|---------|-----------|--------|--------|\n")
	nogoTriggered := 0
	for i, c := range result.NOGOChecks {
		statusStr := "NOT TRIGGERED"
		if !c.Pass { // Pass=false means triggered
			statusStr = "TRIGGERED"
			nogoTriggered++
		}
		sb.WriteString(fmt.Sprintf("| %d | %s | %s | %s | %s |\n",
			i+1, c.Name, c.Threshold, c.Actual, statusStr))
	}
	sb.WriteString(fmt.Sprintf("\nNO-GO Triggers: %d/%d triggered\n\n", nogoTriggered, len(result.NOGOChecks)))
}
