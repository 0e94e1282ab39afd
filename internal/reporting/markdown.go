package reporting

import (
	"fmt"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// RenderMarkdown renders report as Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString("# Sales Forecast Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	if r.ProductName != "" {
		sb.WriteString(fmt.Sprintf("Product: %s (%s)\n\n", r.ProductName, r.ProductID))
	} else {
		sb.WriteString(fmt.Sprintf("Product: %s\n\n", r.ProductID))
	}

	if r.Run != nil {
		renderRun(&sb, r)
	}

	// Comparison
	if r.Comparison != nil {
		c := r.Comparison
		sb.WriteString("## Competition Scenarios\n\n")
		sb.WriteString(fmt.Sprintf("Discount: %s | Comparison: %s\n\n", percent(c.DiscountPct), c.ComparisonID))
		sb.WriteString("| Scenario | Units | Revenue | Mean Price | Peak Units | Δ Units | Δ Revenue |\n")
		sb.WriteString("|----------|-------|---------|------------|------------|---------|-----------|\n")
		for _, row := range c.Rows {
			deltaUnits, deltaRevenue := "-", "-"
			if !row.IsBaseline {
				deltaUnits = signedUnits(row.DeltaUnits)
				deltaRevenue = signedMoney(row.DeltaRevenue)
			}
			sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %s | %s | %s |\n",
				row.Label, units(row.TotalUnits), money(row.TotalRevenue), money(row.MeanSalePrice),
				units(row.PeakUnits), deltaUnits, deltaRevenue))
		}
		sb.WriteString("\n")
	}

	// Data Quality
	dq := r.DataQuality
	if len(dq.SufficiencyChecks) > 0 || len(dq.IntegrityErrors) > 0 {
		sb.WriteString("## Data Quality\n\n")
	}
	if len(dq.SufficiencyChecks) > 0 {
		sb.WriteString("### Sufficiency Checks\n\n")
		sb.WriteString("| Check | Threshold | Actual | Status |\n")
		sb.WriteString("|-------|-----------|--------|--------|\n")
		for _, check := range dq.SufficiencyChecks {
			status := "FAIL"
			if check.Pass {
				status = "PASS"
			}
			sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s |\n",
				check.Name, check.Threshold, check.Actual, status))
		}
		sb.WriteString("\n")
		if dq.AllChecksPassed {
			sb.WriteString("**All checks passed.**\n\n")
		} else {
			sb.WriteString("**Some checks failed.** Treat the forecast with caution.\n\n")
		}
	}

	// Integrity errors (always shown if present, even without sufficiency checks)
	if len(dq.IntegrityErrors) > 0 {
		sb.WriteString("### Integrity Errors\n\n")
		for _, err := range dq.IntegrityErrors {
			sb.WriteString(fmt.Sprintf("- %s\n", err))
		}
		sb.WriteString("\n")
	}

	// Reproducibility
	if rp := r.Reproducibility; rp != nil {
		sb.WriteString("## Reproducibility\n\n")
		sb.WriteString("| Field | Value |\n")
		sb.WriteString("|-------|-------|\n")
		sb.WriteString(fmt.Sprintf("| Generator Version | %s |\n", rp.GeneratorVersion))
		sb.WriteString(fmt.Sprintf("| Data Version | %s |\n", rp.DataVersion))
		sb.WriteString(fmt.Sprintf("| Commit | %s |\n", rp.CommitHash))
		sb.WriteString(fmt.Sprintf("| Verify | `%s` |\n", rp.VerifyCommand))
		sb.WriteString("\n")
	}

	return sb.String()
}

func renderRun(sb *strings.Builder, r *Report) {
	run := r.Run

	sb.WriteString("## Run\n\n")
	sb.WriteString("| Field | Value |\n")
	sb.WriteString("|-------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Run ID | %s |\n", run.RunID))
	sb.WriteString(fmt.Sprintf("| Scenario | %s |\n", run.Scenario))
	sb.WriteString(fmt.Sprintf("| Discount | %s |\n", percent(run.DiscountPct)))
	sb.WriteString(fmt.Sprintf("| Model | %s %s |\n", run.ModelName, run.ModelVersion))
	sb.WriteString(fmt.Sprintf("| Horizon | %s .. %s |\n", run.HorizonStart.Format(dateLayout), run.HorizonEnd.Format(dateLayout)))
	sb.WriteString("\n")

	// KPIs
	k := run.KPIs
	sb.WriteString("## KPIs\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Total Units | %s |\n", units(k.TotalUnits)))
	sb.WriteString(fmt.Sprintf("| Total Revenue | %s |\n", money(k.TotalRevenue)))
	sb.WriteString(fmt.Sprintf("| Mean Sale Price | %s |\n", money(k.MeanSalePrice)))
	sb.WriteString(fmt.Sprintf("| Mean Discount | %s |\n", percent(k.MeanDiscountPct)))
	sb.WriteString(fmt.Sprintf("| Units P10 / Median / P90 | %s / %s / %s |\n", units(k.UnitsP10), units(k.UnitsMedian), units(k.UnitsP90)))
	sb.WriteString(fmt.Sprintf("| Clamped Days | %d |\n", k.ClampedDays))
	sb.WriteString("\n")

	// Highlights
	if run.Peak != nil || run.Event != nil {
		sb.WriteString("## Highlights\n\n")
		if run.Peak != nil {
			sb.WriteString(fmt.Sprintf("- Peak day: %s (%s), %s units, revenue %s\n",
				run.Peak.Date.Format(dateLayout), run.Peak.Weekday, units(run.Peak.Units), money(run.Peak.Revenue)))
		}
		if run.Event != nil {
			sb.WriteString(fmt.Sprintf("- %s: %s (%s), %s units, revenue %s\n",
				r.EventLabel, run.Event.Date.Format(dateLayout), run.Event.Weekday, units(run.Event.Units), money(run.Event.Revenue)))
		}
		sb.WriteString("\n")
	}

	// Daily table
	sb.WriteString("## Daily Forecast\n\n")
	if len(run.Days) == 0 {
		sb.WriteString("No days available.\n\n")
		return
	}
	sb.WriteString("| Date | Weekday | Sale Price | Competitor Price | Discount | Units | Revenue | Note |\n")
	sb.WriteString("|------|---------|------------|------------------|----------|-------|---------|------|\n")
	for _, d := range run.Days {
		var notes []string
		if d.IsPeak {
			notes = append(notes, "peak")
		}
		if d.IsEvent {
			notes = append(notes, r.EventLabel)
		}
		sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %s | %s | %s | %s |\n",
			d.Date.Format(dateLayout), d.Weekday, money(d.SalePrice), money(d.CompetitorPrice),
			percent(d.DiscountPct), units(d.Units), money(d.Revenue), strings.Join(notes, ", ")))
	}
	sb.WriteString("\n")
}
