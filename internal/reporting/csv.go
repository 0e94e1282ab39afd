package reporting

import (
	"fmt"
	"strings"
)

// RenderDailyCSV renders the daily table of a run as CSV string.
func RenderDailyCSV(rows []DailyRow) string {
	var sb strings.Builder

	// Header
	sb.WriteString("date,weekday,day_of_month,sale_price,competitor_price,discount_pct,units,revenue,is_peak,is_event\n")

	// Rows
	for _, d := range rows {
		sb.WriteString(fmt.Sprintf("%s,%s,%d,%s,%s,%.6f,%.6f,%s,%t,%t\n",
			d.Date.Format(dateLayout),
			d.Weekday,
			d.DayOfMonth,
			money(d.SalePrice),
			money(d.CompetitorPrice),
			d.DiscountPct,
			d.Units,
			money(d.Revenue),
			d.IsPeak,
			d.IsEvent,
		))
	}

	return sb.String()
}

// RenderComparisonCSV renders comparison rows as CSV string.
func RenderComparisonCSV(c *ComparisonSection) string {
	var sb strings.Builder

	sb.WriteString("comparison_id,competition,discount_pct,total_units,total_revenue,mean_sale_price,delta_units,delta_revenue\n")
	for _, row := range c.Rows {
		sb.WriteString(fmt.Sprintf("%s,%s,%.6f,%.6f,%s,%s,%.6f,%s\n",
			c.ComparisonID,
			row.Competition,
			c.DiscountPct,
			row.TotalUnits,
			money(row.TotalRevenue),
			money(row.MeanSalePrice),
			row.DeltaUnits,
			money(row.DeltaRevenue),
		))
	}

	return sb.String()
}
