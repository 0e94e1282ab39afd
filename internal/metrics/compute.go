package metrics

import (
	"math"
	"sort"
	"time"

	"sales-forecast-lab/internal/domain"
)

// daySample is the subset of a processed day needed for aggregation.
type daySample struct {
	date    time.Time
	raw     float64
	units   float64
	price   float64
	disc    float64
	revenue float64
}

// ComputeSummary calculates run-level aggregates over processed days.
// Days must be in horizon order; the peak is the first day with the highest prediction.
func ComputeSummary(days []domain.DayRecord) domain.ForecastSummary {
	samples := make([]daySample, len(days))
	for i := range days {
		d := &days[i]
		samples[i] = daySample{
			date:    d.Date,
			raw:     d.RawPrediction,
			units:   d.PredictedUnits,
			price:   d.SalePrice,
			disc:    d.DiscountPct,
			revenue: d.ProjectedRevenue,
		}
	}
	return computeFromSamples(samples)
}

// SummaryFromPoints calculates the same aggregates from persisted day points.
// Points are ordered by date before aggregation.
func SummaryFromPoints(points []*domain.ForecastDayPoint) domain.ForecastSummary {
	sorted := make([]*domain.ForecastDayPoint, len(points))
	copy(sorted, points)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})

	samples := make([]daySample, len(sorted))
	for i, p := range sorted {
		samples[i] = daySample{
			date:    p.Date,
			raw:     p.RawPrediction,
			units:   p.PredictedUnits,
			price:   p.SalePrice,
			disc:    p.DiscountPct,
			revenue: p.ProjectedRevenue,
		}
	}
	return computeFromSamples(samples)
}

func computeFromSamples(samples []daySample) domain.ForecastSummary {
	n := len(samples)
	if n == 0 {
		return domain.ForecastSummary{}
	}

	s := domain.ForecastSummary{DayCount: n}
	units := make([]float64, n)
	prices := make([]float64, n)
	discs := make([]float64, n)

	for i, d := range samples {
		s.TotalUnits += d.units
		s.TotalRevenue += d.revenue
		units[i] = d.units
		prices[i] = d.price
		discs[i] = d.disc

		if i == 0 || d.units > s.PeakUnits {
			s.PeakUnits = d.units
			s.PeakDate = d.date
		}
		if d.raw < 0 {
			s.ClampedDays++
		}
	}

	s.MeanSalePrice = computeMean(prices)
	s.MeanDiscountPct = computeMean(discs)

	sortedUnits := make([]float64, n)
	copy(sortedUnits, units)
	sort.Float64s(sortedUnits)

	s.UnitsMedian = computePercentile(sortedUnits, 0.50)
	s.UnitsP10 = computePercentile(sortedUnits, 0.10)
	s.UnitsP90 = computePercentile(sortedUnits, 0.90)
	s.UnitsStddev = computeStddev(units, computeMean(units))

	return s
}

// ComputeDelta returns the signed difference of a scenario's totals against the baseline.
func ComputeDelta(baseline, other domain.ForecastSummary) domain.ScenarioDelta {
	return domain.ScenarioDelta{
		Units:   other.TotalUnits - baseline.TotalUnits,
		Revenue: other.TotalRevenue - baseline.TotalRevenue,
	}
}

// computeMean calculates the arithmetic mean.
func computeMean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// computeStddev calculates sample standard deviation (n-1 denominator).
func computeStddev(values []float64, mean float64) float64 {
	n := len(values)
	if n < 2 {
		return 0
	}
	sumSq := 0.0
	for _, v := range values {
		diff := v - mean
		sumSq += diff * diff
	}
	return math.Sqrt(sumSq / float64(n-1))
}

// computePercentile uses linear interpolation.
// sorted must be pre-sorted ASC.
func computePercentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n == 1 {
		return sorted[0]
	}

	idx := p * float64(n-1)
	lower := int(idx)
	upper := lower + 1
	if upper >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lower)
	return sorted[lower] + frac*(sorted[upper]-sorted[lower])
}
