// Package dataset loads the per-product daily input table.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"sales-forecast-lab/internal/domain"
)

// Dataset errors
var (
	ErrProductNotFound = errors.New("product not found")
	ErrMissingColumn   = errors.New("missing required column")
)

// Input table column names.
const (
	ColProductID       = "product_id"
	ColProductName     = "product_name"
	ColDate            = "date"
	ColDayOfWeek       = "day_of_week"
	ColDayOfMonth      = "day_of_month"
	ColBasePrice       = "base_price"
	ColCompetitorPrice = "competitor_price"
)

// DateLayout is the date format of the input table.
const DateLayout = "2006-01-02"

var requiredColumns = []string{
	ColProductID, ColProductName, ColDate, ColDayOfWeek, ColDayOfMonth, ColBasePrice, ColCompetitorPrice,
	domain.FeatureMovingAvg7,
}

func init() {
	for k := 1; k <= domain.LagCount; k++ {
		requiredColumns = append(requiredColumns, domain.LagFeatureName(k))
	}
}

// LoadCSVFile reads the input table from path.
func LoadCSVFile(path string) ([]domain.DayRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()
	return LoadCSV(f)
}

// LoadCSV parses the input table. Columns beyond the required ones must be numeric
// and are carried as extra model features. Rows keep file order.
func LoadCSV(r io.Reader) ([]domain.DayRecord, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.TrimSpace(h)] = i
	}
	for _, c := range requiredColumns {
		if _, ok := idx[c]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, c)
		}
	}

	required := make(map[string]bool, len(requiredColumns))
	for _, c := range requiredColumns {
		required[c] = true
	}
	var extraCols []string
	for _, h := range header {
		h = strings.TrimSpace(h)
		if !required[h] {
			extraCols = append(extraCols, h)
		}
	}

	var days []domain.DayRecord
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		line, _ := cr.FieldPos(0)

		p := rowParser{rec: rec, idx: idx, line: line}
		d := domain.DayRecord{
			ProductID:           p.str(ColProductID),
			ProductName:         p.str(ColProductName),
			Date:                p.date(ColDate),
			DayOfWeek:           p.str(ColDayOfWeek),
			DayOfMonth:          p.int(ColDayOfMonth),
			BasePrice:           p.float(ColBasePrice),
			CompetitorBasePrice: p.float(ColCompetitorPrice),
			MovingAvgFeature:    p.float(domain.FeatureMovingAvg7),
		}
		for k := 1; k <= domain.LagCount; k++ {
			d.LagFeatures[k-1] = p.float(domain.LagFeatureName(k))
		}
		if len(extraCols) > 0 {
			d.Extra = make(map[string]float64, len(extraCols))
			for _, c := range extraCols {
				d.Extra[c] = p.float(c)
			}
		}
		if p.err != nil {
			return nil, p.err
		}
		days = append(days, d)
	}
	return days, nil
}

// rowParser converts cells of one row, keeping the first error.
type rowParser struct {
	rec  []string
	idx  map[string]int
	line int
	err  error
}

func (p *rowParser) str(col string) string {
	return strings.TrimSpace(p.rec[p.idx[col]])
}

func (p *rowParser) fail(col, v string, err error) {
	if p.err == nil {
		p.err = fmt.Errorf("line %d: column %s: invalid value %q: %w", p.line, col, v, err)
	}
}

func (p *rowParser) float(col string) float64 {
	v := p.str(col)
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		p.fail(col, v, err)
	}
	return f
}

func (p *rowParser) int(col string) int {
	v := p.str(col)
	n, err := strconv.Atoi(v)
	if err != nil {
		p.fail(col, v, err)
	}
	return n
}

func (p *rowParser) date(col string) time.Time {
	v := p.str(col)
	t, err := time.ParseInLocation(DateLayout, v, time.UTC)
	if err != nil {
		p.fail(col, v, err)
	}
	return t
}
