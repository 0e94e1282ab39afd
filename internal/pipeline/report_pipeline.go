package pipeline

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"sales-forecast-lab/internal/decision"
	"sales-forecast-lab/internal/metrics"
	"sales-forecast-lab/internal/reporting"
)

// GeneratorVersion is recorded in every report for reproducibility.
const GeneratorVersion = "1.0.0"

// Output lists the files written for one report.
type Output struct {
	ReportPath        string
	DaysCSVPath       string
	ComparisonCSVPath string // empty for single runs
}

// ReportPipeline enriches reports with data quality and reproducibility
// metadata and writes them to disk.
type ReportPipeline struct {
	reportGen          *reporting.Generator
	sufficiencyChecker *SufficiencyChecker
	aggregator         *metrics.Aggregator // optional, for collecting missing day errors
	outputDir          string
	integrityErrors    []string // additional integrity errors
	dataSource         string   // verify command flags for the data source
}

// NewReportPipeline creates a new pipeline writing into outputDir.
func NewReportPipeline(gen *reporting.Generator, outputDir string) *ReportPipeline {
	return &ReportPipeline{
		reportGen: gen,
		outputDir: outputDir,
	}
}

// WithSufficiencyChecker adds input sufficiency checks to every report.
func (p *ReportPipeline) WithSufficiencyChecker(checker *SufficiencyChecker) *ReportPipeline {
	p.sufficiencyChecker = checker
	return p
}

// WithClock sets a custom clock function for deterministic output.
func (p *ReportPipeline) WithClock(clock func() time.Time) *ReportPipeline {
	p.reportGen = p.reportGen.WithClock(clock)
	return p
}

// WithIntegrityErrors adds additional integrity errors to include in the report.
func (p *ReportPipeline) WithIntegrityErrors(errors []string) *ReportPipeline {
	p.integrityErrors = append(p.integrityErrors, errors...)
	return p
}

// WithAggregator collects the aggregator's missing day errors on every write.
func (p *ReportPipeline) WithAggregator(agg *metrics.Aggregator) *ReportPipeline {
	p.aggregator = agg
	return p
}

// WithDataSource sets the data source flags used in the verify command, e.g. "--use-fixtures".
func (p *ReportPipeline) WithDataSource(flags string) *ReportPipeline {
	p.dataSource = flags
	return p
}

// WriteStoredRun generates and writes the report of a stored run.
func (p *ReportPipeline) WriteStoredRun(ctx context.Context, runID string) (*Output, error) {
	r, err := p.reportGen.GenerateRun(ctx, runID)
	if err != nil {
		return nil, err
	}
	return p.Write(ctx, r)
}

// WriteStoredComparison generates and writes the report of a stored comparison.
func (p *ReportPipeline) WriteStoredComparison(ctx context.Context, comparisonID string) (*Output, error) {
	r, err := p.reportGen.GenerateComparison(ctx, comparisonID)
	if err != nil {
		return nil, err
	}
	return p.Write(ctx, r)
}

// Write completes a report and writes its files:
// - REPORT_<product>_<id>.md
// - forecast_days_<product>_<id>.csv
// - scenario_comparison_<product>_<id>.csv (comparisons only)
func (p *ReportPipeline) Write(ctx context.Context, r *reporting.Report) (*Output, error) {
	if r.Run == nil {
		return nil, fmt.Errorf("report for %s has no run section", r.ProductID)
	}
	if err := os.MkdirAll(p.outputDir, 0755); err != nil {
		return nil, err
	}

	// 1. Data quality
	if p.sufficiencyChecker != nil {
		suff, err := p.sufficiencyChecker.Check(ctx, r.ProductID)
		if err != nil {
			return nil, err
		}
		mergeSufficiency(&r.DataQuality, suff)
	} else {
		r.DataQuality.AllChecksPassed = true
	}
	if p.aggregator != nil {
		r.DataQuality.IntegrityErrors = append(r.DataQuality.IntegrityErrors, p.aggregator.GetMissingDayErrors()...)
	}
	r.DataQuality.IntegrityErrors = append(r.DataQuality.IntegrityErrors, p.integrityErrors...)
	if len(r.DataQuality.IntegrityErrors) > 0 {
		r.DataQuality.AllChecksPassed = false
	}

	// 2. Render CSVs first; the data version hashes them
	daysCSV := reporting.RenderDailyCSV(r.Run.Days)
	var comparisonCSV string
	id := r.Run.RunID
	if r.Comparison != nil {
		comparisonCSV = reporting.RenderComparisonCSV(r.Comparison)
		id = r.Comparison.ComparisonID
	}

	// 3. Reproducibility
	r.Reproducibility = &reporting.ReproducibilityMetadata{
		GeneratorVersion: GeneratorVersion,
		DataVersion:      computeDataVersion(daysCSV, comparisonCSV),
		CommitHash:       getGitCommitHash(),
		VerifyCommand:    p.buildVerifyCommand(r),
	}

	// 4. Write files
	base := fileBase(r.ProductID, id)
	out := &Output{
		ReportPath:  filepath.Join(p.outputDir, "REPORT_"+base+".md"),
		DaysCSVPath: filepath.Join(p.outputDir, "forecast_days_"+base+".csv"),
	}
	if err := os.WriteFile(out.ReportPath, []byte(reporting.RenderMarkdown(r)), 0644); err != nil {
		return nil, err
	}
	if err := os.WriteFile(out.DaysCSVPath, []byte(daysCSV), 0644); err != nil {
		return nil, err
	}
	if r.Comparison != nil {
		out.ComparisonCSVPath = filepath.Join(p.outputDir, "scenario_comparison_"+base+".csv")
		if err := os.WriteFile(out.ComparisonCSVPath, []byte(comparisonCSV), 0644); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// mergeSufficiency converts a SufficiencyResult into the report's data quality section.
func mergeSufficiency(dq *reporting.DataQualitySection, result *SufficiencyResult) {
	for _, c := range result.Checks {
		dq.SufficiencyChecks = append(dq.SufficiencyChecks, reporting.SufficiencyCheckRow{
			Name:      c.Name,
			Threshold: c.Threshold,
			Actual:    c.Actual,
			Pass:      c.Pass,
		})
	}
	dq.IntegrityErrors = append(dq.IntegrityErrors, result.Errors...)
	dq.AllChecksPassed = result.AllPass
}

// buildVerifyCommand returns the command that replays the reported runs.
func (p *ReportPipeline) buildVerifyCommand(r *reporting.Report) string {
	var cmd string
	if r.Comparison != nil {
		cmd = fmt.Sprintf("go run ./cmd/verify --product-id %s", r.ProductID)
	} else {
		cmd = fmt.Sprintf("go run ./cmd/verify --run-id %s", r.Run.RunID)
	}
	if p.dataSource != "" {
		cmd += " " + p.dataSource
	}
	return cmd
}

// computeDataVersion computes a short SHA256 of the rendered data.
func computeDataVersion(parts ...string) string {
	h := sha256.New()
	for _, part := range parts {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))[:12] // short hash
}

// getGitCommitHash returns current git commit hash or "unknown" if not in git repo.
func getGitCommitHash() string {
	cmd := exec.Command("git", "rev-parse", "--short", "HEAD")
	var out bytes.Buffer
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		return "unknown"
	}
	return strings.TrimSpace(out.String())
}

// WriteDecision evaluates the discount gate over the product's stored
// comparisons and writes DECISION_<product>.md.
func (p *ReportPipeline) WriteDecision(ctx context.Context, gate *decision.Gate, productID string) (string, *decision.Report, error) {
	report, err := gate.Evaluate(ctx, productID)
	if err != nil {
		return "", nil, err
	}
	if err := os.MkdirAll(p.outputDir, 0755); err != nil {
		return "", nil, err
	}
	path := filepath.Join(p.outputDir, "DECISION_"+strings.TrimSuffix(fileBase(productID, ""), "_")+".md")
	if err := os.WriteFile(path, []byte(decision.RenderMarkdown(report)), 0644); err != nil {
		return "", nil, err
	}
	return path, report, nil
}

func fileBase(productID, id string) string {
	safe := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, productID)
	if len(id) > 12 {
		id = id[:12]
	}
	return safe + "_" + id
}
