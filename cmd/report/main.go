// Package main renders stored forecast runs and comparisons to Markdown and CSV files.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"sales-forecast-lab/internal/config"
	"sales-forecast-lab/internal/decision"
	"sales-forecast-lab/internal/logger"
	"sales-forecast-lab/internal/metrics"
	"sales-forecast-lab/internal/pipeline"
	"sales-forecast-lab/internal/reporting"
	"sales-forecast-lab/internal/storage/stores"
)

func main() {
	configPath := flag.String("config", "config.yaml", "YAML config file (optional)")
	envFile := flag.String("env", ".env", ".env file (optional)")
	runID := flag.String("run-id", "", "Render one stored run")
	comparisonID := flag.String("comparison-id", "", "Render one stored comparison")
	productID := flag.String("product-id", "", "Render every stored run and comparison of a product")
	withDecision := flag.Bool("decision", false, "With --product-id, also write the discount decision report")
	backend := flag.String("backend", "", "Storage backend: postgres, sqlite (overrides storage.backend)")
	sqlitePath := flag.String("sqlite-path", "", "SQLite database file (overrides storage.sqlite_path)")
	modelPath := flag.String("model", "", "Model artifact the runs were produced with, echoed into the verify command")
	outputDir := flag.String("output-dir", "", "Output directory for generated files (overrides report.output_dir)")
	generatedAt := flag.String("generated-at", "", "Fixed RFC3339 generation time for byte-identical output")
	flag.Parse()

	cfg, err := config.Load(*configPath, *envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *backend != "" {
		cfg.Storage.Backend = *backend
	}
	if *sqlitePath != "" {
		cfg.Storage.SQLitePath = *sqlitePath
	}
	if *modelPath != "" {
		cfg.Model.Path = *modelPath
	}
	if *outputDir != "" {
		cfg.Report.OutputDir = *outputDir
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid config: %v\n", err)
		os.Exit(1)
	}
	if cfg.Storage.Backend == config.BackendMemory {
		fmt.Fprintln(os.Stderr, "Error: the memory backend holds no stored runs; use --backend sqlite or postgres")
		os.Exit(1)
	}
	if *runID == "" && *comparisonID == "" && *productID == "" {
		fmt.Fprintln(os.Stderr, "Error: one of --run-id, --comparison-id or --product-id is required")
		os.Exit(1)
	}

	clock := time.Now
	if *generatedAt != "" {
		t, err := time.Parse(time.RFC3339, *generatedAt)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Invalid --generated-at: %v\n", err)
			os.Exit(1)
		}
		clock = func() time.Time { return t.UTC() }
	}

	log, err := logger.New(cfg.Logging.Mode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx := context.Background()

	st, cleanup, err := stores.Open(ctx, cfg, log)
	if err != nil {
		log.Fatal("failed to open stores", "err", err)
	}
	defer cleanup()

	gen := reporting.NewGenerator(st.ForecastRuns, st.ForecastDays).
		WithEvent(cfg.Report.EventDay, cfg.Report.EventLabel).
		WithClock(clock)
	p := pipeline.NewReportPipeline(gen, cfg.Report.OutputDir).
		WithSufficiencyChecker(pipeline.NewSufficiencyChecker(st.ProductDays, cfg.Report.EventDay)).
		WithClock(clock).
		WithDataSource(dataSourceFlags(cfg))

	var outputs []*pipeline.Output
	switch {
	case *runID != "":
		out, err := p.WriteStoredRun(ctx, *runID)
		if err != nil {
			log.Fatal("failed to render run", "run_id", *runID, "err", err)
		}
		outputs = append(outputs, out)

	case *comparisonID != "":
		out, err := p.WriteStoredComparison(ctx, *comparisonID)
		if err != nil {
			log.Fatal("failed to render comparison", "comparison_id", *comparisonID, "err", err)
		}
		outputs = append(outputs, out)

	default:
		outputs, err = writeProduct(ctx, st, p, *productID, log)
		if err != nil {
			log.Fatal("failed to render product", "product_id", *productID, "err", err)
		}
		if *withDecision {
			gate := decision.NewGate(st.ForecastRuns, metrics.NewAggregator(st.ForecastRuns, st.ForecastDays))
			path, _, err := p.WriteDecision(ctx, gate, *productID)
			if err != nil {
				log.Fatal("failed to evaluate discount decision", "product_id", *productID, "err", err)
			}
			outputs = append(outputs, &pipeline.Output{ReportPath: path})
		}
	}

	fmt.Println("Reports generated successfully:")
	for _, out := range outputs {
		fmt.Printf("  - %s\n", out.ReportPath)
		if out.DaysCSVPath != "" {
			fmt.Printf("  - %s\n", out.DaysCSVPath)
		}
		if out.ComparisonCSVPath != "" {
			fmt.Printf("  - %s\n", out.ComparisonCSVPath)
		}
	}
}

// writeProduct renders each comparison of the product once and each standalone run.
// Stored runs without days are listed as integrity errors in every report.
func writeProduct(ctx context.Context, st *stores.Stores, p *pipeline.ReportPipeline, productID string, log *logger.Logger) ([]*pipeline.Output, error) {
	runs, err := st.ForecastRuns.GetByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, errors.New("no stored runs")
	}

	agg := metrics.NewAggregator(st.ForecastRuns, st.ForecastDays)
	if _, err := agg.ComputeProduct(ctx, productID); err != nil {
		return nil, err
	}
	p = p.WithAggregator(agg)

	var outputs []*pipeline.Output
	seen := make(map[string]bool)
	for _, run := range runs {
		var (
			out *pipeline.Output
			err error
		)
		switch {
		case run.ComparisonID == "":
			out, err = p.WriteStoredRun(ctx, run.RunID)
		case !seen[run.ComparisonID]:
			seen[run.ComparisonID] = true
			out, err = p.WriteStoredComparison(ctx, run.ComparisonID)
		default:
			continue
		}
		if errors.Is(err, metrics.ErrNoPoints) || errors.Is(err, metrics.ErrIncompleteComparison) {
			log.Warn("skipping incomplete stored run", "run_id", run.RunID, "err", err)
			continue
		}
		if err != nil {
			return nil, err
		}
		outputs = append(outputs, out)
	}
	return outputs, nil
}

// dataSourceFlags returns the flags cmd/verify needs to reach the same stores and model.
func dataSourceFlags(cfg *config.Config) string {
	flags := "--backend " + cfg.Storage.Backend
	if cfg.Storage.Backend == config.BackendSQLite {
		flags += " --sqlite-path " + cfg.Storage.SQLitePath
	}
	if cfg.Model.Path != "" {
		flags += " --model " + cfg.Model.Path
	}
	return flags
}
