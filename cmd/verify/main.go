// Package main re-executes stored forecast runs and reports divergences.
// Exits with status 2 when any run diverges from its stored output.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"sales-forecast-lab/internal/config"
	"sales-forecast-lab/internal/forecast"
	"sales-forecast-lab/internal/logger"
	"sales-forecast-lab/internal/pipeline"
	"sales-forecast-lab/internal/regressor"
	"sales-forecast-lab/internal/storage/stores"
	"sales-forecast-lab/internal/verification"
)

func main() {
	configPath := flag.String("config", "config.yaml", "YAML config file (optional)")
	envFile := flag.String("env", ".env", ".env file (optional)")
	runID := flag.String("run-id", "", "Verify one stored run")
	productID := flag.String("product-id", "", "Verify every stored run of a product")
	backend := flag.String("backend", "", "Storage backend: postgres, sqlite (overrides storage.backend)")
	sqlitePath := flag.String("sqlite-path", "", "SQLite database file (overrides storage.sqlite_path)")
	modelPath := flag.String("model", "", "YAML model artifact the runs were produced with (overrides model.path)")
	useFixtures := flag.Bool("use-fixtures", false, "Verify against the demo model")
	verbose := flag.Bool("verbose", false, "Print every divergence")
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
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid config: %v\n", err)
		os.Exit(1)
	}
	if cfg.Storage.Backend == config.BackendMemory {
		fmt.Fprintln(os.Stderr, "Error: the memory backend holds no stored runs; use --backend sqlite or postgres")
		os.Exit(1)
	}
	if (*runID == "") == (*productID == "") {
		fmt.Fprintln(os.Stderr, "Error: exactly one of --run-id or --product-id is required")
		os.Exit(1)
	}

	log, err := logger.New(cfg.Logging.Mode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	var model regressor.Regressor
	switch {
	case cfg.Model.Path != "":
		model, err = regressor.LoadLinearModelFile(cfg.Model.Path)
		if err != nil {
			log.Fatal("failed to load model", "path", cfg.Model.Path, "err", err)
		}
	case *useFixtures:
		model = pipeline.DemoModel()
	default:
		log.Fatal("no model: set model.path, --model or --use-fixtures")
	}

	ctx := context.Background()

	st, cleanup, err := stores.Open(ctx, cfg, log)
	if err != nil {
		log.Fatal("failed to open stores", "err", err)
	}
	defer cleanup()

	verifier := verification.NewReplayVerifier(verification.ReplayVerifierOptions{
		ProductDayStore:  st.ProductDays,
		ForecastRunStore: st.ForecastRuns,
		ForecastDayStore: st.ForecastDays,
		Engine: forecast.NewEngine(model).WithDiscountBounds(forecast.DiscountBounds{
			Min: cfg.Forecast.DiscountMin,
			Max: cfg.Forecast.DiscountMax,
		}),
	})

	var report *verification.VerificationReport
	if *runID != "" {
		result, err := verifier.VerifyRun(ctx, *runID)
		if errors.Is(err, verification.ErrRunNotFound) || errors.Is(err, verification.ErrModelMismatch) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			cleanup()
			os.Exit(1)
		}
		if err != nil {
			log.Fatal("verification failed", "run_id", *runID, "err", err)
		}
		report = &verification.VerificationReport{TotalRuns: 1, Results: []verification.VerificationResult{*result}}
		if result.Match {
			report.MatchedRuns = 1
		} else {
			report.DivergentRuns = 1
		}
	} else {
		report, err = verifier.VerifyAll(ctx, *productID)
		if err != nil {
			log.Fatal("verification failed", "product_id", *productID, "err", err)
		}
	}

	printReport(report, *verbose)

	if report.DivergentRuns > 0 {
		log.Sync()
		cleanup()
		os.Exit(2)
	}
}

func printReport(report *verification.VerificationReport, verbose bool) {
	fmt.Printf("Runs verified: %d (matched %d, divergent %d)\n", report.TotalRuns, report.MatchedRuns, report.DivergentRuns)
	for _, r := range report.Results {
		status := "OK"
		if !r.Match {
			status = fmt.Sprintf("DIVERGED (%d fields)", len(r.Divergences))
		}
		fmt.Printf("  %s  %s  units stored=%.4f replayed=%.4f\n", r.RunID, status, r.StoredTotalUnits, r.ReplayedTotalUnits)

		if !verbose {
			continue
		}
		for _, d := range r.Divergences {
			fmt.Printf("      %s\n", d)
		}
	}
}
