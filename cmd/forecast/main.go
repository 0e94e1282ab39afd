// Package main runs sales forecasts for stored products.
//
// Modes:
//   - single run:  --product-id P --discount D --competition actual|lower|higher
//   - comparison:  --product-id P --discount D --compare
//   - sweep:       --sweep -20,-10,0,10 [--product-id P], then the discount gate
//   - listing:     --list
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"sales-forecast-lab/internal/config"
	"sales-forecast-lab/internal/decision"
	"sales-forecast-lab/internal/domain"
	"sales-forecast-lab/internal/forecast"
	"sales-forecast-lab/internal/ingestion"
	"sales-forecast-lab/internal/logger"
	"sales-forecast-lab/internal/metrics"
	"sales-forecast-lab/internal/observability"
	"sales-forecast-lab/internal/orchestrator"
	"sales-forecast-lab/internal/pipeline"
	"sales-forecast-lab/internal/regressor"
	"sales-forecast-lab/internal/reporting"
	"sales-forecast-lab/internal/simulation"
	"sales-forecast-lab/internal/storage"
	"sales-forecast-lab/internal/storage/stores"
)

type options struct {
	configPath  string
	envFile     string
	productID   string
	discount    float64
	competition string
	compare     bool
	sweep       string
	list        bool
	useFixtures bool
	writeReport bool
	dataPath    string
	modelPath   string
	backend     string
	sqlitePath  string
	metricsAddr string
	outputDir   string
}

func main() {
	var opts options
	flag.StringVar(&opts.configPath, "config", "config.yaml", "YAML config file (optional)")
	flag.StringVar(&opts.envFile, "env", ".env", ".env file (optional)")
	flag.StringVar(&opts.productID, "product-id", "", "Product to forecast")
	flag.Float64Var(&opts.discount, "discount", 0, "Discount in percent applied to the base price (negative lowers the price)")
	flag.StringVar(&opts.competition, "competition", string(domain.CompetitionActual), "Competition scenario: actual, lower, higher")
	flag.BoolVar(&opts.compare, "compare", false, "Run all competition scenarios and report deltas against actual")
	flag.StringVar(&opts.sweep, "sweep", "", "Comma-separated discounts to compare for every product (or --product-id)")
	flag.BoolVar(&opts.list, "list", false, "List stored products and exit")
	flag.BoolVar(&opts.useFixtures, "use-fixtures", false, "Load demo products and use the demo model")
	flag.BoolVar(&opts.writeReport, "report", false, "Write Markdown/CSV report files for the run or comparison")
	flag.StringVar(&opts.dataPath, "data", "", "CSV input table to ingest (overrides data.path)")
	flag.StringVar(&opts.modelPath, "model", "", "YAML model artifact (overrides model.path)")
	flag.StringVar(&opts.backend, "backend", "", "Storage backend: memory, postgres, sqlite (overrides storage.backend)")
	flag.StringVar(&opts.sqlitePath, "sqlite-path", "", "SQLite database file (overrides storage.sqlite_path)")
	flag.StringVar(&opts.metricsAddr, "metrics-addr", "", "Serve Prometheus /metrics on this address while running")
	flag.StringVar(&opts.outputDir, "output-dir", "", "Report output directory (overrides report.output_dir)")
	flag.Parse()

	cfg, err := config.Load(opts.configPath, opts.envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	applyFlags(cfg, opts)
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Logging.Mode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Metrics.Addr != "" {
		go serveMetrics(cfg.Metrics.Addr, log)
	}

	if err := run(ctx, cfg, opts, log); err != nil {
		log.Error("forecast failed", "err", err)
		log.Sync()
		os.Exit(1)
	}
}

// applyFlags lets explicitly set flags win over config values.
func applyFlags(cfg *config.Config, opts options) {
	if opts.dataPath != "" {
		cfg.Data.Path = opts.dataPath
	}
	if opts.modelPath != "" {
		cfg.Model.Path = opts.modelPath
	}
	if opts.backend != "" {
		cfg.Storage.Backend = opts.backend
	}
	if opts.sqlitePath != "" {
		cfg.Storage.SQLitePath = opts.sqlitePath
	}
	if opts.metricsAddr != "" {
		cfg.Metrics.Addr = opts.metricsAddr
	}
	if opts.outputDir != "" {
		cfg.Report.OutputDir = opts.outputDir
	}
}

func run(ctx context.Context, cfg *config.Config, opts options, log *logger.Logger) error {
	st, cleanup, err := stores.Open(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := ingest(ctx, cfg, opts, st.ProductDays, log); err != nil {
		return err
	}

	model, err := loadModel(cfg, opts)
	if err != nil {
		return err
	}
	engine := forecast.NewEngine(model).WithDiscountBounds(forecast.DiscountBounds{
		Min: cfg.Forecast.DiscountMin,
		Max: cfg.Forecast.DiscountMax,
	})

	runner := simulation.NewRunner(simulation.RunnerOptions{
		ProductDayStore:  st.ProductDays,
		ForecastRunStore: st.ForecastRuns,
		ForecastDayStore: st.ForecastDays,
		Engine:           engine,
		Logger:           log,
	})

	switch {
	case opts.list:
		return listProducts(ctx, runner)
	case opts.sweep != "":
		return runSweep(ctx, cfg, opts, runner, st, log)
	}

	if opts.productID == "" {
		return errors.New("--product-id is required (or use --list / --sweep)")
	}

	gen := reporting.NewGenerator(st.ForecastRuns, st.ForecastDays).
		WithEvent(cfg.Report.EventDay, cfg.Report.EventLabel)

	if opts.compare {
		return runCompare(ctx, cfg, opts, runner, gen, st)
	}
	return runSingle(ctx, cfg, opts, runner, gen, st)
}

// ingest loads fixture or CSV input into the product store. Already stored products are kept.
func ingest(ctx context.Context, cfg *config.Config, opts options, store storage.ProductDayStore, log *logger.Logger) error {
	if opts.useFixtures {
		err := pipeline.LoadFixtures(ctx, store)
		if errors.Is(err, storage.ErrDuplicateKey) {
			log.Info("fixtures already loaded")
			return nil
		}
		return err
	}
	if cfg.Data.Path == "" {
		return nil
	}

	mgr := ingestion.NewManager(ingestion.ManagerOptions{
		Source: ingestion.NewCSVSource(cfg.Data.Path),
		Store:  store,
		Logger: log,
	})
	_, err := mgr.Ingest(ctx)
	return err
}

func loadModel(cfg *config.Config, opts options) (regressor.Regressor, error) {
	if cfg.Model.Path != "" {
		return regressor.LoadLinearModelFile(cfg.Model.Path)
	}
	if opts.useFixtures {
		return pipeline.DemoModel(), nil
	}
	return nil, errors.New("no model: set model.path, --model or --use-fixtures")
}

func listProducts(ctx context.Context, runner *simulation.Runner) error {
	products, err := runner.Products(ctx)
	if err != nil {
		return err
	}
	if len(products) == 0 {
		fmt.Println("No products stored. Ingest with --data or --use-fixtures.")
		return nil
	}
	for _, p := range products {
		fmt.Printf("%s\t%s\n", p.ProductID, p.ProductName)
	}
	return nil
}

func runSingle(ctx context.Context, cfg *config.Config, opts options, runner *simulation.Runner, gen *reporting.Generator, st *stores.Stores) error {
	competition, err := domain.ParseCompetitionScenario(opts.competition)
	if err != nil {
		return err
	}
	scenario := domain.ScenarioConfig{DiscountPct: opts.discount, Competition: competition}

	out, err := runner.Run(ctx, opts.productID, scenario)
	if errors.Is(err, storage.ErrDuplicateKey) {
		fmt.Printf("Run for %s (%s) is already stored; render it with cmd/report.\n", opts.productID, scenario.ID())
		return nil
	}
	if err != nil {
		return err
	}

	r := gen.FromResult(out.Run, out.Result)
	fmt.Print(reporting.RenderMarkdown(r))

	if opts.writeReport {
		return writeReport(ctx, cfg, opts, st, gen, r)
	}
	return nil
}

func runCompare(ctx context.Context, cfg *config.Config, opts options, runner *simulation.Runner, gen *reporting.Generator, st *stores.Stores) error {
	out, err := runner.Compare(ctx, opts.productID, opts.discount)
	if errors.Is(err, storage.ErrDuplicateKey) {
		fmt.Printf("Comparison for %s at %+g%% is already stored; render it with cmd/report.\n", opts.productID, opts.discount)
		return nil
	}
	if err != nil {
		if out != nil && out.Comparison != nil && len(out.Comparison.Results) > 0 {
			printPartialComparison(out.Comparison)
		}
		return err
	}

	r, err := gen.FromComparison(out.Runs, out.Comparison)
	if err != nil {
		return err
	}
	fmt.Print(reporting.RenderMarkdown(r))

	if opts.writeReport {
		return writeReport(ctx, cfg, opts, st, gen, r)
	}
	return nil
}

// printPartialComparison shows the scenarios that completed when others failed.
func printPartialComparison(cmp *domain.ScenarioComparison) {
	fmt.Printf("Partial comparison for %s at %+g%% (not stored):\n", cmp.ProductID, cmp.DiscountPct)
	for _, s := range domain.CompetitionScenarios {
		if res, ok := cmp.Results[s]; ok {
			fmt.Printf("  %-16s units %.1f  revenue %.2f\n", s.Label(), res.Summary.TotalUnits, res.Summary.TotalRevenue)
		} else if err, ok := cmp.Errors[s]; ok {
			fmt.Printf("  %-16s failed: %v\n", s.Label(), err)
		}
	}
}

func writeReport(ctx context.Context, cfg *config.Config, opts options, st *stores.Stores, gen *reporting.Generator, r *reporting.Report) error {
	p := pipeline.NewReportPipeline(gen, cfg.Report.OutputDir).
		WithSufficiencyChecker(pipeline.NewSufficiencyChecker(st.ProductDays, cfg.Report.EventDay)).
		WithDataSource(dataSourceFlags(cfg, opts))
	out, err := p.Write(ctx, r)
	if err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	printOutput(out)
	return nil
}

func runSweep(ctx context.Context, cfg *config.Config, opts options, runner *simulation.Runner, st *stores.Stores, log *logger.Logger) error {
	discounts, err := parseDiscounts(opts.sweep)
	if err != nil {
		return err
	}
	var productIDs []string
	if opts.productID != "" {
		productIDs = []string{opts.productID}
	}

	agg := metrics.NewAggregator(st.ForecastRuns, st.ForecastDays)
	orch := orchestrator.New(orchestrator.Options{
		Runner:     runner,
		Discounts:  discounts,
		Aggregator: agg,
		ProductIDs: productIDs,
		Logger:     log,
	})
	result, err := orch.Run(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("Products: %d\n", result.ProductsProcessed)
	fmt.Printf("Comparisons created: %d (skipped %d)\n", result.ComparisonsCreated, result.ComparisonsSkipped)
	fmt.Printf("Stored runs aggregated: %d\n", result.RunsAggregated)
	for _, id := range result.ComparisonIDs {
		fmt.Printf("  comparison %s\n", id)
	}
	if len(result.Errors) > 0 {
		for _, e := range result.Errors {
			fmt.Fprintf(os.Stderr, "  error: %s\n", e)
		}
		return fmt.Errorf("sweep finished with %d errors", len(result.Errors))
	}

	return decide(ctx, cfg, opts, st, agg, productIDs, runner, log)
}

// decide runs the discount gate for every swept product that has a 0% baseline.
func decide(ctx context.Context, cfg *config.Config, opts options, st *stores.Stores, agg *metrics.Aggregator, productIDs []string, runner *simulation.Runner, log *logger.Logger) error {
	if len(productIDs) == 0 {
		refs, err := runner.Products(ctx)
		if err != nil {
			return err
		}
		for _, r := range refs {
			productIDs = append(productIDs, r.ProductID)
		}
	}

	gate := decision.NewGate(st.ForecastRuns, agg)
	p := pipeline.NewReportPipeline(nil, cfg.Report.OutputDir)
	for _, id := range productIDs {
		var (
			report *decision.Report
			path   string
			err    error
		)
		if opts.writeReport {
			path, report, err = p.WriteDecision(ctx, gate, id)
		} else {
			report, err = gate.Evaluate(ctx, id)
		}
		if errors.Is(err, decision.ErrMissingBaseline) || errors.Is(err, decision.ErrNoComparisons) {
			log.Info("skipping discount decision", "product_id", id, "reason", err)
			continue
		}
		if err != nil {
			return fmt.Errorf("decision for %s: %w", id, err)
		}

		if rec := report.Recommended; rec != nil {
			fmt.Printf("%s: recommended discount %+g%% (revenue uplift %+.2f%%)\n", id, rec.Input.DiscountPct, rec.Input.RevenueUpliftPct())
		} else {
			fmt.Printf("%s: no discount passed the gate; keep the base price\n", id)
		}
		if path != "" {
			fmt.Printf("  - %s\n", path)
		}
	}
	return nil
}

func parseDiscounts(s string) ([]float64, error) {
	var out []float64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		v, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid discount %q: %w", part, err)
		}
		out = append(out, v)
	}
	if len(out) == 0 {
		return nil, errors.New("--sweep needs at least one discount")
	}
	return out, nil
}

// dataSourceFlags returns the flags cmd/verify needs to reach the same stores and model.
func dataSourceFlags(cfg *config.Config, opts options) string {
	var flags string
	switch cfg.Storage.Backend {
	case config.BackendSQLite:
		flags = "--backend sqlite --sqlite-path " + cfg.Storage.SQLitePath
	default:
		flags = "--backend " + cfg.Storage.Backend
	}
	if cfg.Model.Path != "" {
		return flags + " --model " + cfg.Model.Path
	}
	if opts.useFixtures {
		return flags + " --use-fixtures"
	}
	return flags
}

func printOutput(out *pipeline.Output) {
	fmt.Println("Report written:")
	fmt.Printf("  - %s\n", out.ReportPath)
	fmt.Printf("  - %s\n", out.DaysCSVPath)
	if out.ComparisonCSVPath != "" {
		fmt.Printf("  - %s\n", out.ComparisonCSVPath)
	}
}

// serveMetrics exposes /metrics and /health until the process exits.
func serveMetrics(addr string, log *logger.Logger) {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	mux.Handle("/metrics", observability.Handler())

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	log.Info("metrics server listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("metrics server failed", "err", err)
	}
}
