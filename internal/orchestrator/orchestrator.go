// Package orchestrator runs batch forecast sweeps.
// It coordinates: product listing → scenario comparisons → stored-run aggregation
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"sales-forecast-lab/internal/logger"
	"sales-forecast-lab/internal/metrics"
	"sales-forecast-lab/internal/simulation"
	"sales-forecast-lab/internal/storage"
)

// Orchestrator coordinates a discount sweep over products.
// Flow: list products → compare scenarios per discount → re-aggregate stored runs
type Orchestrator struct {
	runner     *simulation.Runner
	aggregator *metrics.Aggregator // optional, skips phase 3 when nil

	// Sweep definition
	productIDs []string // empty means every stored product
	discounts  []float64

	log *logger.Logger
}

// Options for creating Orchestrator.
type Options struct {
	// Required
	Runner    *simulation.Runner
	Discounts []float64

	// Optional
	Aggregator *metrics.Aggregator
	ProductIDs []string
	Logger     *logger.Logger
}

// New creates a new Orchestrator.
func New(opts Options) *Orchestrator {
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	return &Orchestrator{
		runner:     opts.Runner,
		aggregator: opts.Aggregator,
		productIDs: opts.ProductIDs,
		discounts:  opts.Discounts,
		log:        log,
	}
}

// RunResult contains results from orchestrator execution.
type RunResult struct {
	ProductsProcessed  int
	ComparisonsCreated int
	ComparisonsSkipped int      // already persisted
	RunsAggregated     int      // stored runs re-aggregated in phase 3
	ComparisonIDs      []string // created comparisons in sweep order
	Errors             []string
}

// Run executes the sweep.
// Phases:
//  1. Resolve products
//  2. Compare scenarios for each (product, discount)
//  3. Re-aggregate stored runs of each product
func (o *Orchestrator) Run(ctx context.Context) (*RunResult, error) {
	result := &RunResult{}

	// Phase 1: Resolve products
	o.log.Info("phase 1: resolving products")
	products, err := o.resolveProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("phase 1 (resolve products) failed: %w", err)
	}
	result.ProductsProcessed = len(products)
	o.log.Info("products resolved", "count", len(products))

	if len(products) == 0 {
		return result, nil
	}

	// Phase 2: Comparisons
	o.log.Info("phase 2: running comparisons", "discounts", len(o.discounts))
	if err := o.runComparisons(ctx, products, result); err != nil {
		return nil, err
	}
	o.log.Info("comparisons finished",
		"created", result.ComparisonsCreated,
		"skipped", result.ComparisonsSkipped,
		"errors", len(result.Errors))

	// Phase 3: Aggregation
	if o.aggregator != nil {
		o.log.Info("phase 3: re-aggregating stored runs")
		o.runAggregation(ctx, products, result)
		o.log.Info("aggregation finished", "runs", result.RunsAggregated)
	}

	o.log.Info("sweep completed",
		"products", result.ProductsProcessed,
		"comparisons", result.ComparisonsCreated,
		"errors", len(result.Errors))

	return result, nil
}

// resolveProducts returns the configured products or every stored product.
func (o *Orchestrator) resolveProducts(ctx context.Context) ([]string, error) {
	if len(o.productIDs) > 0 {
		ids := make([]string, len(o.productIDs))
		copy(ids, o.productIDs)
		sort.Strings(ids)
		return ids, nil
	}

	refs, err := o.runner.Products(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(refs))
	for i, r := range refs {
		ids[i] = r.ProductID
	}
	return ids, nil
}

// runComparisons runs one comparison per (product, discount). Only context
// cancellation aborts the sweep; other failures are collected.
func (o *Orchestrator) runComparisons(ctx context.Context, products []string, result *RunResult) error {
	for _, productID := range products {
		for _, discount := range o.discounts {
			out, err := o.runner.Compare(ctx, productID, discount)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				// Duplicate means every run and its days are already stored
				if errors.Is(err, storage.ErrDuplicateKey) {
					result.ComparisonsSkipped++
					continue
				}
				result.Errors = append(result.Errors, fmt.Sprintf("compare %s at %+g%%: %v", productID, discount, err))
				continue
			}
			result.ComparisonsCreated++
			result.ComparisonIDs = append(result.ComparisonIDs, out.ComparisonID)
		}
	}
	return nil
}

// runAggregation recomputes summaries of every stored run of the products.
func (o *Orchestrator) runAggregation(ctx context.Context, products []string, result *RunResult) {
	for _, productID := range products {
		aggs, err := o.aggregator.ComputeProduct(ctx, productID)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("aggregate %s: %v", productID, err))
			continue
		}
		result.RunsAggregated += len(aggs)
	}
	result.Errors = append(result.Errors, o.aggregator.GetMissingDayErrors()...)
}
