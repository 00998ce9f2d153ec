// Package batch evaluates many (item, kit) pairs concurrently against one
// catalog snapshot.
package batch

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/rewired-gh/kitarb/internal/backpack"
	"github.com/rewired-gh/kitarb/internal/catalog"
	"github.com/rewired-gh/kitarb/internal/evaluator"
	"github.com/rewired-gh/kitarb/internal/logger"
	"github.com/rewired-gh/kitarb/internal/models"
)

// Config controls batch execution.
type Config struct {
	Workers  int
	FailFast bool // abort the batch on the first failed pair instead of skipping it
}

// Pair is one unit of work.
type Pair struct {
	Item    string
	KitType models.KitType
}

// Failure records a pair that produced no record.
type Failure struct {
	Pair
	Err error
}

// Result holds the outcome of one batch. Records are in pair order.
type Result struct {
	RunID       uuid.UUID
	KeyPriceRef float64
	StartedAt   time.Time
	FinishedAt  time.Time
	Records     []models.UpgradeRecord
	Failures    []Failure
	Skipped     int // pairs never evaluated because the batch was cancelled
}

// Runner evaluates batches.
type Runner struct {
	quotes   backpack.Quoter
	registry *catalog.Registry
	config   Config
}

// New creates a Runner.
func New(quotes backpack.Quoter, registry *catalog.Registry, config Config) *Runner {
	if config.Workers < 1 {
		config.Workers = 1
	}
	return &Runner{quotes: quotes, registry: registry, config: config}
}

// Pairs expands items and kit types into their cross product.
func Pairs(items []string, kitTypes []models.KitType) []Pair {
	pairs := make([]Pair, 0, len(items)*len(kitTypes))
	for _, item := range items {
		for _, kit := range kitTypes {
			pairs = append(pairs, Pair{Item: item, KitType: kit})
		}
	}
	return pairs
}

type outcome struct {
	done   bool
	record models.UpgradeRecord
	err    error
}

// Run evaluates every (item, kit) pair. An empty kitTypes means every kit in
// the catalog. The catalog is pinned for the whole batch, so a concurrent
// Reload waits until Run returns.
//
// The returned Result is never nil. Records completed before a cancellation or
// a fail-fast abort are kept, and the error reports why the batch stopped.
func (r *Runner) Run(ctx context.Context, items []string, kitTypes []models.KitType) (*Result, error) {
	cat, release := r.registry.Acquire()
	defer release()

	if len(kitTypes) == 0 {
		kitTypes = cat.AllKitTypes()
	}
	pairs := Pairs(items, kitTypes)

	res := &Result{
		RunID:       uuid.New(),
		KeyPriceRef: cat.KeyPriceRef(),
		StartedAt:   time.Now(),
	}
	logger.Info("Batch %s: evaluating %d pairs (%d items x %d kits, workers=%d, key=%.2f ref)",
		res.RunID, len(pairs), len(items), len(kitTypes), r.config.Workers, res.KeyPriceRef)

	outcomes := make([]outcome, len(pairs))
	var skipped atomic.Int32

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.config.Workers)

	for i := range pairs {
		if gctx.Err() != nil {
			skipped.Add(int32(len(pairs) - i))
			break
		}
		g.Go(func() error {
			if gctx.Err() != nil {
				skipped.Add(1)
				return nil
			}
			rec, err := r.evaluatePair(gctx, cat, pairs[i])
			if err != nil && gctx.Err() != nil {
				skipped.Add(1)
				return nil
			}
			outcomes[i] = outcome{done: true, record: rec, err: err}
			if err != nil {
				logger.Warn("Failed to evaluate %s with %s kit: %v", pairs[i].Item, pairs[i].KitType, err)
				if r.config.FailFast {
					return fmt.Errorf("%s (%s): %w", pairs[i].Item, pairs[i].KitType, err)
				}
			}
			return nil
		})
	}
	runErr := g.Wait()

	for i, o := range outcomes {
		if !o.done {
			continue
		}
		if o.err != nil {
			res.Failures = append(res.Failures, Failure{Pair: pairs[i], Err: o.err})
			continue
		}
		res.Records = append(res.Records, o.record)
	}
	res.Skipped = int(skipped.Load())
	res.FinishedAt = time.Now()

	logger.Info("Batch %s finished in %v: %d records, %d failures, %d skipped",
		res.RunID, res.FinishedAt.Sub(res.StartedAt), len(res.Records), len(res.Failures), res.Skipped)

	if runErr != nil {
		return res, fmt.Errorf("batch aborted: %w", runErr)
	}
	if err := ctx.Err(); err != nil {
		return res, fmt.Errorf("batch cancelled: %w", err)
	}
	return res, nil
}

func (r *Runner) evaluatePair(ctx context.Context, cat *catalog.Catalog, p Pair) (models.UpgradeRecord, error) {
	keyPrice := cat.KeyPriceRef()

	upgradedName, err := evaluator.UpgradedName(cat, p.KitType, p.Item)
	if err != nil {
		return models.UpgradeRecord{}, err
	}
	base, err := r.quotes.AcquisitionQuote(ctx, p.Item, keyPrice)
	if err != nil {
		return models.UpgradeRecord{}, err
	}
	upgraded, err := r.quotes.LiquidationQuote(ctx, upgradedName, keyPrice)
	if err != nil {
		return models.UpgradeRecord{}, err
	}

	rec, err := evaluator.Evaluate(cat, p.Item, p.KitType, base, upgraded, keyPrice)
	if err != nil {
		return models.UpgradeRecord{}, err
	}
	logger.Debug("%s: cost %.2f ref, sells %.2f ref, profit %.2f ref",
		rec.BaseItemRef, rec.TotalCost, rec.UpgradedPrice.RefValue, rec.ProfitRef)
	return rec, nil
}
