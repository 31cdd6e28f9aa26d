package scenario

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/cory-johannsen/duelsim/internal/game/dice"
)

// BatchResult aggregates many runs of one Scenario.
type BatchResult struct {
	Runs       int
	WinsA      int
	WinsB      int
	Stalemates int
	// MeanTicks is the mean ElapsedTicks over decided runs.
	MeanTicks float64
	// Results holds every run in run-index order.
	Results []Result
}

// WinRate returns the fraction of runs won by side.
func (b BatchResult) WinRate(side Side) float64 {
	if b.Runs == 0 {
		return 0
	}
	switch side {
	case SideA:
		return float64(b.WinsA) / float64(b.Runs)
	case SideB:
		return float64(b.WinsB) / float64(b.Runs)
	default:
		return float64(b.Stalemates) / float64(b.Runs)
	}
}

// MeanSeconds returns MeanTicks in simulated seconds.
func (b BatchResult) MeanSeconds() float64 { return b.MeanTicks / TicksPerSecond }

// Batch runs one Scenario many times concurrently. Run i draws its critical
// strikes from a source seeded with Seed+i, so a batch is reproducible for a
// given seed regardless of Workers.
type Batch struct {
	Scenario *Scenario
	Runs     int
	// Workers bounds concurrent runs; values < 1 mean one.
	Workers int
	Seed    uint64
	Logger  *zap.Logger
}

// Run executes every run and aggregates the outcomes. Stalemates are counted,
// not returned as errors.
//
// Precondition: b.Scenario must be non-nil and b.Runs > 0.
// Postcondition: On success len(Results) == Runs and WinsA+WinsB+Stalemates == Runs.
// The first non-stalemate error cancels the remaining runs and is returned.
func (b *Batch) Run(ctx context.Context) (BatchResult, error) {
	if b.Scenario == nil {
		return BatchResult{}, fmt.Errorf("%w: batch scenario must not be nil", ErrInvalidConfiguration)
	}
	if b.Runs <= 0 {
		return BatchResult{}, fmt.Errorf("%w: batch runs must be > 0, got %d", ErrInvalidConfiguration, b.Runs)
	}
	workers := b.Workers
	if workers < 1 {
		workers = 1
	}
	logger := b.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	results := make([]Result, b.Runs)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := 0; i < b.Runs; i++ {
		g.Go(func() error {
			res, err := b.Scenario.run(gctx, dice.NewSeededSource(b.Seed+uint64(i)))
			if err != nil && !errors.Is(err, ErrStalemate) {
				return fmt.Errorf("run %d: %w", i, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return BatchResult{}, err
	}

	out := BatchResult{Runs: b.Runs, Results: results}
	decidedTicks := 0
	for _, r := range results {
		switch r.Winner {
		case SideA:
			out.WinsA++
		case SideB:
			out.WinsB++
		default:
			out.Stalemates++
			continue
		}
		decidedTicks += r.ElapsedTicks
	}
	if decided := out.WinsA + out.WinsB; decided > 0 {
		out.MeanTicks = float64(decidedTicks) / float64(decided)
	}
	logger.Info("batch finished",
		zap.Int("runs", out.Runs),
		zap.Int("workers", workers),
		zap.Uint64("seed", b.Seed),
		zap.Int("wins_a", out.WinsA),
		zap.Int("wins_b", out.WinsB),
		zap.Int("stalemates", out.Stalemates),
		zap.Float64("mean_ticks", out.MeanTicks),
	)
	return out, nil
}
