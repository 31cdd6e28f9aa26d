// Package main provides the duel simulator CLI: it resolves two champion
// builds, runs one duel (or a seeded batch) and prints the outcome.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/duelsim/internal/config"
	"github.com/cory-johannsen/duelsim/internal/game/build"
	"github.com/cory-johannsen/duelsim/internal/game/catalog"
	"github.com/cory-johannsen/duelsim/internal/game/dice"
	"github.com/cory-johannsen/duelsim/internal/game/effect"
	"github.com/cory-johannsen/duelsim/internal/game/scenario"
	"github.com/cory-johannsen/duelsim/internal/observability"
	"github.com/cory-johannsen/duelsim/internal/scripting"
	"github.com/cory-johannsen/duelsim/internal/storage/postgres"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		log.Fatalf("duelsim: %v", err)
	}
}

type sideFlags struct {
	champion string
	level    int
	items    string
	effects  string
}

func (f sideFlags) spec() build.Spec {
	return build.Spec{
		Champion: f.champion,
		Level:    f.level,
		Items:    splitList(f.items),
		Effects:  splitList(f.effects),
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// run parses args, applies them over the loaded configuration and writes the
// duel report to out.
func run(ctx context.Context, args []string, out io.Writer) error {
	start := time.Now()

	fs := flag.NewFlagSet("duelsim", flag.ContinueOnError)
	fs.SetOutput(out)
	configPath := fs.String("config", "", "path to configuration file (empty = defaults and DUELSIM_* env)")
	var a, b sideFlags
	fs.StringVar(&a.champion, "a", "test-bruiser", "side A champion id or name")
	fs.IntVar(&a.level, "a-level", 1, "side A level")
	fs.StringVar(&a.items, "a-items", "", "side A comma-separated item ids")
	fs.StringVar(&a.effects, "a-effects", "", "side A comma-separated extra on-hit effects")
	fs.StringVar(&b.champion, "b", "test-bruiser", "side B champion id or name")
	fs.IntVar(&b.level, "b-level", 1, "side B level")
	fs.StringVar(&b.items, "b-items", "", "side B comma-separated item ids")
	fs.StringVar(&b.effects, "b-effects", "", "side B comma-separated extra on-hit effects")
	first := fs.String("first", "", "first actor: a or b (overrides simulation.first_actor)")
	delay := fs.Duration("delay", 0, "reaction delay of the second side (overrides simulation.reaction_delay)")
	runs := fs.Int("runs", 0, "number of runs; > 1 runs a seeded batch (overrides simulation.runs)")
	workers := fs.Int("workers", 0, "concurrent batch runs (overrides simulation.workers)")
	seed := fs.Uint64("seed", 0, "crit seed (overrides simulation.seed; 0 = random)")
	maxTicks := fs.Int("max-ticks", 0, "tick cap before a stalemate (overrides simulation.max_ticks)")
	script := fs.String("script", "", "Lua hook file or directory (overrides scripting.script)")
	verbose := fs.Bool("v", false, "print every event of a single run")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "first":
			cfg.Simulation.FirstActor = *first
		case "delay":
			cfg.Simulation.ReactionDelay = *delay
		case "runs":
			cfg.Simulation.Runs = *runs
		case "workers":
			cfg.Simulation.Workers = *workers
		case "seed":
			cfg.Simulation.Seed = *seed
		case "max-ticks":
			cfg.Simulation.MaxTicks = *maxTicks
		case "script":
			cfg.Scripting.Script = *script
		}
	})
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	champions, closeCatalog, err := openCatalog(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeCatalog()

	items, err := build.LoadItemDirectory(cfg.Catalog.ItemsDir)
	if err != nil {
		return fmt.Errorf("loading items: %w", err)
	}
	effects, err := effect.LoadDirectory(cfg.Catalog.EffectsDir)
	if err != nil {
		return fmt.Errorf("loading effects: %w", err)
	}
	resolver := build.NewResolver(champions, items, effects)

	buildA, err := resolver.Resolve(ctx, a.spec())
	if err != nil {
		return fmt.Errorf("side A: %w", err)
	}
	buildB, err := resolver.Resolve(ctx, b.spec())
	if err != nil {
		return fmt.Errorf("side B: %w", err)
	}
	firstSide, err := scenario.ParseSide(cfg.Simulation.FirstActor)
	if err != nil {
		return err
	}

	sinks := scenario.MultiSink{scenario.NewLogSink(logger)}
	if cfg.Scripting.Script != "" {
		mgr := scripting.NewManager(logger)
		if err := mgr.Load(cfg.Scripting.Script, cfg.Scripting.InstructionLimit); err != nil {
			return err
		}
		defer mgr.Close()
		sinks = append(sinks, mgr)
	}
	batch := cfg.Simulation.Runs > 1
	if *verbose && !batch {
		sinks = append(sinks, scenario.SinkFunc(func(_ context.Context, e scenario.Event) {
			if e.Kind != scenario.EventDefeated {
				fmt.Fprintln(out, e.Narrative)
			}
		}))
	}

	runSeed := cfg.Simulation.Seed
	if runSeed == 0 {
		runSeed = dice.RandomSeed()
	}
	src := dice.NewSeededSource(runSeed)
	if logger.Core().Enabled(zap.DebugLevel) {
		src = dice.NewLoggedSource(src, logger)
	}
	s, err := scenario.New(firstSide, cfg.Simulation.ReactionDelay, buildA, buildB,
		scenario.WithEffects(effects),
		scenario.WithMaxTicks(cfg.Simulation.MaxTicks),
		scenario.WithSource(src),
		scenario.WithSink(sinks),
		scenario.WithLogger(logger),
	)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "%s (%d) vs %s (%d) | first: %s | reaction delay: %s\n",
		buildA.Champion.Name, buildA.Level, buildB.Champion.Name, buildB.Level,
		firstSide, cfg.Simulation.ReactionDelay)

	if batch {
		res, err := (&scenario.Batch{
			Scenario: s,
			Runs:     cfg.Simulation.Runs,
			Workers:  cfg.Simulation.Workers,
			Seed:     runSeed,
			Logger:   logger,
		}).Run(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "runs: %d | seed: %d | A wins %.1f%% | B wins %.1f%% | stalemates %.1f%% | mean %.2fs\n",
			res.Runs, runSeed,
			100*res.WinRate(scenario.SideA), 100*res.WinRate(scenario.SideB), 100*res.WinRate(scenario.NoSide),
			res.MeanSeconds())
		logger.Debug("duelsim finished", zap.Duration("elapsed", time.Since(start)))
		return nil
	}

	res, err := s.Run(ctx)
	switch {
	case errors.Is(err, scenario.ErrStalemate):
		fmt.Fprintf(out, "stalemate after %d ticks\n", res.ElapsedTicks)
	case err != nil:
		return err
	default:
		level := buildA.Level
		if res.Winner == scenario.SideB {
			level = buildB.Level
		}
		fmt.Fprintf(out, "%s (%d) wins!\n", res.WinnerName, level)
	}
	fmt.Fprintf(out, "A: %s %.2f health | B: %s %.2f health\n", res.NameA, res.FinalHealthA, res.NameB, res.FinalHealthB)
	fmt.Fprintf(out, "fight lasted %.2fs (%d ticks)\n", res.Seconds(), res.ElapsedTicks)
	logger.Debug("duelsim finished", zap.Duration("elapsed", time.Since(start)))
	return nil
}

// openCatalog returns the champion catalog selected by cfg.Catalog.Source and
// a function releasing its resources.
func openCatalog(ctx context.Context, cfg config.Config, logger *zap.Logger) (catalog.Catalog, func(), error) {
	if cfg.Catalog.Source == "postgres" {
		pool, err := postgres.OpenCatalog(ctx, cfg.Database, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("opening champion catalog: %w", err)
		}
		return pool.Champions(), pool.Close, nil
	}
	reg, err := catalog.LoadDirectory(cfg.Catalog.ChampionsDir)
	if err != nil {
		return nil, nil, fmt.Errorf("loading champions: %w", err)
	}
	logger.Debug("champions loaded", zap.Int("count", len(reg.All())))
	return reg, func() {}, nil
}
