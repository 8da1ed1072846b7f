// Command popgenlab runs a forward-time population-genetics simulation
// from a TOML run configuration.
package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/clawinfra/popgenlab/internal/bridge"
	"github.com/clawinfra/popgenlab/internal/config"
	"github.com/clawinfra/popgenlab/internal/dump"
	"github.com/clawinfra/popgenlab/internal/engine"
	"github.com/clawinfra/popgenlab/internal/genetics"
	"github.com/clawinfra/popgenlab/internal/rng"
	"github.com/clawinfra/popgenlab/internal/script"
)

var (
	version = "0.1.0"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "run.toml", "Path to the TOML run configuration")
	logLevel := flag.String("log-level", "info", "Log level: debug, info, warn, error")
	seedOverride := flag.Int64("seed", 0, "Override the configured RNG seed (0 keeps the configured seed)")
	validateOnly := flag.Bool("validate-only", false, "Load the configuration and run initialize blocks, then exit without simulating generations")
	showVersion := flag.Bool("version", false, "Show version")
	flag.Parse()

	if *showVersion {
		fmt.Printf("popgenlab v%s\n", version)
		return 0
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLogLevel(*logLevel),
	}))

	app, err := setup(*configPath, *seedOverride, logger)
	if err != nil {
		logger.Error("setup failed", "error", err)
		return 1
	}
	defer app.close()

	if err := app.runInitializeBlocks(); err != nil {
		logger.Error("initialize blocks failed", "error", err)
		return 1
	}

	if *validateOnly {
		logger.Info("validate-only: configuration loaded and initialize blocks ran cleanly", "config", *configPath)
		return 0
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.runSimulation(ctx); err != nil {
		logger.Error("simulation failed", "error", err)
		return 1
	}

	logger.Info("simulation complete",
		"generations", app.Engine.Stats().GenerationsRun,
		"substitutions_fixed", app.Engine.Stats().SubstitutionsFixed,
	)
	return 0
}

// app holds the wired simulation components for one run.
type app struct {
	Config *config.RunConfig
	Engine *engine.Engine
	Ledger *dump.Ledger
	Logger *slog.Logger
}

func (a *app) close() {
	if a.Ledger != nil {
		if err := a.Ledger.Close(); err != nil {
			a.Logger.Warn("closing ledger", "error", err)
		}
	}
}

// setup loads the run configuration, assembles the chromosome and
// population it describes, and wires a running engine.
func setup(configPath string, seedOverride int64, logger *slog.Logger) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	lib, err := cfg.LoadPresetLibraryIfSet()
	if err != nil {
		return nil, fmt.Errorf("load preset library: %w", err)
	}

	seed := cfg.Seed
	if seedOverride != 0 {
		seed = seedOverride
	}
	stream := rng.New(seed)

	assembled, err := cfg.Build(stream, lib)
	if err != nil {
		return nil, fmt.Errorf("build simulation: %w", err)
	}

	kernel := genetics.NewKernel(assembled.Chromosome, assembled.Population.MutationTypes, nil)
	interp := script.NewInterpreter()
	eng := engine.NewEngine(assembled.Population, kernel, stream, interp, logger)
	eng.Dumper = dump.Dumper{}
	eng.Loader = dump.Loader{}

	bridge.Wire(eng)

	var ledger *dump.Ledger
	if cfg.Output.LedgerPath != "" {
		ledger, err = dump.OpenLedger(cfg.Output.LedgerPath)
		if err != nil {
			return nil, fmt.Errorf("open ledger: %w", err)
		}
		logger.Info("ledger opened", "path", cfg.Output.LedgerPath, "run_id", ledger.RunID())
	}

	return &app{Config: cfg, Engine: eng, Ledger: ledger, Logger: logger}, nil
}

// runInitializeBlocks runs every registered `initialize` block once,
// in registration order, before the first generation.
// The engine's own per-generation life cycle never runs this event
// kind, since it only ever applies at the population's zero generation.
func (a *app) runInitializeBlocks() error {
	for _, b := range a.Engine.Population.ActiveScriptBlocks(0, "initialize") {
		if b.Program == nil {
			continue
		}
		if _, err := a.Engine.Interp.Run(b.Program); err != nil {
			return fmt.Errorf("initialize block: %w", err)
		}
	}
	return nil
}

// runSimulation drives the per-generation life cycle until the engine
// reports termination or ctx is canceled, recording each completed
// generation to the ledger (if configured) and dumping the population
// at the configured cadence.
func (a *app) runSimulation(ctx context.Context) error {
	cadence := a.Config.Output.DumpEveryNGenerations

	for {
		select {
		case <-ctx.Done():
			a.Logger.Info("shutdown signal received, stopping after current generation")
			return a.maybeDumpFinal(ctx)
		default:
		}

		completedGen := a.Engine.Population.Generation
		cont, err := a.Engine.RunOneGeneration()
		if err != nil {
			return err
		}

		if a.Ledger != nil {
			if err := a.Ledger.RecordGeneration(ctx, completedGen, a.Engine.Stats()); err != nil {
				a.Logger.Warn("record generation to ledger", "generation", completedGen, "error", err)
			}
		}

		if cadence > 0 && completedGen > 0 && completedGen%cadence == 0 {
			if err := a.dumpGeneration(ctx, completedGen); err != nil {
				a.Logger.Warn("dump population", "generation", completedGen, "error", err)
			}
		}

		if !cont {
			return a.maybeDumpFinal(ctx)
		}
	}
}

func (a *app) maybeDumpFinal(ctx context.Context) error {
	if a.Config.Output.DumpPathTemplate == "" {
		return nil
	}
	return a.dumpGeneration(ctx, a.Engine.Population.Generation)
}

// dumpGeneration writes the population dump for gen to its configured
// path and, when a ledger is open, records the dump's BLAKE2b-256
// checksum alongside its path (dump.Checksum) so the file can later be
// verified against bit rot or truncation without re-simulating.
func (a *app) dumpGeneration(ctx context.Context, gen int64) error {
	if a.Config.Output.DumpPathTemplate == "" {
		return nil
	}
	path := fmt.Sprintf(a.Config.Output.DumpPathTemplate, gen)

	var buf bytes.Buffer
	if err := a.Engine.DumpPopulation(&buf, a.Config.Output.DumpTag); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write dump file %s: %w", path, err)
	}

	if a.Ledger != nil {
		checksum := dump.Checksum(buf.Bytes())
		if err := a.Ledger.RecordDump(ctx, gen, path, checksum); err != nil {
			a.Logger.Warn("record dump checksum to ledger", "generation", gen, "error", err)
		}
	}
	return nil
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
