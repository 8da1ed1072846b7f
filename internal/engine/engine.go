// Package engine drives the per-generation life cycle: running
// early/late script blocks, updating fitness caches and realizing
// migration, drawing offspring through the meiosis kernel with optional
// mateChoice/modifyChild script hooks, identifying and realizing
// fixations, and swapping generations.
package engine

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/clawinfra/popgenlab/internal/genetics"
	"github.com/clawinfra/popgenlab/internal/population"
	"github.com/clawinfra/popgenlab/internal/rng"
	"github.com/clawinfra/popgenlab/internal/script"
	"github.com/clawinfra/popgenlab/internal/value"
)

// maxRedrawAttempts bounds the modifyChild rejection/redraw loop so a
// pathological script cannot spin the engine forever.
const maxRedrawAttempts = 1000

// Dumper and Loader let cmd/popgenlab wire the population dump/load
// format into the engine's process-level surface without the engine
// importing that package directly.
type Dumper interface {
	Dump(w io.Writer, pop *population.Population, tag string) error
}

type Loader interface {
	Load(r io.Reader, pop *population.Population) (*population.Population, error)
}

// Stats is the run summary exposed to the embedder:
// generations run, substitutions fixed so far, and the per-subpopulation
// mean fitness observed at the last late event of the most recent
// generation.
type Stats struct {
	GenerationsRun      int64
	SubstitutionsFixed  int64
	MeanFitnessBySubpop map[int]float64
}

// Engine owns one simulation instance: the population, its meiosis
// kernel, the shared RNG stream, the script interpreter running its
// script blocks, and a running Stats summary. It carries no locking — the
// core is single-threaded and cooperative.
type Engine struct {
	Population *population.Population
	Kernel     *genetics.Kernel
	Stream     *rng.Stream
	Interp     *script.Interpreter
	Logger     *slog.Logger

	Dumper Dumper
	Loader Loader

	stats    Stats
	finished bool
}

// NewEngine wires a population, kernel, RNG stream and script interpreter
// into one simulation instance. The interpreter's Context is set to the
// Engine itself so builtins registered by a host-object bridge can reach
// the running simulation.
func NewEngine(pop *population.Population, kernel *genetics.Kernel, stream *rng.Stream, interp *script.Interpreter, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Engine{
		Population: pop,
		Kernel:     kernel,
		Stream:     stream,
		Interp:     interp,
		Logger:     logger.With("component", "engine"),
		stats:      Stats{MeanFitnessBySubpop: make(map[int]float64)},
	}
	interp.Context = e
	return e
}

// Stats returns a snapshot of the engine's run summary.
func (e *Engine) Stats() Stats {
	cp := e.stats
	cp.MeanFitnessBySubpop = make(map[int]float64, len(e.stats.MeanFitnessBySubpop))
	for k, v := range e.stats.MeanFitnessBySubpop {
		cp.MeanFitnessBySubpop[k] = v
	}
	return cp
}

// Finish marks the simulation as terminated by scripted request. The
// host-object bridge's Wire hands it to the population object, whose
// simulationFinished() method calls it.
func (e *Engine) Finish() { e.finished = true }

// Finished reports whether the simulation has reached its termination
// condition, either by script request or by exceeding the last
// registered script block's generation range.
func (e *Engine) Finished() bool { return e.finished }

// SetSeed resets the RNG stream (set_seed(n)).
func (e *Engine) SetSeed(seed int64) { e.Stream.Seed(seed) }

// GetSeed returns the last seed set (get_seed()).
func (e *Engine) GetSeed() int64 { return e.Stream.GetSeed() }

// Evaluate runs an arbitrary script string against the engine's live
// interpreter state (evaluate(script_string)).
func (e *Engine) Evaluate(src string) (*value.Value, error) {
	return e.Interp.ExecuteLambda(src)
}

// DumpPopulation writes the current population to w via the configured
// Dumper (dump_population(stream)).
func (e *Engine) DumpPopulation(w io.Writer, tag string) error {
	if e.Dumper == nil {
		return fmt.Errorf("engine: no Dumper configured")
	}
	return e.Dumper.Dump(w, e.Population, tag)
}

// LoadPopulation replaces the engine's population with one read from r
// via the configured Loader (load_population(stream)).
func (e *Engine) LoadPopulation(r io.Reader) error {
	if e.Loader == nil {
		return fmt.Errorf("engine: no Loader configured")
	}
	pop, err := e.Loader.Load(r, e.Population)
	if err != nil {
		return err
	}
	e.Population = pop
	return nil
}

// RunOneGeneration executes one pass of the per-generation life cycle
// and reports whether the simulation should continue
// (run_one_generation() -> bool: false at termination).
func (e *Engine) RunOneGeneration() (bool, error) {
	if e.finished {
		return false, nil
	}
	g := e.Population.Generation
	if last, ok := e.Population.LastScriptBlockGeneration(); ok && g > last {
		e.finished = true
		return false, nil
	}

	if err := e.runBlocks(e.Population.ActiveScriptBlocks(g, "early")); err != nil {
		return false, fmt.Errorf("engine: generation %d early blocks: %w", g, err)
	}

	subpopIDs := e.Population.SubpopIDsSorted()
	plans := make(map[int]*population.MigrationPlan, len(subpopIDs))
	for _, id := range subpopIDs {
		sp := e.Population.Subpops[id]
		if err := sp.UpdateFitnessCache(e.Population.MutationTypes, e.Stream); err != nil {
			return false, fmt.Errorf("engine: generation %d fitness update for subpop %d: %w", g, id, err)
		}
		plan, err := population.RealizeMigration(sp, e.Stream)
		if err != nil {
			return false, fmt.Errorf("engine: generation %d migration for subpop %d: %w", g, id, err)
		}
		plans[id] = plan
	}

	mateChoiceBlocks := e.Population.ActiveScriptBlocks(g, "mateChoice")
	modifyChildBlocks := e.Population.ActiveScriptBlocks(g, "modifyChild")

	for _, id := range subpopIDs {
		target := e.Population.Subpops[id]
		plan := plans[id]
		for child := 0; child < target.Size; child++ {
			sourceID := plan.SourceOf[child]
			source := e.Population.Subpops[sourceID]

			genomeA, genomeB, err := e.drawChildGenomes(g, target, source, mateChoiceBlocks, modifyChildBlocks)
			if err != nil {
				return false, fmt.Errorf("engine: generation %d offspring %d of subpop %d: %w", g, child, id, err)
			}
			target.SetChild(2*child, genomeA)
			target.SetChild(2*child+1, genomeB)
		}
	}

	if err := e.runBlocks(e.Population.ActiveScriptBlocks(g, "late")); err != nil {
		return false, fmt.Errorf("engine: generation %d late blocks: %w", g, err)
	}

	for _, id := range subpopIDs {
		sp := e.Population.Subpops[id]
		e.stats.MeanFitnessBySubpop[id] = meanOf(sp.Fitnesses())
	}

	for _, id := range subpopIDs {
		e.Population.Subpops[id].SwapGenerations()
	}

	// Fixation is assessed on the generation that was just published as
	// parents. Checking the old parents instead would leave every fixed
	// mutation alive in the offspring (they were drawn before stripping)
	// and re-substitute it again each generation.
	fixed := e.Population.IdentifyFixedMutations()
	e.Population.RealizeFixations(fixed)
	e.stats.SubstitutionsFixed += int64(len(fixed))

	e.Population.Generation++
	e.stats.GenerationsRun++

	if last, ok := e.Population.LastScriptBlockGeneration(); ok && e.Population.Generation > last {
		e.finished = true
	}

	e.Logger.Info("generation complete",
		"generation", g,
		"fixed", len(fixed),
	)
	return !e.finished, nil
}

// drawChildGenomes chooses the two parents for one offspring (honoring
// the selfing fraction and any active mateChoice blocks) and invokes the
// meiosis kernel twice, redrawing from scratch whenever an active
// modifyChild block rejects the result.
func (e *Engine) drawChildGenomes(g int64, target, source *population.Subpopulation, mateChoiceBlocks, modifyChildBlocks []population.ScriptBlock) (*genetics.Genome, *genetics.Genome, error) {
	for attempt := 0; attempt < maxRedrawAttempts; attempt++ {
		parent1, err := source.ChooseParent()
		if err != nil {
			return nil, nil, err
		}
		parent2, err := e.chooseMate(source, parent1, mateChoiceBlocks)
		if err != nil {
			return nil, nil, err
		}

		p1A, p1B := population.GenomeOf(source.Parents(), parent1)
		p2A, p2B := population.GenomeOf(source.Parents(), parent2)

		genomeA, err := e.Kernel.Meiosis(e.Stream, p1A, p1B, target.ID, g)
		if err != nil {
			return nil, nil, err
		}
		genomeB, err := e.Kernel.Meiosis(e.Stream, p2A, p2B, target.ID, g)
		if err != nil {
			return nil, nil, err
		}

		accept, err := e.runModifyChild(modifyChildBlocks, target.ID, parent1, parent2, genomeA, genomeB)
		if err != nil {
			return nil, nil, err
		}
		if accept {
			return genomeA, genomeB, nil
		}
	}
	return nil, nil, fmt.Errorf("modifyChild rejected %d consecutive offspring draws in subpopulation %d", maxRedrawAttempts, target.ID)
}

// chooseMate applies any active mateChoice blocks on top of the
// subpopulation's default selfing-aware mate choice. A block's return
// value of NULL defers to the default; a numeric singleton is used
// directly as the mate's individual index; anything else is a script
// error in the block itself.
func (e *Engine) chooseMate(source *population.Subpopulation, firstParent int, blocks []population.ScriptBlock) (int, error) {
	for _, b := range blocks {
		if b.Program == nil {
			continue
		}
		result, err := e.Interp.Run(b.Program)
		if err != nil {
			return 0, fmt.Errorf("mateChoice block: %w", err)
		}
		if result == nil || result.Type() == value.Null {
			continue
		}
		if result.Count() != 1 || (result.Type() != value.Int && result.Type() != value.Float) {
			return 0, fmt.Errorf("mateChoice block: expected NULL or a numeric singleton, got %s of length %d", result.Type(), result.Count())
		}
		return int(result.AsFloat64(0)), nil
	}
	return source.ChooseMate(e.Stream, firstParent)
}

// runModifyChild reports whether the offspring draw is accepted. Absent
// any active modifyChild block, every draw is accepted.
func (e *Engine) runModifyChild(blocks []population.ScriptBlock, subpopID, parent1, parent2 int, genomeA, genomeB *genetics.Genome) (bool, error) {
	for _, b := range blocks {
		if b.Program == nil {
			continue
		}
		result, err := e.Interp.Run(b.Program)
		if err != nil {
			return false, fmt.Errorf("modifyChild block: %w", err)
		}
		if result == nil {
			continue
		}
		ok, err := result.Truthy()
		if err != nil {
			return false, fmt.Errorf("modifyChild block: %w", err)
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

// runBlocks runs script blocks in registration order.
func (e *Engine) runBlocks(blocks []population.ScriptBlock) error {
	for _, b := range blocks {
		if b.Program == nil {
			continue
		}
		if _, err := e.Interp.Run(b.Program); err != nil {
			return err
		}
	}
	return nil
}

func meanOf(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	var sum float64
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}
