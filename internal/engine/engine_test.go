package engine

import (
	"testing"

	"github.com/clawinfra/popgenlab/internal/genetics"
	"github.com/clawinfra/popgenlab/internal/population"
	"github.com/clawinfra/popgenlab/internal/rng"
	"github.com/clawinfra/popgenlab/internal/script"
)

func buildTestEngine(t *testing.T, popSize int) *Engine {
	t.Helper()

	mt, err := genetics.NewMutationType(1, 0.5, genetics.DistFixed, []float64{0.0})
	if err != nil {
		t.Fatalf("NewMutationType: %v", err)
	}
	et, err := genetics.NewGenomicElementType(1, []int{1}, []float64{1.0})
	if err != nil {
		t.Fatalf("NewGenomicElementType: %v", err)
	}
	elems := []genetics.GenomicElement{{TypeID: 1, Start: 0, End: 999}}
	stream := rng.New(7)
	chrom, err := genetics.NewChromosome(
		elems, 1000,
		map[int]*genetics.GenomicElementType{1: et},
		genetics.NewUniformRateMap(1000, 1e-7),
		genetics.NewUniformRateMap(1000, 1e-8),
		0.0, 50.0,
		stream,
	)
	if err != nil {
		t.Fatalf("NewChromosome: %v", err)
	}

	mutTypes := map[int]*genetics.MutationType{1: mt}
	kernel := genetics.NewKernel(chrom, mutTypes, nil)

	pop := population.NewPopulation()
	pop.MutationTypes = mutTypes
	pop.GenomicElementTypes = map[int]*genetics.GenomicElementType{1: et}

	sp, err := population.NewSubpopulation(1, popSize, 0)
	if err != nil {
		t.Fatalf("NewSubpopulation: %v", err)
	}
	if err := pop.AddSubpopulation(sp); err != nil {
		t.Fatalf("AddSubpopulation: %v", err)
	}

	interp := script.NewInterpreter()
	return NewEngine(pop, kernel, stream, interp, nil)
}

func TestRunOneGenerationAdvancesGenerationAndSwapsChildren(t *testing.T) {
	e := buildTestEngine(t, 10)
	startGen := e.Population.Generation

	more, err := e.RunOneGeneration()
	if err != nil {
		t.Fatalf("RunOneGeneration: %v", err)
	}
	if !more {
		t.Fatalf("expected the simulation to continue when no script blocks bound the run")
	}
	if e.Population.Generation != startGen+1 {
		t.Fatalf("expected generation to advance by 1, got %d -> %d", startGen, e.Population.Generation)
	}
	if e.Stats().GenerationsRun != 1 {
		t.Fatalf("expected 1 generation run, got %d", e.Stats().GenerationsRun)
	}
	sp := e.Population.Subpops[1]
	if len(sp.Parents()) != 2*10 {
		t.Fatalf("expected parents array to hold 2*N genomes after swap, got %d", len(sp.Parents()))
	}
}

// buildZeroRateEngine builds an engine whose chromosome has zero
// mutation and recombination rates, so every meiosis reproduces a
// parental genome verbatim and fixation behavior can be asserted
// exactly.
func buildZeroRateEngine(t *testing.T, popSize int) *Engine {
	t.Helper()

	mt, err := genetics.NewMutationType(1, 0.5, genetics.DistFixed, []float64{0.1})
	if err != nil {
		t.Fatalf("NewMutationType: %v", err)
	}
	et, err := genetics.NewGenomicElementType(1, []int{1}, []float64{1.0})
	if err != nil {
		t.Fatalf("NewGenomicElementType: %v", err)
	}
	elems := []genetics.GenomicElement{{TypeID: 1, Start: 0, End: 999}}
	stream := rng.New(13)
	chrom, err := genetics.NewChromosome(
		elems, 1000,
		map[int]*genetics.GenomicElementType{1: et},
		genetics.NewUniformRateMap(1000, 0),
		genetics.NewUniformRateMap(1000, 0),
		0.0, 0.0,
		stream,
	)
	if err != nil {
		t.Fatalf("NewChromosome: %v", err)
	}

	mutTypes := map[int]*genetics.MutationType{1: mt}
	kernel := genetics.NewKernel(chrom, mutTypes, nil)

	pop := population.NewPopulation()
	pop.MutationTypes = mutTypes
	pop.GenomicElementTypes = map[int]*genetics.GenomicElementType{1: et}

	sp, err := population.NewSubpopulation(1, popSize, 0)
	if err != nil {
		t.Fatalf("NewSubpopulation: %v", err)
	}
	if err := pop.AddSubpopulation(sp); err != nil {
		t.Fatalf("AddSubpopulation: %v", err)
	}

	interp := script.NewInterpreter()
	return NewEngine(pop, kernel, stream, interp, nil)
}

func TestRunOneGenerationSubstitutesFixedMutationsFromNewParents(t *testing.T) {
	e := buildZeroRateEngine(t, 4)
	sp := e.Population.Subpops[1]

	// A mutation carried by every parent genome is at frequency 1; with
	// zero mutation/recombination rates every offspring inherits it, so
	// the generation that gets published as the new parents must have it
	// stripped into the substitutions registry.
	fixed := genetics.NewMutationWithID(1000, 1, 10, 0.1, 1, 0)
	for _, g := range sp.Parents() {
		g.Insert(fixed)
	}

	if _, err := e.RunOneGeneration(); err != nil {
		t.Fatalf("RunOneGeneration: %v", err)
	}

	for gi, g := range sp.Parents() {
		for _, m := range g.Mutations() {
			if m.ID() == fixed.ID() {
				t.Fatalf("genome %d still carries the fixed mutation after the generation completed", gi)
			}
		}
	}
	if len(e.Population.Substitutions) != 1 {
		t.Fatalf("expected 1 substitution registered, got %d", len(e.Population.Substitutions))
	}
	if e.Stats().SubstitutionsFixed != 1 {
		t.Fatalf("expected SubstitutionsFixed == 1, got %d", e.Stats().SubstitutionsFixed)
	}

	// A second generation must not re-identify the already-substituted
	// mutation.
	if _, err := e.RunOneGeneration(); err != nil {
		t.Fatalf("RunOneGeneration (second): %v", err)
	}
	if len(e.Population.Substitutions) != 1 {
		t.Fatalf("substitutions registry grew on a later generation: %d entries", len(e.Population.Substitutions))
	}
	if e.Stats().SubstitutionsFixed != 1 {
		t.Fatalf("SubstitutionsFixed double-counted: %d", e.Stats().SubstitutionsFixed)
	}
}

func TestRunOneGenerationTerminatesAtLastScriptBlockBound(t *testing.T) {
	e := buildTestEngine(t, 5)
	e.Population.RegisterScriptBlock(population.ScriptBlock{StartGen: 1, EndGen: 1, Kind: "early"})
	e.Population.Generation = 1

	more, err := e.RunOneGeneration()
	if err != nil {
		t.Fatalf("RunOneGeneration: %v", err)
	}
	if more {
		t.Fatalf("expected termination once generation exceeds the last registered script block")
	}
	if !e.Finished() {
		t.Fatalf("expected Finished() to report true after the terminal generation")
	}

	more, err = e.RunOneGeneration()
	if err != nil {
		t.Fatalf("RunOneGeneration after termination: %v", err)
	}
	if more {
		t.Fatalf("expected a finished engine to keep reporting false")
	}
}

func TestFinishStopsFurtherGenerations(t *testing.T) {
	e := buildTestEngine(t, 5)
	e.Finish()
	more, err := e.RunOneGeneration()
	if err != nil {
		t.Fatalf("RunOneGeneration: %v", err)
	}
	if more {
		t.Fatalf("expected a manually finished engine to report no more generations")
	}
}

func TestEvaluateRunsScriptAgainstLiveInterpreter(t *testing.T) {
	e := buildTestEngine(t, 5)
	v, err := e.Evaluate("2 + 3 * 4;")
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if v.Count() != 1 || v.AsFloat64(0) != 14 {
		t.Fatalf("expected 14, got %v", v)
	}
}

func TestSetSeedAndGetSeedRoundTrip(t *testing.T) {
	e := buildTestEngine(t, 5)
	e.SetSeed(99)
	if e.GetSeed() != 99 {
		t.Fatalf("expected seed 99, got %d", e.GetSeed())
	}
}
