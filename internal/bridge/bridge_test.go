package bridge

import (
	"testing"

	"github.com/clawinfra/popgenlab/internal/engine"
	"github.com/clawinfra/popgenlab/internal/genetics"
	"github.com/clawinfra/popgenlab/internal/population"
	"github.com/clawinfra/popgenlab/internal/rng"
	"github.com/clawinfra/popgenlab/internal/script"
)

func buildTestEngine(t *testing.T, popSize int) *engine.Engine {
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
	return engine.NewEngine(pop, kernel, stream, interp, nil)
}

func TestWireExposesSimSingletonAndSubpopConstant(t *testing.T) {
	e := buildTestEngine(t, 10)
	Wire(e)

	v, err := e.Evaluate("sim.generation;")
	if err != nil {
		t.Fatalf("evaluate sim.generation: %v", err)
	}
	if v.IntAt(0) != 0 {
		t.Fatalf("sim.generation = %d, want 0", v.IntAt(0))
	}

	v, err = e.Evaluate("p1.individualCount;")
	if err != nil {
		t.Fatalf("evaluate p1.individualCount: %v", err)
	}
	if v.IntAt(0) != 10 {
		t.Fatalf("p1.individualCount = %d, want 10", v.IntAt(0))
	}
}

func TestAddAndRemoveSubpopulationInvalidatesHandle(t *testing.T) {
	e := buildTestEngine(t, 5)
	Wire(e)

	if _, err := e.Evaluate("sim.addSubpopulation(2, 20);"); err != nil {
		t.Fatalf("addSubpopulation: %v", err)
	}
	v, err := e.Evaluate("p2.individualCount;")
	if err != nil {
		t.Fatalf("evaluate p2.individualCount: %v", err)
	}
	if v.IntAt(0) != 20 {
		t.Fatalf("p2.individualCount = %d, want 20", v.IntAt(0))
	}

	if _, err := e.Evaluate("sim.removeSubpopulation(2);"); err != nil {
		t.Fatalf("removeSubpopulation: %v", err)
	}
	if _, ok := e.Population.Subpops[2]; ok {
		t.Fatalf("expected subpopulation 2 to be removed from the population")
	}

	// The p2 constant still holds the removed subpopulation's handle; any
	// dispatch against it must now fail rather than touch freed state.
	if _, err := e.Evaluate("p2.individualCount;"); err == nil {
		t.Fatalf("expected a stale-handle error reading p2 after removal")
	}
}

func TestSetSeedGetSeedRoundTrip(t *testing.T) {
	e := buildTestEngine(t, 5)
	Wire(e)

	if _, err := e.Evaluate("setSeed(42);"); err != nil {
		t.Fatalf("setSeed: %v", err)
	}
	v, err := e.Evaluate("getSeed();")
	if err != nil {
		t.Fatalf("getSeed: %v", err)
	}
	if v.IntAt(0) != 42 {
		t.Fatalf("getSeed() = %d, want 42", v.IntAt(0))
	}
}

func TestAddMutationTypeAndGenomicElementTypeThroughScript(t *testing.T) {
	e := buildTestEngine(t, 5)
	Wire(e)

	v, err := e.Evaluate(`sim.addMutationType(2, 0.25, "fixed", 0.05).dominanceCoeff;`)
	if err != nil {
		t.Fatalf("addMutationType: %v", err)
	}
	if v.AsFloat64(0) != 0.25 {
		t.Fatalf("dominanceCoeff = %v, want 0.25", v.AsFloat64(0))
	}
	if _, ok := e.Population.MutationTypes[2]; !ok {
		t.Fatalf("expected mutation type 2 to be registered on the population")
	}
	if _, err := e.Evaluate(`sim.addMutationType(2, 0.25, "fixed", 0.05);`); err == nil {
		t.Fatalf("expected a simulation error re-registering mutation type id 2")
	}

	v, err = e.Evaluate(`sim.addGenomicElementType(2, c(1, 2), c(1.0, 2.0)).mutationFractions;`)
	if err != nil {
		t.Fatalf("addGenomicElementType: %v", err)
	}
	if v.Count() != 2 || v.AsFloat64(0) != 1.0 || v.AsFloat64(1) != 2.0 {
		t.Fatalf("mutationFractions = %v, want c(1.0, 2.0)", v)
	}
}

func TestSampleRespectsSizeAndDeterminism(t *testing.T) {
	e := buildTestEngine(t, 5)
	Wire(e)

	if _, err := e.Evaluate("setSeed(1);"); err != nil {
		t.Fatalf("setSeed: %v", err)
	}
	a, err := e.Evaluate("sample(1:5, 5, F);")
	if err != nil {
		t.Fatalf("sample: %v", err)
	}
	if _, err := e.Evaluate("setSeed(1);"); err != nil {
		t.Fatalf("setSeed: %v", err)
	}
	b, err := e.Evaluate("sample(1:5, 5, F);")
	if err != nil {
		t.Fatalf("sample (second draw): %v", err)
	}
	if a.Count() != 5 || b.Count() != 5 {
		t.Fatalf("expected sample to return 5 elements, got %d and %d", a.Count(), b.Count())
	}
	for i := 0; i < 5; i++ {
		if a.IntAt(i) != b.IntAt(i) {
			t.Fatalf("setSeed(1) did not reproduce an identical sample draw at index %d: %d != %d", i, a.IntAt(i), b.IntAt(i))
		}
	}
}
