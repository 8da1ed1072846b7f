package genetics

import (
	"testing"

	"github.com/clawinfra/popgenlab/internal/rng"
)

func buildTestChromosome(t *testing.T) *Chromosome {
	t.Helper()
	et, err := NewGenomicElementType(1, []int{1}, []float64{1.0})
	if err != nil {
		t.Fatalf("NewGenomicElementType: %v", err)
	}
	elems := []GenomicElement{{TypeID: 1, Start: 0, End: 999}}
	stream := rng.New(42)
	chrom, err := NewChromosome(
		elems, 1000,
		map[int]*GenomicElementType{1: et},
		NewUniformRateMap(1000, 1e-7),
		NewUniformRateMap(1000, 1e-8),
		0.0, 50.0,
		stream,
	)
	if err != nil {
		t.Fatalf("NewChromosome: %v", err)
	}
	return chrom
}

func TestChromosomeRateTotalsAndFastPath(t *testing.T) {
	chrom := buildTestChromosome(t)
	if chrom.MutationRateTotal() <= 0 {
		t.Fatalf("expected positive mutation rate total, got %v", chrom.MutationRateTotal())
	}
	if chrom.RecombinationRateTotal() <= 0 {
		t.Fatalf("expected positive recombination rate total, got %v", chrom.RecombinationRateTotal())
	}
	if chrom.JointZeroProbability() <= 0 || chrom.JointZeroProbability() >= 1 {
		t.Fatalf("joint zero probability out of range: %v", chrom.JointZeroProbability())
	}
}

func TestChromosomeRejectsOverlappingElements(t *testing.T) {
	et, _ := NewGenomicElementType(1, []int{1}, []float64{1.0})
	elems := []GenomicElement{{TypeID: 1, Start: 0, End: 10}, {TypeID: 1, Start: 5, End: 20}}
	_, err := NewChromosome(
		elems, 21,
		map[int]*GenomicElementType{1: et},
		NewUniformRateMap(21, 1e-7),
		NewUniformRateMap(21, 1e-8),
		0.0, 10.0,
		rng.New(1),
	)
	if err == nil {
		t.Fatalf("expected an error for overlapping genomic elements")
	}
}

func TestChromosomeAcceptsZeroRates(t *testing.T) {
	et, _ := NewGenomicElementType(1, []int{1}, []float64{1.0})
	elems := []GenomicElement{{TypeID: 1, Start: 0, End: 99}}
	chrom, err := NewChromosome(
		elems, 100,
		map[int]*GenomicElementType{1: et},
		NewUniformRateMap(100, 0),
		NewUniformRateMap(100, 0),
		0.0, 0.0,
		rng.New(1),
	)
	if err != nil {
		t.Fatalf("NewChromosome with zero rates: %v", err)
	}
	if chrom.JointZeroProbability() != 1 {
		t.Fatalf("joint zero probability = %v, want 1", chrom.JointZeroProbability())
	}
	if _, _, err := chrom.DrawMutationSite(rng.New(1)); err == nil {
		t.Fatal("expected an error drawing a mutation site at zero mutation rate")
	}
	if _, err := chrom.DrawBreakpoint(rng.New(1)); err == nil {
		t.Fatal("expected an error drawing a breakpoint at zero recombination rate")
	}
}

func TestChromosomeDrawMutationSiteWithinBounds(t *testing.T) {
	chrom := buildTestChromosome(t)
	stream := rng.New(7)
	for i := 0; i < 100; i++ {
		_, pos, err := chrom.DrawMutationSite(stream)
		if err != nil {
			t.Fatalf("DrawMutationSite: %v", err)
		}
		if int(pos) < 0 || int(pos) >= chrom.Length {
			t.Fatalf("drawn position %d out of chromosome bounds [0,%d)", pos, chrom.Length)
		}
	}
}
