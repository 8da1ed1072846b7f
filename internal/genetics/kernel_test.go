package genetics

import (
	"testing"

	"github.com/clawinfra/popgenlab/internal/rng"
)

func TestKernelMeiosisProducesSortedGenome(t *testing.T) {
	chrom := buildTestChromosome(t)
	mt, err := NewMutationType(1, 0.5, DistExponential, []float64{0.01})
	if err != nil {
		t.Fatalf("NewMutationType: %v", err)
	}
	k := NewKernel(chrom, map[int]*MutationType{1: mt}, nil)

	stream := rng.New(123)
	parentA, parentB := NewGenome(), NewGenome()
	parentA.Insert(&Mutation{TypeID: 1, Position: 10, Selection: 0.01, id: 1})
	parentB.Insert(&Mutation{TypeID: 1, Position: 500, Selection: 0.02, id: 2})

	child, err := k.Meiosis(stream, parentA, parentB, 0, 1)
	if err != nil {
		t.Fatalf("Meiosis: %v", err)
	}
	muts := child.Mutations()
	for i := 1; i < len(muts); i++ {
		if muts[i].Position < muts[i-1].Position {
			t.Fatalf("child genome not sorted at index %d: %d before %d", i, muts[i-1].Position, muts[i].Position)
		}
	}
}

func TestKernelMeiosisZeroMutationRateAddsNothing(t *testing.T) {
	et, _ := NewGenomicElementType(1, []int{1}, []float64{1.0})
	elems := []GenomicElement{{TypeID: 1, Start: 0, End: 999}}
	stream := rng.New(11)
	chrom, err := NewChromosome(
		elems, 1000,
		map[int]*GenomicElementType{1: et},
		NewUniformRateMap(1000, 0),
		NewUniformRateMap(1000, 1e-8),
		0.0, 50.0,
		stream,
	)
	if err != nil {
		t.Fatalf("NewChromosome: %v", err)
	}
	mt, _ := NewMutationType(1, 0.5, DistFixed, []float64{0.01})
	k := NewKernel(chrom, map[int]*MutationType{1: mt}, nil)

	parentA, parentB := NewGenome(), NewGenome()
	parentA.Insert(&Mutation{TypeID: 1, Position: 10, Selection: 0.01, id: 1})
	for i := 0; i < 200; i++ {
		child, err := k.Meiosis(stream, parentA, parentB, 0, 1)
		if err != nil {
			t.Fatalf("Meiosis: %v", err)
		}
		for _, m := range child.Mutations() {
			if m.id != 1 {
				t.Fatalf("zero mutation rate produced a new mutation at position %d", m.Position)
			}
		}
	}
}

func TestKernelMeiosisIsDeterministicGivenSeed(t *testing.T) {
	chrom := buildTestChromosome(t)
	mt, _ := NewMutationType(1, 0.5, DistExponential, []float64{0.01})
	mutTypes := map[int]*MutationType{1: mt}

	run := func() []uint32 {
		k := NewKernel(chrom, mutTypes, nil)
		stream := rng.New(99)
		parentA, parentB := NewGenome(), NewGenome()
		child, err := k.Meiosis(stream, parentA, parentB, 0, 1)
		if err != nil {
			t.Fatalf("Meiosis: %v", err)
		}
		var positions []uint32
		for _, m := range child.Mutations() {
			positions = append(positions, m.Position)
		}
		return positions
	}

	first := run()
	second := run()
	if len(first) != len(second) {
		t.Fatalf("non-deterministic mutation count: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("non-deterministic mutation position at %d: %d vs %d", i, first[i], second[i])
		}
	}
}
