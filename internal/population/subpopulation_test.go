package population

import (
	"testing"

	"github.com/clawinfra/popgenlab/internal/genetics"
	"github.com/clawinfra/popgenlab/internal/rng"
)

func TestUpdateFitnessCacheAndChooseParent(t *testing.T) {
	sp, err := NewSubpopulation(1, 4, 0)
	if err != nil {
		t.Fatalf("NewSubpopulation: %v", err)
	}
	mt, _ := genetics.NewMutationType(1, 0.5, genetics.DistFixed, []float64{0.1})
	types := map[int]*genetics.MutationType{1: mt}

	stream := rng.New(5)
	if err := sp.UpdateFitnessCache(types, stream); err != nil {
		t.Fatalf("UpdateFitnessCache: %v", err)
	}
	if len(sp.Fitnesses()) != 4 {
		t.Fatalf("expected 4 cached fitnesses, got %d", len(sp.Fitnesses()))
	}
	for i := 0; i < 10; i++ {
		idx, err := sp.ChooseParent()
		if err != nil {
			t.Fatalf("ChooseParent: %v", err)
		}
		if idx < 0 || idx >= sp.Size {
			t.Fatalf("chosen parent index %d out of range", idx)
		}
	}
}

func TestChooseMateAlwaysSelfsWhenFractionIsOne(t *testing.T) {
	sp, _ := NewSubpopulation(1, 4, 1.0)
	mt, _ := genetics.NewMutationType(1, 0.5, genetics.DistFixed, []float64{0.1})
	stream := rng.New(3)
	if err := sp.UpdateFitnessCache(map[int]*genetics.MutationType{1: mt}, stream); err != nil {
		t.Fatalf("UpdateFitnessCache: %v", err)
	}
	mate, err := sp.ChooseMate(stream, 2)
	if err != nil {
		t.Fatalf("ChooseMate: %v", err)
	}
	if mate != 2 {
		t.Fatalf("expected full selfing to return the same parent, got %d", mate)
	}
}

func TestSwapGenerationsResetsChildren(t *testing.T) {
	sp, _ := NewSubpopulation(1, 2, 0)
	sp.SetChild(0, genetics.NewGenome())
	sp.SwapGenerations()
	if len(sp.Parents()) != 4 {
		t.Fatalf("expected 4 genomes in parents after swap, got %d", len(sp.Parents()))
	}
	if len(sp.Children()) != 4 {
		t.Fatalf("expected 4 fresh genomes in children after swap, got %d", len(sp.Children()))
	}
	for _, g := range sp.Children() {
		if g.Count() != 0 {
			t.Fatalf("expected fresh children genomes to be empty")
		}
	}
}
