package population

import (
	"testing"

	"github.com/clawinfra/popgenlab/internal/genetics"
)

func TestAddSubpopulationRejectsDuplicateID(t *testing.T) {
	p := NewPopulation()
	sp1, err := NewSubpopulation(1, 10, 0)
	if err != nil {
		t.Fatalf("NewSubpopulation: %v", err)
	}
	if err := p.AddSubpopulation(sp1); err != nil {
		t.Fatalf("AddSubpopulation: %v", err)
	}
	sp2, _ := NewSubpopulation(1, 5, 0)
	if err := p.AddSubpopulation(sp2); err == nil {
		t.Fatalf("expected an error adding a duplicate subpopulation id")
	}
}

func TestActiveScriptBlocksFiltersByGenerationAndKind(t *testing.T) {
	p := NewPopulation()
	p.RegisterScriptBlock(ScriptBlock{StartGen: 1, EndGen: 10, Kind: "early"})
	p.RegisterScriptBlock(ScriptBlock{StartGen: 5, EndGen: -1, Kind: "late"})
	p.RegisterScriptBlock(ScriptBlock{StartGen: 1, EndGen: 3, Kind: "early"})

	active := p.ActiveScriptBlocks(2, "early")
	if len(active) != 2 {
		t.Fatalf("expected 2 active early blocks at generation 2, got %d", len(active))
	}
	active = p.ActiveScriptBlocks(20, "late")
	if len(active) != 1 {
		t.Fatalf("expected the unbounded late block to still be active at generation 20, got %d", len(active))
	}
	active = p.ActiveScriptBlocks(4, "early")
	if len(active) != 1 {
		t.Fatalf("expected only the first early block to still be active at generation 4, got %d", len(active))
	}
}

func TestIdentifyFixedMutationsRequiresEveryGenome(t *testing.T) {
	p := NewPopulation()
	sp, _ := NewSubpopulation(1, 2, 0)
	if err := p.AddSubpopulation(sp); err != nil {
		t.Fatalf("AddSubpopulation: %v", err)
	}
	fixed := genetics.NewMutationWithID(1, 1, 10, 0.01, 1, 0)
	for _, g := range sp.Parents() {
		g.Insert(fixed)
	}
	notFixed := genetics.NewMutationWithID(2, 1, 20, 0.01, 1, 0)
	sp.Parents()[0].Insert(notFixed)

	found := p.IdentifyFixedMutations()
	if len(found) != 1 {
		t.Fatalf("expected exactly 1 fixed mutation, got %d", len(found))
	}
	if found[0].Position != 10 {
		t.Fatalf("expected the mutation at position 10 to be fixed, got position %d", found[0].Position)
	}
}

func TestRealizeFixationsMovesToSubstitutionsAndStrips(t *testing.T) {
	p := NewPopulation()
	sp, _ := NewSubpopulation(1, 1, 0)
	if err := p.AddSubpopulation(sp); err != nil {
		t.Fatalf("AddSubpopulation: %v", err)
	}
	fixed := genetics.NewMutationWithID(1, 1, 10, 0.01, 1, 0)
	for _, g := range sp.Parents() {
		g.Insert(fixed)
	}

	found := p.IdentifyFixedMutations()
	p.RealizeFixations(found)

	if len(p.Substitutions) != 1 {
		t.Fatalf("expected 1 substitution registered, got %d", len(p.Substitutions))
	}
	for _, g := range sp.Parents() {
		if g.Count() != 0 {
			t.Fatalf("expected fixed mutation stripped from genome, still has %d", g.Count())
		}
	}
}
