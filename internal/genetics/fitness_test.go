package genetics

import "testing"

func TestDiploidFitnessHeterozygote(t *testing.T) {
	mt := &MutationType{ID: 1, Dominance: 0.5, Dist: DistFixed, Params: []float64{0.1}}
	types := map[int]*MutationType{1: mt}
	m := &Mutation{TypeID: 1, Position: 100, Selection: 0.1, id: 1}

	a := NewGenome()
	a.Insert(m)
	b := NewGenome()

	got := DiploidFitness(a, b, types)
	want := 1.05
	if diff := got - want; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("heterozygote fitness = %v, want %v", got, want)
	}
}

func TestDiploidFitnessHomozygote(t *testing.T) {
	mt := &MutationType{ID: 1, Dominance: 0.5, Dist: DistFixed, Params: []float64{0.1}}
	types := map[int]*MutationType{1: mt}
	m1 := &Mutation{TypeID: 1, Position: 100, Selection: 0.1, id: 1}
	m2 := &Mutation{TypeID: 1, Position: 100, Selection: 0.1, id: 2}

	a := NewGenome()
	a.Insert(m1)
	b := NewGenome()
	b.Insert(m2)

	got := DiploidFitness(a, b, types)
	want := 1.10
	if diff := got - want; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("homozygote fitness = %v, want %v", got, want)
	}
}

func TestDiploidFitnessNeutralSkipped(t *testing.T) {
	mt := &MutationType{ID: 1, Dominance: 0.5, Dist: DistFixed, Params: []float64{0}}
	types := map[int]*MutationType{1: mt}
	m := &Mutation{TypeID: 1, Position: 50, Selection: 0, id: 1}

	a := NewGenome()
	a.Insert(m)
	b := NewGenome()

	got := DiploidFitness(a, b, types)
	if got != 1.0 {
		t.Fatalf("neutral mutation should not affect fitness, got %v", got)
	}
}

func TestDiploidFitnessClampedAtZero(t *testing.T) {
	mt := &MutationType{ID: 1, Dominance: 1.0, Dist: DistFixed, Params: []float64{-2.0}}
	types := map[int]*MutationType{1: mt}
	m := &Mutation{TypeID: 1, Position: 50, Selection: -2.0, id: 1}

	a := NewGenome()
	a.Insert(m)
	b := NewGenome()

	got := DiploidFitness(a, b, types)
	if got != 0 {
		t.Fatalf("fitness should clamp at 0, got %v", got)
	}
}
