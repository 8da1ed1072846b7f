package genetics

import "testing"

func TestGenomeInsertMaintainsSortedOrder(t *testing.T) {
	g := NewGenome()
	g.Insert(&Mutation{Position: 30})
	g.Insert(&Mutation{Position: 10})
	g.Insert(&Mutation{Position: 20})

	positions := make([]uint32, 0, 3)
	for _, m := range g.Mutations() {
		positions = append(positions, m.Position)
	}
	want := []uint32{10, 20, 30}
	for i, w := range want {
		if positions[i] != w {
			t.Fatalf("position %d: got %d, want %d", i, positions[i], w)
		}
	}
}

func TestGenomeInsertStableAtTiedPosition(t *testing.T) {
	g := NewGenome()
	first := &Mutation{Position: 5, id: 1}
	second := &Mutation{Position: 5, id: 2}
	g.Insert(first)
	g.Insert(second)

	muts := g.Mutations()
	if muts[0].id != 1 || muts[1].id != 2 {
		t.Fatalf("expected insertion-order tie-break, got ids %d, %d", muts[0].id, muts[1].id)
	}
}

func TestGenomeRemoveFixedStripsMatchedMutations(t *testing.T) {
	g := NewGenome()
	keep := &Mutation{Position: 1, id: 1}
	drop := &Mutation{Position: 2, id: 2}
	g.Insert(keep)
	g.Insert(drop)

	out := g.RemoveFixed(map[int64]bool{2: true})
	if out.Count() != 1 {
		t.Fatalf("expected 1 mutation remaining, got %d", out.Count())
	}
	if out.Mutations()[0].id != 1 {
		t.Fatalf("expected mutation 1 to remain, got %d", out.Mutations()[0].id)
	}
}

func genomeAt(positions ...uint32) *Genome {
	g := NewGenome()
	for _, p := range positions {
		g.Insert(&Mutation{Position: p})
	}
	return g
}

func TestMergeAcrossBreakpointsAlternatesOwnershipPerSegment(t *testing.T) {
	cases := []struct {
		name          string
		first         []uint32
		second        []uint32
		breakpoints   []int
		startsOnFirst bool
		want          []uint32
	}{
		{
			name:          "no breakpoints takes every position from first",
			first:         []uint32{2, 15},
			second:        []uint32{5, 25},
			breakpoints:   nil,
			startsOnFirst: true,
			want:          []uint32{2, 15},
		},
		{
			name:          "single breakpoint switches once and does not revert",
			first:         []uint32{2, 15},
			second:        []uint32{5, 25},
			breakpoints:   []int{10},
			startsOnFirst: true,
			// [0,10) is first's segment (2), [10,inf) is second's (25);
			// second's 5 and first's 15 both fall outside the segment
			// each is active in, so neither is emitted.
			want: []uint32{2, 25},
		},
		{
			name:          "second breakpoint reactivates the original strand",
			first:         []uint32{2, 15, 30},
			second:        []uint32{5, 20, 35},
			breakpoints:   []int{10, 25},
			startsOnFirst: true,
			// [0,10) first (2), [10,25) second (20), [25,inf) first again (30).
			want: []uint32{2, 20, 30},
		},
		{
			name:          "starting on second strand",
			first:         []uint32{2, 15, 30},
			second:        []uint32{5, 20, 35},
			breakpoints:   []int{10, 25},
			startsOnFirst: false,
			// [0,10) second (5), [10,25) first (15), [25,inf) second again (35).
			want: []uint32{5, 15, 35},
		},
		{
			name:          "breakpoint exactly at a mutation position belongs to the new segment",
			first:         []uint32{10},
			second:        []uint32{10},
			breakpoints:   []int{10},
			startsOnFirst: true,
			// first's mutation at exactly the breakpoint is excluded from
			// the segment below it; second's mutation at the same
			// position is included in the segment it opens.
			want: []uint32{10},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			merged := MergeAcrossBreakpoints(genomeAt(tc.first...), genomeAt(tc.second...), tc.breakpoints, tc.startsOnFirst)
			if merged.Count() != len(tc.want) {
				t.Fatalf("got %d mutations, want %d (%v)", merged.Count(), len(tc.want), tc.want)
			}
			for i, w := range tc.want {
				if merged.Mutations()[i].Position != w {
					t.Fatalf("position %d: got %d, want %d", i, merged.Mutations()[i].Position, w)
				}
			}
		})
	}
}

func TestGenomeCopyIsIndependent(t *testing.T) {
	g := NewGenome()
	g.Insert(&Mutation{Position: 1, id: 1})
	c := g.Copy()
	c.Insert(&Mutation{Position: 2, id: 2})

	if g.Count() != 1 {
		t.Fatalf("original genome should be unaffected by mutating the copy, got count %d", g.Count())
	}
	if c.Count() != 2 {
		t.Fatalf("copy should have both mutations, got count %d", c.Count())
	}
}
