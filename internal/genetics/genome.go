package genetics

import "sort"

// Genome is a strictly position-sorted sequence of mutations; ties
// at a position are broken by insertion order. A genome published as a
// parent for a generation is treated as immutable — the kernel only ever
// builds new genomes for the `children` array.
type Genome struct {
	mutations []*Mutation
}

// NewGenome returns an empty genome.
func NewGenome() *Genome { return &Genome{} }

// Mutations returns the genome's mutations in sorted order. Callers must
// not mutate the returned slice.
func (g *Genome) Mutations() []*Mutation { return g.mutations }

// Count returns the number of mutations carried.
func (g *Genome) Count() int { return len(g.mutations) }

// Insert adds m, preserving the sorted-by-position / stable-by-insertion
// invariant.
func (g *Genome) Insert(m *Mutation) {
	i := sort.Search(len(g.mutations), func(i int) bool {
		return g.mutations[i].Position > m.Position
	})
	g.mutations = append(g.mutations, nil)
	copy(g.mutations[i+1:], g.mutations[i:])
	g.mutations[i] = m
}

// Copy returns a shallow copy: the Mutation pointers are shared (they are
// immutable) but the slice backing is independent.
func (g *Genome) Copy() *Genome {
	out := make([]*Mutation, len(g.mutations))
	copy(out, g.mutations)
	return &Genome{mutations: out}
}

// MergeAcrossBreakpoints builds a new genome by walking two parental
// genomes segment by segment, switching which one supplies mutations at
// each ascending breakpoint (the classic
// alternating-segment recombination merge). breakpoints must be sorted
// ascending; startsOnFirst selects which parent strand supplies
// positions below the first breakpoint.
//
// Each segment is bounded above by the next breakpoint (or unbounded for
// the final segment). Within a segment, every mutation belonging to the
// active ("current") strand and falling strictly below the segment's
// upper bound is emitted; the inactive ("other") strand's cursor is
// advanced past the same bound without emitting anything, so that if a
// later breakpoint reactivates it, it resumes exactly at the first
// position belonging to its next active segment rather than replaying
// positions already ceded to the strand that was active in between.
func MergeAcrossBreakpoints(first, second *Genome, breakpoints []int, startsOnFirst bool) *Genome {
	out := NewGenome()
	current, other := first, second
	if !startsOnFirst {
		current, other = second, first
	}
	ci, oi := 0, 0
	for bpIdx := 0; ; bpIdx++ {
		hasBP := bpIdx < len(breakpoints)
		var bp int
		if hasBP {
			bp = breakpoints[bpIdx]
		}
		for ci < len(current.mutations) && (!hasBP || int(current.mutations[ci].Position) < bp) {
			out.Insert(current.mutations[ci])
			ci++
		}
		for oi < len(other.mutations) && (!hasBP || int(other.mutations[oi].Position) < bp) {
			oi++
		}
		if !hasBP {
			break
		}
		current, other = other, current
		ci, oi = oi, ci
	}
	return out
}

// MergeInMutations inserts newly drawn mutations into g's sorted order.
func (g *Genome) MergeInMutations(muts []*Mutation) {
	for _, m := range muts {
		g.Insert(m)
	}
}

// RemoveFixed strips every mutation in fixed (matched by identity) from
// g, returning a new genome — used when substitutions are realized.
func (g *Genome) RemoveFixed(fixed map[int64]bool) *Genome {
	out := NewGenome()
	for _, m := range g.mutations {
		if !fixed[m.id] {
			out.mutations = append(out.mutations, m)
		}
	}
	return out
}
