package population

import (
	"fmt"
	"sort"

	"github.com/clawinfra/popgenlab/internal/genetics"
	"github.com/clawinfra/popgenlab/internal/script"
)

// ScriptBlock is a scripted action attached to a generation range and an
// event kind: `<gen>[ : <gen2> ] [<event-kind>]? { … }`.
// EndGen < 0 means unbounded (the block remains active for every
// generation from StartGen onward).
type ScriptBlock struct {
	StartGen int64
	EndGen   int64
	Kind     string
	Program  *script.Node
}

// Active reports whether b applies to generation g.
func (b ScriptBlock) Active(g int64) bool {
	if g < b.StartGen {
		return false
	}
	if b.EndGen < 0 {
		return true
	}
	return g <= b.EndGen
}

// Population is the top-level simulation state: the set of
// subpopulations, the substitutions registry of fixed mutations, the
// generation counter, and the registered script blocks.
type Population struct {
	Subpops       map[int]*Subpopulation
	Substitutions []*genetics.Mutation
	Generation    int64
	ScriptBlocks  []ScriptBlock

	MutationTypes       map[int]*genetics.MutationType
	GenomicElementTypes map[int]*genetics.GenomicElementType
}

// NewPopulation returns an empty Population at generation 0.
func NewPopulation() *Population {
	return &Population{
		Subpops:             make(map[int]*Subpopulation),
		MutationTypes:       make(map[int]*genetics.MutationType),
		GenomicElementTypes: make(map[int]*genetics.GenomicElementType),
	}
}

// AddSubpopulation registers sp, erroring if its id is already in use.
func (p *Population) AddSubpopulation(sp *Subpopulation) error {
	if _, exists := p.Subpops[sp.ID]; exists {
		return fmt.Errorf("population: duplicate subpopulation id %d", sp.ID)
	}
	p.Subpops[sp.ID] = sp
	return nil
}

// RemoveSubpopulation deletes a subpopulation. Any object value a script
// holds referencing it becomes stale and must not be
// dereferenced thereafter; enforcing that lies with the bridge layer.
func (p *Population) RemoveSubpopulation(id int) error {
	if _, exists := p.Subpops[id]; !exists {
		return fmt.Errorf("population: unknown subpopulation id %d", id)
	}
	delete(p.Subpops, id)
	return nil
}

// RegisterScriptBlock adds b to the registry in registration order.
func (p *Population) RegisterScriptBlock(b ScriptBlock) {
	p.ScriptBlocks = append(p.ScriptBlocks, b)
}

// ActiveScriptBlocks returns, in registration order, every block of the
// given kind active at generation g.
func (p *Population) ActiveScriptBlocks(g int64, kind string) []ScriptBlock {
	var out []ScriptBlock
	for _, b := range p.ScriptBlocks {
		if b.Kind == kind && b.Active(g) {
			out = append(out, b)
		}
	}
	return out
}

// LastScriptBlockGeneration returns the highest upper bound among
// registered blocks, used by the termination check: the run ends once
// the generation exceeds that bound. Unbounded
// blocks never terminate the run via this rule.
func (p *Population) LastScriptBlockGeneration() (int64, bool) {
	var max int64 = -1
	found := false
	for _, b := range p.ScriptBlocks {
		if b.EndGen < 0 {
			continue
		}
		if b.EndGen > max {
			max = b.EndGen
		}
		found = true
	}
	return max, found
}

// SubpopIDsSorted returns subpopulation ids in ascending order, for
// deterministic iteration (life-cycle steps and dump output must not
// depend on Go map iteration order).
func (p *Population) SubpopIDsSorted() []int {
	ids := make([]int, 0, len(p.Subpops))
	for id := range p.Subpops {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// IdentifyFixedMutations finds every mutation at frequency 1 across all
// non-empty parent genomes in the population. A
// subpopulation with zero individuals contributes no genomes. This
// implementation's decision on the null-haplotype question is: every
// genome in `parents`, including one with zero mutations,
// counts toward the denominator — a mutation is fixed only when it
// appears in literally every individual's every genome.
func (p *Population) IdentifyFixedMutations() []*genetics.Mutation {
	counts := make(map[int64]int)
	byID := make(map[int64]*genetics.Mutation)
	totalGenomes := 0

	for _, id := range p.SubpopIDsSorted() {
		sp := p.Subpops[id]
		totalGenomes += len(sp.parents)
		for _, g := range sp.parents {
			for _, m := range g.Mutations() {
				counts[m.ID()]++
				byID[m.ID()] = m
			}
		}
	}

	var fixed []*genetics.Mutation
	var ids []int64
	for id, c := range counts {
		if c == totalGenomes && totalGenomes > 0 {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		fixed = append(fixed, byID[id])
	}
	return fixed
}

// RealizeFixations moves fixed mutations into the substitutions registry
// and strips them from every genome in every subpopulation's parents
// array.
func (p *Population) RealizeFixations(fixed []*genetics.Mutation) {
	if len(fixed) == 0 {
		return
	}
	fixedSet := make(map[int64]bool, len(fixed))
	for _, m := range fixed {
		fixedSet[m.ID()] = true
	}
	p.Substitutions = append(p.Substitutions, fixed...)
	for _, id := range p.SubpopIDsSorted() {
		sp := p.Subpops[id]
		for i, g := range sp.parents {
			sp.parents[i] = g.RemoveFixed(fixedSet)
		}
	}
}
