package genetics

import (
	"fmt"
	"sort"

	"github.com/clawinfra/popgenlab/internal/rng"
)

// Kernel runs the per-meiosis crossover-mutation draw against a
// Chromosome and a mutation-type registry, allocating fresh mutation IDs
// as it creates them.
type Kernel struct {
	Chromosome    *Chromosome
	MutationTypes map[int]*MutationType
	ScriptEval    ScriptEvaluator

	ids mutationIDAllocator
}

// NewKernel constructs a Kernel. ScriptEval may be nil if no mutation
// type uses the weighted-script distribution.
func NewKernel(chrom *Chromosome, mutTypes map[int]*MutationType, scriptEval ScriptEvaluator) *Kernel {
	return &Kernel{Chromosome: chrom, MutationTypes: mutTypes, ScriptEval: scriptEval}
}

// Meiosis produces one gamete genome from the two parental genomes of a
// single individual. subpopID and generation stamp any newly
// drawn mutations' origin.
func (k *Kernel) Meiosis(stream *rng.Stream, parentA, parentB *Genome, subpopID int, generation int64) (*Genome, error) {
	c := k.Chromosome
	var nMut, nBreak int64

	if stream.Uniform() < c.jointZeroProb {
		nMut, nBreak = 0, 0
	} else {
		// Single uniform branches the three non-zero cases, then draws
		// each non-zero count from its own truncated-nonzero Poisson. The
		// uniform is scaled to the conditional mass 1 - P(0,0) so the three
		// thresholds partition it exactly; an unscaled draw would overshoot
		// into the both-nonzero branch with probability P(0,0), which is a
		// hang when one of the two rates is zero.
		pMuOnly := (1 - c.expNegMuTotal) * c.expNegRTotal
		pRecOnly := c.expNegMuTotal * (1 - c.expNegRTotal)
		u := stream.Uniform() * (1 - c.jointZeroProb)
		switch {
		case u < pMuOnly:
			nMut = stream.TruncatedNonzeroPoisson(c.muTotal)
			nBreak = 0
		case u < pMuOnly+pRecOnly:
			nMut = 0
			nBreak = stream.TruncatedNonzeroPoisson(c.rTotal)
		default:
			nMut = stream.TruncatedNonzeroPoisson(c.muTotal)
			nBreak = stream.TruncatedNonzeroPoisson(c.rTotal)
		}
	}

	breakpoints, err := k.drawBreakpoints(stream, int(nBreak))
	if err != nil {
		return nil, err
	}
	startsOnFirst, err := stream.Bernoulli(0.5)
	if err != nil {
		return nil, fmt.Errorf("genetics: meiosis strand-origin draw: %w", err)
	}
	merged := MergeAcrossBreakpoints(parentA, parentB, breakpoints, startsOnFirst)

	muts, err := k.drawMutations(stream, int(nMut), subpopID, generation)
	if err != nil {
		return nil, err
	}
	merged.MergeInMutations(muts)
	return merged, nil
}

// drawBreakpoints draws n breakpoint positions, promoting each to a
// gene-conversion tract (a paired breakpoint) with probability
// GeneConversionFraction.
func (k *Kernel) drawBreakpoints(stream *rng.Stream, n int) ([]int, error) {
	var points []int
	for i := 0; i < n; i++ {
		bp, err := k.Chromosome.DrawBreakpoint(stream)
		if err != nil {
			return nil, err
		}
		points = append(points, bp)
		isConversion, err := stream.Bernoulli(k.Chromosome.GeneConversionFraction)
		if err != nil {
			return nil, fmt.Errorf("genetics: gene-conversion draw: %w", err)
		}
		if isConversion {
			tract, err := stream.Geometric(1 / k.Chromosome.GeneConversionMeanLength)
			if err != nil {
				return nil, fmt.Errorf("genetics: gene-conversion tract length draw: %w", err)
			}
			endBp := bp + int(tract) + 1
			if endBp < k.Chromosome.Length {
				points = append(points, endBp)
			}
		}
	}
	sort.Ints(points)
	return points, nil
}

// drawMutations draws n new mutations: element by weight,
// position within it, mutation type by the element's weights, and a
// selection coefficient from that type's distribution.
func (k *Kernel) drawMutations(stream *rng.Stream, n int, subpopID int, generation int64) ([]*Mutation, error) {
	out := make([]*Mutation, 0, n)
	for i := 0; i < n; i++ {
		elemIdx, pos, err := k.Chromosome.DrawMutationSite(stream)
		if err != nil {
			return nil, err
		}
		elemType := k.Chromosome.ElementTypeOf(k.Chromosome.Elements[elemIdx].TypeID)
		sampler, err := elemType.MutationTypeSampler(stream)
		if err != nil {
			return nil, err
		}
		mtIdx, err := sampler.Take()
		if err != nil {
			return nil, fmt.Errorf("genetics: drawing mutation type for element %d: %w", elemIdx, err)
		}
		typeID := elemType.MutationTypes[mtIdx]
		mt, ok := k.MutationTypes[typeID]
		if !ok {
			return nil, fmt.Errorf("genetics: element type %d references unknown mutation type %d", elemType.ID, typeID)
		}
		s, err := mt.DrawSelectionCoefficient(stream, k.ScriptEval)
		if err != nil {
			return nil, fmt.Errorf("genetics: drawing selection coefficient for mutation type %d: %w", typeID, err)
		}
		out = append(out, &Mutation{
			TypeID:           typeID,
			Position:         pos,
			Selection:        s,
			OriginSubpopID:   subpopID,
			OriginGeneration: generation,
			id:               k.ids.allocate(),
		})
	}
	return out, nil
}
