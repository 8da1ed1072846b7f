package genetics

import (
	"fmt"

	"github.com/clawinfra/popgenlab/internal/rng"
)

// GenomicElementType is an id plus a mixture of mutation types with
// positive weights. Invariant: weights sum > 0.
type GenomicElementType struct {
	ID            int
	MutationTypes []int
	Weights       []float64

	sampler *rng.WeightedSampler
}

// MutationTypeSampler returns t's precomputed weighted discrete sampler
// over its mutation-type mixture, building it on
// first use against stream.
func (t *GenomicElementType) MutationTypeSampler(stream *rng.Stream) (*rng.WeightedSampler, error) {
	if t.sampler == nil {
		s, err := rng.NewWeightedSampler(t.Weights, stream)
		if err != nil {
			return nil, fmt.Errorf("genetics: building mutation-type sampler for element type %d: %w", t.ID, err)
		}
		t.sampler = s
	}
	return t.sampler, nil
}

// NewGenomicElementType validates the weights-sum-positive invariant.
func NewGenomicElementType(id int, mutationTypes []int, weights []float64) (*GenomicElementType, error) {
	if len(mutationTypes) != len(weights) {
		return nil, fmt.Errorf("genetics: genomic element type %d has %d mutation types but %d weights", id, len(mutationTypes), len(weights))
	}
	var sum float64
	for _, w := range weights {
		if w < 0 {
			return nil, fmt.Errorf("genetics: genomic element type %d has a negative mutation-type weight %g", id, w)
		}
		sum += w
	}
	if sum <= 0 {
		return nil, fmt.Errorf("genetics: genomic element type %d mutation-type weights must sum > 0", id)
	}
	return &GenomicElementType{ID: id, MutationTypes: mutationTypes, Weights: weights}, nil
}

// GenomicElement is a contiguous, inclusive chromosome interval assigned
// a single element-type mixture. Invariant: Start <= End.
type GenomicElement struct {
	TypeID int
	Start  int
	End    int
}

// validateTiling checks that elems are sorted, non-overlapping, and
// individually well-formed.
func validateTiling(elems []GenomicElement) error {
	prevEnd := -1
	for i, e := range elems {
		if e.Start > e.End {
			return fmt.Errorf("genetics: genomic element %d has start %d > end %d", i, e.Start, e.End)
		}
		if e.Start <= prevEnd {
			return fmt.Errorf("genetics: genomic element %d (start %d) overlaps the previous element (ending at %d)", i, e.Start, prevEnd)
		}
		prevEnd = e.End
	}
	return nil
}
