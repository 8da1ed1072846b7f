// Package population implements the subpopulation/population data
// structures and the migration-and-fixation bookkeeping of the
// per-generation life cycle.
package population

import (
	"fmt"

	"github.com/clawinfra/popgenlab/internal/genetics"
	"github.com/clawinfra/popgenlab/internal/rng"
)

// Subpopulation holds a fixed-size collection of diploid individuals as
// two parallel arrays of 2*N genomes (parents, children), a selfing
// fraction, a migration-rate map keyed by source subpopulation id, and a
// fitness-weighted sampler over parent indices.
type Subpopulation struct {
	ID              int
	Size            int
	SelfingFraction float64
	MigrationRates  map[int]float64

	parents  []*genetics.Genome
	children []*genetics.Genome

	fitnesses      []float64
	fitnessSampler *rng.WeightedSampler
}

// NewSubpopulation allocates a subpopulation of size N with empty
// genomes in both arrays.
func NewSubpopulation(id, size int, selfingFraction float64) (*Subpopulation, error) {
	if size <= 0 {
		return nil, fmt.Errorf("population: subpopulation %d must have positive size, got %d", id, size)
	}
	if selfingFraction < 0 || selfingFraction > 1 {
		return nil, fmt.Errorf("population: subpopulation %d selfing fraction must be in [0,1], got %g", id, selfingFraction)
	}
	sp := &Subpopulation{
		ID:              id,
		Size:            size,
		SelfingFraction: selfingFraction,
		MigrationRates:  make(map[int]float64),
		parents:         make([]*genetics.Genome, 2*size),
		children:        make([]*genetics.Genome, 2*size),
	}
	for i := range sp.parents {
		sp.parents[i] = genetics.NewGenome()
		sp.children[i] = genetics.NewGenome()
	}
	return sp, nil
}

// Parents, Children expose the two genome arrays. Individual i's
// two genomes are at indices 2*i and 2*i+1.
func (sp *Subpopulation) Parents() []*genetics.Genome  { return sp.parents }
func (sp *Subpopulation) Children() []*genetics.Genome { return sp.children }

// GenomeOf returns the two genomes of individual i from arr (parents or
// children).
func GenomeOf(arr []*genetics.Genome, individual int) (*genetics.Genome, *genetics.Genome) {
	return arr[2*individual], arr[2*individual+1]
}

// SetChild installs a freshly built genome into the children array at
// the given genome-array index (not individual index).
func (sp *Subpopulation) SetChild(genomeIndex int, g *genetics.Genome) {
	sp.children[genomeIndex] = g
}

// SwapGenerations publishes the children array as the new parents array
// and resets children to fresh empty genomes for the next
// generation.
func (sp *Subpopulation) SwapGenerations() {
	sp.parents, sp.children = sp.children, make([]*genetics.Genome, 2*sp.Size)
	for i := range sp.children {
		sp.children[i] = genetics.NewGenome()
	}
}

// UpdateFitnessCache recomputes the per-individual fitness cache and its
// weighted sampler from the current parents array.
func (sp *Subpopulation) UpdateFitnessCache(mutationTypes map[int]*genetics.MutationType, stream *rng.Stream) error {
	sp.fitnesses = make([]float64, sp.Size)
	for i := 0; i < sp.Size; i++ {
		a, b := GenomeOf(sp.parents, i)
		sp.fitnesses[i] = genetics.DiploidFitness(a, b, mutationTypes)
	}
	sampler, err := rng.NewWeightedSampler(sp.fitnesses, stream)
	if err != nil {
		return fmt.Errorf("population: subpopulation %d fitness sampler: %w", sp.ID, err)
	}
	sp.fitnessSampler = sampler
	return nil
}

// Fitnesses returns the cached per-individual fitness values from the
// most recent UpdateFitnessCache call.
func (sp *Subpopulation) Fitnesses() []float64 { return sp.fitnesses }

// ChooseParent draws a parent individual index proportional to its
// cached fitness.
func (sp *Subpopulation) ChooseParent() (int, error) {
	if sp.fitnessSampler == nil {
		return 0, fmt.Errorf("population: subpopulation %d has no fitness cache; call UpdateFitnessCache first", sp.ID)
	}
	return sp.fitnessSampler.Take()
}

// ChooseMate draws the second parent for an individual, respecting the
// selfing fraction: with probability SelfingFraction the same individual
// is both parents.
func (sp *Subpopulation) ChooseMate(stream *rng.Stream, firstParent int) (int, error) {
	selfing, err := stream.Bernoulli(sp.SelfingFraction)
	if err != nil {
		return 0, fmt.Errorf("population: subpopulation %d selfing draw: %w", sp.ID, err)
	}
	if selfing {
		return firstParent, nil
	}
	return sp.ChooseParent()
}
