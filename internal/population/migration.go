package population

import (
	"fmt"
	"sort"

	"github.com/clawinfra/popgenlab/internal/rng"
)

// MigrationPlan is the realized per-target-child source-subpopulation
// assignment for one generation: for a target
// subpopulation of size N, draws N parent-subpopulation choices (one
// per prospective child individual) from the target's migration-rate
// map, with the remainder drawn from the target itself.
type MigrationPlan struct {
	// SourceOf[i] is the subpopulation id that supplies parents for
	// child individual i.
	SourceOf []int
}

// RealizeMigration draws a MigrationPlan for target by sampling each of
// its `Size` prospective offspring's source subpopulation from
// target.MigrationRates (source id -> fraction), with the residual
// fraction (1 - sum of rates) assigned to the target subpopulation
// itself. A migration-rate map with rates summing to more
// than 1 is a simulation error.
func RealizeMigration(target *Subpopulation, stream *rng.Stream) (*MigrationPlan, error) {
	ids := make([]int, 0, len(target.MigrationRates))
	for id := range target.MigrationRates {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	sourceIDs := make([]int, 0, len(ids)+1)
	weights := make([]float64, 0, len(ids)+1)
	var sum float64
	for _, id := range ids {
		rate := target.MigrationRates[id]
		if rate < 0 {
			return nil, fmt.Errorf("population: subpopulation %d has a negative migration rate from %d", target.ID, id)
		}
		sourceIDs = append(sourceIDs, id)
		weights = append(weights, rate)
		sum += rate
	}
	if sum > 1 {
		return nil, fmt.Errorf("population: subpopulation %d migration rates sum to %g, exceeding 1", target.ID, sum)
	}
	sourceIDs = append(sourceIDs, target.ID)
	weights = append(weights, 1-sum)

	sampler, err := rng.NewWeightedSampler(weights, stream)
	if err != nil {
		return nil, fmt.Errorf("population: subpopulation %d migration sampler: %w", target.ID, err)
	}

	plan := &MigrationPlan{SourceOf: make([]int, target.Size)}
	for i := 0; i < target.Size; i++ {
		idx, err := sampler.Take()
		if err != nil {
			return nil, fmt.Errorf("population: subpopulation %d migration draw: %w", target.ID, err)
		}
		plan.SourceOf[i] = sourceIDs[idx]
	}
	return plan, nil
}
