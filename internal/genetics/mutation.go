// Package genetics implements the genetic data model of a forward-time
// population simulation: mutations, mutation types, genomic
// elements and chromosomes, genomes, the per-meiosis crossover-mutation
// kernel, and diploid fitness evaluation.
package genetics

// Mutation is immutable after creation: a type reference, a
// 0-based chromosome position, a selection coefficient, and the
// subpopulation/generation it arose in.
type Mutation struct {
	TypeID           int
	Position         uint32
	Selection        float64
	OriginSubpopID   int
	OriginGeneration int64

	// id is a process-unique identity used by equality/identity checks
	// and by the dump/load format; it is assigned by the kernel that
	// creates the mutation, or given explicitly to NewMutationWithID.
	id int64
}

// ID reports the mutation's process-unique identity.
func (m *Mutation) ID() int64 { return m.id }

// NewMutationWithID constructs a Mutation carrying an explicit identity,
// used by the dump/load format to reconstruct a population's
// mutations (numbered 1, 2, ... in file order), and by tests that need
// distinct identities without going through a Kernel.
func NewMutationWithID(id int64, typeID int, position uint32, selection float64, subpopID int, generation int64) *Mutation {
	return &Mutation{
		id:               id,
		TypeID:           typeID,
		Position:         position,
		Selection:        selection,
		OriginSubpopID:   subpopID,
		OriginGeneration: generation,
	}
}

// sameSiteAndEffect reports whether m and o occupy the same position
// with the same type and selection coefficient — the "identical
// mutation" test of the homozygote fitness contribution rule.
func (m *Mutation) sameSiteAndEffect(o *Mutation) bool {
	return m.Position == o.Position && m.TypeID == o.TypeID && m.Selection == o.Selection
}

// mutationIDAllocator hands out increasing process-unique mutation IDs,
// one per simulation instance.
type mutationIDAllocator struct {
	next int64
}

func (a *mutationIDAllocator) allocate() int64 {
	a.next++
	return a.next
}
