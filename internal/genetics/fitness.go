package genetics

// DiploidFitness computes the multiplicative fitness of an individual
// carrying genomes a and b. For each mutation present in both
// genomes at the same position with the same type and selection
// coefficient, it contributes `1 + s`; a mutation present in only one
// genome contributes `1 + h*s` where h is its mutation type's dominance
// coefficient. Neutral mutations (s == 0) are skipped. Duplicate
// mutations at a shared position are matched pairwise (stable order)
// before any unmatched remainder is treated as heterozygous. The result
// is clamped at 0.
func DiploidFitness(a, b *Genome, mutationTypes map[int]*MutationType) float64 {
	fitness := 1.0
	bUsed := make([]bool, len(b.mutations))

	for _, ma := range a.mutations {
		if ma.Selection == 0 {
			continue
		}
		matched := -1
		for j, mb := range b.mutations {
			if bUsed[j] {
				continue
			}
			if ma.sameSiteAndEffect(mb) {
				matched = j
				break
			}
		}
		mt := mutationTypes[ma.TypeID]
		if matched >= 0 {
			bUsed[matched] = true
			fitness *= 1 + ma.Selection
		} else {
			fitness *= 1 + mt.Dominance*ma.Selection
		}
	}

	for j, mb := range b.mutations {
		if bUsed[j] || mb.Selection == 0 {
			continue
		}
		mt := mutationTypes[mb.TypeID]
		fitness *= 1 + mt.Dominance*mb.Selection
	}

	if fitness < 0 {
		return 0
	}
	return fitness
}
