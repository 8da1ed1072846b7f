package genetics

import (
	"fmt"
	"math"

	"github.com/clawinfra/popgenlab/internal/rng"
)

// RateMap is a piecewise-constant rate function over chromosome
// positions: EndPositions[i] is the inclusive last position
// covered by Rates[i]; intervals are contiguous starting at 0.
type RateMap struct {
	EndPositions []int
	Rates        []float64
}

// NewUniformRateMap builds a single-interval RateMap covering
// [0, length-1] at a constant rate.
func NewUniformRateMap(length int, rate float64) RateMap {
	return RateMap{EndPositions: []int{length - 1}, Rates: []float64{rate}}
}

func (m RateMap) validate(length int) error {
	if len(m.EndPositions) != len(m.Rates) {
		return fmt.Errorf("genetics: rate map has %d end positions but %d rates", len(m.EndPositions), len(m.Rates))
	}
	prev := -1
	for i, end := range m.EndPositions {
		if end <= prev {
			return fmt.Errorf("genetics: rate map interval %d end position %d is not increasing", i, end)
		}
		if m.Rates[i] < 0 {
			return fmt.Errorf("genetics: rate map interval %d has a negative rate %g", i, m.Rates[i])
		}
		prev = end
	}
	if prev != length-1 {
		return fmt.Errorf("genetics: rate map must cover [0,%d], last interval ends at %d", length-1, prev)
	}
	return nil
}

func (m RateMap) total() float64 {
	var sum float64
	prev := -1
	for i, end := range m.EndPositions {
		sum += m.Rates[i] * float64(end-prev)
		prev = end
	}
	return sum
}

func (m RateMap) rateAt(pos int) float64 {
	for i, end := range m.EndPositions {
		if pos <= end {
			return m.Rates[i]
		}
	}
	return m.Rates[len(m.Rates)-1]
}

// Chromosome is an ordered, non-overlapping tiling of genomic elements
// plus mutation/recombination rate maps and gene-conversion parameters.
// Constructing one precomputes the samplers and fast-path scalars the
// per-meiosis kernel needs.
type Chromosome struct {
	Elements                 []GenomicElement
	Length                   int
	MutationRateMap          RateMap
	RecombinationRateMap     RateMap
	GeneConversionFraction   float64
	GeneConversionMeanLength float64

	elementTypes map[int]*GenomicElementType

	elementSampler *rng.WeightedSampler
	recombSampler  *rng.WeightedSampler
	recombStarts   []int
	recombEnds     []int

	muTotal       float64
	rTotal        float64
	expNegMuTotal float64
	expNegRTotal  float64
	jointZeroProb float64
}

// NewChromosome validates the tiling and rate maps, builds the derived
// samplers, and returns the assembled Chromosome.
func NewChromosome(
	elements []GenomicElement,
	length int,
	elementTypes map[int]*GenomicElementType,
	mutationRateMap RateMap,
	recombinationRateMap RateMap,
	geneConversionFraction, geneConversionMeanLength float64,
	stream *rng.Stream,
) (*Chromosome, error) {
	if err := validateTiling(elements); err != nil {
		return nil, err
	}
	if err := mutationRateMap.validate(length); err != nil {
		return nil, err
	}
	if err := recombinationRateMap.validate(length); err != nil {
		return nil, err
	}
	if geneConversionFraction < 0 || geneConversionFraction > 1 {
		return nil, fmt.Errorf("genetics: gene-conversion fraction must be in [0,1], got %g", geneConversionFraction)
	}
	for _, e := range elements {
		if _, ok := elementTypes[e.TypeID]; !ok {
			return nil, fmt.Errorf("genetics: genomic element references unknown element type %d", e.TypeID)
		}
	}

	c := &Chromosome{
		Elements:                 elements,
		Length:                   length,
		MutationRateMap:          mutationRateMap,
		RecombinationRateMap:     recombinationRateMap,
		GeneConversionFraction:   geneConversionFraction,
		GeneConversionMeanLength: geneConversionMeanLength,
		elementTypes:             elementTypes,
	}

	// A zero total rate leaves the corresponding sampler nil: the kernel
	// never draws a mutation site (or breakpoint) when the Poisson count
	// for it is always zero, so there is nothing to sample from.
	weights := make([]float64, len(elements))
	for i, e := range elements {
		density := c.averageMutationRate(e.Start, e.End)
		typeWeight := totalTypeWeight(elementTypes[e.TypeID])
		weights[i] = float64(e.End-e.Start+1) * density * typeWeight
	}
	if sumPositive(weights) {
		sampler, err := rng.NewWeightedSampler(weights, stream)
		if err != nil {
			return nil, fmt.Errorf("genetics: building chromosome element sampler: %w", err)
		}
		c.elementSampler = sampler
	}

	recombWeights, starts, ends := recombinationIntervals(recombinationRateMap, length)
	if sumPositive(recombWeights) {
		rs, err := rng.NewWeightedSampler(recombWeights, stream)
		if err != nil {
			return nil, fmt.Errorf("genetics: building recombination-interval sampler: %w", err)
		}
		c.recombSampler = rs
	}
	c.recombStarts = starts
	c.recombEnds = ends

	c.muTotal = mutationRateMap.total()
	c.rTotal = recombinationRateMap.total()
	c.expNegMuTotal = math.Exp(-c.muTotal)
	c.expNegRTotal = math.Exp(-c.rTotal)
	c.jointZeroProb = math.Exp(-(c.muTotal + c.rTotal))

	return c, nil
}

func sumPositive(weights []float64) bool {
	var sum float64
	for _, w := range weights {
		sum += w
	}
	return sum > 0
}

func totalTypeWeight(t *GenomicElementType) float64 {
	var sum float64
	for _, w := range t.Weights {
		sum += w
	}
	return sum
}

func (c *Chromosome) averageMutationRate(start, end int) float64 {
	var sum float64
	for p := start; p <= end; p++ {
		sum += c.MutationRateMap.rateAt(p)
	}
	return sum / float64(end-start+1)
}

func recombinationIntervals(m RateMap, length int) (weights []float64, starts, ends []int) {
	prev := -1
	for i, end := range m.EndPositions {
		start := prev + 1
		weights = append(weights, m.Rates[i]*float64(end-start+1))
		starts = append(starts, start)
		ends = append(ends, end)
		prev = end
	}
	_ = length
	return weights, starts, ends
}

// ElementTypeOf returns the GenomicElementType for a genomic element's
// TypeID.
func (c *Chromosome) ElementTypeOf(typeID int) *GenomicElementType { return c.elementTypes[typeID] }

// MutationRateTotal, RecombinationRateTotal expose the chromosome-wide
// totals the per-meiosis kernel's joint Poisson draw consumes.
func (c *Chromosome) MutationRateTotal() float64      { return c.muTotal }
func (c *Chromosome) RecombinationRateTotal() float64 { return c.rTotal }
func (c *Chromosome) JointZeroProbability() float64   { return c.jointZeroProb }

// DrawMutationSite picks a genomic element by weight and a uniformly
// random position within it.
func (c *Chromosome) DrawMutationSite(stream *rng.Stream) (elementIdx int, position uint32, err error) {
	if c.elementSampler == nil {
		return 0, 0, fmt.Errorf("genetics: chromosome has a zero total mutation rate, no site to draw")
	}
	idx, err := c.elementSampler.Take()
	if err != nil {
		return 0, 0, fmt.Errorf("genetics: drawing mutation site: %w", err)
	}
	e := c.Elements[idx]
	span := e.End - e.Start + 1
	pos := e.Start + int(stream.IntN(int64(span)))
	return idx, uint32(pos), nil
}

// DrawBreakpoint picks a recombination interval by weight and a
// uniformly random position within it.
func (c *Chromosome) DrawBreakpoint(stream *rng.Stream) (int, error) {
	if c.recombSampler == nil {
		return 0, fmt.Errorf("genetics: chromosome has a zero total recombination rate, no breakpoint to draw")
	}
	idx, err := c.recombSampler.Take()
	if err != nil {
		return 0, fmt.Errorf("genetics: drawing recombination breakpoint: %w", err)
	}
	start, end := c.recombStarts[idx], c.recombEnds[idx]
	span := end - start + 1
	return start + int(stream.IntN(int64(span))), nil
}
