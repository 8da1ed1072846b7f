package bridge

import (
	"github.com/clawinfra/popgenlab/internal/genetics"
	"github.com/clawinfra/popgenlab/internal/value"
)

// ChromosomeObject wraps a *genetics.Chromosome.
type ChromosomeObject struct {
	C *genetics.Chromosome
}

func (o *ChromosomeObject) Class() *value.Class { return chromosomeClass }

// NewChromosomeValue wraps a chromosome as a singleton object Value.
func NewChromosomeValue(c *genetics.Chromosome) *value.Value {
	return value.NewObjectSingleton(chromosomeClass, &ChromosomeObject{C: c})
}

var chromosomeClass = &value.Class{
	Name: "Chromosome",
	Properties: map[string]*value.Property{
		"lastPosition": {
			Name: "lastPosition", Mask: value.MaskInt,
			Get: func(obj value.Object) (*value.Value, error) {
				return value.NewIntSingleton(int64(obj.(*ChromosomeObject).C.Length - 1)), nil
			},
		},
		"overallMutationRate": {
			Name: "overallMutationRate", Mask: value.MaskFloat,
			Get: func(obj value.Object) (*value.Value, error) {
				return value.NewFloatSingleton(obj.(*ChromosomeObject).C.MutationRateTotal()), nil
			},
		},
		"overallRecombinationRate": {
			Name: "overallRecombinationRate", Mask: value.MaskFloat,
			Get: func(obj value.Object) (*value.Value, error) {
				return value.NewFloatSingleton(obj.(*ChromosomeObject).C.RecombinationRateTotal()), nil
			},
		},
		"geneConversionFraction": {
			Name: "geneConversionFraction", Mask: value.MaskFloat,
			Get: func(obj value.Object) (*value.Value, error) {
				return value.NewFloatSingleton(obj.(*ChromosomeObject).C.GeneConversionFraction), nil
			},
		},
		"geneConversionMeanLength": {
			Name: "geneConversionMeanLength", Mask: value.MaskFloat,
			Get: func(obj value.Object) (*value.Value, error) {
				return value.NewFloatSingleton(obj.(*ChromosomeObject).C.GeneConversionMeanLength), nil
			},
		},
	},
	Methods: map[string]*value.Method{
		"genomicElements": {
			Signature: &value.Signature{Name: "genomicElements", ReturnMask: value.MaskObject},
			Call: func(obj value.Object, args []*value.Value) (*value.Value, error) {
				return NewGenomicElementVector(obj.(*ChromosomeObject).C.Elements), nil
			},
		},
	},
}
