package bridge

import (
	"github.com/clawinfra/popgenlab/internal/genetics"
	"github.com/clawinfra/popgenlab/internal/value"
)

// GenomicElementTypeObject wraps a *genetics.GenomicElementType.
type GenomicElementTypeObject struct {
	T *genetics.GenomicElementType
}

func (o *GenomicElementTypeObject) Class() *value.Class { return genomicElementTypeClass }

// NewGenomicElementTypeValue wraps a single genomic element type as a
// singleton object Value.
func NewGenomicElementTypeValue(t *genetics.GenomicElementType) *value.Value {
	return value.NewObjectSingleton(genomicElementTypeClass, &GenomicElementTypeObject{T: t})
}

func intVector(vals []int) *value.Value {
	out := make([]int64, len(vals))
	for i, v := range vals {
		out[i] = int64(v)
	}
	return value.NewInt(out)
}

var genomicElementTypeClass = &value.Class{
	Name: "GenomicElementType",
	Properties: map[string]*value.Property{
		"id": {
			Name: "id", Mask: value.MaskInt,
			Get: func(obj value.Object) (*value.Value, error) {
				return value.NewIntSingleton(int64(obj.(*GenomicElementTypeObject).T.ID)), nil
			},
		},
		"mutationTypes": {
			Name: "mutationTypes", Mask: value.MaskInt,
			Get: func(obj value.Object) (*value.Value, error) {
				return intVector(obj.(*GenomicElementTypeObject).T.MutationTypes), nil
			},
		},
		"mutationFractions": {
			Name: "mutationFractions", Mask: value.MaskFloat,
			Get: func(obj value.Object) (*value.Value, error) {
				return value.NewFloat(append([]float64(nil), obj.(*GenomicElementTypeObject).T.Weights...)), nil
			},
		},
	},
	Methods: map[string]*value.Method{},
}
