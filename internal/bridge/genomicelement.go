package bridge

import (
	"github.com/clawinfra/popgenlab/internal/genetics"
	"github.com/clawinfra/popgenlab/internal/value"
)

// GenomicElementObject wraps a *genetics.GenomicElement. Genomic elements
// are immutable tiling entries, so the wrapped value is copied by value
// rather than pointed to.
type GenomicElementObject struct {
	E genetics.GenomicElement
}

func (o *GenomicElementObject) Class() *value.Class { return genomicElementClass }

// NewGenomicElementVector wraps a chromosome's tiling as a vector object
// Value, in tiling order.
func NewGenomicElementVector(elems []genetics.GenomicElement) *value.Value {
	objs := make([]value.Object, len(elems))
	for i, e := range elems {
		objs[i] = &GenomicElementObject{E: e}
	}
	return value.NewObject(genomicElementClass, objs)
}

var genomicElementClass = &value.Class{
	Name: "GenomicElement",
	Properties: map[string]*value.Property{
		"startPosition": {
			Name: "startPosition", Mask: value.MaskInt,
			Get: func(obj value.Object) (*value.Value, error) {
				return value.NewIntSingleton(int64(obj.(*GenomicElementObject).E.Start)), nil
			},
		},
		"endPosition": {
			Name: "endPosition", Mask: value.MaskInt,
			Get: func(obj value.Object) (*value.Value, error) {
				return value.NewIntSingleton(int64(obj.(*GenomicElementObject).E.End)), nil
			},
		},
		"genomicElementType": {
			Name: "genomicElementType", Mask: value.MaskInt,
			Get: func(obj value.Object) (*value.Value, error) {
				return value.NewIntSingleton(int64(obj.(*GenomicElementObject).E.TypeID)), nil
			},
		},
	},
	Methods: map[string]*value.Method{},
}
