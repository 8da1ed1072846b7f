package bridge

import (
	"github.com/clawinfra/popgenlab/internal/genetics"
	"github.com/clawinfra/popgenlab/internal/value"
)

// GenomeObject wraps a *genetics.Genome. A genome published as a parent
// for a generation is treated as immutable by the simulation core;
// the bridge only ever exposes read access to it.
type GenomeObject struct {
	G *genetics.Genome
}

func (o *GenomeObject) Class() *value.Class { return genomeClass }

// NewGenomeValue wraps a single genome as a singleton object Value.
func NewGenomeValue(g *genetics.Genome) *value.Value {
	return value.NewObjectSingleton(genomeClass, &GenomeObject{G: g})
}

// NewGenomeVector wraps a slice of genomes (e.g. a subpopulation's parent
// array) as a vector object Value.
func NewGenomeVector(genomes []*genetics.Genome) *value.Value {
	objs := make([]value.Object, len(genomes))
	for i, g := range genomes {
		objs[i] = &GenomeObject{G: g}
	}
	return value.NewObject(genomeClass, objs)
}

var genomeClass = &value.Class{
	Name: "Genome",
	Properties: map[string]*value.Property{
		"mutationCount": {
			Name: "mutationCount", Mask: value.MaskInt,
			Get: func(obj value.Object) (*value.Value, error) {
				return value.NewIntSingleton(int64(obj.(*GenomeObject).G.Count())), nil
			},
		},
	},
	Methods: map[string]*value.Method{
		"mutations": {
			Signature: &value.Signature{Name: "mutations", ReturnMask: value.MaskObject},
			Call: func(obj value.Object, args []*value.Value) (*value.Value, error) {
				return NewMutationVector(obj.(*GenomeObject).G.Mutations()), nil
			},
		},
		"positionsOfMutations": {
			Signature: &value.Signature{Name: "positionsOfMutations", ReturnMask: value.MaskInt},
			Call: func(obj value.Object, args []*value.Value) (*value.Value, error) {
				muts := obj.(*GenomeObject).G.Mutations()
				out := make([]int64, len(muts))
				for i, m := range muts {
					out[i] = int64(m.Position)
				}
				return value.NewInt(out), nil
			},
		},
		"containsMutationOfType": {
			Signature: &value.Signature{
				Name: "containsMutationOfType", ReturnMask: value.MaskLogical,
				Args: []value.ArgSpec{{Name: "mutationTypeID", Mask: value.MaskInt, Singleton: true}},
			},
			Call: func(obj value.Object, args []*value.Value) (*value.Value, error) {
				typeID := int(args[0].IntAt(0))
				for _, m := range obj.(*GenomeObject).G.Mutations() {
					if m.TypeID == typeID {
						return value.NewLogicalSingleton(true), nil
					}
				}
				return value.NewLogicalSingleton(false), nil
			},
		},
	},
}
