// Package bridge implements the host-object dispatch tables:
// it wraps genetics/population entities as value.Object element classes
// so script code can read their properties and call their methods, and
// wires the running simulation's subpopulations and population registry
// into a script interpreter's global scope.
package bridge

import (
	"github.com/clawinfra/popgenlab/internal/genetics"
	"github.com/clawinfra/popgenlab/internal/value"
)

// MutationObject wraps a *genetics.Mutation as a dispatchable host object.
type MutationObject struct {
	M *genetics.Mutation
}

func (o *MutationObject) Class() *value.Class { return mutationClass }

// NewMutationValue wraps a single mutation as a singleton object Value.
func NewMutationValue(m *genetics.Mutation) *value.Value {
	return value.NewObjectSingleton(mutationClass, &MutationObject{M: m})
}

// NewMutationVector wraps a slice of mutations as a vector object Value.
func NewMutationVector(muts []*genetics.Mutation) *value.Value {
	objs := make([]value.Object, len(muts))
	for i, m := range muts {
		objs[i] = &MutationObject{M: m}
	}
	return value.NewObject(mutationClass, objs)
}

var mutationClass = &value.Class{
	Name: "Mutation",
	Properties: map[string]*value.Property{
		"id": {
			Name: "id", Mask: value.MaskInt,
			Get: func(obj value.Object) (*value.Value, error) {
				return value.NewIntSingleton(obj.(*MutationObject).M.ID()), nil
			},
		},
		"mutationType": {
			Name: "mutationType", Mask: value.MaskInt,
			Get: func(obj value.Object) (*value.Value, error) {
				return value.NewIntSingleton(int64(obj.(*MutationObject).M.TypeID)), nil
			},
		},
		"position": {
			Name: "position", Mask: value.MaskInt,
			Get: func(obj value.Object) (*value.Value, error) {
				return value.NewIntSingleton(int64(obj.(*MutationObject).M.Position)), nil
			},
		},
		"selectionCoeff": {
			Name: "selectionCoeff", Mask: value.MaskFloat,
			Get: func(obj value.Object) (*value.Value, error) {
				return value.NewFloatSingleton(obj.(*MutationObject).M.Selection), nil
			},
		},
		"subpopID": {
			Name: "subpopID", Mask: value.MaskInt,
			Get: func(obj value.Object) (*value.Value, error) {
				return value.NewIntSingleton(int64(obj.(*MutationObject).M.OriginSubpopID)), nil
			},
		},
		"originGeneration": {
			Name: "originGeneration", Mask: value.MaskInt,
			Get: func(obj value.Object) (*value.Value, error) {
				return value.NewIntSingleton(obj.(*MutationObject).M.OriginGeneration), nil
			},
		},
	},
	Methods: map[string]*value.Method{},
}
