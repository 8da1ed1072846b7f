package bridge

import (
	"github.com/clawinfra/popgenlab/internal/genetics"
	"github.com/clawinfra/popgenlab/internal/value"
)

// MutationTypeObject wraps a *genetics.MutationType.
type MutationTypeObject struct {
	T *genetics.MutationType
}

func (o *MutationTypeObject) Class() *value.Class { return mutationTypeClass }

// NewMutationTypeValue wraps a single mutation type as a singleton object.
func NewMutationTypeValue(t *genetics.MutationType) *value.Value {
	return value.NewObjectSingleton(mutationTypeClass, &MutationTypeObject{T: t})
}

var mutationTypeClass = &value.Class{
	Name: "MutationType",
	Properties: map[string]*value.Property{
		"id": {
			Name: "id", Mask: value.MaskInt,
			Get: func(obj value.Object) (*value.Value, error) {
				return value.NewIntSingleton(int64(obj.(*MutationTypeObject).T.ID)), nil
			},
		},
		"dominanceCoeff": {
			Name: "dominanceCoeff", Mask: value.MaskFloat, Writable: true,
			Get: func(obj value.Object) (*value.Value, error) {
				return value.NewFloatSingleton(obj.(*MutationTypeObject).T.Dominance), nil
			},
			Set: func(obj value.Object, v *value.Value) error {
				obj.(*MutationTypeObject).T.Dominance = v.AsFloat64(0)
				return nil
			},
		},
		"distributionType": {
			Name: "distributionType", Mask: value.MaskString,
			Get: func(obj value.Object) (*value.Value, error) {
				return value.NewStringSingleton(obj.(*MutationTypeObject).T.Dist.String()), nil
			},
		},
	},
	Methods: map[string]*value.Method{},
}
