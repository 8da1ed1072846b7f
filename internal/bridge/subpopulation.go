package bridge

import (
	"fmt"

	"github.com/clawinfra/popgenlab/internal/population"
	"github.com/clawinfra/popgenlab/internal/value"
)

// SubpopulationObject wraps a *population.Subpopulation. Stale is set by
// the enclosing PopulationObject when the subpopulation is removed from
// the simulation: every property/method dispatch against a
// stale handle fails with a name error instead of dereferencing freed
// state.
type SubpopulationObject struct {
	SP    *population.Subpopulation
	Stale bool
}

func (o *SubpopulationObject) Class() *value.Class { return subpopulationClass }

func (o *SubpopulationObject) checkLive() error {
	if o.Stale {
		return &value.KindedError{Kind: value.KindName, Msg: fmt.Sprintf("subpopulation p%d has been removed from the simulation; this reference is stale", o.SP.ID)}
	}
	return nil
}

// NewSubpopulationValue wraps sp as a singleton object Value.
func NewSubpopulationValue(o *SubpopulationObject) *value.Value {
	return value.NewObjectSingleton(subpopulationClass, o)
}

var subpopulationClass = &value.Class{
	Name: "Subpopulation",
	Properties: map[string]*value.Property{
		"id": {
			Name: "id", Mask: value.MaskInt,
			Get: func(obj value.Object) (*value.Value, error) {
				o := obj.(*SubpopulationObject)
				if err := o.checkLive(); err != nil {
					return nil, err
				}
				return value.NewIntSingleton(int64(o.SP.ID)), nil
			},
		},
		"individualCount": {
			Name: "individualCount", Mask: value.MaskInt,
			Get: func(obj value.Object) (*value.Value, error) {
				o := obj.(*SubpopulationObject)
				if err := o.checkLive(); err != nil {
					return nil, err
				}
				return value.NewIntSingleton(int64(o.SP.Size)), nil
			},
		},
		"selfingFraction": {
			Name: "selfingFraction", Mask: value.MaskFloat, Writable: true,
			Get: func(obj value.Object) (*value.Value, error) {
				o := obj.(*SubpopulationObject)
				if err := o.checkLive(); err != nil {
					return nil, err
				}
				return value.NewFloatSingleton(o.SP.SelfingFraction), nil
			},
			Set: func(obj value.Object, v *value.Value) error {
				o := obj.(*SubpopulationObject)
				if err := o.checkLive(); err != nil {
					return err
				}
				f := v.AsFloat64(0)
				if f < 0 || f > 1 {
					return &value.KindedError{Kind: value.KindDomain, Msg: "selfingFraction must be in [0,1]"}
				}
				o.SP.SelfingFraction = f
				return nil
			},
		},
	},
	Methods: map[string]*value.Method{
		"genomes": {
			Signature: &value.Signature{Name: "genomes", ReturnMask: value.MaskObject},
			Call: func(obj value.Object, args []*value.Value) (*value.Value, error) {
				o := obj.(*SubpopulationObject)
				if err := o.checkLive(); err != nil {
					return nil, err
				}
				return NewGenomeVector(o.SP.Parents()), nil
			},
		},
		"fitness": {
			Signature: &value.Signature{
				Name: "fitness", ReturnMask: value.MaskFloat,
				Args: []value.ArgSpec{{Name: "index", Mask: value.MaskInt, Singleton: true}},
			},
			Call: func(obj value.Object, args []*value.Value) (*value.Value, error) {
				o := obj.(*SubpopulationObject)
				if err := o.checkLive(); err != nil {
					return nil, err
				}
				idx := int(args[0].IntAt(0))
				fits := o.SP.Fitnesses()
				if idx < 0 || idx >= len(fits) {
					return nil, &value.KindedError{Kind: value.KindShape, Msg: fmt.Sprintf("fitness index %d out of range [0,%d)", idx, len(fits))}
				}
				return value.NewFloatSingleton(fits[idx]), nil
			},
		},
		"setMigrationRates": {
			Signature: &value.Signature{
				Name: "setMigrationRates", ReturnMask: value.MaskNull,
				Args: []value.ArgSpec{
					{Name: "sourceSubpopIDs", Mask: value.MaskInt},
					{Name: "rates", Mask: value.MaskFloat},
				},
			},
			Call: func(obj value.Object, args []*value.Value) (*value.Value, error) {
				o := obj.(*SubpopulationObject)
				if err := o.checkLive(); err != nil {
					return nil, err
				}
				ids, rates := args[0], args[1]
				if ids.Count() != rates.Count() {
					return nil, &value.KindedError{Kind: value.KindShape, Msg: "setMigrationRates: sourceSubpopIDs and rates must have equal length"}
				}
				o.SP.MigrationRates = make(map[int]float64, ids.Count())
				for i := 0; i < ids.Count(); i++ {
					o.SP.MigrationRates[int(ids.IntAt(i))] = rates.AsFloat64(i)
				}
				return value.NewNull(), nil
			},
		},
	},
}
