package bridge

import (
	"fmt"

	"github.com/clawinfra/popgenlab/internal/genetics"
	"github.com/clawinfra/popgenlab/internal/population"
	"github.com/clawinfra/popgenlab/internal/script"
	"github.com/clawinfra/popgenlab/internal/value"
)

// PopulationObject is the "sim" singleton: the script-facing
// handle onto the running simulation's population, mutation/genomic
// element type tables, and subpopulation registry. It also owns the
// bookkeeping that keeps p<id> constants and SubpopulationObject
// handles consistent with population.Population as subpopulations are
// added and removed.
type PopulationObject struct {
	Pop    *population.Population
	Interp *script.Interpreter
	Finish func()

	subpops map[int]*SubpopulationObject
}

// NewPopulationObject wires a population.Population to interp, under
// the control of finish (called by the simulationFinished() builtin).
func NewPopulationObject(pop *population.Population, interp *script.Interpreter, finish func()) *PopulationObject {
	return &PopulationObject{
		Pop:     pop,
		Interp:  interp,
		Finish:  finish,
		subpops: make(map[int]*SubpopulationObject),
	}
}

func (o *PopulationObject) Class() *value.Class { return populationClass }

// subpopConstantName returns the p<id> global constant name for id.
func subpopConstantName(id int) string { return fmt.Sprintf("p%d", id) }

// handleFor returns (creating if necessary) the live SubpopulationObject
// wrapper for sp.
func (o *PopulationObject) handleFor(sp *population.Subpopulation) *SubpopulationObject {
	h, ok := o.subpops[sp.ID]
	if !ok {
		h = &SubpopulationObject{SP: sp}
		o.subpops[sp.ID] = h
	}
	return h
}

var populationClass = &value.Class{
	Name: "Population",
	Properties: map[string]*value.Property{
		"generation": {
			Name: "generation", Mask: value.MaskInt,
			Get: func(obj value.Object) (*value.Value, error) {
				return value.NewIntSingleton(obj.(*PopulationObject).Pop.Generation), nil
			},
		},
		"subpopulationCount": {
			Name: "subpopulationCount", Mask: value.MaskInt,
			Get: func(obj value.Object) (*value.Value, error) {
				return value.NewIntSingleton(int64(len(obj.(*PopulationObject).Pop.Subpops))), nil
			},
		},
	},
	Methods: map[string]*value.Method{
		"subpopulationIDs": {
			Signature: &value.Signature{Name: "subpopulationIDs", ReturnMask: value.MaskInt},
			Call: func(obj value.Object, args []*value.Value) (*value.Value, error) {
				return intVector(obj.(*PopulationObject).Pop.SubpopIDsSorted()), nil
			},
		},
		"subpopulation": {
			Signature: &value.Signature{
				Name: "subpopulation", ReturnMask: value.MaskObject,
				Args: []value.ArgSpec{{Name: "id", Mask: value.MaskInt, Singleton: true}},
			},
			Call: func(obj value.Object, args []*value.Value) (*value.Value, error) {
				o := obj.(*PopulationObject)
				id := int(args[0].IntAt(0))
				sp, ok := o.Pop.Subpops[id]
				if !ok {
					return nil, &value.KindedError{Kind: value.KindName, Msg: fmt.Sprintf("unknown subpopulation id p%d", id)}
				}
				return NewSubpopulationValue(o.handleFor(sp)), nil
			},
		},
		"addSubpopulation": {
			Signature: &value.Signature{
				Name: "addSubpopulation", ReturnMask: value.MaskObject,
				Args: []value.ArgSpec{
					{Name: "id", Mask: value.MaskInt, Singleton: true},
					{Name: "size", Mask: value.MaskInt, Singleton: true},
					{Name: "selfingFraction", Mask: value.MaskFloat, Singleton: true, Optional: true},
				},
			},
			Call: func(obj value.Object, args []*value.Value) (*value.Value, error) {
				o := obj.(*PopulationObject)
				id := int(args[0].IntAt(0))
				size := int(args[1].IntAt(0))
				selfing := 0.0
				if len(args) > 2 {
					selfing = args[2].AsFloat64(0)
				}
				sp, err := population.NewSubpopulation(id, size, selfing)
				if err != nil {
					return nil, &value.KindedError{Kind: value.KindSimulation, Msg: err.Error()}
				}
				if err := o.Pop.AddSubpopulation(sp); err != nil {
					return nil, &value.KindedError{Kind: value.KindSimulation, Msg: err.Error()}
				}
				handle := o.handleFor(sp)
				v := NewSubpopulationValue(handle)
				if err := o.Interp.Symbols.DefineConstant(subpopConstantName(id), v); err != nil {
					return nil, err
				}
				return v, nil
			},
		},
		"removeSubpopulation": {
			Signature: &value.Signature{
				Name: "removeSubpopulation", ReturnMask: value.MaskNull,
				Args: []value.ArgSpec{{Name: "id", Mask: value.MaskInt, Singleton: true}},
			},
			Call: func(obj value.Object, args []*value.Value) (*value.Value, error) {
				o := obj.(*PopulationObject)
				id := int(args[0].IntAt(0))
				if h, ok := o.subpops[id]; ok {
					h.Stale = true
				}
				if err := o.Pop.RemoveSubpopulation(id); err != nil {
					return nil, &value.KindedError{Kind: value.KindSimulation, Msg: err.Error()}
				}
				delete(o.subpops, id)
				return value.NewNull(), nil
			},
		},
		"simulationFinished": {
			Signature: &value.Signature{Name: "simulationFinished", ReturnMask: value.MaskNull},
			Call: func(obj value.Object, args []*value.Value) (*value.Value, error) {
				obj.(*PopulationObject).Finish()
				return value.NewNull(), nil
			},
		},
		"addMutationType": {
			Signature: &value.Signature{
				Name: "addMutationType", ReturnMask: value.MaskObject,
				Args: []value.ArgSpec{
					{Name: "id", Mask: value.MaskInt, Singleton: true},
					{Name: "dominanceCoeff", Mask: value.MaskFloat, Singleton: true},
					{Name: "distributionType", Mask: value.MaskString, Singleton: true},
					{Name: "params", Mask: value.MaskFloat, Optional: true},
				},
			},
			Call: func(obj value.Object, args []*value.Value) (*value.Value, error) {
				o := obj.(*PopulationObject)
				id := int(args[0].IntAt(0))
				dominance := args[1].AsFloat64(0)
				dist, err := parseDistKind(args[2].StringAt(0))
				if err != nil {
					return nil, &value.KindedError{Kind: value.KindDomain, Msg: err.Error()}
				}
				var params []float64
				if len(args) > 3 {
					p := args[3]
					params = make([]float64, p.Count())
					for i := range params {
						params[i] = p.AsFloat64(i)
					}
				}
				if _, exists := o.Pop.MutationTypes[id]; exists {
					return nil, &value.KindedError{Kind: value.KindSimulation, Msg: fmt.Sprintf("duplicate mutation type id %d", id)}
				}
				mt, err := genetics.NewMutationType(id, dominance, dist, params)
				if err != nil {
					return nil, &value.KindedError{Kind: value.KindSimulation, Msg: err.Error()}
				}
				o.Pop.MutationTypes[id] = mt
				return NewMutationTypeValue(mt), nil
			},
		},
		"addGenomicElementType": {
			Signature: &value.Signature{
				Name: "addGenomicElementType", ReturnMask: value.MaskObject,
				Args: []value.ArgSpec{
					{Name: "id", Mask: value.MaskInt, Singleton: true},
					{Name: "mutationTypeIDs", Mask: value.MaskInt},
					{Name: "weights", Mask: value.MaskFloat},
				},
			},
			Call: func(obj value.Object, args []*value.Value) (*value.Value, error) {
				o := obj.(*PopulationObject)
				id := int(args[0].IntAt(0))
				idsV, weightsV := args[1], args[2]
				ids := make([]int, idsV.Count())
				for i := range ids {
					ids[i] = int(idsV.IntAt(i))
				}
				weights := make([]float64, weightsV.Count())
				for i := range weights {
					weights[i] = weightsV.AsFloat64(i)
				}
				if _, exists := o.Pop.GenomicElementTypes[id]; exists {
					return nil, &value.KindedError{Kind: value.KindSimulation, Msg: fmt.Sprintf("duplicate genomic element type id %d", id)}
				}
				get, err := genetics.NewGenomicElementType(id, ids, weights)
				if err != nil {
					return nil, &value.KindedError{Kind: value.KindSimulation, Msg: err.Error()}
				}
				o.Pop.GenomicElementTypes[id] = get
				return NewGenomicElementTypeValue(get), nil
			},
		},
	},
}

// parseDistKind maps a scripted distribution-type name to its
// genetics.DistKind (the inverse of DistKind.String).
func parseDistKind(name string) (genetics.DistKind, error) {
	switch name {
	case "fixed":
		return genetics.DistFixed, nil
	case "exponential":
		return genetics.DistExponential, nil
	case "gamma":
		return genetics.DistGamma, nil
	case "normal":
		return genetics.DistNormal, nil
	case "weighted-script":
		return genetics.DistWeightedScript, nil
	default:
		return 0, fmt.Errorf("unknown mutation-type distribution %q", name)
	}
}
