package bridge

import (
	"fmt"

	"github.com/clawinfra/popgenlab/internal/engine"
	"github.com/clawinfra/popgenlab/internal/script"
	"github.com/clawinfra/popgenlab/internal/value"
)

// scriptEvaluator adapts an *engine.Engine to genetics.ScriptEvaluator:
// a mutation type configured with the weighted-script
// distribution kind draws its selection coefficient by calling a
// user-defined function named mutationEffect<typeID> with no arguments.
type scriptEvaluator struct {
	eng *engine.Engine
}

func (s *scriptEvaluator) EvaluateSelectionCoefficient(typeID int) (float64, error) {
	name := fmt.Sprintf("mutationEffect%d", typeID)
	if _, ok := s.eng.Interp.Funcs[name]; !ok {
		return 0, fmt.Errorf("mutation type %d uses a weighted-script distribution but no %s() function is defined", typeID, name)
	}
	ret, err := s.eng.Interp.CallByName(name, nil)
	if err != nil {
		return 0, err
	}
	if ret.Count() != 1 {
		return 0, fmt.Errorf("%s() must return a single numeric value", name)
	}
	return ret.AsFloat64(0), nil
}

// Wire installs every domain-specific builtin and global onto eng's
// interpreter: the RNG-backed free functions, the `sim`
// singleton, and a genetics.ScriptEvaluator for weighted-script
// mutation types.
func Wire(eng *engine.Engine) *PopulationObject {
	it := eng.Interp

	popObj := NewPopulationObject(eng.Population, it, eng.Finish)
	simValue := value.NewObjectSingleton(populationClass, popObj)
	if err := it.Symbols.DefineConstant("sim", simValue); err != nil {
		panic(err)
	}

	for _, id := range eng.Population.SubpopIDsSorted() {
		sp := eng.Population.Subpops[id]
		handle := popObj.handleFor(sp)
		if err := it.Symbols.DefineConstant(subpopConstantName(id), NewSubpopulationValue(handle)); err != nil {
			panic(err)
		}
	}

	reg := func(name string, s *value.Signature, f script.BuiltinFunc) {
		it.Builtins[name] = &script.Builtin{Sig: s, Impl: f}
	}

	reg("setSeed", &value.Signature{
		Name: "setSeed", ReturnMask: value.MaskNull,
		Args: []value.ArgSpec{{Name: "seed", Mask: value.MaskInt, Singleton: true}},
	}, func(it *script.Interpreter, args []*value.Value) (*value.Value, error) {
		eng.SetSeed(args[0].IntAt(0))
		return value.NewNull(), nil
	})

	reg("getSeed", &value.Signature{Name: "getSeed", ReturnMask: value.MaskInt},
		func(it *script.Interpreter, args []*value.Value) (*value.Value, error) {
			return value.NewIntSingleton(eng.GetSeed()), nil
		})

	reg("runif", &value.Signature{
		Name: "runif", ReturnMask: value.MaskFloat,
		Args: []value.ArgSpec{
			{Name: "n", Mask: value.MaskInt, Singleton: true},
			{Name: "min", Mask: value.MaskFloat, Singleton: true, Optional: true},
			{Name: "max", Mask: value.MaskFloat, Singleton: true, Optional: true},
		},
	}, func(it *script.Interpreter, args []*value.Value) (*value.Value, error) {
		n := int(args[0].IntAt(0))
		min, max := 0.0, 1.0
		if len(args) > 1 {
			min = args[1].AsFloat64(0)
		}
		if len(args) > 2 {
			max = args[2].AsFloat64(0)
		}
		out := make([]float64, n)
		for i := range out {
			v, err := eng.Stream.UniformRange(min, max)
			if err != nil {
				return nil, &value.KindedError{Kind: value.KindDomain, Msg: err.Error()}
			}
			out[i] = v
		}
		return value.NewFloat(out), nil
	})

	reg("rpois", &value.Signature{
		Name: "rpois", ReturnMask: value.MaskInt,
		Args: []value.ArgSpec{
			{Name: "n", Mask: value.MaskInt, Singleton: true},
			{Name: "lambda", Mask: value.MaskFloat, Singleton: true},
		},
	}, func(it *script.Interpreter, args []*value.Value) (*value.Value, error) {
		n := int(args[0].IntAt(0))
		lambda := args[1].AsFloat64(0)
		out := make([]int64, n)
		for i := range out {
			out[i] = eng.Stream.Poisson(lambda)
		}
		return value.NewInt(out), nil
	})

	reg("rbinom", &value.Signature{
		Name: "rbinom", ReturnMask: value.MaskInt,
		Args: []value.ArgSpec{
			{Name: "n", Mask: value.MaskInt, Singleton: true},
			{Name: "size", Mask: value.MaskInt, Singleton: true},
			{Name: "prob", Mask: value.MaskFloat, Singleton: true},
		},
	}, func(it *script.Interpreter, args []*value.Value) (*value.Value, error) {
		n := int(args[0].IntAt(0))
		size := args[1].IntAt(0)
		prob := args[2].AsFloat64(0)
		out := make([]int64, n)
		for i := range out {
			v, err := eng.Stream.Binomial(size, prob)
			if err != nil {
				return nil, &value.KindedError{Kind: value.KindDomain, Msg: err.Error()}
			}
			out[i] = v
		}
		return value.NewInt(out), nil
	})

	reg("sample", &value.Signature{
		Name: "sample", ReturnMask: value.MaskAny,
		Args: []value.ArgSpec{
			{Name: "x", Mask: value.MaskAny},
			{Name: "size", Mask: value.MaskInt, Singleton: true},
			{Name: "replace", Mask: value.MaskLogical, Singleton: true, Optional: true},
		},
	}, func(it *script.Interpreter, args []*value.Value) (*value.Value, error) {
		x := args[0]
		size := int(args[1].IntAt(0))
		replace := false
		if len(args) > 2 {
			replace = args[2].LogicalAt(0)
		}
		n := x.Count()
		var idx []int
		if replace {
			idx = eng.Stream.SampleWithReplacement(n, size)
		} else {
			var err error
			idx, err = eng.Stream.SampleWithoutReplacement(n, size)
			if err != nil {
				return nil, &value.KindedError{Kind: value.KindDomain, Msg: err.Error()}
			}
		}
		idxVals := make([]int64, len(idx))
		for i, v := range idx {
			idxVals[i] = int64(v)
		}
		return value.Subscript(x, value.NewInt(idxVals))
	})

	reg("evaluate", &value.Signature{
		Name: "evaluate", ReturnMask: value.MaskAny,
		Args: []value.ArgSpec{{Name: "src", Mask: value.MaskString, Singleton: true}},
	}, func(it *script.Interpreter, args []*value.Value) (*value.Value, error) {
		return eng.Evaluate(args[0].StringAt(0))
	})

	eng.Kernel.ScriptEval = &scriptEvaluator{eng: eng}

	return popObj
}
