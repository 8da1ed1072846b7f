package genetics

import (
	"fmt"

	"github.com/clawinfra/popgenlab/internal/rng"
)

// DistKind identifies a mutation type's selection-coefficient
// distribution.
type DistKind uint8

const (
	DistFixed DistKind = iota
	DistExponential
	DistGamma
	DistNormal
	DistWeightedScript
)

func (k DistKind) String() string {
	switch k {
	case DistFixed:
		return "fixed"
	case DistExponential:
		return "exponential"
	case DistGamma:
		return "gamma"
	case DistNormal:
		return "normal"
	case DistWeightedScript:
		return "weighted-script"
	default:
		return "unknown"
	}
}

// ScriptEvaluator is the narrow interface the "weighted-script"
// distribution kind calls back into the scripting runtime through,
// avoiding an import cycle between genetics and script.
type ScriptEvaluator interface {
	EvaluateSelectionCoefficient(typeID int) (float64, error)
}

// MutationType is a class of mutations sharing a dominance coefficient
// and a selection-coefficient distribution.
type MutationType struct {
	ID        int
	Dominance float64
	Dist      DistKind
	Params    []float64
}

// NewMutationType validates params against dist's arity and constructs a
// MutationType.
func NewMutationType(id int, dominance float64, dist DistKind, params []float64) (*MutationType, error) {
	want := 0
	switch dist {
	case DistFixed:
		want = 1
	case DistExponential:
		want = 1
	case DistGamma:
		want = 2
	case DistNormal:
		want = 2
	case DistWeightedScript:
		want = 0
	default:
		return nil, fmt.Errorf("genetics: unknown mutation-type distribution kind %d", dist)
	}
	if len(params) != want {
		return nil, fmt.Errorf("genetics: mutation type %d distribution %s requires %d parameter(s), got %d", id, dist, want, len(params))
	}
	return &MutationType{ID: id, Dominance: dominance, Dist: dist, Params: params}, nil
}

// DrawSelectionCoefficient draws a selection coefficient from mt's
// configured distribution. The weighted-script kind
// defers to the supplied ScriptEvaluator and is an error if one is not
// provided.
func (mt *MutationType) DrawSelectionCoefficient(stream *rng.Stream, eval ScriptEvaluator) (float64, error) {
	switch mt.Dist {
	case DistFixed:
		return mt.Params[0], nil
	case DistExponential:
		return stream.Exponential(mt.Params[0]), nil
	case DistGamma:
		return stream.Gamma(mt.Params[0], mt.Params[1]), nil
	case DistNormal:
		return stream.Normal(mt.Params[0], mt.Params[1]), nil
	case DistWeightedScript:
		if eval == nil {
			return 0, fmt.Errorf("genetics: mutation type %d uses a weighted-script distribution but no script evaluator was supplied", mt.ID)
		}
		return eval.EvaluateSelectionCoefficient(mt.ID)
	default:
		return 0, fmt.Errorf("genetics: mutation type %d has unknown distribution kind %d", mt.ID, mt.Dist)
	}
}
