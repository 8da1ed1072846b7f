// Package rng is the simulation's stochastic environment: the uniform
// RNG, Poisson sampler, and weighted discrete sampler the core consumes.
// A Stream owns the single per-simulation-instance RNG
// state; seeding it with the same integer reproduces an identical
// draw sequence.
package rng

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// Stream is the RNG state for one simulation instance. It is not safe for
// concurrent use — the core that consumes it is single-threaded.
type Stream struct {
	seed int64
	src  *rand.Rand
}

// New creates a Stream seeded with seed.
func New(seed int64) *Stream {
	s := &Stream{}
	s.Seed(seed)
	return s
}

// Seed fully resets the stream (setSeed(n)): given an identical seed
// and an identical script, two Streams must produce identical draws.
func (s *Stream) Seed(seed int64) {
	s.seed = seed
	s.src = rand.New(rand.NewSource(uint64(seed)))
}

// GetSeed returns the last seed set (getSeed()).
func (s *Stream) GetSeed() int64 { return s.seed }

// Source exposes the underlying RNG source for callers that need to
// construct their own gonum distributions against the same stream.
func (s *Stream) Source() rand.Source { return s.src }

// Uniform returns a uniform float64 in [0, 1).
func (s *Stream) Uniform() float64 { return s.src.Float64() }

// UniformRange draws uniformly from [min, max), returning a domain error
// when min > max (runif).
func (s *Stream) UniformRange(min, max float64) (float64, error) {
	if min > max {
		return 0, fmt.Errorf("rng: runif requires min <= max (got min=%g, max=%g)", min, max)
	}
	return min + s.src.Float64()*(max-min), nil
}

// IntN draws a uniform integer in [0, n).
func (s *Stream) IntN(n int64) int64 {
	if n <= 0 {
		return 0
	}
	return int64(s.src.Int63n(n))
}

// Poisson draws from a Poisson(lambda) distribution — the Poisson sampler
// the core's environment supplies.
func (s *Stream) Poisson(lambda float64) int64 {
	d := distuv.Poisson{Lambda: lambda, Src: s.src}
	return int64(math.Round(d.Rand()))
}

// TruncatedNonzeroPoisson draws from a Poisson(lambda) distribution
// conditioned on being nonzero, used for the per-meiosis joint draw's
// non-zero branches: P(k | k>0) = P(k) / (1 - P(0)).
func (s *Stream) TruncatedNonzeroPoisson(lambda float64) int64 {
	for {
		k := s.Poisson(lambda)
		if k > 0 {
			return k
		}
	}
}

// Bernoulli draws a boolean that is true with probability p.
func (s *Stream) Bernoulli(p float64) (bool, error) {
	if p < 0 || p > 1 {
		return false, fmt.Errorf("rng: bernoulli requires p in [0,1] (got %g)", p)
	}
	return s.src.Float64() < p, nil
}

// Binomial draws from Binomial(n, p) — the rbinom() builtin (domain
// error on p outside [0,1]).
func (s *Stream) Binomial(n int64, p float64) (int64, error) {
	if p < 0 || p > 1 {
		return 0, fmt.Errorf("rng: rbinom requires p in [0,1] (got %g)", p)
	}
	d := distuv.Binomial{N: float64(n), P: p, Src: s.src}
	return int64(math.Round(d.Rand())), nil
}

// Gamma draws from a Gamma distribution with the given mean and shape, one of the selection-coefficient
// distribution kinds of a mutation type.
func (s *Stream) Gamma(mean, shape float64) float64 {
	// Parameterized by mean and shape; rate is derived so that
	// shape/rate == mean.
	d := distuv.Gamma{Alpha: shape, Beta: shape / mean, Src: s.src}
	return d.Rand()
}

// Normal draws from Normal(mean, sd).
func (s *Stream) Normal(mean, sd float64) float64 {
	d := distuv.Normal{Mu: mean, Sigma: sd, Src: s.src}
	return d.Rand()
}

// Exponential draws from Exponential(mean).
func (s *Stream) Exponential(mean float64) float64 {
	d := distuv.Exponential{Rate: 1 / mean, Src: s.src}
	return d.Rand()
}

// Geometric draws a tract-length-style geometric count with success
// probability p (number of failures before the first success, k in
// {0,1,2,...}), used for gene-conversion tract length draws. gonum's
// distuv package has no Geometric distribution, so this is the standard
// inverse-CDF construction over the stream's uniform draw.
func (s *Stream) Geometric(p float64) (int64, error) {
	if p <= 0 || p > 1 {
		return 0, fmt.Errorf("rng: geometric requires p in (0,1] (got %g)", p)
	}
	if p == 1 {
		return 0, nil
	}
	u := s.src.Float64()
	k := math.Log(1-u) / math.Log(1-p)
	return int64(math.Floor(k)), nil
}

// WeightedSampler is an alias-method discrete sampler over a fixed set
// of non-negative weights. Every consumer of this type (the chromosome's
// element/recombination samplers, a genomic element type's mutation-type
// sampler, a subpopulation's fitness sampler) draws from it repeatedly
// over the sampler's whole lifetime — sampling WITH replacement, which
// rules out gonum.org/v1/gonum/stat/sampleuv.Weighted: that type samples
// WITHOUT replacement (Take zeroes out the drawn index's weight so a
// later draw can never return it again). This is Vose's alias-method
// construction instead: O(n) build, O(1) draw.
type WeightedSampler struct {
	prob  []float64
	alias []int
	s     *Stream
}

// NewWeightedSampler builds a with-replacement sampler over weights (which
// must be non-negative and sum > 0), drawing its randomness from s on
// every Take call.
func NewWeightedSampler(weights []float64, s *Stream) (*WeightedSampler, error) {
	n := len(weights)
	if n == 0 {
		return nil, fmt.Errorf("rng: weighted sampler requires at least one weight")
	}
	sum := 0.0
	for _, w := range weights {
		if w < 0 {
			return nil, fmt.Errorf("rng: weighted sampler requires non-negative weights")
		}
		sum += w
	}
	if sum <= 0 {
		return nil, fmt.Errorf("rng: weighted sampler requires weights summing > 0")
	}

	scaled := make([]float64, n)
	for i, w := range weights {
		scaled[i] = w * float64(n) / sum
	}

	prob := make([]float64, n)
	alias := make([]int, n)
	small := make([]int, 0, n)
	large := make([]int, 0, n)
	for i, p := range scaled {
		if p < 1.0 {
			small = append(small, i)
		} else {
			large = append(large, i)
		}
	}

	for len(small) > 0 && len(large) > 0 {
		l := small[len(small)-1]
		small = small[:len(small)-1]
		g := large[len(large)-1]
		large = large[:len(large)-1]

		prob[l] = scaled[l]
		alias[l] = g

		scaled[g] = scaled[g] + scaled[l] - 1.0
		if scaled[g] < 1.0 {
			small = append(small, g)
		} else {
			large = append(large, g)
		}
	}
	for len(large) > 0 {
		g := large[len(large)-1]
		large = large[:len(large)-1]
		prob[g] = 1.0
	}
	for len(small) > 0 {
		l := small[len(small)-1]
		small = small[:len(small)-1]
		prob[l] = 1.0
	}

	return &WeightedSampler{prob: prob, alias: alias, s: s}, nil
}

// Take draws one index proportional to its weight, independently of and
// with replacement relative to every other call against this sampler.
func (w *WeightedSampler) Take() (int, error) {
	n := len(w.prob)
	if n == 0 {
		return 0, fmt.Errorf("rng: weighted sampler has no entries")
	}
	i := int(w.s.IntN(int64(n)))
	if w.s.Uniform() < w.prob[i] {
		return i, nil
	}
	return w.alias[i], nil
}

// SampleWithoutReplacement draws k distinct indices in [0, n) uniformly
// without replacement (sample()). A domain error is returned if k > n.
func (s *Stream) SampleWithoutReplacement(n, k int) ([]int, error) {
	if k > n {
		return nil, fmt.Errorf("rng: cannot sample %d elements without replacement from %d", k, n)
	}
	pool := make([]int, n)
	for i := range pool {
		pool[i] = i
	}
	for i := 0; i < k; i++ {
		j := i + int(s.IntN(int64(n-i)))
		pool[i], pool[j] = pool[j], pool[i]
	}
	return pool[:k], nil
}

// SampleWithReplacement draws k indices in [0, n) uniformly with
// replacement.
func (s *Stream) SampleWithReplacement(n, k int) []int {
	out := make([]int, k)
	for i := range out {
		out[i] = int(s.IntN(int64(n)))
	}
	return out
}
