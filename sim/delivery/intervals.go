package delivery

import (
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/dispatch-sim/dispatch-sim/sim/model"
)

// IntervalSampler yields the gap between two occurrences.
type IntervalSampler interface {
	// Next returns a non-negative interval.
	Next() time.Duration
}

// IntervalSpec parameterizes an interval distribution. All values are seconds
// except "rate", which is occurrences per second.
type IntervalSpec struct {
	Type   string             `yaml:"type"`
	Params map[string]float64 `yaml:"params,omitempty"`
	Values []float64          `yaml:"values,omitempty"`
}

// Default distributions of the delivery story.
var (
	// DefaultOrderInterval receives two orders per second on average.
	DefaultOrderInterval = IntervalSpec{Type: "exponential", Params: map[string]float64{"rate": 2}}
	// DefaultCarrierInterval lets carriers travel between 3 and 15 seconds.
	DefaultCarrierInterval = IntervalSpec{Type: "uniform", Params: map[string]float64{"min": 3, "max": 15}}
)

// DistributionSampler draws seconds from a gonum distribution.
type DistributionSampler struct {
	dist interface{ Rand() float64 }
}

func (s *DistributionSampler) Next() time.Duration {
	return seconds(s.dist.Rand())
}

// ConstantSampler always returns the same interval.
type ConstantSampler struct {
	value time.Duration
}

func (s *ConstantSampler) Next() time.Duration { return s.value }

// SequenceSampler replays a fixed list of intervals, cycling when exhausted.
type SequenceSampler struct {
	values []time.Duration
	next   int
}

func (s *SequenceSampler) Next() time.Duration {
	v := s.values[s.next]
	s.next = (s.next + 1) % len(s.values)
	return v
}

// Constant returns a sampler that always yields d.
func Constant(d time.Duration) *ConstantSampler {
	return &ConstantSampler{value: d}
}

// Sequence returns a sampler that replays ds in order. ds must not be empty.
func Sequence(ds ...time.Duration) *SequenceSampler {
	if len(ds) == 0 {
		panic("Sequence: no intervals given")
	}
	return &SequenceSampler{values: append([]time.Duration(nil), ds...)}
}

// NewIntervalSampler creates an IntervalSampler from a spec. Random
// distributions draw from rng so that runs are reproducible per seed.
func NewIntervalSampler(spec IntervalSpec, rng *rand.Rand) (IntervalSampler, error) {
	var src rand.Source // nil falls back to the global source
	if rng != nil {
		src = rng
	}
	switch spec.Type {
	case "exponential":
		if err := requireParam(spec.Params, "rate"); err != nil {
			return nil, err
		}
		rate := spec.Params["rate"]
		if rate <= 0 || math.IsInf(rate, 0) {
			return nil, fmt.Errorf("exponential rate must be positive and finite, got %v", rate)
		}
		return &DistributionSampler{dist: distuv.Exponential{Rate: rate, Src: src}}, nil

	case "uniform":
		if err := requireParam(spec.Params, "min", "max"); err != nil {
			return nil, err
		}
		lo, hi := spec.Params["min"], spec.Params["max"]
		if lo < 0 || hi < lo || hi >= model.MaxSeconds {
			return nil, fmt.Errorf("uniform bounds must satisfy 0 <= min <= max < %v, got [%v, %v]", model.MaxSeconds, lo, hi)
		}
		return &DistributionSampler{dist: distuv.Uniform{Min: lo, Max: hi, Src: src}}, nil

	case "constant":
		if err := requireParam(spec.Params, "value"); err != nil {
			return nil, err
		}
		v := spec.Params["value"]
		if v < 0 || v >= model.MaxSeconds {
			return nil, fmt.Errorf("constant interval must be in [0, %v) seconds, got %v", model.MaxSeconds, v)
		}
		return Constant(seconds(v)), nil

	case "sequence":
		if len(spec.Values) == 0 {
			return nil, fmt.Errorf("sequence interval requires at least one value")
		}
		ds := make([]time.Duration, len(spec.Values))
		for i, v := range spec.Values {
			if v < 0 || math.IsNaN(v) || v >= model.MaxSeconds {
				return nil, fmt.Errorf("sequence value %d must be in [0, %v) seconds, got %v", i, model.MaxSeconds, v)
			}
			ds[i] = seconds(v)
		}
		return Sequence(ds...), nil

	default:
		return nil, fmt.Errorf("unknown interval type %q", spec.Type)
	}
}

// requireParam checks that all named params exist and are not NaN.
func requireParam(params map[string]float64, names ...string) error {
	for _, name := range names {
		v, ok := params[name]
		if !ok {
			return fmt.Errorf("missing required parameter %q", name)
		}
		if math.IsNaN(v) {
			return fmt.Errorf("parameter %q is NaN", name)
		}
	}
	return nil
}

// seconds converts s to a Duration, clamped to the range a Duration holds.
// Exponential draws are unbounded, so the upper clamp is reachable.
func seconds(s float64) time.Duration {
	if s <= 0 {
		return 0
	}
	if s >= model.MaxSeconds {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(s * float64(time.Second))
}
