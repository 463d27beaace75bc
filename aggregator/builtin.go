package aggregator

import (
	"math"
	"math/big"

	"github.com/rulego/streamdiff/types"
)

type AggregateType string

const (
	Count AggregateType = "count"
	Sum   AggregateType = "sum"
	Avg   AggregateType = "avg"
	Min   AggregateType = "min"
	Max   AggregateType = "max"
)

// AggregatorFunction is a retractable accumulator.
// Add is called with sign +1 for an inserted record and -1 for a retraction.
// Check validates a value against the current state without changing it; Add is only
// called with values Check accepted.
type AggregatorFunction interface {
	New() AggregatorFunction
	Check(v types.Value) error
	Add(v types.Value, sign int64)
	Result() types.Value
	// Empty reports whether the accumulator is back in its initial state
	Empty() bool
}

// CreateBuiltinAggregator returns a fresh accumulator of the given type
func CreateBuiltinAggregator(aggType AggregateType) (AggregatorFunction, error) {
	switch aggType {
	case Count:
		return &CountAggregator{}, nil
	case Sum:
		return &SumAggregator{}, nil
	case Avg:
		return &AvgAggregator{}, nil
	case Min:
		return newExtremeAggregator(-1), nil
	case Max:
		return newExtremeAggregator(1), nil
	default:
		return nil, types.NewPlanError(types.ErrCodeInvalidAggregate, "unsupported aggregate %q", aggType)
	}
}

// CountAggregator counts non-NULL values
type CountAggregator struct {
	count int64
}

func (c *CountAggregator) New() AggregatorFunction {
	return &CountAggregator{}
}

func (c *CountAggregator) Check(types.Value) error { return nil }

func (c *CountAggregator) Add(v types.Value, sign int64) {
	if !v.IsNull() {
		c.count += sign
	}
}

func (c *CountAggregator) Result() types.Value {
	return types.Int(c.count)
}

func (c *CountAggregator) Empty() bool { return c.count == 0 }

// numericSum is the signed sum of non-NULL numbers of one kind.
// Floats are summed exactly as rationals and rounded only when read, so retracting a value
// restores the previous result bit for bit. Non-finite floats are counted apart.
// The kind is fixed by the first value and released once the state is back to zero.
type numericSum struct {
	kind  types.Kind
	i     int64
	f     *big.Rat
	count int64

	nan, posInf, negInf int64
}

func (s *numericSum) check(name string, v types.Value) error {
	switch v.Kind() {
	case types.KindNull:
		return nil
	case types.KindInt, types.KindFloat:
		if !s.empty() && v.Kind() != s.kind {
			return types.NewEvalError(types.ErrCodeTypeMismatch, "%s: cannot mix %s with %s", name, s.kind, v.Kind())
		}
		return nil
	default:
		return types.NewEvalError(types.ErrCodeTypeMismatch, "%s requires numeric input, got %s", name, v.Kind())
	}
}

func (s *numericSum) add(v types.Value, sign int64) {
	if v.IsNull() {
		return
	}
	s.kind = v.Kind()
	s.count += sign
	if v.Kind() == types.KindInt {
		s.i += sign * v.AsInt()
	} else {
		s.addFloat(v.AsFloat(), sign)
	}
	if s.empty() {
		*s = numericSum{}
	}
}

func (s *numericSum) addFloat(f float64, sign int64) {
	switch {
	case math.IsNaN(f):
		s.nan += sign
	case math.IsInf(f, 1):
		s.posInf += sign
	case math.IsInf(f, -1):
		s.negInf += sign
	default:
		if s.f == nil {
			s.f = new(big.Rat)
		}
		r := new(big.Rat).SetFloat64(f)
		if sign < 0 {
			r.Neg(r)
		}
		s.f.Add(s.f, r)
	}
}

// empty reports whether nothing is left: no contribution and no residual sum
func (s *numericSum) empty() bool {
	return s.count == 0 && s.i == 0 && (s.f == nil || s.f.Sign() == 0) &&
		s.nan == 0 && s.posInf == 0 && s.negInf == 0
}

// float returns the float sum divided by n, rounded once
func (s *numericSum) float(n int64) float64 {
	switch {
	case s.nan > 0 || (s.posInf > 0 && s.negInf > 0):
		return math.NaN()
	case s.posInf > 0:
		return math.Inf(1)
	case s.negInf > 0:
		return math.Inf(-1)
	case s.f == nil:
		return 0
	}
	r := s.f
	if n != 1 {
		r = new(big.Rat).Quo(s.f, new(big.Rat).SetInt64(n))
	}
	f, _ := r.Float64()
	return f
}

type SumAggregator struct {
	sum numericSum
}

func (s *SumAggregator) New() AggregatorFunction {
	return &SumAggregator{}
}

func (s *SumAggregator) Check(v types.Value) error { return s.sum.check(string(Sum), v) }

func (s *SumAggregator) Add(v types.Value, sign int64) { s.sum.add(v, sign) }

// Result is NULL when no non-NULL value contributes
func (s *SumAggregator) Result() types.Value {
	switch {
	case s.sum.count == 0:
		return types.Null
	case s.sum.kind == types.KindInt:
		return types.Int(s.sum.i)
	default:
		return types.Float(s.sum.float(1))
	}
}

func (s *SumAggregator) Empty() bool { return s.sum.empty() }

type AvgAggregator struct {
	sum numericSum
}

func (a *AvgAggregator) New() AggregatorFunction {
	return &AvgAggregator{}
}

func (a *AvgAggregator) Check(v types.Value) error { return a.sum.check(string(Avg), v) }

func (a *AvgAggregator) Add(v types.Value, sign int64) { a.sum.add(v, sign) }

// Result is always a float
func (a *AvgAggregator) Result() types.Value {
	switch {
	case a.sum.count == 0:
		return types.Null
	case a.sum.kind == types.KindInt:
		return types.Float(float64(a.sum.i) / float64(a.sum.count))
	default:
		return types.Float(a.sum.float(a.sum.count))
	}
}

func (a *AvgAggregator) Empty() bool { return a.sum.empty() }

// ExtremeAggregator implements MIN and MAX over a counted multiset of values,
// so a retracted extreme falls back to the next one.
type ExtremeAggregator struct {
	// direction is -1 for MIN, 1 for MAX
	direction int
	kind      types.Kind
	values    map[string]*countedValue
}

type countedValue struct {
	value types.Value
	count int64
}

func newExtremeAggregator(direction int) *ExtremeAggregator {
	return &ExtremeAggregator{direction: direction, values: make(map[string]*countedValue)}
}

func (e *ExtremeAggregator) New() AggregatorFunction {
	return newExtremeAggregator(e.direction)
}

func (e *ExtremeAggregator) name() string {
	if e.direction < 0 {
		return string(Min)
	}
	return string(Max)
}

func (e *ExtremeAggregator) Check(v types.Value) error {
	if v.IsNull() || len(e.values) == 0 || v.Kind() == e.kind {
		return nil
	}
	return types.NewEvalError(types.ErrCodeTypeMismatch, "%s: cannot mix %s with %s", e.name(), e.kind, v.Kind())
}

func (e *ExtremeAggregator) Add(v types.Value, sign int64) {
	if v.IsNull() {
		return
	}
	key := types.TupleKey([]types.Value{v})
	cv, ok := e.values[key]
	if !ok {
		cv = &countedValue{value: v}
		e.values[key] = cv
		e.kind = v.Kind()
	}
	cv.count += sign
	if cv.count == 0 {
		delete(e.values, key)
	}
}

// Result considers only values with a positive count
func (e *ExtremeAggregator) Result() types.Value {
	best := types.Null
	for _, cv := range e.values {
		if cv.count <= 0 {
			continue
		}
		if best.IsNull() {
			best = cv.value
			continue
		}
		if cmp, err := cv.value.Compare(best); err == nil && cmp*e.direction > 0 {
			best = cv.value
		}
	}
	return best
}

func (e *ExtremeAggregator) Empty() bool { return len(e.values) == 0 }
