package functions

import (
	"math"

	"github.com/rulego/streamdiff/types"
)

// AbsFunction 绝对值函数
type AbsFunction struct {
	*BaseFunction
}

func NewAbsFunction() *AbsFunction {
	return &AbsFunction{
		BaseFunction: NewBaseFunction("abs", TypeMath, "数学函数", "计算绝对值", 1, 1),
	}
}

func (f *AbsFunction) Execute(args []types.Value) (types.Value, error) {
	v := args[0]
	switch v.Kind() {
	case types.KindNull:
		return types.Null, nil
	case types.KindInt:
		if v.AsInt() < 0 {
			return types.Int(-v.AsInt()), nil
		}
		return v, nil
	case types.KindFloat:
		return types.Float(math.Abs(v.AsFloat())), nil
	default:
		return types.Null, argKindError(f.name, 0, "numeric", v)
	}
}

// RoundFunction 四舍五入函数，可选小数位数
type RoundFunction struct {
	*BaseFunction
}

func NewRoundFunction() *RoundFunction {
	return &RoundFunction{
		BaseFunction: NewBaseFunction("round", TypeMath, "数学函数", "四舍五入", 1, 2),
	}
}

func (f *RoundFunction) Execute(args []types.Value) (types.Value, error) {
	if anyNull(args) {
		return types.Null, nil
	}
	v := args[0]
	if v.Kind() == types.KindInt {
		return v, nil
	}
	if v.Kind() != types.KindFloat {
		return types.Null, argKindError(f.name, 0, "numeric", v)
	}
	if len(args) == 1 {
		return types.Float(math.Round(v.AsFloat())), nil
	}
	if args[1].Kind() != types.KindInt {
		return types.Null, argKindError(f.name, 1, "integer", args[1])
	}
	shift := math.Pow(10, float64(args[1].AsInt()))
	return types.Float(math.Round(v.AsFloat()*shift) / shift), nil
}

// FloorFunction 向下取整函数
type FloorFunction struct {
	*BaseFunction
}

func NewFloorFunction() *FloorFunction {
	return &FloorFunction{
		BaseFunction: NewBaseFunction("floor", TypeMath, "数学函数", "向下取整", 1, 1),
	}
}

func (f *FloorFunction) Execute(args []types.Value) (types.Value, error) {
	return roundWith(f.name, args[0], math.Floor)
}

// CeilingFunction 向上取整函数
type CeilingFunction struct {
	*BaseFunction
}

func NewCeilingFunction() *CeilingFunction {
	return &CeilingFunction{
		BaseFunction: NewBaseFunction("ceiling", TypeMath, "数学函数", "向上取整", 1, 1),
	}
}

func (f *CeilingFunction) Execute(args []types.Value) (types.Value, error) {
	return roundWith(f.name, args[0], math.Ceil)
}

func roundWith(name string, v types.Value, fn func(float64) float64) (types.Value, error) {
	switch v.Kind() {
	case types.KindNull, types.KindInt:
		return v, nil
	case types.KindFloat:
		return types.Float(fn(v.AsFloat())), nil
	default:
		return types.Null, argKindError(name, 0, "numeric", v)
	}
}
