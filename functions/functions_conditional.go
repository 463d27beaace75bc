package functions

import (
	"github.com/rulego/streamdiff/types"
)

// CoalesceFunction 返回第一个非NULL值
type CoalesceFunction struct {
	*BaseFunction
}

func NewCoalesceFunction() *CoalesceFunction {
	return &CoalesceFunction{
		BaseFunction: NewBaseFunction("coalesce", TypeConditional, "条件函数", "返回第一个非NULL值", 1, -1),
	}
}

func (f *CoalesceFunction) Execute(args []types.Value) (types.Value, error) {
	for _, arg := range args {
		if !arg.IsNull() {
			return arg, nil
		}
	}
	return types.Null, nil
}

// NullIfFunction 两值相等时返回NULL，否则返回第一个值
type NullIfFunction struct {
	*BaseFunction
}

func NewNullIfFunction() *NullIfFunction {
	return &NullIfFunction{
		BaseFunction: NewBaseFunction("nullif", TypeConditional, "条件函数", "相等时返回NULL", 2, 2),
	}
}

func (f *NullIfFunction) Execute(args []types.Value) (types.Value, error) {
	if args[0].IsNull() || args[1].IsNull() {
		return args[0], nil
	}
	cmp, err := args[0].Compare(args[1])
	if err != nil {
		return types.Null, err
	}
	if cmp == 0 {
		return types.Null, nil
	}
	return args[0], nil
}
