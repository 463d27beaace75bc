package functions

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/rulego/streamdiff/types"
)

// UpperFunction 转大写函数
type UpperFunction struct {
	*BaseFunction
}

func NewUpperFunction() *UpperFunction {
	return &UpperFunction{
		BaseFunction: NewBaseFunction("upper", TypeString, "字符串函数", "转换为大写", 1, 1),
	}
}

// Caser keeps internal state, so one is created per call
func (f *UpperFunction) Execute(args []types.Value) (types.Value, error) {
	return mapString(f.name, args[0], cases.Upper(language.Und).String)
}

// LowerFunction 转小写函数
type LowerFunction struct {
	*BaseFunction
}

func NewLowerFunction() *LowerFunction {
	return &LowerFunction{
		BaseFunction: NewBaseFunction("lower", TypeString, "字符串函数", "转换为小写", 1, 1),
	}
}

func (f *LowerFunction) Execute(args []types.Value) (types.Value, error) {
	return mapString(f.name, args[0], cases.Lower(language.Und).String)
}

// mapString applies fn to a string argument; NULL stays NULL
func mapString(name string, v types.Value, fn func(string) string) (types.Value, error) {
	switch v.Kind() {
	case types.KindNull:
		return types.Null, nil
	case types.KindString:
		return types.String(fn(v.AsString())), nil
	default:
		return types.Null, argKindError(name, 0, "string", v)
	}
}

// LengthFunction 字符串长度函数，按字符计数
type LengthFunction struct {
	*BaseFunction
}

func NewLengthFunction() *LengthFunction {
	return &LengthFunction{
		BaseFunction: NewBaseFunction("length", TypeString, "字符串函数", "获取字符串长度", 1, 1),
	}
}

func (f *LengthFunction) Execute(args []types.Value) (types.Value, error) {
	v := args[0]
	switch v.Kind() {
	case types.KindNull:
		return types.Null, nil
	case types.KindString:
		return types.Int(int64(utf8.RuneCountInString(v.AsString()))), nil
	default:
		return types.Null, argKindError(f.name, 0, "string", v)
	}
}

// ConcatFunction 字符串连接函数
type ConcatFunction struct {
	*BaseFunction
}

func NewConcatFunction() *ConcatFunction {
	return &ConcatFunction{
		BaseFunction: NewBaseFunction("concat", TypeString, "字符串函数", "连接多个字符串", 1, -1),
	}
}

func (f *ConcatFunction) Execute(args []types.Value) (types.Value, error) {
	if anyNull(args) {
		return types.Null, nil
	}
	var b strings.Builder
	for i, arg := range args {
		if arg.Kind() != types.KindString {
			return types.Null, argKindError(f.name, i, "string", arg)
		}
		b.WriteString(arg.AsString())
	}
	return types.String(b.String()), nil
}
