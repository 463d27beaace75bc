/*
 * Copyright 2025 The RuleGo Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package expr

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rulego/streamdiff/functions"
	"github.com/rulego/streamdiff/types"
)

// Expression is a compiled scalar expression.
// Evaluate is a pure function of ctx: it never mutates state and may be called concurrently.
type Expression interface {
	Evaluate(ctx types.ExecutionContext) (types.Value, error)
	String() string
}

var (
	_ Expression = (*Literal)(nil)
	_ Expression = (*Field)(nil)
	_ Expression = (*Variable)(nil)
	_ Expression = (*Not)(nil)
	_ Expression = (*IsNull)(nil)
	_ Expression = (*Call)(nil)
)

// Literal evaluates to a constant
type Literal struct {
	Value types.Value
}

func NewLiteral(v types.Value) *Literal { return &Literal{Value: v} }

func (e *Literal) Evaluate(types.ExecutionContext) (types.Value, error) { return e.Value, nil }

func (e *Literal) String() string { return e.Value.String() }

// Field reads a field of the current record by position.
// The position is resolved against the record schema when the plan is built.
type Field struct {
	Index int
	Name  string
}

func NewField(index int, name string) *Field { return &Field{Index: index, Name: name} }

func (e *Field) Evaluate(ctx types.ExecutionContext) (types.Value, error) {
	if e.Index < 0 || e.Index >= ctx.Record.Len() {
		return types.Null, types.NewEvalError(types.ErrCodeUnknownVariable,
			"field %s (#%d) out of range for record of %d values", e.Name, e.Index, ctx.Record.Len())
	}
	return ctx.Record.Value(e.Index), nil
}

func (e *Field) String() string { return fmt.Sprintf("%s#%d", e.Name, e.Index) }

// Variable reads a binding of an enclosing scope
type Variable struct {
	Name string
}

func NewVariable(name string) *Variable { return &Variable{Name: name} }

func (e *Variable) Evaluate(ctx types.ExecutionContext) (types.Value, error) {
	return ctx.Variables.Lookup(e.Name)
}

func (e *Variable) String() string { return "$" + e.Name }

// Not negates a boolean; NOT NULL is NULL
type Not struct {
	Arg Expression
}

func (e *Not) Evaluate(ctx types.ExecutionContext) (types.Value, error) {
	v, err := e.Arg.Evaluate(ctx)
	if err != nil {
		return types.Null, err
	}
	switch v.Kind() {
	case types.KindNull:
		return types.Null, nil
	case types.KindBool:
		return types.Bool(!v.AsBool()), nil
	default:
		return types.Null, types.NewEvalError(types.ErrCodeTypeMismatch, "NOT requires bool, got %s", v.Kind())
	}
}

func (e *Not) String() string { return "NOT " + e.Arg.String() }

// IsNull tests its argument for NULL and never evaluates to NULL itself
type IsNull struct {
	Arg    Expression
	Negate bool
}

func (e *IsNull) Evaluate(ctx types.ExecutionContext) (types.Value, error) {
	v, err := e.Arg.Evaluate(ctx)
	if err != nil {
		return types.Null, err
	}
	return types.Bool(v.IsNull() != e.Negate), nil
}

func (e *IsNull) String() string {
	if e.Negate {
		return e.Arg.String() + " IS NOT NULL"
	}
	return e.Arg.String() + " IS NULL"
}

// Call invokes a scalar function from the registry
type Call struct {
	Function functions.Function
	Args     []Expression
}

func (e *Call) Evaluate(ctx types.ExecutionContext) (types.Value, error) {
	args := make([]types.Value, len(e.Args))
	for i, arg := range e.Args {
		v, err := arg.Evaluate(ctx)
		if err != nil {
			return types.Null, err
		}
		args[i] = v
	}
	v, err := e.Function.Execute(args)
	if err != nil {
		var evalErr *types.EvalError
		if errors.As(err, &evalErr) {
			return types.Null, err
		}
		return types.Null, &types.EvalError{
			Code:    types.ErrCodeFunctionFailed,
			Message: fmt.Sprintf("function %s failed", e.Function.GetName()),
			Cause:   err,
		}
	}
	return v, nil
}

func (e *Call) String() string {
	args := make([]string, len(e.Args))
	for i, a := range e.Args {
		args[i] = a.String()
	}
	return fmt.Sprintf("%s(%s)", e.Function.GetName(), strings.Join(args, ", "))
}

// EvaluateBool evaluates a predicate. NULL reports ok=false with no error;
// a non-boolean result is a type mismatch.
func EvaluateBool(e Expression, ctx types.ExecutionContext) (value bool, ok bool, err error) {
	v, err := e.Evaluate(ctx)
	if err != nil {
		return false, false, err
	}
	switch v.Kind() {
	case types.KindNull:
		return false, false, nil
	case types.KindBool:
		return v.AsBool(), true, nil
	default:
		return false, false, types.NewEvalError(types.ErrCodeTypeMismatch, "predicate %s must be bool, got %s", e, v.Kind())
	}
}

// EvaluateAll evaluates a list of expressions into a tuple
func EvaluateAll(exprs []Expression, ctx types.ExecutionContext) ([]types.Value, error) {
	out := make([]types.Value, len(exprs))
	for i, e := range exprs {
		v, err := e.Evaluate(ctx)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
