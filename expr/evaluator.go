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
	"fmt"
	"math"

	"github.com/rulego/streamdiff/plan"
	"github.com/rulego/streamdiff/types"
)

var (
	_ Expression = (*Compare)(nil)
	_ Expression = (*Arith)(nil)
	_ Expression = (*Logic)(nil)
)

// Compare applies a comparison operator. A NULL operand yields NULL.
type Compare struct {
	Op          plan.CompareOp
	Left, Right Expression
}

func (e *Compare) Evaluate(ctx types.ExecutionContext) (types.Value, error) {
	l, err := e.Left.Evaluate(ctx)
	if err != nil {
		return types.Null, err
	}
	r, err := e.Right.Evaluate(ctx)
	if err != nil {
		return types.Null, err
	}
	if l.IsNull() || r.IsNull() {
		return types.Null, nil
	}
	cmp, err := l.Compare(r)
	if err != nil {
		return types.Null, err
	}
	switch e.Op {
	case plan.OpEq:
		return types.Bool(cmp == 0), nil
	case plan.OpNe:
		return types.Bool(cmp != 0), nil
	case plan.OpLt:
		return types.Bool(cmp < 0), nil
	case plan.OpLe:
		return types.Bool(cmp <= 0), nil
	case plan.OpGt:
		return types.Bool(cmp > 0), nil
	case plan.OpGe:
		return types.Bool(cmp >= 0), nil
	default:
		return types.Null, types.NewEvalError(types.ErrCodeUnsupportedOperator, "unsupported comparison operator %q", e.Op)
	}
}

func (e *Compare) String() string {
	return fmt.Sprintf("(%s %s %s)", e.Left, e.Op, e.Right)
}

// Arith applies an arithmetic operator to two numbers of the same kind.
// A NULL operand yields NULL; int and float are never mixed.
type Arith struct {
	Op          plan.ArithOp
	Left, Right Expression
}

func (e *Arith) Evaluate(ctx types.ExecutionContext) (types.Value, error) {
	l, err := e.Left.Evaluate(ctx)
	if err != nil {
		return types.Null, err
	}
	r, err := e.Right.Evaluate(ctx)
	if err != nil {
		return types.Null, err
	}
	if l.IsNull() || r.IsNull() {
		return types.Null, nil
	}
	if l.Kind() != r.Kind() {
		return types.Null, types.NewEvalError(types.ErrCodeTypeMismatch, "%s %s %s", l.Kind(), e.Op, r.Kind())
	}
	switch l.Kind() {
	case types.KindInt:
		return arithInt(e.Op, l.AsInt(), r.AsInt())
	case types.KindFloat:
		return arithFloat(e.Op, l.AsFloat(), r.AsFloat())
	default:
		return types.Null, types.NewEvalError(types.ErrCodeUnsupportedOperator, "operator %s is not defined on %s", e.Op, l.Kind())
	}
}

func (e *Arith) String() string {
	return fmt.Sprintf("(%s %s %s)", e.Left, e.Op, e.Right)
}

func arithInt(op plan.ArithOp, a, b int64) (types.Value, error) {
	switch op {
	case plan.OpAdd:
		return types.Int(a + b), nil
	case plan.OpSub:
		return types.Int(a - b), nil
	case plan.OpMul:
		return types.Int(a * b), nil
	case plan.OpDiv:
		if b == 0 {
			return types.Null, types.NewEvalError(types.ErrCodeDivisionByZero, "%d / 0", a)
		}
		return types.Int(a / b), nil
	case plan.OpMod:
		if b == 0 {
			return types.Null, types.NewEvalError(types.ErrCodeDivisionByZero, "%d %% 0", a)
		}
		return types.Int(a % b), nil
	default:
		return types.Null, types.NewEvalError(types.ErrCodeUnsupportedOperator, "unsupported arithmetic operator %q", op)
	}
}

func arithFloat(op plan.ArithOp, a, b float64) (types.Value, error) {
	switch op {
	case plan.OpAdd:
		return types.Float(a + b), nil
	case plan.OpSub:
		return types.Float(a - b), nil
	case plan.OpMul:
		return types.Float(a * b), nil
	case plan.OpDiv:
		if b == 0 {
			return types.Null, types.NewEvalError(types.ErrCodeDivisionByZero, "%g / 0", a)
		}
		return types.Float(a / b), nil
	case plan.OpMod:
		if b == 0 {
			return types.Null, types.NewEvalError(types.ErrCodeDivisionByZero, "%g %% 0", a)
		}
		return types.Float(math.Mod(a, b)), nil
	default:
		return types.Null, types.NewEvalError(types.ErrCodeUnsupportedOperator, "unsupported arithmetic operator %q", op)
	}
}

// Logic is AND/OR with SQL three-valued semantics.
// The right side is not evaluated when the left side decides the result.
type Logic struct {
	Op          plan.LogicOp
	Left, Right Expression
}

func (e *Logic) Evaluate(ctx types.ExecutionContext) (types.Value, error) {
	var decisive bool
	switch e.Op {
	case plan.OpAnd:
		decisive = false
	case plan.OpOr:
		decisive = true
	default:
		return types.Null, types.NewEvalError(types.ErrCodeUnsupportedOperator, "unsupported logic operator %q", e.Op)
	}

	l, err := logicOperand(e.Op, e.Left, ctx)
	if err != nil {
		return types.Null, err
	}
	if !l.IsNull() && l.AsBool() == decisive {
		return l, nil
	}
	r, err := logicOperand(e.Op, e.Right, ctx)
	if err != nil {
		return types.Null, err
	}
	if !r.IsNull() && r.AsBool() == decisive {
		return r, nil
	}
	if l.IsNull() || r.IsNull() {
		return types.Null, nil
	}
	return types.Bool(!decisive), nil
}

func (e *Logic) String() string {
	return fmt.Sprintf("(%s %s %s)", e.Left, e.Op, e.Right)
}

func logicOperand(op plan.LogicOp, e Expression, ctx types.ExecutionContext) (types.Value, error) {
	v, err := e.Evaluate(ctx)
	if err != nil {
		return types.Null, err
	}
	if v.Kind() != types.KindBool && !v.IsNull() {
		return types.Null, types.NewEvalError(types.ErrCodeTypeMismatch, "%s requires bool operands, got %s", op, v.Kind())
	}
	return v, nil
}
