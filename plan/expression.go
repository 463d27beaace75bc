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

package plan

import (
	"fmt"
	"strings"

	"github.com/rulego/streamdiff/types"
)

// Expression is a scalar expression as written in a plan.
// Variants: Literal, Column, Compare, Arith, Logic, Not, IsNull, Call, ExprLang, Subquery.
type Expression interface {
	fmt.Stringer
	expression()
}

// CompareOp is a comparison operator
type CompareOp string

const (
	OpEq CompareOp = "="
	OpNe CompareOp = "!="
	OpLt CompareOp = "<"
	OpLe CompareOp = "<="
	OpGt CompareOp = ">"
	OpGe CompareOp = ">="
)

// ArithOp is an arithmetic operator
type ArithOp string

const (
	OpAdd ArithOp = "+"
	OpSub ArithOp = "-"
	OpMul ArithOp = "*"
	OpDiv ArithOp = "/"
	OpMod ArithOp = "%"
)

// LogicOp is a boolean connective
type LogicOp string

const (
	OpAnd LogicOp = "AND"
	OpOr  LogicOp = "OR"
)

// SubqueryKind is the shape a subquery result is consumed as
type SubqueryKind int

const (
	// SubqueryScalar requires at most one row with exactly one column
	SubqueryScalar SubqueryKind = iota
	// SubqueryExists checks whether the subquery returns any row
	SubqueryExists
)

// Literal is a constant
type Literal struct {
	Value types.Value
}

// Column references a field of the current record, or of an enclosing query's record
type Column struct {
	Name string
}

type Compare struct {
	Op          CompareOp
	Left, Right Expression
}

type Arith struct {
	Op          ArithOp
	Left, Right Expression
}

type Logic struct {
	Op          LogicOp
	Left, Right Expression
}

type Not struct {
	Arg Expression
}

// IsNull tests for NULL; Negate turns it into IS NOT NULL
type IsNull struct {
	Arg    Expression
	Negate bool
}

// Call invokes a registered scalar function
type Call struct {
	Name string
	Args []Expression
}

// ExprLang is an expression written in the expr-lang language.
// Record fields and enclosing variables are visible by name.
type ExprLang struct {
	Code string
}

// Subquery evaluates Query once per outer record with the outer record in scope
type Subquery struct {
	Query Node
	Kind  SubqueryKind
}

func (*Literal) expression()  {}
func (*Column) expression()   {}
func (*Compare) expression()  {}
func (*Arith) expression()    {}
func (*Logic) expression()    {}
func (*Not) expression()      {}
func (*IsNull) expression()   {}
func (*Call) expression()     {}
func (*ExprLang) expression() {}
func (*Subquery) expression() {}

func (e *Literal) String() string { return e.Value.String() }
func (e *Column) String() string  { return e.Name }
func (e *Compare) String() string {
	return fmt.Sprintf("(%s %s %s)", e.Left, e.Op, e.Right)
}
func (e *Arith) String() string {
	return fmt.Sprintf("(%s %s %s)", e.Left, e.Op, e.Right)
}
func (e *Logic) String() string {
	return fmt.Sprintf("(%s %s %s)", e.Left, e.Op, e.Right)
}
func (e *Not) String() string { return fmt.Sprintf("NOT %s", e.Arg) }
func (e *IsNull) String() string {
	if e.Negate {
		return fmt.Sprintf("%s IS NOT NULL", e.Arg)
	}
	return fmt.Sprintf("%s IS NULL", e.Arg)
}
func (e *Call) String() string {
	args := make([]string, len(e.Args))
	for i, a := range e.Args {
		args[i] = a.String()
	}
	return fmt.Sprintf("%s(%s)", e.Name, strings.Join(args, ", "))
}
func (e *ExprLang) String() string { return fmt.Sprintf("expr(%q)", e.Code) }
func (e *Subquery) String() string {
	if e.Kind == SubqueryExists {
		return fmt.Sprintf("EXISTS(%s)", e.Query.Kind())
	}
	return fmt.Sprintf("SUBQUERY(%s)", e.Query.Kind())
}

// Constructors keep hand-written plans short.

func Lit(v interface{}) *Literal { return &Literal{Value: types.MustValueOf(v)} }

func Col(name string) *Column { return &Column{Name: name} }

func Eq(l, r Expression) *Compare { return &Compare{Op: OpEq, Left: l, Right: r} }

func Gt(l, r Expression) *Compare { return &Compare{Op: OpGt, Left: l, Right: r} }

func And(l, r Expression) *Logic { return &Logic{Op: OpAnd, Left: l, Right: r} }

func Or(l, r Expression) *Logic { return &Logic{Op: OpOr, Left: l, Right: r} }

// ExpressionChildren returns the direct sub-expressions of e.
// A Subquery has none: its plan is a separate scope.
func ExpressionChildren(e Expression) []Expression {
	switch x := e.(type) {
	case *Compare:
		return []Expression{x.Left, x.Right}
	case *Arith:
		return []Expression{x.Left, x.Right}
	case *Logic:
		return []Expression{x.Left, x.Right}
	case *Not:
		return []Expression{x.Arg}
	case *IsNull:
		return []Expression{x.Arg}
	case *Call:
		return x.Args
	default:
		return nil
	}
}

// WalkExpression calls fn for e and its sub-expressions in pre-order.
// Returning false from fn skips the children of that expression.
func WalkExpression(e Expression, fn func(Expression) bool) {
	if e == nil || !fn(e) {
		return
	}
	for _, child := range ExpressionChildren(e) {
		WalkExpression(child, fn)
	}
}
