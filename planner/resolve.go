/*
 * Copyright 2024 The RuleGo Authors.
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

package planner

import (
	"strings"

	"github.com/rulego/streamdiff/expr"
	"github.com/rulego/streamdiff/plan"
	"github.com/rulego/streamdiff/types"
)

// join condition sides
const (
	sideLeft  = 1
	sideRight = 2
)

func (b *builder) resolveNamed(named []plan.NamedExpression, schema types.Schema) ([]string, []expr.Expression, error) {
	names := make([]string, len(named))
	exprs := make([]expr.Expression, len(named))
	for i, ne := range named {
		e, err := b.resolve(ne.Expr, schema)
		if err != nil {
			return nil, nil, err
		}
		names[i], exprs[i] = ne.Name, e
	}
	return names, exprs, nil
}

// resolve 把计划表达式转换为运行期表达式。
// 列名先在当前记录中查找，找不到再从内到外查找外层查询的记录。
func (b *builder) resolve(e plan.Expression, schema types.Schema) (expr.Expression, error) {
	switch x := e.(type) {
	case nil:
		return nil, types.NewPlanError(types.ErrCodeInvalidPlan, "missing expression")
	case *plan.Literal:
		return expr.NewLiteral(x.Value), nil
	case *plan.Column:
		return b.resolveColumn(x.Name, schema)
	case *plan.Compare:
		l, r, err := b.resolvePair(x.Left, x.Right, schema)
		if err != nil {
			return nil, err
		}
		return &expr.Compare{Op: x.Op, Left: l, Right: r}, nil
	case *plan.Arith:
		l, r, err := b.resolvePair(x.Left, x.Right, schema)
		if err != nil {
			return nil, err
		}
		return &expr.Arith{Op: x.Op, Left: l, Right: r}, nil
	case *plan.Logic:
		l, r, err := b.resolvePair(x.Left, x.Right, schema)
		if err != nil {
			return nil, err
		}
		return &expr.Logic{Op: x.Op, Left: l, Right: r}, nil
	case *plan.Not:
		arg, err := b.resolve(x.Arg, schema)
		if err != nil {
			return nil, err
		}
		return &expr.Not{Arg: arg}, nil
	case *plan.IsNull:
		arg, err := b.resolve(x.Arg, schema)
		if err != nil {
			return nil, err
		}
		return &expr.IsNull{Arg: arg, Negate: x.Negate}, nil
	case *plan.Call:
		return b.resolveCall(x, schema)
	case *plan.ExprLang:
		if strings.Contains(x.Code, types.RetractionField) {
			return nil, types.NewPlanError(types.ErrCodeRetractionField, "expression %q references %s", x.Code, types.RetractionField)
		}
		return expr.NewExprLang(x.Code, schema)
	case *plan.Subquery:
		return b.resolveSubquery(x, schema)
	default:
		return nil, types.NewPlanError(types.ErrCodeInvalidPlan, "unsupported expression %T", e)
	}
}

func (b *builder) resolvePair(l, r plan.Expression, schema types.Schema) (expr.Expression, expr.Expression, error) {
	left, err := b.resolve(l, schema)
	if err != nil {
		return nil, nil, err
	}
	right, err := b.resolve(r, schema)
	if err != nil {
		return nil, nil, err
	}
	return left, right, nil
}

func (b *builder) resolveColumn(name string, schema types.Schema) (expr.Expression, error) {
	if name == types.RetractionField {
		return nil, types.NewPlanError(types.ErrCodeRetractionField, "%s is not a column", types.RetractionField)
	}
	index, found, ambiguous := schema.Lookup(name)
	if ambiguous {
		return nil, types.NewPlanError(types.ErrCodeAmbiguousColumn, "column %q is ambiguous in %v", name, schema.Fields())
	}
	if found {
		return expr.NewField(index, schema.Field(index)), nil
	}
	for i := len(b.scopes) - 1; i >= 0; i-- {
		_, found, ambiguous := b.scopes[i].Lookup(name)
		if ambiguous {
			return nil, types.NewPlanError(types.ErrCodeAmbiguousColumn, "outer column %q is ambiguous", name)
		}
		if found {
			return expr.NewVariable(name), nil
		}
	}
	return nil, types.NewPlanError(types.ErrCodeUnknownColumn, "unknown column %q", name)
}

func (b *builder) resolveCall(call *plan.Call, schema types.Schema) (expr.Expression, error) {
	fn, ok := b.opts.Functions.Get(call.Name)
	if !ok {
		return nil, types.NewPlanError(types.ErrCodeUnknownFunction, "unknown function %q", call.Name)
	}
	if err := fn.ValidateArgCount(len(call.Args)); err != nil {
		return nil, types.NewPlanError(types.ErrCodeInvalidPlan, "%v", err)
	}
	args := make([]expr.Expression, len(call.Args))
	for i, arg := range call.Args {
		var err error
		if args[i], err = b.resolve(arg, schema); err != nil {
			return nil, err
		}
	}
	return &expr.Call{Function: fn, Args: args}, nil
}

// resolveSubquery 构建一次内层计划用于校验，运行期每条外层记录重新构建
func (b *builder) resolveSubquery(sq *plan.Subquery, schema types.Schema) (expr.Expression, error) {
	depth := b.depth + 1
	if depth > b.opts.MaxSubqueryDepth {
		return nil, types.NewPlanError(types.ErrCodeSubqueryDepth,
			"subqueries nest deeper than %d", b.opts.MaxSubqueryDepth)
	}
	scopes := make([]types.Schema, 0, len(b.scopes)+1)
	scopes = append(append(scopes, b.scopes...), schema)

	inner, err := build(sq.Query, b.catalog, b.opts, scopes, depth)
	if err != nil {
		return nil, err
	}
	if sq.Kind == plan.SubqueryScalar && inner.Schema().Len() != 1 {
		return nil, &types.SubqueryShapeError{Columns: inner.Schema().Len(), MaxRows: 1, MaxColumns: 1}
	}
	return &subquery{
		query:   sq.Query,
		kind:    sq.Kind,
		outer:   schema,
		scopes:  scopes,
		depth:   depth,
		catalog: b.catalog,
		opts:    b.opts,
		text:    sq.String(),
	}, nil
}

// splitCondition 把 AND 连接的等值条件拆成左右两组连接键
func (b *builder) splitCondition(cond plan.Expression, left, right types.Schema) ([]plan.Expression, []plan.Expression, error) {
	var leftKeys, rightKeys []plan.Expression
	for _, conjunct := range conjuncts(cond) {
		cmp, ok := conjunct.(*plan.Compare)
		if !ok || cmp.Op != plan.OpEq {
			return nil, nil, types.NewPlanError(types.ErrCodeUnsupportedPredicate, "only equalities are supported, got %s", conjunct)
		}
		ls, err := side(cmp.Left, left, right)
		if err != nil {
			return nil, nil, err
		}
		rs, err := side(cmp.Right, left, right)
		if err != nil {
			return nil, nil, err
		}
		switch {
		case ls == sideLeft && rs == sideRight:
			leftKeys, rightKeys = append(leftKeys, cmp.Left), append(rightKeys, cmp.Right)
		case ls == sideRight && rs == sideLeft:
			leftKeys, rightKeys = append(leftKeys, cmp.Right), append(rightKeys, cmp.Left)
		default:
			return nil, nil, types.NewPlanError(types.ErrCodeUnsupportedPredicate,
				"%s does not compare a left expression with a right expression", cmp)
		}
	}
	return leftKeys, rightKeys, nil
}

func conjuncts(e plan.Expression) []plan.Expression {
	if l, ok := e.(*plan.Logic); ok && l.Op == plan.OpAnd {
		return append(conjuncts(l.Left), conjuncts(l.Right)...)
	}
	return []plan.Expression{e}
}

// side 返回表达式引用的列属于哪一侧，两侧都引用时两位都置位
func side(e plan.Expression, left, right types.Schema) (int, error) {
	mask := 0
	var err error
	plan.WalkExpression(e, func(x plan.Expression) bool {
		col, ok := x.(*plan.Column)
		if !ok || err != nil {
			return err == nil
		}
		_, inLeft, ambLeft := left.Lookup(col.Name)
		_, inRight, ambRight := right.Lookup(col.Name)
		if ambLeft || ambRight || (inLeft && inRight) {
			err = types.NewPlanError(types.ErrCodeAmbiguousColumn, "join column %q is ambiguous", col.Name)
			return false
		}
		if inLeft {
			mask |= sideLeft
		}
		if inRight {
			mask |= sideRight
		}
		return true
	})
	return mask, err
}
