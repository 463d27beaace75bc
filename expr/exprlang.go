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
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/rulego/streamdiff/types"
)

var _ Expression = (*ExprLang)(nil)

// ExprLang evaluates an expr-lang program.
// The environment holds the enclosing variables and then the current record's fields, so a
// record field shadows a variable of the same name. A qualified field "o.k" is reachable
// as o.k, and as k when no other field of the same scope ends in k.
type ExprLang struct {
	code    string
	schema  types.Schema
	program *vm.Program
}

// NewExprLang compiles code for records described by schema
func NewExprLang(code string, schema types.Schema) (*ExprLang, error) {
	options := []expr.Option{
		expr.Function("like_match", func(params ...any) (any, error) {
			if len(params) != 2 {
				return false, fmt.Errorf("like_match function requires 2 parameters")
			}
			text, ok1 := params[0].(string)
			pattern, ok2 := params[1].(string)
			if !ok1 || !ok2 {
				return false, fmt.Errorf("like_match function requires string parameters")
			}
			return MatchLike(text, pattern), nil
		}),
		expr.AllowUndefinedVariables(),
	}

	program, err := expr.Compile(code, options...)
	if err != nil {
		return nil, types.NewPlanError(types.ErrCodeInvalidPlan, "compile expression %q: %v", code, err)
	}
	return &ExprLang{code: code, schema: schema, program: program}, nil
}

func (e *ExprLang) Evaluate(ctx types.ExecutionContext) (types.Value, error) {
	env := make(map[string]interface{})
	ctx.Variables.EachScope(func(schema types.Schema, values []types.Value) {
		bindScope(env, schema, values)
	})
	bindScope(env, e.schema, ctx.Record.Values())

	result, err := expr.Run(e.program, env)
	if err != nil {
		return types.Null, &types.EvalError{
			Code:    types.ErrCodeFunctionFailed,
			Message: fmt.Sprintf("expression %q failed", e.code),
			Cause:   err,
		}
	}
	v, err := types.ValueOf(result)
	if err != nil {
		return types.Null, &types.EvalError{
			Code:    types.ErrCodeTypeMismatch,
			Message: fmt.Sprintf("expression %q returned %T", e.code, result),
			Cause:   err,
		}
	}
	return v, nil
}

func (e *ExprLang) String() string { return fmt.Sprintf("expr(%q)", e.code) }

func bindScope(env map[string]interface{}, schema types.Schema, values []types.Value) {
	for i := 0; i < schema.Len() && i < len(values); i++ {
		name := schema.Field(i)
		value := values[i].Interface()
		dot := strings.LastIndexByte(name, '.')
		if dot < 0 {
			env[name] = value
			continue
		}
		qualifier, short := name[:dot], name[dot+1:]
		nested, ok := env[qualifier].(map[string]interface{})
		if !ok {
			nested = make(map[string]interface{})
			env[qualifier] = nested
		}
		nested[short] = value
		if idx, found, _ := schema.Lookup(short); found && idx == i {
			env[short] = value
		}
	}
}

// MatchLike implements SQL LIKE: % matches any sequence, _ matches one character
func MatchLike(text, pattern string) bool {
	t, p := []rune(text), []rune(pattern)
	// star* remember the last % for backtracking
	ti, pi, starP, starT := 0, 0, -1, 0
	for ti < len(t) {
		switch {
		case pi < len(p) && p[pi] == '%':
			starP, starT = pi, ti
			pi++
		case pi < len(p) && (p[pi] == '_' || p[pi] == t[ti]):
			ti++
			pi++
		case starP >= 0:
			starT++
			ti, pi = starT, starP+1
		default:
			return false
		}
	}
	for pi < len(p) && p[pi] == '%' {
		pi++
	}
	return pi == len(p)
}
