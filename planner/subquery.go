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
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/rulego/streamdiff/expr"
	"github.com/rulego/streamdiff/plan"
	"github.com/rulego/streamdiff/source"
	"github.com/rulego/streamdiff/types"
)

var _ expr.Expression = (*subquery)(nil)

// subquery 每条外层记录都用新的内层 Pipeline 从头读取所有源，
// 外层记录作为最内层变量作用域。
type subquery struct {
	query   plan.Node
	kind    plan.SubqueryKind
	outer   types.Schema
	scopes  []types.Schema
	depth   int
	catalog *source.Catalog
	opts    Options
	text    string
}

func (s *subquery) Evaluate(ctx types.ExecutionContext) (types.Value, error) {
	vars := ctx.Variables.WithRecord(s.outer, ctx.Record)
	if vars.Depth() > s.opts.MaxSubqueryDepth {
		return types.Null, types.NewEvalError(types.ErrCodeSubqueryDepth,
			"variable scopes nest deeper than %d", s.opts.MaxSubqueryDepth)
	}
	p, err := build(s.query, s.catalog, s.opts, s.scopes, s.depth)
	if err != nil {
		return types.Null, err
	}
	out, err := p.Drain(context.Background(), s.catalog, vars)
	if err != nil {
		return types.Null, err
	}

	var rows []types.Record
	for _, rec := range types.Consolidate(out) {
		if !rec.IsRetraction() {
			rows = append(rows, rec)
		}
	}
	if s.kind == plan.SubqueryExists {
		return types.Bool(len(rows) > 0), nil
	}
	switch len(rows) {
	case 0:
		return types.Null, nil
	case 1:
		return rows[0].Value(0), nil
	default:
		return types.Null, &types.SubqueryShapeError{Rows: len(rows), Columns: rows[0].Len(), MaxRows: 1, MaxColumns: 1}
	}
}

func (s *subquery) String() string { return s.text }

// Drain 依次读完计划的每个源并在最后刷新，返回全部输出。
// 源从 catalog 重新打开，读到 io.EOF 为止。
func (p *Pipeline) Drain(ctx context.Context, catalog *source.Catalog, vars *types.VariableContext) ([]types.Record, error) {
	var out []types.Record
	for _, name := range p.names {
		emitted, err := p.drainSource(ctx, catalog, vars, name)
		if err != nil {
			return nil, err
		}
		out = append(out, emitted...)
	}
	flushed, err := p.Flush(vars)
	if err != nil {
		return nil, err
	}
	return append(out, flushed...), nil
}

func (p *Pipeline) drainSource(ctx context.Context, catalog *source.Catalog, vars *types.VariableContext, name string) ([]types.Record, error) {
	src, err := catalog.Open(name)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	var out []types.Record
	for {
		rec, err := src.Next(ctx)
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read source %s: %w", name, err)
		}
		emitted, err := p.Push(vars, name, rec)
		if err != nil {
			return nil, err
		}
		out = append(out, emitted...)
	}
}
