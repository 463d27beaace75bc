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
	"errors"

	"github.com/rulego/streamdiff/expr"
	"github.com/rulego/streamdiff/operator"
	"github.com/rulego/streamdiff/plan"
	"github.com/rulego/streamdiff/source"
	"github.com/rulego/streamdiff/trigger"
	"github.com/rulego/streamdiff/types"
)

// Build 校验计划树并创建可执行的 Pipeline。
// 名称解析、聚合、触发器、连接条件和子查询深度都在这里检查，
// 返回的 Pipeline 在运行期只会产生求值错误。
func Build(node plan.Node, catalog *source.Catalog, opts Options) (*Pipeline, error) {
	if catalog == nil {
		return nil, types.NewPlanError(types.ErrCodeInvalidPlan, "catalog is required")
	}
	return build(node, catalog, opts.withDefaults(), nil, 0)
}

// build scopes 是外层查询的记录字段，外层在前
func build(node plan.Node, catalog *source.Catalog, opts Options, scopes []types.Schema, depth int) (*Pipeline, error) {
	b := &builder{
		catalog: catalog,
		opts:    opts,
		scopes:  scopes,
		depth:   depth,
		p: &Pipeline{
			sources: make(map[string][]target),
			arity:   make(map[string]int),
		},
	}
	root, err := b.visit(node)
	if err != nil {
		return nil, err
	}
	b.link(root, output, 0)
	b.p.schema = root.schema
	return b.p, nil
}

// built 已构建的子树
type built struct {
	// stage 子树根算子的下标，source 非空时子树就是一个源
	stage  int
	source string
	schema types.Schema
}

var _ plan.Visitor = (*builder)(nil)

// builder 按后序把计划节点转换为算子
type builder struct {
	catalog *source.Catalog
	opts    Options
	scopes  []types.Schema
	depth   int
	p       *Pipeline
	last    built
}

func (b *builder) visit(node plan.Node) (built, error) {
	if node == nil {
		return built{}, types.NewPlanError(types.ErrCodeInvalidPlan, "missing plan node")
	}
	if err := node.Accept(b); err != nil {
		var pe *types.PlanError
		if errors.As(err, &pe) && pe.Node == "" {
			pe.Node = node.Kind().String()
		}
		return built{}, err
	}
	return b.last, nil
}

// add 追加一个算子并把子树接到它的输入端口上
func (b *builder) add(op operator.Operator, children ...built) {
	index := len(b.p.stages)
	b.p.stages = append(b.p.stages, stage{op: op, parent: output})
	for port, child := range children {
		b.link(child, index, port)
	}
	b.last = built{stage: index, schema: op.Schema()}
}

func (b *builder) link(child built, parent, port int) {
	if child.source != "" {
		b.p.sources[child.source] = append(b.p.sources[child.source], target{stage: parent, port: port})
		return
	}
	b.p.stages[child.stage].parent = parent
	b.p.stages[child.stage].port = port
}

func (b *builder) VisitSource(n *plan.Source) error {
	schema, ok := b.catalog.Schema(n.Name)
	if !ok {
		return types.NewPlanError(types.ErrCodeUnknownSource, "unknown source %q", n.Name)
	}
	if _, seen := b.p.arity[n.Name]; !seen {
		b.p.names = append(b.p.names, n.Name)
		b.p.arity[n.Name] = schema.Len()
	}
	b.last = built{source: n.Name, schema: schema.Qualify(n.SourceAlias())}
	return nil
}

func (b *builder) VisitFilter(n *plan.Filter) error {
	in, err := b.visit(n.Input)
	if err != nil {
		return err
	}
	predicate, err := b.resolve(n.Predicate, in.schema)
	if err != nil {
		return err
	}
	b.add(operator.NewFilterOp(in.schema, predicate), in)
	return nil
}

func (b *builder) VisitMap(n *plan.Map) error {
	in, err := b.visit(n.Input)
	if err != nil {
		return err
	}
	names, exprs, err := b.resolveNamed(n.Exprs, in.schema)
	if err != nil {
		return err
	}
	op, err := operator.NewMapOp(in.schema, names, exprs, n.KeepSourceFields)
	if err != nil {
		return err
	}
	b.add(op, in)
	return nil
}

func (b *builder) VisitGroupBy(n *plan.GroupBy) error {
	in, err := b.visit(n.Input)
	if err != nil {
		return err
	}
	keyNames, keys, err := b.resolveNamed(n.Keys, in.schema)
	if err != nil {
		return err
	}
	aggregates := make([]operator.AggregateField, len(n.Aggregates))
	for i, agg := range n.Aggregates {
		aggregates[i] = operator.AggregateField{Type: agg.Func, OutputAlias: agg.Name}
		if agg.Arg == nil {
			continue
		}
		if aggregates[i].Arg, err = b.resolve(agg.Arg, in.schema); err != nil {
			return err
		}
	}
	tr, err := b.trigger(n.Trigger)
	if err != nil {
		return err
	}
	op, err := operator.NewGroupByOp(keyNames, keys, aggregates, tr)
	if err != nil {
		return err
	}
	b.add(op, in)
	return nil
}

// trigger 每个算子都有自己的触发器实例
func (b *builder) trigger(spec trigger.Spec) (trigger.Trigger, error) {
	if spec.IsZero() {
		spec = trigger.CountingSpec(b.opts.DefaultTriggerCount)
	}
	if spec.Type == trigger.TypeDelay && b.opts.Clock != nil {
		d, err := trigger.NewDelay(spec.Delay, b.opts.Clock)
		if err != nil {
			return nil, err
		}
		return d, nil
	}
	return trigger.New(spec)
}

func (b *builder) VisitJoin(n *plan.Join) error {
	left, err := b.visit(n.Left)
	if err != nil {
		return err
	}
	right, err := b.visit(n.Right)
	if err != nil {
		return err
	}

	leftKeys, rightKeys := n.LeftKeys, n.RightKeys
	switch {
	case len(leftKeys) > 0 || len(rightKeys) > 0:
		if n.Condition != nil {
			return types.NewPlanError(types.ErrCodeInvalidPlan, "join has both key lists and a condition")
		}
	case n.Condition != nil:
		if leftKeys, rightKeys, err = b.splitCondition(n.Condition, left.schema, right.schema); err != nil {
			return err
		}
	default:
		return types.NewPlanError(types.ErrCodeUnsupportedPredicate, "join requires at least one equality")
	}
	if len(leftKeys) != len(rightKeys) {
		return types.NewPlanError(types.ErrCodeUnsupportedPredicate,
			"join has %d left keys and %d right keys", len(leftKeys), len(rightKeys))
	}

	lk := make([]expr.Expression, len(leftKeys))
	rk := make([]expr.Expression, len(rightKeys))
	for i := range leftKeys {
		if lk[i], err = b.resolve(leftKeys[i], left.schema); err != nil {
			return err
		}
		if rk[i], err = b.resolve(rightKeys[i], right.schema); err != nil {
			return err
		}
	}
	op, err := operator.NewJoinOp(left.schema, right.schema, lk, rk)
	if err != nil {
		return err
	}
	b.add(op, left, right)
	return nil
}
