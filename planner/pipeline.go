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
	"github.com/rulego/streamdiff/operator"
	"github.com/rulego/streamdiff/types"
)

// output is the parent index of the root stage
const output = -1

// stage 一个物理算子及其下游
type stage struct {
	op     operator.Operator
	parent int
	port   int
}

// target 源记录的投递位置
type target struct {
	stage int
	port  int
}

// Pipeline 可执行的算子树
// stages 按后序排列，子算子总在父算子之前
type Pipeline struct {
	stages  []stage
	sources map[string][]target
	arity   map[string]int
	names   []string
	schema  types.Schema
}

// Schema 输出记录的字段
func (p *Pipeline) Schema() types.Schema {
	return p.schema
}

// Sources 计划读取的源名称，按在计划中首次出现的顺序
func (p *Pipeline) Sources() []string {
	return append([]string(nil), p.names...)
}

// Operators 所有算子，子算子在前
func (p *Pipeline) Operators() []operator.Operator {
	ops := make([]operator.Operator, len(p.stages))
	for i, s := range p.stages {
		ops[i] = s.op
	}
	return ops
}

// Push 把一条源记录推入计划，返回根节点因此产生的输出，按因果顺序排列。
// 一条事件是原子的：任何算子出错时，所有算子都回到推入之前的状态，不产生输出。
func (p *Pipeline) Push(vars *types.VariableContext, source string, rec types.Record) ([]types.Record, error) {
	targets, ok := p.sources[source]
	if !ok {
		return nil, types.NewPlanError(types.ErrCodeUnknownSource, "plan does not read source %q", source)
	}
	if n := p.arity[source]; rec.Len() != n {
		return nil, types.NewEvalError(types.ErrCodeTypeMismatch, "source %s has %d fields, record has %d", source, n, rec.Len())
	}
	p.begin()
	var out []types.Record
	for _, t := range targets {
		var err error
		if out, err = p.deliver(vars, t.stage, t.port, rec, out); err != nil {
			p.rollback()
			return nil, err
		}
	}
	p.commit()
	return out, nil
}

// Flush 流结束时按子先父后的顺序刷新所有算子，出错时同样回滚
func (p *Pipeline) Flush(vars *types.VariableContext) ([]types.Record, error) {
	p.begin()
	var out []types.Record
	for _, s := range p.stages {
		flushed, err := s.op.Flush(vars)
		if err != nil {
			p.rollback()
			return nil, err
		}
		for _, rec := range flushed {
			if out, err = p.deliver(vars, s.parent, s.port, rec, out); err != nil {
				p.rollback()
				return nil, err
			}
		}
	}
	p.commit()
	return out, nil
}

func (p *Pipeline) begin() {
	for _, s := range p.stages {
		if tx, ok := s.op.(operator.Transactional); ok {
			tx.Begin()
		}
	}
}

func (p *Pipeline) commit() {
	for _, s := range p.stages {
		if tx, ok := s.op.(operator.Transactional); ok {
			tx.Commit()
		}
	}
}

func (p *Pipeline) rollback() {
	for i := len(p.stages) - 1; i >= 0; i-- {
		if tx, ok := p.stages[i].op.(operator.Transactional); ok {
			tx.Rollback()
		}
	}
}

// deliver 深度优先传播一条记录直到根节点
func (p *Pipeline) deliver(vars *types.VariableContext, index, port int, rec types.Record, out []types.Record) ([]types.Record, error) {
	if index == output {
		return append(out, rec), nil
	}
	s := p.stages[index]
	emitted, err := s.op.Receive(vars, port, rec)
	if err != nil {
		return out, err
	}
	for _, e := range emitted {
		if out, err = p.deliver(vars, s.parent, s.port, e, out); err != nil {
			return out, err
		}
	}
	return out, nil
}
