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
)

// Visitor has one method per node variant.
// Adding a variant means adding a method here and an arm in every visitor.
type Visitor interface {
	VisitSource(*Source) error
	VisitFilter(*Filter) error
	VisitMap(*Map) error
	VisitGroupBy(*GroupBy) error
	VisitJoin(*Join) error
}

// Walk visits node and its descendants in pre-order
func Walk(node Node, fn func(Node) error) error {
	if node == nil {
		return nil
	}
	if err := fn(node); err != nil {
		return err
	}
	for _, child := range node.Children() {
		if err := Walk(child, fn); err != nil {
			return err
		}
	}
	return nil
}

// Sources returns the Source leaves of the plan, left to right
func Sources(node Node) []*Source {
	var out []*Source
	_ = Walk(node, func(n Node) error {
		if s, ok := n.(*Source); ok {
			out = append(out, s)
		}
		return nil
	})
	return out
}

// Explain renders the plan as an indented tree
func Explain(node Node) string {
	e := &explainer{}
	e.explain(node, 0)
	return e.b.String()
}

type explainer struct {
	b     strings.Builder
	depth int
}

func (e *explainer) explain(node Node, depth int) {
	if node == nil {
		return
	}
	e.depth = depth
	_ = node.Accept(e)
	for _, child := range node.Children() {
		e.explain(child, depth+1)
	}
}

func (e *explainer) line(format string, args ...interface{}) {
	e.b.WriteString(strings.Repeat("  ", e.depth))
	e.b.WriteString(fmt.Sprintf(format, args...))
	e.b.WriteByte('\n')
}

func (e *explainer) VisitSource(n *Source) error {
	e.line("Source %s AS %s", n.Name, n.SourceAlias())
	return nil
}

func (e *explainer) VisitFilter(n *Filter) error {
	e.line("Filter %s", n.Predicate)
	return nil
}

func (e *explainer) VisitMap(n *Map) error {
	parts := make([]string, len(n.Exprs))
	for i, ne := range n.Exprs {
		parts[i] = fmt.Sprintf("%s AS %s", ne.Expr, ne.Name)
	}
	if n.KeepSourceFields {
		e.line("Map * + [%s]", strings.Join(parts, ", "))
	} else {
		e.line("Map [%s]", strings.Join(parts, ", "))
	}
	return nil
}

func (e *explainer) VisitGroupBy(n *GroupBy) error {
	keys := make([]string, len(n.Keys))
	for i, k := range n.Keys {
		keys[i] = k.Name
	}
	aggs := make([]string, len(n.Aggregates))
	for i, a := range n.Aggregates {
		arg := "*"
		if a.Arg != nil {
			arg = a.Arg.String()
		}
		aggs[i] = fmt.Sprintf("%s(%s) AS %s", a.Func, arg, a.Name)
	}
	tr := "default"
	if !n.Trigger.IsZero() {
		tr = n.Trigger.String()
	}
	e.line("GroupBy [%s] [%s] trigger=%s", strings.Join(keys, ", "), strings.Join(aggs, ", "), tr)
	return nil
}

func (e *explainer) VisitJoin(n *Join) error {
	if n.Condition != nil {
		e.line("Join ON %s", n.Condition)
		return nil
	}
	pairs := make([]string, len(n.LeftKeys))
	for i := range n.LeftKeys {
		var right string
		if i < len(n.RightKeys) {
			right = n.RightKeys[i].String()
		}
		pairs[i] = fmt.Sprintf("%s = %s", n.LeftKeys[i], right)
	}
	e.line("Join ON [%s]", strings.Join(pairs, ", "))
	return nil
}
