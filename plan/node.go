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
	"github.com/rulego/streamdiff/aggregator"
	"github.com/rulego/streamdiff/trigger"
)

// NodeKind tags the operator variant of a plan node
type NodeKind int

const (
	KindSource NodeKind = iota
	KindFilter
	KindMap
	KindGroupBy
	KindJoin
)

func (k NodeKind) String() string {
	switch k {
	case KindSource:
		return "Source"
	case KindFilter:
		return "Filter"
	case KindMap:
		return "Map"
	case KindGroupBy:
		return "GroupBy"
	case KindJoin:
		return "Join"
	default:
		return "Unknown"
	}
}

// Node is a physical plan node. The set of variants is closed: Source, Filter, Map,
// GroupBy and Join. Nodes are read-only once handed to the planner.
type Node interface {
	Kind() NodeKind
	Children() []Node
	Accept(v Visitor) error
	node()
}

// Source reads records from a named source of the catalog.
// Alias qualifies the source's fields ("alias.field"); empty means the source name.
type Source struct {
	Name  string
	Alias string
}

// Filter keeps the records the predicate holds for
type Filter struct {
	Input     Node
	Predicate Expression
}

// NamedExpression is one output column
type NamedExpression struct {
	Name string
	Expr Expression
}

// Map evaluates a list of named expressions per record.
// With KeepSourceFields the input fields are kept in front of the computed ones.
type Map struct {
	Input            Node
	Exprs            []NamedExpression
	KeepSourceFields bool
}

// Aggregate is one aggregate output column of a GroupBy
type Aggregate struct {
	Func aggregator.AggregateType
	// Arg is the aggregated expression; nil means "*" (count only)
	Arg  Expression
	Name string
}

// GroupBy groups records by Keys and maintains Aggregates per group.
// A zero Trigger uses the configured default Counting(n).
type GroupBy struct {
	Input      Node
	Keys       []NamedExpression
	Aggregates []Aggregate
	Trigger    trigger.Spec
}

// Join is an equality stream join. Either give LeftKeys/RightKeys pairwise, or a
// Condition made only of AND-ed equalities between a left and a right expression.
type Join struct {
	Left      Node
	Right     Node
	LeftKeys  []Expression
	RightKeys []Expression
	Condition Expression
}

func (*Source) Kind() NodeKind  { return KindSource }
func (*Filter) Kind() NodeKind  { return KindFilter }
func (*Map) Kind() NodeKind     { return KindMap }
func (*GroupBy) Kind() NodeKind { return KindGroupBy }
func (*Join) Kind() NodeKind    { return KindJoin }

func (*Source) Children() []Node    { return nil }
func (n *Filter) Children() []Node  { return []Node{n.Input} }
func (n *Map) Children() []Node     { return []Node{n.Input} }
func (n *GroupBy) Children() []Node { return []Node{n.Input} }
func (n *Join) Children() []Node    { return []Node{n.Left, n.Right} }

func (n *Source) Accept(v Visitor) error  { return v.VisitSource(n) }
func (n *Filter) Accept(v Visitor) error  { return v.VisitFilter(n) }
func (n *Map) Accept(v Visitor) error     { return v.VisitMap(n) }
func (n *GroupBy) Accept(v Visitor) error { return v.VisitGroupBy(n) }
func (n *Join) Accept(v Visitor) error    { return v.VisitJoin(n) }

func (*Source) node()  {}
func (*Filter) node()  {}
func (*Map) node()     {}
func (*GroupBy) node() {}
func (*Join) node()    {}

// SourceAlias returns the qualifier of the source's fields
func (n *Source) SourceAlias() string {
	if n.Alias != "" {
		return n.Alias
	}
	return n.Name
}
