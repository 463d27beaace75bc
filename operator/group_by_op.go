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

package operator

import (
	"github.com/rulego/streamdiff/aggregator"
	"github.com/rulego/streamdiff/expr"
	"github.com/rulego/streamdiff/trigger"
	"github.com/rulego/streamdiff/types"
)

var (
	_ Operator      = (*GroupByOp)(nil)
	_ Transactional = (*GroupByOp)(nil)
)

// countStar is the aggregate input of an aggregate without argument
var countStar = types.Int(1)

// AggregateField is one aggregate column of a GroupByOp.
// A nil Arg aggregates every record (COUNT(*)).
type AggregateField struct {
	Type        aggregator.AggregateType
	Arg         expr.Expression
	OutputAlias string
}

// GroupByOp maintains one accumulator set per group key and emits the changes of the
// groups whenever its trigger fires. Emitted tuples are the key values followed by the
// aggregate results.
type GroupByOp struct {
	*BaseOp
	Keys       []expr.Expression
	Aggregates []AggregateField
	groups     *aggregator.GroupAggregator
	trigger    trigger.Trigger
	// log holds trigger state to restore on Rollback
	log types.UndoLog
}

// NewGroupByOp creates a GroupByOp. keyNames name the key columns of the output.
func NewGroupByOp(keyNames []string, keys []expr.Expression, aggregates []AggregateField, tr trigger.Trigger) (*GroupByOp, error) {
	if len(keyNames) != len(keys) {
		return nil, types.NewPlanError(types.ErrCodeInvalidPlan, "group by has %d names for %d keys", len(keyNames), len(keys))
	}
	if tr == nil {
		return nil, types.NewPlanError(types.ErrCodeInvalidTrigger, "group by requires a trigger")
	}
	aggTypes := make([]aggregator.AggregateType, len(aggregates))
	fields := append([]string(nil), keyNames...)
	for i, agg := range aggregates {
		if agg.OutputAlias == "" {
			return nil, types.NewPlanError(types.ErrCodeInvalidAggregate, "aggregate %d (%s) has no output name", i, agg.Type)
		}
		if agg.Arg == nil && agg.Type != aggregator.Count {
			return nil, types.NewPlanError(types.ErrCodeInvalidAggregate, "%s(*) is not supported, only count(*)", agg.Type)
		}
		aggTypes[i] = agg.Type
		fields = append(fields, agg.OutputAlias)
	}
	for _, name := range fields {
		if name == types.RetractionField {
			return nil, types.NewPlanError(types.ErrCodeRetractionField, "%s cannot be an output column", types.RetractionField)
		}
	}
	groups, err := aggregator.NewGroupAggregator(aggTypes)
	if err != nil {
		return nil, err
	}
	return &GroupByOp{
		BaseOp:     &BaseOp{name: "GroupBy", schema: types.NewSchema(fields...)},
		Keys:       keys,
		Aggregates: aggregates,
		groups:     groups,
		trigger:    tr,
	}, nil
}

func (o *GroupByOp) Receive(vars *types.VariableContext, _ int, rec types.Record) ([]types.Record, error) {
	ctx := types.NewExecutionContext(rec, vars)
	key, err := expr.EvaluateAll(o.Keys, ctx)
	if err != nil {
		return nil, err
	}
	inputs := make([]types.Value, len(o.Aggregates))
	for i, agg := range o.Aggregates {
		if agg.Arg == nil {
			inputs[i] = countStar
			continue
		}
		if inputs[i], err = agg.Arg.Evaluate(ctx); err != nil {
			return nil, err
		}
	}
	if err := o.groups.Check(key, inputs); err != nil {
		return nil, err
	}

	// everything evaluated, commit
	o.groups.Add(key, inputs, rec.Sign())
	o.snapshotTrigger()
	if o.trigger.Observe(rec) {
		return o.groups.Fire(), nil
	}
	return nil, nil
}

// Flush fires every group changed since the last fire, whatever the trigger says
func (o *GroupByOp) Flush(*types.VariableContext) ([]types.Record, error) {
	out := o.groups.Fire()
	o.snapshotTrigger()
	o.trigger.Reset()
	return out, nil
}

func (o *GroupByOp) snapshotTrigger() {
	if !o.log.Active() {
		return
	}
	if s, ok := o.trigger.(trigger.Snapshotter); ok {
		o.log.Record(s.Snapshot())
	}
}

func (o *GroupByOp) Begin() {
	o.groups.Begin()
	o.log.Begin()
}

func (o *GroupByOp) Commit() {
	o.groups.Commit()
	o.log.Commit()
}

func (o *GroupByOp) Rollback() {
	o.log.Rollback()
	o.groups.Rollback()
}

// Groups exposes the group table for inspection
func (o *GroupByOp) Groups() *aggregator.GroupAggregator {
	return o.groups
}
