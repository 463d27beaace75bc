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
	"github.com/rulego/streamdiff/expr"
	"github.com/rulego/streamdiff/types"
)

var _ Operator = (*FilterOp)(nil)

// FilterOp re-emits the records its predicate holds for, flag untouched.
// The flag plays no part in evaluation, so a row and its retraction are filtered alike.
// A NULL predicate drops the record.
type FilterOp struct {
	*BaseOp
	Predicate expr.Expression
}

func NewFilterOp(schema types.Schema, predicate expr.Expression) *FilterOp {
	return &FilterOp{
		BaseOp:    &BaseOp{name: "Filter", schema: schema},
		Predicate: predicate,
	}
}

func (o *FilterOp) Receive(vars *types.VariableContext, _ int, rec types.Record) ([]types.Record, error) {
	ok, valid, err := expr.EvaluateBool(o.Predicate, types.NewExecutionContext(rec, vars))
	if err != nil {
		return nil, err
	}
	if !valid || !ok {
		return nil, nil
	}
	return []types.Record{rec}, nil
}
