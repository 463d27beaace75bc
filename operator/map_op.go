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

var _ Operator = (*MapOp)(nil)

// MapOp evaluates its output expressions per record. The output keeps the input flag.
type MapOp struct {
	*BaseOp
	Exprs            []expr.Expression
	KeepSourceFields bool
}

// NewMapOp creates a projection. names and exprs are parallel lists.
// No output may be named after the retraction flag.
func NewMapOp(input types.Schema, names []string, exprs []expr.Expression, keepSourceFields bool) (*MapOp, error) {
	if len(names) != len(exprs) {
		return nil, types.NewPlanError(types.ErrCodeInvalidPlan, "map has %d names for %d expressions", len(names), len(exprs))
	}
	for _, name := range names {
		if name == types.RetractionField {
			return nil, types.NewPlanError(types.ErrCodeRetractionField, "%s cannot be an output column", types.RetractionField)
		}
	}
	schema := types.NewSchema(names...)
	if keepSourceFields {
		schema = input.Concat(schema)
	}
	return &MapOp{
		BaseOp:           &BaseOp{name: "Map", schema: schema},
		Exprs:            exprs,
		KeepSourceFields: keepSourceFields,
	}, nil
}

func (o *MapOp) Receive(vars *types.VariableContext, _ int, rec types.Record) ([]types.Record, error) {
	computed, err := expr.EvaluateAll(o.Exprs, types.NewExecutionContext(rec, vars))
	if err != nil {
		return nil, err
	}
	values := computed
	if o.KeepSourceFields {
		values = append(rec.Values(), computed...)
	}
	return []types.Record{types.NewRecordWithFlag(values, rec.IsRetraction())}, nil
}
