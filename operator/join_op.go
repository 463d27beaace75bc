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

var (
	_ Operator      = (*JoinOp)(nil)
	_ Transactional = (*JoinOp)(nil)
)

// JoinOp is a symmetric hash join on key equality.
// A record arriving on one side updates that side's index and is combined with every
// tuple of the other side's index under the same key, once per unit of count.
// Output tuples are always left values followed by right values.
// A key containing NULL never matches and is not indexed.
type JoinOp struct {
	*BaseOp
	LeftKeys  []expr.Expression
	RightKeys []expr.Expression
	left      *JoinIndex
	right     *JoinIndex
}

func NewJoinOp(leftSchema, rightSchema types.Schema, leftKeys, rightKeys []expr.Expression) (*JoinOp, error) {
	if len(leftKeys) == 0 || len(leftKeys) != len(rightKeys) {
		return nil, types.NewPlanError(types.ErrCodeUnsupportedPredicate,
			"join needs the same positive number of left and right keys, got %d and %d", len(leftKeys), len(rightKeys))
	}
	return &JoinOp{
		BaseOp:    &BaseOp{name: "Join", schema: leftSchema.Concat(rightSchema)},
		LeftKeys:  leftKeys,
		RightKeys: rightKeys,
		left:      NewJoinIndex(),
		right:     NewJoinIndex(),
	}, nil
}

func (o *JoinOp) Receive(vars *types.VariableContext, port int, rec types.Record) ([]types.Record, error) {
	var keys []expr.Expression
	var own, other *JoinIndex
	switch port {
	case PortLeft:
		keys, own, other = o.LeftKeys, o.left, o.right
	case PortRight:
		keys, own, other = o.RightKeys, o.right, o.left
	default:
		return nil, types.NewPlanError(types.ErrCodeInvalidPlan, "join has no input port %d", port)
	}

	key, err := expr.EvaluateAll(keys, types.NewExecutionContext(rec, vars))
	if err != nil {
		return nil, err
	}
	if types.HasNull(key) {
		return nil, nil
	}
	k := types.TupleKey(key)
	own.Add(k, rec.Values(), rec.Sign())

	var out []types.Record
	for _, entry := range other.Probe(k) {
		n := entry.Count
		// a negative count means more retractions than inserts were seen for the tuple
		retraction := rec.IsRetraction()
		if n < 0 {
			n = -n
			retraction = !retraction
		}
		match := types.NewRecord(entry.Values...)
		for i := int64(0); i < n; i++ {
			if port == PortLeft {
				out = append(out, rec.Concat(match, retraction))
			} else {
				out = append(out, match.Concat(rec, retraction))
			}
		}
	}
	return out, nil
}

func (o *JoinOp) Begin() {
	o.left.Begin()
	o.right.Begin()
}

func (o *JoinOp) Commit() {
	o.left.Commit()
	o.right.Commit()
}

func (o *JoinOp) Rollback() {
	o.left.Rollback()
	o.right.Rollback()
}

// Left returns the index of the left input
func (o *JoinOp) Left() *JoinIndex {
	return o.left
}

// Right returns the index of the right input
func (o *JoinOp) Right() *JoinIndex {
	return o.right
}
