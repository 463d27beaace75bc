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

/*
Package types defines the data model shared by every package of the engine.

# Values and Records

Value is a tagged scalar: NULL, int64, float64, string or bool. Values never convert
implicitly; comparing two different kinds is a TYPE_MISMATCH evaluation error.

	v, err := types.ValueOf(42)        // Int(42)
	r := types.NewRecord(types.Int(1), types.String("x"))
	back := r.Retract()                // same tuple, opposite flag

A Record is an immutable tuple plus a retraction flag. Two records are equal in the
multiset sense when tuple and flag are equal. The flag is metadata: it is never a column,
and the reserved name RetractionField cannot be projected.

# Schemas and Scopes

Schema names the fields of a record, usually qualified by a source alias ("p.age").
Lookup accepts the qualified name or, when unambiguous, the bare field name.

VariableContext chains the records of enclosing queries. Lookup searches from the
innermost scope outwards, so a nested query sees its own fields first.

# Errors

	PlanError           - building a plan failed (errors.Is ErrPlanConstruction)
	EvalError           - evaluating one record failed (errors.Is ErrEvaluation)
	SubqueryShapeError  - a subquery returned more than its consumer accepts

IsCode checks the ErrorCode of a PlanError or EvalError anywhere in a chain.

# Configuration

Config holds the engine settings with their defaults from NewConfig.
*/
package types
