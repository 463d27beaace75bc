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

package types

// VariableContext holds the bindings visible from enclosing query scopes.
// Each scope is the record of one enclosing query; Previous links to the scope around it.
// A VariableContext is never mutated after construction.
type VariableContext struct {
	Previous *VariableContext
	schema   Schema
	values   []Value
}

// NewVariableContext pushes a new innermost scope on top of previous
func NewVariableContext(previous *VariableContext, schema Schema, values []Value) *VariableContext {
	v := make([]Value, len(values))
	copy(v, values)
	return &VariableContext{Previous: previous, schema: schema, values: v}
}

// WithRecord pushes rec, described by schema, as the new innermost scope
func (vc *VariableContext) WithRecord(schema Schema, rec Record) *VariableContext {
	return &VariableContext{Previous: vc, schema: schema, values: rec.Values()}
}

// Lookup searches the scopes from innermost to outermost.
// A nil context has no bindings.
func (vc *VariableContext) Lookup(name string) (Value, error) {
	for scope := vc; scope != nil; scope = scope.Previous {
		index, found, ambiguous := scope.schema.Lookup(name)
		if ambiguous {
			return Null, NewEvalError(ErrCodeUnknownVariable, "variable %q is ambiguous", name)
		}
		if found {
			return scope.values[index], nil
		}
	}
	return Null, NewEvalError(ErrCodeUnknownVariable, "unknown variable %q", name)
}

// Has reports whether name is bound in any scope
func (vc *VariableContext) Has(name string) bool {
	for scope := vc; scope != nil; scope = scope.Previous {
		if _, found, ambiguous := scope.schema.Lookup(name); found || ambiguous {
			return true
		}
	}
	return false
}

// Depth returns the number of scopes, 0 for a nil context
func (vc *VariableContext) Depth() int {
	depth := 0
	for scope := vc; scope != nil; scope = scope.Previous {
		depth++
	}
	return depth
}

// Each calls fn for every binding, outermost scope first, so inner scopes overwrite
// outer ones when fn stores into a map.
func (vc *VariableContext) Each(fn func(name string, value Value)) {
	if vc == nil {
		return
	}
	vc.Previous.Each(fn)
	for i := 0; i < vc.schema.Len(); i++ {
		fn(vc.schema.Field(i), vc.values[i])
	}
}

// ExecutionContext is the input of one expression evaluation
type ExecutionContext struct {
	Record    Record
	Variables *VariableContext
}

// NewExecutionContext pairs a record with the enclosing variables
func NewExecutionContext(rec Record, vars *VariableContext) ExecutionContext {
	return ExecutionContext{Record: rec, Variables: vars}
}

// EachScope calls fn once per scope, outermost first
func (vc *VariableContext) EachScope(fn func(schema Schema, values []Value)) {
	if vc == nil {
		return
	}
	vc.Previous.EachScope(fn)
	fn(vc.schema, vc.values)
}
