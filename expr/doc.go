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
Package expr is the runtime expression evaluator shared by all operators.

Expressions are compiled from plan expressions by the planner. Column names are resolved at
that point: a name found in the input schema becomes a Field read by position, anything else
becomes a Variable looked up in the enclosing scopes at evaluation time. The current record
therefore always shadows outer bindings.

# Expression Kinds

	Literal   - constant value
	Field     - current record field by position
	Variable  - binding of an enclosing query scope
	Compare   - = != < <= > >=, NULL if an operand is NULL
	Arith     - + - * / % on two ints or two floats
	Logic     - AND / OR with three-valued logic
	Not       - boolean negation
	IsNull    - IS NULL / IS NOT NULL
	Call      - scalar function from the functions registry
	ExprLang  - program written in expr-lang (github.com/expr-lang/expr)

Values are never coerced: comparing an int with a float or a string fails with a
TYPE_MISMATCH evaluation error. Evaluation is pure, so a failed evaluation leaves
no trace in operator state.
*/
package expr
