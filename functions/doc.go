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
Package functions provides the registry of scalar functions callable from plan expressions.

Functions operate on tagged values and never coerce between kinds. Arity is checked once
when a plan is built; kind errors are evaluation errors of the record being processed.

# Built-in Functions

	// Mathematical functions
	ABS(x)            - Absolute value
	ROUND(x[, d])     - Round to d decimal places
	FLOOR(x)          - Round down
	CEILING(x)        - Round up

	// String functions
	UPPER(str)        - Convert to uppercase
	LOWER(str)        - Convert to lowercase
	LENGTH(str)       - Number of characters
	CONCAT(s1, ...)   - Concatenate strings

	// Conditional functions
	COALESCE(v1, ...) - First non-NULL value
	NULLIF(a, b)      - NULL when a equals b

# Custom Functions

	err := functions.RegisterCustomFunction("double", "custom", "doubles an integer", 1, 1,
		func(args []types.Value) (types.Value, error) {
			return types.Int(args[0].AsInt() * 2), nil
		})

Names are case-insensitive. Most functions return NULL when any argument is NULL;
COALESCE and NULLIF are the exceptions.
*/
package functions
