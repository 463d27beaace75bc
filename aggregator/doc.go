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
Package aggregator provides the retractable accumulators and the group table behind GroupBy.

Every accumulator accepts signed contributions: +1 for an inserted record, -1 for its
retraction. Feeding a value and then its retraction returns the accumulator to where it was,
so counts and integer sums never drift.

# Aggregation Types

	Count  - number of non-NULL values (COUNT(*) passes a non-NULL marker)
	Sum    - signed sum of one numeric kind, NULL when nothing contributes
	Avg    - Sum divided by the number of contributions, always float
	Min    - smallest value of a counted multiset
	Max    - largest value of a counted multiset

# Group Table

GroupAggregator keeps an arena of groups indexed by the canonical encoding of the key tuple.
Updates are two-phase:

	if err := ga.Check(key, inputs); err != nil {
		return err // nothing changed
	}
	ga.Add(key, inputs, rec.Sign())

Fire emits, for each group changed since the previous fire, the retraction of the tuple
emitted last and the current tuple. Groups left with no records only retract and their
slot is reused.
*/
package aggregator
