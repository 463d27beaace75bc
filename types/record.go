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

import (
	"strings"
)

// RetractionField is the reserved name of the retraction flag.
// It is metadata carried next to the tuple and can never be used as a column.
const RetractionField = "sys.retraction"

// Record is an immutable tuple of values plus a retraction flag.
type Record struct {
	values     []Value
	retraction bool
}

// NewRecord creates an insert record. The slice is owned by the record afterwards.
func NewRecord(values ...Value) Record {
	return Record{values: values}
}

// NewRetraction creates a retraction record
func NewRetraction(values ...Value) Record {
	return Record{values: values, retraction: true}
}

// NewRecordWithFlag creates a record with an explicit retraction flag
func NewRecordWithFlag(values []Value, retraction bool) Record {
	return Record{values: values, retraction: retraction}
}

// Len returns the number of values
func (r Record) Len() int { return len(r.values) }

// Value returns the i-th value
func (r Record) Value(i int) Value { return r.values[i] }

// Values returns a copy of the value tuple
func (r Record) Values() []Value {
	out := make([]Value, len(r.values))
	copy(out, r.values)
	return out
}

// IsRetraction reports whether the record retracts a previously emitted row
func (r Record) IsRetraction() bool { return r.retraction }

// Sign is +1 for inserts and -1 for retractions
func (r Record) Sign() int64 {
	if r.retraction {
		return -1
	}
	return 1
}

// Retract returns the counterpart of r with the opposite flag
func (r Record) Retract() Record {
	return Record{values: r.values, retraction: !r.retraction}
}

// Key returns the canonical encoding of the value tuple, ignoring the flag
func (r Record) Key() string { return TupleKey(r.values) }

// Equal is multiset equality: same tuple and same flag
func (r Record) Equal(o Record) bool {
	return r.retraction == o.retraction && TupleEqual(r.values, o.values)
}

// Concat returns a new record holding r's values followed by o's, flagged with retraction
func (r Record) Concat(o Record, retraction bool) Record {
	values := make([]Value, 0, len(r.values)+len(o.values))
	values = append(values, r.values...)
	values = append(values, o.values...)
	return Record{values: values, retraction: retraction}
}

// String renders the record as "+(1, "x")" or "-(1, "x")"
func (r Record) String() string {
	var b strings.Builder
	if r.retraction {
		b.WriteByte('-')
	} else {
		b.WriteByte('+')
	}
	b.WriteByte('(')
	for i, v := range r.values {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(v.String())
	}
	b.WriteByte(')')
	return b.String()
}

// Consolidate cancels inserts against retractions of the same tuple. What is left is
// returned in order of first appearance: a tuple with net count n > 0 appears n times as an
// insert, one with n < 0 appears -n times as a retraction.
func Consolidate(records []Record) []Record {
	type tally struct {
		values []Value
		count  int64
	}
	index := make(map[string]int)
	var tallies []tally
	for _, r := range records {
		k := r.Key()
		i, ok := index[k]
		if !ok {
			i = len(tallies)
			index[k] = i
			tallies = append(tallies, tally{values: r.values})
		}
		tallies[i].count += r.Sign()
	}
	var out []Record
	for _, t := range tallies {
		n, retraction := t.count, false
		if n < 0 {
			n, retraction = -n, true
		}
		for j := int64(0); j < n; j++ {
			out = append(out, Record{values: t.values, retraction: retraction})
		}
	}
	return out
}
