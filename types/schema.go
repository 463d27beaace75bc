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

// Schema is the ordered list of field names of a record stream.
// Names may be qualified ("orders.id").
type Schema struct {
	fields []string
}

// NewSchema creates a schema from field names
func NewSchema(fields ...string) Schema {
	f := make([]string, len(fields))
	copy(f, fields)
	return Schema{fields: f}
}

// Len returns the number of fields
func (s Schema) Len() int { return len(s.fields) }

// Field returns the i-th field name
func (s Schema) Field(i int) string { return s.fields[i] }

// Fields returns a copy of the field names
func (s Schema) Fields() []string {
	out := make([]string, len(s.fields))
	copy(out, s.fields)
	return out
}

// Concat returns a schema with s's fields followed by o's
func (s Schema) Concat(o Schema) Schema {
	f := make([]string, 0, len(s.fields)+len(o.fields))
	f = append(f, s.fields...)
	f = append(f, o.fields...)
	return Schema{fields: f}
}

// Qualify prefixes every unqualified field with alias
func (s Schema) Qualify(alias string) Schema {
	if alias == "" {
		return s
	}
	f := make([]string, len(s.fields))
	for i, name := range s.fields {
		if strings.Contains(name, ".") {
			f[i] = name
		} else {
			f[i] = alias + "." + name
		}
	}
	return Schema{fields: f}
}

// Lookup resolves name to a field position.
// An exact match wins. Otherwise an unqualified name matches the unique field whose
// last segment equals it. found is false when nothing matches; ambiguous is true when
// more than one field matches.
func (s Schema) Lookup(name string) (index int, found bool, ambiguous bool) {
	return lookupName(s.fields, name)
}

func lookupName(fields []string, name string) (int, bool, bool) {
	for i, f := range fields {
		if f == name {
			return i, true, false
		}
	}
	if strings.Contains(name, ".") {
		return -1, false, false
	}
	index := -1
	for i, f := range fields {
		if dot := strings.LastIndexByte(f, '.'); dot >= 0 && f[dot+1:] == name {
			if index >= 0 {
				return -1, false, true
			}
			index = i
		}
	}
	return index, index >= 0, false
}
