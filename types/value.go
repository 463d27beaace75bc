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
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/spf13/cast"
)

// Kind is the type tag of a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindInt
	KindFloat
	KindString
	KindBool
)

// String returns the SQL-ish name of the kind
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "NULL"
	case KindInt:
		return "INT"
	case KindFloat:
		return "FLOAT"
	case KindString:
		return "STRING"
	case KindBool:
		return "BOOL"
	default:
		return "UNKNOWN"
	}
}

// Value is an immutable tagged scalar.
// The zero Value is NULL.
type Value struct {
	kind Kind
	i    int64
	f    float64
	s    string
}

// Null is the NULL value
var Null = Value{}

// Int creates an integer value
func Int(v int64) Value { return Value{kind: KindInt, i: v} }

// Float creates a floating point value
func Float(v float64) Value { return Value{kind: KindFloat, f: v} }

// String creates a string value
func String(v string) Value { return Value{kind: KindString, s: v} }

// Bool creates a boolean value
func Bool(v bool) Value {
	if v {
		return Value{kind: KindBool, i: 1}
	}
	return Value{kind: KindBool}
}

// ValueOf converts a native Go value into a Value.
// Supported inputs are nil, all integer and float widths, string, bool and Value itself.
func ValueOf(v interface{}) (Value, error) {
	switch x := v.(type) {
	case nil:
		return Null, nil
	case Value:
		return x, nil
	case string:
		return String(x), nil
	case bool:
		return Bool(x), nil
	case float32, float64:
		f, err := cast.ToFloat64E(x)
		if err != nil {
			return Null, err
		}
		return Float(f), nil
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32:
		i, err := cast.ToInt64E(x)
		if err != nil {
			return Null, err
		}
		return Int(i), nil
	case uint64:
		if x > math.MaxInt64 {
			return Null, fmt.Errorf("value %d overflows int64", x)
		}
		return Int(int64(x)), nil
	default:
		return Null, fmt.Errorf("unsupported value type %T", v)
	}
}

// MustValueOf is like ValueOf but panics on unsupported input. Intended for tests and literals.
func MustValueOf(v interface{}) Value {
	val, err := ValueOf(v)
	if err != nil {
		panic(err)
	}
	return val
}

// Values converts a list of native Go values
func Values(vs ...interface{}) ([]Value, error) {
	out := make([]Value, len(vs))
	for i, v := range vs {
		val, err := ValueOf(v)
		if err != nil {
			return nil, fmt.Errorf("value %d: %w", i, err)
		}
		out[i] = val
	}
	return out, nil
}

func (v Value) Kind() Kind { return v.kind }

func (v Value) IsNull() bool { return v.kind == KindNull }

func (v Value) AsInt() int64 { return v.i }

func (v Value) AsFloat() float64 { return v.f }

func (v Value) AsString() string { return v.s }

func (v Value) AsBool() bool { return v.kind == KindBool && v.i != 0 }

// Interface returns the native Go representation of the value
func (v Value) Interface() interface{} {
	switch v.kind {
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindString:
		return v.s
	case KindBool:
		return v.AsBool()
	default:
		return nil
	}
}

// Equal reports exact equality of kind and payload.
// NULL equals NULL here; SQL comparison semantics live in the expression evaluator.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindFloat:
		return math.Float64bits(v.f) == math.Float64bits(o.f)
	case KindString:
		return v.s == o.s
	default:
		return v.i == o.i
	}
}

// Compare orders two non-null values of the same kind.
// Values of different kinds are not coerced; comparing them is a type mismatch.
func (v Value) Compare(o Value) (int, error) {
	if v.kind != o.kind || v.kind == KindNull {
		return 0, NewEvalError(ErrCodeTypeMismatch, "cannot compare %s with %s", v.kind, o.kind)
	}
	switch v.kind {
	case KindInt, KindBool:
		switch {
		case v.i < o.i:
			return -1, nil
		case v.i > o.i:
			return 1, nil
		}
		return 0, nil
	case KindFloat:
		switch {
		case v.f < o.f:
			return -1, nil
		case v.f > o.f:
			return 1, nil
		}
		return 0, nil
	default:
		return strings.Compare(v.s, o.s), nil
	}
}

// AppendKey appends the canonical key encoding of v to buf.
// Encodings of different values never collide.
func (v Value) AppendKey(buf []byte) []byte {
	buf = append(buf, byte(v.kind))
	switch v.kind {
	case KindInt, KindBool:
		buf = binary.BigEndian.AppendUint64(buf, uint64(v.i))
	case KindFloat:
		buf = binary.BigEndian.AppendUint64(buf, math.Float64bits(v.f))
	case KindString:
		buf = binary.AppendUvarint(buf, uint64(len(v.s)))
		buf = append(buf, v.s...)
	}
	return buf
}

func (v Value) String() string {
	switch v.kind {
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindString:
		return strconv.Quote(v.s)
	case KindBool:
		return strconv.FormatBool(v.AsBool())
	default:
		return "NULL"
	}
}

// TupleKey returns the canonical key encoding of a value tuple
func TupleKey(values []Value) string {
	buf := make([]byte, 0, len(values)*10)
	for _, v := range values {
		buf = v.AppendKey(buf)
	}
	return string(buf)
}

// TupleEqual reports element-wise Equal of two tuples
func TupleEqual(a, b []Value) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

// HasNull reports whether any value of the tuple is NULL
func HasNull(values []Value) bool {
	for _, v := range values {
		if v.IsNull() {
			return true
		}
	}
	return false
}
