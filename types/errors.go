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
	"errors"
	"fmt"
)

// Error categories, usable with errors.Is
var (
	ErrPlanConstruction = errors.New("plan construction error")
	ErrEvaluation       = errors.New("evaluation error")
	ErrSubqueryShape    = errors.New("unsupported subquery shape")
)

// ErrorCode identifies the concrete failure inside a category
type ErrorCode int

const (
	// plan construction
	ErrCodeUnsupportedPredicate ErrorCode = iota + 1
	ErrCodeInvalidAggregate
	ErrCodeUnknownColumn
	ErrCodeAmbiguousColumn
	ErrCodeUnknownFunction
	ErrCodeUnknownSource
	ErrCodeRetractionField
	ErrCodeInvalidTrigger
	ErrCodeInvalidPlan
	ErrCodeSubqueryDepth

	// evaluation
	ErrCodeUnknownVariable
	ErrCodeTypeMismatch
	ErrCodeUnsupportedOperator
	ErrCodeDivisionByZero
	ErrCodeFunctionFailed
)

// String returns the upper-case name of the code
func (c ErrorCode) String() string {
	switch c {
	case ErrCodeUnsupportedPredicate:
		return "UNSUPPORTED_PREDICATE"
	case ErrCodeInvalidAggregate:
		return "INVALID_AGGREGATE"
	case ErrCodeUnknownColumn:
		return "UNKNOWN_COLUMN"
	case ErrCodeAmbiguousColumn:
		return "AMBIGUOUS_COLUMN"
	case ErrCodeUnknownFunction:
		return "UNKNOWN_FUNCTION"
	case ErrCodeUnknownSource:
		return "UNKNOWN_SOURCE"
	case ErrCodeRetractionField:
		return "RETRACTION_FIELD"
	case ErrCodeInvalidTrigger:
		return "INVALID_TRIGGER"
	case ErrCodeInvalidPlan:
		return "INVALID_PLAN"
	case ErrCodeSubqueryDepth:
		return "SUBQUERY_DEPTH"
	case ErrCodeUnknownVariable:
		return "UNKNOWN_VARIABLE"
	case ErrCodeTypeMismatch:
		return "TYPE_MISMATCH"
	case ErrCodeUnsupportedOperator:
		return "UNSUPPORTED_OPERATOR"
	case ErrCodeDivisionByZero:
		return "DIVISION_BY_ZERO"
	case ErrCodeFunctionFailed:
		return "FUNCTION_FAILED"
	default:
		return "UNKNOWN_ERROR"
	}
}

// PlanError is returned while building operators from a plan.
// It aborts building the operator it was raised for.
type PlanError struct {
	Code    ErrorCode
	Node    string // plan node kind the error was raised for, may be empty
	Message string
}

// NewPlanError creates a PlanError
func NewPlanError(code ErrorCode, format string, args ...interface{}) *PlanError {
	return &PlanError{Code: code, Message: fmt.Sprintf(format, args...)}
}

func (e *PlanError) Error() string {
	if e.Node != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Node, e.Message)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *PlanError) Unwrap() error { return ErrPlanConstruction }

// EvalError is returned when evaluating an expression against one record fails.
// The record's processing fails; operator state is left untouched.
type EvalError struct {
	Code    ErrorCode
	Message string
	Cause   error
}

// NewEvalError creates an EvalError
func NewEvalError(code ErrorCode, format string, args ...interface{}) *EvalError {
	return &EvalError{Code: code, Message: fmt.Sprintf(format, args...)}
}

func (e *EvalError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *EvalError) Unwrap() []error {
	if e.Cause != nil {
		return []error{ErrEvaluation, e.Cause}
	}
	return []error{ErrEvaluation}
}

// SubqueryShapeError reports a subquery result larger than its consumer allows
type SubqueryShapeError struct {
	Rows       int
	Columns    int
	MaxRows    int
	MaxColumns int
}

func (e *SubqueryShapeError) Error() string {
	return fmt.Sprintf("subquery produced %d row(s) x %d column(s), at most %d x %d allowed",
		e.Rows, e.Columns, e.MaxRows, e.MaxColumns)
}

func (e *SubqueryShapeError) Unwrap() error { return ErrSubqueryShape }

// IsCode reports whether err carries the given error code
func IsCode(err error, code ErrorCode) bool {
	var pe *PlanError
	if errors.As(err, &pe) && pe.Code == code {
		return true
	}
	var ee *EvalError
	if errors.As(err, &ee) && ee.Code == code {
		return true
	}
	return false
}
