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
	"github.com/rulego/streamdiff/types"
)

// Input ports. Single-input operators only use PortLeft.
const (
	PortLeft  = 0
	PortRight = 1
)

// Operator is a physical operator. It owns its state exclusively.
type Operator interface {
	// Receive consumes one upstream event on port and returns the events it causes,
	// in emission order. On error no state of the operator has changed.
	Receive(vars *types.VariableContext, port int, rec types.Record) ([]types.Record, error)
	// Flush emits whatever the operator still holds back at end of stream
	Flush(vars *types.VariableContext) ([]types.Record, error)
	// Schema describes the records the operator emits
	Schema() types.Schema
	// Name identifies the operator kind
	Name() string
}

// Transactional is implemented by operators with state. The pipeline calls Begin before an
// event enters the plan and Commit once every operator handled it. Rollback returns the
// operator to its state at Begin.
type Transactional interface {
	Begin()
	Commit()
	Rollback()
}

type BaseOp struct {
	name   string
	schema types.Schema
}

func (o *BaseOp) Schema() types.Schema {
	return o.schema
}

func (o *BaseOp) Name() string {
	return o.name
}

// Flush of a stateless operator emits nothing
func (o *BaseOp) Flush(*types.VariableContext) ([]types.Record, error) {
	return nil, nil
}
