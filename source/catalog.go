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

package source

import (
	"fmt"
	"sort"
	"sync"

	"github.com/rulego/streamdiff/types"
)

// Factory opens a new, independent reader of a source.
// Subqueries reopen their sources once per outer record.
type Factory func() (Source, error)

type entry struct {
	schema  types.Schema
	factory Factory
}

// Catalog maps source names to their schema and a factory
type Catalog struct {
	mu      sync.RWMutex
	entries map[string]entry
}

func NewCatalog() *Catalog {
	return &Catalog{entries: make(map[string]entry)}
}

// Register adds a source. Field names are unqualified; plans qualify them with an alias.
func (c *Catalog) Register(name string, schema types.Schema, factory Factory) error {
	if name == "" {
		return fmt.Errorf("source name must not be empty")
	}
	if factory == nil {
		return fmt.Errorf("source %s has no factory", name)
	}
	for _, f := range schema.Fields() {
		if f == types.RetractionField {
			return types.NewPlanError(types.ErrCodeRetractionField, "source %s declares reserved field %s", name, f)
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.entries[name]; exists {
		return fmt.Errorf("source %s already registered", name)
	}
	c.entries[name] = entry{schema: schema, factory: factory}
	return nil
}

// RegisterRecords adds a source replaying records on every open
func (c *Catalog) RegisterRecords(name string, schema types.Schema, records ...types.Record) error {
	return c.Register(name, schema, func() (Source, error) {
		return NewSliceSource(records...), nil
	})
}

// Schema returns the declared schema of a source
func (c *Catalog) Schema(name string) (types.Schema, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[name]
	return e.schema, ok
}

// Open creates a new reader of a source
func (c *Catalog) Open(name string) (Source, error) {
	c.mu.RLock()
	e, ok := c.entries[name]
	c.mu.RUnlock()
	if !ok {
		return nil, types.NewPlanError(types.ErrCodeUnknownSource, "unknown source %q", name)
	}
	src, err := e.factory()
	if err != nil {
		return nil, fmt.Errorf("open source %s: %w", name, err)
	}
	return src, nil
}

// Names returns the registered source names, sorted
func (c *Catalog) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.entries))
	for name := range c.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
