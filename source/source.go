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
	"context"
	"io"
	"sync"

	"github.com/rulego/streamdiff/types"
)

// Source is a sequence of insert/retract events.
// Next returns io.EOF once the stream has ended; the engine polls it and never manages
// the connection behind it.
type Source interface {
	Next(ctx context.Context) (types.Record, error)
	Close() error
}

// Sink receives the emitted diff stream
type Sink interface {
	Emit(rec types.Record) error
}

// Insert builds an insert record from native Go values
func Insert(values ...interface{}) (types.Record, error) {
	vs, err := types.Values(values...)
	if err != nil {
		return types.Record{}, err
	}
	return types.NewRecord(vs...), nil
}

// Retract builds a retraction record from native Go values
func Retract(values ...interface{}) (types.Record, error) {
	vs, err := types.Values(values...)
	if err != nil {
		return types.Record{}, err
	}
	return types.NewRetraction(vs...), nil
}

var _ Source = (*SliceSource)(nil)

// SliceSource replays a fixed list of records
type SliceSource struct {
	records []types.Record
	pos     int
}

func NewSliceSource(records ...types.Record) *SliceSource {
	return &SliceSource{records: records}
}

func (s *SliceSource) Next(ctx context.Context) (types.Record, error) {
	if err := ctx.Err(); err != nil {
		return types.Record{}, err
	}
	if s.pos >= len(s.records) {
		return types.Record{}, io.EOF
	}
	rec := s.records[s.pos]
	s.pos++
	return rec, nil
}

func (s *SliceSource) Close() error { return nil }

var _ Source = (*ChanSource)(nil)

// ChanSource reads records from a channel; closing the channel ends the stream
type ChanSource struct {
	ch <-chan types.Record
}

func NewChanSource(ch <-chan types.Record) *ChanSource {
	return &ChanSource{ch: ch}
}

func (s *ChanSource) Next(ctx context.Context) (types.Record, error) {
	select {
	case <-ctx.Done():
		return types.Record{}, ctx.Err()
	case rec, ok := <-s.ch:
		if !ok {
			return types.Record{}, io.EOF
		}
		return rec, nil
	}
}

func (s *ChanSource) Close() error { return nil }

var _ Sink = (*CollectSink)(nil)

// CollectSink stores everything it receives
type CollectSink struct {
	mu      sync.Mutex
	records []types.Record
}

func NewCollectSink() *CollectSink {
	return &CollectSink{}
}

func (s *CollectSink) Emit(rec types.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, rec)
	return nil
}

// Records returns the received records in order
func (s *CollectSink) Records() []types.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]types.Record(nil), s.records...)
}

// Net returns the received records with inserts and retractions cancelled out
func (s *CollectSink) Net() []types.Record {
	return types.Consolidate(s.Records())
}

func (s *CollectSink) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = nil
}

// FuncSink adapts a function to a Sink
type FuncSink func(rec types.Record) error

func (f FuncSink) Emit(rec types.Record) error {
	return f(rec)
}
