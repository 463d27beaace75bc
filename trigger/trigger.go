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

package trigger

import (
	"fmt"
	"time"

	"github.com/rulego/streamdiff/types"
)

const (
	TypeCounting    = "counting"
	TypeDelay       = "delay"
	TypeEndOfStream = "end_of_stream"
)

// Trigger decides when an operator with buffered state emits its diffs.
// A Trigger instance belongs to exactly one operator and is never shared.
type Trigger interface {
	// Observe is called once per received event and reports whether to fire now
	Observe(rec types.Record) bool
	// Reset returns the trigger to its initial state
	Reset()
}

// Snapshotter is implemented by triggers that keep state between events
type Snapshotter interface {
	// Snapshot returns a function restoring the state at the time of the call
	Snapshot() func()
}

// Spec describes a trigger in a plan. Each call to New creates fresh state.
type Spec struct {
	Type  string        `json:"type" yaml:"type"`
	Count int           `json:"count,omitempty" yaml:"count,omitempty"`
	Delay time.Duration `json:"delay,omitempty" yaml:"delay,omitempty"`
}

// CountingSpec returns a Counting(n) spec
func CountingSpec(n int) Spec { return Spec{Type: TypeCounting, Count: n} }

// DelaySpec returns a Delay(d) spec
func DelaySpec(d time.Duration) Spec { return Spec{Type: TypeDelay, Delay: d} }

// EndOfStreamSpec returns a spec that only fires on flush
func EndOfStreamSpec() Spec { return Spec{Type: TypeEndOfStream} }

// IsZero reports whether no trigger was specified
func (s Spec) IsZero() bool { return s == Spec{} }

func (s Spec) String() string {
	switch s.Type {
	case TypeCounting:
		return fmt.Sprintf("Counting(%d)", s.Count)
	case TypeDelay:
		return fmt.Sprintf("Delay(%s)", s.Delay)
	case TypeEndOfStream:
		return "EndOfStream"
	default:
		return s.Type
	}
}

// New creates a trigger instance from a spec
func New(spec Spec) (Trigger, error) {
	switch spec.Type {
	case TypeCounting:
		c, err := NewCounting(spec.Count)
		if err != nil {
			return nil, err
		}
		return c, nil
	case TypeDelay:
		d, err := NewDelay(spec.Delay, nil)
		if err != nil {
			return nil, err
		}
		return d, nil
	case TypeEndOfStream:
		return EndOfStream{}, nil
	default:
		return nil, types.NewPlanError(types.ErrCodeInvalidTrigger, "unsupported trigger type: %q", spec.Type)
	}
}

var (
	_ Trigger     = (*Counting)(nil)
	_ Snapshotter = (*Counting)(nil)
)

// Counting fires on exactly every n-th observed event.
// Inserts and retractions count the same.
type Counting struct {
	threshold int
	count     int
}

// NewCounting creates a Counting(n) trigger
func NewCounting(n int) (*Counting, error) {
	if n <= 0 {
		return nil, types.NewPlanError(types.ErrCodeInvalidTrigger, "threshold must be a positive integer, got: %d", n)
	}
	return &Counting{threshold: n}, nil
}

func (c *Counting) Observe(types.Record) bool {
	c.count++
	if c.count >= c.threshold {
		c.count = 0
		return true
	}
	return false
}

func (c *Counting) Reset() { c.count = 0 }

func (c *Counting) Snapshot() func() {
	saved := *c
	return func() { *c = saved }
}

// Pending returns the number of events observed since the last fire
func (c *Counting) Pending() int { return c.count }

// Clock returns the current time
type Clock func() time.Time

var (
	_ Trigger     = (*Delay)(nil)
	_ Snapshotter = (*Delay)(nil)
)

// Delay fires on an event once at least delay has elapsed since the last fire.
// The first event after construction or Reset starts the interval.
type Delay struct {
	delay   time.Duration
	now     Clock
	last    time.Time
	started bool
}

// NewDelay creates a Delay trigger. A nil clock uses time.Now.
func NewDelay(delay time.Duration, clock Clock) (*Delay, error) {
	if delay <= 0 {
		return nil, types.NewPlanError(types.ErrCodeInvalidTrigger, "delay must be positive, got: %s", delay)
	}
	if clock == nil {
		clock = time.Now
	}
	return &Delay{delay: delay, now: clock}, nil
}

func (d *Delay) Observe(types.Record) bool {
	now := d.now()
	if !d.started {
		d.started = true
		d.last = now
		return false
	}
	if now.Sub(d.last) >= d.delay {
		d.last = now
		return true
	}
	return false
}

func (d *Delay) Reset() {
	d.started = false
	d.last = time.Time{}
}

func (d *Delay) Snapshot() func() {
	saved := *d
	return func() { *d = saved }
}

// EndOfStream never fires on events; state is emitted when the operator is flushed
type EndOfStream struct{}

func (EndOfStream) Observe(types.Record) bool { return false }

func (EndOfStream) Reset() {}
