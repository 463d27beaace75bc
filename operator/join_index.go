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

// IndexEntry is one distinct tuple of a join key with its signed count
type IndexEntry struct {
	Values []types.Value
	Count  int64
}

// bucket holds the tuples of one join key in first-insertion order
type bucket struct {
	key     string
	entries []IndexEntry
	// position of each tuple in entries, by tuple encoding
	positions map[string]int
}

// JoinIndex maps a join key to the multiset of tuples received with that key.
// Buckets are stored in an arena and addressed by slot; empty buckets are released.
type JoinIndex struct {
	slots   map[string]int
	buckets []bucket
	free    []int
	tuples  int
	log     types.UndoLog
}

func NewJoinIndex() *JoinIndex {
	return &JoinIndex{slots: make(map[string]int)}
}

// Add applies sign to the count of values under key. A count reaching zero removes the
// tuple, and the key once no tuple is left.
func (idx *JoinIndex) Add(key string, values []types.Value, sign int64) {
	slot, ok := idx.slots[key]
	if !ok {
		slot = idx.allocate(key)
	}
	b := &idx.buckets[slot]
	tk := types.TupleKey(values)
	pos, ok := b.positions[tk]
	if !ok {
		pos = len(b.entries)
		b.positions[tk] = pos
		b.entries = append(b.entries, IndexEntry{Values: values})
		idx.tuples++
		idx.log.Record(func() {
			b := &idx.buckets[slot]
			delete(b.positions, tk)
			b.entries = b.entries[:pos]
			idx.tuples--
		})
	}
	b.entries[pos].Count += sign
	idx.log.Record(func() { idx.buckets[slot].entries[pos].Count -= sign })
	if b.entries[pos].Count != 0 {
		return
	}

	// remove the tuple, keeping insertion order
	entry := b.entries[pos]
	idx.remove(slot, pos)
	idx.tuples--
	idx.log.Record(func() {
		idx.insert(slot, pos, entry)
		idx.tuples++
	})
	if len(b.entries) == 0 {
		idx.release(slot)
	}
}

func (idx *JoinIndex) remove(slot, pos int) {
	b := &idx.buckets[slot]
	delete(b.positions, types.TupleKey(b.entries[pos].Values))
	b.entries = append(b.entries[:pos], b.entries[pos+1:]...)
	for i := pos; i < len(b.entries); i++ {
		b.positions[types.TupleKey(b.entries[i].Values)] = i
	}
}

func (idx *JoinIndex) insert(slot, pos int, entry IndexEntry) {
	b := &idx.buckets[slot]
	b.entries = append(b.entries, IndexEntry{})
	copy(b.entries[pos+1:], b.entries[pos:])
	b.entries[pos] = entry
	for i := pos; i < len(b.entries); i++ {
		b.positions[types.TupleKey(b.entries[i].Values)] = i
	}
}

func (idx *JoinIndex) allocate(key string) int {
	b := bucket{key: key, positions: make(map[string]int)}
	var slot int
	if n := len(idx.free); n > 0 {
		slot = idx.free[n-1]
		idx.free = idx.free[:n-1]
		idx.buckets[slot] = b
		idx.log.Record(func() {
			idx.buckets[slot] = bucket{}
			idx.free = append(idx.free, slot)
			delete(idx.slots, key)
		})
	} else {
		slot = len(idx.buckets)
		idx.buckets = append(idx.buckets, b)
		idx.log.Record(func() {
			idx.buckets = idx.buckets[:slot]
			delete(idx.slots, key)
		})
	}
	idx.slots[key] = slot
	return slot
}

func (idx *JoinIndex) release(slot int) {
	key := idx.buckets[slot].key
	delete(idx.slots, key)
	idx.buckets[slot] = bucket{}
	idx.free = append(idx.free, slot)
	idx.log.Record(func() {
		idx.free = idx.free[:len(idx.free)-1]
		idx.buckets[slot] = bucket{key: key, positions: make(map[string]int)}
		idx.slots[key] = slot
	})
}

// Begin starts recording changes so that Rollback can undo them
func (idx *JoinIndex) Begin() {
	idx.log.Begin()
}

// Commit keeps every change made since Begin
func (idx *JoinIndex) Commit() {
	idx.log.Commit()
}

// Rollback restores the index as it was at Begin
func (idx *JoinIndex) Rollback() {
	idx.log.Rollback()
}

// Probe returns the tuples stored under key. The result must not be modified.
func (idx *JoinIndex) Probe(key string) []IndexEntry {
	slot, ok := idx.slots[key]
	if !ok {
		return nil
	}
	return idx.buckets[slot].entries
}

// Count returns the signed count of values under key
func (idx *JoinIndex) Count(key string, values []types.Value) int64 {
	slot, ok := idx.slots[key]
	if !ok {
		return 0
	}
	b := &idx.buckets[slot]
	if pos, ok := b.positions[types.TupleKey(values)]; ok {
		return b.entries[pos].Count
	}
	return 0
}

// Keys returns the number of join keys held
func (idx *JoinIndex) Keys() int {
	return len(idx.slots)
}

// Tuples returns the number of distinct tuples held
func (idx *JoinIndex) Tuples() int {
	return idx.tuples
}
