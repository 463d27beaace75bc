package aggregator

import (
	"github.com/rulego/streamdiff/types"
)

// group is one arena slot of a GroupAggregator
type group struct {
	key  []types.Value
	accs []AggregatorFunction
	// count is the net number of records (inserts minus retractions) of the key
	count      int64
	emitted    []types.Value
	hasEmitted bool
	dirty      bool
}

// GroupAggregator keeps one set of accumulators per group key.
// Groups live in an arena indexed by the canonical key encoding; freed slots are reused.
// Output tuples are the key values followed by one result per aggregate.
type GroupAggregator struct {
	prototypes []AggregatorFunction
	index      map[string]int
	groups     []group
	free       []int
	// dirty holds changed slots in the order they were first changed since the last fire
	dirty []int
	log   types.UndoLog
}

// NewGroupAggregator creates a group aggregator computing aggTypes per key
func NewGroupAggregator(aggTypes []AggregateType) (*GroupAggregator, error) {
	prototypes := make([]AggregatorFunction, len(aggTypes))
	for i, t := range aggTypes {
		agg, err := CreateBuiltinAggregator(t)
		if err != nil {
			return nil, err
		}
		prototypes[i] = agg
	}
	return &GroupAggregator{
		prototypes: prototypes,
		index:      make(map[string]int),
	}, nil
}

// Check reports whether Add would accept values for key, without changing any state
func (ga *GroupAggregator) Check(key []types.Value, values []types.Value) error {
	if len(values) != len(ga.prototypes) {
		return types.NewEvalError(types.ErrCodeInvalidAggregate, "expected %d aggregate inputs, got %d", len(ga.prototypes), len(values))
	}
	accs := ga.prototypes
	if slot, ok := ga.index[types.TupleKey(key)]; ok {
		accs = ga.groups[slot].accs
	}
	for i, acc := range accs {
		if err := acc.Check(values[i]); err != nil {
			return err
		}
	}
	return nil
}

// Add applies one record's aggregate inputs with sign +1 (insert) or -1 (retract).
// Callers run Check first; Add itself cannot fail.
func (ga *GroupAggregator) Add(key []types.Value, values []types.Value, sign int64) {
	slot := ga.slot(key)
	g := &ga.groups[slot]
	g.count += sign
	for i, acc := range g.accs {
		acc.Add(values[i], sign)
	}
	if ga.log.Active() {
		ga.log.Record(func() {
			g := &ga.groups[slot]
			g.count -= sign
			for i, acc := range g.accs {
				acc.Add(values[i], -sign)
			}
		})
	}
	if !g.dirty {
		g.dirty = true
		n := len(ga.dirty)
		ga.dirty = append(ga.dirty, slot)
		ga.log.Record(func() {
			ga.groups[slot].dirty = false
			ga.dirty = ga.dirty[:n]
		})
	}
}

func (ga *GroupAggregator) slot(key []types.Value) int {
	k := types.TupleKey(key)
	if slot, ok := ga.index[k]; ok {
		return slot
	}
	accs := make([]AggregatorFunction, len(ga.prototypes))
	for i, p := range ga.prototypes {
		accs[i] = p.New()
	}
	g := group{key: append([]types.Value(nil), key...), accs: accs}

	var slot int
	if n := len(ga.free); n > 0 {
		slot = ga.free[n-1]
		ga.free = ga.free[:n-1]
		ga.groups[slot] = g
		ga.log.Record(func() {
			ga.groups[slot] = group{}
			ga.free = append(ga.free, slot)
			delete(ga.index, k)
		})
	} else {
		slot = len(ga.groups)
		ga.groups = append(ga.groups, g)
		ga.log.Record(func() {
			ga.groups = ga.groups[:slot]
			delete(ga.index, k)
		})
	}
	ga.index[k] = slot
	return slot
}

// Fire emits the diffs of every group changed since the last fire: a retraction of the
// previously emitted tuple and the current tuple. Groups whose tuple did not change emit
// nothing; groups with no records left only retract and are released.
func (ga *GroupAggregator) Fire() []types.Record {
	if len(ga.dirty) == 0 {
		return nil
	}
	if ga.log.Active() {
		ga.recordFire()
	}
	var out []types.Record
	for _, slot := range ga.dirty {
		g := &ga.groups[slot]
		g.dirty = false

		var current []types.Value
		if g.count != 0 {
			current = make([]types.Value, 0, len(g.key)+len(g.accs))
			current = append(current, g.key...)
			for _, acc := range g.accs {
				current = append(current, acc.Result())
			}
		}
		if g.hasEmitted && current != nil && types.TupleEqual(g.emitted, current) {
			continue
		}
		if g.hasEmitted {
			out = append(out, types.NewRetraction(g.emitted...))
			g.emitted, g.hasEmitted = nil, false
		}
		if current != nil {
			out = append(out, types.NewRecord(current...))
			g.emitted, g.hasEmitted = current, true
		}
		if g.count == 0 && ga.empty(g) {
			ga.release(slot)
		}
	}
	ga.dirty = ga.dirty[:0]
	return out
}

// recordFire saves every dirty group as it is before a fire, released ones included
func (ga *GroupAggregator) recordFire() {
	dirty := append([]int(nil), ga.dirty...)
	saved := make([]group, len(dirty))
	for i, slot := range dirty {
		saved[i] = ga.groups[slot]
	}
	free := len(ga.free)
	ga.log.Record(func() {
		ga.free = ga.free[:free]
		for i, slot := range dirty {
			ga.groups[slot] = saved[i]
			ga.index[types.TupleKey(saved[i].key)] = slot
		}
		ga.dirty = append(ga.dirty[:0], dirty...)
	})
}

// Begin starts recording changes so that Rollback can undo them
func (ga *GroupAggregator) Begin() {
	ga.log.Begin()
}

// Commit keeps every change made since Begin
func (ga *GroupAggregator) Commit() {
	ga.log.Commit()
}

// Rollback restores the state as it was at Begin
func (ga *GroupAggregator) Rollback() {
	ga.log.Rollback()
}

func (ga *GroupAggregator) empty(g *group) bool {
	for _, acc := range g.accs {
		if !acc.Empty() {
			return false
		}
	}
	return true
}

func (ga *GroupAggregator) release(slot int) {
	delete(ga.index, types.TupleKey(ga.groups[slot].key))
	ga.groups[slot] = group{}
	ga.free = append(ga.free, slot)
}

// Pending reports whether any group changed since the last fire
func (ga *GroupAggregator) Pending() bool {
	return len(ga.dirty) > 0
}

// Len returns the number of groups held
func (ga *GroupAggregator) Len() int {
	return len(ga.index)
}

// Lookup returns the current results and net record count of a key
func (ga *GroupAggregator) Lookup(key []types.Value) (results []types.Value, count int64, ok bool) {
	slot, ok := ga.index[types.TupleKey(key)]
	if !ok {
		return nil, 0, false
	}
	g := &ga.groups[slot]
	results = make([]types.Value, len(g.accs))
	for i, acc := range g.accs {
		results[i] = acc.Result()
	}
	return results, g.count, true
}

// Reset drops every group
func (ga *GroupAggregator) Reset() {
	ga.index = make(map[string]int)
	ga.groups = nil
	ga.free = nil
	ga.dirty = nil
}
