package operator

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rulego/streamdiff/aggregator"
	"github.com/rulego/streamdiff/expr"
	"github.com/rulego/streamdiff/plan"
	"github.com/rulego/streamdiff/trigger"
	"github.com/rulego/streamdiff/types"
)

func row(vs ...interface{}) types.Record {
	values, err := types.Values(vs...)
	if err != nil {
		panic(err)
	}
	return types.NewRecord(values...)
}

func lit(v interface{}) expr.Expression { return expr.NewLiteral(types.MustValueOf(v)) }

func TestFilterOp(t *testing.T) {
	schema := types.NewSchema("p.name", "p.age")
	op := NewFilterOp(schema, &expr.Compare{Op: plan.OpGt, Left: expr.NewField(1, "age"), Right: lit(30)})

	out, err := op.Receive(nil, PortLeft, row("bob", 25))
	require.NoError(t, err)
	assert.Empty(t, out)

	in := row("amy", 40)
	out, err = op.Receive(nil, PortLeft, in)
	require.NoError(t, err)
	assert.Equal(t, []types.Record{in}, out)

	out, err = op.Receive(nil, PortLeft, in.Retract())
	require.NoError(t, err)
	assert.Equal(t, []types.Record{in.Retract()}, out, "retraction is filtered like its insert")

	out, err = op.Receive(nil, PortLeft, row("nul", nil))
	require.NoError(t, err)
	assert.Empty(t, out, "NULL predicate drops the record")

	_, err = op.Receive(nil, PortLeft, row("str", "forty"))
	assert.True(t, types.IsCode(err, types.ErrCodeTypeMismatch))

	flushed, err := op.Flush(nil)
	assert.NoError(t, err)
	assert.Empty(t, flushed)
	assert.Equal(t, schema, op.Schema())
}

func TestMapOp(t *testing.T) {
	input := types.NewSchema("p.name", "p.age")
	op, err := NewMapOp(input, []string{"age2"},
		[]expr.Expression{&expr.Arith{Op: plan.OpMul, Left: expr.NewField(1, "age"), Right: lit(2)}}, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"age2"}, op.Schema().Fields())

	out, err := op.Receive(nil, PortLeft, row("amy", 21).Retract())
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.True(t, out[0].IsRetraction(), "flag preserved")
	assert.Equal(t, types.Int(42), out[0].Value(0))

	_, err = op.Receive(nil, PortLeft, row("amy", "x"))
	assert.Error(t, err)
}

func TestMapOpKeepSourceFields(t *testing.T) {
	input := types.NewSchema("p.name", "p.age")
	op, err := NewMapOp(input, []string{"one"}, []expr.Expression{lit(1)}, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"p.name", "p.age", "one"}, op.Schema().Fields())

	out, err := op.Receive(nil, PortLeft, row("amy", 21))
	require.NoError(t, err)
	assert.Equal(t, []types.Record{row("amy", 21, 1)}, out)
}

func TestMapOpRejectsRetractionField(t *testing.T) {
	_, err := NewMapOp(types.NewSchema("a"), []string{types.RetractionField}, []expr.Expression{lit(true)}, false)
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrPlanConstruction)
	assert.True(t, types.IsCode(err, types.ErrCodeRetractionField))
}

func newCountStar(t *testing.T, n int) *GroupByOp {
	tr, err := trigger.NewCounting(n)
	require.NoError(t, err)
	op, err := NewGroupByOp(nil, nil, []AggregateField{{Type: aggregator.Count, OutputAlias: "count"}}, tr)
	require.NoError(t, err)
	return op
}

func TestGroupByCountStar(t *testing.T) {
	op := newCountStar(t, 1)
	a, b := row("A"), row("B")

	out, err := op.Receive(nil, PortLeft, a)
	require.NoError(t, err)
	assert.Equal(t, []types.Record{row(1)}, out)

	out, err = op.Receive(nil, PortLeft, b)
	require.NoError(t, err)
	assert.Equal(t, []types.Record{row(1).Retract(), row(2)}, out)

	out, err = op.Receive(nil, PortLeft, a.Retract())
	require.NoError(t, err)
	assert.Equal(t, []types.Record{row(2).Retract(), row(1)}, out)
}

func TestGroupByHoldsUntilTrigger(t *testing.T) {
	op := newCountStar(t, 3)
	for i := 0; i < 2; i++ {
		out, err := op.Receive(nil, PortLeft, row(i))
		require.NoError(t, err)
		assert.Empty(t, out)
	}
	out, err := op.Receive(nil, PortLeft, row(2))
	require.NoError(t, err)
	assert.Equal(t, []types.Record{row(3)}, out)

	// end of stream flushes pending changes
	_, err = op.Receive(nil, PortLeft, row(3))
	require.NoError(t, err)
	out, err = op.Flush(nil)
	require.NoError(t, err)
	assert.Equal(t, []types.Record{row(3).Retract(), row(4)}, out)
}

func TestGroupBySumPerKey(t *testing.T) {
	tr, _ := trigger.NewCounting(1)
	op, err := NewGroupByOp([]string{"k"}, []expr.Expression{expr.NewField(0, "k")},
		[]AggregateField{{Type: aggregator.Sum, Arg: expr.NewField(1, "v"), OutputAlias: "total"}}, tr)
	require.NoError(t, err)
	assert.Equal(t, []string{"k", "total"}, op.Schema().Fields())

	_, err = op.Receive(nil, PortLeft, row("a", 5))
	require.NoError(t, err)
	out, err := op.Receive(nil, PortLeft, row("a", 7))
	require.NoError(t, err)
	assert.Equal(t, []types.Record{row("a", 5).Retract(), row("a", 12)}, out)

	// a failing record leaves the group untouched and does not count for the trigger
	_, err = op.Receive(nil, PortLeft, row("a", "bad"))
	require.Error(t, err)
	results, count, ok := op.Groups().Lookup([]types.Value{types.String("a")})
	require.True(t, ok)
	assert.Equal(t, int64(2), count)
	assert.Equal(t, []types.Value{types.Int(12)}, results)

	out, err = op.Receive(nil, PortLeft, row("a", 5).Retract())
	require.NoError(t, err)
	assert.Equal(t, []types.Record{row("a", 12).Retract(), row("a", 7)}, out)
}

func TestGroupByFloatSumRetraction(t *testing.T) {
	tr, _ := trigger.NewCounting(1)
	op, err := NewGroupByOp(nil, nil,
		[]AggregateField{{Type: aggregator.Sum, Arg: expr.NewField(0, "v"), OutputAlias: "total"}}, tr)
	require.NoError(t, err)

	_, err = op.Receive(nil, PortLeft, row(0.2))
	require.NoError(t, err)
	_, err = op.Receive(nil, PortLeft, row(0.1))
	require.NoError(t, err)
	out, err := op.Receive(nil, PortLeft, row(0.1).Retract())
	require.NoError(t, err)
	assert.Equal(t, []types.Record{row(0.30000000000000004).Retract(), row(0.2)}, out)

	results, _, ok := op.Groups().Lookup(nil)
	require.True(t, ok)
	assert.Equal(t, []types.Value{types.Float(0.2)}, results)
}

func TestGroupByValidation(t *testing.T) {
	tr, _ := trigger.NewCounting(1)
	_, err := NewGroupByOp(nil, nil, []AggregateField{{Type: aggregator.Sum, OutputAlias: "s"}}, tr)
	assert.True(t, types.IsCode(err, types.ErrCodeInvalidAggregate))

	_, err = NewGroupByOp(nil, nil, []AggregateField{{Type: "median", Arg: lit(1), OutputAlias: "m"}}, tr)
	assert.True(t, types.IsCode(err, types.ErrCodeInvalidAggregate))

	_, err = NewGroupByOp(nil, nil, []AggregateField{{Type: aggregator.Count}}, tr)
	assert.True(t, types.IsCode(err, types.ErrCodeInvalidAggregate))

	_, err = NewGroupByOp(nil, nil, nil, nil)
	assert.True(t, types.IsCode(err, types.ErrCodeInvalidTrigger))
}

func newIDJoin(t *testing.T) *JoinOp {
	op, err := NewJoinOp(types.NewSchema("l.id", "l.v"), types.NewSchema("r.id", "r.v"),
		[]expr.Expression{expr.NewField(0, "l.id")}, []expr.Expression{expr.NewField(0, "r.id")})
	require.NoError(t, err)
	return op
}

func TestJoinInsertInsertRetract(t *testing.T) {
	op := newIDJoin(t)

	out, err := op.Receive(nil, PortLeft, row(1, "x"))
	require.NoError(t, err)
	assert.Empty(t, out)

	out, err = op.Receive(nil, PortRight, row(1, "y"))
	require.NoError(t, err)
	assert.Equal(t, []types.Record{row(1, "x", 1, "y")}, out)

	out, err = op.Receive(nil, PortLeft, row(1, "x").Retract())
	require.NoError(t, err)
	assert.Equal(t, []types.Record{row(1, "x", 1, "y").Retract()}, out)

	assert.Equal(t, 0, op.Left().Keys(), "retracted tuple is pruned")
	assert.Equal(t, 1, op.Right().Tuples())
}

func TestJoinDuplicatesAndNullKeys(t *testing.T) {
	op := newIDJoin(t)
	_, _ = op.Receive(nil, PortLeft, row(1, "x"))
	_, _ = op.Receive(nil, PortLeft, row(1, "x"))

	out, err := op.Receive(nil, PortRight, row(1, "y"))
	require.NoError(t, err)
	assert.Len(t, out, 2, "one match per unit of count")

	out, err = op.Receive(nil, PortLeft, row(nil, "n"))
	require.NoError(t, err)
	assert.Empty(t, out)
	out, err = op.Receive(nil, PortRight, row(nil, "n"))
	require.NoError(t, err)
	assert.Empty(t, out, "NULL keys never match")
	assert.Equal(t, 1, op.Left().Keys())

	_, err = op.Receive(nil, 2, row(1, "z"))
	assert.Error(t, err)
}

func TestJoinNegativeCount(t *testing.T) {
	op := newIDJoin(t)
	// retraction before its insert leaves a count of -1
	_, _ = op.Receive(nil, PortLeft, row(1, "x").Retract())
	assert.Equal(t, int64(-1), op.Left().Count(types.TupleKey([]types.Value{types.Int(1)}), row(1, "x").Values()))

	out, err := op.Receive(nil, PortRight, row(1, "y"))
	require.NoError(t, err)
	assert.Equal(t, []types.Record{row(1, "x", 1, "y").Retract()}, out)

	out, err = op.Receive(nil, PortLeft, row(1, "x"))
	require.NoError(t, err)
	assert.Equal(t, []types.Record{row(1, "x", 1, "y")}, out)
	assert.Equal(t, 0, op.Left().Keys())
}

func TestNewJoinOpKeyMismatch(t *testing.T) {
	_, err := NewJoinOp(types.NewSchema("a"), types.NewSchema("b"), []expr.Expression{lit(1)}, nil)
	assert.True(t, types.IsCode(err, types.ErrCodeUnsupportedPredicate))
}

func TestJoinUnknownPort(t *testing.T) {
	op := newIDJoin(t)
	_, err := op.Receive(nil, 2, row(1, "x"))
	assert.ErrorIs(t, err, types.ErrPlanConstruction)
	assert.True(t, types.IsCode(err, types.ErrCodeInvalidPlan))
	assert.Equal(t, 0, op.Left().Tuples())
}

func TestJoinIndexRollback(t *testing.T) {
	idx := NewJoinIndex()
	a, b, c := row(1, "a").Values(), row(1, "b").Values(), row(1, "c").Values()
	idx.Add("k1", a, 1)
	idx.Add("k1", b, 1)
	idx.Add("k1", c, 1)
	idx.Add("k2", a, 1)
	before := append([]IndexEntry(nil), idx.Probe("k1")...)

	idx.Begin()
	idx.Add("k1", b, -1)
	idx.Add("k1", a, -1)
	idx.Add("k1", a, 1)
	idx.Add("k2", a, -1)
	idx.Add("k3", c, 1)
	idx.Add("k3", c, -1)
	idx.Add("k4", c, 2)
	require.Equal(t, 2, idx.Keys())
	idx.Rollback()

	assert.Equal(t, before, idx.Probe("k1"), "tuples keep their original order")
	assert.Equal(t, int64(1), idx.Count("k2", a))
	assert.Empty(t, idx.Probe("k3"))
	assert.Empty(t, idx.Probe("k4"))
	assert.Equal(t, 2, idx.Keys())
	assert.Equal(t, 4, idx.Tuples())

	// outside Begin/Commit nothing is recorded
	idx.Add("k4", c, 1)
	idx.Rollback()
	assert.Equal(t, int64(1), idx.Count("k4", c))
}

func TestGroupByRollback(t *testing.T) {
	tr, err := trigger.NewCounting(2)
	require.NoError(t, err)
	op, err := NewGroupByOp([]string{"k"}, []expr.Expression{expr.NewField(0, "k")},
		[]AggregateField{{Type: aggregator.Sum, Arg: expr.NewField(1, "v"), OutputAlias: "total"}}, tr)
	require.NoError(t, err)

	out, err := op.Receive(nil, PortLeft, row("a", 1.5))
	require.NoError(t, err)
	assert.Empty(t, out)
	out, err = op.Receive(nil, PortLeft, row("b", 2))
	require.NoError(t, err)
	assert.Equal(t, []types.Record{row("a", 1.5), row("b", 2)}, out)

	op.Begin()
	_, err = op.Receive(nil, PortLeft, row("a", 1.5).Retract())
	require.NoError(t, err)
	out, err = op.Receive(nil, PortLeft, row("c", 7))
	require.NoError(t, err)
	assert.Equal(t, []types.Record{row("a", 1.5).Retract(), row("c", 7)}, out)
	_, err = op.Receive(nil, PortLeft, row("b", 2).Retract())
	require.NoError(t, err)
	out, err = op.Flush(nil)
	require.NoError(t, err)
	assert.Equal(t, []types.Record{row("b", 2).Retract()}, out)
	op.Rollback()

	assert.Equal(t, 2, op.Groups().Len())
	assert.False(t, op.Groups().Pending())
	assert.Equal(t, 0, tr.Pending())
	results, count, ok := op.Groups().Lookup([]types.Value{types.String("a")})
	require.True(t, ok)
	assert.Equal(t, int64(1), count)
	assert.Equal(t, []types.Value{types.Float(1.5)}, results)

	// the restored state keeps producing the same diffs
	op.Begin()
	_, err = op.Receive(nil, PortLeft, row("a", 1.5).Retract())
	require.NoError(t, err)
	out, err = op.Receive(nil, PortLeft, row("b", 3))
	require.NoError(t, err)
	op.Commit()
	assert.Equal(t, []types.Record{row("a", 1.5).Retract(), row("b", 2).Retract(), row("b", 5)}, out)
}

// net multiplicity of emitted records, by tuple
func netCounts(records []types.Record) map[string]int64 {
	counts := map[string]int64{}
	for _, r := range records {
		counts[r.Key()] += r.Sign()
		if counts[r.Key()] == 0 {
			delete(counts, r.Key())
		}
	}
	return counts
}

func TestJoinCardinality(t *testing.T) {
	op := newIDJoin(t)
	rnd := rand.New(rand.NewSource(7))

	left := map[int64]int64{}
	right := map[int64]int64{}
	var emitted []types.Record
	var live [2][]types.Record

	for step := 0; step < 400; step++ {
		port := rnd.Intn(2)
		var rec types.Record
		if len(live[port]) > 0 && rnd.Intn(3) == 0 {
			i := rnd.Intn(len(live[port]))
			rec = live[port][i].Retract()
			live[port] = append(live[port][:i], live[port][i+1:]...)
		} else {
			rec = row(rnd.Int63n(4), "v")
			live[port] = append(live[port], rec)
		}
		counts := left
		if port == PortRight {
			counts = right
		}
		counts[rec.Value(0).AsInt()] += rec.Sign()

		out, err := op.Receive(nil, port, rec)
		require.NoError(t, err)
		emitted = append(emitted, out...)
	}

	net := netCounts(emitted)
	for k := int64(0); k < 4; k++ {
		key := row(k, "v", k, "v").Key()
		assert.Equal(t, left[k]*right[k], net[key], "key %d", k)
	}
}

func newStatsByKey(t *testing.T) *GroupByOp {
	tr, err := trigger.NewCounting(1)
	require.NoError(t, err)
	v := expr.NewField(1, "v")
	op, err := NewGroupByOp([]string{"k"}, []expr.Expression{expr.NewField(0, "k")}, []AggregateField{
		{Type: aggregator.Count, Arg: v, OutputAlias: "n"},
		{Type: aggregator.Sum, Arg: v, OutputAlias: "total"},
		{Type: aggregator.Avg, Arg: v, OutputAlias: "mean"},
		{Type: aggregator.Min, Arg: v, OutputAlias: "lo"},
		{Type: aggregator.Max, Arg: v, OutputAlias: "hi"},
	}, tr)
	require.NoError(t, err)
	return op
}

// 随机插入和撤回后，增量结果必须与从当前数据重新计算的结果逐位相同
func TestGroupByAggregatesMatchRecompute(t *testing.T) {
	op := newStatsByKey(t)
	rnd := rand.New(rand.NewSource(11))
	values := []float64{0.1, 0.2, 0.3, 1.5, -2.25, 1e-3, 1e16, -7}

	var emitted []types.Record
	var live []types.Record
	receive := func(rec types.Record) {
		out, err := op.Receive(nil, PortLeft, rec)
		require.NoError(t, err)
		emitted = append(emitted, out...)
	}
	recompute := func() map[string]int64 {
		ref := newStatsByKey(t)
		var out []types.Record
		for _, rec := range live {
			o, err := ref.Receive(nil, PortLeft, rec)
			require.NoError(t, err)
			out = append(out, o...)
		}
		return netCounts(out)
	}

	for step := 0; step < 300; step++ {
		if len(live) > 0 && rnd.Intn(5) < 2 {
			i := rnd.Intn(len(live))
			receive(live[i].Retract())
			live = append(live[:i], live[i+1:]...)
		} else {
			rec := row(rnd.Int63n(3), values[rnd.Intn(len(values))])
			receive(rec)
			live = append(live, rec)
		}
		if step%25 == 0 {
			require.Equal(t, recompute(), netCounts(emitted), "step %d", step)
		}
	}
	require.Equal(t, recompute(), netCounts(emitted))

	for len(live) > 0 {
		receive(live[0].Retract())
		live = live[1:]
	}
	assert.Empty(t, netCounts(emitted))
	assert.Equal(t, 0, op.Groups().Len())
}

func TestMultisetCancellation(t *testing.T) {
	op := newIDJoin(t)
	_, _ = op.Receive(nil, PortRight, row(1, "y"))
	_, _ = op.Receive(nil, PortRight, row(2, "z"))
	before := op.Left().Tuples()

	r := row(1, "x")
	out1, err := op.Receive(nil, PortLeft, r)
	require.NoError(t, err)
	out2, err := op.Receive(nil, PortLeft, r.Retract())
	require.NoError(t, err)
	assert.Empty(t, netCounts(append(out1, out2...)))
	assert.Equal(t, before, op.Left().Tuples())

	g := newCountStar(t, 2)
	o1, _ := g.Receive(nil, PortLeft, r)
	o2, _ := g.Receive(nil, PortLeft, r.Retract())
	assert.Empty(t, netCounts(append(o1, o2...)))
	assert.Equal(t, 0, g.Groups().Len())
}
