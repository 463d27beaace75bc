package planner

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rulego/streamdiff/aggregator"
	"github.com/rulego/streamdiff/operator"
	"github.com/rulego/streamdiff/plan"
	"github.com/rulego/streamdiff/source"
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

func newCatalog(t *testing.T) *source.Catalog {
	t.Helper()
	c := source.NewCatalog()
	require.NoError(t, c.RegisterRecords("people", types.NewSchema("name", "age")))
	require.NoError(t, c.RegisterRecords("l", types.NewSchema("id", "name")))
	require.NoError(t, c.RegisterRecords("r", types.NewSchema("id", "name")))
	require.NoError(t, c.RegisterRecords("outer", types.NewSchema("k")))
	require.NoError(t, c.RegisterRecords("inner", types.NewSchema("k", "x"),
		row(1, 10), row(1, 30), row(2, 5), row(3, 100)))
	return c
}

func mustBuild(t *testing.T, node plan.Node, c *source.Catalog) *Pipeline {
	t.Helper()
	p, err := Build(node, c, DefaultOptions())
	require.NoError(t, err)
	return p
}

func push(t *testing.T, p *Pipeline, src string, rec types.Record) []types.Record {
	t.Helper()
	out, err := p.Push(nil, src, rec)
	require.NoError(t, err)
	return out
}

func TestFilterPipeline(t *testing.T) {
	p := mustBuild(t, &plan.Filter{
		Input:     &plan.Source{Name: "people"},
		Predicate: plan.Gt(plan.Col("age"), plan.Lit(30)),
	}, newCatalog(t))
	assert.Equal(t, []string{"people.name", "people.age"}, p.Schema().Fields())
	assert.Equal(t, []string{"people"}, p.Sources())

	assert.Empty(t, push(t, p, "people", row("bob", 25)))
	in := row("amy", 40)
	assert.Equal(t, []types.Record{in}, push(t, p, "people", in))
	assert.Equal(t, []types.Record{in.Retract()}, push(t, p, "people", in.Retract()))
}

func TestGroupByCountPipeline(t *testing.T) {
	p := mustBuild(t, &plan.GroupBy{
		Input:      &plan.Source{Name: "people"},
		Aggregates: []plan.Aggregate{{Func: aggregator.Count, Name: "n"}},
		Trigger:    trigger.CountingSpec(1),
	}, newCatalog(t))
	assert.Equal(t, []string{"n"}, p.Schema().Fields())

	a, b := row("a", 1), row("b", 2)
	assert.Equal(t, []types.Record{row(1)}, push(t, p, "people", a))
	assert.Equal(t, []types.Record{row(1).Retract(), row(2)}, push(t, p, "people", b))
	assert.Equal(t, []types.Record{row(2).Retract(), row(1)}, push(t, p, "people", a.Retract()))
}

func TestJoinPipeline(t *testing.T) {
	p := mustBuild(t, &plan.Join{
		Left:      &plan.Source{Name: "l"},
		Right:     &plan.Source{Name: "r"},
		LeftKeys:  []plan.Expression{plan.Col("l.id")},
		RightKeys: []plan.Expression{plan.Col("r.id")},
	}, newCatalog(t))
	assert.Equal(t, []string{"l.id", "l.name", "r.id", "r.name"}, p.Schema().Fields())

	left := row(1, "x")
	assert.Empty(t, push(t, p, "l", left))
	assert.Equal(t, []types.Record{row(1, "x", 1, "y")}, push(t, p, "r", row(1, "y")))
	assert.Equal(t, []types.Record{row(1, "x", 1, "y").Retract()}, push(t, p, "l", left.Retract()))
}

func TestJoinConditionSplit(t *testing.T) {
	c := newCatalog(t)
	p := mustBuild(t, &plan.Join{
		Left:      &plan.Source{Name: "l"},
		Right:     &plan.Source{Name: "r"},
		Condition: plan.And(plan.Eq(plan.Col("r.id"), plan.Col("l.id")), plan.Eq(plan.Col("l.name"), plan.Col("r.name"))),
	}, c)
	assert.Empty(t, push(t, p, "l", row(1, "x")))
	assert.Empty(t, push(t, p, "r", row(1, "y")))
	assert.Equal(t, []types.Record{row(1, "x", 1, "x")}, push(t, p, "r", row(1, "x")))

	tests := []struct {
		name string
		join *plan.Join
		code types.ErrorCode
	}{
		{"不等值", &plan.Join{Condition: plan.Gt(plan.Col("l.id"), plan.Col("r.id"))}, types.ErrCodeUnsupportedPredicate},
		{"同侧", &plan.Join{Condition: plan.Eq(plan.Col("l.id"), plan.Col("l.name"))}, types.ErrCodeUnsupportedPredicate},
		{"OR", &plan.Join{Condition: plan.Or(plan.Eq(plan.Col("l.id"), plan.Col("r.id")), plan.Eq(plan.Col("l.name"), plan.Col("r.name")))}, types.ErrCodeUnsupportedPredicate},
		{"常量", &plan.Join{Condition: plan.Eq(plan.Col("l.id"), plan.Lit(1))}, types.ErrCodeUnsupportedPredicate},
		{"歧义", &plan.Join{Condition: plan.Eq(plan.Col("id"), plan.Col("r.id"))}, types.ErrCodeAmbiguousColumn},
		{"无条件", &plan.Join{}, types.ErrCodeUnsupportedPredicate},
		{"键数量不一致", &plan.Join{LeftKeys: []plan.Expression{plan.Col("l.id")}}, types.ErrCodeUnsupportedPredicate},
		{"键和条件同时存在", &plan.Join{
			LeftKeys:  []plan.Expression{plan.Col("l.id")},
			RightKeys: []plan.Expression{plan.Col("r.id")},
			Condition: plan.Eq(plan.Col("l.id"), plan.Col("r.id")),
		}, types.ErrCodeInvalidPlan},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.join.Left = &plan.Source{Name: "l"}
			tt.join.Right = &plan.Source{Name: "r"}
			_, err := Build(tt.join, c, DefaultOptions())
			require.Error(t, err)
			assert.True(t, types.IsCode(err, tt.code), err.Error())
			var pe *types.PlanError
			require.True(t, errors.As(err, &pe))
			assert.Equal(t, "Join", pe.Node)
		})
	}
}

func TestSelfJoin(t *testing.T) {
	p := mustBuild(t, &plan.Join{
		Left:      &plan.Source{Name: "l", Alias: "a"},
		Right:     &plan.Source{Name: "l", Alias: "b"},
		Condition: plan.Eq(plan.Col("a.id"), plan.Col("b.id")),
	}, newCatalog(t))
	assert.Equal(t, []string{"l"}, p.Sources())
	assert.Equal(t, []types.Record{row(1, "x", 1, "x")}, push(t, p, "l", row(1, "x")))
	assert.Equal(t, []types.Record{row(1, "y", 1, "x"), row(1, "x", 1, "y"), row(1, "y", 1, "y")},
		push(t, p, "l", row(1, "y")))
}

func TestBuildErrors(t *testing.T) {
	c := newCatalog(t)
	people := &plan.Source{Name: "people"}
	tests := []struct {
		name string
		node plan.Node
		code types.ErrorCode
	}{
		{"未知源", &plan.Source{Name: "nope"}, types.ErrCodeUnknownSource},
		{"未知列", &plan.Filter{Input: people, Predicate: plan.Gt(plan.Col("height"), plan.Lit(1))}, types.ErrCodeUnknownColumn},
		{"撤回字段", &plan.Filter{Input: people, Predicate: plan.Col(types.RetractionField)}, types.ErrCodeRetractionField},
		{"表达式引用撤回字段", &plan.Filter{Input: people, Predicate: &plan.ExprLang{Code: "sys.retraction == true"}}, types.ErrCodeRetractionField},
		{"撤回字段作为输出", &plan.Map{Input: people, Exprs: []plan.NamedExpression{{Name: types.RetractionField, Expr: plan.Lit(true)}}}, types.ErrCodeRetractionField},
		{"未知函数", &plan.Map{Input: people, Exprs: []plan.NamedExpression{{Name: "x", Expr: &plan.Call{Name: "nope"}}}}, types.ErrCodeUnknownFunction},
		{"参数个数", &plan.Map{Input: people, Exprs: []plan.NamedExpression{{Name: "x", Expr: &plan.Call{Name: "abs"}}}}, types.ErrCodeInvalidPlan},
		{"表达式编译失败", &plan.Filter{Input: people, Predicate: &plan.ExprLang{Code: "age >"}}, types.ErrCodeInvalidPlan},
		{"缺少谓词", &plan.Filter{Input: people}, types.ErrCodeInvalidPlan},
		{"缺少输入", &plan.Filter{Predicate: plan.Lit(true)}, types.ErrCodeInvalidPlan},
		{"未知聚合", &plan.GroupBy{Input: people, Aggregates: []plan.Aggregate{{Func: "median", Arg: plan.Col("age"), Name: "m"}}}, types.ErrCodeInvalidAggregate},
		{"sum(*)", &plan.GroupBy{Input: people, Aggregates: []plan.Aggregate{{Func: aggregator.Sum, Name: "s"}}}, types.ErrCodeInvalidAggregate},
		{"触发器", &plan.GroupBy{Input: people, Trigger: trigger.CountingSpec(0)}, types.ErrCodeInvalidTrigger},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Build(tt.node, c, DefaultOptions())
			require.Error(t, err)
			assert.ErrorIs(t, err, types.ErrPlanConstruction)
			assert.True(t, types.IsCode(err, tt.code), err.Error())
		})
	}

	_, err := Build(people, nil, DefaultOptions())
	assert.True(t, types.IsCode(err, types.ErrCodeInvalidPlan))
}

func TestPushErrors(t *testing.T) {
	p := mustBuild(t, &plan.Filter{
		Input:     &plan.Source{Name: "people"},
		Predicate: plan.Gt(plan.Col("name"), plan.Lit(3)),
	}, newCatalog(t))

	_, err := p.Push(nil, "nope", row("a", 1))
	assert.True(t, types.IsCode(err, types.ErrCodeUnknownSource))
	_, err = p.Push(nil, "people", row("a"))
	assert.True(t, types.IsCode(err, types.ErrCodeTypeMismatch))
	_, err = p.Push(nil, "people", row("a", 1))
	assert.ErrorIs(t, err, types.ErrEvaluation)
	assert.True(t, types.IsCode(err, types.ErrCodeTypeMismatch))
}

func TestFlushThroughStages(t *testing.T) {
	// count of distinct names, both levels only fire at end of stream
	p := mustBuild(t, &plan.GroupBy{
		Input: &plan.GroupBy{
			Input:   &plan.Source{Name: "people"},
			Keys:    []plan.NamedExpression{{Name: "name", Expr: plan.Col("name")}},
			Trigger: trigger.EndOfStreamSpec(),
		},
		Aggregates: []plan.Aggregate{{Func: aggregator.Count, Name: "names"}},
		Trigger:    trigger.EndOfStreamSpec(),
	}, newCatalog(t))
	require.Len(t, p.Operators(), 2)

	for _, r := range []types.Record{row("a", 1), row("b", 2), row("a", 3), row("c", 4), row("c", 4).Retract()} {
		assert.Empty(t, push(t, p, "people", r))
	}
	out, err := p.Flush(nil)
	require.NoError(t, err)
	assert.Equal(t, []types.Record{row(2)}, out)
}

func TestNestedGroupByRetractions(t *testing.T) {
	p := mustBuild(t, &plan.GroupBy{
		Input: &plan.GroupBy{
			Input:      &plan.Source{Name: "people"},
			Keys:       []plan.NamedExpression{{Name: "name", Expr: plan.Col("name")}},
			Aggregates: []plan.Aggregate{{Func: aggregator.Sum, Arg: plan.Col("age"), Name: "total"}},
		},
		Aggregates: []plan.Aggregate{{Func: aggregator.Max, Arg: plan.Col("total"), Name: "top"}},
	}, newCatalog(t))

	var all []types.Record
	for _, r := range []types.Record{row("a", 10), row("b", 15), row("a", 20), row("b", 15).Retract()} {
		all = append(all, push(t, p, "people", r)...)
	}
	assert.Equal(t, []types.Record{row(30)}, types.Consolidate(all))
}

// tenOver 构造 10 / (col - pivot)，col 等于 pivot 时除零
func tenOver(col string, pivot int) plan.Expression {
	return &plan.Arith{Op: plan.OpDiv, Left: plan.Lit(10),
		Right: &plan.Arith{Op: plan.OpSub, Left: plan.Col(col), Right: plan.Lit(pivot)}}
}

func findOp[T operator.Operator](t *testing.T, p *Pipeline) T {
	t.Helper()
	for _, op := range p.Operators() {
		if found, ok := op.(T); ok {
			return found
		}
	}
	var zero T
	t.Fatalf("pipeline has no %T", zero)
	return zero
}

// 下游算子出错时，整条事件不生效，上游的有状态算子也回到推入前的状态
func TestFailedEventIsAtomic(t *testing.T) {
	t.Run("分组聚合", func(t *testing.T) {
		p := mustBuild(t, &plan.Map{
			Input: &plan.GroupBy{
				Input:      &plan.Source{Name: "people"},
				Aggregates: []plan.Aggregate{{Func: aggregator.Count, Name: "n"}},
			},
			Exprs: []plan.NamedExpression{{Name: "q", Expr: tenOver("n", 2)}},
		}, newCatalog(t))

		var all []types.Record
		all = append(all, push(t, p, "people", row("a", 1))...)
		for _, name := range []string{"b", "c"} {
			_, err := p.Push(nil, "people", row(name, 1))
			assert.True(t, types.IsCode(err, types.ErrCodeDivisionByZero))
		}
		results, count, ok := findOp[*operator.GroupByOp](t, p).Groups().Lookup(nil)
		require.True(t, ok)
		assert.Equal(t, int64(1), count)
		assert.Equal(t, []types.Value{types.Int(1)}, results)

		out := push(t, p, "people", row("a", 1).Retract())
		assert.Equal(t, []types.Record{row(-10).Retract()}, out)
		all = append(all, out...)
		all = append(all, push(t, p, "people", row("b", 1))...)
		assert.Equal(t, []types.Record{row(-10)}, types.Consolidate(all))
	})

	t.Run("连接", func(t *testing.T) {
		p := mustBuild(t, &plan.Map{
			Input: &plan.Join{
				Left:      &plan.Source{Name: "l"},
				Right:     &plan.Source{Name: "r"},
				LeftKeys:  []plan.Expression{plan.Col("l.id")},
				RightKeys: []plan.Expression{plan.Col("r.id")},
			},
			Exprs: []plan.NamedExpression{{Name: "q", Expr: tenOver("l.id", 1)}},
		}, newCatalog(t))

		assert.Empty(t, push(t, p, "r", row(1, "y")))
		_, err := p.Push(nil, "l", row(1, "x"))
		assert.True(t, types.IsCode(err, types.ErrCodeDivisionByZero))

		join := findOp[*operator.JoinOp](t, p)
		assert.Equal(t, 0, join.Left().Tuples())
		assert.Equal(t, 1, join.Right().Tuples())
		assert.Empty(t, push(t, p, "r", row(1, "z")), "the failed left row was never indexed")

		assert.Empty(t, push(t, p, "l", row(2, "w")))
		assert.Equal(t, []types.Record{row(10)}, push(t, p, "r", row(2, "v")))
	})

	t.Run("刷新", func(t *testing.T) {
		p := mustBuild(t, &plan.Map{
			Input: &plan.GroupBy{
				Input:      &plan.Source{Name: "people"},
				Aggregates: []plan.Aggregate{{Func: aggregator.Count, Name: "n"}},
				Trigger:    trigger.EndOfStreamSpec(),
			},
			Exprs: []plan.NamedExpression{{Name: "q", Expr: tenOver("n", 2)}},
		}, newCatalog(t))

		push(t, p, "people", row("a", 1))
		push(t, p, "people", row("b", 1))
		for i := 0; i < 2; i++ {
			_, err := p.Flush(nil)
			assert.True(t, types.IsCode(err, types.ErrCodeDivisionByZero), "attempt %d", i)
		}

		push(t, p, "people", row("b", 1).Retract())
		out, err := p.Flush(nil)
		require.NoError(t, err)
		assert.Equal(t, []types.Record{row(-10)}, out)
	})
}

func TestDelayTriggerUsesClock(t *testing.T) {
	now := time.Unix(0, 0)
	opts := DefaultOptions()
	opts.Clock = func() time.Time { return now }
	p, err := Build(&plan.GroupBy{
		Input:      &plan.Source{Name: "people"},
		Aggregates: []plan.Aggregate{{Func: aggregator.Count, Name: "n"}},
		Trigger:    trigger.DelaySpec(time.Second),
	}, newCatalog(t), opts)
	require.NoError(t, err)

	assert.Empty(t, push(t, p, "people", row("a", 1)))
	now = now.Add(2 * time.Second)
	assert.Equal(t, []types.Record{row(2)}, push(t, p, "people", row("b", 1)))
}

// maxPerKey is SELECT (SELECT max(x) FROM inner WHERE inner.k = outer.k) AS m FROM outer
func maxPerKey() plan.Node {
	return &plan.Map{
		Input: &plan.Source{Name: "outer"},
		Exprs: []plan.NamedExpression{{Name: "m", Expr: &plan.Subquery{
			Kind: plan.SubqueryScalar,
			Query: &plan.GroupBy{
				Input: &plan.Filter{
					Input:     &plan.Source{Name: "inner"},
					Predicate: plan.Eq(plan.Col("inner.k"), plan.Col("outer.k")),
				},
				Aggregates: []plan.Aggregate{{Func: aggregator.Max, Arg: plan.Col("x"), Name: "max_x"}},
			},
		}}},
		KeepSourceFields: true,
	}
}

func TestScalarSubqueryPerOuterRow(t *testing.T) {
	p := mustBuild(t, maxPerKey(), newCatalog(t))
	assert.Equal(t, []string{"outer.k", "m"}, p.Schema().Fields())

	assert.Equal(t, []types.Record{row(1, 30)}, push(t, p, "outer", row(1)))
	assert.Equal(t, []types.Record{row(2, 5)}, push(t, p, "outer", row(2)))
	assert.Equal(t, []types.Record{row(4, nil)}, push(t, p, "outer", row(4)), "no inner rows gives NULL")
	assert.Equal(t, []types.Record{row(1, 30).Retract()}, push(t, p, "outer", row(1).Retract()))
}

func TestExistsSubquery(t *testing.T) {
	p := mustBuild(t, &plan.Filter{
		Input: &plan.Source{Name: "outer"},
		Predicate: &plan.Subquery{
			Kind: plan.SubqueryExists,
			Query: &plan.Filter{
				Input:     &plan.Source{Name: "inner"},
				Predicate: &plan.ExprLang{Code: "inner.k == outer.k && x > 20"},
			},
		},
	}, newCatalog(t))

	assert.Equal(t, []types.Record{row(1)}, push(t, p, "outer", row(1)))
	assert.Empty(t, push(t, p, "outer", row(2)))
	assert.Equal(t, []types.Record{row(3)}, push(t, p, "outer", row(3)))
}

func TestSubqueryShape(t *testing.T) {
	c := newCatalog(t)

	_, err := Build(&plan.Map{
		Input: &plan.Source{Name: "outer"},
		Exprs: []plan.NamedExpression{{Name: "m", Expr: &plan.Subquery{Kind: plan.SubqueryScalar, Query: &plan.Source{Name: "inner"}}}},
	}, c, DefaultOptions())
	var shape *types.SubqueryShapeError
	require.True(t, errors.As(err, &shape))
	assert.Equal(t, 2, shape.Columns)

	p := mustBuild(t, &plan.Map{
		Input: &plan.Source{Name: "outer"},
		Exprs: []plan.NamedExpression{{Name: "m", Expr: &plan.Subquery{
			Kind: plan.SubqueryScalar,
			Query: &plan.Map{
				Input: &plan.Filter{Input: &plan.Source{Name: "inner"}, Predicate: plan.Eq(plan.Col("inner.k"), plan.Col("outer.k"))},
				Exprs: []plan.NamedExpression{{Name: "x", Expr: plan.Col("x")}},
			},
		}}},
	}, c)

	assert.Equal(t, []types.Record{row(5)}, push(t, p, "outer", row(2)))
	_, err = p.Push(nil, "outer", row(1))
	assert.ErrorIs(t, err, types.ErrSubqueryShape)
	require.True(t, errors.As(err, &shape))
	assert.Equal(t, 2, shape.Rows)
}

func TestSubqueryDepth(t *testing.T) {
	nested := func(levels int) plan.Node {
		var node plan.Node = &plan.Source{Name: "inner"}
		for i := 0; i < levels; i++ {
			node = &plan.Filter{
				Input:     &plan.Source{Name: "outer"},
				Predicate: &plan.Subquery{Kind: plan.SubqueryExists, Query: node},
			}
		}
		return node
	}
	c := newCatalog(t)
	opts := DefaultOptions()
	opts.MaxSubqueryDepth = 2

	_, err := Build(nested(2), c, opts)
	assert.NoError(t, err)
	_, err = Build(nested(3), c, opts)
	assert.True(t, types.IsCode(err, types.ErrCodeSubqueryDepth))

	// a scope chain deeper than the bound fails at evaluation
	p, err := Build(nested(1), c, opts)
	require.NoError(t, err)
	vars := types.NewVariableContext(nil, types.NewSchema("a"), []types.Value{types.Int(1)})
	vars = types.NewVariableContext(vars, types.NewSchema("b"), []types.Value{types.Int(2)})
	_, err = p.Push(vars, "outer", row(1))
	assert.True(t, types.IsCode(err, types.ErrCodeSubqueryDepth))
}

func TestDrain(t *testing.T) {
	c := newCatalog(t)
	p := mustBuild(t, &plan.GroupBy{
		Input:      &plan.Source{Name: "inner"},
		Keys:       []plan.NamedExpression{{Name: "k", Expr: plan.Col("k")}},
		Aggregates: []plan.Aggregate{{Func: aggregator.Sum, Arg: plan.Col("x"), Name: "total"}},
		Trigger:    trigger.EndOfStreamSpec(),
	}, c)
	out, err := p.Drain(context.Background(), c, nil)
	require.NoError(t, err)
	assert.Equal(t, []types.Record{row(1, 40), row(2, 5), row(3, 100)}, out)
}
