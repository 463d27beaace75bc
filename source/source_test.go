package source

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rulego/streamdiff/types"
)

func TestSliceSource(t *testing.T) {
	a, err := Insert(1, "x")
	require.NoError(t, err)
	b, err := Retract(1, "x")
	require.NoError(t, err)

	src := NewSliceSource(a, b)
	ctx := context.Background()

	got, err := src.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, a, got)
	got, err = src.Next(ctx)
	require.NoError(t, err)
	assert.True(t, got.IsRetraction())
	_, err = src.Next(ctx)
	assert.ErrorIs(t, err, io.EOF)
	assert.NoError(t, src.Close())

	_, err = Insert([]int{1})
	assert.Error(t, err)
}

func TestChanSource(t *testing.T) {
	ch := make(chan types.Record, 1)
	src := NewChanSource(ch)
	ch <- types.NewRecord(types.Int(1))
	close(ch)

	got, err := src.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, types.NewRecord(types.Int(1)), got)
	_, err = src.Next(context.Background())
	assert.ErrorIs(t, err, io.EOF)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = NewChanSource(make(chan types.Record)).Next(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCatalog(t *testing.T) {
	c := NewCatalog()
	schema := types.NewSchema("id", "name")
	require.NoError(t, c.RegisterRecords("people", schema, types.NewRecord(types.Int(1), types.String("a"))))
	assert.Error(t, c.RegisterRecords("people", schema))
	assert.Error(t, c.Register("", schema, nil))

	err := c.RegisterRecords("bad", types.NewSchema(types.RetractionField))
	assert.True(t, types.IsCode(err, types.ErrCodeRetractionField))

	got, ok := c.Schema("people")
	require.True(t, ok)
	assert.Equal(t, schema, got)

	// every open replays from the start
	for i := 0; i < 2; i++ {
		src, err := c.Open("people")
		require.NoError(t, err)
		_, err = src.Next(context.Background())
		require.NoError(t, err)
	}

	_, err = c.Open("nope")
	assert.ErrorIs(t, err, types.ErrPlanConstruction)

	require.NoError(t, c.Register("broken", schema, func() (Source, error) { return nil, errors.New("down") }))
	_, err = c.Open("broken")
	assert.ErrorContains(t, err, "down")

	assert.Equal(t, []string{"broken", "people"}, c.Names())
}

func TestSinks(t *testing.T) {
	sink := NewCollectSink()
	a := types.NewRecord(types.Int(1))
	require.NoError(t, sink.Emit(a))
	require.NoError(t, sink.Emit(a.Retract()))
	require.NoError(t, sink.Emit(a))
	assert.Len(t, sink.Records(), 3)
	assert.Equal(t, []types.Record{a}, sink.Net())
	sink.Reset()
	assert.Empty(t, sink.Records())

	var got []types.Record
	var s Sink = FuncSink(func(rec types.Record) error {
		got = append(got, rec)
		return nil
	})
	require.NoError(t, s.Emit(a))
	assert.Equal(t, []types.Record{a}, got)
}
