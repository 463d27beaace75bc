package trigger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rulego/streamdiff/types"
)

func TestCountingFiresEveryNth(t *testing.T) {
	tr, err := NewCounting(3)
	require.NoError(t, err)

	insert := types.NewRecord(types.Int(1))
	retract := insert.Retract()

	var fired []int
	for i := 1; i <= 10; i++ {
		rec := insert
		if i%2 == 0 {
			rec = retract
		}
		if tr.Observe(rec) {
			fired = append(fired, i)
		}
	}
	assert.Equal(t, []int{3, 6, 9}, fired)
	assert.Equal(t, 1, tr.Pending())

	tr.Reset()
	assert.Equal(t, 0, tr.Pending())
}

func TestCountingOneAlwaysFires(t *testing.T) {
	tr, err := NewCounting(1)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		assert.True(t, tr.Observe(types.NewRecord()))
	}
}

func TestCountingBadThreshold(t *testing.T) {
	_, err := New(CountingSpec(0))
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrPlanConstruction)
	assert.True(t, types.IsCode(err, types.ErrCodeInvalidTrigger))
}

func TestDelay(t *testing.T) {
	now := time.Unix(0, 0)
	clock := func() time.Time { return now }

	tr, err := NewDelay(10*time.Second, clock)
	require.NoError(t, err)

	assert.False(t, tr.Observe(types.NewRecord()), "first event starts the interval")
	now = now.Add(5 * time.Second)
	assert.False(t, tr.Observe(types.NewRecord()))
	now = now.Add(5 * time.Second)
	assert.True(t, tr.Observe(types.NewRecord()))
	now = now.Add(time.Second)
	assert.False(t, tr.Observe(types.NewRecord()))
	now = now.Add(10 * time.Second)
	assert.True(t, tr.Observe(types.NewRecord()))
}

func TestInstancesDoNotShareState(t *testing.T) {
	spec := CountingSpec(2)
	a, err := New(spec)
	require.NoError(t, err)
	b, err := New(spec)
	require.NoError(t, err)

	assert.False(t, a.Observe(types.NewRecord()))
	assert.True(t, a.Observe(types.NewRecord()))
	assert.False(t, b.Observe(types.NewRecord()))
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		spec    Spec
		wantErr bool
	}{
		{name: "counting", spec: CountingSpec(5)},
		{name: "delay", spec: DelaySpec(time.Second)},
		{name: "end of stream", spec: EndOfStreamSpec()},
		{name: "bad delay", spec: DelaySpec(0), wantErr: true},
		{name: "unknown", spec: Spec{Type: "watermark"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, err := New(tt.spec)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, tr)
				return
			}
			assert.NoError(t, err)
			assert.NotNil(t, tr)
		})
	}
	assert.False(t, EndOfStream{}.Observe(types.NewRecord()))
}
