package timer

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimer_StoppedUntilStarted(t *testing.T) {
	tm := New(100)
	snap := tm.Tick()
	assert.Equal(t, 100, snap.TotalRemaining)
	assert.False(t, snap.Running)

	tm.StartQuestion(30)
	snap = tm.Tick()
	assert.Equal(t, 99, snap.TotalRemaining)
	assert.Equal(t, 29, snap.QuestionRemaining)
	assert.Equal(t, 1, snap.QuestionElapsed)
	assert.True(t, snap.Running)
}

func TestTimer_PauseResume(t *testing.T) {
	tm := New(100)
	tm.StartQuestion(10)
	tm.Tick()
	tm.Pause()
	tm.Tick()
	tm.Tick()

	snap := tm.Snapshot()
	assert.Equal(t, 99, snap.TotalRemaining)
	assert.Equal(t, 9, snap.QuestionRemaining)

	tm.Resume()
	snap = tm.Tick()
	assert.Equal(t, 98, snap.TotalRemaining)
	assert.Equal(t, 8, snap.QuestionRemaining)
}

func TestTimer_QuestionTimeUpFiresOnce(t *testing.T) {
	var fired atomic.Int32
	tm := New(100, OnQuestionTimeUp(func() { fired.Add(1) }))
	tm.StartQuestion(2)

	tm.Tick()
	assert.Equal(t, int32(0), fired.Load())
	tm.Tick()
	assert.Equal(t, int32(1), fired.Load())

	// The quiz clock keeps running, the question clock stays at zero.
	snap := tm.Tick()
	assert.Equal(t, int32(1), fired.Load())
	assert.Equal(t, 0, snap.QuestionRemaining)
	assert.Equal(t, 97, snap.TotalRemaining)
	assert.True(t, snap.Running)

	tm.ResetQuestion(1)
	tm.Tick()
	assert.Equal(t, int32(2), fired.Load())
}

func TestTimer_TotalTimeUpStops(t *testing.T) {
	var fired atomic.Int32
	tm := New(2, OnTotalTimeUp(func() { fired.Add(1) }))
	tm.StartQuestion(60)

	tm.Tick()
	snap := tm.Tick()
	assert.Equal(t, 0, snap.TotalRemaining)
	assert.False(t, snap.Running)
	assert.True(t, tm.Expired())
	assert.Equal(t, int32(1), fired.Load())

	tm.Resume()
	tm.StartQuestion(60)
	assert.False(t, tm.Snapshot().Running)
	tm.Tick()
	assert.Equal(t, int32(1), fired.Load())
}

func TestTimer_CallbackMayReenter(t *testing.T) {
	var tm *Timer
	tm = New(100, OnQuestionTimeUp(func() { tm.ResetQuestion(5) }))
	tm.StartQuestion(1)

	snap := tm.Tick()
	assert.Equal(t, 0, snap.QuestionRemaining)
	assert.Equal(t, 5, tm.Snapshot().QuestionRemaining)
}

func TestTimer_RestoreQuestion(t *testing.T) {
	var fired atomic.Int32
	tm := New(100, OnQuestionTimeUp(func() { fired.Add(1) }))
	tm.StartQuestion(60)
	tm.RestoreQuestion(90, 30)

	snap := tm.Snapshot()
	assert.False(t, snap.Running)
	assert.Equal(t, 30, snap.QuestionRemaining)
	assert.Equal(t, 60, snap.QuestionElapsed)

	tm.RestoreQuestion(90, 0)
	tm.Resume()
	tm.Tick()
	assert.Equal(t, int32(0), fired.Load(), "an expired question does not fire again")
}

func TestTimer_ZeroTotal(t *testing.T) {
	var fired atomic.Int32
	tm := New(0, OnTotalTimeUp(func() { fired.Add(1) }))
	tm.StartQuestion(10)
	tm.Tick()
	assert.False(t, tm.Snapshot().Running)
	assert.Equal(t, int32(0), fired.Load())
}

func TestTimer_RunUntilExpiry(t *testing.T) {
	tm := New(3)
	tm.StartQuestion(10)

	var ticks []Snapshot
	err := tm.Run(context.Background(), time.Millisecond, func(s Snapshot) { ticks = append(ticks, s) })
	require.NoError(t, err)
	require.Len(t, ticks, 3)
	assert.Equal(t, 0, ticks[2].TotalRemaining)
	assert.Equal(t, 7, ticks[2].QuestionRemaining)
}

func TestTimer_RunCancelled(t *testing.T) {
	tm := New(1000)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	var ticks atomic.Int32
	err := tm.Run(ctx, time.Millisecond, func(Snapshot) { ticks.Add(1) })
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, int32(0), ticks.Load(), "stopped timer does not report ticks")
}
