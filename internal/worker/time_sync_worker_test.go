package worker

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/bilalpiaic/AgenticQuizMaster/internal/config"
	"github.com/bilalpiaic/AgenticQuizMaster/internal/service"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordCall struct {
	sessionID int
	remaining int
}

type fakeRecorder struct {
	mu    sync.Mutex
	calls []recordCall
	errs  map[int]error
}

func (f *fakeRecorder) RecordTime(_ context.Context, sessionID, remaining int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, recordCall{sessionID, remaining})
	return f.errs[sessionID]
}

func (f *fakeRecorder) Calls() []recordCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]recordCall(nil), f.calls...)
}

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return mr, rdb
}

func TestTimeQueue_RecordTime(t *testing.T) {
	mr, rdb := newRedis(t)
	q := NewTimeQueue(rdb)

	require.NoError(t, q.RecordTime(context.Background(), 3, 1200))

	items, err := mr.List(config.WorkerKey.PersistTimeQueue)
	require.NoError(t, err)
	require.Len(t, items, 1)

	var p timePayload
	require.NoError(t, json.Unmarshal([]byte(items[0]), &p))
	assert.Equal(t, timePayload{SessionID: 3, TimeRemaining: 1200}, p)
}

func TestLatestPerSession(t *testing.T) {
	got := latestPerSession([]*timePayload{
		{SessionID: 1, TimeRemaining: 500},
		{SessionID: 2, TimeRemaining: 900},
		{SessionID: 1, TimeRemaining: 470},
		{SessionID: 1, TimeRemaining: 480},
	})
	require.Len(t, got, 2)
	assert.Equal(t, 470, got[0].TimeRemaining)
	assert.Equal(t, 900, got[1].TimeRemaining)
}

func TestFlushSafe_RequeuesFailures(t *testing.T) {
	mr, rdb := newRedis(t)
	rec := &fakeRecorder{errs: map[int]error{
		2: errors.New("db down"),
		3: service.ErrSessionNotFound,
	}}
	w := NewTimeSyncWorker(rdb, rec, zerolog.Nop())

	w.flushSafe(context.Background(), []*timePayload{
		{SessionID: 1, TimeRemaining: 100},
		{SessionID: 2, TimeRemaining: 200},
		{SessionID: 3, TimeRemaining: 300},
		{SessionID: 4, TimeRemaining: 10},
	})

	assert.Len(t, rec.Calls(), 4)

	items, err := mr.List(config.WorkerKey.PersistTimeQueue)
	require.NoError(t, err)
	require.Len(t, items, 1, "only the retryable failure is re-queued")

	var p timePayload
	require.NoError(t, json.Unmarshal([]byte(items[0]), &p))
	assert.Equal(t, 2, p.SessionID)
	assert.Equal(t, 1, p.Attempts)
}

func TestFlushSafe_GivesUpAfterMaxAttempts(t *testing.T) {
	mr, rdb := newRedis(t)
	rec := &fakeRecorder{errs: map[int]error{1: errors.New("down")}}
	w := NewTimeSyncWorker(rdb, rec, zerolog.Nop())

	w.flushSafe(context.Background(), []*timePayload{{SessionID: 1, TimeRemaining: 5, Attempts: TimeMaxAttempts - 1}})

	assert.False(t, mr.Exists(config.WorkerKey.PersistTimeQueue))
}

func TestTimeSyncWorker_DrainsQueue(t *testing.T) {
	mr, rdb := newRedis(t)
	rec := &fakeRecorder{}
	q := NewTimeQueue(rdb)
	ctx := context.Background()

	require.NoError(t, q.RecordTime(ctx, 1, 600))
	require.NoError(t, q.RecordTime(ctx, 1, 570))
	require.NoError(t, q.RecordTime(ctx, 2, 300))
	_, err := rdb.RPush(ctx, config.WorkerKey.PersistTimeQueue, "not json").Result()
	require.NoError(t, err)

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		NewTimeSyncWorker(rdb, rec, zerolog.Nop()).Start(runCtx)
		close(done)
	}()

	assert.Eventually(t, func() bool {
		return !mr.Exists(config.WorkerKey.PersistTimeQueue)
	}, 3*time.Second, 10*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("worker did not stop")
	}

	assert.ElementsMatch(t, []recordCall{{1, 570}, {2, 300}}, rec.Calls())
}
