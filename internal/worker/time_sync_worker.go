package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/bilalpiaic/AgenticQuizMaster/internal/config"
	"github.com/bilalpiaic/AgenticQuizMaster/internal/service"
	"github.com/bilalpiaic/AgenticQuizMaster/internal/timer"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	TimeBatchSize    = 100
	TimeBatchTimeout = 2 * time.Second
	TimePollTimeout  = 1 * time.Second
	// TimeMaxAttempts bounds how often a failing update is re-queued.
	TimeMaxAttempts = 5
)

type timePayload struct {
	SessionID     int `json:"session_id"`
	TimeRemaining int `json:"time_remaining"`
	Attempts      int `json:"attempts,omitempty"`
}

// TimeQueue is a timer.TimeRecorder that defers the write to
// TimeSyncWorker through a Redis list.
type TimeQueue struct {
	rdb *redis.Client
}

// NewTimeQueue creates a TimeQueue.
func NewTimeQueue(rdb *redis.Client) *TimeQueue {
	return &TimeQueue{rdb: rdb}
}

// RecordTime enqueues the remaining time of a session.
func (q *TimeQueue) RecordTime(ctx context.Context, sessionID, remaining int) error {
	raw, err := json.Marshal(timePayload{SessionID: sessionID, TimeRemaining: remaining})
	if err != nil {
		return err
	}
	if err := q.rdb.RPush(ctx, config.WorkerKey.PersistTimeQueue, raw).Err(); err != nil {
		return fmt.Errorf("enqueue time: %w", err)
	}
	return nil
}

// TimeSyncWorker drains the time queue into the quiz store.
type TimeSyncWorker struct {
	rdb      *redis.Client
	recorder timer.TimeRecorder
	log      zerolog.Logger
}

func NewTimeSyncWorker(rdb *redis.Client, recorder timer.TimeRecorder, log zerolog.Logger) *TimeSyncWorker {
	return &TimeSyncWorker{
		rdb:      rdb,
		recorder: recorder,
		log:      log.With().Str("component", "time_sync_worker").Logger(),
	}
}

// ----------------------------------------------------------------
// Worker loop with batching
// ----------------------------------------------------------------

func (w *TimeSyncWorker) Start(ctx context.Context) {
	w.log.Info().Msg("TimeSyncWorker started")

	batch := make([]*timePayload, 0, TimeBatchSize)
	lastFlush := time.Now()

	for {
		// Should flush?
		if len(batch) > 0 &&
			(len(batch) >= TimeBatchSize || time.Since(lastFlush) >= TimeBatchTimeout) {

			w.flushSafe(ctx, batch)
			batch = batch[:0]
			lastFlush = time.Now()
		}

		select {
		case <-ctx.Done():
			w.log.Info().Msg("Shutdown requested. Flushing remaining batch...")
			w.flushSafe(context.Background(), batch)
			return

		default:
			item, err := w.rdb.BLPop(ctx, TimePollTimeout, config.WorkerKey.PersistTimeQueue).Result()
			if err != nil {
				if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
					w.log.Error().Err(err).Msg("BLPop error")
				}
				continue
			}

			if len(item) < 2 {
				continue
			}

			var p timePayload
			if err := json.Unmarshal([]byte(item[1]), &p); err != nil {
				w.log.Error().Err(err).Msg("Invalid JSON payload")
				continue
			}

			batch = append(batch, &p)
		}
	}
}

// ----------------------------------------------------------------
// Batch apply
// ----------------------------------------------------------------

// latestPerSession keeps one entry per session. Remaining time only goes
// down, so the smallest value is the most recent.
func latestPerSession(batch []*timePayload) []*timePayload {
	index := make(map[int]int, len(batch))
	out := make([]*timePayload, 0, len(batch))
	for _, p := range batch {
		i, ok := index[p.SessionID]
		if !ok {
			index[p.SessionID] = len(out)
			out = append(out, p)
			continue
		}
		if p.TimeRemaining < out[i].TimeRemaining {
			out[i] = p
		}
	}
	return out
}

func (w *TimeSyncWorker) flushSafe(ctx context.Context, batch []*timePayload) {
	if len(batch) == 0 {
		return
	}

	for _, p := range latestPerSession(batch) {
		err := w.recorder.RecordTime(ctx, p.SessionID, p.TimeRemaining)
		if err == nil {
			continue
		}
		if errors.Is(err, service.ErrSessionNotFound) {
			w.log.Warn().Int("session_id", p.SessionID).Msg("Dropping time update for unknown session")
			continue
		}

		p.Attempts++
		if p.Attempts >= TimeMaxAttempts {
			w.log.Error().Err(err).Int("session_id", p.SessionID).Msg("Time update failed, giving up")
			continue
		}
		w.log.Error().Err(err).Int("session_id", p.SessionID).Msg("Time update failed, requeueing")
		raw, _ := json.Marshal(p)
		w.rdb.RPush(ctx, config.WorkerKey.PersistTimeQueue, raw)
	}
}
