package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bilalpiaic/AgenticQuizMaster/internal/config"
	"github.com/bilalpiaic/AgenticQuizMaster/internal/response"
	"github.com/bilalpiaic/AgenticQuizMaster/internal/service"
	"github.com/bilalpiaic/AgenticQuizMaster/internal/timer"
	ws "github.com/bilalpiaic/AgenticQuizMaster/internal/websocket"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// allowedOrigins comes from config.Config.AllowedOrigins.
// An empty slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// TimerHandler streams a server-side quiz timer over WebSocket.
type TimerHandler struct {
	quizService *service.QuizService
	recorder    timer.TimeRecorder
	rdb         *redis.Client
	log         zerolog.Logger
	upgrader    websocket.Upgrader

	tickInterval time.Duration
	syncEvery    int // ticks between time writes

	active atomic.Int64
}

// NewTimerHandler creates a new TimerHandler. recorder receives the
// remaining time periodically and on disconnect; rdb, when not nil, keeps
// the question countdown across reconnects.
func NewTimerHandler(
	quizService *service.QuizService,
	recorder timer.TimeRecorder,
	rdb *redis.Client,
	syncInterval time.Duration,
	log zerolog.Logger,
	allowedOrigins []string,
) *TimerHandler {
	syncEvery := int(syncInterval / time.Second)
	if syncEvery <= 0 {
		syncEvery = 30
	}
	return &TimerHandler{
		quizService:  quizService,
		recorder:     recorder,
		rdb:          rdb,
		log:          log.With().Str("component", "timer_handler").Logger(),
		upgrader:     buildUpgrader(allowedOrigins),
		tickInterval: time.Second,
		syncEvery:    syncEvery,
	}
}

// WithTickInterval sets the wall-clock length of one timer second.
func (h *TimerHandler) WithTickInterval(d time.Duration) *TimerHandler {
	h.tickInterval = d
	return h
}

// ActiveStreams returns the number of open timer connections.
func (h *TimerHandler) ActiveStreams() int64 {
	return h.active.Load()
}

// timerConn serializes writes: the ticker goroutine and the read loop both
// send on the same connection.
type timerConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (tc *timerConn) send(v interface{}) {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	_ = ws.WriteTyped(tc.conn, v)
}

func (tc *timerConn) snapshot(event ws.Event, snap timer.Snapshot) {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	_ = ws.WriteSnapshot(tc.conn, event, snap)
}

func (tc *timerConn) fail(msg string) {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	_ = ws.WriteError(tc.conn, msg)
}

// TimerStream godoc
// WS /ws/v1/quiz/session/:id/timer
// Runs the quiz countdown on the server and pushes tick and time-up events.
func (h *TimerHandler) TimerStream(c *gin.Context) {
	sessionID, ok := parseID(c, "id")
	if !ok {
		return
	}

	sess, err := h.quizService.GetSession(c.Request.Context(), sessionID)
	if err != nil {
		failFromError(c, err)
		return
	}
	if sess.IsCompleted {
		response.Status(c, response.ErrSessionCompleted)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	h.active.Add(1)
	defer h.active.Add(-1)

	wsLog := h.log.With().Int("session_id", sessionID).Logger()
	wsLog.Info().Msg("Timer stream connected")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tc := &timerConn{conn: conn}
	var t *timer.Timer
	t = timer.New(sess.TimeRemaining,
		timer.OnQuestionTimeUp(func() { tc.snapshot(ws.EventQuestionTimeUp, t.Snapshot()) }),
		timer.OnTotalTimeUp(func() { tc.snapshot(ws.EventTotalTimeUp, t.Snapshot()) }),
	)
	h.restore(ctx, sessionID, t)
	tc.snapshot(ws.EventState, t.Snapshot())

	lastRecorded := sess.TimeRemaining
	var recordMu sync.Mutex
	record := func(snap timer.Snapshot) {
		recordMu.Lock()
		defer recordMu.Unlock()
		if snap.TotalRemaining >= lastRecorded {
			return
		}
		writeCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
		defer done()
		if err := h.recorder.RecordTime(writeCtx, sessionID, snap.TotalRemaining); err != nil {
			wsLog.Error().Err(err).Msg("Record time failed")
			return
		}
		lastRecorded = snap.TotalRemaining
	}

	runDone := make(chan struct{})
	go func() {
		defer close(runDone)
		ticks := 0
		err := t.Run(ctx, h.tickInterval, func(snap timer.Snapshot) {
			tc.snapshot(ws.EventTick, snap)
			ticks++
			if ticks%h.syncEvery == 0 {
				record(snap)
				h.save(ctx, sessionID, snap)
			}
		})
		if err == nil {
			// Quiz time ran out: persist the zero and end the stream.
			record(t.Snapshot())
			tc.mu.Lock()
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, "time is up"),
				time.Now().Add(time.Second))
			tc.mu.Unlock()
			conn.Close()
		}
	}()

	h.readLoop(conn, tc, t, wsLog)

	cancel()
	<-runDone
	final := t.Snapshot()
	record(final)
	h.save(context.Background(), sessionID, final)
	wsLog.Info().Int("time_remaining", final.TotalRemaining).Msg("Timer stream closed")
}

func (h *TimerHandler) readLoop(conn *websocket.Conn, tc *timerConn, t *timer.Timer, wsLog zerolog.Logger) {
	for {
		var msg ws.TimerRequest
		if err := ws.ReadJSON(conn, &msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			} else {
				wsLog.Debug().Msg("Connection closed")
			}
			return
		}

		switch msg.Action {
		case ws.ActionStartQuestion:
			if msg.TimeLimit <= 0 {
				tc.fail("timeLimit must be positive")
				continue
			}
			t.StartQuestion(msg.TimeLimit)
		case ws.ActionResetQuestion:
			if msg.TimeLimit <= 0 {
				tc.fail("timeLimit must be positive")
				continue
			}
			t.ResetQuestion(msg.TimeLimit)
		case ws.ActionPause:
			t.Pause()
		case ws.ActionResume:
			t.Resume()
		case ws.ActionPing:
			tc.send(ws.PongResponse{Event: ws.EventPong})
			continue
		default:
			wsLog.Warn().Str("action", string(msg.Action)).Msg("Unknown action")
			tc.fail("unknown action: " + string(msg.Action))
			continue
		}
		tc.snapshot(ws.EventState, t.Snapshot())
	}
}

// ─── Snapshot cache ────────────────────────────────────────────────────

// restore reinstates the question countdown saved by an earlier stream.
// The quiz clock always comes from the store.
func (h *TimerHandler) restore(ctx context.Context, sessionID int, t *timer.Timer) {
	if h.rdb == nil {
		return
	}
	raw, err := h.rdb.Get(ctx, config.CacheKey.SessionTimerKey(sessionID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			h.log.Warn().Err(err).Int("session_id", sessionID).Msg("Load timer snapshot failed")
		}
		return
	}
	var snap timer.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return
	}
	t.RestoreQuestion(snap.QuestionElapsed+snap.QuestionRemaining, snap.QuestionRemaining)
}

func (h *TimerHandler) save(ctx context.Context, sessionID int, snap timer.Snapshot) {
	if h.rdb == nil {
		return
	}
	raw, _ := json.Marshal(snap)
	ttl := time.Duration(snap.TotalRemaining)*time.Second + time.Hour
	if err := h.rdb.Set(ctx, config.CacheKey.SessionTimerKey(sessionID), raw, ttl).Err(); err != nil {
		h.log.Warn().Err(err).Int("session_id", sessionID).Msg("Save timer snapshot failed")
	}
}
