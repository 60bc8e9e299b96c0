package websocket

import "github.com/bilalpiaic/AgenticQuizMaster/internal/timer"

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionStartQuestion Action = "start_question"
	ActionPause         Action = "pause"
	ActionResume        Action = "resume"
	ActionResetQuestion Action = "reset_question"
	ActionPing          Action = "ping"
)

// TimerRequest is every message the client sends. TimeLimit is read by
// start_question and reset_question only.
type TimerRequest struct {
	Action    Action `json:"action"`
	TimeLimit int    `json:"timeLimit,omitempty"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventError          Event = "error"
	EventTick           Event = "tick"
	EventState          Event = "state"
	EventQuestionTimeUp Event = "question_time_up"
	EventTotalTimeUp    Event = "total_time_up"
	EventPong           Event = "pong"
)

// TimerResponse carries the timer state with every event except errors
// and pongs.
type TimerResponse struct {
	Event Event `json:"event"`
	timer.Snapshot
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
