// Package timer implements the quiz countdown: one clock for the whole
// quiz and one for the current question, paused and resumed together.
package timer

import (
	"context"
	"sync"
	"time"
)

// TimeRecorder persists the remaining quiz time of a session.
type TimeRecorder interface {
	RecordTime(ctx context.Context, sessionID, remaining int) error
}

// Snapshot is the timer state at one instant. All values are seconds.
type Snapshot struct {
	TotalRemaining    int  `json:"totalRemaining"`
	QuestionRemaining int  `json:"questionRemaining"`
	QuestionElapsed   int  `json:"questionElapsed"`
	Running           bool `json:"running"`
}

// Option configures a Timer.
type Option func(*Timer)

// OnQuestionTimeUp registers fn to run when the question countdown reaches
// zero.
func OnQuestionTimeUp(fn func()) Option {
	return func(t *Timer) { t.onQuestionTimeUp = fn }
}

// OnTotalTimeUp registers fn to run when the quiz countdown reaches zero.
func OnTotalTimeUp(fn func()) Option {
	return func(t *Timer) { t.onTotalTimeUp = fn }
}

// Timer is safe for concurrent use. Callbacks run outside the lock, so they
// may call back into the timer.
type Timer struct {
	mu sync.Mutex

	total         int
	question      int
	questionLimit int
	running       bool

	questionFired bool
	totalFired    bool

	onQuestionTimeUp func()
	onTotalTimeUp    func()
}

// New creates a stopped timer with totalSeconds on the quiz clock.
func New(totalSeconds int, opts ...Option) *Timer {
	if totalSeconds < 0 {
		totalSeconds = 0
	}
	t := &Timer{total: totalSeconds, totalFired: totalSeconds == 0}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// StartQuestion sets the question clock to limit and starts both clocks.
func (t *Timer) StartQuestion(limit int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.setQuestion(limit)
	t.running = t.total > 0
}

// ResetQuestion sets the question clock to limit without changing whether
// the timer runs.
func (t *Timer) ResetQuestion(limit int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.setQuestion(limit)
}

// RestoreQuestion reinstates a question countdown of limit seconds with
// remaining seconds left. The timer is left stopped.
func (t *Timer) RestoreQuestion(limit, remaining int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.setQuestion(limit)
	if remaining >= 0 && remaining < limit {
		t.question = remaining
	}
	t.questionFired = t.question == 0
	t.running = false
}

func (t *Timer) setQuestion(limit int) {
	if limit < 0 {
		limit = 0
	}
	t.question = limit
	t.questionLimit = limit
	t.questionFired = false
}

// Stop halts both clocks.
func (t *Timer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.running = false
}

// Pause is Stop.
func (t *Timer) Pause() { t.Stop() }

// Resume restarts both clocks. It does nothing once quiz time is up.
func (t *Timer) Resume() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.running = t.total > 0
}

// Tick advances the running clocks by one second and fires any time-up
// callback whose clock just reached zero.
func (t *Timer) Tick() Snapshot {
	t.mu.Lock()
	if !t.running {
		snap := t.snapshot()
		t.mu.Unlock()
		return snap
	}

	var questionUp, totalUp bool
	if t.question > 0 {
		t.question--
		if t.question == 0 && !t.questionFired {
			t.questionFired = true
			questionUp = true
		}
	}
	if t.total > 0 {
		t.total--
		if t.total == 0 && !t.totalFired {
			t.totalFired = true
			t.running = false
			totalUp = true
		}
	}
	snap := t.snapshot()
	onQuestion, onTotal := t.onQuestionTimeUp, t.onTotalTimeUp
	t.mu.Unlock()

	if questionUp && onQuestion != nil {
		onQuestion()
	}
	if totalUp && onTotal != nil {
		onTotal()
	}
	return snap
}

// Snapshot returns the current state.
func (t *Timer) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshot()
}

func (t *Timer) snapshot() Snapshot {
	return Snapshot{
		TotalRemaining:    t.total,
		QuestionRemaining: t.question,
		QuestionElapsed:   t.questionLimit - t.question,
		Running:           t.running,
	}
}

// Expired reports whether quiz time is up.
func (t *Timer) Expired() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.total == 0
}

// Run ticks every interval until ctx is done or quiz time runs out, calling
// onTick after each tick while the timer is running. It returns nil on
// expiry and ctx.Err() on cancellation.
func (t *Timer) Run(ctx context.Context, interval time.Duration, onTick func(Snapshot)) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			wasRunning := t.Snapshot().Running
			snap := t.Tick()
			if wasRunning && onTick != nil {
				onTick(snap)
			}
			if snap.TotalRemaining == 0 {
				return nil
			}
		}
	}
}
