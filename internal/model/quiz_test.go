package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSession(total int) *QuizSession {
	return &QuizSession{
		ID:              1,
		CurrentQuestion: 1,
		TotalQuestions:  total,
		TimeRemaining:   DefaultTimeLimit,
		StartedAt:       time.Now(),
	}
}

func TestApplyAnswer_CorrectAdvances(t *testing.T) {
	s := newSession(3)
	q := &Question{ID: 1, SessionID: 1, QuestionNumber: 1, CorrectAnswerIndex: 2}
	now := time.Now()

	correct := ApplyAnswer(s, q, 2, 45, now)

	assert.True(t, correct)
	assert.Equal(t, 1, s.CorrectAnswers)
	assert.Equal(t, 2, s.CurrentQuestion)
	assert.False(t, s.IsCompleted)
	require.NotNil(t, q.IsCorrect)
	assert.True(t, *q.IsCorrect)
	assert.Equal(t, 45, *q.TimeSpent)
	assert.Equal(t, now, *q.AnsweredAt)
}

func TestApplyAnswer_WrongDoesNotScore(t *testing.T) {
	s := newSession(3)
	q := &Question{CorrectAnswerIndex: 0}

	assert.False(t, ApplyAnswer(s, q, 3, 10, time.Now()))
	assert.Equal(t, 0, s.CorrectAnswers)
	assert.Equal(t, 2, s.CurrentQuestion)
}

func TestApplyAnswer_SkipRecordsMinusOne(t *testing.T) {
	s := newSession(3)
	q := &Question{CorrectAnswerIndex: 1}

	assert.False(t, ApplyAnswer(s, q, SkippedAnswer, 120, time.Now()))
	assert.True(t, q.Answered())
	assert.True(t, q.Skipped())
	assert.Equal(t, SkippedAnswer, *q.UserAnswerIndex)
}

func TestApplyAnswer_LastQuestionCompletes(t *testing.T) {
	s := newSession(2)
	s.CurrentQuestion = 2
	now := time.Now()

	ApplyAnswer(s, &Question{CorrectAnswerIndex: 0}, 0, 5, now)

	assert.True(t, s.IsCompleted)
	assert.Equal(t, 2, s.CurrentQuestion, "current question is clamped to total")
	require.NotNil(t, s.CompletedAt)
	assert.Equal(t, now, *s.CompletedAt)
}

func TestComplete_Idempotent(t *testing.T) {
	s := newSession(1)
	first := time.Now()
	Complete(s, first)
	Complete(s, first.Add(time.Hour))
	assert.Equal(t, first, *s.CompletedAt)
}

func TestQuestion_PublicHidesAnswer(t *testing.T) {
	code := "print(1)"
	q := &Question{
		ID: 7, Title: "t", Options: []string{"a", "b", "c", "d"},
		CorrectAnswerIndex: 3, Explanation: "because", CodeExample: &code,
	}
	p := q.Public()
	assert.Equal(t, 7, p.ID)
	assert.Equal(t, q.Options, p.Options)

	p.Options[0] = "mutated"
	assert.Equal(t, "a", q.Options[0])
}

func TestQuestion_CloneIsDeep(t *testing.T) {
	idx := 1
	q := &Question{Options: []string{"a", "b", "c", "d"}, UserAnswerIndex: &idx}
	c := q.Clone()
	*c.UserAnswerIndex = 2
	c.Options[1] = "x"
	assert.Equal(t, 1, *q.UserAnswerIndex)
	assert.Equal(t, "b", q.Options[1])
}

func TestQuestion_SkippedWhenUnanswered(t *testing.T) {
	q := &Question{}
	assert.False(t, q.Answered())
	assert.True(t, q.Skipped())
}
