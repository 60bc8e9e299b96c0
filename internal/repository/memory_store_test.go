package repository

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bilalpiaic/AgenticQuizMaster/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedSession(t *testing.T, st Store) *model.QuizSession {
	t.Helper()
	s := &model.QuizSession{
		APIKey:          "sealed",
		CurrentQuestion: 1,
		TotalQuestions:  3,
		TimeRemaining:   600,
		StartedAt:       time.Now(),
	}
	require.NoError(t, st.CreateSession(context.Background(), s))
	return s
}

func seedQuestion(t *testing.T, st Store, sessionID, number int) *model.Question {
	t.Helper()
	q := &model.Question{
		SessionID:          sessionID,
		QuestionNumber:     number,
		Category:           model.CategoryMarkdown,
		Difficulty:         6,
		Type:               model.QuestionTypeConceptual,
		Title:              "Tables",
		Content:            "Which syntax aligns a column right?",
		Options:            []string{"a", "b", "c", "d"},
		CorrectAnswerIndex: 2,
		Explanation:        "colon on the right",
		TimeAllotted:       60,
		Source:             model.SourceFallback,
	}
	require.NoError(t, st.CreateQuestion(context.Background(), q))
	return q
}

func TestMemoryStore_IDsAutoIncrement(t *testing.T) {
	st := NewMemoryStore()
	a := seedSession(t, st)
	b := seedSession(t, st)
	assert.Equal(t, 1, a.ID)
	assert.Equal(t, 2, b.ID)

	q1 := seedQuestion(t, st, a.ID, 1)
	q2 := seedQuestion(t, st, b.ID, 1)
	assert.Equal(t, 1, q1.ID)
	assert.Equal(t, 2, q2.ID)
}

func TestMemoryStore_GetMissing(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()

	_, err := st.GetSession(ctx, 42)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = st.GetQuestion(ctx, 42)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = st.UpdateSession(ctx, 42, func(*model.QuizSession) error { return nil })
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_CreateQuestionRequiresSession(t *testing.T) {
	st := NewMemoryStore()
	err := st.CreateQuestion(context.Background(), &model.Question{SessionID: 9})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()
	s := seedSession(t, st)

	got, err := st.GetSession(ctx, s.ID)
	require.NoError(t, err)
	got.CorrectAnswers = 99

	again, err := st.GetSession(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, again.CorrectAnswers)
}

func TestMemoryStore_UpdateSessionAbortsOnError(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()
	s := seedSession(t, st)

	boom := errors.New("boom")
	_, err := st.UpdateSession(ctx, s.ID, func(s *model.QuizSession) error {
		s.TimeRemaining = 1
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, _ := st.GetSession(ctx, s.ID)
	assert.Equal(t, 600, got.TimeRemaining)

	updated, err := st.UpdateSession(ctx, s.ID, func(s *model.QuizSession) error {
		s.TimeRemaining = 300
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 300, updated.TimeRemaining)
}

func TestMemoryStore_ListAndFindOpen(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()
	s := seedSession(t, st)
	other := seedSession(t, st)

	q2 := seedQuestion(t, st, s.ID, 2)
	q1 := seedQuestion(t, st, s.ID, 1)
	seedQuestion(t, st, other.ID, 1)

	list, err := st.ListQuestionsBySession(ctx, s.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, q1.ID, list[0].ID)
	assert.Equal(t, q2.ID, list[1].ID)

	open, err := st.FindOpenQuestion(ctx, s.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, q1.ID, open.ID)

	_, _, err = st.RecordAnswer(ctx, q1.ID, func(s *model.QuizSession, q *model.Question) error {
		model.ApplyAnswer(s, q, 2, 10, time.Now())
		return nil
	})
	require.NoError(t, err)

	_, err = st.FindOpenQuestion(ctx, s.ID, 1)
	assert.ErrorIs(t, err, ErrNotFound)

	empty, err := st.ListQuestionsBySession(ctx, 404)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestMemoryStore_RecordAnswerUpdatesBoth(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()
	s := seedSession(t, st)
	q := seedQuestion(t, st, s.ID, 1)

	gotS, gotQ, err := st.RecordAnswer(ctx, q.ID, func(s *model.QuizSession, q *model.Question) error {
		model.ApplyAnswer(s, q, 2, 33, time.Now())
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, gotS.CorrectAnswers)
	assert.Equal(t, 2, gotS.CurrentQuestion)
	assert.True(t, *gotQ.IsCorrect)

	storedQ, _ := st.GetQuestion(ctx, q.ID)
	assert.Equal(t, 33, *storedQ.TimeSpent)
	storedS, _ := st.GetSession(ctx, s.ID)
	assert.Equal(t, 1, storedS.CorrectAnswers)
}

func TestMemoryStore_RecordAnswerSerializes(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()
	s := seedSession(t, st)
	q := seedQuestion(t, st, s.ID, 1)

	errAnswered := errors.New("answered")
	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := st.RecordAnswer(ctx, q.ID, func(s *model.QuizSession, q *model.Question) error {
				if q.Answered() {
					return errAnswered
				}
				model.ApplyAnswer(s, q, 2, 1, time.Now())
				return nil
			})
			if err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
	got, _ := st.GetSession(ctx, s.ID)
	assert.Equal(t, 1, got.CorrectAnswers)
	assert.Equal(t, 2, got.CurrentQuestion)
}
