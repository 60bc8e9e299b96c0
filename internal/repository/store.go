package repository

import (
	"context"
	"errors"

	"github.com/bilalpiaic/AgenticQuizMaster/internal/model"
)

// ErrNotFound is returned when a session or question does not exist.
var ErrNotFound = errors.New("record not found")

// SessionMutator edits a session inside an update. Returning an error aborts
// the update without persisting anything.
type SessionMutator func(s *model.QuizSession) error

// AnswerMutator edits a question and its owning session together.
type AnswerMutator func(s *model.QuizSession, q *model.Question) error

// Store persists quiz sessions and their questions. IDs are assigned by the
// store and increase from 1.
type Store interface {
	CreateSession(ctx context.Context, s *model.QuizSession) error
	GetSession(ctx context.Context, id int) (*model.QuizSession, error)
	UpdateSession(ctx context.Context, id int, fn SessionMutator) (*model.QuizSession, error)

	CreateQuestion(ctx context.Context, q *model.Question) error
	GetQuestion(ctx context.Context, id int) (*model.Question, error)
	ListQuestionsBySession(ctx context.Context, sessionID int) ([]*model.Question, error)
	// FindOpenQuestion returns the unanswered question issued for the given
	// question number, or ErrNotFound.
	FindOpenQuestion(ctx context.Context, sessionID, number int) (*model.Question, error)

	// RecordAnswer loads the question and its session, applies fn and
	// persists both atomically.
	RecordAnswer(ctx context.Context, questionID int, fn AnswerMutator) (*model.QuizSession, *model.Question, error)
}
