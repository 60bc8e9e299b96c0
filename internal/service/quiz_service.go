package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/bilalpiaic/AgenticQuizMaster/internal/config"
	"github.com/bilalpiaic/AgenticQuizMaster/internal/model"
	"github.com/bilalpiaic/AgenticQuizMaster/internal/questiongen"
	"github.com/bilalpiaic/AgenticQuizMaster/internal/repository"
	"github.com/bilalpiaic/AgenticQuizMaster/internal/secret"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

var (
	ErrSessionNotFound  = errors.New("quiz session not found")
	ErrQuestionNotFound = errors.New("question not found")
	ErrSessionCompleted = errors.New("quiz session already completed")
	ErrAlreadyAnswered  = errors.New("question already answered")
	ErrInvalidAnswer    = errors.New("answer index out of range")
	// ErrQuestionNotCurrent rejects an answer to a question that is not the
	// session's current slot.
	ErrQuestionNotCurrent = errors.New("question is not the current question")
	// ErrTimeIncrease rejects an update that would add time to a session.
	ErrTimeIncrease = errors.New("remaining time cannot increase")

	// errSlotMoved means the session advanced while a question was being
	// issued for its previous slot.
	errSlotMoved = errors.New("question slot moved")
)

// QuestionGenerator produces question content. It always returns something
// usable; generation failures are absorbed by the fallback bank.
type QuestionGenerator interface {
	Generate(ctx context.Context, apiKey string, number, total int) questiongen.Generated
}

// QuizService handles quiz session business logic.
type QuizService struct {
	store     repository.Store
	sealer    *secret.Sealer
	generator QuestionGenerator
	quiz      config.QuizConfig
	now       func() time.Time
	inflight  singleflight.Group
	log       zerolog.Logger
}

// NewQuizService creates a new QuizService.
func NewQuizService(
	store repository.Store,
	sealer *secret.Sealer,
	generator QuestionGenerator,
	quiz config.QuizConfig,
	log zerolog.Logger,
) *QuizService {
	if quiz.TotalQuestions <= 0 {
		quiz.TotalQuestions = model.DefaultTotalQuestions
	}
	if quiz.TimeLimit <= 0 {
		quiz.TimeLimit = model.DefaultTimeLimit
	}
	return &QuizService{
		store:     store,
		sealer:    sealer,
		generator: generator,
		quiz:      quiz,
		now:       time.Now,
		log:       log.With().Str("component", "quiz_service").Logger(),
	}
}

// WithClock overrides the time source.
func (s *QuizService) WithClock(now func() time.Time) *QuizService {
	s.now = now
	return s
}

// CreateSession starts a quiz for the holder of apiKey.
func (s *QuizService) CreateSession(ctx context.Context, apiKey string) (*model.QuizSession, error) {
	sealed, err := s.sealer.Seal(apiKey)
	if err != nil {
		return nil, fmt.Errorf("seal api key: %w", err)
	}

	sess := &model.QuizSession{
		APIKey:          sealed,
		CurrentQuestion: 1,
		TotalQuestions:  s.quiz.TotalQuestions,
		TimeRemaining:   s.quiz.TimeLimit,
		StartedAt:       s.now().UTC(),
	}
	if err := s.store.CreateSession(ctx, sess); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	s.log.Info().Int("session_id", sess.ID).Msg("Quiz session created")
	return sess, nil
}

// GetSession returns a session by ID.
func (s *QuizService) GetSession(ctx context.Context, id int) (*model.QuizSession, error) {
	sess, err := s.store.GetSession(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	return sess, nil
}

// NextQuestion returns the open question for the session's current number,
// generating it on first request. Concurrent requests for the same slot
// share one generation.
func (s *QuizService) NextQuestion(ctx context.Context, sessionID int) (*model.Question, error) {
	for {
		q, err := s.nextQuestion(ctx, sessionID)
		if !errors.Is(err, errSlotMoved) {
			return q, err
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}
}

func (s *QuizService) nextQuestion(ctx context.Context, sessionID int) (*model.Question, error) {
	sess, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.IsCompleted {
		return nil, ErrSessionCompleted
	}

	number := sess.CurrentQuestion
	if q, err := s.openQuestion(ctx, sessionID, number); q != nil || err != nil {
		return q, err
	}

	key := strconv.Itoa(sessionID) + ":" + strconv.Itoa(number)
	v, err, _ := s.inflight.Do(key, func() (any, error) {
		// The leader's request may be cancelled while followers still wait.
		genCtx := context.WithoutCancel(ctx)

		if q, err := s.openQuestion(genCtx, sessionID, number); q != nil || err != nil {
			return q, err
		}

		// Answering closes the slot and advances the session atomically;
		// re-check the slot after the lookup.
		cur, err := s.GetSession(genCtx, sessionID)
		if err != nil {
			return nil, err
		}
		if cur.IsCompleted {
			return nil, ErrSessionCompleted
		}
		if cur.CurrentQuestion != number {
			return nil, errSlotMoved
		}

		apiKey, err := s.sealer.Open(cur.APIKey)
		if err != nil {
			s.log.Warn().Err(err).Int("session_id", sessionID).Msg("Cannot open session API key")
			apiKey = ""
		}

		gen := s.generator.Generate(genCtx, apiKey, number, cur.TotalQuestions)
		q := gen.Draft.Question(sessionID, number, gen.Source)
		if err := s.store.CreateQuestion(genCtx, q); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, ErrSessionNotFound
			}
			return nil, fmt.Errorf("create question: %w", err)
		}
		return q, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*model.Question).Clone(), nil
}

func (s *QuizService) openQuestion(ctx context.Context, sessionID, number int) (*model.Question, error) {
	q, err := s.store.FindOpenQuestion(ctx, sessionID, number)
	switch {
	case err == nil:
		return q, nil
	case errors.Is(err, repository.ErrNotFound):
		return nil, nil
	default:
		return nil, fmt.Errorf("find open question: %w", err)
	}
}

// GetQuestion returns a question by ID.
func (s *QuizService) GetQuestion(ctx context.Context, id int) (*model.Question, error) {
	q, err := s.store.GetQuestion(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrQuestionNotFound
		}
		return nil, fmt.Errorf("get question: %w", err)
	}
	return q, nil
}

// SubmitAnswer scores an answer and advances the session. answerIndex -1
// records a skip or timeout.
func (s *QuizService) SubmitAnswer(ctx context.Context, questionID, answerIndex, timeSpent int) (*model.AnswerResult, error) {
	if answerIndex < model.SkippedAnswer || answerIndex >= model.OptionCount {
		return nil, ErrInvalidAnswer
	}
	if timeSpent < 0 {
		timeSpent = 0
	}

	var correct bool
	sess, q, err := s.store.RecordAnswer(ctx, questionID, func(sess *model.QuizSession, q *model.Question) error {
		if q.Answered() {
			return ErrAlreadyAnswered
		}
		if sess.IsCompleted {
			return ErrSessionCompleted
		}
		if q.QuestionNumber != sess.CurrentQuestion {
			return ErrQuestionNotCurrent
		}
		correct = model.ApplyAnswer(sess, q, answerIndex, timeSpent, s.now().UTC())
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrQuestionNotFound
		case errors.Is(err, ErrAlreadyAnswered), errors.Is(err, ErrSessionCompleted), errors.Is(err, ErrQuestionNotCurrent):
			return nil, err
		default:
			return nil, fmt.Errorf("record answer: %w", err)
		}
	}

	s.log.Info().
		Int("session_id", sess.ID).
		Int("question_number", q.QuestionNumber).
		Bool("correct", correct).
		Bool("completed", sess.IsCompleted).
		Msg("Answer recorded")

	return &model.AnswerResult{
		IsCorrect:          correct,
		CorrectAnswerIndex: q.CorrectAnswerIndex,
		Explanation:        q.Explanation,
		Question:           q,
		Session:            sess,
	}, nil
}

// GetResults summarizes a session. Questions still open are counted as
// skipped but left out of the question list, so their answers stay hidden.
func (s *QuizService) GetResults(ctx context.Context, sessionID int) (*model.Results, error) {
	sess, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	questions, err := s.store.ListQuestionsBySession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}

	res := &model.Results{
		Session:           sess,
		CategoryBreakdown: make(map[string]model.CategoryScore),
		Questions:         make([]*model.Question, 0, len(questions)),
	}

	var difficultySum int
	for _, q := range questions {
		score := res.CategoryBreakdown[q.Category]
		score.Total++
		if q.IsCorrect != nil && *q.IsCorrect {
			score.Correct++
		}
		res.CategoryBreakdown[q.Category] = score

		if q.TimeSpent != nil {
			res.PerformanceStats.TotalTimeSpent += *q.TimeSpent
		}
		if q.Skipped() {
			res.PerformanceStats.QuestionsSkipped++
		}
		difficultySum += q.Difficulty

		if q.Answered() {
			res.Questions = append(res.Questions, q)
		}
	}

	if n := len(questions); n > 0 {
		stats := &res.PerformanceStats
		stats.AverageTimePerQuestion = int(math.Round(float64(stats.TotalTimeSpent) / float64(n)))
		stats.AverageDifficulty = math.Round(float64(difficultySum)/float64(n)*10) / 10
	}
	if sess.TotalQuestions > 0 {
		res.PerformanceStats.ScorePercent = math.Round(float64(sess.CorrectAnswers)/float64(sess.TotalQuestions)*1000) / 10
	}
	return res, nil
}

// UpdateTime persists the remaining quiz time. Reaching zero completes the
// session.
func (s *QuizService) UpdateTime(ctx context.Context, sessionID, timeRemaining int) (*model.QuizSession, error) {
	if timeRemaining < 0 {
		timeRemaining = 0
	}

	sess, err := s.store.UpdateSession(ctx, sessionID, func(sess *model.QuizSession) error {
		if sess.IsCompleted {
			return ErrSessionCompleted
		}
		if timeRemaining > sess.TimeRemaining {
			return ErrTimeIncrease
		}
		sess.TimeRemaining = timeRemaining
		if timeRemaining == 0 {
			model.Complete(sess, s.now().UTC())
		}
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrSessionNotFound
		case errors.Is(err, ErrSessionCompleted), errors.Is(err, ErrTimeIncrease):
			return nil, err
		default:
			return nil, fmt.Errorf("update time: %w", err)
		}
	}

	if sess.IsCompleted {
		s.log.Info().Int("session_id", sess.ID).Msg("Quiz time is up")
	}
	return sess, nil
}

// RecordTime is UpdateTime for background writers: a session that has
// already finished is not an error.
func (s *QuizService) RecordTime(ctx context.Context, sessionID, remaining int) error {
	_, err := s.UpdateTime(ctx, sessionID, remaining)
	if errors.Is(err, ErrSessionCompleted) || errors.Is(err, ErrTimeIncrease) {
		return nil
	}
	return err
}
