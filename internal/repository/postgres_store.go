package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/bilalpiaic/AgenticQuizMaster/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists sessions and questions in PostgreSQL. The schema
// lives in migrations/ and is applied with cmd/migrate.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgresStore.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const sessionColumns = `id, api_key, current_question, total_questions, correct_answers,
	time_remaining, started_at, completed_at, is_completed`

const questionColumns = `id, session_id, question_number, category, difficulty, type, title,
	content, code_example, options, correct_answer_index, explanation, time_allotted,
	source, user_answer_index, is_correct, time_spent, answered_at`

func scanSession(row pgx.Row) (*model.QuizSession, error) {
	s := &model.QuizSession{}
	err := row.Scan(&s.ID, &s.APIKey, &s.CurrentQuestion, &s.TotalQuestions, &s.CorrectAnswers,
		&s.TimeRemaining, &s.StartedAt, &s.CompletedAt, &s.IsCompleted)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return s, err
}

func scanQuestion(row pgx.Row) (*model.Question, error) {
	q := &model.Question{}
	err := row.Scan(&q.ID, &q.SessionID, &q.QuestionNumber, &q.Category, &q.Difficulty, &q.Type,
		&q.Title, &q.Content, &q.CodeExample, &q.Options, &q.CorrectAnswerIndex, &q.Explanation,
		&q.TimeAllotted, &q.Source, &q.UserAnswerIndex, &q.IsCorrect, &q.TimeSpent, &q.AnsweredAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return q, err
}

func (r *PostgresStore) CreateSession(ctx context.Context, s *model.QuizSession) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO quiz_sessions (api_key, current_question, total_questions, correct_answers,
		                            time_remaining, started_at, completed_at, is_completed)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id`,
		s.APIKey, s.CurrentQuestion, s.TotalQuestions, s.CorrectAnswers,
		s.TimeRemaining, s.StartedAt, s.CompletedAt, s.IsCompleted,
	).Scan(&s.ID)
}

func (r *PostgresStore) GetSession(ctx context.Context, id int) (*model.QuizSession, error) {
	return scanSession(r.pool.QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM quiz_sessions WHERE id = $1`, id))
}

// UpdateSession locks the session row for the duration of fn.
func (r *PostgresStore) UpdateSession(ctx context.Context, id int, fn SessionMutator) (*model.QuizSession, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	s, err := scanSession(tx.QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM quiz_sessions WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, err
	}
	if err := fn(s); err != nil {
		return nil, err
	}
	if err := saveSession(ctx, tx, s); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return s, nil
}

func saveSession(ctx context.Context, tx pgx.Tx, s *model.QuizSession) error {
	_, err := tx.Exec(ctx,
		`UPDATE quiz_sessions
		 SET current_question = $1, correct_answers = $2, time_remaining = $3,
		     completed_at = $4, is_completed = $5
		 WHERE id = $6`,
		s.CurrentQuestion, s.CorrectAnswers, s.TimeRemaining, s.CompletedAt, s.IsCompleted, s.ID)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	return nil
}

func (r *PostgresStore) CreateQuestion(ctx context.Context, q *model.Question) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO questions (session_id, question_number, category, difficulty, type, title,
		                        content, code_example, options, correct_answer_index, explanation,
		                        time_allotted, source)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		 RETURNING id`,
		q.SessionID, q.QuestionNumber, q.Category, q.Difficulty, q.Type, q.Title,
		q.Content, q.CodeExample, q.Options, q.CorrectAnswerIndex, q.Explanation,
		q.TimeAllotted, q.Source,
	).Scan(&q.ID)
	if isForeignKeyViolation(err) {
		return ErrNotFound
	}
	return err
}

func (r *PostgresStore) GetQuestion(ctx context.Context, id int) (*model.Question, error) {
	return scanQuestion(r.pool.QueryRow(ctx,
		`SELECT `+questionColumns+` FROM questions WHERE id = $1`, id))
}

func (r *PostgresStore) ListQuestionsBySession(ctx context.Context, sessionID int) ([]*model.Question, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+questionColumns+`
		 FROM questions
		 WHERE session_id = $1
		 ORDER BY question_number, id`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []*model.Question
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

func (r *PostgresStore) FindOpenQuestion(ctx context.Context, sessionID, number int) (*model.Question, error) {
	return scanQuestion(r.pool.QueryRow(ctx,
		`SELECT `+questionColumns+`
		 FROM questions
		 WHERE session_id = $1 AND question_number = $2 AND user_answer_index IS NULL
		 ORDER BY id
		 LIMIT 1`, sessionID, number))
}

// RecordAnswer locks the question and then its session, so concurrent
// answers to the same question serialize and the loser sees it answered.
func (r *PostgresStore) RecordAnswer(ctx context.Context, questionID int, fn AnswerMutator) (*model.QuizSession, *model.Question, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	q, err := scanQuestion(tx.QueryRow(ctx,
		`SELECT `+questionColumns+` FROM questions WHERE id = $1 FOR UPDATE`, questionID))
	if err != nil {
		return nil, nil, err
	}
	s, err := scanSession(tx.QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM quiz_sessions WHERE id = $1 FOR UPDATE`, q.SessionID))
	if err != nil {
		return nil, nil, err
	}

	if err := fn(s, q); err != nil {
		return nil, nil, err
	}

	if _, err := tx.Exec(ctx,
		`UPDATE questions
		 SET user_answer_index = $1, is_correct = $2, time_spent = $3, answered_at = $4
		 WHERE id = $5`,
		q.UserAnswerIndex, q.IsCorrect, q.TimeSpent, q.AnsweredAt, q.ID); err != nil {
		return nil, nil, fmt.Errorf("update question: %w", err)
	}
	if err := saveSession(ctx, tx, s); err != nil {
		return nil, nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, nil, fmt.Errorf("commit: %w", err)
	}
	return s, q, nil
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}
