package model

import (
	"time"
)

// Defaults applied to a new session when configuration does not override them.
const (
	DefaultTotalQuestions = 50
	DefaultTimeLimit      = 7200 // seconds

	// SkippedAnswer is the answer index submitted when a question times out
	// or the user skips it.
	SkippedAnswer = -1
	OptionCount   = 4
)

// QuestionType is the style of a question.
type QuestionType string

const (
	QuestionTypeConceptual QuestionType = "conceptual"
	QuestionTypeCodeBased  QuestionType = "code-based"
)

// QuestionSource records whether a question came from the model or the bank.
type QuestionSource string

const (
	SourceGenerated QuestionSource = "generated"
	SourceFallback  QuestionSource = "fallback"
)

// Categories covered by the quiz.
const (
	CategoryPromptEngineering = "Prompt Engineering"
	CategoryMarkdown          = "Markdown"
	CategoryPydantic          = "Pydantic"
	CategoryAgentsSDK         = "OpenAI Agents SDK"
)

// QuizSession is one quiz attempt.
type QuizSession struct {
	ID int `json:"id"`
	// APIKey is the sealed generative-AI key of the caller. It never leaves
	// the server.
	APIKey          string     `json:"-"`
	CurrentQuestion int        `json:"currentQuestion"`
	TotalQuestions  int        `json:"totalQuestions"`
	CorrectAnswers  int        `json:"correctAnswers"`
	TimeRemaining   int        `json:"timeRemaining"`
	StartedAt       time.Time  `json:"startedAt"`
	CompletedAt     *time.Time `json:"completedAt"`
	IsCompleted     bool       `json:"isCompleted"`
}

// Question is one multiple-choice item issued to a session.
type Question struct {
	ID                 int            `json:"id"`
	SessionID          int            `json:"sessionId"`
	QuestionNumber     int            `json:"questionNumber"`
	Category           string         `json:"category"`
	Difficulty         int            `json:"difficulty"`
	Type               QuestionType   `json:"type"`
	Title              string         `json:"title"`
	Content            string         `json:"content"`
	CodeExample        *string        `json:"codeExample"`
	Options            []string       `json:"options"`
	CorrectAnswerIndex int            `json:"correctAnswerIndex"`
	Explanation        string         `json:"explanation"`
	TimeAllotted       int            `json:"timeAllotted"`
	Source             QuestionSource `json:"source"`
	UserAnswerIndex    *int           `json:"userAnswerIndex"`
	IsCorrect          *bool          `json:"isCorrect"`
	TimeSpent          *int           `json:"timeSpent"`
	AnsweredAt         *time.Time     `json:"answeredAt"`
}

// Answered reports whether an answer (including a skip) has been recorded.
func (q *Question) Answered() bool {
	return q.UserAnswerIndex != nil
}

// Skipped reports whether the question was left unanswered or timed out.
func (q *Question) Skipped() bool {
	return q.UserAnswerIndex == nil || *q.UserAnswerIndex == SkippedAnswer
}

// PublicQuestion is a Question as shown while it is still open: the correct
// index and explanation are withheld.
type PublicQuestion struct {
	ID             int            `json:"id"`
	SessionID      int            `json:"sessionId"`
	QuestionNumber int            `json:"questionNumber"`
	Category       string         `json:"category"`
	Difficulty     int            `json:"difficulty"`
	Type           QuestionType   `json:"type"`
	Title          string         `json:"title"`
	Content        string         `json:"content"`
	CodeExample    *string        `json:"codeExample"`
	Options        []string       `json:"options"`
	TimeAllotted   int            `json:"timeAllotted"`
	Source         QuestionSource `json:"source"`
}

// Public strips answer material from q.
func (q *Question) Public() PublicQuestion {
	return PublicQuestion{
		ID:             q.ID,
		SessionID:      q.SessionID,
		QuestionNumber: q.QuestionNumber,
		Category:       q.Category,
		Difficulty:     q.Difficulty,
		Type:           q.Type,
		Title:          q.Title,
		Content:        q.Content,
		CodeExample:    q.CodeExample,
		Options:        append([]string(nil), q.Options...),
		TimeAllotted:   q.TimeAllotted,
		Source:         q.Source,
	}
}

// Clone returns a deep copy of q.
func (q *Question) Clone() *Question {
	c := *q
	c.Options = append([]string(nil), q.Options...)
	if q.CodeExample != nil {
		v := *q.CodeExample
		c.CodeExample = &v
	}
	if q.UserAnswerIndex != nil {
		v := *q.UserAnswerIndex
		c.UserAnswerIndex = &v
	}
	if q.IsCorrect != nil {
		v := *q.IsCorrect
		c.IsCorrect = &v
	}
	if q.TimeSpent != nil {
		v := *q.TimeSpent
		c.TimeSpent = &v
	}
	if q.AnsweredAt != nil {
		v := *q.AnsweredAt
		c.AnsweredAt = &v
	}
	return &c
}

// Clone returns a copy of s.
func (s *QuizSession) Clone() *QuizSession {
	c := *s
	if s.CompletedAt != nil {
		v := *s.CompletedAt
		c.CompletedAt = &v
	}
	return &c
}

// ApplyAnswer records an answer on q and advances s. It returns whether the
// answer was correct. Callers are responsible for rejecting repeat answers.
func ApplyAnswer(s *QuizSession, q *Question, answerIndex, timeSpent int, now time.Time) bool {
	correct := answerIndex == q.CorrectAnswerIndex

	q.UserAnswerIndex = &answerIndex
	q.IsCorrect = &correct
	q.TimeSpent = &timeSpent
	q.AnsweredAt = &now

	if correct {
		s.CorrectAnswers++
	}
	s.CurrentQuestion++
	if s.CurrentQuestion > s.TotalQuestions {
		s.CurrentQuestion = s.TotalQuestions
		Complete(s, now)
	}
	return correct
}

// Complete marks s finished at now. It is a no-op for a finished session.
func Complete(s *QuizSession, now time.Time) {
	if s.IsCompleted {
		return
	}
	s.IsCompleted = true
	s.CompletedAt = &now
}

// ─── Requests ──────────────────────────────────────────────────────────

// CreateSessionRequest is the payload for starting a quiz.
type CreateSessionRequest struct {
	APIKey string `json:"apiKey" binding:"required,notblank,max=512"`
}

// SubmitAnswerRequest is the payload for answering a question.
// AnswerIndex -1 records a timeout or skip.
type SubmitAnswerRequest struct {
	QuestionID  *int `json:"questionId" binding:"required,min=1"`
	AnswerIndex *int `json:"answerIndex" binding:"required,min=-1,max=3"`
	TimeSpent   *int `json:"timeSpent" binding:"required,min=0"`
}

// UpdateTimeRequest is the payload for persisting the remaining quiz time.
type UpdateTimeRequest struct {
	TimeRemaining *int `json:"timeRemaining" binding:"required,min=0"`
}

// ─── Responses ─────────────────────────────────────────────────────────

// AnswerResult is returned after an answer is recorded.
type AnswerResult struct {
	IsCorrect          bool         `json:"isCorrect"`
	CorrectAnswerIndex int          `json:"correctAnswerIndex"`
	Explanation        string       `json:"explanation"`
	Question           *Question    `json:"question"`
	Session            *QuizSession `json:"session"`
}

// CategoryScore is the per-category tally in a results summary.
type CategoryScore struct {
	Correct int `json:"correct"`
	Total   int `json:"total"`
}

// PerformanceStats aggregates timing and difficulty over a session.
type PerformanceStats struct {
	TotalTimeSpent         int     `json:"totalTimeSpent"`
	AverageTimePerQuestion int     `json:"averageTimePerQuestion"`
	QuestionsSkipped       int     `json:"questionsSkipped"`
	AverageDifficulty      float64 `json:"averageDifficulty"`
	ScorePercent           float64 `json:"scorePercent"`
}

// Results is the end-of-quiz summary.
type Results struct {
	Session           *QuizSession             `json:"session"`
	CategoryBreakdown map[string]CategoryScore `json:"categoryBreakdown"`
	PerformanceStats  PerformanceStats         `json:"performanceStats"`
	Questions         []*Question              `json:"questions"`
}
