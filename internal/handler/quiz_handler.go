package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/bilalpiaic/AgenticQuizMaster/internal/model"
	"github.com/bilalpiaic/AgenticQuizMaster/internal/response"
	"github.com/bilalpiaic/AgenticQuizMaster/internal/service"
	"github.com/bilalpiaic/AgenticQuizMaster/internal/validator"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// QuizHandler handles the quiz REST endpoints.
type QuizHandler struct {
	quizService *service.QuizService
}

// NewQuizHandler creates a new QuizHandler.
func NewQuizHandler(quizService *service.QuizService) *QuizHandler {
	return &QuizHandler{quizService: quizService}
}

// CreateSession godoc
// POST /api/v1/quiz/session
// Starts a quiz for the caller's generative-AI API key.
func (h *QuizHandler) CreateSession(c *gin.Context) {
	var req model.CreateSessionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	sess, err := h.quizService.CreateSession(c.Request.Context(), req.APIKey)
	if err != nil {
		failFromError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"session": sess})
}

// GetSession godoc
// GET /api/v1/quiz/session/:id
// Returns the session state.
func (h *QuizHandler) GetSession(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	sess, err := h.quizService.GetSession(c.Request.Context(), id)
	if err != nil {
		failFromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"session": sess})
}

// NextQuestion godoc
// POST /api/v1/quiz/session/:id/question
// Issues the question for the session's current number. Repeating the call
// before answering returns the same question.
func (h *QuizHandler) NextQuestion(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	q, err := h.quizService.NextQuestion(c.Request.Context(), id)
	if err != nil {
		failFromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"question": q.Public()})
}

// SubmitAnswer godoc
// POST /api/v1/quiz/answer
// Scores an answer. answerIndex -1 records a skip or timeout.
func (h *QuizHandler) SubmitAnswer(c *gin.Context) {
	var req model.SubmitAnswerRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	res, err := h.quizService.SubmitAnswer(c.Request.Context(), *req.QuestionID, *req.AnswerIndex, *req.TimeSpent)
	if err != nil {
		failFromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"result": res})
}

// GetResults godoc
// GET /api/v1/quiz/session/:id/results
// Returns the category breakdown and performance stats.
func (h *QuizHandler) GetResults(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	res, err := h.quizService.GetResults(c.Request.Context(), id)
	if err != nil {
		failFromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"results": res})
}

// UpdateTime godoc
// PATCH /api/v1/quiz/session/:id/time
// Persists the remaining quiz time reported by the client.
func (h *QuizHandler) UpdateTime(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req model.UpdateTimeRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	sess, err := h.quizService.UpdateTime(c.Request.Context(), id, *req.TimeRemaining)
	if err != nil {
		failFromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"session": sess})
}

// ─── Helpers ───────────────────────────────────────────────────────────

// parseID reads a positive integer path parameter, writing a 400 when it
// is malformed.
func parseID(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return 0, false
	}
	return id, true
}

// errorCode maps service errors onto API error codes.
func errorCode(err error) response.ErrCode {
	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		return response.ErrSessionNotFound
	case errors.Is(err, service.ErrQuestionNotFound):
		return response.ErrQuestionNotFound
	case errors.Is(err, service.ErrSessionCompleted):
		return response.ErrSessionCompleted
	case errors.Is(err, service.ErrAlreadyAnswered):
		return response.ErrAlreadyAnswered
	case errors.Is(err, service.ErrQuestionNotCurrent):
		return response.ErrQuestionNotCurrent
	case errors.Is(err, service.ErrInvalidAnswer):
		return response.ErrInvalidPayload
	case errors.Is(err, service.ErrTimeIncrease):
		return response.ErrTimeUpdateRejected
	default:
		return response.ErrInternal
	}
}

func failFromError(c *gin.Context, err error) {
	code := errorCode(err)
	if code == response.ErrInternal {
		zerolog.Ctx(c.Request.Context()).Error().Err(err).
			Str("path", c.FullPath()).
			Msg("Request failed")
	}
	response.Status(c, code)
}
