package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorded struct {
	method string
	path   string
	body   map[string]any
}

func newServer(t *testing.T, status int, payload string) (*Client, *recorded) {
	t.Helper()
	rec := &recorded{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.method, rec.path = r.Method, r.URL.Path
		if raw, _ := io.ReadAll(r.Body); len(raw) > 0 {
			_ = json.Unmarshal(raw, &rec.body)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, payload)
	}))
	t.Cleanup(srv.Close)
	return New(srv.URL+"/", nil), rec
}

func TestCreateSession(t *testing.T) {
	c, rec := newServer(t, http.StatusCreated,
		`{"data":{"session":{"id":4,"currentQuestion":1,"totalQuestions":50,"timeRemaining":7200}},"metadata":{}}`)

	sess, err := c.CreateSession(context.Background(), "sk")
	require.NoError(t, err)
	assert.Equal(t, 4, sess.ID)
	assert.Equal(t, 7200, sess.TimeRemaining)
	assert.Equal(t, http.MethodPost, rec.method)
	assert.Equal(t, "/api/v1/quiz/session", rec.path)
	assert.Equal(t, "sk", rec.body["apiKey"])
}

func TestNextQuestion(t *testing.T) {
	c, rec := newServer(t, http.StatusOK,
		`{"data":{"question":{"id":9,"questionNumber":3,"options":["a","b","c","d"],"timeAllotted":120}}}`)

	q, err := c.NextQuestion(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, "/api/v1/quiz/session/2/question", rec.path)
	assert.Equal(t, 9, q.ID)
	assert.Len(t, q.Options, 4)
}

func TestSubmitAnswer(t *testing.T) {
	c, rec := newServer(t, http.StatusOK,
		`{"data":{"result":{"isCorrect":true,"correctAnswerIndex":1,"explanation":"x","session":{"id":1,"correctAnswers":1}}}}`)

	res, err := c.SubmitAnswer(context.Background(), 9, 1, 33)
	require.NoError(t, err)
	assert.True(t, res.IsCorrect)
	assert.Equal(t, 1, res.Session.CorrectAnswers)
	assert.Equal(t, float64(9), rec.body["questionId"])
	assert.Equal(t, float64(33), rec.body["timeSpent"])
}

func TestUpdateTimeAndResults(t *testing.T) {
	c, rec := newServer(t, http.StatusOK, `{"data":{"session":{"id":1,"timeRemaining":10}}}`)
	sess, err := c.UpdateTime(context.Background(), 1, 10)
	require.NoError(t, err)
	assert.Equal(t, http.MethodPatch, rec.method)
	assert.Equal(t, "/api/v1/quiz/session/1/time", rec.path)
	assert.Equal(t, 10, sess.TimeRemaining)

	c, rec = newServer(t, http.StatusOK,
		`{"data":{"results":{"categoryBreakdown":{"Markdown":{"correct":1,"total":2}},"performanceStats":{"scorePercent":50}}}}`)
	res, err := c.GetResults(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "/api/v1/quiz/session/1/results", rec.path)
	assert.Equal(t, 2, res.CategoryBreakdown["Markdown"].Total)
	assert.InDelta(t, 50.0, res.PerformanceStats.ScorePercent, 0.001)
}

func TestAPIError(t *testing.T) {
	c, _ := newServer(t, http.StatusConflict,
		`{"data":null,"error":{"code":"QUESTION_ALREADY_ANSWERED","message":"This question has already been answered."}}`)

	_, err := c.SubmitAnswer(context.Background(), 1, 0, 1)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusConflict, apiErr.Status)
	assert.Equal(t, "QUESTION_ALREADY_ANSWERED", apiErr.Code)
	assert.Contains(t, apiErr.Error(), "409")
}

func TestAPIError_Fields(t *testing.T) {
	c, _ := newServer(t, http.StatusBadRequest,
		`{"error":{"code":"VALIDATION_ERROR","message":"Validation failed.","fields":{"apiKey":"apiKey is a required field"}}}`)

	_, err := c.CreateSession(context.Background(), "")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Contains(t, apiErr.Error(), "apiKey is a required field")
}

func TestNonJSONResponse(t *testing.T) {
	c, _ := newServer(t, http.StatusBadGateway, `<html>bad gateway</html>`)
	_, err := c.GetSession(context.Background(), 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode response")
}
