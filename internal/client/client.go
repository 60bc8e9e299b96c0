// Package client is a typed HTTP client for the quiz REST API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/bilalpiaic/AgenticQuizMaster/internal/model"
)

// APIError is a non-2xx answer decoded from the response envelope.
type APIError struct {
	Status  int
	Code    string
	Message string
	Fields  map[string]string
}

func (e *APIError) Error() string {
	if len(e.Fields) > 0 {
		parts := make([]string, 0, len(e.Fields))
		for f, msg := range e.Fields {
			parts = append(parts, f+": "+msg)
		}
		return fmt.Sprintf("%s (%d): %s [%s]", e.Code, e.Status, e.Message, strings.Join(parts, "; "))
	}
	return fmt.Sprintf("%s (%d): %s", e.Code, e.Status, e.Message)
}

// Client talks to one quiz server.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a Client for baseURL, e.g. http://localhost:5000. A nil
// httpClient gets one with a 60 second timeout, enough for a slow
// generation.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Fields  map[string]string `json:"fields"`
	} `json:"error"`
}

// CreateSession starts a quiz.
func (c *Client) CreateSession(ctx context.Context, apiKey string) (*model.QuizSession, error) {
	var out struct {
		Session *model.QuizSession `json:"session"`
	}
	err := c.do(ctx, http.MethodPost, "/api/v1/quiz/session", map[string]string{"apiKey": apiKey}, &out)
	return out.Session, err
}

// GetSession fetches a session.
func (c *Client) GetSession(ctx context.Context, id int) (*model.QuizSession, error) {
	var out struct {
		Session *model.QuizSession `json:"session"`
	}
	err := c.do(ctx, http.MethodGet, sessionPath(id, ""), nil, &out)
	return out.Session, err
}

// NextQuestion requests the session's current question.
func (c *Client) NextQuestion(ctx context.Context, sessionID int) (*model.PublicQuestion, error) {
	var out struct {
		Question *model.PublicQuestion `json:"question"`
	}
	err := c.do(ctx, http.MethodPost, sessionPath(sessionID, "/question"), nil, &out)
	return out.Question, err
}

// SubmitAnswer answers a question; answerIndex -1 skips it.
func (c *Client) SubmitAnswer(ctx context.Context, questionID, answerIndex, timeSpent int) (*model.AnswerResult, error) {
	body := map[string]int{
		"questionId":  questionID,
		"answerIndex": answerIndex,
		"timeSpent":   timeSpent,
	}
	var out struct {
		Result *model.AnswerResult `json:"result"`
	}
	err := c.do(ctx, http.MethodPost, "/api/v1/quiz/answer", body, &out)
	return out.Result, err
}

// GetResults fetches the results summary.
func (c *Client) GetResults(ctx context.Context, sessionID int) (*model.Results, error) {
	var out struct {
		Results *model.Results `json:"results"`
	}
	err := c.do(ctx, http.MethodGet, sessionPath(sessionID, "/results"), nil, &out)
	return out.Results, err
}

// UpdateTime reports the remaining quiz time.
func (c *Client) UpdateTime(ctx context.Context, sessionID, timeRemaining int) (*model.QuizSession, error) {
	var out struct {
		Session *model.QuizSession `json:"session"`
	}
	err := c.do(ctx, http.MethodPatch, sessionPath(sessionID, "/time"), map[string]int{"timeRemaining": timeRemaining}, &out)
	return out.Session, err
}

func sessionPath(id int, suffix string) string {
	return "/api/v1/quiz/session/" + strconv.Itoa(id) + suffix
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("%s %s: decode response (status %d): %w", method, path, resp.StatusCode, err)
	}

	if resp.StatusCode >= 300 || env.Error != nil {
		apiErr := &APIError{Status: resp.StatusCode}
		if env.Error != nil {
			apiErr.Code, apiErr.Message, apiErr.Fields = env.Error.Code, env.Error.Message, env.Error.Fields
		}
		return apiErr
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	return json.Unmarshal(env.Data, out)
}
