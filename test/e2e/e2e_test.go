//go:build e2e
// +build e2e

package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bilalpiaic/AgenticQuizMaster/internal/client"
	"github.com/bilalpiaic/AgenticQuizMaster/internal/model"
	"github.com/joho/godotenv"
)

const (
	defaultBaseURL = "http://localhost:5000/api/v1"
	// An unusable key still yields questions: generation falls back to the
	// built-in bank.
	defaultAPIKey = "e2e-invalid-key"
)

var (
	baseURL string
	apiKey  string
)

type envelope[T any] struct {
	Data  T `json:"data"`
	Error *struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Fields  map[string]string `json:"fields"`
	} `json:"error"`
}

func TestMain(m *testing.M) {
	// Load .env if present (ignore error)
	_ = godotenv.Load("../../.env")

	baseURL = os.Getenv("BASE_URL")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	apiKey = os.Getenv("E2E_API_KEY")
	if apiKey == "" {
		apiKey = defaultAPIKey
	}

	resp, err := http.Get(strings.TrimSuffix(baseURL, "/api/v1") + "/health")
	if err != nil {
		fmt.Printf("Server not reachable at %s: %v\n", baseURL, err)
		os.Exit(1)
	}
	resp.Body.Close()

	os.Exit(m.Run())
}

func TestQuizFlow(t *testing.T) {
	var sessionID int
	var question model.PublicQuestion

	t.Run("Create Session", func(t *testing.T) {
		resp, err := post("/quiz/session", map[string]string{"apiKey": apiKey})
		if err != nil {
			t.Fatalf("Request failed: %v", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("Expected 201, got %d: %s", resp.StatusCode, readBody(resp))
		}

		var body envelope[struct {
			Session model.QuizSession `json:"session"`
		}]
		decodeJSON(t, resp, &body)
		sessionID = body.Data.Session.ID
		if sessionID == 0 {
			t.Fatal("Expected a session id")
		}
		if body.Data.Session.CurrentQuestion != 1 || body.Data.Session.IsCompleted {
			t.Errorf("Unexpected initial session: %+v", body.Data.Session)
		}
	})

	t.Run("Create Session Without Key", func(t *testing.T) {
		resp, err := post("/quiz/session", map[string]string{"apiKey": "  "})
		if err != nil {
			t.Fatalf("Request failed: %v", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("Expected 400, got %d", resp.StatusCode)
		}
	})

	t.Run("Next Question Is Stable", func(t *testing.T) {
		path := fmt.Sprintf("/quiz/session/%d/question", sessionID)
		var ids [2]int
		for i := range ids {
			resp, err := post(path, nil)
			if err != nil {
				t.Fatalf("Request failed: %v", err)
			}
			if resp.StatusCode != http.StatusOK {
				t.Fatalf("Expected 200, got %d: %s", resp.StatusCode, readBody(resp))
			}
			var body envelope[struct {
				Question model.PublicQuestion `json:"question"`
			}]
			decodeJSON(t, resp, &body)
			resp.Body.Close()
			question = body.Data.Question
			ids[i] = question.ID
		}
		if ids[0] != ids[1] {
			t.Errorf("Expected the same open question, got %d and %d", ids[0], ids[1])
		}
		if len(question.Options) != model.OptionCount {
			t.Errorf("Expected %d options, got %d", model.OptionCount, len(question.Options))
		}
	})

	t.Run("Submit Answer", func(t *testing.T) {
		resp, err := post("/quiz/answer", map[string]int{
			"questionId": question.ID, "answerIndex": 0, "timeSpent": 12,
		})
		if err != nil {
			t.Fatalf("Request failed: %v", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("Expected 200, got %d: %s", resp.StatusCode, readBody(resp))
		}
		var body envelope[struct {
			Result model.AnswerResult `json:"result"`
		}]
		decodeJSON(t, resp, &body)
		if body.Data.Result.Session.CurrentQuestion != 2 {
			t.Errorf("Expected current question 2, got %d", body.Data.Result.Session.CurrentQuestion)
		}
	})

	t.Run("Submit Answer Twice", func(t *testing.T) {
		resp, err := post("/quiz/answer", map[string]int{
			"questionId": question.ID, "answerIndex": 1, "timeSpent": 1,
		})
		if err != nil {
			t.Fatalf("Request failed: %v", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusConflict {
			t.Errorf("Expected 409, got %d", resp.StatusCode)
		}
	})

	t.Run("Update Time", func(t *testing.T) {
		path := fmt.Sprintf("/quiz/session/%d/time", sessionID)
		resp, err := patch(path, map[string]int{"timeRemaining": 7000})
		if err != nil {
			t.Fatalf("Request failed: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("Expected 200, got %d", resp.StatusCode)
		}

		resp, err = patch(path, map[string]int{"timeRemaining": 7100})
		if err != nil {
			t.Fatalf("Request failed: %v", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("Expected 400 for a time increase, got %d", resp.StatusCode)
		}
	})

	t.Run("Get Results", func(t *testing.T) {
		resp, err := get(fmt.Sprintf("/quiz/session/%d/results", sessionID))
		if err != nil {
			t.Fatalf("Request failed: %v", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("Expected 200, got %d: %s", resp.StatusCode, readBody(resp))
		}
		var body envelope[struct {
			Results model.Results `json:"results"`
		}]
		decodeJSON(t, resp, &body)
		if len(body.Data.Results.Questions) != 1 {
			t.Errorf("Expected 1 answered question, got %d", len(body.Data.Results.Questions))
		}
		if body.Data.Results.PerformanceStats.TotalTimeSpent != 12 {
			t.Errorf("Expected 12s spent, got %d", body.Data.Results.PerformanceStats.TotalTimeSpent)
		}
	})

	t.Run("Unknown Session", func(t *testing.T) {
		resp, err := get("/quiz/session/999999999")
		if err != nil {
			t.Fatalf("Request failed: %v", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("Expected 404, got %d", resp.StatusCode)
		}
	})
}

func TestClientCompletesQuiz(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	api := client.New(strings.TrimSuffix(baseURL, "/api/v1"), nil)
	sess, err := api.CreateSession(ctx, apiKey)
	if err != nil {
		t.Fatalf("Create session: %v", err)
	}

	// Skip a few questions, then let the clock run out.
	for i := 0; i < 3; i++ {
		q, err := api.NextQuestion(ctx, sess.ID)
		if err != nil {
			t.Fatalf("Next question: %v", err)
		}
		if _, err := api.SubmitAnswer(ctx, q.ID, model.SkippedAnswer, 0); err != nil {
			t.Fatalf("Submit: %v", err)
		}
	}

	done, err := api.UpdateTime(ctx, sess.ID, 0)
	if err != nil {
		t.Fatalf("Update time: %v", err)
	}
	if !done.IsCompleted {
		t.Fatal("Expected the session to complete at zero time")
	}

	if _, err := api.NextQuestion(ctx, sess.ID); err == nil {
		t.Error("Expected an error for a completed session")
	}

	res, err := api.GetResults(ctx, sess.ID)
	if err != nil {
		t.Fatalf("Results: %v", err)
	}
	if res.PerformanceStats.QuestionsSkipped != 3 {
		t.Errorf("Expected 3 skipped, got %d", res.PerformanceStats.QuestionsSkipped)
	}
}

// TestConcurrentAnswers submits the same answer in parallel. Run it once per
// STORAGE_DRIVER (memory and postgres) to cover both stores' locking.
func TestConcurrentAnswers(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	api := client.New(strings.TrimSuffix(baseURL, "/api/v1"), nil)
	sess, err := api.CreateSession(ctx, apiKey)
	if err != nil {
		t.Fatalf("Create session: %v", err)
	}
	q, err := api.NextQuestion(ctx, sess.ID)
	if err != nil {
		t.Fatalf("Next question: %v", err)
	}

	const n = 8
	var wg sync.WaitGroup
	var wins, conflicts atomic.Int32
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := api.SubmitAnswer(ctx, q.ID, 0, 5)
			var apiErr *client.APIError
			switch {
			case err == nil:
				wins.Add(1)
			case errors.As(err, &apiErr) && apiErr.Status == http.StatusConflict:
				conflicts.Add(1)
			default:
				t.Errorf("Submit: %v", err)
			}
		}()
	}
	wg.Wait()

	if wins.Load() != 1 || conflicts.Load() != n-1 {
		t.Fatalf("Expected 1 win and %d conflicts, got %d and %d", n-1, wins.Load(), conflicts.Load())
	}

	got, err := api.GetSession(ctx, sess.ID)
	if err != nil {
		t.Fatalf("Get session: %v", err)
	}
	if got.CurrentQuestion != 2 {
		t.Errorf("Expected current question 2, got %d", got.CurrentQuestion)
	}
}

// Helpers

func post(path string, body interface{}) (*http.Response, error) {
	return send(http.MethodPost, path, body)
}

func patch(path string, body interface{}) (*http.Response, error) {
	return send(http.MethodPatch, path, body)
}

func send(method, path string, body interface{}) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonBytes, _ := json.Marshal(body)
		bodyReader = bytes.NewBuffer(jsonBytes)
	}

	req, err := http.NewRequest(method, baseURL+path, bodyReader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	hc := &http.Client{Timeout: 60 * time.Second}
	return hc.Do(req)
}

func get(path string) (*http.Response, error) {
	req, err := http.NewRequest(http.MethodGet, baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	hc := &http.Client{Timeout: 10 * time.Second}
	return hc.Do(req)
}

func readBody(resp *http.Response) string {
	b, _ := io.ReadAll(resp.Body)
	return string(b)
}

func decodeJSON(t *testing.T, resp *http.Response, v interface{}) {
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("json decode: %v", err)
	}
}
