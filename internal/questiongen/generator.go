package questiongen

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/bilalpiaic/AgenticQuizMaster/internal/llm"
	"github.com/bilalpiaic/AgenticQuizMaster/internal/model"
)

// Draft is question content before it is bound to a session.
type Draft struct {
	Category           string             `json:"category"`
	Difficulty         int                `json:"difficulty"`
	Type               model.QuestionType `json:"type"`
	Title              string             `json:"title"`
	Content            string             `json:"content"`
	CodeExample        string             `json:"codeExample,omitempty"`
	Options            []string           `json:"options"`
	CorrectAnswerIndex int                `json:"correctAnswerIndex"`
	Explanation        string             `json:"explanation"`
	TimeAllotted       int                `json:"timeAllotted"`
}

// ErrInvalidDraft wraps every structural problem found in a draft.
var ErrInvalidDraft = errors.New("invalid question draft")

// Validate checks what the JSON schema cannot: non-blank text and distinct
// options.
func (d *Draft) Validate() error {
	var problems []string
	if strings.TrimSpace(d.Title) == "" {
		problems = append(problems, "title is empty")
	}
	if strings.TrimSpace(d.Content) == "" {
		problems = append(problems, "content is empty")
	}
	if strings.TrimSpace(d.Explanation) == "" {
		problems = append(problems, "explanation is empty")
	}
	if len(d.Options) != model.OptionCount {
		problems = append(problems, fmt.Sprintf("expected %d options, got %d", model.OptionCount, len(d.Options)))
	} else {
		seen := make(map[string]bool, len(d.Options))
		for i, o := range d.Options {
			key := strings.ToLower(strings.TrimSpace(o))
			if key == "" {
				problems = append(problems, fmt.Sprintf("option %d is empty", i))
			} else if seen[key] {
				problems = append(problems, fmt.Sprintf("option %d duplicates another option", i))
			}
			seen[key] = true
		}
	}
	if d.CorrectAnswerIndex < 0 || d.CorrectAnswerIndex >= model.OptionCount {
		problems = append(problems, fmt.Sprintf("correctAnswerIndex %d out of range", d.CorrectAnswerIndex))
	}
	if d.TimeAllotted < MinTimeAllotted || d.TimeAllotted > MaxTimeAllotted {
		problems = append(problems, fmt.Sprintf("timeAllotted %d outside [%d, %d]", d.TimeAllotted, MinTimeAllotted, MaxTimeAllotted))
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidDraft, strings.Join(problems, "; "))
	}
	return nil
}

// Question binds d to a session slot.
func (d *Draft) Question(sessionID, number int, source model.QuestionSource) *model.Question {
	q := &model.Question{
		SessionID:          sessionID,
		QuestionNumber:     number,
		Category:           d.Category,
		Difficulty:         d.Difficulty,
		Type:               d.Type,
		Title:              d.Title,
		Content:            d.Content,
		Options:            append([]string(nil), d.Options...),
		CorrectAnswerIndex: d.CorrectAnswerIndex,
		Explanation:        d.Explanation,
		TimeAllotted:       d.TimeAllotted,
		Source:             source,
	}
	if strings.TrimSpace(d.CodeExample) != "" {
		code := d.CodeExample
		q.CodeExample = &code
	}
	return q
}

// LLMGenerator asks a provider for one question.
type LLMGenerator struct {
	maxTokens   int
	temperature float64
}

// NewLLMGenerator creates an LLMGenerator.
func NewLLMGenerator(maxTokens int, temperature float64) *LLMGenerator {
	return &LLMGenerator{maxTokens: maxTokens, temperature: temperature}
}

// Generate requests a question matching plan p. The plan's category,
// difficulty and type are authoritative; the model only supplies content.
func (g *LLMGenerator) Generate(ctx context.Context, provider llm.Provider, p Plan, number, total int) (*Draft, error) {
	req := llm.Request{
		System:      SystemPrompt(p),
		Messages:    llm.UserMessage(UserPrompt(p, number, total)),
		Schema:      QuestionSchema,
		MaxTokens:   g.maxTokens,
		Temperature: g.temperature,
	}

	resp, err := provider.Generate(llm.WithPurpose(ctx, fmt.Sprintf("question:%d", number)), req)
	if err != nil {
		return nil, fmt.Errorf("generate question: %w", err)
	}

	var d Draft
	if err := json.Unmarshal(resp.Content, &d); err != nil {
		return nil, &llm.ErrInvalidResponse{Content: resp.Content, Err: err}
	}
	d.Category, d.Difficulty, d.Type = p.Category, p.Difficulty, p.Type

	if err := d.Validate(); err != nil {
		return nil, err
	}
	return &d, nil
}
