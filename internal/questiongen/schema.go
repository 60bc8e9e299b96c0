package questiongen

import (
	"github.com/bilalpiaic/AgenticQuizMaster/internal/llm"
)

// Bounds on generated content. Anything outside is treated as a failed
// generation.
const (
	MinTimeAllotted = 30
	MaxTimeAllotted = 600
)

func questionProperties() map[string]any {
	return map[string]any{
		"title":       map[string]any{"type": "string", "description": "Short question title"},
		"content":     map[string]any{"type": "string", "description": "The question text"},
		"codeExample": map[string]any{"type": "string", "description": "Code snippet for code-based questions"},
		"options": map[string]any{
			"type":     "array",
			"items":    map[string]any{"type": "string"},
			"minItems": 4,
			"maxItems": 4,
		},
		"correctAnswerIndex": map[string]any{"type": "integer", "minimum": 0, "maximum": 3},
		"explanation":        map[string]any{"type": "string"},
		"timeAllotted":       map[string]any{"type": "integer", "minimum": MinTimeAllotted, "maximum": MaxTimeAllotted},
	}
}

// QuestionSchema is the structured output requested from the model.
var QuestionSchema = &llm.Schema{
	Name:        "quiz-question",
	Description: "A multiple-choice quiz question with exactly four options",
	Definition: map[string]any{
		"type":                 "object",
		"properties":           questionProperties(),
		"required":             []string{"title", "content", "options", "correctAnswerIndex", "explanation", "timeAllotted"},
		"additionalProperties": false,
	},
}

// bankSchema validates the embedded question bank at load time.
var bankSchema = &llm.Schema{
	Name: "quiz-question-bank",
	Definition: map[string]any{
		"type":     "array",
		"minItems": 1,
		"items": map[string]any{
			"type": "object",
			"properties": func() map[string]any {
				props := questionProperties()
				props["category"] = map[string]any{"type": "string"}
				props["difficulty"] = map[string]any{"type": "integer", "minimum": 1, "maximum": 10}
				props["type"] = map[string]any{"type": "string", "enum": []string{"conceptual", "code-based"}}
				return props
			}(),
			"required": []string{
				"category", "difficulty", "type", "title", "content",
				"options", "correctAnswerIndex", "explanation", "timeAllotted",
			},
		},
	},
}
